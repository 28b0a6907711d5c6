// Package auth provides credential resolution for registry access.
// It merges explicit input, stored configuration sources, and an interactive
// password prompt into a single username and password pair.
package auth

import (
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// PasswordPrompt is shown before reading a password from the terminal.
const PasswordPrompt = "Enter Password: "

// Prompter reads a password interactively.
type Prompter interface {
	// Interactive reports whether a user can be prompted.
	Interactive() bool
	// ReadPassword shows prompt and reads a line without echoing it.
	ReadPassword(prompt string) (string, error)
}

// Resolve derives credentials from the chain of sources.
//
// Each field is resolved independently, top-down: the explicit value, then each stored
// source in order, then (password only) the prompter if the session is interactive.
// When both explicit values are present they are returned without consulting anything else.
//
// Parameters:
//   - explicitUsername: Username supplied on the command line, empty if none.
//   - explicitPassword: Password supplied on the command line, empty if none.
//   - stored: Stored configuration sources, highest priority first.
//   - prompter: Terminal prompter; nil disables prompting.
//
// Returns:
//   - types.RegistryCredentials: Complete credentials.
//   - error: types.ErrMissingUsername or types.ErrMissingPassword; never partial credentials.
func Resolve(
	explicitUsername string,
	explicitPassword string,
	stored []types.StoredConfig,
	prompter Prompter,
) (types.RegistryCredentials, error) {
	if explicitUsername != "" && explicitPassword != "" {
		logrus.WithField("username", explicitUsername).Debug("Using credentials from command line")

		return types.RegistryCredentials{Username: explicitUsername, Password: explicitPassword}, nil
	}

	username, from := firstValue(explicitUsername, stored, func(s types.StoredConfig) string { return s.Username })
	if username == "" {
		return types.RegistryCredentials{}, types.ErrMissingUsername
	}

	logrus.WithFields(logrus.Fields{
		"username": username,
		"source":   from,
	}).Debug("Resolved username")

	password, from := firstValue(explicitPassword, stored, func(s types.StoredConfig) string { return s.Password })
	if password == "" {
		prompted, err := promptPassword(prompter)
		if err != nil {
			return types.RegistryCredentials{}, err
		}

		password, from = prompted, "prompt"
	}

	logrus.WithField("source", from).Debug("Resolved password")

	return types.RegistryCredentials{Username: username, Password: password}, nil
}

// firstValue returns the explicit value or the first non-empty stored value, with its source name.
func firstValue(
	explicit string,
	stored []types.StoredConfig,
	field func(types.StoredConfig) string,
) (string, string) {
	if explicit != "" {
		return explicit, "command line"
	}

	for _, source := range stored {
		if value := field(source); value != "" {
			return value, source.Source
		}
	}

	return "", ""
}

// promptPassword asks the prompter for a password when the session is interactive.
func promptPassword(prompter Prompter) (string, error) {
	if prompter == nil || !prompter.Interactive() {
		return "", types.ErrMissingPassword
	}

	password, err := prompter.ReadPassword(PasswordPrompt)
	if err != nil {
		return "", &types.RegistryError{
			Kind:    types.KindCredential,
			Message: "Failed to read password",
			Field:   "password",
			Err:     err,
		}
	}

	if password == "" {
		return "", types.ErrMissingPassword
	}

	return password, nil
}
