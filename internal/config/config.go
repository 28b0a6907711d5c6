// Package config loads the stored credential configuration of docker-registry.
// The file uses INI syntax with an [auth] section holding username and password keys.
package config

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// Configuration file layout.
const (
	// DefaultPath is the config location relative to the user's home directory.
	DefaultPath = ".docker-registry/config"
	// AuthSection is the INI section holding credentials.
	AuthSection = "auth"
	// Source is the StoredConfig.Source value for this file.
	Source = "config file"
)

// ResolvePath returns the configuration path to read.
//
// A non-empty override wins; otherwise the default path under home is used.
//
// Parameters:
//   - override: Path from --conf, empty if not given.
//   - home: Function returning the user's home directory (os.UserHomeDir in production).
//
// Returns:
//   - string: Path to read.
//   - error: types.ErrNoHomeDirectory if no override is given and home cannot be determined.
func ResolvePath(override string, home func() (string, error)) (string, error) {
	if override != "" {
		return override, nil
	}

	dir, err := home()
	if err != nil || dir == "" {
		logrus.WithError(err).Debug("Unable to detect home directory")

		return "", &types.RegistryError{
			Kind:    types.KindConfig,
			Message: types.ErrNoHomeDirectory.Message,
			Err:     err,
		}
	}

	return filepath.Join(dir, DefaultPath), nil
}

// Load reads stored credentials from path.
//
// A missing or unreadable file is not an error: it yields an empty StoredConfig.
func Load(path string) types.StoredConfig {
	file, err := ini.Load(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Debug("Couldn't load config file")

		return types.StoredConfig{}
	}

	section := file.Section(AuthSection)
	stored := types.StoredConfig{
		Username: section.Key("username").String(),
		Password: section.Key("password").String(),
		Source:   Source,
	}

	logrus.WithFields(logrus.Fields{
		"path":         path,
		"has_username": stored.Username != "",
		"has_password": stored.Password != "",
	}).Debug("Loaded config file")

	return stored
}
