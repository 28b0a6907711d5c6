package auth

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	dockerCliConfig "github.com/docker/cli/cli/config"
	dockerConfigConfigfile "github.com/docker/cli/cli/config/configfile"
	dockerConfigCredentials "github.com/docker/cli/cli/config/credentials"
	dockerConfigTypes "github.com/docker/cli/cli/config/types"

	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// DockerHubServer is the key the Docker CLI stores Docker Hub credentials under.
const DockerHubServer = "https://index.docker.io/v1/"

// DockerConfigSource is the StoredConfig.Source value for Docker CLI credentials.
const DockerConfigSource = "docker config"

// Errors for Docker CLI credential lookups.
var (
	// errFailedLoadDockerConfig indicates a failure to load the Docker configuration file.
	errFailedLoadDockerConfig = errors.New("failed to load Docker config")
	// errFailedGetCredentials indicates the credential store could not return credentials.
	errFailedGetCredentials = errors.New("failed to get credentials from store")
)

// dockerHubAliases are registry domains whose credentials live under DockerHubServer.
var dockerHubAliases = map[string]struct{}{
	"docker.io":            {},
	"index.docker.io":      {},
	"registry-1.docker.io": {},
}

// DockerConfigCredentials reads the credentials stored by the Docker CLI for a registry.
//
// Parameters:
//   - configDir: Directory containing config.json; empty uses the Docker CLI default.
//   - domain: Registry domain, e.g. "registry.local:5000".
//
// Returns:
//   - types.StoredConfig: Credentials found, empty if the store has none for domain.
//   - error: Non-nil if the config or credential helper fails.
func DockerConfigCredentials(configDir, domain string) (types.StoredConfig, error) {
	fields := logrus.Fields{
		"domain":     domain,
		"config_dir": configDir,
	}

	configFile, err := dockerCliConfig.Load(configDir)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Debug("Failed to load Docker config")

		return types.StoredConfig{}, fmt.Errorf("%w: %w", errFailedLoadDockerConfig, err)
	}

	server := domain
	if _, ok := dockerHubAliases[domain]; ok {
		server = DockerHubServer
	}

	authConfig, err := CredentialsStore(configFile).Get(server)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Debug("Failed to get credentials from store")

		return types.StoredConfig{}, fmt.Errorf("%w: %w", errFailedGetCredentials, err)
	}

	if authConfig == (dockerConfigTypes.AuthConfig{}) {
		logrus.WithFields(fields).WithField("config_file", configFile.Filename).
			Debug("No credentials found in Docker config")

		return types.StoredConfig{}, nil
	}

	logrus.WithFields(fields).WithFields(logrus.Fields{
		"username":    authConfig.Username,
		"config_file": configFile.Filename,
	}).Debug("Loaded credentials from Docker config")

	return types.StoredConfig{
		Username: authConfig.Username,
		Password: authConfig.Password,
		Source:   DockerConfigSource,
	}, nil
}

// CredentialsStore returns the credential helper named by credsStore, or the config file itself.
func CredentialsStore(configFile *dockerConfigConfigfile.ConfigFile) dockerConfigCredentials.Store {
	if configFile.CredentialsStore != "" {
		return dockerConfigCredentials.NewNativeStore(configFile, configFile.CredentialsStore)
	}

	return dockerConfigCredentials.NewFileStore(configFile)
}
