package types

import (
	"time"

	"github.com/spf13/cobra"
)

// RunConfig encapsulates the parsed command-line input of one invocation.
//
// It aggregates positional arguments and flags into a single structure passed from the
// cobra PreRun phase to the command runner.
type RunConfig struct {
	// Command is the cobra.Command instance being executed.
	Command *cobra.Command
	// Operation is the registry command to run (LIST, TAGS, MANIFEST, DIGEST, DELETE).
	Operation string
	// Registry is the registry domain, optionally prefixed with a scheme.
	Registry string
	// Username is the explicit username from --username, empty if unset.
	Username string
	// Password is the explicit password from --password, empty if unset.
	Password string
	// Protocol is the explicit scheme from --proto, empty if unset.
	Protocol string
	// ImageName is the repository from --image.
	ImageName string
	// Tag is the manifest tag from --tag.
	Tag string
	// Digest is the manifest digest from --digest.
	Digest string
	// ConfigPath overrides the stored configuration location, set via --conf.
	ConfigPath string
	// DockerConfigDir enables the Docker CLI credential store as a stored source, set via --docker-config.
	DockerConfigDir string
	// Timeout bounds each HTTP request; zero disables the limit.
	Timeout time.Duration
	// TLSCACert is a PEM bundle used to verify the registry, set via --tls-ca-cert.
	TLSCACert string
	// TLSInsecure disables TLS certificate verification, set via --tls-insecure.
	TLSInsecure bool
	// MetricsFile receives Prometheus text metrics after the command, set via --metrics-file.
	MetricsFile string
}
