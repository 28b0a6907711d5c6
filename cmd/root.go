// Package cmd contains the command-line interface (CLI) definitions and execution logic for docker-registry.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/docker-registry/internal/config"
	"github.com/nicholas-fedor/docker-registry/internal/flags"
	"github.com/nicholas-fedor/docker-registry/pkg/metrics"
	"github.com/nicholas-fedor/docker-registry/pkg/registry"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/auth"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/helpers"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/transport"
	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// Registry commands accepted as the first positional argument (case-insensitive).
const (
	CommandList     = "LIST"
	CommandTags     = "TAGS"
	CommandManifest = "MANIFEST"
	CommandDigest   = "DIGEST"
	CommandDelete   = "DELETE"
)

// deleteConfirmation is printed after a successful DELETE.
const deleteConfirmation = "Okay"

// errUnknownCommand indicates the first positional argument is not a registry command.
var errUnknownCommand = errors.New("unknown command")

// rootCmd represents the root command for the docker-registry CLI.
var rootCmd = NewRootCommand()

// NewRootCommand creates and configures the root command for the docker-registry CLI.
//
// Returns:
//   - *cobra.Command: A pointer to the configured root command, ready for flag registration and execution.
func NewRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "docker-registry <LIST|TAGS|MANIFEST|DIGEST|DELETE> <registry>",
		Short: "A CLI wrapper around the Docker Registry V2 API",
		Long: "\ndocker-registry lists repositories and tags, fetches manifests and digests, and deletes images " +
			"on any registry implementing the Docker Registry V2 HTTP API.",
		Args:          cobra.ExactArgs(2), //nolint:mnd
		ValidArgs:     []string{CommandList, CommandTags, CommandManifest, CommandDigest, CommandDelete},
		PreRunE:       preRun,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// init registers command-line flags for the root command during package initialization.
func init() {
	flags.SetDefaults()
	flags.RegisterRegistryFlags(rootCmd)
	flags.RegisterSystemFlags(rootCmd)
}

// Execute runs the root command and exits with status 1 on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

// preRun configures logging and secret flags before the command runs.
func preRun(cmd *cobra.Command, _ []string) error {
	flagsSet := cmd.PersistentFlags()
	flags.ProcessFlagAliases(flagsSet)

	if err := flags.SetupLogging(flagsSet); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	return flags.GetSecretsFromFiles(cmd)
}

// run reads the parsed flags and executes the requested registry command.
func run(cmd *cobra.Command, args []string) error {
	runConfig, err := flags.ReadFlags(cmd, args)
	if err != nil {
		return err
	}

	runner := NewRunner(cmd.OutOrStdout())

	return runner.Run(cmd.Context(), runConfig)
}

// Runner executes a single registry command.
//
// Its fields are the I/O collaborators of an invocation, replaceable in tests.
type Runner struct {
	// Out receives command results.
	Out io.Writer
	// Prompter reads a password when none is configured.
	Prompter auth.Prompter
	// HomeDir locates the default config file.
	HomeDir func() (string, error)
	// HTTPClient, if set, replaces the client built from the transport flags.
	HTTPClient *http.Client
	// Logger receives request diagnostics.
	Logger *logrus.Logger
}

// NewRunner returns a Runner writing to out, prompting on the terminal, and logging via logrus.
func NewRunner(out io.Writer) *Runner {
	return &Runner{
		Out:      out,
		Prompter: auth.NewTerminalPrompter(),
		HomeDir:  os.UserHomeDir,
		Logger:   logrus.StandardLogger(),
	}
}

// Run executes the command described by runConfig.
//
// It resolves credentials, checks the registry for v2 support, runs the command,
// and prints its result to r.Out.
func (r *Runner) Run(ctx context.Context, runConfig types.RunConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !isCommand(runConfig.Operation) {
		return fmt.Errorf("%w: %q (expected one of %s)", errUnknownCommand, runConfig.Operation,
			strings.Join([]string{CommandList, CommandTags, CommandManifest, CommandDigest, CommandDelete}, ", "))
	}

	scheme, domain := helpers.SplitRegistry(runConfig.Registry)

	protocol := runConfig.Protocol
	if protocol == "" {
		protocol = scheme
	}

	creds, err := r.resolveCredentials(runConfig, domain)
	if err != nil {
		return err
	}

	var observer transport.Observer

	if runConfig.MetricsFile != "" {
		gatherer := prometheus.NewRegistry()

		requestMetrics, err := metrics.NewWithRegistry(gatherer)
		if err != nil {
			return err
		}

		observer = requestMetrics

		defer func() {
			if err := metrics.WriteTextfile(runConfig.MetricsFile, gatherer); err != nil {
				r.Logger.WithError(err).WithField("path", runConfig.MetricsFile).Warn("Failed to write metrics")
			}
		}()
	}

	requestor, err := transport.NewClient(transport.Options{
		Timeout:            runConfig.Timeout,
		CAFile:             runConfig.TLSCACert,
		InsecureSkipVerify: runConfig.TLSInsecure,
		Logger:             r.Logger,
		Observer:           observer,
		HTTPClient:         r.HTTPClient,
	})
	if err != nil {
		return err
	}

	client := registry.NewClient(requestor, r.Logger)
	cmdCtx := &types.CommandContext{
		Credentials: creds,
		Protocol:    protocol,
		ImageName:   runConfig.ImageName,
		Tag:         runConfig.Tag,
		Digest:      runConfig.Digest,
	}

	r.Logger.WithFields(logrus.Fields{
		"command":  runConfig.Operation,
		"domain":   domain,
		"protocol": cmdCtx.Scheme(),
	}).Debug("Running registry command")

	if err := client.CheckV2Supported(ctx, domain, cmdCtx); err != nil {
		return err
	}

	return r.dispatch(ctx, client, runConfig.Operation, domain, cmdCtx)
}

// dispatch runs one registry command and prints its result.
func (r *Runner) dispatch(
	ctx context.Context,
	client *registry.Client,
	operation string,
	domain string,
	cmdCtx *types.CommandContext,
) error {
	switch operation {
	case CommandList:
		images, err := client.ListImages(ctx, domain, cmdCtx)
		if err != nil {
			return err
		}

		return r.printLines(images)
	case CommandTags:
		tags, err := client.GetImageTags(ctx, domain, cmdCtx)
		if err != nil {
			return err
		}

		return r.printLines(tags)
	case CommandManifest:
		body, err := client.GetImageManifest(ctx, domain, cmdCtx)
		if err != nil {
			return err
		}

		return r.printJSON(body)
	case CommandDigest:
		digest, err := client.GetImageDigest(ctx, domain, cmdCtx)
		if err != nil {
			return err
		}

		return r.printLines([]string{digest})
	case CommandDelete:
		if err := client.DeleteImage(ctx, domain, cmdCtx); err != nil {
			return err
		}

		return r.printLines([]string{deleteConfirmation})
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, operation)
	}
}

// resolveCredentials runs the credential chain for domain.
//
// Stored sources are only read when the command line does not supply both fields.
// Sources that provide neither field are skipped.
func (r *Runner) resolveCredentials(runConfig types.RunConfig, domain string) (types.RegistryCredentials, error) {
	var stored []types.StoredConfig

	if runConfig.Username == "" || runConfig.Password == "" {
		path, err := config.ResolvePath(runConfig.ConfigPath, r.HomeDir)
		if err != nil {
			return types.RegistryCredentials{}, err
		}

		if fileCreds := config.Load(path); !fileCreds.IsEmpty() {
			stored = append(stored, fileCreds)
		}

		if runConfig.DockerConfigDir != "" {
			dockerCreds, err := auth.DockerConfigCredentials(runConfig.DockerConfigDir, domain)
			if err != nil {
				r.Logger.WithError(err).Warn("Ignoring Docker CLI credentials")
			} else if !dockerCreds.IsEmpty() {
				stored = append(stored, dockerCreds)
			}
		}

		r.Logger.WithField("sources", len(stored)).Debug("Collected stored credential sources")
	}

	return auth.Resolve(runConfig.Username, runConfig.Password, stored, r.Prompter)
}

// printLines writes each value on its own line.
func (r *Runner) printLines(values []string) error {
	for _, value := range values {
		if _, err := fmt.Fprintln(r.Out, value); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}

	return nil
}

// printJSON writes an indented rendition of a JSON document.
func (r *Runner) printJSON(body json.RawMessage) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return types.NewParseError("Failed to deserialize response", "", err)
	}

	out.WriteByte('\n')

	if _, err := out.WriteTo(r.Out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

// isCommand reports whether operation names a registry command.
func isCommand(operation string) bool {
	switch operation {
	case CommandList, CommandTags, CommandManifest, CommandDigest, CommandDelete:
		return true
	default:
		return false
	}
}
