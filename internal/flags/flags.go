// Package flags manages command-line flags and environment variables for docker-registry configuration.
package flags

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// defaultRequestTimeout bounds each registry request unless overridden.
const defaultRequestTimeout = 30 * time.Second

// expectedArgs is the number of positional arguments: command and registry.
const expectedArgs = 2

// Errors for flag and logging configuration.
var (
	// errInvalidLogFormat reports a --log-format value with no matching formatter.
	errInvalidLogFormat = errors.New("unknown log format")
	// errInvalidLogLevel reports a --log-level value logrus cannot parse.
	errInvalidLogLevel = errors.New("unknown log level")
	// errReadFileFailed wraps failures to read a secret file.
	errReadFileFailed = errors.New("failed to read secret file")
	// errSetFlagFailed wraps failures to read or update a flag.
	errSetFlagFailed = errors.New("failed to access flag")
	// errInvalidArgs reports positional arguments other than "<command> <registry>".
	errInvalidArgs = errors.New("expected arguments: <command> <registry>")
)

// secretFlags may hold either a value or a path to a file containing the value.
var secretFlags = map[string]string{
	"password": "DOCKER_REG_PASSWORD",
}

// RegisterRegistryFlags adds flags selecting credentials and the image a command acts on.
func RegisterRegistryFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.StringP(
		"username",
		"u",
		envString("DOCKER_REG_USERNAME"),
		"Registry username")

	// The password default is applied after parsing so it never shows up in --help.
	flags.StringP(
		"password",
		"p",
		"",
		"Registry password, or a path to a file containing it [$DOCKER_REG_PASSWORD]")

	flags.StringP(
		"proto",
		"s",
		envString("DOCKER_REG_PROTO"),
		"Protocol used to reach the registry (https or http, default https)")

	flags.StringP(
		"image",
		"i",
		"",
		"Image (repository) name, e.g. library/alpine")

	flags.StringP(
		"tag",
		"t",
		"",
		"Image tag (mutually exclusive with --digest)")

	flags.StringP(
		"digest",
		"d",
		"",
		"Image digest (mutually exclusive with --tag)")
}

// RegisterSystemFlags adds flags controlling configuration, transport, and logging.
func RegisterSystemFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.StringP(
		"conf",
		"",
		envString("DOCKER_REG_CONFIG"),
		"Path to the config file (default ~/.docker-registry/config)")

	flags.StringP(
		"docker-config",
		"",
		envString("DOCKER_REG_DOCKER_CONFIG"),
		"Also read credentials stored by the Docker CLI in this directory")

	flags.DurationP(
		"timeout",
		"",
		envDuration("DOCKER_REG_TIMEOUT"),
		"Timeout for each registry request (0 disables it)")

	flags.StringP(
		"tls-ca-cert",
		"",
		envString("DOCKER_REG_TLS_CA_CERT"),
		"PEM file with additional CA certificates to trust")

	flags.BoolP(
		"tls-insecure",
		"",
		envBool("DOCKER_REG_TLS_INSECURE"),
		"Skip TLS certificate verification")

	flags.StringP(
		"metrics-file",
		"",
		envString("DOCKER_REG_METRICS_FILE"),
		"Write Prometheus request metrics to this file after the command")

	flags.BoolP(
		"verbose",
		"v",
		envBool("DOCKER_REG_VERBOSE"),
		"Log requests and responses (passwords are never logged)")

	flags.BoolP(
		"trace",
		"",
		envBool("DOCKER_REG_TRACE"),
		"Enable trace mode, which also logs response bodies")

	flags.StringP(
		"log-level",
		"",
		envString("DOCKER_REG_LOG_LEVEL"),
		"The maximum log level that will be written to STDERR. Possible values: panic, fatal, error, warn, info, debug or trace")

	flags.StringP(
		"log-format",
		"l",
		envString("DOCKER_REG_LOG_FORMAT"),
		"Sets what logging format to use for console output. Possible values: Auto, LogFmt, Pretty, JSON")

	flags.BoolP(
		"no-color",
		"",
		envBool("NO_COLOR"),
		"Disable ANSI color escape codes in log output")
}

// envString returns the DOCKER_REG_* variable key, or its viper default.
func envString(key string) string {
	viper.MustBindEnv(key)

	return viper.GetString(key)
}

// envBool is envString for boolean flags.
func envBool(key string) bool {
	viper.MustBindEnv(key)

	return viper.GetBool(key)
}

// envDuration is envString for duration flags such as --timeout.
func envDuration(key string) time.Duration {
	viper.MustBindEnv(key)

	return viper.GetDuration(key)
}

// SetDefaults registers the values used when neither a flag nor its variable is set.
func SetDefaults() {
	viper.AutomaticEnv()
	viper.SetDefault("DOCKER_REG_TIMEOUT", defaultRequestTimeout)
	viper.SetDefault("DOCKER_REG_LOG_LEVEL", "info")
	viper.SetDefault("DOCKER_REG_LOG_FORMAT", "auto")
}

// ProcessFlagAliases raises the log level for --verbose and --trace.
func ProcessFlagAliases(flags *pflag.FlagSet) {
	if flagIsEnabled(flags, "verbose") {
		raiseLogLevel(flags, logrus.DebugLevel)
	}

	if flagIsEnabled(flags, "trace") {
		raiseLogLevel(flags, logrus.TraceLevel)
	}
}

// raiseLogLevel overwrites the log-level flag.
func raiseLogLevel(flags *pflag.FlagSet, level logrus.Level) {
	if err := flags.Set("log-level", level.String()); err != nil {
		logrus.WithError(err).WithField("level", level).Error("Could not raise log level")
	}
}

// GetSecretsFromFiles fills secret flags from the environment and replaces values that reference files.
func GetSecretsFromFiles(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()

	for secret, env := range secretFlags {
		if err := getSecretFromEnv(flags, secret, env); err != nil {
			return err
		}

		if err := getSecretFromFile(flags, secret); err != nil {
			return fmt.Errorf("failed to get secret from flag %v: %w", secret, err)
		}
	}

	return nil
}

// getSecretFromEnv sets an unset secret flag from its environment variable.
func getSecretFromEnv(flags *pflag.FlagSet, secret, env string) error {
	if flags.Changed(secret) {
		return nil
	}

	value := envString(env)
	if value == "" {
		return nil
	}

	if err := flags.Set(secret, value); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	return nil
}

// getSecretFromFile replaces a secret flag naming a regular file with the file's trimmed contents.
func getSecretFromFile(flags *pflag.FlagSet, secret string) error {
	flag := flags.Lookup(secret)
	if flag == nil {
		return fmt.Errorf("%w: %q", errSetFlagFailed, secret)
	}

	path := flag.Value.String()
	if path == "" || !isFilePath(path) {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errReadFileFailed, err)
	}

	if err := flags.Set(secret, strings.TrimSpace(string(content))); err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	return nil
}

// isFilePath reports whether value names an existing regular file.
// Values with a colon anywhere but a drive letter position are never paths.
func isFilePath(value string) bool {
	if colon := strings.IndexRune(value, ':'); colon != -1 && colon != 1 {
		return false
	}

	info, err := os.Stat(value)

	return err == nil && !info.IsDir()
}

// SetupLogging applies --log-format, --no-color, and --log-level to the standard logrus logger.
func SetupLogging(flags *pflag.FlagSet) error {
	values := map[string]string{}

	for _, name := range []string{"log-format", "log-level"} {
		value, err := flags.GetString(name)
		if err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}

		values[name] = value
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	formatter, err := formatterFor(values["log-format"], noColor)
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(values["log-level"])
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	logrus.SetFormatter(formatter)
	logrus.SetLevel(level)

	return nil
}

// formatterFor maps a --log-format value (case-insensitive) to a logrus formatter.
func formatterFor(logFormat string, noColor bool) (logrus.Formatter, error) {
	switch strings.ToLower(logFormat) {
	case "auto", "":
		return &logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	case "logfmt":
		return &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		}, nil
	case "pretty":
		return &logrus.TextFormatter{
			ForceColors: !noColor,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errInvalidLogFormat, logFormat)
	}
}

// flagIsEnabled returns a boolean flag's value. An undefined flag is a programming error and exits.
func flagIsEnabled(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	if err != nil {
		logrus.WithField("flag", name).Fatal("Boolean flag is not registered")
	}

	return value
}

// ReadFlags collects the positional arguments and parsed flags of an invocation.
//
// Parameters:
//   - cmd: Command whose persistent flags were parsed.
//   - args: Positional arguments, "<command> <registry>".
//
// Returns:
//   - types.RunConfig: Parsed configuration.
//   - error: Non-nil if the arguments are malformed or a flag cannot be read.
func ReadFlags(cmd *cobra.Command, args []string) (types.RunConfig, error) {
	if len(args) != expectedArgs {
		return types.RunConfig{}, fmt.Errorf("%w: got %d argument(s)", errInvalidArgs, len(args))
	}

	flags := cmd.PersistentFlags()
	config := types.RunConfig{
		Command:   cmd,
		Operation: strings.ToUpper(strings.TrimSpace(args[0])),
		Registry:  strings.TrimSpace(args[1]),
	}

	strFlags := map[string]*string{
		"username":      &config.Username,
		"password":      &config.Password,
		"proto":         &config.Protocol,
		"image":         &config.ImageName,
		"tag":           &config.Tag,
		"digest":        &config.Digest,
		"conf":          &config.ConfigPath,
		"docker-config": &config.DockerConfigDir,
		"tls-ca-cert":   &config.TLSCACert,
		"metrics-file":  &config.MetricsFile,
	}

	for name, target := range strFlags {
		value, err := flags.GetString(name)
		if err != nil {
			return types.RunConfig{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}

		*target = value
	}

	var err error

	if config.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return types.RunConfig{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.TLSInsecure, err = flags.GetBool("tls-insecure"); err != nil {
		return types.RunConfig{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	return config, nil
}
