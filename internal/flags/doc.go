// Package flags manages command-line flags and environment variables for docker-registry.
// It registers registry, credential, transport, and logging flags via Cobra and Viper.
//
// Key components:
//   - RegisterRegistryFlags: Adds credential and image selection flags.
//   - RegisterSystemFlags: Adds transport, config, and logging flags.
//   - SetupLogging: Configures logrus based on flags.
//   - ReadFlags: Collects parsed flags into a types.RunConfig.
//
// Usage example:
//
//	cmd := &cobra.Command{}
//	flags.SetDefaults()
//	flags.RegisterRegistryFlags(cmd)
//	flags.RegisterSystemFlags(cmd)
//	err := flags.SetupLogging(cmd.PersistentFlags())
//	if err != nil {
//	    logrus.WithError(err).Fatal("Logging setup failed")
//	}
//
// The package integrates with Cobra for flag parsing, Viper for environment variable binding,
// and logrus for logging configuration errors.
package flags
