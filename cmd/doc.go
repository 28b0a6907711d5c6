// Package cmd contains the command-line interface (CLI) definitions and execution logic for docker-registry.
// It provides the root command, which resolves credentials, checks the registry for v2 support,
// runs one of the LIST, TAGS, MANIFEST, DIGEST, or DELETE commands, and prints the result.
//
// Key components:
//   - rootCmd: Root command taking "<command> <registry>" positional arguments.
//   - Runner: Executes one parsed invocation against a registry.
//
// Usage examples:
//   - Run the CLI from main.go:
//     cmd.Execute()
//   - List the tags of an image:
//     docker-registry tags registry.local:5000 -u bob -i library/alpine
//
// The package integrates with the flags, config, auth, transport, registry, and metrics packages,
// using Cobra for CLI parsing and logrus for logging.
package cmd
