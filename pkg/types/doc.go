// Package types defines the data model shared by the docker-registry packages.
// It provides credentials, stored configuration, the per-invocation command context,
// and the closed registry error taxonomy.
//
// Key components:
//   - RegistryCredentials: Resolved username and password for HTTP Basic auth.
//   - StoredConfig: Optional credentials read from a configuration source.
//   - CommandContext: Parameters of one command invocation.
//   - RegistryError: Tagged error value carrying a kind, message, and structured context.
//   - RunConfig: Struct aggregating the dispatcher's parsed flags.
//
// Usage example:
//
//	cmdCtx := &types.CommandContext{
//	    Credentials: creds,
//	    ImageName:   "library/alpine",
//	    Tag:         "latest",
//	}
//	if errors.Is(err, types.ErrAuth) {
//	    logrus.Error("Check your registry credentials")
//	}
//
// The package has no I/O and is imported by the auth, transport, and registry packages.
package types
