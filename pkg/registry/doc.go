// Package registry provides the Docker Registry v2 protocol client.
// It builds registry URLs, drives the LIST, TAGS, MANIFEST, DIGEST, and DELETE commands,
// parses JSON response bodies, and maps HTTP outcomes to registry errors.
//
// Key components:
//   - auth: Resolves credentials from explicit input, stored configuration, and a terminal prompt.
//   - transport: Issues authenticated GET and DELETE requests.
//   - helpers: Splits registry arguments and builds /v2 URLs.
//   - manifest: Selects the manifest reference and builds manifest URLs.
//   - digest: Extracts config.digest from manifests.
//   - registry: Client with one method per command.
//
// Usage example:
//
//	requestor, err := transport.NewClient(transport.Options{Timeout: 30 * time.Second})
//	if err != nil {
//	    logrus.WithError(err).Fatal("Failed to create transport")
//	}
//	client := registry.NewClient(requestor, logrus.StandardLogger())
//	tags, err := client.GetImageTags(ctx, "registry.local:5000", cmdCtx)
//
// Every request carries HTTP Basic auth; 401 and 402 responses to GET requests are
// reported as types.ErrInvalidCredentials.
package registry
