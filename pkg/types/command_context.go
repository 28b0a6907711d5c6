package types

// DefaultProtocol is the scheme used when a command does not specify one.
const DefaultProtocol = "https"

// CommandContext carries the parameters of a single command invocation.
//
// It is built once by the dispatcher and passed by pointer into every registry
// operation; operations never modify it. Empty strings mean "not supplied".
// Image, tag, and digest are validated where an operation needs them.
type CommandContext struct {
	// Credentials are attached as HTTP Basic auth to every registry request.
	Credentials RegistryCredentials
	// Protocol is the URL scheme ("https" or "http"). Empty means DefaultProtocol.
	Protocol string
	// ImageName is the repository path, e.g. "library/alpine".
	ImageName string
	// Tag selects a manifest by tag. Mutually exclusive with Digest.
	Tag string
	// Digest selects a manifest by content digest. Mutually exclusive with Tag.
	Digest string
}

// Scheme returns the protocol to use, falling back to DefaultProtocol.
func (c *CommandContext) Scheme() string {
	if c == nil || c.Protocol == "" {
		return DefaultProtocol
	}

	return c.Protocol
}
