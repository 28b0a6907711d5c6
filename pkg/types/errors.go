package types

import (
	"errors"
	"net/http"
	"strconv"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/containerd/errdefs/pkg/errhttp"
)

// ErrorKind identifies the class of a RegistryError.
type ErrorKind int

// Registry error kinds.
const (
	// KindCredential means no username or password survived the credential chain.
	KindCredential ErrorKind = iota + 1
	// KindConfig means stored configuration could not be located.
	KindConfig
	// KindProtocolUnsupported means the registry failed the /v2/ version check.
	KindProtocolUnsupported
	// KindTransport means the HTTP layer failed or returned a non-success status.
	KindTransport
	// KindAuth means the registry rejected the credentials.
	KindAuth
	// KindValidation means the command parameters are incomplete or contradictory.
	KindValidation
	// KindParse means a response body did not have the expected JSON shape.
	KindParse
)

// UnknownStatusMessage is reported for status codes without a reason phrase.
const UnknownStatusMessage = "Unknown status code received"

var kindNames = map[ErrorKind]string{
	KindCredential:          "CredentialError",
	KindConfig:              "ConfigError",
	KindProtocolUnsupported: "ProtocolUnsupported",
	KindTransport:           "TransportError",
	KindAuth:                "AuthError",
	KindValidation:          "ValidationError",
	KindParse:               "ParseError",
}

// String returns the name of the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "ErrorKind(" + strconv.Itoa(int(k)) + ")"
}

// RegistryError is the error value produced by every registry operation.
type RegistryError struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is the text shown to the user.
	Message string
	// StatusCode is the HTTP status involved, 0 if none was obtained.
	StatusCode int
	// Field names the input or JSON field at fault, if any.
	Field string
	// Err is the underlying cause, if any.
	Err error
}

// Kind sentinels. errors.Is matches any RegistryError of the same kind.
var (
	ErrCredential          = &RegistryError{Kind: KindCredential}
	ErrConfig              = &RegistryError{Kind: KindConfig}
	ErrProtocolUnsupported = &RegistryError{Kind: KindProtocolUnsupported}
	ErrTransport           = &RegistryError{Kind: KindTransport}
	ErrAuth                = &RegistryError{Kind: KindAuth}
	ErrValidation          = &RegistryError{Kind: KindValidation}
	ErrParse               = &RegistryError{Kind: KindParse}
)

// Message sentinels. errors.Is matches on both kind and message.
var (
	ErrMissingUsername = &RegistryError{
		Kind:    KindCredential,
		Message: "Could not find username in credential chain.",
		Field:   "username",
	}
	ErrMissingPassword = &RegistryError{
		Kind:    KindCredential,
		Message: "Could not find password in credential chain.",
		Field:   "password",
	}
	ErrNoHomeDirectory = &RegistryError{
		Kind:    KindConfig,
		Message: "Unable to detect home directory",
	}
	ErrUnsupportedAPI = &RegistryError{
		Kind:    KindProtocolUnsupported,
		Message: "The Docker v2 API is not supported.",
	}
	ErrInvalidCredentials = &RegistryError{
		Kind:    KindAuth,
		Message: "Invalid username and password",
	}
	ErrMissingImageName = &RegistryError{
		Kind:    KindValidation,
		Message: "Must provide an image name.",
		Field:   "image",
	}
	ErrAmbiguousReference = &RegistryError{
		Kind:    KindValidation,
		Message: "Must either specify a tag or a digest.",
		Field:   "reference",
	}
)

// Error returns the display message, followed by the cause when there is one.
func (e *RegistryError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}

	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}

	return msg
}

// Is matches targets of the same kind. A target carrying a message must also match it.
func (e *RegistryError) Is(target error) bool {
	t, ok := target.(*RegistryError)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.Message == "" || t.Message == e.Message
}

// Unwrap exposes the cause and the containerd errdefs category of the error.
func (e *RegistryError) Unwrap() []error {
	errs := make([]error, 0, 2) //nolint:mnd

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	if category := e.category(); category != nil {
		errs = append(errs, category)
	}

	return errs
}

// category maps the kind to an errdefs class.
func (e *RegistryError) category() error {
	switch e.Kind {
	case KindAuth:
		return cerrdefs.ErrUnauthenticated
	case KindCredential, KindValidation:
		return cerrdefs.ErrInvalidArgument
	case KindProtocolUnsupported:
		return cerrdefs.ErrNotImplemented
	case KindParse:
		return cerrdefs.ErrDataLoss
	case KindConfig:
		return cerrdefs.ErrFailedPrecondition
	case KindTransport:
		if e.StatusCode == 0 {
			return cerrdefs.ErrUnavailable
		}

		return errhttp.ToNative(e.StatusCode)
	default:
		return nil
	}
}

// KindOf returns the kind of the first RegistryError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var regErr *RegistryError
	if errors.As(err, &regErr) {
		return regErr.Kind
	}

	return 0
}

// StatusMessage maps an HTTP status code to its canonical reason phrase.
// Codes outside 100-599 or without a registered phrase yield UnknownStatusMessage.
func StatusMessage(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return UnknownStatusMessage
	}

	if text := http.StatusText(statusCode); text != "" {
		return text
	}

	return UnknownStatusMessage
}

// NewStatusError builds a transport error for a non-success status code.
func NewStatusError(statusCode int) *RegistryError {
	return &RegistryError{
		Kind:       KindTransport,
		Message:    StatusMessage(statusCode),
		StatusCode: statusCode,
	}
}

// NewTransportError wraps a failure of the HTTP layer.
func NewTransportError(statusCode int, err error) *RegistryError {
	return &RegistryError{
		Kind:       KindTransport,
		Message:    StatusMessage(statusCode),
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewParseError reports a response body that did not have the expected shape.
func NewParseError(message, field string, err error) *RegistryError {
	return &RegistryError{
		Kind:    KindParse,
		Message: message,
		Field:   field,
		Err:     err,
	}
}

// NewValidationError reports invalid command parameters.
func NewValidationError(message, field string, err error) *RegistryError {
	return &RegistryError{
		Kind:    KindValidation,
		Message: message,
		Field:   field,
		Err:     err,
	}
}
