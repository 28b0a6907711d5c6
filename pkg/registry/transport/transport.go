// Package transport provides the authenticated HTTP requestor used to talk to registries.
// It applies optional headers and HTTP Basic auth, issues GET and DELETE requests, and
// converts transport failures into registry transport errors. It has no knowledge of
// registry paths or payloads.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docker/go-connections/tlsconfig"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// UserAgent is the User-Agent header value sent with every request.
// It can be set at build time using linker flags (e.g., -ldflags "-X ...UserAgent=docker-registry/v1.0").
var UserAgent = "docker-registry/unknown"

// Errors for request construction.
var (
	// errUnsupportedMethod indicates a method other than GET or DELETE was requested.
	errUnsupportedMethod = errors.New("unsupported request method")
	// errFailedCreateRequest indicates the HTTP request could not be built.
	errFailedCreateRequest = errors.New("failed to create request")
	// errFailedReadBody indicates the response body could not be read.
	errFailedReadBody = errors.New("failed to read response body")
	// errFailedTLSConfig indicates the TLS options could not be turned into a client config.
	errFailedTLSConfig = errors.New("failed to configure TLS")
)

// Observer receives one call per request issued by a Client.
type Observer interface {
	ObserveRequest(method string, statusCode int, elapsed time.Duration)
}

// Options configures a Client.
type Options struct {
	// Timeout bounds each request. Zero means no limit.
	Timeout time.Duration
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string
	// InsecureSkipVerify disables certificate verification.
	InsecureSkipVerify bool
	// Logger receives request diagnostics. Defaults to logrus.StandardLogger().
	Logger *logrus.Logger
	// Observer, if set, is notified of every request.
	Observer Observer
	// HTTPClient replaces the client built from the options above (used in tests).
	HTTPClient *http.Client
}

// Response is the raw outcome of a request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Status is the status line, e.g. "200 OK".
	Status string
	// Header holds the response headers.
	Header http.Header
	// Body is the complete response body.
	Body []byte
}

// Client issues authenticated requests over a single reusable http.Client.
//
// A Client is created once per process and injected into the registry client.
type Client struct {
	http     *http.Client
	logger   *logrus.Logger
	observer Observer
}

// NewClient builds a Client from opts.
//
// Returns:
//   - *Client: Ready-to-use requestor.
//   - error: Non-nil if the TLS options are invalid (e.g., unreadable CA file).
func NewClient(opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		tlsConfig, err := buildTLSConfig(opts)
		if err != nil {
			return nil, err
		}

		transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
		transport.TLSClientConfig = tlsConfig

		httpClient = &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		}
	}

	return &Client{
		http:     httpClient,
		logger:   logger,
		observer: opts.Observer,
	}, nil
}

// buildTLSConfig converts the TLS options into a client configuration.
func buildTLSConfig(opts Options) (*tls.Config, error) {
	tlsConfig, err := tlsconfig.Client(tlsconfig.Options{
		CAFile:             opts.CAFile,
		InsecureSkipVerify: opts.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errFailedTLSConfig, err)
	}

	return tlsConfig, nil
}

// Do issues a request and returns the raw response.
//
// Parameters:
//   - ctx: Context for request lifecycle control.
//   - method: http.MethodGet or http.MethodDelete.
//   - url: Absolute request URL.
//   - headers: Optional headers applied to the request.
//   - auth: Optional credentials sent as HTTP Basic auth.
//
// Returns:
//   - *Response: Status and full body, unmodified, for any HTTP status.
//   - error: A transport RegistryError if no response could be obtained.
func (c *Client) Do(
	ctx context.Context,
	method string,
	url string,
	headers map[string]string,
	auth *types.RegistryCredentials,
) (*Response, error) {
	fields := logrus.Fields{
		"method": method,
		"url":    url,
	}

	if method != http.MethodGet && method != http.MethodDelete {
		return nil, types.NewTransportError(0, fmt.Errorf("%w: %s", errUnsupportedMethod, method))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		c.logger.WithError(err).WithFields(fields).Debug("Failed to create request")

		return nil, types.NewTransportError(0, fmt.Errorf("%w: %w", errFailedCreateRequest, err))
	}

	req.Header.Set("User-Agent", UserAgent)

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if auth != nil {
		fields["username"] = auth.Username
		req.SetBasicAuth(auth.Username, auth.Password)
	}

	c.logger.WithFields(fields).Debug("Sending request")

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		c.observe(method, 0, elapsed)
		c.logger.WithError(err).WithFields(fields).Debug("Request failed")

		return nil, types.NewTransportError(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.observe(method, resp.StatusCode, elapsed)

	if err != nil {
		c.logger.WithError(err).WithFields(fields).WithField("status", resp.Status).
			Debug("Failed to read response body")

		return nil, types.NewTransportError(resp.StatusCode, fmt.Errorf("%w: %w", errFailedReadBody, err))
	}

	c.logger.WithFields(fields).WithFields(logrus.Fields{
		"status":  resp.Status,
		"headers": resp.Header,
		"elapsed": elapsed,
	}).Debug("Received response")

	if c.logger.IsLevelEnabled(logrus.TraceLevel) {
		c.logger.WithFields(fields).WithField("body", string(body)).Trace("Response body")
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// observe forwards a request measurement to the observer, if any.
func (c *Client) observe(method string, statusCode int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, statusCode, elapsed)
	}
}
