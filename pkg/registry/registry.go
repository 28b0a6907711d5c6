package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/pkg/registry/digest"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/helpers"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/manifest"
	"github.com/nicholas-fedor/docker-registry/pkg/registry/transport"
	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// Messages for response bodies that do not match the expected JSON shape.
const (
	errParseResponse  = "Failed to parse response"
	errDecodeManifest = "Failed to deserialize response"
)

// Top-level fields of the catalog and tag list responses.
const (
	repositoriesField = "repositories"
	tagsField         = "tags"
)

// Requester issues a single authenticated HTTP request.
//
// *transport.Client satisfies it.
type Requester interface {
	Do(
		ctx context.Context,
		method string,
		url string,
		headers map[string]string,
		auth *types.RegistryCredentials,
	) (*transport.Response, error)
}

// Client implements the registry commands on top of a Requester.
type Client struct {
	requester Requester
	logger    *logrus.Logger
}

// NewClient creates a registry client.
//
// Parameters:
//   - requester: Transport used for every request.
//   - logger: Destination for diagnostics; nil uses logrus.StandardLogger().
func NewClient(requester Requester, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		requester: requester,
		logger:    logger,
	}
}

// CheckV2Supported requests GET /v2/ and succeeds only on 200.
//
// Returns:
//   - error: types.ErrUnsupportedAPI for any other status, or the GET helper's error.
func (c *Client) CheckV2Supported(ctx context.Context, domain string, cmdCtx *types.CommandContext) error {
	resp, err := c.get(ctx, helpers.RootURL(cmdCtx.Scheme(), domain), nil, cmdCtx)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"domain": domain,
			"status": resp.Status,
		}).Debug("Registry did not pass the v2 version check")

		return &types.RegistryError{
			Kind:       types.KindProtocolUnsupported,
			Message:    types.ErrUnsupportedAPI.Message,
			StatusCode: resp.StatusCode,
		}
	}

	return nil
}

// ListImages returns the repositories listed by GET /v2/_catalog/.
//
// Returns:
//   - []string: Repository names; empty (not nil) when the registry hosts none.
//   - error: Status, auth, transport, or parse error.
func (c *Client) ListImages(ctx context.Context, domain string, cmdCtx *types.CommandContext) ([]string, error) {
	resp, err := c.get(ctx, helpers.CatalogURL(cmdCtx.Scheme(), domain), nil, cmdCtx)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewStatusError(resp.StatusCode)
	}

	return stringArrayField(resp.Body, repositoriesField)
}

// GetImageTags returns the tags listed by GET /v2/{image}/tags/list/.
//
// Returns:
//   - []string: Tag names; empty (not nil) when the repository has none.
//   - error: Validation error if the image name is missing, otherwise status, auth, transport, or parse error.
func (c *Client) GetImageTags(ctx context.Context, domain string, cmdCtx *types.CommandContext) ([]string, error) {
	if _, err := helpers.ValidateImageName(cmdCtx.ImageName); err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, helpers.TagsURL(cmdCtx.Scheme(), domain, cmdCtx.ImageName), nil, cmdCtx)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewStatusError(resp.StatusCode)
	}

	return stringArrayField(resp.Body, tagsField)
}

// GetImageManifest returns the raw manifest addressed by the command's tag or digest.
//
// Returns:
//   - json.RawMessage: Manifest body as sent by the registry.
//   - error: Validation error for a missing image or ambiguous reference, otherwise
//     status, auth, transport, or parse error.
func (c *Client) GetImageManifest(
	ctx context.Context,
	domain string,
	cmdCtx *types.CommandContext,
) (json.RawMessage, error) {
	manifestURL, err := manifest.BuildManifestURL(domain, cmdCtx)
	if err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, manifestURL, digest.AcceptHeaders(), cmdCtx)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewStatusError(resp.StatusCode)
	}

	if !json.Valid(resp.Body) {
		return nil, types.NewParseError(errDecodeManifest, "", nil)
	}

	c.logger.WithFields(logrus.Fields{
		"image":        cmdCtx.ImageName,
		"content_type": resp.Header.Get("Content-Type"),
	}).Debug("Fetched manifest")

	return json.RawMessage(resp.Body), nil
}

// GetImageDigest fetches the manifest and returns its config.digest.
//
// Returns:
//   - string: Configuration digest, e.g. "sha256:abc...".
//   - error: Any GetImageManifest error, or a parse error if config.digest is missing or not a string.
func (c *Client) GetImageDigest(ctx context.Context, domain string, cmdCtx *types.CommandContext) (string, error) {
	body, err := c.GetImageManifest(ctx, domain, cmdCtx)
	if err != nil {
		return "", err
	}

	return digest.ExtractConfigDigest(body)
}

// DeleteImage issues DELETE on the manifest URL and succeeds on 200, 202, or 204.
//
// The response is interpreted directly; a 401 surfaces as the "Unauthorized" status error.
func (c *Client) DeleteImage(ctx context.Context, domain string, cmdCtx *types.CommandContext) error {
	manifestURL, err := manifest.BuildManifestURL(domain, cmdCtx)
	if err != nil {
		return err
	}

	creds := cmdCtx.Credentials

	resp, err := c.requester.Do(ctx, http.MethodDelete, manifestURL, nil, &creds)
	if err != nil {
		return asTransportError(err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		c.logger.WithFields(logrus.Fields{
			"image":  cmdCtx.ImageName,
			"status": resp.Status,
		}).Debug("Deleted manifest")

		return nil
	default:
		return types.NewStatusError(resp.StatusCode)
	}
}

// get performs an authenticated GET and rejects 401 and 402 responses as invalid credentials.
//
// Any other status is returned for the caller to interpret.
func (c *Client) get(
	ctx context.Context,
	url string,
	headers map[string]string,
	cmdCtx *types.CommandContext,
) (*transport.Response, error) {
	creds := cmdCtx.Credentials

	resp, err := c.requester.Do(ctx, http.MethodGet, url, headers, &creds)
	if err != nil {
		return nil, asTransportError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusPaymentRequired {
		if resp.StatusCode == http.StatusPaymentRequired {
			c.logger.WithField("url", url).Debug("Treating 402 Payment Required as rejected credentials")
		}

		return nil, &types.RegistryError{
			Kind:       types.KindAuth,
			Message:    types.ErrInvalidCredentials.Message,
			StatusCode: resp.StatusCode,
		}
	}

	return resp, nil
}

// asTransportError keeps registry errors from the requester and wraps anything else.
func asTransportError(err error) error {
	var regErr *types.RegistryError
	if errors.As(err, &regErr) {
		return err
	}

	return types.NewTransportError(0, err)
}

// stringArrayField extracts a JSON array of strings from a top-level object field.
//
// A missing field, a null, or any element that is not a string is a parse error.
func stringArrayField(body []byte, field string) ([]string, error) {
	var document map[string]json.RawMessage
	if err := json.Unmarshal(body, &document); err != nil {
		return nil, types.NewParseError(errParseResponse, field, err)
	}

	raw, ok := document[field]
	if !ok {
		return nil, types.NewParseError(errParseResponse, field, nil)
	}

	var elements []*string
	if err := json.Unmarshal(raw, &elements); err != nil || elements == nil {
		return nil, types.NewParseError(errParseResponse, field, err)
	}

	values := make([]string, 0, len(elements))

	for _, element := range elements {
		if element == nil {
			return nil, types.NewParseError(errParseResponse, field, nil)
		}

		values = append(values, *element)
	}

	return values, nil
}
