// Package helpers provides utility functions for registry-related operations.
// It includes methods for splitting registry arguments and building Docker Registry v2 URLs.
package helpers

import (
	"net/url"
	"strings"

	"github.com/distribution/reference"

	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// Registry v2 API path components.
const (
	// APIRoot is the prefix shared by every registry endpoint.
	APIRoot = "/v2"
	// CatalogSegment lists the repositories hosted by a registry.
	CatalogSegment = "_catalog"
	// TagsSegment lists the tags of a repository, relative to the repository path.
	TagsSegment = "tags/list"
	// ManifestsSegment addresses manifests, relative to the repository path.
	ManifestsSegment = "manifests"
)

// SplitRegistry separates an optional scheme from a registry argument.
//
// "http://localhost:5000/" yields ("http", "localhost:5000") and "registry.local" yields
// ("", "registry.local"). Trailing slashes are dropped.
func SplitRegistry(raw string) (string, string) {
	raw = strings.TrimSpace(raw)

	scheme := ""
	if before, after, found := strings.Cut(raw, "://"); found {
		scheme = strings.ToLower(before)
		raw = after
	}

	return scheme, strings.TrimRight(raw, "/")
}

// BuildURL joins a scheme, domain, and path segments under the /v2 root.
//
// The domain may carry a path prefix ("host/mirror"), which is kept ahead of /v2.
// The path always ends with a slash. An empty scheme falls back to types.DefaultProtocol.
func BuildURL(scheme, domain string, segments ...string) string {
	if scheme == "" {
		scheme = types.DefaultProtocol
	}

	host, prefix, _ := strings.Cut(domain, "/")

	path := APIRoot + "/"
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		path = "/" + prefix + path
	}

	if len(segments) > 0 {
		path += strings.Join(segments, "/") + "/"
	}

	u := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	return u.String()
}

// RootURL returns the API version check URL, e.g. "https://host/v2/".
func RootURL(scheme, domain string) string {
	return BuildURL(scheme, domain)
}

// CatalogURL returns the repository listing URL, e.g. "https://host/v2/_catalog/".
func CatalogURL(scheme, domain string) string {
	return BuildURL(scheme, domain, CatalogSegment)
}

// TagsURL returns the tag listing URL for a repository, e.g. "https://host/v2/alpine/tags/list/".
func TagsURL(scheme, domain, image string) string {
	return BuildURL(scheme, domain, image, TagsSegment)
}

// ValidateImageName checks that a repository path is present and follows the
// distribution name grammar, and returns it parsed.
func ValidateImageName(image string) (reference.Named, error) {
	if image == "" {
		return nil, types.ErrMissingImageName
	}

	named, err := reference.WithName(image)
	if err != nil {
		return nil, types.NewValidationError("Invalid image name.", "image", err)
	}

	return named, nil
}
