// Package digest provides functionality for reading image digests out of registry manifests.
// It defines the manifest formats requested from registries and extracts the image
// configuration digest (config.digest) that the DIGEST command reports.
package digest

import (
	"encoding/json"
	"strings"

	godigest "github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// Docker distribution media types not covered by the OCI image spec.
const (
	MediaTypeDockerManifest     = "application/vnd.docker.distribution.manifest.v2+json"
	MediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
)

// errParseMessage is reported when a manifest lacks a string config.digest.
const errParseMessage = "Failed to parse response object"

// ManifestMediaTypes lists the manifest formats accepted on manifest requests, in order of preference.
//
// Without an Accept header many registries fall back to schema1 manifests, which carry no config object.
var ManifestMediaTypes = []string{
	MediaTypeDockerManifest,
	ocispec.MediaTypeImageManifest,
	MediaTypeDockerManifestList,
	ocispec.MediaTypeImageIndex,
}

// AcceptHeaders returns the request headers for a manifest GET.
func AcceptHeaders() map[string]string {
	return map[string]string{
		"Accept": strings.Join(ManifestMediaTypes, ", "),
	}
}

// ExtractConfigDigest returns the config.digest field of a manifest body.
//
// Parameters:
//   - manifest: Raw manifest JSON.
//
// Returns:
//   - string: The configuration digest, e.g. "sha256:abc...".
//   - error: A parse error if the body is not an object or config.digest is missing or not a string.
func ExtractConfigDigest(manifest []byte) (string, error) {
	var document map[string]json.RawMessage
	if err := json.Unmarshal(manifest, &document); err != nil {
		return "", types.NewParseError(errParseMessage, "", err)
	}

	rawConfig, ok := document["config"]
	if !ok {
		return "", types.NewParseError(errParseMessage, "config", nil)
	}

	var config map[string]json.RawMessage
	if err := json.Unmarshal(rawConfig, &config); err != nil || config == nil {
		return "", types.NewParseError(errParseMessage, "config", err)
	}

	rawDigest, ok := config["digest"]
	if !ok {
		return "", types.NewParseError(errParseMessage, "config.digest", nil)
	}

	var value *string
	if err := json.Unmarshal(rawDigest, &value); err != nil || value == nil {
		return "", types.NewParseError(errParseMessage, "config.digest", err)
	}

	if _, err := godigest.Parse(*value); err != nil {
		logrus.WithError(err).
			WithField("digest", *value).
			Warn("Registry returned a digest that is not in canonical form")
	}

	logrus.WithField("digest", *value).Debug("Extracted config digest from manifest")

	return *value, nil
}
