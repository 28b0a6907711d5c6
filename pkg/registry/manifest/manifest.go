// Package manifest provides functionality for addressing container image manifests.
// It selects the manifest reference (tag or digest) of a command and builds the
// registry-specific manifest URL used by the MANIFEST, DIGEST, and DELETE commands.
package manifest

import (
	"github.com/distribution/reference"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/docker-registry/pkg/registry/helpers"
	"github.com/nicholas-fedor/docker-registry/pkg/types"
)

// Reference returns the manifest reference selected by a command context.
//
// Exactly one of Tag and Digest must be set. The digest is returned when present,
// otherwise the tag.
//
// Parameters:
//   - cmdCtx: Command context carrying the tag and digest.
//
// Returns:
//   - string: Digest or tag.
//   - error: ErrAmbiguousReference when both or neither are set.
func Reference(cmdCtx *types.CommandContext) (string, error) {
	hasTag := cmdCtx.Tag != ""
	hasDigest := cmdCtx.Digest != ""

	if hasTag == hasDigest {
		return "", types.ErrAmbiguousReference
	}

	if hasDigest {
		return cmdCtx.Digest, nil
	}

	return cmdCtx.Tag, nil
}

// BuildManifestURL constructs the URL of the manifest selected by a command context.
//
// Parameters:
//   - domain: Registry host, optionally with a port.
//   - cmdCtx: Command context with the image name and exactly one of tag or digest.
//
// Returns:
//   - string: Manifest URL (e.g., "https://host/v2/library/alpine/manifests/latest/").
//   - error: Validation error if the image name or reference is missing or malformed.
func BuildManifestURL(domain string, cmdCtx *types.CommandContext) (string, error) {
	named, err := helpers.ValidateImageName(cmdCtx.ImageName)
	if err != nil {
		return "", err
	}

	ref, err := Reference(cmdCtx)
	if err != nil {
		return "", err
	}

	// Tags must follow the distribution grammar; digests are passed through untouched.
	if cmdCtx.Tag != "" {
		if _, err := reference.WithTag(named, cmdCtx.Tag); err != nil {
			return "", types.NewValidationError("Invalid tag.", "tag", err)
		}
	}

	urlStr := helpers.BuildURL(cmdCtx.Scheme(), domain, cmdCtx.ImageName, helpers.ManifestsSegment, ref)

	logrus.WithFields(logrus.Fields{
		"image":     cmdCtx.ImageName,
		"reference": ref,
		"url":       urlStr,
	}).Debug("Built manifest URL")

	return urlStr, nil
}
