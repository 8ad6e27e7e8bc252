package subresource

import (
	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/google/go-containerregistry/pkg/name"
)

const latestTag = "latest"

// ValidateImage checks that an agent image reference carries an explicit tag
// that is either "latest" or a semantic version. Digest references are rejected.
func ValidateImage(image string) error {
	if image == "" {
		return errors.New("agent image must not be empty")
	}

	tag, err := name.NewTag(image, name.StrictValidation)
	if err != nil {
		return errors.Wrapf(err, "agent image %q must be a reference with an explicit tag", image)
	}

	if tag.TagStr() == latestTag {
		return nil
	}

	_, err = semver.NewVersion(tag.TagStr())
	if err != nil {
		return errors.Wrapf(err, "agent image %q: tag %q is neither %q nor a semantic version",
			image, tag.TagStr(), latestTag)
	}

	return nil
}
