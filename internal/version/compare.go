package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-bh/pkg/errors"
)

// CheckConfigCompatibility reports whether a config file written for configVersion can be loaded by
// a binary at binaryVersion.
//
//   - "main" on either side skips the check
//   - major versions must match
//   - the config minor may not be newer than the binary minor, since it could use unknown keys
//   - patch versions are ignored
func CheckConfigCompatibility(binaryVersion, configVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if binaryVersion == "main" || configVersion == "main" {
		return nil
	}

	binary, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid binary version %q", binaryVersion)
	}

	config, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version %q", configVersion)
	}

	if binary.Major() != config.Major() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"major version mismatch: binary is %d.x.x but config was written for %d.x.x", binary.Major(), config.Major())
	}

	if config.Minor() > binary.Minor() {
		return errors.Newf(errors.ErrCodeInvalidVersion,
			"config was written for %d.%d.x, newer than binary %d.%d.x",
			config.Major(), config.Minor(), binary.Major(), binary.Minor())
	}

	return nil
}
