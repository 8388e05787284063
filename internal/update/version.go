package update

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions compares two semantic versions, returning -1, 0 or 1.
// A leading "v" is accepted and pre-releases sort before their release.
func CompareVersions(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("parse version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// IsNewer reports whether latest is strictly newer than current.
// Unparseable versions are never newer.
func IsNewer(latest, current string) bool {
	c, err := CompareVersions(latest, current)
	return err == nil && c > 0
}

func isPrerelease(v string) bool {
	sv, err := semver.NewVersion(v)
	return err == nil && sv.Prerelease() != ""
}
