package internal

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/anchore/ubiforge/internal/log"
)

// MaxSemver returns the original form of the highest version in the list that parses as semver
// (an empty string if none do). Unparseable entries are ignored.
func MaxSemver(versions []string) string {
	var max *semver.Version
	for _, v := range versions {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		ver, err := semver.NewVersion(v)
		if err != nil {
			log.Tracef("failed to parse version %q: %v", v, err)
			continue
		}
		if max == nil || ver.GreaterThan(max) {
			max = ver
		}
	}

	if max == nil {
		return ""
	}
	return max.Original()
}

func IsSemver(v string) bool {
	ver, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	return ver != nil
}
