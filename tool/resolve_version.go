package tool

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/anchore/ubiforge"
)

// ResolveVersion resolves the wanted version to an upstream release tag and checks it against the intent constraint.
// Tags that are not valid semver are not checked against the constraint.
func ResolveVersion(ctx context.Context, tool ubiforge.VersionLister, intent ubiforge.VersionIntent) (string, error) {
	constraint := intent.Constraint

	resolvedVersion, err := tool.ResolveVersion(ctx, intent.Want)
	if err != nil {
		return "", fmt.Errorf("failed to resolve version: %w", err)
	}

	if constraint != "" {
		ver, err := semver.NewVersion(resolvedVersion)
		if err == nil {
			constraintObj, err := semver.NewConstraint(constraint)
			if err != nil {
				return resolvedVersion, fmt.Errorf("invalid version constraint: %v", err)
			}

			if !constraintObj.Check(ver) {
				return resolvedVersion, fmt.Errorf("resolved version %q is unsatisfied by constraint %q", resolvedVersion, constraint)
			}
		}
	}
	return resolvedVersion, nil
}
