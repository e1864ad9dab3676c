package ubi

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/anchore/ubiforge"
)

const githubAPIBase = "https://api.github.com"

// InstallMode is how the installer is told where to find the tool.
type InstallMode int

const (
	// TaggedProject installs a release (by tag) of an "owner/repo" project.
	TaggedProject InstallMode = iota
	// DirectURL installs from a download URL, bypassing the release API.
	DirectURL
)

func (m InstallMode) String() string {
	switch m {
	case DirectURL:
		return "direct-url"
	case TaggedProject:
		return "tagged-project"
	}
	return fmt.Sprintf("InstallMode(%d)", int(m))
}

// ModeFor classifies a tool identifier. Only http:// and https:// prefixes (in any case) denote a URL.
func ModeFor(identifier string) InstallMode {
	lower := strings.ToLower(strings.TrimSpace(identifier))
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return DirectURL
	}
	return TaggedProject
}

// ResolveEndpoint returns the release listing endpoint for a tool identifier. URLs are used as-is;
// "owner/repo" shorthands map onto the GitHub releases API.
func ResolveEndpoint(identifier string) (*url.URL, error) {
	identifier = strings.TrimSpace(identifier)

	var raw string
	switch ModeFor(identifier) {
	case DirectURL:
		raw = identifier
	default:
		owner, repo, err := splitProject(identifier)
		if err != nil {
			return nil, err
		}
		raw = fmt.Sprintf("%s/repos/%s/%s/releases", githubAPIBase, owner, repo)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ubiforge.ErrInvalidIdentifier, identifier, err)
	}

	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ubiforge.ErrInvalidIdentifier, identifier)
	}

	return u, nil
}

func splitProject(identifier string) (string, string, error) {
	fields := strings.Split(strings.ToLower(identifier), "/")
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		return "", "", fmt.Errorf("%w: %q is neither a URL nor an owner/repo project", ubiforge.ErrInvalidIdentifier, identifier)
	}

	for _, f := range fields {
		if strings.ContainsAny(f, " \t?#%") {
			return "", "", fmt.Errorf("%w: %q contains invalid characters", ubiforge.ErrInvalidIdentifier, identifier)
		}
	}

	return fields[0], fields[1], nil
}
