package ubi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/wagoodman/go-partybus"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/event"
	"github.com/anchore/ubiforge/internal"
	"github.com/anchore/ubiforge/internal/bus"
	"github.com/anchore/ubiforge/internal/cache"
	internalhttp "github.com/anchore/ubiforge/internal/http"
	"github.com/anchore/ubiforge/internal/log"
)

const (
	latest = "latest"

	remoteVersionsCacheFile = "remote_versions" + cache.Extension
	latestVersionCacheFile  = "latest_version" + cache.Extension
)

type VersionResolutionParameters struct {
	Identifier string `json:"identifier" yaml:"identifier" mapstructure:"identifier"`
}

type VersionResolver struct {
	config          VersionResolutionParameters
	client          *retryablehttp.Client
	releasesFetcher func(ctx context.Context, client *retryablehttp.Client, endpoint string) ([]byte, error)
	remoteVersions  *cache.Manager[[]string]
	latestVersion   *cache.Manager[*string]
}

// NewVersionResolver creates a resolver whose results are cached under cacheDir. When client is nil the
// HTTP client carried by the request context is used.
func NewVersionResolver(cfg VersionResolutionParameters, cacheDir string, client *retryablehttp.Client, opts ...cache.Option) *VersionResolver {
	return &VersionResolver{
		config:          cfg,
		client:          client,
		releasesFetcher: fetchReleases,
		remoteVersions:  cache.New[[]string](filepath.Join(cacheDir, remoteVersionsCacheFile), opts...),
		latestVersion:   cache.New[*string](filepath.Join(cacheDir, latestVersionCacheFile), opts...),
	}
}

// ListRemoteVersions returns every release tag in the order the upstream API lists them.
func (v *VersionResolver) ListRemoteVersions(ctx context.Context) ([]string, error) {
	versions, err := v.remoteVersions.GetOrTryInit(func() ([]string, error) {
		return v.fetchRemoteVersions(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(versions), nil
}

// LatestStableVersion is the last tag of the release listing; ok is false only when there are no releases.
func (v *VersionResolver) LatestStableVersion(ctx context.Context) (string, bool, error) {
	found, err := v.latestVersion.GetOrTryInit(func() (*string, error) {
		versions, err := v.ListRemoteVersions(ctx)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			return nil, nil
		}

		last := versions[len(versions)-1]

		// the listing is assumed to be ordered oldest to newest; surface listings where that looks wrong
		if highest := internal.MaxSemver(versions); highest != "" && highest != last {
			log.FromContext(ctx).WithFields("identifier", v.config.Identifier, "last", last, "highest", highest).
				Warn("the last listed release is not the highest version, using the last listed release as latest")
		}

		return &last, nil
	})
	if err != nil {
		return "", false, err
	}

	if found == nil {
		return "", false, nil
	}
	return *found, true, nil
}

// FindMatchingVersion returns the first listed tag that contains requested. Matching is by substring so
// that "1.2.3" finds "v1.2.3"; note that "1.2" would also match "1.20.0" if it is listed first.
func (v *VersionResolver) FindMatchingVersion(ctx context.Context, requested string) (string, error) {
	versions, err := v.ListRemoteVersions(ctx)
	if err != nil {
		return "", err
	}

	for _, tag := range versions {
		if strings.Contains(tag, requested) {
			return tag, nil
		}
	}

	return "", &ubiforge.VersionNotFoundError{
		Identifier: v.config.Identifier,
		Requested:  requested,
	}
}

// ResolveVersion maps a wanted version ("latest" or a partial tag) onto a concrete release tag.
func (v *VersionResolver) ResolveVersion(ctx context.Context, want string) (string, error) {
	log.FromContext(ctx).WithFields("identifier", v.config.Identifier, "version", want).Trace("resolving version from release listing")

	want = strings.TrimSpace(want)
	if want == "" || want == latest {
		tag, ok, err := v.LatestStableVersion(ctx)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &ubiforge.VersionNotFoundError{
				Identifier: v.config.Identifier,
				Requested:  latest,
			}
		}
		return tag, nil
	}

	return v.FindMatchingVersion(ctx, want)
}

// ClearCache drops both the remote versions and latest version entries.
func (v *VersionResolver) ClearCache() error {
	if err := v.remoteVersions.Clear(); err != nil {
		return err
	}
	return v.latestVersion.Clear()
}

func (v *VersionResolver) fetchRemoteVersions(ctx context.Context) ([]string, error) {
	endpoint, err := ResolveEndpoint(v.config.Identifier)
	if err != nil {
		return nil, &ubiforge.ResolveError{Identifier: v.config.Identifier, Err: err}
	}

	client := v.client
	if client == nil {
		client = internalhttp.ClientFromContext(ctx)
	}

	body, err := v.releasesFetcher(ctx, client, endpoint.String())
	if err != nil {
		return nil, &ubiforge.ResolveError{Identifier: v.config.Identifier, Endpoint: endpoint.String(), Err: err}
	}

	versions, err := parseReleaseTags(body)
	if err != nil {
		return nil, &ubiforge.ResolveError{Identifier: v.config.Identifier, Endpoint: endpoint.String(), Err: err}
	}

	log.FromContext(ctx).WithFields("identifier", v.config.Identifier, "count", len(versions)).Debug("fetched remote versions")

	bus.Publish(partybus.Event{
		Type: event.RemoteVersionsFetchedEvent,
		Value: event.RemoteVersions{
			Identifier: v.config.Identifier,
			Endpoint:   endpoint.String(),
			Versions:   slices.Clone(versions),
		},
	})

	return versions, nil
}

func fetchReleases(ctx context.Context, client *retryablehttp.Client, endpoint string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ubiforge.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ubiforge.ErrFetch, err)
	}
	defer resp.Body.Close()

	log.FromContext(ctx).WithFields("http-status", resp.StatusCode).Tracef("http get [application/json] %q", endpoint)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %q", ubiforge.ErrFetch, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read response: %v", ubiforge.ErrFetch, err)
	}

	return body, nil
}
