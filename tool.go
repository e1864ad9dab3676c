package ubiforge

import (
	"context"

	"github.com/wagoodman/go-progress"
)

// Backend is a single tool source: it can list the versions published upstream and install one of them.
type Backend interface {
	Name() string
	VersionLister
	Installer
}

type VersionLister interface {
	ListRemoteVersions(ctx context.Context) ([]string, error)
	LatestStableVersion(ctx context.Context) (string, bool, error)
	ResolveVersion(ctx context.Context, want string) (string, error)
}

type Installer interface {
	// Install installs the release matching ic.Version and returns the tag that was actually installed.
	Install(ctx context.Context, ic InstallContext) (string, error)
}

// ConfigProvider exposes the user settings an installer consumes.
type ConfigProvider interface {
	Env() map[string]string
	ExperimentalEnabled() bool
}

// Toolset exposes the executable search paths managed for the currently active tools.
type Toolset interface {
	ListPaths() []string
}

// InstallContext describes a single installation attempt.
type InstallContext struct {
	Version     string
	InstallPath string
	Toolset     Toolset

	// Stage and Progress are optional; when set they are updated as the installation advances.
	Stage    *progress.AtomicStage
	Progress *progress.Manual
}

func (ic InstallContext) SetStage(stage string) {
	if ic.Stage != nil {
		ic.Stage.Set(stage)
	}
}

// VersionIntent is the version a user asked for: a release tag, a fragment of one, or "latest". An optional semver
// constraint is checked against the resolved tag.
type VersionIntent struct {
	Want       string
	Constraint string
}

// StaticToolset is a fixed list of search paths.
type StaticToolset []string

func (s StaticToolset) ListPaths() []string {
	return s
}
