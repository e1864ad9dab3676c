package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/event"
	"github.com/anchore/ubiforge/internal/bus"
	"github.com/anchore/ubiforge/internal/log"
)

var _ event.Tool = (*installingTool)(nil)

type installingTool struct {
	name    string
	version string
}

func (t installingTool) Name() string {
	return t.name
}

func (t installingTool) Version() string {
	return t.version
}

// Install resolves the wanted version, installs it into the store unless it is already present and intact, and
// records the installation.
func Install(ctx context.Context, backend ubiforge.Backend, intent ubiforge.VersionIntent, store *ubiforge.Store, toolset ubiforge.Toolset) error {
	ctx, lgr := log.WithNested(ctx, "tool", backend.Name())

	resolvedVersion, err := ResolveVersion(ctx, backend, intent)
	if err != nil {
		return fmt.Errorf("failed to resolve version for tool %q: %w", backend.Name(), err)
	}

	err = Check(store, backend.Name(), resolvedVersion, VerifyConfig{VerifyXXH64Digest: true})
	if errors.Is(err, ubiforge.ErrMultipleInstallations) {
		return err
	}
	if err == nil {
		lgr.WithFields("version", resolvedVersion).Info("already installed")
		return nil
	}

	lgr.WithFields("version", resolvedVersion, "reason", err).Debug("tool check failed")

	// the installer selects a release by substring, so an earlier listed tag (v1.2.30 for v1.2.3) would win
	matched, err := backend.ResolveVersion(ctx, resolvedVersion)
	if err != nil {
		return fmt.Errorf("failed to resolve version for tool %q: %w", backend.Name(), err)
	}
	if matched != resolvedVersion {
		return versionMismatch(backend.Name(), resolvedVersion, matched)
	}

	lgr.WithFields("version", resolvedVersion).Info("installing")

	installPath, err := store.InstallPath(backend.Name(), resolvedVersion)
	if err != nil {
		return err
	}

	prog := event.NewManualStagedProgress("resolving", 1)

	bus.Publish(partybus.Event{
		Type:   event.ToolInstallationStartedEvent,
		Source: installingTool{name: backend.Name(), version: resolvedVersion},
		Value:  progress.StagedProgressable(prog),
	})

	installedVersion, err := backend.Install(ctx, ubiforge.InstallContext{
		Version:     resolvedVersion,
		InstallPath: installPath,
		Toolset:     toolset,
		Stage:       prog.AtomicStage,
		Progress:    prog.Manual,
	})
	if err != nil {
		prog.SetError(err)
		return fmt.Errorf("failed to install tool %q: %w", backend.Name(), err)
	}

	// never record a release under another release's version
	if installedVersion != resolvedVersion {
		err := versionMismatch(backend.Name(), resolvedVersion, installedVersion)
		prog.SetError(err)
		return err
	}

	if err := store.AddTool(backend.Name(), resolvedVersion, installPath); err != nil {
		prog.SetError(err)
		return err
	}

	prog.Manual.Set(1)
	prog.SetCompleted()
	return nil
}

func versionMismatch(name, resolved, installed string) error {
	return fmt.Errorf("%w: tool %q resolved to %q but the installer selects %q", ubiforge.ErrVersionMismatch, name, resolved, installed)
}
