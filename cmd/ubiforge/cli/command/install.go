package command

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"
	"golang.org/x/sync/errgroup"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
	"github.com/anchore/ubiforge/event"
	"github.com/anchore/ubiforge/internal/bus"
	"github.com/anchore/ubiforge/internal/log"
	"github.com/anchore/ubiforge/tool"
)

// maxParallelInstalls bounds how many installer processes run at once.
const maxParallelInstalls = 3

type InstallConfig struct {
	Config           string `json:"config" yaml:"config" mapstructure:"config"`
	option.AppConfig `json:"" yaml:",inline" mapstructure:",squash"`
}

func Install(app clio.Application) *cobra.Command {
	cfg := &InstallConfig{
		AppConfig: option.DefaultAppConfig(),
	}

	var names []string

	return app.SetupCommand(&cobra.Command{
		Use:   "install [NAME...]",
		Short: "Install tools (all configured tools when no names are given)",
		Args:  cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			names = args
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), *cfg, names)
		},
	}, cfg)
}

func runInstall(ctx context.Context, cfg InstallConfig, names []string) error {
	if len(names) == 0 {
		names = cfg.Tools.Names()
	}

	toolCfgs, err := cfg.Tools.GetAllOptions(names)
	if err != nil {
		return err
	}

	// get the current store state
	store, err := ubiforge.NewStore(cfg.Store.Root)
	if err != nil {
		return err
	}

	env := toolEnvironment(cfg.Core)
	prog := trackInstallCmd(names)

	var (
		errs error
		lock sync.Mutex
	)

	g := errgroup.Group{}
	g.SetLimit(maxParallelInstalls)

	for i := range toolCfgs {
		opt := toolCfgs[i]

		g.Go(func() error {
			err := installTool(ctx, opt, env, store, cfg.Settings)
			if err != nil {
				lock.Lock()
				errs = multierror.Append(errs, err)
				lock.Unlock()
			}
			prog.Manual.Increment()
			return nil
		})
	}

	// note: we can ignore the error here because we are tracking the error through the multierror object
	g.Wait() // nolint: errcheck

	if errs != nil {
		prog.AtomicStage.Set("failed to install tools")
		prog.SetError(errs)
		return errs
	}

	prog.AtomicStage.Set("installed tools")
	prog.SetCompleted()
	return nil
}

func trackInstallCmd(toolNames []string) event.ManualStagedProgress {
	prog := event.NewManualStagedProgress("installing tools", int64(len(toolNames)))

	bus.Publish(partybus.Event{
		Type:   event.CLIInstallCmdStarted,
		Source: toolNames,
		Value:  progress.StagedProgressable(prog),
	})

	return prog
}

func installTool(ctx context.Context, opt option.Tool, env tool.Environment, store *ubiforge.Store, toolset ubiforge.Toolset) error {
	backend, intent, err := opt.ToBackend(env)
	if err != nil {
		return err
	}

	if err := tool.Install(ctx, backend, *intent, store, toolset); err != nil {
		log.WithFields("tool", opt.Name, "error", err).Debug("installation failed")
		return err
	}
	return nil
}
