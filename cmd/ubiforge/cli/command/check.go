package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
	"github.com/anchore/ubiforge/internal/log"
	"github.com/anchore/ubiforge/tool"
)

type CheckConfig struct {
	Config           string `json:"config" yaml:"config" mapstructure:"config"`
	option.AppConfig `json:"" yaml:",inline" mapstructure:",squash"`
}

func Check(app clio.Application) *cobra.Command {
	cfg := &CheckConfig{
		AppConfig: option.DefaultAppConfig(),
	}

	var names []string

	return app.SetupCommand(&cobra.Command{
		Use:   "check [NAME...]",
		Short: "Verify tools are installed at the configured version",
		Args:  cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			names = args
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), *cfg, names)
		},
	}, cfg)
}

func runCheck(ctx context.Context, cmdCfg CheckConfig, names []string) error {
	if len(names) == 0 {
		names = cmdCfg.Tools.Names()
	}

	toolOpts, err := cmdCfg.Tools.GetAllOptions(names)
	if err != nil {
		return err
	}

	// get the current store state
	store, err := ubiforge.NewStore(cmdCfg.Store.Root)
	if err != nil {
		return err
	}

	env := toolEnvironment(cmdCfg.Core)

	for _, opt := range toolOpts {
		t, intent, err := opt.ToBackend(env)
		if err != nil {
			return err
		}

		resolvedVersion, err := tool.ResolveVersion(ctx, t, *intent)
		if err != nil {
			return fmt.Errorf("failed to resolve version for tool %q: %w", t.Name(), err)
		}

		err = tool.Check(store, t.Name(), resolvedVersion, tool.VerifyConfig{
			VerifyXXH64Digest:  true,
			VerifySHA256Digest: cmdCfg.VerifyDigest,
		})
		if err != nil {
			return fmt.Errorf("failed to check tool %q: %w", t.Name(), err)
		}

		log.WithFields("tool", t.Name(), "version", resolvedVersion).Info("installation verified")
	}

	return nil
}
