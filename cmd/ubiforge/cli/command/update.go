package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/anchore/clio"
	"github.com/anchore/go-logger"
	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/internal/yamlpatch"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
	"github.com/anchore/ubiforge/internal"
	"github.com/anchore/ubiforge/internal/log"
	"github.com/anchore/ubiforge/tool"
)

const defaultConfigPath = ".ubiforge.yaml"

type UpdateConfig struct {
	Config      string `json:"config" yaml:"config" mapstructure:"config"`
	StopOnError bool   `json:"stopOnError" yaml:"stopOnError" mapstructure:"stopOnError"`
	option.Core `json:"" yaml:",inline" mapstructure:",squash"`
}

func Update(app clio.Application) *cobra.Command {
	cfg := &UpdateConfig{
		StopOnError: false,
		Core:        option.DefaultCore(),
	}

	var names []string

	return app.SetupCommand(&cobra.Command{
		Use:   "update [NAME...]",
		Short: "Pin tool versions in the configuration to the latest release (that is still within any provided constraints)",
		Args:  cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			names = args
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context(), *cfg, names)
		},
	}, cfg)
}

func runUpdate(ctx context.Context, cfg UpdateConfig, names []string) error {
	pins, err := getUpdatedVersions(ctx, cfg, names)
	if len(pins) > 0 {
		path := cfg.Config
		if path == "" {
			path = defaultConfigPath
		}
		if writeErr := yamlpatch.Write(path, versionPinPatcher{pins: pins}); writeErr != nil {
			err = multierror.Append(err, writeErr)
		}
	}
	return err
}

var _ yamlpatch.Patcher = (*versionPinPatcher)(nil)

type versionPinPatcher struct {
	// tool name -> new version want
	pins map[string]string
}

func (p versionPinPatcher) PatchYaml(doc *yaml.Node) error {
	toolsNode, err := yamlpatch.ToolsSequence(doc)
	if err != nil {
		return err
	}
	for name, want := range p.pins {
		toolNode := yamlpatch.ToolNode(toolsNode, name)
		if toolNode == nil {
			return fmt.Errorf("tool %q is not in the config file", name)
		}
		yamlpatch.SetVersionWant(toolNode, want)
	}
	return nil
}

// getUpdatedVersions returns the new version want for every selected tool whose pin is out of date.
func getUpdatedVersions(ctx context.Context, cfg UpdateConfig, names []string) (map[string]string, error) {
	var (
		errs error
		pins = make(map[string]string)
		lock sync.Mutex
	)

	_, ogCfgs := selectNamesAndConfigs(cfg.Core, names)
	env := toolEnvironment(cfg.Core)

	g := errgroup.Group{}
	g.SetLimit(maxParallelInstalls)

	for i := range ogCfgs {
		toolCfg := ogCfgs[i]

		g.Go(func() error {
			newVersion, err := getUpdatedToolVersion(ctx, toolCfg, env)

			lock.Lock()
			defer lock.Unlock()

			if err != nil {
				errs = multierror.Append(errs, err)
				if cfg.StopOnError {
					return err
				}
				return nil
			}

			if newVersion != nil {
				pins[toolCfg.Name] = *newVersion
			}
			return nil
		})
	}

	// note: we can ignore the error here because we are tracking the error through the multierror object
	g.Wait() // nolint: errcheck

	return pins, errs
}

func getUpdatedToolVersion(ctx context.Context, toolCfg option.Tool, env tool.Environment) (*string, error) {
	if !internal.IsSemver(toolCfg.Version.Want) {
		// floating wants such as "latest" already track upstream
		log.WithFields("tool", toolCfg.Name, "version", toolCfg.Version.Want).Trace("skipping update of unpinned tool")
		return nil, nil
	}

	backend, intent, err := toolCfg.ToBackend(env)
	if err != nil {
		return nil, err
	}

	newVersion, err := tool.ResolveVersion(ctx, backend, ubiforge.VersionIntent{
		Want:       "latest",
		Constraint: intent.Constraint,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to update version for tool %q: %w", toolCfg.Name, err)
	}

	fields := logger.Fields{
		"tool":    toolCfg.Name,
		"version": toolCfg.Version.Want,
	}
	if toolCfg.Version.Constraint != "" {
		fields["constraint"] = fmt.Sprintf("%q", toolCfg.Version.Constraint)
	}

	if newVersion == toolCfg.Version.Want {
		log.WithFields(fields).Debug("tool version pin is up to date")
		return nil, nil
	}

	fields["version"] = fmt.Sprintf("%s ➔ %s", toolCfg.Version.Want, newVersion)
	log.WithFields(fields).Info("updated tool version pin")

	return &newVersion, nil
}
