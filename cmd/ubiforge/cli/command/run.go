package command

import (
	"fmt"
	"path/filepath"

	"github.com/scylladb/go-set/strset"
	"github.com/spf13/cobra"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
)

type RunConfig struct {
	Config      string `json:"config" yaml:"config" mapstructure:"config"`
	option.Core `json:"" yaml:",inline" mapstructure:",squash"`
}

func Run(app clio.Application) *cobra.Command {
	cfg := &RunConfig{
		Core: option.DefaultCore(),
	}

	var isHelpFlag bool

	return app.SetupCommand(&cobra.Command{
		Use:                "run NAME [args]",
		Short:              "Run an installed tool",
		DisableFlagParsing: true, // everything after the name belongs to the tool
		Args:               cobra.ArbitraryArgs,
		PreRunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("no tool name provided")
			}

			name := args[0]
			if name == "--help" || name == "-h" {
				isHelpFlag = true
				return nil
			}

			if !strset.New(cfg.Tools.Names()...).Has(name) {
				return fmt.Errorf("no tool configured with name: %s", name)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if isHelpFlag {
				return cmd.Help()
			}
			return runRun(*cfg, args[0], args[1:])
		},
	}, cfg)
}

func runRun(cfg RunConfig, name string, args []string) error {
	path, err := executablePath(cfg.Store.Root, name)
	if err != nil {
		return err
	}
	return run(path, args)
}

// executablePath finds the binary to run for the installed tool. When the installer placed more than one
// file in bin/ the one matching the tool name wins.
func executablePath(root, name string) (string, error) {
	store, err := ubiforge.NewStore(root)
	if err != nil {
		return "", err
	}

	entries := store.GetByName(name)
	switch len(entries) {
	case 0:
		return "", fmt.Errorf("no tool installed with name: %s", name)
	case 1:
		// pass
	default:
		return "", fmt.Errorf("multiple tools installed with name: %s", name)
	}

	entry := entries[0]

	var pathInBin string
	switch len(entry.Files) {
	case 0:
		return "", fmt.Errorf("installation of %s has no executables", name)
	case 1:
		pathInBin = entry.Files[0].PathInBin
	default:
		for _, f := range entry.Files {
			if stem(f.PathInBin) == name {
				pathInBin = f.PathInBin
				break
			}
		}
		if pathInBin == "" {
			return "", fmt.Errorf("installation of %s has several executables and none is named %q", name, name)
		}
	}

	fullPath, err := filepath.Abs(filepath.Join(entry.BinDir(), pathInBin))
	if err != nil {
		return "", fmt.Errorf("unable to resolve path to tool: %w", err)
	}
	return fullPath, nil
}

func stem(p string) string {
	base := filepath.Base(p)
	return base[:len(base)-len(filepath.Ext(base))]
}
