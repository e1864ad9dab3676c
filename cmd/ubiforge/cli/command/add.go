package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/internal/yamlpatch"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
	"github.com/anchore/ubiforge/internal/log"
	"github.com/anchore/ubiforge/tool/ubi"
)

type AddConfig struct {
	Config      string `json:"config" yaml:"config" mapstructure:"config"`
	option.Core `json:"" yaml:",inline" mapstructure:",squash"`

	// CLI options
	Install struct {
		Ubi option.Ubi `json:"ubi" yaml:"ubi" mapstructure:"ubi"`
	} `json:"install" yaml:"install" mapstructure:"install"`

	VersionResolution option.VersionResolution `json:"version-resolver" yaml:"version-resolver" mapstructure:"version-resolver"`
}

func Add(app clio.Application) *cobra.Command {
	cfg := &AddConfig{
		Core: option.DefaultCore(),
	}

	return app.SetupCommand(&cobra.Command{
		Use:   "add IDENTIFIER[@VERSION] [--exe NAME] [--matching TEXT]",
		Short: "Add a new tool to the configuration (an owner/repo project or a download URL)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(*cfg, args[0])
		},
	}, cfg)
}

func runAdd(cfg AddConfig, identifier string) error {
	toolCfg, err := newToolConfig(cfg, identifier)
	if err != nil {
		return err
	}

	if existing := cfg.Tools.GetOption(toolCfg.Name); existing != nil {
		return fmt.Errorf("tool %q already configured", toolCfg.Name)
	}

	path := cfg.Config
	if path == "" {
		path = defaultConfigPath
	}

	if err := yamlpatch.Write(path, yamlToolAppender{toolCfg: toolCfg}); err != nil {
		return fmt.Errorf("unable to add tool %q to %q: %w", toolCfg.Name, path, err)
	}

	log.WithFields("tool", toolCfg.Name, "config", path).Info("added tool")
	return nil
}

func newToolConfig(cfg AddConfig, arg string) (option.Tool, error) {
	identifier, version := splitIdentifierVersion(arg)
	if _, err := ubi.ResolveEndpoint(identifier); err != nil {
		return option.Tool{}, err
	}

	vCfg := cfg.VersionResolution
	if version != "" {
		vCfg.Want = version
	}
	if vCfg.Want == "" {
		vCfg.Want = "latest"
	}

	iCfg := cfg.Install.Ubi
	params := ubi.InstallerParameters{
		Exe:      iCfg.Exe,
		Matching: iCfg.Matching,
		Args:     iCfg.Args,
	}

	// the tool name doubles as the identifier, so only non-default parameters are kept
	with, err := toMap(params)
	if err != nil {
		return option.Tool{}, err
	}
	if len(with) == 0 {
		with = nil
	}

	return option.Tool{
		Name: identifier,
		Version: option.ToolVersionConfig{
			Want:       vCfg.Want,
			Constraint: vCfg.Constraint,
		},
		InstallMethod: ubi.InstallMethod,
		Parameters:    with,
	}, nil
}

// splitIdentifierVersion splits "owner/repo@v1.2.3"; URLs are never split since they may contain '@'.
func splitIdentifierVersion(arg string) (string, string) {
	if ubi.ModeFor(arg) == ubi.DirectURL {
		return arg, ""
	}
	identifier, version, _ := strings.Cut(arg, "@")
	return identifier, version
}

var _ yamlpatch.Patcher = (*yamlToolAppender)(nil)

type yamlToolAppender struct {
	toolCfg option.Tool
}

func (p yamlToolAppender) PatchYaml(doc *yaml.Node) error {
	patchNode, err := yamlpatch.Node(p.toolCfg)
	if err != nil {
		return fmt.Errorf("unable to create new tool yaml config: %w", err)
	}

	toolsNode, err := yamlpatch.ToolsSequence(doc)
	if err != nil {
		return err
	}

	toolsNode.Content = append(toolsNode.Content, patchNode)
	return nil
}
