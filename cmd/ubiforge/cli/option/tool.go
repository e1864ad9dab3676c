package option

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/tool"
	"github.com/anchore/ubiforge/tool/ubi"
)

type Tool struct {
	Name    string            `json:"name" yaml:"name" mapstructure:"name"`
	Version ToolVersionConfig `json:"version" yaml:"version" mapstructure:"version"`

	InstallMethod string         `json:"method" yaml:"method,omitempty" mapstructure:"method"`
	Parameters    map[string]any `json:"with" yaml:"with,omitempty" mapstructure:"with"`
}

type ToolVersionConfig struct {
	Want       string `json:"want" yaml:"want" mapstructure:"want"`
	Constraint string `json:"constraint" yaml:"constraint,omitempty" mapstructure:"constraint"`
}

func (t Tool) ToBackend(env tool.Environment) (ubiforge.Backend, *ubiforge.VersionIntent, error) {
	cfg, intent, err := t.ToConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tool %q config: %w", t.Name, err)
	}

	backend, err := tool.New(*cfg, env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to inflate tool %q: %w", cfg.Name, err)
	}
	return backend, intent, nil
}

func (t Tool) ToConfig() (*tool.Config, *ubiforge.VersionIntent, error) {
	installParams, err := deriveInstallParameters(t.Name, t.InstallMethod, t.Parameters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive install parameters for tool %q: %w", t.Name, err)
	}

	cfg := &tool.Config{
		Name:       t.Name,
		Method:     t.InstallMethod,
		Parameters: installParams,
	}

	intent := &ubiforge.VersionIntent{
		Want:       t.Version.Want,
		Constraint: t.Version.Constraint,
	}

	return cfg, intent, nil
}

func deriveInstallParameters(name string, installMethod string, installParams map[string]any) (any, error) {
	switch {
	case installMethod == "" || ubi.IsInstallMethod(installMethod):
		var params ubi.InstallerParameters
		if err := mapstructure.Decode(installParams, &params); err != nil {
			return nil, err
		}
		if params.Identifier == "" {
			// if not provided, assume that the tool name is the identifier (e.g. "owner/repo")
			params.Identifier = name
		}
		return params, nil
	}
	return nil, fmt.Errorf("unknown install method: %s", installMethod)
}

type Tools []Tool

func (t Tools) GetOption(name string) *Tool {
	for _, tObj := range t {
		if tObj.Name == name {
			return &tObj
		}
	}
	return nil
}

func (t Tools) GetAllOptions(names []string) ([]Tool, error) {
	var notFound []string
	tools := make([]Tool, len(names))
	for i, name := range names {
		tObj := t.GetOption(name)
		if tObj == nil {
			notFound = append(notFound, name)
			continue
		}
		tools[i] = *tObj
	}

	if len(notFound) > 0 {
		return nil, fmt.Errorf("tools not configured: %s", strings.Join(notFound, ", "))
	}

	return tools, nil
}

// GetOrAdHoc returns the configured tool with the given name, or an unconfigured tool that uses the name as its
// identifier (e.g. "owner/repo" or a download URL).
func (t Tools) GetOrAdHoc(name string) Tool {
	if opt := t.GetOption(name); opt != nil {
		return *opt
	}
	return Tool{
		Name:    name,
		Version: ToolVersionConfig{Want: "latest"},
	}
}

func (t Tools) Names() []string {
	names := make([]string, len(t))
	for i, tObj := range t {
		names[i] = tObj.Name
	}
	return names
}
