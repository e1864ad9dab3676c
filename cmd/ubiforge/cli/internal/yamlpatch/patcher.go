package yamlpatch

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/chainguard-dev/yam/pkg/yam/formatted"
	"github.com/google/yamlfmt"
	"github.com/google/yamlfmt/engine"
	"github.com/google/yamlfmt/formatters/basic"
	"gopkg.in/yaml.v3"

	"github.com/anchore/ubiforge/internal"
)

type Patcher interface {
	PatchYaml(doc *yaml.Node) error
}

// Write applies the patcher to the single document in the config file at path (creating the file if it does not
// exist yet), keeping comments and rewriting the file atomically.
func Write(path string, patcher Patcher) error {
	contents, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	out, err := Apply(contents, patcher)
	if err != nil {
		return err
	}

	return internal.AtomicWriteFile(path, out, 0o644)
}

// Apply patches the yaml contents and returns the formatted result.
func Apply(contents []byte, patcher Patcher) ([]byte, error) {
	var n yaml.Node
	if len(bytes.TrimSpace(contents)) > 0 {
		if err := yaml.Unmarshal(contents, &n); err != nil {
			return nil, err
		}
	}

	var doc *yaml.Node
	switch len(n.Content) {
	case 0:
		doc = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	case 1:
		doc = n.Content[0]
	default:
		return nil, fmt.Errorf("multiple documents found in config file (expected 1)")
	}

	if err := patcher.PatchYaml(doc); err != nil {
		return nil, fmt.Errorf("unable to patch yaml: %w", err)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, err
	}

	document := string(out)
	if n.HeadComment != "" {
		document = n.HeadComment + "\n" + document
	}
	if n.FootComment != "" {
		document += "\n" + n.FootComment + "\n"
	}

	return format([]byte(document))
}

func format(contents []byte) ([]byte, error) {
	registry := yamlfmt.NewFormatterRegistry(&basic.BasicFormatterFactory{})

	factory, err := registry.GetDefaultFactory()
	if err != nil {
		return nil, fmt.Errorf("unable to get default YAML formatter factory: %w", err)
	}

	formatter, err := factory.NewFormatter(nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create YAML formatter: %w", err)
	}

	breakStyle := yamlfmt.LineBreakStyleLF
	if runtime.GOOS == "windows" {
		breakStyle = yamlfmt.LineBreakStyleCRLF
	}

	lineSepChar, err := breakStyle.Separator()
	if err != nil {
		return nil, err
	}

	eng := &engine.ConsecutiveEngine{
		LineSepCharacter: lineSepChar,
		Formatter:        formatter,
		Quiet:            true,
		ContinueOnError:  false,
	}

	out, err := eng.FormatContent(contents)
	if err != nil {
		return nil, fmt.Errorf("unable to format YAML: %w", err)
	}

	var node yaml.Node
	if err = yaml.Unmarshal(out, &node); err != nil {
		return nil, fmt.Errorf("unable to unmarshal formatted YAML: %w", err)
	}

	// keep a blank line between tool entries
	var buf bytes.Buffer
	enc := formatted.NewEncoder(&buf)
	enc, err = enc.SetGapExpressions(".tools")
	if err != nil {
		return nil, fmt.Errorf("unable to set gap expressions: %w", err)
	}

	if err = enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("unable to format YAML: %w", err)
	}

	return buf.Bytes(), nil
}
