package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/mitchellh/mapstructure"
	"github.com/scylladb/go-set/strset"
	"gopkg.in/yaml.v3"

	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
	"github.com/anchore/ubiforge/tool"
)

const (
	textOutput = "text"
	jsonOutput = "json"
	yamlOutput = "yaml"
)

func toolEnvironment(cfg option.Core) tool.Environment {
	return tool.Environment{
		Settings:     cfg.Settings,
		CacheRoot:    cfg.CacheDir,
		CacheOptions: cfg.CacheOptions(),
	}
}

func selectNamesAndConfigs(cfg option.Core, names []string) ([]string, []option.Tool) {
	nameSet := strset.New(names...)
	if len(names) == 0 {
		nameSet.Add(cfg.Tools.Names()...)
	}

	var ogCfgs []option.Tool

	// always order the tools in the same order as the original config (not what the user might have passed in)
	names = nil
	for i := range cfg.Tools {
		toolCfg := cfg.Tools[i]

		if !nameSet.Has(toolCfg.Name) {
			continue
		}

		ogCfgs = append(ogCfgs, toolCfg)
		names = append(names, toolCfg.Name)
	}
	return names, ogCfgs
}

// present writes v in the requested output format; text output is delegated to the caller.
func present(w io.Writer, format option.Format, v any, text func(io.Writer) error) error {
	switch strings.ToLower(format.Output) {
	case "", textOutput:
		if format.JQCommand != "" {
			return fmt.Errorf("--jq requires the %q output format", jsonOutput)
		}
		return text(w)
	case jsonOutput:
		by, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if format.JQCommand != "" {
			by, err = applyJQ(format.JQCommand, by)
			if err != nil {
				return err
			}
			_, err = w.Write(by)
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, by, "", "  "); err != nil {
			return err
		}
		buf.WriteString("\n")
		_, err = w.Write(buf.Bytes())
		return err
	case yamlOutput:
		if format.JQCommand != "" {
			return fmt.Errorf("--jq requires the %q output format", jsonOutput)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	return fmt.Errorf("unsupported output format %q (allowable values: %s)", format.Output, strings.Join(format.AllowableFormats, ", "))
}

// applyJQ runs the jq expression over the JSON document, returning one JSON value per line of output.
func applyJQ(expr string, document []byte) ([]byte, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}

	var input any
	if err := json.Unmarshal(document, &input); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("jq expression %q failed: %w", expr, err)
		}

		// raw strings, like `jq -r`
		if s, ok := v.(string); ok {
			buf.WriteString(s + "\n")
			continue
		}

		by, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(by)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// toMap converts a parameters struct into a map, dropping empty values.
func toMap(s any) (map[string]any, error) {
	var m map[string]any
	err := mapstructure.Decode(s, &m)
	if err != nil {
		return nil, fmt.Errorf("unable to create map from struct: %w", err)
	}

	for k, v := range m {
		switch vv := v.(type) {
		case string:
			if vv == "" {
				delete(m, k)
			}
		case []string:
			if len(vv) == 0 {
				delete(m, k)
			}
		default:
			if vv == nil {
				delete(m, k)
			}
		}
	}

	return m, nil
}
