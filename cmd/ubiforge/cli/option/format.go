package option

import (
	"fmt"
	"slices"
	"strings"

	"github.com/anchore/fangs"
)

var (
	_ fangs.FlagAdder  = (*Format)(nil)
	_ fangs.PostLoader = (*Format)(nil)
)

// Format selects how listing commands (list, ls-remote) print their results. A jq expression is only applied to
// structured output.
type Format struct {
	Output           string   `yaml:"output" json:"output" mapstructure:"output"`
	AllowableFormats []string `yaml:"-" json:"-" mapstructure:"-"`
	JQCommand        string   `yaml:"jqCommand" json:"jqCommand" mapstructure:"jqCommand"`
}

func (o *Format) AddFlags(flags fangs.FlagSet) {
	flags.StringVarP(
		&o.Output,
		"output", "o",
		fmt.Sprintf("output format to report results in (allowable values: %s)", strings.Join(o.AllowableFormats, ", ")),
	)
	flags.StringVarP(
		&o.JQCommand,
		"jq", "",
		"jq expression applied to the json or yaml output",
	)
}

func (o *Format) PostLoad() error {
	o.Output = strings.ToLower(strings.TrimSpace(o.Output))
	if o.Output != "" && len(o.AllowableFormats) > 0 && !slices.Contains(o.AllowableFormats, o.Output) {
		return fmt.Errorf("unsupported output format %q (allowable values: %s)", o.Output, strings.Join(o.AllowableFormats, ", "))
	}
	return nil
}
