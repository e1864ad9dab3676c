package option

import (
	"github.com/anchore/clio"
)

// Ubi holds the installer options used when adding a tool from the command line.
type Ubi struct {
	Exe      string `json:"exe" yaml:"exe" mapstructure:"exe"`
	Matching string `json:"matching" yaml:"matching" mapstructure:"matching"`
	Args     string `json:"args" yaml:"args" mapstructure:"args"`
}

func (o *Ubi) AddFlags(flags clio.FlagSet) {
	flags.StringVarP(&o.Exe, "exe", "e", "Name of the executable to extract from the release archive")
	flags.StringVarP(&o.Matching, "matching", "m", "String to select among multiple matching release assets")
	flags.StringVarP(&o.Args, "args", "", "Additional arguments to pass to the installer")
}
