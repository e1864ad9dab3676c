package option

import (
	"github.com/anchore/clio"
)

type VersionResolution struct {
	Want       string `json:"want" yaml:"want" mapstructure:"want"`
	Constraint string `json:"constraint" yaml:"constraint" mapstructure:"constraint"`
}

func (o *VersionResolution) AddFlags(flags clio.FlagSet) {
	flags.StringVarP(&o.Want, "want", "", "Version to pin (a release tag, a fragment of one, or 'latest')")
	flags.StringVarP(&o.Constraint, "constraint", "", "Version constraint (e.g. '<2.0' or '>=1.0.0')")
}
