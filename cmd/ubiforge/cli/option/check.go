package option

import (
	"github.com/anchore/clio"
)

// Check controls how thoroughly `ubiforge check` inspects installed binaries. The xxh64 fingerprint recorded at
// install time is always compared; the sha256 digest is only recomputed on request since it reads every file in full.
type Check struct {
	VerifyDigest bool `json:"verify-digest" yaml:"verify-digest" mapstructure:"verify-digest"`
}

func (o *Check) AddFlags(flags clio.FlagSet) {
	flags.BoolVarP(&o.VerifyDigest, "verify-digest", "d", "also recompute the sha256 digest of every installed binary")
}
