package option

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/anchore/fangs"
)

var _ fangs.PostLoader = (*Store)(nil)

// Store points at the install root. Every tool lands in <root>/<name>/<version>/bin and the root also holds the
// state file listing what is installed.
type Store struct {
	Root string `json:"root" yaml:"root" mapstructure:"root"`
}

func DefaultStore() Store {
	return Store{
		Root: ".tool",
	}
}

func (o *Store) PostLoad() error {
	root := strings.TrimSpace(o.Root)
	if root == "" {
		return fmt.Errorf("store root must not be empty")
	}
	o.Root = filepath.Clean(root)
	return nil
}
