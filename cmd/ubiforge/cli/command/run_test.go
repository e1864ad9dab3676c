package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/ubiforge"
)

func installInto(t *testing.T, root, name, version string, files ...string) {
	t.Helper()

	store, err := ubiforge.NewStore(root)
	require.NoError(t, err)

	installPath, err := store.InstallPath(name, version)
	require.NoError(t, err)

	binDir := filepath.Join(installPath, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(binDir, f), []byte(f), 0755))
	}

	require.NoError(t, store.AddTool(name, version, installPath))
}

func TestExecutablePath(t *testing.T) {
	root := t.TempDir()
	installInto(t, root, "single", "v1.0.0", "anything")
	installInto(t, root, "multi", "v2.0.0", "helper", "multi.exe")
	installInto(t, root, "ambiguous", "v3.0.0", "a", "b")
	installInto(t, root, "twice", "v1.0.0", "twice")
	installInto(t, root, "twice", "v1.1.0", "twice")

	tests := []struct {
		name    string
		want    string
		wantErr require.ErrorAssertionFunc
	}{
		{
			name: "single",
			want: filepath.Join(root, "single", "v1.0.0", "bin", "anything"),
		},
		{
			name: "multi",
			want: filepath.Join(root, "multi", "v2.0.0", "bin", "multi.exe"),
		},
		{
			name:    "ambiguous",
			wantErr: require.Error,
		},
		{
			name:    "twice",
			wantErr: require.Error,
		},
		{
			name:    "missing",
			wantErr: require.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = require.NoError
			}

			got, err := executablePath(root, tt.name)
			tt.wantErr(t, err)
			if err != nil {
				return
			}

			want, err := filepath.Abs(tt.want)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
