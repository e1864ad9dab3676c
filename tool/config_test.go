package tool

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/ubiforge/tool/ubi"
)

func TestNew(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name           string
		cfg            Config
		wantIdentifier string
		wantErr        require.ErrorAssertionFunc
	}{
		{
			name:           "defaults to ubi with the tool name as identifier",
			cfg:            Config{Name: "owner/repo"},
			wantIdentifier: "owner/repo",
		},
		{
			name: "explicit identifier",
			cfg: Config{
				Name:       "tool",
				Method:     "ubi",
				Parameters: ubi.InstallerParameters{Identifier: "https://example.com/tool.tar.gz"},
			},
			wantIdentifier: "https://example.com/tool.tar.gz",
		},
		{
			name: "method alias",
			cfg: Config{
				Name:       "tool",
				Method:     "Universal-Binary-Installer",
				Parameters: ubi.InstallerParameters{Identifier: "owner/tool"},
			},
			wantIdentifier: "owner/tool",
		},
		{
			name:    "unsupported method",
			cfg:     Config{Name: "tool", Method: "go-install"},
			wantErr: require.Error,
		},
		{
			name:    "wrong parameter type",
			cfg:     Config{Name: "tool", Method: "ubi", Parameters: map[string]string{"identifier": "owner/tool"}},
			wantErr: require.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = require.NoError
			}
			backend, err := New(tt.cfg, Environment{CacheRoot: root})
			tt.wantErr(t, err)
			if err != nil {
				return
			}

			assert.Equal(t, tt.cfg.Name, backend.Name())
			ubiBackend, ok := backend.(*ubi.Backend)
			require.True(t, ok)
			assert.Equal(t, tt.wantIdentifier, ubiBackend.Identifier())
		})
	}
}

func TestCacheDir(t *testing.T) {
	a, err := CacheDir("/cache", "ubi", "owner/repo")
	require.NoError(t, err)
	again, err := CacheDir("/cache", "ubi", "owner/repo")
	require.NoError(t, err)
	b, err := CacheDir("/cache", "ubi", "owner/other")
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Join("/cache", "ubi"), filepath.Dir(a))
	assert.Len(t, filepath.Base(a), 16)
}
