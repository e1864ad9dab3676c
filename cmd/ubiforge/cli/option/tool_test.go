package option

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/ubiforge/tool/ubi"
)

func TestDeriveInstallParameters_Ubi(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		params    map[string]any
		expected  ubi.InstallerParameters
		expectErr require.ErrorAssertionFunc
	}{
		{
			name:   "all parameters",
			method: "ubi",
			params: map[string]any{
				"identifier": "owner/repo",
				"exe":        "repo",
				"matching":   "musl",
				"args":       "--verbose",
			},
			expected: ubi.InstallerParameters{Identifier: "owner/repo", Exe: "repo", Matching: "musl", Args: "--verbose"},
		},
		{
			name:     "missing identifier defaults to the tool name",
			method:   "ubi",
			params:   map[string]any{"exe": "tool"},
			expected: ubi.InstallerParameters{Identifier: "mytool", Exe: "tool"},
		},
		{
			name:     "no method and no parameters",
			expected: ubi.InstallerParameters{Identifier: "mytool"},
		},
		{
			name:     "method alias",
			method:   "universal-binary-installer",
			params:   map[string]any{"identifier": "https://example.com/tool.tar.gz"},
			expected: ubi.InstallerParameters{Identifier: "https://example.com/tool.tar.gz"},
		},
		{
			name:      "unknown method",
			method:    "go-install",
			expectErr: require.Error,
		},
		{
			name:   "bad data shape should return an error",
			method: "ubi",
			params: map[string]any{
				"exe": map[string]string{"bogus": "BogOsiTy"},
			},
			expectErr: require.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := deriveInstallParameters("mytool", tt.method, tt.params)
			if tt.expectErr == nil {
				tt.expectErr = require.NoError
			}
			tt.expectErr(t, err)
			if err == nil {
				instParams, ok := result.(ubi.InstallerParameters)
				require.True(t, ok)
				require.Equal(t, tt.expected, instParams)
			}
		})
	}
}

func TestTool_ToConfig(t *testing.T) {
	opt := Tool{
		Name:    "tool",
		Version: ToolVersionConfig{Want: "v1.2", Constraint: "< 2.0"},
		Parameters: map[string]any{
			"identifier": "owner/tool",
		},
	}

	cfg, intent, err := opt.ToConfig()
	require.NoError(t, err)

	assert.Equal(t, "tool", cfg.Name)
	assert.Equal(t, ubi.InstallerParameters{Identifier: "owner/tool"}, cfg.Parameters)
	assert.Equal(t, "v1.2", intent.Want)
	assert.Equal(t, "< 2.0", intent.Constraint)
}

func TestTools_GetOrAdHoc(t *testing.T) {
	tools := Tools{
		{Name: "configured", Version: ToolVersionConfig{Want: "v1.0.0"}},
	}

	assert.Equal(t, "v1.0.0", tools.GetOrAdHoc("configured").Version.Want)

	adHoc := tools.GetOrAdHoc("owner/other")
	assert.Equal(t, "owner/other", adHoc.Name)
	assert.Equal(t, "latest", adHoc.Version.Want)
	assert.Empty(t, adHoc.InstallMethod)
}

func TestTools_GetAllOptions(t *testing.T) {
	tools := Tools{{Name: "a"}, {Name: "b"}}

	got, err := tools.GetAllOptions([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, Tools(got).Names())

	_, err = tools.GetAllOptions([]string{"a", "c"})
	require.ErrorContains(t, err, "c")
}

func TestSettings(t *testing.T) {
	s := Settings{
		Experimental: true,
		Environment:  map[string]string{"KEY": "value"},
		Paths:        []string{"/tools/bin"},
	}

	assert.True(t, s.ExperimentalEnabled())
	assert.Equal(t, map[string]string{"KEY": "value"}, s.Env())
	assert.Equal(t, []string{"/tools/bin"}, s.ListPaths())
	assert.Empty(t, s.CacheOptions())

	s.CacheTTL = time.Hour
	assert.Len(t, s.CacheOptions(), 1)
	assert.NotEmpty(t, DefaultSettings().CacheDir)
}
