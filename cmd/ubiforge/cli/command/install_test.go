package command

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
)

// fakeInstaller puts a "ubi" script on a directory that writes a single binary into the --in directory and
// records each invocation in calls.log.
func fakeInstaller(t *testing.T) (dir string, calls func() []string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script as the installer")
	}

	dir = t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	script := `#!/bin/sh
echo "$@" >> "` + logPath + `"
while [ $# -gt 0 ]; do
  if [ "$1" = "--in" ]; then out="$2"; fi
  shift
done
mkdir -p "$out"
echo fake > "${out}tool"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ubi"), []byte(script), 0o755))

	return dir, func() []string {
		contents, err := os.ReadFile(logPath)
		if os.IsNotExist(err) {
			return nil
		}
		require.NoError(t, err)
		return strings.Split(strings.TrimSpace(string(contents)), "\n")
	}
}

func installConfig(t *testing.T, installerDir string, experimental bool, tools ...option.Tool) InstallConfig {
	core := testCore(t, tools...)
	core.Experimental = experimental
	core.Paths = []string{installerDir}
	return InstallConfig{AppConfig: option.AppConfig{Core: core}}
}

func TestRunInstall(t *testing.T) {
	installerDir, calls := fakeInstaller(t)
	url := releaseServer(t, `[{"tag_name":"v1.0.0"},{"tag_name":"v1.1.0"}]`)

	cfg := installConfig(t, installerDir, true,
		urlTool("first", url, "latest"),
		urlTool("second", url, "1.0"),
	)

	require.NoError(t, runInstall(context.Background(), cfg, nil))
	require.Len(t, calls(), 2)

	store, err := ubiforge.NewStore(cfg.Store.Root)
	require.NoError(t, err)

	first := store.GetByName("first")
	require.Len(t, first, 1)
	assert.Equal(t, "v1.1.0", first[0].InstalledVersion)
	assert.FileExists(t, filepath.Join(first[0].BinDir(), "tool"))

	second := store.GetByName("second")
	require.Len(t, second, 1)
	assert.Equal(t, "v1.0.0", second[0].InstalledVersion)

	// installed and intact tools are not dispatched again
	require.NoError(t, runInstall(context.Background(), cfg, []string{"first"}))
	assert.Len(t, calls(), 2)

	checkCfg := CheckConfig{AppConfig: cfg.AppConfig}
	require.NoError(t, runCheck(context.Background(), checkCfg, nil))
}

func TestRunInstall_Errors(t *testing.T) {
	installerDir, calls := fakeInstaller(t)
	url := releaseServer(t, `[{"tag_name":"v1.0.0"}]`)

	t.Run("experimental features disabled", func(t *testing.T) {
		cfg := installConfig(t, installerDir, false, urlTool("tool", url, "latest"))

		err := runInstall(context.Background(), cfg, nil)
		require.ErrorIs(t, err, ubiforge.ErrFeatureDisabled)
		assert.Empty(t, calls())

		store, err := ubiforge.NewStore(cfg.Store.Root)
		require.NoError(t, err)
		assert.Empty(t, store.Entries())
	})

	t.Run("unconfigured tool", func(t *testing.T) {
		cfg := installConfig(t, installerDir, true, urlTool("tool", url, "latest"))
		require.Error(t, runInstall(context.Background(), cfg, []string{"other"}))
	})

	t.Run("no matching version", func(t *testing.T) {
		cfg := installConfig(t, installerDir, true, urlTool("tool", url, "9.9"))
		require.ErrorIs(t, runInstall(context.Background(), cfg, nil), ubiforge.ErrNotFound)
	})
}

func TestRunCheck_NotInstalled(t *testing.T) {
	url := releaseServer(t, `[{"tag_name":"v1.0.0"}]`)
	cfg := CheckConfig{AppConfig: option.AppConfig{Core: testCore(t, urlTool("tool", url, "latest"))}}

	require.Error(t, runCheck(context.Background(), cfg, nil))
}
