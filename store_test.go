package ubiforge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installFake writes files into <root>/<name>/<version>/bin as an installer would and returns the install path.
func installFake(t *testing.T, root, name, version string, files map[string]string) string {
	t.Helper()
	installPath := filepath.Join(root, name, version)
	for p, contents := range files {
		full := filepath.Join(installPath, "bin", p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(contents), 0o755))
	}
	return installPath
}

func newPopulatedStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)

	require.NoError(t, s.AddTool("owner/tool", "v1.0.0", installFake(t, root, "owner/tool", "v1.0.0", map[string]string{"tool": "one"})))
	require.NoError(t, s.AddTool("other", "v0.2.0", installFake(t, root, "other", "v0.2.0", map[string]string{"other": "two", "lib/helper": "three"})))
	return s
}

func TestStore_GetByName(t *testing.T) {
	s := newPopulatedStore(t)

	tests := []struct {
		name      string
		toolName  string
		versions  []string
		wantNames []string
	}{
		{
			name:     "empty request",
			toolName: "",
		},
		{
			name:     "miss",
			toolName: "missing",
		},
		{
			name:      "hit by name only",
			toolName:  "owner/tool",
			wantNames: []string{"owner/tool@v1.0.0"},
		},
		{
			name:      "hit by name and exact version",
			toolName:  "other",
			versions:  []string{"v0.2.0"},
			wantNames: []string{"other@v0.2.0"},
		},
		{
			name:     "miss by version",
			toolName: "other",
			versions: []string{"v0.3.0"},
		},
		{
			name:      "hit with one of several versions",
			toolName:  "other",
			versions:  []string{"v0.1.0", "v0.2.0"},
			wantNames: []string{"other@v0.2.0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range s.GetByName(tt.toolName, tt.versions...) {
				got = append(got, e.Name+"@"+e.InstalledVersion)
			}
			assert.Equal(t, tt.wantNames, got)
		})
	}
}

func TestStore_AddTool(t *testing.T) {
	s := newPopulatedStore(t)

	entry, err := s.Get("other", "v0.2.0")
	require.NoError(t, err)

	want := StoreEntry{
		Name:             "other",
		InstalledVersion: "v0.2.0",
		PathInRoot:       filepath.Join("other", "v0.2.0"),
		Files: []FileEntry{
			{PathInBin: filepath.Join("lib", "helper")},
			{PathInBin: "other"},
		},
	}
	if d := cmp.Diff(want, *entry, cmpopts.IgnoreUnexported(StoreEntry{}), cmpopts.IgnoreFields(FileEntry{}, "Digests")); d != "" {
		t.Errorf("unexpected entry (-want +got):\n%s", d)
	}

	for _, f := range entry.Files {
		assert.Len(t, f.Digests["sha256"], 64)
		assert.Len(t, f.Digests["xxh64"], 16)
	}

	assert.Equal(t, filepath.Join(s.Root(), "other", "v0.2.0"), entry.Path())
	assert.Equal(t, filepath.Join(s.Root(), "other", "v0.2.0", "bin"), entry.BinDir())

	// state survives a new store instance
	reloaded, err := NewStore(s.Root())
	require.NoError(t, err)
	assert.Len(t, reloaded.Entries(), 2)

	again, err := reloaded.Get("other", "v0.2.0")
	require.NoError(t, err)
	assert.Equal(t, entry.Files, again.Files)
	assert.Equal(t, entry.Path(), again.Path())
}

func TestStore_AddTool_ReplacesSameVersion(t *testing.T) {
	s := newPopulatedStore(t)

	before, err := s.Get("owner/tool", "v1.0.0")
	require.NoError(t, err)

	installPath := installFake(t, s.Root(), "owner/tool", "v1.0.0", map[string]string{"tool": "reinstalled"})
	require.NoError(t, s.AddTool("owner/tool", "v1.0.0", installPath))

	after, err := s.Get("owner/tool", "v1.0.0")
	require.NoError(t, err)

	assert.Len(t, s.Entries(), 2)
	assert.NotEqual(t, before.Files[0].Digests, after.Files[0].Digests)
}

func TestStore_AddTool_Errors(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)

	t.Run("outside of the store root", func(t *testing.T) {
		elsewhere := installFake(t, t.TempDir(), "tool", "v1.0.0", map[string]string{"tool": "x"})
		require.Error(t, s.AddTool("tool", "v1.0.0", elsewhere))
	})

	t.Run("no bin directory", func(t *testing.T) {
		installPath := filepath.Join(root, "tool", "v1.0.0")
		require.NoError(t, os.MkdirAll(installPath, 0o755))
		require.Error(t, s.AddTool("tool", "v1.0.0", installPath))
	})

	t.Run("empty bin directory", func(t *testing.T) {
		installPath := filepath.Join(root, "tool", "v2.0.0")
		require.NoError(t, os.MkdirAll(filepath.Join(installPath, "bin"), 0o755))
		require.Error(t, s.AddTool("tool", "v2.0.0", installPath))
	})

	assert.Empty(t, s.Entries())
}

func TestStore_Get(t *testing.T) {
	s := newPopulatedStore(t)

	_, err := s.Get("owner/tool", "v2.0.0")
	require.ErrorContains(t, err, "different version")

	_, err = s.Get("missing", "v1.0.0")
	require.ErrorContains(t, err, "not installed")
}

func TestStore_Get_MultipleInstallations(t *testing.T) {
	root := t.TempDir()
	installFake(t, root, "tool", "v1.0.0", map[string]string{"tool": "x"})

	state := `{"entries": [
		{"name": "tool", "version": "v1.0.0", "path": "tool/v1.0.0", "files": []},
		{"name": "tool", "version": "v1.0.0", "path": "tool/v1.0.0", "files": []}
	]}`
	require.NoError(t, os.WriteFile(filepath.Join(root, ".ubiforge.state.json"), []byte(state), 0o644))

	s, err := NewStore(root)
	require.NoError(t, err)

	_, err = s.Get("tool", "v1.0.0")
	require.ErrorIs(t, err, ErrMultipleInstallations)
}

func TestStore_MissingInstallationsAreDropped(t *testing.T) {
	s := newPopulatedStore(t)

	entry, err := s.Get("owner/tool", "v1.0.0")
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(entry.Path()))

	// any save prunes entries whose installation no longer exists
	require.NoError(t, s.AddTool("third", "v3.0.0", installFake(t, s.Root(), "third", "v3.0.0", map[string]string{"third": "3"})))

	reloaded, err := NewStore(s.Root())
	require.NoError(t, err)
	assert.Empty(t, reloaded.GetByName("owner/tool"))
	assert.Len(t, reloaded.GetByName("third"), 1)
}

func TestStore_CorruptState(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".ubiforge.state.json"), []byte("{not json"), 0o644))

	_, err := NewStore(root)
	require.Error(t, err)
}

func TestStoreEntry_Verify(t *testing.T) {
	tests := []struct {
		name      string
		tamper    func(t *testing.T, e StoreEntry)
		useXxh64  bool
		useSha256 bool
		wantErr   require.ErrorAssertionFunc
	}{
		{
			name:      "intact (both digests)",
			useXxh64:  true,
			useSha256: true,
		},
		{
			name: "intact (presence only)",
		},
		{
			name: "modified file (xxh64)",
			tamper: func(t *testing.T, e StoreEntry) {
				require.NoError(t, os.WriteFile(filepath.Join(e.BinDir(), "other"), []byte("changed"), 0o755))
			},
			useXxh64: true,
			wantErr: func(t require.TestingT, err error, _ ...interface{}) {
				var mismatch *ErrDigestMismatch
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, "xxh64", mismatch.Algorithm)
			},
		},
		{
			name: "modified file (sha256)",
			tamper: func(t *testing.T, e StoreEntry) {
				require.NoError(t, os.WriteFile(filepath.Join(e.BinDir(), "other"), []byte("changed"), 0o755))
			},
			useSha256: true,
			wantErr: func(t require.TestingT, err error, _ ...interface{}) {
				var mismatch *ErrDigestMismatch
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, "sha256", mismatch.Algorithm)
			},
		},
		{
			name: "modified file is not detected without digests",
			tamper: func(t *testing.T, e StoreEntry) {
				require.NoError(t, os.WriteFile(filepath.Join(e.BinDir(), "other"), []byte("changed"), 0o755))
			},
		},
		{
			name: "removed file",
			tamper: func(t *testing.T, e StoreEntry) {
				require.NoError(t, os.Remove(filepath.Join(e.BinDir(), "lib", "helper")))
			},
			wantErr: require.Error,
		},
		{
			name: "removed installation",
			tamper: func(t *testing.T, e StoreEntry) {
				require.NoError(t, os.RemoveAll(e.Path()))
			},
			useXxh64: true,
			wantErr:  require.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = require.NoError
			}
			s := newPopulatedStore(t)
			entry, err := s.Get("other", "v0.2.0")
			require.NoError(t, err)

			if tt.tamper != nil {
				tt.tamper(t, *entry)
			}

			tt.wantErr(t, entry.Verify(tt.useXxh64, tt.useSha256))
		})
	}
}
