package ubiforge

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/OneOfOne/xxhash"
	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/anchore/ubiforge/internal"
	"github.com/anchore/ubiforge/internal/log"
)

const binDirName = "bin"

var ErrMultipleInstallations = fmt.Errorf("too many installations found")

type ErrDigestMismatch struct {
	Path      string
	Algorithm string
	Expected  string
	Actual    string
}

func (e *ErrDigestMismatch) Error() string {
	return fmt.Sprintf("digest mismatch: path=%q algorithm=%q expected=%q actual=%q", e.Path, e.Algorithm, e.Expected, e.Actual)
}

// Store tracks which tool versions have been installed under a root directory and the digests of the
// files each installation produced.
type Store struct {
	root    string
	entries []StoreEntry
	lock    *sync.RWMutex
	// writeLock serializes load-modify-save cycles of the state file
	writeLock *sync.Mutex
}

type state struct {
	Entries []StoreEntry `json:"entries"`
}

type StoreEntry struct {
	root             string
	Name             string      `json:"name"`
	InstalledVersion string      `json:"version"`
	PathInRoot       string      `json:"path"`
	Files            []FileEntry `json:"files"`
}

// FileEntry is a single file found in the bin directory of an installation.
type FileEntry struct {
	PathInBin string            `json:"path"`
	Digests   map[string]string `json:"digests"`
}

// Path is the installation directory of the entry.
func (e StoreEntry) Path() string {
	p, err := securejoin.SecureJoin(e.root, e.PathInRoot)
	if err != nil {
		return filepath.Join(e.root, filepath.Clean("/"+e.PathInRoot))
	}
	return p
}

// BinDir is the directory the installer wrote executables to.
func (e StoreEntry) BinDir() string {
	return filepath.Join(e.Path(), binDirName)
}

func NewStore(root string) (*Store, error) {
	s := &Store{
		root:    root,
		entries:   []StoreEntry{},
		lock:      &sync.RWMutex{},
		writeLock: &sync.Mutex{},
	}

	return s, s.loadState()
}

func (s Store) Root() string {
	return s.root
}

// InstallPath returns the directory a tool version should be installed to. The path is always within the store root.
func (s Store) InstallPath(name, version string) (string, error) {
	p, err := securejoin.SecureJoin(s.root, filepath.Join(name, version))
	if err != nil {
		return "", fmt.Errorf("unable to determine install path for %s@%s: %w", name, version, err)
	}
	return p, nil
}

// Get returns the store entry for the given tool name and version
func (s *Store) Get(name string, version string) (*StoreEntry, error) {
	nameVersionEntries := s.GetByName(name, version)

	switch len(nameVersionEntries) {
	case 0:
		nameEntries := s.GetByName(name)
		if len(nameEntries) > 0 {
			return nil, fmt.Errorf("tool %q installed with a different version", name)
		}
		return nil, fmt.Errorf("tool not installed")

	case 1:
		// pass

	default:
		return nil, ErrMultipleInstallations
	}

	entry := nameVersionEntries[0]
	return &entry, nil
}

// GetByName returns all entries with the given name, optionally filtered by one or more versions.
func (s Store) GetByName(name string, versions ...string) []StoreEntry {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var entries []StoreEntry
	for _, en := range s.entries {
		if en.Name != name {
			continue
		}
		if len(versions) == 0 {
			entries = append(entries, en)
			continue
		}
		for _, version := range versions {
			if en.InstalledVersion == version {
				entries = append(entries, en)
			}
		}
	}
	return entries
}

func (s Store) Entries() (entries []StoreEntry) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return append(entries, s.entries...)
}

// AddTool records a completed installation found at installPath (which must be within the store root).
func (s *Store) AddTool(toolName, resolvedVersion, installPath string) error {
	log.WithFields("tool", toolName, "version", resolvedVersion, "path", installPath).Trace("adding tool to store")

	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if err := s.loadState(); err != nil {
		return err
	}

	pathInRoot, err := filepath.Rel(s.root, installPath)
	if err != nil || !filepath.IsLocal(pathInRoot) {
		return fmt.Errorf("install path %q is not within the store root %q", installPath, s.root)
	}

	files, err := digestBinDir(filepath.Join(installPath, binDirName))
	if err != nil {
		return fmt.Errorf("unable to digest installation of %q: %w", toolName, err)
	}

	if len(files) == 0 {
		return fmt.Errorf("installation of %q produced no files in %q", toolName, filepath.Join(installPath, binDirName))
	}

	entry := StoreEntry{
		root:             s.root,
		Name:             toolName,
		InstalledVersion: resolvedVersion,
		PathInRoot:       pathInRoot,
		Files:            files,
	}

	s.lock.Lock()
	replaced := false
	for i := range s.entries {
		if s.entries[i].Name == toolName && s.entries[i].InstalledVersion == resolvedVersion {
			log.WithFields("tool", toolName, "version", resolvedVersion).Trace("replacing existing tool store entry")
			s.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		log.WithFields("tool", toolName, "version", resolvedVersion).Trace("adding new tool store entry")
		s.entries = append(s.entries, entry)
	}
	s.lock.Unlock()

	return s.saveState()
}

func (s *Store) stateFilePath() string {
	return filepath.Join(s.root, ".ubiforge.state.json")
}

func (s *Store) loadState() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	stateFilePath := s.stateFilePath()
	log.WithFields("path", stateFilePath).Trace("loading state")

	stateFile, err := os.Open(stateFilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer stateFile.Close()

	var encodeState state

	decoder := json.NewDecoder(stateFile)
	if err := decoder.Decode(&encodeState); err != nil {
		return fmt.Errorf("unable to read store state %q: %w", stateFilePath, err)
	}

	var entries []StoreEntry
	for _, entry := range encodeState.Entries {
		entry.root = s.root
		entries = append(entries, entry)
	}

	s.entries = entries

	return nil
}

func (s Store) saveState() error {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if err := os.MkdirAll(s.root, 0755); err != nil {
		return err
	}

	stateFilePath := s.stateFilePath()
	log.WithFields("path", stateFilePath).Trace("saving state")

	var encodeState state

	for _, entry := range s.entries {
		if _, err := os.Stat(entry.Path()); os.IsNotExist(err) {
			log.WithFields("name", entry.Name, "path", entry.PathInRoot).Trace("installation missing, removing from store")
			continue
		}

		encodeState.Entries = append(encodeState.Entries, entry)
	}

	contents, err := json.MarshalIndent(encodeState, "", "  ")
	if err != nil {
		return err
	}

	return internal.AtomicWriteFile(stateFilePath, contents, 0644)
}

func (e *StoreEntry) Verify(useXxh64, useSha256 bool) error {
	if _, err := os.Stat(e.Path()); err != nil {
		return err
	}

	for _, f := range e.Files {
		p, err := securejoin.SecureJoin(e.BinDir(), f.PathInBin)
		if err != nil {
			return err
		}

		if useXxh64 {
			if err := verifyDigest(p, f.Digests, internal.XXH64Algorithm, xxh64File); err != nil {
				return err
			}
		}

		if useSha256 {
			if err := verifyDigest(p, f.Digests, internal.SHA256Algorithm, sha256File); err != nil {
				return err
			}
		}

		if !useXxh64 && !useSha256 {
			if _, err := os.Stat(p); err != nil {
				return err
			}
		}
	}

	return nil
}

func verifyDigest(path string, digests map[string]string, algorithm string, digester func(string) (string, error)) error {
	expect, ok := digests[algorithm]
	if !ok {
		return fmt.Errorf("no %s digest found for %q", algorithm, path)
	}

	actual, err := digester(path)
	if err != nil {
		return fmt.Errorf("failed to calculate %s of %q: %w", algorithm, path, err)
	}

	if expect != actual {
		return &ErrDigestMismatch{
			Path:      path,
			Algorithm: algorithm,
			Expected:  expect,
			Actual:    actual,
		}
	}
	return nil
}

func digestBinDir(binDir string) ([]FileEntry, error) {
	var files []FileEntry
	err := filepath.WalkDir(binDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fh, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fh.Close()

		digests, err := getDigestsForReader(fh)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(binDir, path)
		if err != nil {
			return err
		}

		files = append(files, FileEntry{
			PathInBin: rel,
			Digests:   digests,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].PathInBin < files[j].PathInBin
	})
	return files, nil
}

func sha256File(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}

	defer fh.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, fh); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

func xxh64File(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}

	defer fh.Close()

	hash := xxhash.New64()
	if _, err := io.Copy(hash, fh); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

func getDigestsForReader(r io.Reader) (map[string]string, error) {
	sha256Hash := sha256.New()
	xxhHash := xxhash.New64()

	if _, err := io.Copy(io.MultiWriter(sha256Hash, xxhHash), r); err != nil {
		return nil, err
	}
	sha256Str := fmt.Sprintf("%x", sha256Hash.Sum(nil))
	xxhStr := fmt.Sprintf("%x", xxhHash.Sum(nil))

	return map[string]string{
		internal.SHA256Algorithm: sha256Str,
		internal.XXH64Algorithm:  xxhStr,
	}, nil
}
