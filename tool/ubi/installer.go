package ubi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/acarl005/stripansi"
	"github.com/google/shlex"
	"github.com/scylladb/go-set/strset"

	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/internal/log"
)

// maxOutputLines bounds how much installer output is kept on an ExecutionError.
const maxOutputLines = 20

var _ ubiforge.Installer = (*Installer)(nil)

type InstallerParameters struct {
	Identifier string `json:"identifier" yaml:"identifier" mapstructure:"identifier"`
	// Exe selects the executable within an archive (passed as --exe).
	Exe string `json:"exe" yaml:"exe,omitempty" mapstructure:"exe"`
	// Matching selects among several matching release assets (passed as --matching).
	Matching string `json:"matching" yaml:"matching,omitempty" mapstructure:"matching"`
	// Args are additional installer arguments, split with shell quoting rules.
	Args string `json:"args" yaml:"args,omitempty" mapstructure:"args"`
}

type versionMatcher interface {
	FindMatchingVersion(ctx context.Context, requested string) (string, error)
}

// command is a fully-specified installer invocation.
type command struct {
	Name string
	Args []string
	Env  []string
	Dir  string
}

type Installer struct {
	config        InstallerParameters
	settings      ubiforge.ConfigProvider
	versions      versionMatcher
	commandRunner func(ctx context.Context, c command) error
}

func NewInstaller(cfg InstallerParameters, settings ubiforge.ConfigProvider, versions versionMatcher) *Installer {
	return &Installer{
		config:        cfg,
		settings:      settings,
		versions:      versions,
		commandRunner: runCommand,
	}
}

// Install dispatches the installation of ic.Version to the external installer, writing into
// <ic.InstallPath>/bin, and returns the release tag handed to the installer. The tag is the first listed
// tag containing ic.Version, which is not necessarily ic.Version itself. Nothing is cleaned up on failure.
func (i *Installer) Install(ctx context.Context, ic ubiforge.InstallContext) (string, error) {
	lgr := log.FromContext(ctx).Nested("identifier", i.config.Identifier, "version", ic.Version)

	ic.SetStage("checking settings")
	if i.settings == nil || !i.settings.ExperimentalEnabled() {
		return "", fmt.Errorf("%w: the %s backend requires experimental features to be enabled", ubiforge.ErrFeatureDisabled, InstallMethod)
	}

	if strings.TrimSpace(ic.Version) == "" {
		return "", &ubiforge.VersionNotFoundError{Identifier: i.config.Identifier, Requested: ic.Version}
	}

	if ic.InstallPath == "" {
		return "", fmt.Errorf("no install path given for %q", i.config.Identifier)
	}

	ic.SetStage("resolving version")
	tag, err := i.versions.FindMatchingVersion(ctx, ic.Version)
	if err != nil {
		return "", err
	}

	mode := ModeFor(i.config.Identifier)
	args, err := i.buildArgs(mode, tag, binDir(ic.InstallPath))
	if err != nil {
		return "", err
	}

	var paths []string
	if ic.Toolset != nil {
		paths = ic.Toolset.ListPaths()
	}

	c := command{
		Name: installerCommand,
		Args: args,
		Env:  buildEnv(os.Environ(), i.settings.Env(), paths),
		Dir:  ic.InstallPath,
	}

	if err := os.MkdirAll(ic.InstallPath, 0o755); err != nil {
		return "", fmt.Errorf("unable to create install path %q: %w", ic.InstallPath, err)
	}

	lgr.WithFields("mode", mode, "tag", tag).Debug("dispatching to installer")
	lgr.Trace("running: " + c.Name + " " + strings.Join(c.Args, " "))

	ic.SetStage("installing " + tag)
	if err := i.commandRunner(ctx, c); err != nil {
		return "", err
	}

	ic.SetStage("installed " + tag)
	return tag, nil
}

// binDir is the installer output directory; the trailing separator is significant to the installer.
func binDir(installPath string) string {
	return filepath.Join(installPath, "bin") + string(filepath.Separator)
}

func (i *Installer) buildArgs(mode InstallMode, tag, outDir string) ([]string, error) {
	var args []string
	switch mode {
	case DirectURL:
		args = []string{"--url", i.config.Identifier}
	case TaggedProject:
		args = []string{"--project", i.config.Identifier, "--tag", tag}
	default:
		return nil, fmt.Errorf("unsupported install mode: %s", mode)
	}
	args = append(args, "--in", outDir)

	exe, err := templateString(i.config.Exe, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to template exe %q: %w", i.config.Exe, err)
	}
	if exe != "" {
		args = append(args, "--exe", exe)
	}

	matching, err := templateString(i.config.Matching, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to template matching %q: %w", i.config.Matching, err)
	}
	if matching != "" {
		args = append(args, "--matching", matching)
	}

	if strings.TrimSpace(i.config.Args) != "" {
		extra, err := shlex.Split(i.config.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to parse installer args %q: %w", i.config.Args, err)
		}
		for _, arg := range extra {
			rendered, err := templateString(arg, tag)
			if err != nil {
				return nil, fmt.Errorf("failed to template installer arg %q: %w", arg, err)
			}
			args = append(args, rendered)
		}
	}

	return args, nil
}

// templateString renders a configured value with the resolved tag available as {{ .Version }}
// (e.g. `{{ trimPrefix "v" .Version }}`). Values without template actions are returned unchanged.
func templateString(in, version string) (string, error) {
	if !strings.Contains(in, "{{") {
		return in, nil
	}

	tmpl, err := template.New("installer-arg").Funcs(sprig.FuncMap()).Parse(in)
	if err != nil {
		return "", err
	}

	buf := bytes.Buffer{}
	err = tmpl.Execute(&buf, map[string]string{
		"Version": version,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// buildEnv layers the configured environment over the base environment and prepends the toolset
// paths to PATH, dropping duplicate path entries. The result is sorted by key.
func buildEnv(base []string, configured map[string]string, toolsetPaths []string) []string {
	env := make(map[string]string)
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}

	for k, v := range configured {
		env[k] = v
	}

	pathKey := "PATH"
	if runtime.GOOS == "windows" {
		for k := range env {
			if strings.EqualFold(k, "PATH") {
				pathKey = k
				break
			}
		}
	}

	seen := strset.New()
	var entries []string
	for _, p := range append(slices.Clone(toolsetPaths), filepath.SplitList(env[pathKey])...) {
		if p == "" || seen.Has(p) {
			continue
		}
		seen.Add(p)
		entries = append(entries, p)
	}
	env[pathKey] = strings.Join(entries, string(filepath.ListSeparator))

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(keys))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}

func runCommand(ctx context.Context, c command) error {
	path, err := lookPath(c.Name, envValue(c.Env, "PATH"))
	if err != nil {
		return &ubiforge.ExecutionError{Command: c.Name, Args: c.Args, Err: err}
	}

	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ubiforge.ExecutionError{
			Command:  c.Name,
			Args:     c.Args,
			ExitCode: exitCode,
			Output:   tail(stripansi.Strip(output.String()), maxOutputLines),
			Err:      err,
		}
	}

	log.WithFields("command", c.Name).Trace(strings.TrimSpace(stripansi.Strip(output.String())))
	return nil
}

// lookPath finds name on the given PATH value (rather than the PATH of this process), falling back
// to the process PATH.
func lookPath(name, pathValue string) (string, error) {
	candidates := []string{name}
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		candidates = append(candidates, name+".exe")
	}

	for _, dir := range filepath.SplitList(pathValue) {
		if dir == "" {
			continue
		}
		for _, candidate := range candidates {
			p := filepath.Join(dir, candidate)
			info, err := os.Stat(p)
			if err != nil || info.IsDir() {
				continue
			}
			if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
				continue
			}
			return p, nil
		}
	}

	return exec.LookPath(name)
}

func envValue(env []string, key string) string {
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func tail(s string, lines int) string {
	all := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}
	return strings.Join(all, "\n")
}
