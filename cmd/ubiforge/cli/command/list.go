package command

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge"
	"github.com/anchore/ubiforge/cmd/ubiforge/cli/option"
	"github.com/anchore/ubiforge/tool"
)

type ListConfig struct {
	Config        string `json:"config" yaml:"config" mapstructure:"config"`
	option.Format `json:"" yaml:",inline" mapstructure:",squash"`
	option.Core   `json:"" yaml:",inline" mapstructure:",squash"`
}

func List(app clio.Application) *cobra.Command {
	cfg := &ListConfig{
		Format: option.Format{
			Output:           textOutput,
			AllowableFormats: []string{textOutput, jsonOutput, yamlOutput},
		},
		Core: option.DefaultCore(),
	}

	return app.SetupCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured and installed tool status",
		Aliases: []string{
			"ls",
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd.OutOrStdout(), *cfg)
		},
	}, cfg)
}

type toolStatus struct {
	Name             string `json:"name" yaml:"name"`
	WantVersion      string `json:"wantVersion" yaml:"wantVersion"`                     // this is the version the user asked for
	ResolvedVersion  string `json:"resolvedVersion" yaml:"resolvedVersion"`             // if the user asks for a non-specific version (e.g. "latest") then this is what that would resolve to at this point in time
	Constraint       string `json:"constraint,omitempty" yaml:"constraint,omitempty"`   // the version constraint the user asked for and used during version resolution
	IsInstalled      bool   `json:"isInstalled" yaml:"isInstalled"`                     // is the tool installed at the desired version (says nothing about it being valid, only present)
	HashIsValid      bool   `json:"hashIsValid" yaml:"hashIsValid"`                     // is the installed tool have the correct xxh64 hash?
	InstalledVersion string `json:"installedVersion" yaml:"installedVersion"`           // the actual version that is installed, which could vary from the user wanted or resolved values
	Error            error  `json:"-" yaml:"-"`                                         // if there was an error getting the status for this tool, it will be here
	ErrorMessage     string `json:"error,omitempty" yaml:"error,omitempty"`             // the rendered form of Error
}

func runList(ctx context.Context, out io.Writer, cmdCfg ListConfig) error {
	_, toolOpts := selectNamesAndConfigs(cmdCfg.Core, nil)

	// get the current store state
	store, err := ubiforge.NewStore(cmdCfg.Store.Root)
	if err != nil {
		return err
	}

	env := toolEnvironment(cmdCfg.Core)
	storedEntries := store.Entries()

	var (
		failedTools = make(map[string]error)
		allStatus   []toolStatus
	)
	for _, opt := range toolOpts {
		status, entry, err := getStatus(ctx, store, env, opt)
		if err != nil {
			failedTools[opt.Name] = err
			// still account for the installation so it is not reported as unconfigured
			for _, e := range store.GetByName(opt.Name) {
				storedEntries = removeEntry(storedEntries, &e)
			}
			continue
		}

		storedEntries = removeEntry(storedEntries, entry)

		if status != nil {
			allStatus = append(allStatus, *status)
		}
	}

	// what remains is tools in the store that are not configured
	for _, entry := range storedEntries {
		installedVersion, isHashValid, err := getInstallationStatus(entry)
		if err != nil {
			failedTools[entry.Name] = err
			continue
		}
		allStatus = append(allStatus, toolStatus{
			Name:             entry.Name,
			WantVersion:      "?",
			IsInstalled:      true,
			HashIsValid:      isHashValid,
			InstalledVersion: installedVersion,
		})
	}

	// we weren't able to get status for all tools, but we should still present these
	for name, err := range failedTools {
		opt := cmdCfg.Tools.GetOption(name)
		var wantVersion string
		if opt != nil {
			wantVersion = opt.Version.Want
		}
		allStatus = append(allStatus, toolStatus{
			Name:         name,
			WantVersion:  wantVersion,
			Error:        err,
			ErrorMessage: err.Error(),
		})
	}

	sort.SliceStable(allStatus, func(i, j int) bool {
		return allStatus[i].Name < allStatus[j].Name
	})

	return present(out, cmdCfg.Format, allStatus, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, renderListTable(allStatus))
		return err
	})
}

func getStatus(ctx context.Context, store *ubiforge.Store, env tool.Environment, opt option.Tool) (*toolStatus, *ubiforge.StoreEntry, error) {
	t, intent, err := opt.ToBackend(env)
	if err != nil {
		return nil, nil, err
	}

	entries := store.GetByName(t.Name())
	if len(entries) > 1 {
		return nil, nil, ubiforge.ErrMultipleInstallations
	}

	var (
		isHashValid      bool
		installedVersion string
		isInstalled      = len(entries) == 1
		entry            *ubiforge.StoreEntry
	)

	if isInstalled {
		entry = &entries[0]

		installedVersion, isHashValid, err = getInstallationStatus(*entry)
		if err != nil {
			return nil, nil, err
		}
	}

	resolvedVersion, err := tool.ResolveVersion(ctx, t, *intent)
	if err != nil {
		return nil, nil, err
	}

	return &toolStatus{
		Name:             opt.Name,
		WantVersion:      opt.Version.Want,
		ResolvedVersion:  resolvedVersion,
		Constraint:       opt.Version.Constraint,
		IsInstalled:      isInstalled,
		HashIsValid:      isHashValid,
		InstalledVersion: installedVersion,
	}, entry, nil
}

func getInstallationStatus(entry ubiforge.StoreEntry) (installedVersion string, isHashValid bool, err error) {
	installedVersion = entry.InstalledVersion

	err = entry.Verify(true, false)
	if err != nil {
		var errMismatch *ubiforge.ErrDigestMismatch
		if !errors.As(err, &errMismatch) {
			return "", false, err
		}
	}
	isHashValid = err == nil
	err = nil
	return
}

func removeEntry(entries []ubiforge.StoreEntry, entry *ubiforge.StoreEntry) []ubiforge.StoreEntry {
	if entry == nil {
		return entries
	}
	for idx, e := range entries {
		if e.Name == entry.Name && e.InstalledVersion == entry.InstalledVersion {
			return append(entries[:idx], entries[idx+1:]...)
		}
	}
	return entries
}

func renderListTable(items []toolStatus) string {
	if len(items) == 0 {
		return "no tools configured or installed"
	}
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false

	var constraintNeeded bool
	for _, item := range items {
		if item.Constraint != "" {
			constraintNeeded = true
			break
		}
	}

	header := table.Row{"Name", "Desired Version"}
	if constraintNeeded {
		header = append(header, "Constraint")
	}
	header = append(header, "")
	t.AppendHeader(header)

	for _, item := range items {
		t.AppendRow(getToolStatusRow(item, constraintNeeded))
	}

	return t.Render()
}

func getToolStatusRow(item toolStatus, constraintNeeded bool) table.Row {
	var (
		commentary string
		severity   int
	)

	switch {
	case item.Error != nil:
		commentary = item.Error.Error()
		severity = 2
	case !item.IsInstalled:
		commentary = "not installed"
		severity = 1
	case item.WantVersion == "?":
		commentary = "tool is not configured"
		severity = 2
	case item.InstalledVersion != item.ResolvedVersion:
		commentary = fmt.Sprintf("installed version (%s) does not match resolved version (%s)", item.InstalledVersion, item.ResolvedVersion)
		severity = 1
	case !item.HashIsValid:
		commentary = "hash is invalid"
		severity = 2
	}

	version := item.WantVersion

	if item.WantVersion != item.ResolvedVersion && item.ResolvedVersion != "" {
		version += fmt.Sprintf(" (%s)", item.ResolvedVersion)
	}

	style := toolStatusStyle(severity)

	row := table.Row{
		item.Name,
		style.Render(version),
	}

	if constraintNeeded {
		row = append(row, item.Constraint)
	}

	row = append(row, style.Render(commentary))

	return row
}

var (
	goodStatus      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))  // 10 = high intensity green (ANSI 16 bit color code)
	badStatus       = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // 214 = orange1 (ANSI 16 bit color code)
	reallyBadStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))   // 9 = high intensity red (ANSI 16 bit color code)
)

func toolStatusStyle(severity int) lipgloss.Style {
	switch severity {
	case 0:
		return goodStatus
	case 1:
		return badStatus
	}

	return reallyBadStatus
}
