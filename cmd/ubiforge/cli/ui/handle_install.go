package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/ubiforge/event"
	"github.com/anchore/ubiforge/internal/log"
)

var _ tea.Model = (*installProgressModel)(nil)

func (m *Handler) handleCLIInstallCmdStarted(e partybus.Event) []tea.Model {
	names, total, err := event.ParseInstallCmdStarted(e)
	if err != nil {
		log.WithFields("error", err).Warn("unable to parse event")
		return nil
	}

	return []tea.Model{newInstallProgressModel(names, total, m.WindowSize)}
}

// installProgressModel shows one `ubiforge install` run: an overall status line plus the state of every configured
// tool. Tools show up as waiting until their ToolInstallationStartedEvent arrives.
type installProgressModel struct {
	Names    []string
	Total    progress.StagedProgressable
	Tools    map[string]event.Tool
	Progress map[string]progress.StagedProgressable

	WindowSize tea.WindowSizeMsg
	Spinner    spinner.Model

	NameStyle       lipgloss.Style
	TitleStyle      lipgloss.Style
	WaitingStyle    lipgloss.Style
	InstallingStyle lipgloss.Style
	DoneStyle       lipgloss.Style
	ErrorStyle      lipgloss.Style
}

func newInstallProgressModel(names []string, total progress.StagedProgressable, windowSize tea.WindowSizeMsg) installProgressModel {
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	return installProgressModel{
		Names:    names,
		Total:    total,
		Tools:    make(map[string]event.Tool),
		Progress: make(map[string]progress.StagedProgressable),

		WindowSize: windowSize,
		Spinner: spinner.New(
			spinner.WithSpinner(spinner.Spinner{
				Frames: strings.Split("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏", ""),
				FPS:    150 * time.Millisecond,
			}),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("13"))), // 13 = high intensity magenta
		),

		NameStyle:       lipgloss.NewStyle().Width(width),
		TitleStyle:      lipgloss.NewStyle().Bold(true),
		WaitingStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#777777")), // grey
		InstallingStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),     // 214 = orange1
		DoneStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),      // 10 = high intensity green
		ErrorStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),       // 9 = high intensity red
	}
}

func (m installProgressModel) Init() tea.Cmd {
	return m.Spinner.Tick
}

func (m installProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case partybus.Event:
		if msg.Type != event.ToolInstallationStartedEvent {
			return m, nil
		}

		tool, prog, err := event.ParseToolInstallationStarted(msg)
		if err != nil {
			log.WithFields("error", err).Trace("unable to parse event")
			return m, nil
		}

		m.Tools[tool.Name()] = tool
		m.Progress[tool.Name()] = prog
	}
	return m, nil
}

// View renders every tool on the status line, falling back to a tree with one tool per line when that line does
// not fit the terminal.
func (m installProgressModel) View() string {
	finished := progress.IsCompleted(m.Total)

	line := m.singleLineView(finished)
	if lipgloss.Width(line) <= m.WindowSize.Width {
		return line
	}
	return m.treeView(finished)
}

func (m installProgressModel) singleLineView(finished bool) string {
	var s strings.Builder
	s.WriteString(m.status())

	for i, name := range m.Names {
		if i > 0 {
			s.WriteString(m.WaitingStyle.Render(", "))
		}
		s.WriteString(m.toolStyle(name, finished).Render(name))
	}
	return s.String()
}

func (m installProgressModel) treeView(finished bool) string {
	var s strings.Builder
	s.WriteString(m.status() + "\n")

	for i, name := range m.Names {
		branch := "   ├── "
		if i == len(m.Names)-1 {
			branch = "   └── "
		}
		s.WriteString(m.WaitingStyle.Render(branch))
		s.WriteString(m.NameStyle.Render(m.toolStyle(name, finished).Render(name)))

		if tool, ok := m.Tools[name]; ok {
			s.WriteString(" " + tool.Version())
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (m installProgressModel) status() string {
	var mark string
	err := m.Total.Error()
	switch {
	case progress.IsErrCompleted(err):
		mark = m.DoneStyle.Bold(true).Render("✔")
	case err != nil:
		mark = m.ErrorStyle.Bold(true).Render("✘")
	default:
		mark = m.Spinner.View()
	}

	return " " + mark + " " + m.TitleStyle.Render(m.Total.Stage()) + "   "
}

// toolStyle colors a tool by its installation state. Once the whole run has finished successfully every tool is
// greyed out again so the final line stays quiet; failures stay red.
func (m installProgressModel) toolStyle(name string, finished bool) lipgloss.Style {
	prog, ok := m.Progress[name]
	if !ok {
		return m.WaitingStyle
	}

	err := prog.Error()
	switch {
	case err != nil && !progress.IsErrCompleted(err):
		return m.ErrorStyle
	case finished:
		return m.WaitingStyle
	case progress.IsCompleted(prog):
		return m.DoneStyle
	case prog.Current() > 0:
		return m.InstallingStyle
	}
	return m.WaitingStyle
}
