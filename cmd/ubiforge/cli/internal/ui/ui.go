package ui

import (
	"os"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wagoodman/go-partybus"

	"github.com/anchore/bubbly"
	"github.com/anchore/bubbly/bubbles/frame"
	"github.com/anchore/clio"
	"github.com/anchore/go-logger"
	"github.com/anchore/ubiforge/internal/bus"
	"github.com/anchore/ubiforge/internal/log"
)

var _ interface {
	tea.Model
	partybus.Responder
	clio.UI
} = (*UI)(nil)

// UI draws the progress of a command on the terminal. Each event the handlers respond to becomes a model
// appended to the frame; log lines are redirected into the frame footer while the program is running.
//
// The terminal is only taken over once the first such event arrives, so commands that never publish one
// (e.g. `ubiforge run`, which hands stdin to the tool) keep a plain terminal.
type UI struct {
	program      *tea.Program
	start        sync.Once
	running      *sync.WaitGroup
	quiet        bool
	subscription partybus.Unsubscribable

	handler *bubbly.HandlerCollection
	frame   tea.Model
}

func New(quiet bool, handlers ...bubbly.EventHandler) *UI {
	return &UI{
		handler: bubbly.NewHandlerCollection(handlers...),
		frame:   frame.New(),
		running: &sync.WaitGroup{},
		quiet:   quiet,
	}
}

func (m *UI) Setup(subscription partybus.Unsubscribable) error {
	m.subscription = subscription
	return nil
}

func (m *UI) run() {
	if logWrapper, ok := log.Get().(logger.Controller); ok {
		logWrapper.SetOutput(m.frame.(*frame.Frame).Footer())
	}

	m.program = tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(os.Stdin))
	m.running.Add(1)

	go func() {
		defer m.running.Done()
		if _, err := m.program.Run(); err != nil {
			log.Errorf("unable to start UI: %+v", err)
			bus.Exit()
		}
	}()
}

func (m *UI) Handle(e partybus.Event) error {
	if m.program == nil {
		if !slices.Contains(m.handler.RespondsTo(), e.Type) {
			return nil
		}
		m.start.Do(m.run)
	}
	m.program.Send(e)
	return nil
}

func (m *UI) Teardown(force bool) error {
	switch {
	case m.program == nil:
		// nothing was ever drawn
	case !force:
		m.handler.Wait()
		m.program.Quit()
		m.running.Wait()
	default:
		waitWithTimeout(250*time.Millisecond, m.handler.Wait)

		// Kill() can leave the terminal without working control characters, so quit and give up waiting instead
		m.program.Quit()
		waitWithTimeout(250*time.Millisecond, m.running.Wait)
	}

	if m.subscription != nil {
		return m.subscription.Unsubscribe()
	}
	return nil
}

// bubbletea.Model functions

func (m *UI) Init() tea.Cmd {
	return m.frame.Init()
}

func (m *UI) RespondsTo() []partybus.EventType {
	return m.handler.RespondsTo()
}

func (m *UI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// window size and similar messages seed the state of models created later on
	m.handler.OnMessage(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			bus.ExitWithInterrupt()
			return m, tea.Quit
		}

	case partybus.Event:
		log.WithFields("component", "ui").Tracef("event: %q", msg.Type)

		for _, newModel := range m.handler.Handle(msg) {
			if newModel == nil {
				continue
			}
			cmds = append(cmds, newModel.Init())
			m.frame.(*frame.Frame).AppendModel(newModel)
		}
		// the frame is updated with the event too, so models already on screen see it
	}

	frameModel, cmd := m.frame.Update(msg)
	m.frame = frameModel
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *UI) View() string {
	if m.quiet {
		return ""
	}
	return m.frame.View()
}

func waitWithTimeout(timeout time.Duration, wait func()) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
