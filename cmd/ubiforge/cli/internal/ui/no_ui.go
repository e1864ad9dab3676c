package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/clio"
	"github.com/anchore/ubiforge/event"
	"github.com/anchore/ubiforge/internal/log"
)

var _ clio.UI = (*NoUI)(nil)

// NoUI is used when there is no terminal to draw on (or the user asked for quiet output): the outcome of each tool
// installation is written as a single line once it finishes.
type NoUI struct {
	out          io.Writer
	quiet        bool
	pollInterval time.Duration

	subscription partybus.Unsubscribable
	writeLock    sync.Mutex
	running      sync.WaitGroup
	done         chan struct{}
	stop         sync.Once

	ToolNameStyle lipgloss.Style
	VersionStyle  lipgloss.Style
	DoneStyle     lipgloss.Style
	ErrorStyle    lipgloss.Style
}

func None(out io.Writer, quiet bool) *NoUI {
	return &NoUI{
		out:          out,
		quiet:        quiet,
		pollInterval: 100 * time.Millisecond,
		done:         make(chan struct{}),

		ToolNameStyle: lipgloss.NewStyle().Bold(true),
		VersionStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("#777777")), // grey
		DoneStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),      // 10 = high intensity green (ANSI 16 bit color code)
		ErrorStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),       // 9 = high intensity red (ANSI 16 bit color code)
	}
}

func (u *NoUI) Setup(subscription partybus.Unsubscribable) error {
	u.subscription = subscription
	return nil
}

func (u *NoUI) Handle(e partybus.Event) error {
	switch e.Type {
	case event.ToolInstallationStartedEvent:
		tool, prog, err := event.ParseToolInstallationStarted(e)
		if err != nil {
			log.WithFields("error", err).Warn("unable to parse event")
			return nil
		}

		u.running.Add(1)
		go func() {
			defer u.running.Done()
			u.report(tool, prog)
		}()

	case event.RemoteVersionsFetchedEvent:
		rv, err := event.ParseRemoteVersionsFetched(e)
		if err != nil {
			log.WithFields("error", err).Warn("unable to parse event")
			return nil
		}
		log.WithFields("identifier", rv.Identifier, "endpoint", rv.Endpoint, "count", len(rv.Versions)).Trace("remote versions fetched")
	}
	return nil
}

func (u *NoUI) Teardown(force bool) error {
	if force {
		u.stop.Do(func() { close(u.done) })
	}
	u.running.Wait()

	if u.subscription != nil {
		return u.subscription.Unsubscribe()
	}
	return nil
}

// report waits for the installation to finish, then writes a single status line.
func (u *NoUI) report(tool event.Tool, prog progress.StagedProgressable) {
	ticker := time.NewTicker(u.pollInterval)
	defer ticker.Stop()

	for {
		err := prog.Error()
		switch {
		case progress.IsErrCompleted(err):
			u.writeLine(u.DoneStyle.Bold(true).Render("✔"), tool, "")
			return
		case err != nil:
			u.writeLine(u.ErrorStyle.Bold(true).Render("✘"), tool, err.Error())
			return
		}

		select {
		case <-u.done:
			u.writeLine(u.ErrorStyle.Bold(true).Render("✘"), tool, "interrupted during "+prog.Stage())
			return
		case <-ticker.C:
		}
	}
}

func (u *NoUI) writeLine(status string, tool event.Tool, detail string) {
	if u.quiet {
		return
	}

	line := fmt.Sprintf(" %s %s %s", status, u.ToolNameStyle.Render(tool.Name()), u.VersionStyle.Render(tool.Version()))
	if detail != "" {
		line += " " + u.ErrorStyle.Render(detail)
	}

	u.writeLock.Lock()
	defer u.writeLock.Unlock()
	fmt.Fprintln(u.out, line)
}
