package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"

	"github.com/anchore/ubiforge/event"
)

type testTool struct {
	name, version string
}

func (t testTool) Name() string    { return t.name }
func (t testTool) Version() string { return t.version }

func installEvent(name, version string) (partybus.Event, *progress.Manual) {
	prog := event.NewManualStagedProgress("installing", 1)
	return partybus.Event{
		Type:   event.ToolInstallationStartedEvent,
		Source: testTool{name: name, version: version},
		Value:  progress.StagedProgressable(prog),
	}, prog.Manual
}

func TestNoUI_Handle(t *testing.T) {
	tests := []struct {
		name         string
		finish       func(p *progress.Manual)
		quiet        bool
		wantContains []string
		wantEmpty    bool
	}{
		{
			name:         "completed",
			finish:       func(p *progress.Manual) { p.SetCompleted() },
			wantContains: []string{"✔", "owner/tool", "v1.0.0"},
		},
		{
			name:         "failed",
			finish:       func(p *progress.Manual) { p.SetError(errors.New("no asset matched")) },
			wantContains: []string{"✘", "owner/tool", "v1.0.0", "no asset matched"},
		},
		{
			name:      "quiet",
			finish:    func(p *progress.Manual) { p.SetCompleted() },
			quiet:     true,
			wantEmpty: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			u := None(&out, tt.quiet)
			u.pollInterval = time.Millisecond
			require.NoError(t, u.Setup(nil))

			e, prog := installEvent("owner/tool", "v1.0.0")
			require.NoError(t, u.Handle(e))
			tt.finish(prog)

			require.NoError(t, u.Teardown(false))

			if tt.wantEmpty {
				assert.Empty(t, out.String())
				return
			}
			for _, s := range tt.wantContains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestNoUI_Teardown_Force(t *testing.T) {
	var out bytes.Buffer
	u := None(&out, false)
	require.NoError(t, u.Setup(nil))

	e, _ := installEvent("owner/tool", "v1.0.0")
	require.NoError(t, u.Handle(e))

	// never completes
	require.NoError(t, u.Teardown(true))
	assert.Contains(t, out.String(), "interrupted during installing")

	// a second interrupt while shutting down is harmless
	require.NotPanics(t, func() {
		require.NoError(t, u.Teardown(true))
	})
	assert.Equal(t, 1, strings.Count(out.String(), "interrupted during"))
}

func TestNoUI_Handle_IgnoresBadPayloads(t *testing.T) {
	var out bytes.Buffer
	u := None(&out, false)

	require.NoError(t, u.Handle(partybus.Event{Type: event.ToolInstallationStartedEvent, Value: "bogus"}))
	require.NoError(t, u.Handle(partybus.Event{Type: event.RemoteVersionsFetchedEvent, Value: 42}))
	require.NoError(t, u.Teardown(false))
	assert.Empty(t, out.String())
}
