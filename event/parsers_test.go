package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"
)

func TestParseInstallCmdStarted(t *testing.T) {
	total := NewManualStagedProgress("installing tools", 2)

	tests := []struct {
		name      string
		event     partybus.Event
		wantNames []string
		wantErr   require.ErrorAssertionFunc
	}{
		{
			name: "tool names and total progress",
			event: partybus.Event{
				Type:   CLIInstallCmdStarted,
				Source: []string{"cli/cli", "sharkdp/fd"},
				Value:  progress.StagedProgressable(total),
			},
			wantNames: []string{"cli/cli", "sharkdp/fd"},
		},
		{
			name: "wrong event type",
			event: partybus.Event{
				Type:   ToolInstallationStartedEvent,
				Source: []string{"cli/cli"},
				Value:  progress.StagedProgressable(total),
			},
			wantErr: require.Error,
		},
		{
			name: "source is not a list of names",
			event: partybus.Event{
				Type:   CLIInstallCmdStarted,
				Source: "cli/cli",
				Value:  progress.StagedProgressable(total),
			},
			wantErr: func(t require.TestingT, err error, _ ...interface{}) {
				var payloadErr *ErrBadPayload
				require.ErrorAs(t, err, &payloadErr)
				assert.Equal(t, "Source", payloadErr.Field)
			},
		},
		{
			name: "value has no progress",
			event: partybus.Event{
				Type:   CLIInstallCmdStarted,
				Source: []string{"cli/cli"},
				Value:  42,
			},
			wantErr: require.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr == nil {
				tt.wantErr = require.NoError
			}
			names, prog, err := ParseInstallCmdStarted(tt.event)
			tt.wantErr(t, err)
			if err != nil {
				return
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, "installing tools", prog.Stage())
		})
	}
}
