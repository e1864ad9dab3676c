package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagoodman/go-partybus"

	handler "github.com/anchore/ubiforge/cmd/ubiforge/cli/ui"
	"github.com/anchore/ubiforge/event"
)

func TestUI_TerminalUntouchedWithoutInstallEvents(t *testing.T) {
	u := New(false, handler.New(handler.DefaultHandlerConfig()))
	require.NoError(t, u.Setup(nil))

	assert.Contains(t, u.RespondsTo(), event.CLIInstallCmdStarted)

	// events no handler turns into a model do not start the program
	require.NoError(t, u.Handle(partybus.Event{
		Type:  event.RemoteVersionsFetchedEvent,
		Value: event.RemoteVersions{Identifier: "cli/cli"},
	}))
	assert.Nil(t, u.program)

	for _, force := range []bool{false, true} {
		require.NoError(t, u.Teardown(force))
	}
}
