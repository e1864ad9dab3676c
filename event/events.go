package event

import (
	"github.com/wagoodman/go-partybus"
)

const (
	typePrefix    = "ubiforge"
	cliTypePrefix = typePrefix + "-cli"

	// ToolInstallationStartedEvent is a partybus event that occurs when a single tool installation has begun
	ToolInstallationStartedEvent partybus.EventType = typePrefix + "-tool-installation-started"

	// RemoteVersionsFetchedEvent is a partybus event that occurs when a release listing was fetched from upstream
	// (cache hits do not publish this event)
	RemoteVersionsFetchedEvent partybus.EventType = typePrefix + "-remote-versions-fetched"

	// CLIInstallCmdStarted is a partybus event that occurs when the install CLI command has begun; it carries the
	// names of every selected tool and the progress across all of them
	CLIInstallCmdStarted partybus.EventType = cliTypePrefix + "-install-cmd-started"
)
