package event

import (
	"fmt"

	"github.com/wagoodman/go-partybus"
	"github.com/wagoodman/go-progress"
)

type Tool interface {
	Name() string
	Version() string
}

type RemoteVersions struct {
	Identifier string
	Endpoint   string
	Versions   []string
}

type ErrBadPayload struct {
	Type  partybus.EventType
	Field string
	Value interface{}
}

func (e *ErrBadPayload) Error() string {
	return fmt.Sprintf("event='%s' has bad event payload field='%v': '%+v'", string(e.Type), e.Field, e.Value)
}

func newPayloadErr(t partybus.EventType, field string, value interface{}) error {
	return &ErrBadPayload{
		Type:  t,
		Field: field,
		Value: value,
	}
}

func checkEventType(actual, expected partybus.EventType) error {
	if actual != expected {
		return newPayloadErr(expected, "Type", actual)
	}
	return nil
}

func ParseToolInstallationStarted(e partybus.Event) (Tool, progress.StagedProgressable, error) {
	if err := checkEventType(e.Type, ToolInstallationStartedEvent); err != nil {
		return nil, nil, err
	}

	t, ok := e.Source.(Tool)
	if !ok {
		return nil, nil, newPayloadErr(e.Type, "Source", e.Source)
	}

	prog, ok := e.Value.(progress.StagedProgressable)
	if !ok {
		return nil, nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return t, prog, nil
}

func ParseInstallCmdStarted(e partybus.Event) ([]string, progress.StagedProgressable, error) {
	if err := checkEventType(e.Type, CLIInstallCmdStarted); err != nil {
		return nil, nil, err
	}

	names, ok := e.Source.([]string)
	if !ok {
		return nil, nil, newPayloadErr(e.Type, "Source", e.Source)
	}

	prog, ok := e.Value.(progress.StagedProgressable)
	if !ok {
		return nil, nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return names, prog, nil
}

func ParseRemoteVersionsFetched(e partybus.Event) (*RemoteVersions, error) {
	if err := checkEventType(e.Type, RemoteVersionsFetchedEvent); err != nil {
		return nil, err
	}

	rv, ok := e.Value.(RemoteVersions)
	if !ok {
		return nil, newPayloadErr(e.Type, "Value", e.Value)
	}

	return &rv, nil
}
