package event

import "github.com/wagoodman/go-progress"

var _ progress.StagedProgressable = (*ManualStagedProgress)(nil)

// ManualStagedProgress is a settable progress with a named stage, the value carried by install events.
type ManualStagedProgress struct {
	*progress.AtomicStage
	*progress.Manual
}

func NewManualStagedProgress(stage string, size int64) ManualStagedProgress {
	return ManualStagedProgress{
		AtomicStage: progress.NewAtomicStage(stage),
		Manual:      progress.NewManual(size),
	}
}
