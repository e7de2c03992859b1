package ingest

import "fmt"

// Stage names a part of the pipeline.
type Stage string

const (
	StageLoader  Stage = "loader"
	StageWorker  Stage = "worker"
	StageWriter  Stage = "writer"
	StageStorage Stage = "storage"
)

// StageError is a fatal failure of one pipeline stage.
type StageError struct {
	Stage  Stage
	Worker int // set for StageWorker
	Err    error
}

func (e *StageError) Error() string {
	if e.Stage == StageWorker {
		return fmt.Sprintf("%s %d: %v", e.Stage, e.Worker, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
