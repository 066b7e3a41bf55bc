package store

import "github.com/dukex/flowcanvas/pkg/models"

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// State is a point-in-time copy of the store.
type State struct {
	Workflows []models.Workflow
	Current   *models.Workflow
	Loading   bool
	Err       error
}

// Status reports the overlay state. An error is reported even when a list is held.
func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.Err != nil:
		return StatusError
	default:
		return StatusIdle
	}
}

// ErrMessage returns the held error as a display string, or "".
func (s State) ErrMessage() string {
	if s.Err == nil {
		return ""
	}

	return s.Err.Error()
}

type loadMarker int

const (
	loadInFlight loadMarker = iota + 1
	loadDone
)

func cloneWorkflow(w *models.Workflow) *models.Workflow {
	if w == nil {
		return nil
	}

	c := *w

	return &c
}
