package automate

import (
	"errors"
	"fmt"
	"time"
)

// Operator-facing failure reasons.
const (
	ReasonWindowNotFound = "Vienna Ensemble Pro window not found. Please ensure Vienna Ensemble Pro is open."
	ReasonUnknownWindow  = "Unrecognised Vienna Ensemble Pro window type."
	ReasonNoInstance     = "Vienna Ensemble Pro must have at least one instance."
	ReasonMaximize       = "Something went wrong. Couldn't maximise the Vienna Ensemble Pro window."
	ReasonActivate       = "Something went wrong. Couldn't activate the Vienna Ensemble Pro window."
	ReasonGeometry       = "Something went wrong. Couldn't read the Vienna Ensemble Pro window position."
	ReasonCapture        = "Something went wrong. Couldn't capture the screen."
	ReasonInput          = "Something went wrong. Couldn't send mouse or keyboard input."
	ReasonConfused       = "Something went wrong. Possibly a popup on your screen confused the algorithm. Please close and try again."
	ReasonTimeout        = "Something went wrong. Make sure that your VEP mixer is set up properly, with correctly names channels, plugins, etc. Please close and try again."
	ReasonLayoutChanged  = "Something went wrong. The Vienna Ensemble Pro menus look different than when they were measured. Please close and try again."

	AbortMessage = "Manually aborted. You can start again when you're ready."
)

// EngineError is a fatal violation of a visual or geometric assumption.
type EngineError struct {
	Reason string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *EngineError) Unwrap() error { return e.Err }

func engineError(reason string, err error) error {
	return &EngineError{Reason: reason, Err: err}
}

// ErrAborted is matched by every AbortError.
var ErrAborted = errors.New("automate: aborted")

// AbortError reports that cancellation was observed.
type AbortError struct {
	Phase string
}

func (e *AbortError) Error() string { return AbortMessage }

func (e *AbortError) Is(target error) bool { return target == ErrAborted }

// Status is the terminal state of a run.
type Status int

const (
	Completed Status = iota
	Aborted
	Failed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is what a run returns instead of raising.
type Outcome struct {
	Status Status
	// Reason is the operator-facing message for Aborted and Failed runs.
	Reason string
	// Err is the underlying error for Failed runs.
	Err error
	// Rows counts rows fully written.
	Rows    int
	Elapsed time.Duration
}

// Average returns the mean time spent per written row.
func (o Outcome) Average() time.Duration {
	if o.Rows == 0 {
		return 0
	}
	return o.Elapsed / time.Duration(o.Rows)
}

func outcomeOf(err error, rows int, elapsed time.Duration) Outcome {
	out := Outcome{Rows: rows, Elapsed: elapsed}
	var engErr *EngineError
	switch {
	case err == nil:
		out.Status = Completed
	case errors.Is(err, ErrAborted):
		out.Status = Aborted
		out.Reason = AbortMessage
	case errors.As(err, &engErr):
		out.Status = Failed
		out.Reason = engErr.Reason
		out.Err = err
	default:
		out.Status = Failed
		out.Reason = err.Error()
		out.Err = err
	}
	return out
}
