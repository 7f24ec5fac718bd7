// Package runner hosts automation runs in the background, one at a time.
package runner

import (
	"errors"
	"log"
	"sync"

	"midiautomate/internal/automate"
)

// ErrBusy is returned when a run is started while another is in progress.
var ErrBusy = errors.New("runner: a run is already in progress")

// Engine executes one run. *automate.Orchestrator satisfies it.
type Engine interface {
	SetReporter(fn func(string))
	Run(rows []automate.Row, abort automate.AbortSignal) automate.Outcome
}

// State is the runner's lifecycle state.
type State string

const (
	Idle     State = "idle"
	Running  State = "running"
	Aborting State = "aborting"
)

// EventKind distinguishes runner events.
type EventKind int

const (
	EventProgress EventKind = iota
	EventState
	EventDone
)

// Event is delivered to subscribers in the order it happened.
type Event struct {
	Kind    EventKind
	Text    string
	State   State
	Outcome automate.Outcome
}

// Status is a snapshot of the runner.
type Status struct {
	State State
	Total int
	// Last is the most recent progress text.
	Last string
	// Outcome is the result of the previous run, if any.
	Outcome *automate.Outcome
}

// Runner coordinates background runs
type Runner struct {
	mu        sync.Mutex
	newEngine func() (Engine, error)
	abort     automate.Flag
	state     State
	total     int
	last      string
	outcome   *automate.Outcome
	finished  chan struct{}

	events    chan Event
	listeners []func(Event)
}

// New creates a Runner that builds a fresh engine for every run.
func New(newEngine func() (Engine, error)) *Runner {
	r := &Runner{
		newEngine: newEngine,
		state:     Idle,
		events:    make(chan Event, 256),
	}
	go r.pump()
	return r
}

// Subscribe registers a listener. Listeners are called from a single
// goroutine and must not block for long.
func (r *Runner) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Start begins a run over rows. It returns ErrBusy if a run is in progress.
func (r *Runner) Start(rows []automate.Row) error {
	r.mu.Lock()
	if r.state != Idle {
		r.mu.Unlock()
		return ErrBusy
	}
	engine, err := r.newEngine()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.abort.Reset()
	r.state = Running
	r.total = len(rows)
	r.last = ""
	done := make(chan struct{})
	r.finished = done
	r.mu.Unlock()

	log.Printf("Runner: Starting run of %d rows", len(rows))
	r.emit(Event{Kind: EventState, State: Running})
	engine.SetReporter(r.progress)

	go func() {
		defer close(done)
		out := engine.Run(rows, &r.abort)
		log.Printf("Runner: Run %s after %d rows", out.Status, out.Rows)

		r.mu.Lock()
		r.state = Idle
		r.outcome = &out
		r.mu.Unlock()

		r.emit(Event{Kind: EventDone, Outcome: out})
		r.emit(Event{Kind: EventState, State: Idle})
	}()
	return nil
}

// Abort requests cancellation of the current run. It reports whether a run
// was in progress; aborting while idle does nothing.
func (r *Runner) Abort() bool {
	r.mu.Lock()
	if r.state != Running {
		aborting := r.state == Aborting
		r.mu.Unlock()
		return aborting
	}
	r.state = Aborting
	r.mu.Unlock()

	log.Println("Runner: Abort requested")
	// Emitted before the flag so it precedes the run's final events.
	r.emit(Event{Kind: EventState, State: Aborting})
	r.abort.Set()
	return true
}

// Wait blocks until the current run, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.finished
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns a snapshot of the runner.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{State: r.state, Total: r.total, Last: r.last, Outcome: r.outcome}
}

func (r *Runner) progress(text string) {
	r.mu.Lock()
	r.last = text
	r.mu.Unlock()
	r.emit(Event{Kind: EventProgress, Text: text})
}

func (r *Runner) emit(ev Event) {
	r.events <- ev
}

func (r *Runner) pump() {
	for ev := range r.events {
		r.mu.Lock()
		listeners := r.listeners
		r.mu.Unlock()
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
