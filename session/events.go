package session

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/dictation/store"
)

// Event is one of the variants below. The set is closed.
type Event interface {
	event()
}

// StateChanged reports a transition of the job state machine.
type StateChanged struct {
	From State
	To   State
}

// Tick is emitted every tick interval while recording. Ticks may be dropped.
type Tick struct {
	Elapsed time.Duration
}

// Progress carries transcription progress such as "Transcribing chunk 2/3".
type Progress struct {
	Message string
}

// Warning is a non-fatal problem; the job continues.
type Warning struct {
	Message string
	Err     error
}

// Failed ends a job with a user-visible error. Cancellations never produce
// a Failed event.
type Failed struct {
	Message string
	Err     error
}

// Completed carries the final transcript of a job.
type Completed struct {
	JobID   string
	Entry   store.HistoryEntry
	RawText string
	Cleaned bool
}

// FallbackOffered reports that native capture is unavailable and the
// browser relay can be used instead.
type FallbackOffered struct {
	Reason string
}

// Recovered reports an interrupted recording found at startup.
type Recovered struct {
	Session store.RecordingSession
}

func (StateChanged) event()    {}
func (Tick) event()            {}
func (Progress) event()        {}
func (Warning) event()         {}
func (Failed) event()          {}
func (Completed) event()       {}
func (FallbackOffered) event() {}
func (Recovered) event()       {}

// Handlers receives events by variant. A nil field ignores its variant.
type Handlers struct {
	StateChanged    func(StateChanged)
	Tick            func(Tick)
	Progress        func(Progress)
	Warning         func(Warning)
	Failed          func(Failed)
	Completed       func(Completed)
	FallbackOffered func(FallbackOffered)
	Recovered       func(Recovered)
}

// Dispatch delivers e to the matching handler.
func Dispatch(e Event, h Handlers) {
	switch e := e.(type) {
	case StateChanged:
		call(h.StateChanged, e)
	case Tick:
		call(h.Tick, e)
	case Progress:
		call(h.Progress, e)
	case Warning:
		call(h.Warning, e)
	case Failed:
		call(h.Failed, e)
	case Completed:
		call(h.Completed, e)
	case FallbackOffered:
		call(h.FallbackOffered, e)
	case Recovered:
		call(h.Recovered, e)
	default:
		panic(fmt.Sprintf("session: unknown event %T", e))
	}
}

func call[E Event](fn func(E), e E) {
	if fn != nil {
		fn(e)
	}
}

// Drain dispatches events until the channel is closed or ctx is done.
func Drain(ctx context.Context, events <-chan Event, h Handlers) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			Dispatch(e, h)
		case <-ctx.Done():
			return
		}
	}
}

// Sink receives every completed transcript, for example to publish it.
type Sink interface {
	Publish(ctx context.Context, c Completed) error
}
