package session

// State is the lifecycle position of the current job.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopping
	StateTranscribing
	StateCleaningUp
	StateComplete
	StateError
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateRecording:    "recording",
	StateStopping:     "stopping",
	StateTranscribing: "transcribing",
	StateCleaningUp:   "cleaning_up",
	StateComplete:     "complete",
	StateError:        "error",
	StateCancelled:    "cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
