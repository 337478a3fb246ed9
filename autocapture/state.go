package autocapture

// State is the capture session state. One instance per running session,
// mutated only by the service's transition handling.
type State int

const (
	StateIdle State = iota
	StateUnstable
	StateReady
	StateProcessing
	StateProcessed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateUnstable:
		return "Unstable"
	case StateReady:
		return "Ready"
	case StateProcessing:
		return "Processing"
	case StateProcessed:
		return "Processed"
	}
	return "Unknown"
}

// Next is the pure transition function. Given the current state, whether the
// frame is changing, and the current stable-frame counter, it returns the
// successor state, the updated counter, and whether a capture should be
// attempted. The caller may still veto the attempt (cooldown, busy worker);
// Next itself has no side effects and no notion of time.
func Next(s State, changing bool, count, threshold int) (State, int, bool) {
	switch s {
	case StateIdle:
		if changing {
			return StateUnstable, 0, false
		}
		return StateIdle, count, false

	case StateUnstable:
		if changing {
			return StateUnstable, 0, false
		}
		return StateReady, 1, false

	case StateReady:
		if changing {
			return StateUnstable, 0, false
		}
		count++
		if count >= threshold {
			return StateProcessing, count, true
		}
		return StateReady, count, false

	case StateProcessing:
		if changing {
			// the in-flight task keeps running; its late result is discarded
			// by the sequence check in the completion handler
			return StateUnstable, 0, false
		}
		return StateProcessing, count, false

	case StateProcessed:
		if changing {
			return StateUnstable, 0, false
		}
		// a stationary, already-handled document is never reprocessed
		return StateProcessed, count, false
	}
	return StateIdle, 0, false
}
