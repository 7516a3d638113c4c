package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateListening State = "listening"
)

const (
	EventStart   Event = "start"
	EventStarted Event = "started"
	EventStop    Event = "stop"
	EventEnd     Event = "end"
	EventFail    Event = "fail"
)

// Transition returns the state reached from current on event. Failures and
// engine-reported ends always settle in idle.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateStarting, StateListening:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}

	if event == EventFail || event == EventEnd {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStarting:
		switch event {
		case EventStarted:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		switch event {
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	}
}

// Listening reports whether s counts as actively listening.
func (s State) Listening() bool {
	return s == StateListening
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
