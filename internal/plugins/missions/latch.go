package missions

import "time"

// LatchState is the rotation latch position.
type LatchState int

const (
	// Armed means the next expiry will fire.
	Armed LatchState = iota
	// Fired means an expiry already fired and the countdown has not
	// become positive again since.
	Fired
)

func (s LatchState) String() string {
	if s == Fired {
		return "fired"
	}
	return "armed"
}

// Latch turns a countdown that sits at zero into exactly one trigger per
// expiry. It re-arms once the countdown is observed positive again.
type Latch struct {
	state LatchState
}

// State returns the current position.
func (l *Latch) State() LatchState {
	return l.state
}

// Observe feeds the latest countdown. started must be false until the
// first rotation timestamp is known; an unstarted countdown never fires.
// Returns true exactly when a rotation should run.
func (l *Latch) Observe(timeLeft time.Duration, started bool) bool {
	if timeLeft <= 0 && started && l.state == Armed {
		l.state = Fired
		return true
	}
	if timeLeft > 0 && l.state == Fired {
		l.state = Armed
	}
	return false
}
