package docintel

import "strings"

// State of one analysis operation.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimeout   State = "timeout"
)

// machine counts polls and moves between states on each observed status.
type machine struct {
	state       State
	attempts    int
	maxAttempts int
}

func newMachine(maxAttempts int) *machine {
	return &machine{state: StateSubmitted, maxAttempts: maxAttempts}
}

// observe records one poll result. Unknown and in-progress statuses
// ("notStarted", "running") keep polling until the budget is spent.
func (m *machine) observe(status string) {
	if m.state != StatePolling {
		return
	}
	m.attempts++
	switch strings.ToLower(status) {
	case "succeeded":
		m.state = StateSucceeded
	case "failed", "canceled":
		m.state = StateFailed
	default:
		if m.attempts >= m.maxAttempts {
			m.state = StateTimeout
		}
	}
}
