package submit

import (
	"time"

	"github.com/google/uuid"
	"github.com/mgomes/plagdrop/internal/lsh"
	"github.com/mgomes/plagdrop/internal/rank"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseNoMatches
	PhaseServerError
	PhaseTransportError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseNoMatches:
		return "no_matches"
	case PhaseServerError:
		return "server_error"
	case PhaseTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

func (p Phase) Terminal() bool {
	return p >= PhaseSucceeded
}

// Ticket identifies one analyze request and carries the text it was started
// with.
type Ticket struct {
	Token     uuid.UUID
	Text      string
	StartedAt time.Time
}

// Controller owns the analyze state. It is not safe for concurrent use; the
// UI event loop is its only caller.
type Controller struct {
	phase  Phase
	active Ticket

	results       []rank.Result
	executionTime lsh.ExecutionTime
	statusCode    int
	message       string

	// submitted is the text of the most recent Succeeded submission.
	submitted string

	now func() time.Time
}

func NewController() *Controller {
	return &Controller{now: time.Now}
}

// Begin starts a new submission, superseding any in flight. Results and
// execution time are cleared right away.
func (c *Controller) Begin(text string) Ticket {
	c.active = Ticket{
		Token:     uuid.New(),
		Text:      text,
		StartedAt: c.now(),
	}
	c.phase = PhaseSubmitting
	c.results = nil
	c.executionTime = lsh.ExecutionTime{}
	c.statusCode = 0
	c.message = ""
	return c.active
}

// Complete applies an outcome if token belongs to the active submission and
// reports whether it did. Outcomes for superseded submissions are dropped.
func (c *Controller) Complete(token uuid.UUID, out lsh.Outcome) bool {
	if c.phase != PhaseSubmitting || token != c.active.Token {
		return false
	}

	switch out.Kind {
	case lsh.OutcomeSucceeded:
		c.phase = PhaseSucceeded
		c.results = rank.Rank(out.Scores)
		c.executionTime = out.ExecutionTime
		c.submitted = c.active.Text
	case lsh.OutcomeNoMatches:
		c.phase = PhaseNoMatches
	case lsh.OutcomeServerError:
		c.phase = PhaseServerError
		c.statusCode = out.StatusCode
		c.message = out.Message
	default:
		c.phase = PhaseTransportError
		c.message = out.Message
	}
	return true
}

// Acknowledge returns a terminal phase to idle. Displayed results stay.
func (c *Controller) Acknowledge() {
	if c.phase.Terminal() {
		c.phase = PhaseIdle
	}
}

func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) Busy() bool {
	return c.phase == PhaseSubmitting
}

func (c *Controller) Active() Ticket {
	return c.active
}

func (c *Controller) Results() []rank.Result {
	return c.results
}

func (c *Controller) ExecutionTime() lsh.ExecutionTime {
	return c.executionTime
}

func (c *Controller) StatusCode() int {
	return c.statusCode
}

func (c *Controller) Message() string {
	return c.message
}

// SubmittedText is the text captured at the last successful submission.
func (c *Controller) SubmittedText() string {
	return c.submitted
}
