package lsh

import "fmt"

type OutcomeKind int

const (
	OutcomeSucceeded OutcomeKind = iota
	OutcomeNoMatches
	OutcomeServerError
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeNoMatches:
		return "no_matches"
	case OutcomeServerError:
		return "server_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the interpreted result of one analyze call. Scores and
// ExecutionTime are only meaningful for OutcomeSucceeded, StatusCode for
// OutcomeServerError, Message for the two error kinds.
type Outcome struct {
	Kind          OutcomeKind
	Scores        map[string]float64
	ExecutionTime ExecutionTime
	StatusCode    int
	Message       string
}

func succeeded(scores map[string]float64, execTime ExecutionTime) Outcome {
	return Outcome{Kind: OutcomeSucceeded, Scores: scores, ExecutionTime: execTime}
}

func noMatches() Outcome {
	return Outcome{Kind: OutcomeNoMatches}
}

func serverError(code int) Outcome {
	return Outcome{
		Kind:       OutcomeServerError,
		StatusCode: code,
		Message:    fmt.Sprintf("server returned status %d", code),
	}
}

func transportError(err error) Outcome {
	return Outcome{Kind: OutcomeTransportError, Message: err.Error()}
}
