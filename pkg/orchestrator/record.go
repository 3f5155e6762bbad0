package orchestrator

import (
	"context"
	"time"
)

// Outcome labels shared by metrics and the transcript log.
const (
	OutcomeSuccess            = "success"
	OutcomeRoutingExhausted   = "routing_exhausted"
	OutcomeServiceUnavailable = "service_unavailable"
	// OutcomeInternalError marks a turn the tool loop refused to run. It is not
	// a reasoning-service failure and does not wrap ErrServiceUnavailable.
	OutcomeInternalError = "internal_error"
)

// OperationRecord is one executed operation within a turn.
type OperationRecord struct {
	Seq       int
	Round     int
	Name      string
	Arguments map[string]any
	Result    string
	IsError   bool
}

// TurnRecord summarizes a finished turn for audit output.
//
//nolint:govet // fieldalignment: grouped by meaning
type TurnRecord struct {
	SessionID   string
	Model       string
	Turn        int
	UserMessage string
	Reply       string
	Outcome     string
	Rounds      int
	Phase       string
	ActiveMode  string
	Operations  []OperationRecord
	Artifact    string // Brief content when generate_artifact ran this turn
	At          time.Time
}

// TurnRecorder receives one record per RunTurn call.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, rec *TurnRecord) error
}

// Observer receives metric events. pkg/metrics.Collector implements it.
type Observer interface {
	ObserveTurn(outcome string, rounds int)
	ObserveOperation(name string, isError bool)
	ProbeFired(id string)
	PatternFired(id string)
}

type nopObserver struct{}

func (nopObserver) ObserveTurn(string, int)        {}
func (nopObserver) ObserveOperation(string, bool) {}
func (nopObserver) ProbeFired(string)             {}
func (nopObserver) PatternFired(string)           {}
