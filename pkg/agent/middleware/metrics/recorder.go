// Package metrics provides metrics middleware for LLM clients.
package metrics

import "time"

// Recorder receives one observation per completed LLM call.
type Recorder interface {
	ObserveRequest(
		model string,
		promptTokens, completionTokens int,
		cost float64,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// Nop discards all observations.
type Nop struct{}

// ObserveRequest implements Recorder.
func (Nop) ObserveRequest(string, int, int, float64, bool, string, time.Duration) {}

// multi fans observations out to several recorders.
type multi []Recorder

func (m multi) ObserveRequest(
	model string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	errorType string,
	duration time.Duration,
) {
	for _, r := range m {
		r.ObserveRequest(model, promptTokens, completionTokens, cost, success, errorType, duration)
	}
}

// Multi combines recorders. Nil entries are skipped.
func Multi(recorders ...Recorder) Recorder {
	out := make(multi, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return Nop{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
