package metrics

import (
	"sort"
	"sync"
	"time"
)

// UsageRecorder aggregates token usage and cost per model in memory.
// The chat command reads it for /status without a Prometheus server.
type UsageRecorder struct {
	models map[string]*ModelUsage
	mu     sync.RWMutex
}

// ModelUsage represents aggregated usage for one model.
//
//nolint:govet
type ModelUsage struct {
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	RequestCount     int64     `json:"request_count"`
	FailedCount      int64     `json:"failed_count"`
	TotalCost        float64   `json:"total_cost_usd"`
	Model            string    `json:"model"`
	LastUpdated      time.Time `json:"last_updated"`
}

// NewUsageRecorder creates an empty recorder.
func NewUsageRecorder() *UsageRecorder {
	return &UsageRecorder{models: make(map[string]*ModelUsage)}
}

// ObserveRequest implements Recorder.
func (r *UsageRecorder) ObserveRequest(
	model string,
	promptTokens, completionTokens int,
	cost float64,
	success bool,
	_ string,
	_ time.Duration,
) {
	r.mu.Lock()
	defer r.mu.Unlock()

	usage, exists := r.models[model]
	if !exists {
		usage = &ModelUsage{Model: model}
		r.models[model] = usage
	}

	usage.RequestCount++
	usage.LastUpdated = time.Now()
	if !success {
		usage.FailedCount++
		return
	}
	usage.PromptTokens += int64(promptTokens)
	usage.CompletionTokens += int64(completionTokens)
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	usage.TotalCost += cost
}

// Model returns a copy of the usage for model, or nil.
func (r *UsageRecorder) Model(model string) *ModelUsage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if usage, exists := r.models[model]; exists {
		cp := *usage
		return &cp
	}
	return nil
}

// All returns copies of every model's usage ordered by model name.
func (r *UsageRecorder) All() []ModelUsage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModelUsage, 0, len(r.models))
	for _, usage := range r.models {
		out = append(out, *usage)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Reset clears all usage.
func (r *UsageRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = make(map[string]*ModelUsage)
}
