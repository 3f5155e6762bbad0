package scenario

import (
	"context"
	"time"

	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/mode"
	"github.com/gupta362/pm-agent-v2/pkg/routing"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/skeleton"
)

// AutoResponses are sent, in order, once the scripted messages run out.
//
//nolint:gochecknoglobals // fixed cooperative script
var AutoResponses = []string{
	"That's a good question. We haven't validated that directly. It's based on internal team observations. What else do you need to know?",
	"Good point. Let me think about that. The main stakeholders would be the team leads and our VP of Product. We haven't had formal conversations about this with all of them.",
	"You're right to push on that. We don't have hard data yet. The timeline pressure is coming from our quarterly planning cycle. We need a recommendation by end of month.",
	"I think you have enough context now. Can you generate the problem brief?",
	"Yes, that looks right. Please finalize it.",
}

// FinalPrompt is repeated after the auto-responses are exhausted.
const FinalPrompt = "Please generate the problem brief now."

// TurnRunner runs one conversation turn. *orchestrator.Orchestrator implements it.
type TurnRunner interface {
	RunTurn(ctx context.Context, st *session.State, userMessage string) (string, error)
}

// Turn is what one scripted exchange produced.
type Turn struct {
	Number         int              `json:"turn"`
	User           string           `json:"user"`
	Reply          string           `json:"reply"`
	Elapsed        time.Duration    `json:"elapsed"`
	Phase          mode.Phase       `json:"phase"`
	ActiveMode     mode.ID          `json:"active_mode,omitempty"`
	Routing        routing.Decision `json:"routing_decision"`
	Summary        string           `json:"summary,omitempty"`
	SummaryUpdated bool             `json:"summary_updated"`
	Error          string           `json:"error,omitempty"`
}

// Result is the captured run of one scenario.
type Result struct {
	Scenario          string                  `json:"scenario"`
	SessionID         string                  `json:"session_id"`
	Turns             []Turn                  `json:"turns"`
	ProbesFired       []session.FiredRecord   `json:"probes_fired"`
	PatternsFired     []session.FiredRecord   `json:"patterns_fired"`
	Assumptions       []assumption.Assumption `json:"assumptions"`
	FinalPhase        mode.Phase              `json:"final_phase"`
	FinalActiveMode   mode.ID                 `json:"final_active_mode,omitempty"`
	CompletedModes    []mode.ID               `json:"completed_modes"`
	ModeCompleted     bool                    `json:"mode_completed"`
	ArtifactGenerated bool                    `json:"artifact_generated"`
	ArtifactContent   string                  `json:"artifact_content,omitempty"`
	Skeleton          skeleton.Skeleton       `json:"skeleton"`
	Errors            []string                `json:"errors,omitempty"`
	Duration          time.Duration           `json:"duration"`
}

// SummaryUpdates counts the turns that refreshed the conversation summary.
func (r *Result) SummaryUpdates() int {
	n := 0
	for i := range r.Turns {
		if r.Turns[i].SummaryUpdated {
			n++
		}
	}
	return n
}

// Runner plays scenarios against a TurnRunner, one fresh session per scenario.
type Runner struct {
	turns  TurnRunner
	logger *logx.Logger
}

// NewRunner creates a runner around turns.
func NewRunner(turns TurnRunner, logger *logx.Logger) *Runner {
	if logger == nil {
		logger = logx.NewLogger("scenario")
	}
	return &Runner{turns: turns, logger: logger}
}

// messageFor returns the user message for the zero-based turn index.
func messageFor(sc *Scenario, i int) string {
	if i < len(sc.Messages) {
		return sc.Messages[i]
	}
	if j := i - len(sc.Messages); j < len(AutoResponses) {
		return AutoResponses[j]
	}
	return FinalPrompt
}

// Run plays sc until a mode was completed and a brief generated, the turn
// limit is reached or ctx is done. Turn errors are recorded and the run goes on.
func (r *Runner) Run(ctx context.Context, sc *Scenario) *Result {
	st := session.New()
	res := &Result{Scenario: sc.Name, SessionID: st.ID}
	start := time.Now()

	maxTurns := sc.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	for i := 0; i < maxTurns; i++ {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, err.Error())
			break
		}
		msg := messageFor(sc, i)
		r.logger.Info("🎬 [%s] turn %d: %s", sc.Name, i+1, truncate(msg, 80))

		turnStart := time.Now()
		reply, err := r.turns.RunTurn(ctx, st, msg)
		turn := Turn{
			Number:         i + 1,
			User:           msg,
			Reply:          reply,
			Elapsed:        time.Since(turnStart),
			Phase:          st.Phase(),
			ActiveMode:     st.ActiveMode(),
			Routing:        st.Routing.LastRoutingDecision,
			Summary:        st.Routing.ConversationSummary,
			SummaryUpdated: st.Routing.ConversationSummary != "" && st.Routing.SummaryTurn == st.TurnCount && err == nil,
		}
		if err != nil {
			turn.Error = err.Error()
			res.Errors = append(res.Errors, err.Error())
			r.logger.Warn("[%s] turn %d failed: %v", sc.Name, i+1, err)
		}
		res.Turns = append(res.Turns, turn)

		if st.LatestArtifact != nil && !res.ArtifactGenerated {
			res.ArtifactGenerated = true
		}
		if len(st.Mode.Completed()) > 0 {
			res.ModeCompleted = true
		}
		if res.ModeCompleted && res.ArtifactGenerated {
			r.logger.Info("🏁 [%s] mode completed and brief generated after %d turns", sc.Name, i+1)
			break
		}
	}

	capture(res, st)
	res.Duration = time.Since(start)
	return res
}

func capture(res *Result, st *session.State) {
	res.ProbesFired = st.Routing.ProbesFired.Records()
	res.PatternsFired = st.Routing.PatternsFired.Records()
	res.Assumptions = st.Assumptions.List()
	res.FinalPhase = st.Phase()
	res.FinalActiveMode = st.ActiveMode()
	res.CompletedModes = st.Mode.Completed()
	res.Skeleton = st.Skeleton.Snapshot()
	if st.LatestArtifact != nil {
		res.ArtifactContent = st.LatestArtifact.Content
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
