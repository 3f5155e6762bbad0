// Package orchestrator runs one conversation turn: it snapshots the session into a
// system prompt, drives the tool exchange with the reasoning service, applies the
// requested operations to the session and returns the reply.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gupta362/pm-agent-v2/pkg/agent/llm"
	"github.com/gupta362/pm-agent-v2/pkg/agent/toolloop"
	"github.com/gupta362/pm-agent-v2/pkg/config"
	"github.com/gupta362/pm-agent-v2/pkg/contextmgr"
	"github.com/gupta362/pm-agent-v2/pkg/logx"
	"github.com/gupta362/pm-agent-v2/pkg/operations"
	"github.com/gupta362/pm-agent-v2/pkg/routing"
	"github.com/gupta362/pm-agent-v2/pkg/session"
	"github.com/gupta362/pm-agent-v2/pkg/templates"
	"github.com/gupta362/pm-agent-v2/pkg/utils"
)

// budgetWarnFraction is the share of the context window above which prompts are logged as warnings.
const budgetWarnFraction = 0.8

// Orchestrator holds no per-conversation state; one instance can serve many sessions.
type Orchestrator struct {
	client   llm.LLMClient
	cfg      config.OrchestratorConfig
	catalog  *routing.Catalog
	detector *routing.Detector
	renderer *templates.Renderer
	counter  *utils.TokenCounter
	recorder TurnRecorder
	observer Observer
	logger   *logx.Logger
	context  string
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig overrides the orchestrator settings. Zero values fall back to defaults.
func WithConfig(cfg config.OrchestratorConfig) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithCatalog replaces the embedded probe/pattern catalog.
func WithCatalog(cat *routing.Catalog) Option {
	return func(o *Orchestrator) { o.catalog = cat }
}

// WithTurnRecorder sends a TurnRecord to r after every turn.
func WithTurnRecorder(r TurnRecorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithObserver reports turn and operation metrics to obs.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// WithLogger sets the logger.
func WithLogger(l *logx.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithProjectContext adds organization background to every system prompt.
func WithProjectContext(text string) Option {
	return func(o *Orchestrator) { o.context = text }
}

// New creates an orchestrator around client.
func New(client llm.LLMClient, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	o := &Orchestrator{
		client:   client,
		cfg:      *config.Default().Orchestrator,
		observer: nopObserver{},
		logger:   logx.NewLogger("orchestrator"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.catalog == nil {
		cat, err := routing.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("load routing catalog: %w", err)
		}
		o.catalog = cat
	}
	o.detector = routing.NewDetector(o.catalog)

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}
	o.renderer = renderer

	if o.cfg.MaxRounds <= 0 {
		o.cfg.MaxRounds = config.DefaultMaxRounds
	}
	if counter, err := utils.NewTokenCounter(client.GetModelName()); err == nil {
		o.counter = counter
	} else {
		o.logger.Warn("token counter unavailable, estimating by length: %v", err)
	}
	return o, nil
}

// Catalog returns the probe/pattern catalog in use.
func (o *Orchestrator) Catalog() *routing.Catalog {
	return o.catalog
}

// RunTurn processes one user message against st.
//
// On success the reply is appended to history, TurnCount advances and the reply's
// numbered questions become st.PendingQuestions. When the round limit is hit the
// apology reply is handled the same way and ErrRoutingExhausted is returned with it.
// When the reasoning service fails, ErrServiceUnavailable is returned, the user
// message stays in history, and TurnCount, PendingQuestions and the routing
// decision are unchanged. Operations applied before a
// failure are kept.
func (o *Orchestrator) RunTurn(ctx context.Context, st *session.State, userMessage string) (string, error) {
	if st == nil {
		return "", fmt.Errorf("session state is required")
	}
	if strings.TrimSpace(userMessage) == "" {
		return "", ErrEmptyMessage
	}

	turn := st.CurrentTurn()
	st.AppendMessage(session.RoleUser, userMessage)

	prevDecision := st.Routing.LastRoutingDecision
	decision := o.detector.Recommend(st.Signals())
	st.Routing.LastRoutingDecision = decision
	if decision.Primary != "" {
		o.logger.Info("🧭 Turn %d routing: primary=%s probes=%d patterns=%d deferred=%d",
			turn, decision.Primary, len(decision.Probes), len(decision.Patterns), len(decision.Deferred))
	}

	registry, err := operations.NewRegistry(st, o.catalog)
	if err != nil {
		return "", fmt.Errorf("build operation registry: %w", err)
	}
	data := promptData(st, o.catalog, decision, registry.GenerateToolDocumentation())
	data.ProjectContext = o.context
	system, err := o.renderer.Render(templates.SystemPromptTemplate, data)
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}

	cm := contextmgr.NewContextManagerWithCounter(o.counter)
	if err := seedHistory(cm, st.Messages); err != nil {
		return "", err
	}
	o.logBudget(turn, system, st.Messages)

	rec := &TurnRecord{
		SessionID:   st.ID,
		Model:       o.client.GetModelName(),
		Turn:        turn,
		UserMessage: userMessage,
		At:          o.now(),
	}
	artifactGenerated := false

	loop := toolloop.New(o.client, o.logger)
	out := loop.Run(ctx, &toolloop.Config{
		ContextManager: cm,
		ToolProvider:   registry,
		SystemPrompt:   system,
		MaxIterations:  o.cfg.MaxRounds,
		MaxTokens:      o.cfg.MaxTokens,
		Temperature:    o.cfg.Temperature,
		DebugLogging:   o.cfg.DebugMessages,
		OnToolResult: func(ev toolloop.ToolEvent) {
			op := o.observeOperation(ev)
			rec.Operations = append(rec.Operations, op)
			if op.Name == operations.GenerateArtifact && !op.IsError {
				artifactGenerated = true
			}
		},
	})
	rec.Rounds = out.Iteration

	reply, outcome, turnErr := classify(out)
	rec.Outcome = outcome

	if counted(outcome) {
		st.AppendMessage(session.RoleAssistant, reply)
		st.TurnCount++
		st.PendingQuestions = session.ExtractQuestions(reply)
	} else {
		// Failed turns leave the previous turn's questions and routing decision in place.
		st.Routing.LastRoutingDecision = prevDecision
	}

	rec.Reply = reply
	rec.Phase = string(st.Phase())
	rec.ActiveMode = string(st.ActiveMode())
	if artifactGenerated && st.LatestArtifact != nil {
		rec.Artifact = st.LatestArtifact.Content
	}

	o.observer.ObserveTurn(rec.Outcome, out.Iteration)
	o.record(ctx, rec)

	o.logger.Info("💬 Turn %d %s: %d rounds, %d operations, phase=%s", turn, rec.Outcome, out.Iteration, out.ToolCalls, rec.Phase)
	return reply, turnErr
}

// classify maps a tool loop outcome to the reply, the turn outcome label and the
// error returned from RunTurn.
func classify(out toolloop.Outcome) (string, string, error) {
	switch out.Kind {
	case toolloop.OutcomeSuccess:
		return out.Content, OutcomeSuccess, nil
	case toolloop.OutcomeIterationLimit:
		return ApologyReply, OutcomeRoutingExhausted,
			fmt.Errorf("%w after %d rounds: %w", ErrRoutingExhausted, out.Iteration, out.Err)
	case toolloop.OutcomeLLMError:
		return "", OutcomeServiceUnavailable, fmt.Errorf("%w: %w", ErrServiceUnavailable, out.Err)
	default:
		return "", OutcomeInternalError, fmt.Errorf("tool loop %s: %w", out.Kind, out.Err)
	}
}

// counted reports whether a turn with this outcome advances the conversation.
func counted(outcome string) bool {
	return outcome == OutcomeSuccess || outcome == OutcomeRoutingExhausted
}

// seedHistory replays the conversation as alternating user and assistant messages.
// Consecutive user messages, left by failed turns, are merged into one.
func seedHistory(cm *contextmgr.ContextManager, history []session.Message) error {
	for _, m := range history {
		if m.Role == session.RoleUser {
			cm.AddMessage(contextmgr.RoleUser, m.Content)
			continue
		}
		if err := cm.FlushUserBuffer(); err != nil {
			return fmt.Errorf("replay history: %w", err)
		}
		cm.AddAssistantMessage(m.Content)
	}
	return nil
}

func (o *Orchestrator) observeOperation(ev toolloop.ToolEvent) OperationRecord {
	op := OperationRecord{
		Seq:       ev.Seq,
		Round:     ev.Iteration,
		Name:      ev.Call.Name,
		Arguments: ev.Call.Parameters,
	}
	if ev.Err != nil {
		op.IsError = true
		op.Result = "Error: " + ev.Err.Error()
	} else if ev.Result != nil {
		op.Result = ev.Result.Content
	}
	o.observer.ObserveOperation(op.Name, op.IsError)

	if op.IsError || ev.Result == nil {
		return op
	}
	if !utils.GetMapFieldOr(ev.Result.Data, operations.DataChanged, false) {
		return op
	}
	id := utils.GetMapFieldOr(ev.Result.Data, operations.DataID, "")
	switch op.Name {
	case operations.RecordProbeFired:
		o.observer.ProbeFired(id)
	case operations.RecordPatternFired:
		o.observer.PatternFired(id)
	}
	return op
}

func (o *Orchestrator) logBudget(turn int, system string, history []session.Message) {
	texts := make([]string, 0, len(history)+1)
	texts = append(texts, system)
	for _, m := range history {
		texts = append(texts, m.Content)
	}
	used, fraction := o.counter.Budget(texts...)
	if fraction >= budgetWarnFraction {
		o.logger.Warn("⚠️  Turn %d prompt is ~%d tokens (%.0f%% of the context window)", turn, used, fraction*100)
		return
	}
	o.logger.Debug("📏 Turn %d prompt is ~%d tokens (%.0f%% of the context window)", turn, used, fraction*100)
}

func (o *Orchestrator) record(ctx context.Context, rec *TurnRecord) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordTurn(ctx, rec); err != nil {
		o.logger.Warn("failed to record turn %d: %v", rec.Turn, err)
	}
}
