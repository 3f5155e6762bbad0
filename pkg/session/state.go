// Package session holds the per-conversation state the orchestrator mutates turn by turn.
//
// A State has no internal locking: one conversation runs one turn at a time.
package session

import (
	"github.com/google/uuid"

	"github.com/gupta362/pm-agent-v2/pkg/artifact"
	"github.com/gupta362/pm-agent-v2/pkg/assumption"
	"github.com/gupta362/pm-agent-v2/pkg/mode"
	"github.com/gupta362/pm-agent-v2/pkg/routing"
	"github.com/gupta362/pm-agent-v2/pkg/skeleton"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// RoutingContext tracks what has been diagnosed so far.
type RoutingContext struct {
	ProbesFired         FiredSet
	PatternsFired       FiredSet
	LastRoutingDecision routing.Decision
	ConversationSummary string
	SummaryTurn         int
}

// State is the full conversation state.
type State struct {
	ID               string
	Mode             mode.Machine
	TurnCount        int
	Messages         []Message
	Routing          RoutingContext
	PendingQuestions []Question
	Assumptions      *assumption.Register
	Skeleton         *skeleton.Skeleton
	LatestArtifact   *artifact.Artifact
}

// New returns a fresh conversation in the gathering phase.
func New() *State {
	return &State{
		ID:          uuid.NewString(),
		Assumptions: assumption.NewRegister(),
		Skeleton:    skeleton.New(),
	}
}

// Reset clears everything and issues a new session id.
func (s *State) Reset() {
	*s = *New()
}

// Phase returns the current conversation phase.
func (s *State) Phase() mode.Phase {
	return s.Mode.Phase()
}

// ActiveMode returns the mode in progress, empty while gathering.
func (s *State) ActiveMode() mode.ID {
	return s.Mode.Active()
}

// CurrentTurn is the number of the turn in progress.
func (s *State) CurrentTurn() int {
	return s.TurnCount + 1
}

// AppendMessage adds a transcript entry.
func (s *State) AppendMessage(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// UserMessages returns the content of all user messages in order.
func (s *State) UserMessages() []string {
	var out []string
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

// Signals builds the detector input from the current state.
func (s *State) Signals() routing.Signals {
	return routing.Signals{
		UserMessages:  s.UserMessages(),
		ProbesFired:   s.Routing.ProbesFired.IDs(),
		PatternsFired: s.Routing.PatternsFired.IDs(),
		Phase:         s.Phase(),
		ProblemReady:  s.Skeleton.ProblemReady(),
	}
}

// ArtifactInput snapshots the state for rendering a brief stamped with the turn in progress.
func (s *State) ArtifactInput() artifact.Input {
	return artifact.Input{
		Skeleton:    s.Skeleton.Snapshot(),
		Assumptions: s.Assumptions.List(),
		Probes:      s.Routing.ProbesFired.Names(),
		Patterns:    s.Routing.PatternsFired.Names(),
		Turn:        s.CurrentTurn(),
	}
}
