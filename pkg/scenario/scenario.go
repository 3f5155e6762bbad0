// Package scenario drives scripted conversations through the orchestrator and
// verifies the resulting state against declarative checks.
package scenario

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gupta362/pm-agent-v2/pkg/artifact"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// DefaultMaxTurns bounds a scenario that does not set max_turns.
const DefaultMaxTurns = 10

// ErrInvalidScenario is returned when a scenario document fails validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// ErrUnknownScenario is returned by Builtin for a name that is not embedded.
var ErrUnknownScenario = errors.New("unknown scenario")

// Check kinds.
const (
	KindProbeFiredAny          = "probe_fired_any"
	KindPatternFiredAny        = "pattern_fired_any"
	KindMinProbes              = "min_probes"
	KindMinPatterns            = "min_patterns"
	KindMinAssumptions         = "min_assumptions"
	KindLoadBearingAssumption  = "load_bearing_assumption"
	KindAssumptionTypeAny      = "assumption_type_any"
	KindArtifactGenerated      = "artifact_generated"
	KindArtifactHeader         = "artifact_header"
	KindModeCompleted          = "mode_completed"
	KindSummaryEveryTurn       = "summary_every_turn"
	KindProblemStatementMinLen = "problem_statement_min_len"
	KindMinStakeholders        = "min_stakeholders"
	KindFirstReplyProbing      = "first_reply_probing"
)

//nolint:gochecknoglobals // check vocabulary
var knownKinds = map[string]bool{
	KindProbeFiredAny: true, KindPatternFiredAny: true, KindMinProbes: true, KindMinPatterns: true,
	KindMinAssumptions: true, KindLoadBearingAssumption: true, KindAssumptionTypeAny: true,
	KindArtifactGenerated: true, KindArtifactHeader: true, KindModeCompleted: true,
	KindSummaryEveryTurn: true, KindProblemStatementMinLen: true, KindMinStakeholders: true,
	KindFirstReplyProbing: true,
}

// Check is one declarative assertion over a Result.
type Check struct {
	Name    string   `yaml:"name" json:"name"`
	Kind    string   `yaml:"kind" json:"kind"`
	Any     []string `yaml:"any,omitempty" json:"any,omitempty"`
	Min     int      `yaml:"min,omitempty" json:"min,omitempty"`
	Phrases []string `yaml:"phrases,omitempty" json:"phrases,omitempty"`
	Types   []string `yaml:"types,omitempty" json:"types,omitempty"`
	Header  string   `yaml:"header,omitempty" json:"header,omitempty"`
}

// Scenario is a scripted conversation plus the checks its final state must pass.
type Scenario struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	MaxTurns    int      `yaml:"max_turns,omitempty" json:"max_turns,omitempty"`
	Messages    []string `yaml:"messages" json:"messages"`
	Checks      []Check  `yaml:"checks" json:"checks"`
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads a scenario file.
func Load(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", filename, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sc, nil
}

// Builtins returns the names of the embedded scenarios, sorted.
func Builtins() []string {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns the embedded scenario called name.
func Builtin(name string) (*Scenario, error) {
	data, err := builtinFS.ReadFile(path.Join("builtin", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownScenario, name, strings.Join(Builtins(), ", "))
	}
	return Parse(data)
}

// Resolve loads ref as a file when it exists, otherwise as a builtin name.
func Resolve(ref string) (*Scenario, error) {
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	return Builtin(ref)
}

func (s *Scenario) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if len(s.Messages) == 0 {
		return fmt.Errorf("%w: %s has no messages", ErrInvalidScenario, s.Name)
	}
	for i, m := range s.Messages {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: %s message %d is empty", ErrInvalidScenario, s.Name, i+1)
		}
	}
	if s.MaxTurns < 0 {
		return fmt.Errorf("%w: %s max_turns must not be negative", ErrInvalidScenario, s.Name)
	}
	if s.MaxTurns == 0 {
		s.MaxTurns = DefaultMaxTurns
	}
	for i := range s.Checks {
		c := &s.Checks[i]
		if !knownKinds[c.Kind] {
			return fmt.Errorf("%w: %s check %d has unknown kind %q", ErrInvalidScenario, s.Name, i+1, c.Kind)
		}
		if c.Name == "" {
			c.Name = c.Kind
		}
		switch c.Kind {
		case KindProbeFiredAny, KindPatternFiredAny:
			if len(c.Any) == 0 {
				return fmt.Errorf("%w: %s check %q needs any", ErrInvalidScenario, s.Name, c.Name)
			}
		case KindAssumptionTypeAny:
			if len(c.Types) == 0 {
				return fmt.Errorf("%w: %s check %q needs types", ErrInvalidScenario, s.Name, c.Name)
			}
		case KindArtifactHeader:
			if c.Header == "" {
				c.Header = artifact.Header
			}
		}
	}
	return nil
}
