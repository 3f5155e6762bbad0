// Package mode implements the conversation phase machine and the fixed mode catalog.
//
// A conversation is either gathering (open-ended questioning) or inside exactly one
// structured mode. enter_mode and complete_mode are the only transitions.
package mode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase is the coarse conversation state.
type Phase string

const (
	PhaseGathering Phase = "gathering"
	PhaseInMode    Phase = "in_mode"
)

// ID identifies a structured mode.
type ID string

const (
	DiscoverFrame      ID = "discover_frame"
	EvaluateSolution   ID = "evaluate_solution"
	SurfaceConstraints ID = "surface_constraints"
	SizeValue          ID = "size_value"
	PrioritizeSequence ID = "prioritize_sequence"
)

// Info describes one catalog entry.
type Info struct {
	ID      ID     `json:"id" yaml:"id"`
	Number  int    `json:"number" yaml:"number"`
	Title   string `json:"title" yaml:"title"`
	Purpose string `json:"purpose" yaml:"purpose"`
}

//nolint:gochecknoglobals // fixed, ordered catalog
var catalog = []Info{
	{DiscoverFrame, 1, "Discover & Frame", "Separate the problem from any proposed solution and frame it as a Problem Brief."},
	{EvaluateSolution, 2, "Evaluate Solution", "Test a proposed solution against the framed problem and its alternatives."},
	{SurfaceConstraints, 3, "Surface Constraints", "Make organizational, technical and operational constraints explicit."},
	{SizeValue, 4, "Size & Value", "Size the opportunity and tie it to measurable value."},
	{PrioritizeSequence, 5, "Prioritize & Sequence", "Order the work and define what must be true before each step."},
}

var (
	// ErrInvalidTransition is returned for enter_mode while in a mode or complete_mode while gathering.
	ErrInvalidTransition = errors.New("invalid mode transition")
	// ErrUnknownMode is returned when a mode id does not resolve against the catalog.
	ErrUnknownMode = errors.New("unknown mode")
)

// Catalog returns the ordered mode catalog.
func Catalog() []Info {
	return append([]Info(nil), catalog...)
}

// Lookup resolves a mode by id, number ("1", "mode_1", "Mode 1") or title, case-insensitively.
func Lookup(ref string) (Info, error) {
	key := strings.ToLower(strings.TrimSpace(ref))
	key = strings.NewReplacer("mode ", "", "mode_", "", "mode-", "").Replace(key)
	for _, info := range catalog {
		if key == string(info.ID) || key == strings.ToLower(info.Title) || key == strconv.Itoa(info.Number) {
			return info, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %q", ErrUnknownMode, ref)
}

// Label renders "Mode N: Title" for an id, or the raw id when it is not in the catalog.
func Label(id ID) string {
	info, err := Lookup(string(id))
	if err != nil {
		return string(id)
	}
	return fmt.Sprintf("Mode %d: %s", info.Number, info.Title)
}

// Event is a requested transition.
type Event string

const (
	EventEnter    Event = "enter_mode"
	EventComplete Event = "complete_mode"
)

// validTransitions defines the phase machine.
//
//nolint:gochecknoglobals // state machine definition
var validTransitions = map[Phase]map[Event]Phase{
	PhaseGathering: {EventEnter: PhaseInMode},
	PhaseInMode:    {EventComplete: PhaseGathering},
}

// TransitionError explains a rejected transition. It matches ErrInvalidTransition.
type TransitionError struct {
	Event  Event
	Phase  Phase
	Active ID
}

func (e *TransitionError) Error() string {
	switch {
	case e.Event == EventEnter && e.Phase == PhaseInMode:
		return fmt.Sprintf("%v: cannot enter a mode while %s is active; call complete_mode first", ErrInvalidTransition, Label(e.Active))
	case e.Event == EventComplete && e.Phase == PhaseGathering:
		return fmt.Sprintf("%v: no mode is active; complete_mode is only valid inside a mode", ErrInvalidTransition)
	default:
		return fmt.Sprintf("%v: %s not allowed in phase %s", ErrInvalidTransition, e.Event, e.Phase)
	}
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// IsValidTransition reports whether event is allowed from phase.
func IsValidTransition(from Phase, event Event) bool {
	_, ok := validTransitions[from][event]
	return ok
}

// Machine tracks phase and active mode. The zero value is a machine in gathering.
// Phase is derived from the active mode, so a non-empty active mode and
// PhaseInMode always coincide.
type Machine struct {
	active    ID
	completed []ID
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	if m.active == "" {
		return PhaseGathering
	}
	return PhaseInMode
}

// Active returns the active mode, or "" while gathering.
func (m *Machine) Active() ID {
	return m.active
}

// Completed returns the modes completed so far, oldest first.
func (m *Machine) Completed() []ID {
	return append([]ID(nil), m.completed...)
}

// Enter moves gathering -> in_mode. The machine is unchanged on error.
func (m *Machine) Enter(ref string) (Info, error) {
	if !IsValidTransition(m.Phase(), EventEnter) {
		return Info{}, &TransitionError{Event: EventEnter, Phase: m.Phase(), Active: m.active}
	}
	info, err := Lookup(ref)
	if err != nil {
		return Info{}, err
	}
	m.active = info.ID
	return info, nil
}

// Complete moves in_mode -> gathering and returns the mode that was active.
func (m *Machine) Complete() (ID, error) {
	if !IsValidTransition(m.Phase(), EventComplete) {
		return "", &TransitionError{Event: EventComplete, Phase: m.Phase()}
	}
	done := m.active
	m.active = ""
	m.completed = append(m.completed, done)
	return done, nil
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.active = ""
	m.completed = nil
}
