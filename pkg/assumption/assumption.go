// Package assumption implements the register of unvalidated claims surfaced in a conversation.
package assumption

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type classifies what an assumption is about.
type Type string

const (
	TypeTechnical      Type = "technical"
	TypeOrganizational Type = "organizational"
	TypeValue          Type = "value"
	TypeMarket         Type = "market"
	TypeOther          Type = "other"
)

// Impact is how much the brief depends on the claim.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Confidence is how well the claim is supported.
type Confidence string

const (
	ConfidenceGuessed   Confidence = "guessed"
	ConfidencePartial   Confidence = "partial"
	ConfidenceValidated Confidence = "validated"
)

// Status tracks whether the claim still needs work.
type Status string

const (
	StatusOpen     Status = "open"
	StatusResolved Status = "resolved"
)

var (
	// ErrUnknownAssumption is returned by Update for an id that was never registered.
	ErrUnknownAssumption = errors.New("unknown assumption")
	// ErrInvalidField is returned for empty claims and out-of-vocabulary enum values.
	ErrInvalidField = errors.New("invalid assumption field")
)

//nolint:gochecknoglobals // enum vocabularies
var (
	validTypes       = []string{string(TypeTechnical), string(TypeOrganizational), string(TypeValue), string(TypeMarket), string(TypeOther)}
	validImpacts     = []string{string(ImpactHigh), string(ImpactMedium), string(ImpactLow)}
	validConfidences = []string{string(ConfidenceGuessed), string(ConfidencePartial), string(ConfidenceValidated)}
	validStatuses    = []string{string(StatusOpen), string(StatusResolved)}
)

// Types, Impacts, Confidences and Statuses list the accepted enum values (used in tool schemas).
func Types() []string       { return append([]string(nil), validTypes...) }
func Impacts() []string     { return append([]string(nil), validImpacts...) }
func Confidences() []string { return append([]string(nil), validConfidences...) }
func Statuses() []string    { return append([]string(nil), validStatuses...) }

func normalize(field, value string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s %q (want one of %s)", ErrInvalidField, field, value, strings.Join(allowed, ", "))
}

// Assumption is one registered claim.
type Assumption struct {
	ID                string     `json:"id"`
	Claim             string     `json:"claim"`
	Type              Type       `json:"type"`
	Impact            Impact     `json:"impact"`
	Confidence        Confidence `json:"confidence"`
	Status            Status     `json:"status"`
	Basis             string     `json:"basis"`
	RecommendedAction string     `json:"recommended_action"`
	CreatedTurn       int        `json:"created_turn"`
	UpdatedTurn       int        `json:"updated_turn"`
}

// LoadBearing reports whether the claim is high impact and only guessed.
func (a Assumption) LoadBearing() bool {
	return a.Impact == ImpactHigh && a.Confidence == ConfidenceGuessed
}

// Input holds the fields of a new assumption. Enum fields are validated case-insensitively.
type Input struct {
	Claim             string
	Type              string
	Impact            string
	Confidence        string
	Basis             string
	RecommendedAction string
	Turn              int
}

// Patch updates selected fields. Nil fields are left unchanged.
type Patch struct {
	Claim             *string
	Impact            *string
	Confidence        *string
	Status            *string
	Basis             *string
	RecommendedAction *string
	Turn              int
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Claim == nil && p.Impact == nil && p.Confidence == nil && p.Status == nil &&
		p.Basis == nil && p.RecommendedAction == nil
}

// Register stores assumptions by stable id. Ids are A1, A2, ... and never reused.
// Entries are never deleted.
type Register struct {
	items  map[string]*Assumption
	nextID int
}

// NewRegister returns an empty register.
func NewRegister() *Register {
	return &Register{items: make(map[string]*Assumption), nextID: 1}
}

// Register validates in and stores a new open assumption.
// No id is consumed when validation fails.
func (r *Register) Register(in Input) (Assumption, error) {
	claim := strings.TrimSpace(in.Claim)
	if claim == "" {
		return Assumption{}, fmt.Errorf("%w: claim must not be empty", ErrInvalidField)
	}
	typ, err := normalize("type", in.Type, validTypes)
	if err != nil {
		return Assumption{}, err
	}
	impact, err := normalize("impact", in.Impact, validImpacts)
	if err != nil {
		return Assumption{}, err
	}
	confidence, err := normalize("confidence", in.Confidence, validConfidences)
	if err != nil {
		return Assumption{}, err
	}

	a := &Assumption{
		ID:                "A" + strconv.Itoa(r.nextID),
		Claim:             claim,
		Type:              Type(typ),
		Impact:            Impact(impact),
		Confidence:        Confidence(confidence),
		Status:            StatusOpen,
		Basis:             strings.TrimSpace(in.Basis),
		RecommendedAction: strings.TrimSpace(in.RecommendedAction),
		CreatedTurn:       in.Turn,
		UpdatedTurn:       in.Turn,
	}
	r.nextID++
	r.items[a.ID] = a
	return *a, nil
}

// Update applies p to the assumption with the given id.
// The assumption is unchanged when any field fails validation.
func (r *Register) Update(id string, p Patch) (Assumption, error) {
	a, ok := r.items[canonicalID(id)]
	if !ok {
		return Assumption{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownAssumption, id, strings.Join(r.IDs(), ", "))
	}

	updated := *a
	if p.Claim != nil {
		claim := strings.TrimSpace(*p.Claim)
		if claim == "" {
			return Assumption{}, fmt.Errorf("%w: claim must not be empty", ErrInvalidField)
		}
		updated.Claim = claim
	}
	if p.Impact != nil {
		v, err := normalize("impact", *p.Impact, validImpacts)
		if err != nil {
			return Assumption{}, err
		}
		updated.Impact = Impact(v)
	}
	if p.Confidence != nil {
		v, err := normalize("confidence", *p.Confidence, validConfidences)
		if err != nil {
			return Assumption{}, err
		}
		updated.Confidence = Confidence(v)
	}
	if p.Status != nil {
		v, err := normalize("status", *p.Status, validStatuses)
		if err != nil {
			return Assumption{}, err
		}
		updated.Status = Status(v)
	}
	if p.Basis != nil {
		updated.Basis = strings.TrimSpace(*p.Basis)
	}
	if p.RecommendedAction != nil {
		updated.RecommendedAction = strings.TrimSpace(*p.RecommendedAction)
	}
	if p.Turn > 0 {
		updated.UpdatedTurn = p.Turn
	}

	*a = updated
	return updated, nil
}

// canonicalID accepts "a3" and " A3 " for "A3".
func canonicalID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Get returns a copy of the assumption with the given id.
func (r *Register) Get(id string) (Assumption, bool) {
	a, ok := r.items[canonicalID(id)]
	if !ok {
		return Assumption{}, false
	}
	return *a, true
}

// Len returns the number of registered assumptions.
func (r *Register) Len() int {
	return len(r.items)
}

func idNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "A"))
	if err != nil {
		return 0
	}
	return n
}

// IDs returns all ids in numeric order.
func (r *Register) IDs() []string {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return idNumber(ids[i]) < idNumber(ids[j]) })
	return ids
}

// List returns copies of all assumptions in id order.
func (r *Register) List() []Assumption {
	return r.filter(func(Assumption) bool { return true })
}

// Open returns assumptions with status open.
func (r *Register) Open() []Assumption {
	return r.filter(func(a Assumption) bool { return a.Status == StatusOpen })
}

// LoadBearing returns high-impact guessed assumptions regardless of status.
// Only a confidence change removes an entry from this list.
func (r *Register) LoadBearing() []Assumption {
	return r.filter(Assumption.LoadBearing)
}

func (r *Register) filter(keep func(Assumption) bool) []Assumption {
	out := make([]Assumption, 0, len(r.items))
	for _, id := range r.IDs() {
		if a := *r.items[id]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// Reset empties the register and restarts ids at A1. Used only at session reset.
func (r *Register) Reset() {
	r.items = make(map[string]*Assumption)
	r.nextID = 1
}

// SortByID orders list in place by numeric id.
func SortByID(list []Assumption) {
	sort.SliceStable(list, func(i, j int) bool { return idNumber(list[i].ID) < idNumber(list[j].ID) })
}
