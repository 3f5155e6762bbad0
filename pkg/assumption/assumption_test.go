package assumption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func validInput(claim string) Input {
	return Input{
		Claim:             claim,
		Type:              "value",
		Impact:            "high",
		Confidence:        "guessed",
		Basis:             "stated by the user without data",
		RecommendedAction: "interview three KPMs",
		Turn:              1,
	}
}

func TestRegisterAllocatesStableIDs(t *testing.T) {
	r := NewRegister()

	a1, err := r.Register(validInput("KPMs care most about prediction accuracy"))
	require.NoError(t, err)
	a2, err := r.Register(validInput("Digital twins are feasible with current data"))
	require.NoError(t, err)

	assert.Equal(t, "A1", a1.ID)
	assert.Equal(t, "A2", a2.ID)
	assert.Equal(t, StatusOpen, a1.Status)
	assert.Equal(t, 2, r.Len())
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"empty claim", func(in *Input) { in.Claim = "  " }},
		{"bad type", func(in *Input) { in.Type = "financial" }},
		{"bad impact", func(in *Input) { in.Impact = "huge" }},
		{"bad confidence", func(in *Input) { in.Confidence = "certain" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegister()
			in := validInput("claim")
			tt.mutate(&in)
			_, err := r.Register(in)
			require.ErrorIs(t, err, ErrInvalidField)
			assert.Zero(t, r.Len())

			// A failed registration must not burn an id.
			a, err := r.Register(validInput("next"))
			require.NoError(t, err)
			assert.Equal(t, "A1", a.ID)
		})
	}
}

func TestEnumsAreCaseInsensitive(t *testing.T) {
	r := NewRegister()
	a, err := r.Register(Input{Claim: "c", Type: "Organizational", Impact: " MEDIUM ", Confidence: "Partial"})
	require.NoError(t, err)
	assert.Equal(t, TypeOrganizational, a.Type)
	assert.Equal(t, ImpactMedium, a.Impact)
	assert.Equal(t, ConfidencePartial, a.Confidence)
}

func TestUpdate(t *testing.T) {
	r := NewRegister()
	_, err := r.Register(validInput("claim"))
	require.NoError(t, err)

	a, err := r.Update("a1", Patch{Confidence: strPtr("validated"), Status: strPtr("resolved"), Turn: 4})
	require.NoError(t, err)
	assert.Equal(t, ConfidenceValidated, a.Confidence)
	assert.Equal(t, StatusResolved, a.Status)
	assert.Equal(t, 4, a.UpdatedTurn)
	assert.Equal(t, 1, a.CreatedTurn)

	stored, ok := r.Get("A1")
	require.True(t, ok)
	assert.Equal(t, a, stored)
}

func TestUpdateUnknown(t *testing.T) {
	r := NewRegister()
	_, err := r.Register(validInput("claim"))
	require.NoError(t, err)

	_, err = r.Update("A7", Patch{Status: strPtr("resolved")})
	require.ErrorIs(t, err, ErrUnknownAssumption)
	assert.Contains(t, err.Error(), "A1")
	assert.Equal(t, 1, r.Len(), "failed update must not create entries")
}

func TestUpdateIsAtomic(t *testing.T) {
	r := NewRegister()
	_, err := r.Register(validInput("claim"))
	require.NoError(t, err)

	_, err = r.Update("A1", Patch{Status: strPtr("resolved"), Confidence: strPtr("maybe")})
	require.ErrorIs(t, err, ErrInvalidField)

	a, _ := r.Get("A1")
	assert.Equal(t, StatusOpen, a.Status, "no field applies when one is invalid")
}

func TestLoadBearingStaysVisible(t *testing.T) {
	r := NewRegister()
	_, err := r.Register(validInput("load bearing"))
	require.NoError(t, err)
	low := validInput("minor")
	low.Impact = "low"
	_, err = r.Register(low)
	require.NoError(t, err)

	require.Len(t, r.LoadBearing(), 1)

	// Resolving without changing confidence keeps it load-bearing.
	_, err = r.Update("A1", Patch{Status: strPtr("resolved")})
	require.NoError(t, err)
	lb := r.LoadBearing()
	require.Len(t, lb, 1)
	assert.Equal(t, "A1", lb[0].ID)
	assert.Len(t, r.Open(), 1)

	_, err = r.Update("A1", Patch{Confidence: strPtr("partial")})
	require.NoError(t, err)
	assert.Empty(t, r.LoadBearing())
	assert.Equal(t, 2, r.Len(), "entries are never deleted")
}

func TestListOrdersNumerically(t *testing.T) {
	r := NewRegister()
	for i := 0; i < 11; i++ {
		_, err := r.Register(validInput("claim"))
		require.NoError(t, err)
	}
	ids := r.IDs()
	assert.Equal(t, "A1", ids[0])
	assert.Equal(t, "A2", ids[1])
	assert.Equal(t, "A11", ids[10])

	list := r.List()
	list[0].Claim = "mutated"
	a, _ := r.Get("A1")
	assert.Equal(t, "claim", a.Claim, "List returns copies")
}

func TestPatchEmpty(t *testing.T) {
	assert.True(t, Patch{Turn: 3}.Empty())
	assert.False(t, Patch{Basis: strPtr("")}.Empty())
}

func TestReset(t *testing.T) {
	r := NewRegister()
	_, _ = r.Register(validInput("claim"))
	r.Reset()
	assert.Zero(t, r.Len())
	a, err := r.Register(validInput("again"))
	require.NoError(t, err)
	assert.Equal(t, "A1", a.ID)
}
