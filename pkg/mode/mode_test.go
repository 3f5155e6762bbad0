package mode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertInvariant(t *testing.T, m *Machine) {
	t.Helper()
	assert.Equal(t, m.Active() != "", m.Phase() == PhaseInMode, "active mode set iff in_mode")
}

func TestMachineLifecycle(t *testing.T) {
	var m Machine
	assert.Equal(t, PhaseGathering, m.Phase())
	assertInvariant(t, &m)

	info, err := m.Enter("discover_frame")
	require.NoError(t, err)
	assert.Equal(t, DiscoverFrame, info.ID)
	assert.Equal(t, PhaseInMode, m.Phase())
	assertInvariant(t, &m)

	done, err := m.Complete()
	require.NoError(t, err)
	assert.Equal(t, DiscoverFrame, done)
	assert.Equal(t, PhaseGathering, m.Phase())
	assert.Empty(t, m.Active())
	assert.Equal(t, []ID{DiscoverFrame}, m.Completed())
	assertInvariant(t, &m)
}

func TestInvalidTransitions(t *testing.T) {
	var m Machine

	_, err := m.Complete()
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "no mode is active")
	assertInvariant(t, &m)

	_, err = m.Enter("size_value")
	require.NoError(t, err)

	_, err = m.Enter("evaluate_solution")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "Mode 4: Size & Value")
	assert.Equal(t, SizeValue, m.Active(), "rejected enter leaves the active mode alone")

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, EventEnter, te.Event)
	assert.Equal(t, PhaseInMode, te.Phase)
}

func TestEnterUnknownMode(t *testing.T) {
	var m Machine
	_, err := m.Enter("write_the_code")
	require.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, PhaseGathering, m.Phase())
}

func TestLookup(t *testing.T) {
	tests := map[string]ID{
		"discover_frame":        DiscoverFrame,
		"Discover & Frame":      DiscoverFrame,
		"mode_2":                EvaluateSolution,
		"Mode 3":                SurfaceConstraints,
		"4":                     SizeValue,
		"  PRIORITIZE_SEQUENCE ": PrioritizeSequence,
	}
	for ref, want := range tests {
		t.Run(ref, func(t *testing.T) {
			info, err := Lookup(ref)
			require.NoError(t, err)
			assert.Equal(t, want, info.ID)
		})
	}

	_, err := Lookup("6")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestCatalogOrderAndCopy(t *testing.T) {
	c := Catalog()
	require.Len(t, c, 5)
	for i, info := range c {
		assert.Equal(t, i+1, info.Number)
	}
	c[0].Title = "mutated"
	assert.Equal(t, "Discover & Frame", Catalog()[0].Title)
	assert.Equal(t, "Mode 1: Discover & Frame", Label(DiscoverFrame))
	assert.Equal(t, "custom", Label("custom"))
}

func TestTransitionTable(t *testing.T) {
	assert.True(t, IsValidTransition(PhaseGathering, EventEnter))
	assert.True(t, IsValidTransition(PhaseInMode, EventComplete))
	assert.False(t, IsValidTransition(PhaseGathering, EventComplete))
	assert.False(t, IsValidTransition(PhaseInMode, EventEnter))
}

func TestReset(t *testing.T) {
	var m Machine
	_, err := m.Enter("1")
	require.NoError(t, err)
	_, err = m.Complete()
	require.NoError(t, err)
	_, err = m.Enter("2")
	require.NoError(t, err)

	m.Reset()
	assert.Equal(t, PhaseGathering, m.Phase())
	assert.Empty(t, m.Completed())
}
