package problems

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/discopt/internal/optimization"
)

func testDorms(t *testing.T) *Dorms {
	t.Helper()
	d, err := NewDorms(DormPlan{
		Dorms: []string{"Aspen", "Birch"},
		Students: []Student{
			{Name: "Jordan", Prefs: []string{"Aspen", "Birch"}},
			{Name: "Riley", Prefs: []string{"Aspen", "Birch"}},
			{Name: "Morgan", Prefs: []string{"Birch", "Aspen"}},
			{Name: "Quinn", Prefs: []string{"Birch"}},
		},
	})
	require.NoError(t, err)
	return d
}

func TestDormsDomainShrinks(t *testing.T) {
	d := testDorms(t)
	assert.Equal(t, optimization.Domain{{Min: 0, Max: 3}, {Min: 0, Max: 2}, {Min: 0, Max: 1}, {Min: 0, Max: 0}}, d.Domain())
}

func TestDormsCost(t *testing.T) {
	d := testDorms(t)

	tests := []struct {
		name      string
		candidate optimization.Candidate
		want      float64
	}{
		{name: "everyone first choice", candidate: optimization.Candidate{0, 0, 0, 0}, want: 0},
		// Jordan and Riley take Birch, Morgan gets Aspen, Quinn gets unlisted Aspen
		{name: "reversed", candidate: optimization.Candidate{3, 2, 1, 0}, want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Cost(tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDormsCostDoesNotShareState(t *testing.T) {
	d := testDorms(t)
	c := optimization.Candidate{3, 2, 1, 0}

	first, err := d.Cost(c)
	require.NoError(t, err)
	second, err := d.Cost(c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDormsCostOutOfRange(t *testing.T) {
	d := testDorms(t)

	_, err := d.Cost(optimization.Candidate{0, 0, 2, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = d.Cost(optimization.Candidate{0})
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestDormsDescribe(t *testing.T) {
	d := testDorms(t)

	lines, err := d.Describe(optimization.Candidate{3, 2, 1, 0})
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Jordan"))
	assert.True(t, strings.HasSuffix(lines[0], "Birch"))
	assert.True(t, strings.HasSuffix(lines[3], "Aspen"))
}

func TestNewDormsErrors(t *testing.T) {
	tests := []struct {
		name string
		plan DormPlan
	}{
		{name: "no dorms", plan: DormPlan{Students: []Student{{Name: "a"}}}},
		{name: "no students", plan: DormPlan{Dorms: []string{"Aspen"}}},
		{
			name: "too many students",
			plan: DormPlan{Dorms: []string{"Aspen"}, Students: []Student{{Name: "a"}, {Name: "b"}, {Name: "c"}}},
		},
		{
			name: "unknown preference",
			plan: DormPlan{Dorms: []string{"Aspen"}, Students: []Student{{Name: "a", Prefs: []string{"Oak"}}}},
		},
		{
			name: "three preferences",
			plan: DormPlan{Dorms: []string{"Aspen", "Birch"}, Students: []Student{{Name: "a", Prefs: []string{"Aspen", "Birch", "Aspen"}}}},
		},
		{
			name: "duplicate dorm",
			plan: DormPlan{Dorms: []string{"Aspen", "Aspen"}, Students: []Student{{Name: "a"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDorms(tt.plan)
			require.Error(t, err)
			assert.True(t, optimization.IsValidationError(err))
		})
	}
}
