package optimization

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "message only", err: NewError("bad"), want: "bad"},
		{name: "component", err: NewError("bad").WithComponent("genetic"), want: "genetic: bad"},
		{name: "operation", err: NewError("bad").WithOperation("evaluate"), want: "evaluate: bad"},
		{
			name: "full",
			err:  WrapError(base, "bad").WithComponent("genetic").WithOperation("evaluate"),
			want: "genetic: evaluate: bad: boom",
		},
		{name: "formatted", err: NewErrorf("bad %d", 3), want: "bad 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, "x"))
	assert.Nil(t, WrapErrorf(nil, "x %d", 1))
}

func TestValidationErrors(t *testing.T) {
	err := NewValidationError(ErrInvalidConfig, "trials must be >= 1, got %d", 0).WithComponent("random")
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, "random: validate: trials must be >= 1, got 0: invalid configuration", err.Error())

	assert.False(t, IsValidationError(errors.New("other")))
}

func TestEvaluator(t *testing.T) {
	failure := errors.New("no such flight")
	calls := 0
	ev := NewEvaluator(func(c Candidate) (float64, error) {
		calls++
		if c[0] < 0 {
			return 0, failure
		}
		return float64(c[0]), nil
	}, "hillclimb")

	v, err := ev.Eval(Candidate{4})
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	_, err = ev.Eval(Candidate{-1})
	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.False(t, IsValidationError(err))

	e, ok := IsOptimizationError(err)
	require.True(t, ok)
	assert.Equal(t, "hillclimb", e.Component)
	assert.Equal(t, "evaluate", e.Op)

	assert.Equal(t, 2, ev.Calls())
	assert.Equal(t, 2, calls)
}

func TestCheckContext(t *testing.T) {
	require.NoError(t, CheckContext(context.Background(), "annealing"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := CheckContext(ctx, "annealing")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
