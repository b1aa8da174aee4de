package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rotaplan/rotaplan/pkg/sat"
)

const (
	failure = time.Duration(0)
	success = time.Duration(1)
)

type fakeSolver struct {
	err error
}

func (s fakeSolver) Solve(context.Context) (*sat.Solution, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &sat.Solution{Optimal: true}, nil
}

func TestInstrumentedSolverFailure(t *testing.T) {
	result := []time.Duration{}

	changeToFailure := func(num time.Duration) {
		result = append(result, failure)
	}

	changeToSuccess := func(num time.Duration) {
		result = append(result, success)
	}

	instrumentedSolver := NewInstrumentedSolver(fakeSolver{err: errors.New("fake error")}, changeToSuccess, changeToFailure)
	_, err := instrumentedSolver.Solve(context.Background())
	require.Error(t, err)
	require.Equal(t, len(result), 1)     // check that only one call was made to a change function
	require.Equal(t, result[0], failure) // check that the call was made to changeToFailure function
}

func TestInstrumentedSolverSuccess(t *testing.T) {
	result := []time.Duration{}

	changeToFailure := func(num time.Duration) {
		result = append(result, failure)
	}

	changeToSuccess := func(num time.Duration) {
		result = append(result, success)
	}

	instrumentedSolver := NewInstrumentedSolver(fakeSolver{}, changeToSuccess, changeToFailure)
	sol, err := instrumentedSolver.Solve(context.Background())
	require.NoError(t, err)
	require.True(t, sol.Optimal)
	require.Equal(t, len(result), 1)     // check that only one call was made to a change function
	require.Equal(t, result[0], success) // check that the call was made to changeToSuccess function
}
