package gridsat

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

func TestSolverSimpleLinearSystem(t *testing.T) {
	s := New(Config{})
	x := s.RealVar("x")
	y := s.RealVar("y")

	// x + y = 10, x <= 4
	s.Assert(facade.Eq(facade.Add(facade.VE(x), facade.VE(y)), facade.Const(10)))
	s.Assert(facade.Leq(facade.VE(x), facade.Const(4)))
	s.Assert(facade.Leq(facade.Const(0), facade.VE(x)))
	s.Assert(facade.Leq(facade.Const(0), facade.VE(y)))

	res, err := s.CheckSat(context.Background())
	require.NoError(t, err)
	require.Equal(t, facade.Sat, res.Satisfiable)

	xv, ok := res.Value(x)
	require.True(t, ok)
	yv, ok := res.Value(y)
	require.True(t, ok)

	sum := new(big.Rat).Add(xv, yv)
	require.Equal(t, 0, sum.Cmp(big.NewRat(10, 1)))
	require.True(t, xv.Cmp(big.NewRat(4, 1)) <= 0)
}

func TestSolverDetectsUnsat(t *testing.T) {
	s := New(Config{})
	x := s.RealVar("x")

	s.Assert(facade.Leq(facade.VE(x), facade.Const(1)))
	s.Assert(facade.Leq(facade.Const(5), facade.VE(x)))

	res, err := s.CheckSat(context.Background())
	require.NoError(t, err)
	require.Equal(t, facade.Unsat, res.Satisfiable)
}

func TestSolverUnsatCoreReportsLabeledAssertions(t *testing.T) {
	s := New(Config{})
	x := s.RealVar("x")

	s.AssertLabeled("x_low", facade.Leq(facade.VE(x), facade.Const(1)))
	s.AssertLabeled("x_high", facade.Leq(facade.Const(5), facade.VE(x)))

	res, err := s.CheckSat(context.Background())
	require.NoError(t, err)
	require.Equal(t, facade.Unsat, res.Satisfiable)
	require.ElementsMatch(t, []string{"x_low", "x_high"}, res.UnsatCore)
}

func TestSolverDisjunction(t *testing.T) {
	s := New(Config{})
	x := s.RealVar("x")

	// x = 2 OR x = 7, combined with x >= 5 must pick the second disjunct.
	s.Assert(facade.Or(
		facade.Eq(facade.VE(x), facade.Const(2)),
		facade.Eq(facade.VE(x), facade.Const(7)),
	))
	s.Assert(facade.Leq(facade.Const(5), facade.VE(x)))

	res, err := s.CheckSat(context.Background())
	require.NoError(t, err)
	require.Equal(t, facade.Sat, res.Satisfiable)

	xv, ok := res.Value(x)
	require.True(t, ok)
	require.Equal(t, "7", xv.RatString())
}

func TestSolverImplication(t *testing.T) {
	s := New(Config{})
	x := s.RealVar("x")
	y := s.RealVar("y")

	// x <= 0 => y = 1, and x = 0, so y must equal 1.
	s.Assert(facade.Implies(
		facade.Leq(facade.VE(x), facade.Const(0)),
		facade.Eq(facade.VE(y), facade.Const(1)),
	))
	s.Assert(facade.Eq(facade.VE(x), facade.Const(0)))

	res, err := s.CheckSat(context.Background())
	require.NoError(t, err)
	require.Equal(t, facade.Sat, res.Satisfiable)

	yv, ok := res.Value(y)
	require.True(t, ok)
	require.Equal(t, "1/1", yv.RatString())
}
