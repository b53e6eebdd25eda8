package linkmodel

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arnegrim/linkmodel/internal/gridsat"
	"github.com/arnegrim/linkmodel/pkg/facade"
)

func TestNewPiecewiseRejectsMismatchedPieceCount(t *testing.T) {
	s := gridsat.New(gridsat.Config{})
	x := s.RealVar("x")
	_, err := NewPiecewise(s, "pw", facade.VE(x), deltaBreakpoints(1), []LinearPiece{diagonalPiece()})
	require.Error(t, err)
}

func TestNewPiecewiseRejectsNonIncreasingBreakpoints(t *testing.T) {
	s := gridsat.New(gridsat.Config{})
	x := s.RealVar("x")
	bp := []*big.Rat{big.NewRat(1, 1), big.NewRat(1, 1)}
	_, err := NewPiecewise(s, "pw", facade.VE(x), bp, []LinearPiece{diagonalPiece()})
	require.Error(t, err)
}

// TestPiecewiseEnvelopeSoundness checks an envelope-soundness property:
// every Δt variable respects its envelope across [0,D]. For the diagonal
// envelope this means y must equal x exactly wherever x is within
// [0,D]; asserting the negation (y != x, expressed as a strict
// inequality in either direction) together with x's own range must be
// unsat.
func TestPiecewiseEnvelopeSoundness(t *testing.T) {
	s := gridsat.New(gridsat.Config{Resolution: 0.25})
	x := s.RealVar("x")
	pw, err := NewPiecewise(s, "pw", facade.VE(x), deltaBreakpoints(1), deltaPieces())
	require.NoError(t, err)

	s.Assert(facade.Or(
		facade.Lt(facade.VE(pw.Y), facade.VE(x)),
		facade.Lt(facade.VE(x), facade.VE(pw.Y)),
	))

	res, err := s.CheckSat(context.Background())
	require.NoError(t, err)
	require.Equal(t, facade.Unsat, res.Satisfiable)
}

func TestPiecewiseActivePieceReadsWitness(t *testing.T) {
	s := gridsat.New(gridsat.Config{Resolution: 0.25})
	x := s.RealVar("x")
	pw, err := NewPiecewise(s, "pw", facade.VE(x), deltaBreakpoints(1), deltaPieces())
	require.NoError(t, err)

	s.Assert(facade.Eq(facade.VE(x), facade.Rat(3, 4)))

	raw, err := s.CheckSat(context.Background())
	require.NoError(t, err)
	require.Equal(t, facade.Sat, raw.Satisfiable)

	res := Result{Satisfiable: raw.Satisfiable, raw: raw}
	idx, err := pw.ActivePiece(res)
	require.NoError(t, err)
	require.GreaterOrEqual(t, idx, 0)
	require.Less(t, idx, len(pw.Pieces))
}
