package linkmodel

import (
	"fmt"
	"math/big"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// LinearPiece is one segment of a piecewise-linear envelope: a lower
// linear function and an upper linear function of the input, both
// evaluated as slope*x + intercept.
type LinearPiece struct {
	LoSlope, LoIntercept *big.Rat
	HiSlope, HiIntercept *big.Rat
}

// diagonalPiece is the identity envelope (lo = hi = x), used for Δt
// itself: the piecewise variable does not approximate Δt, it exposes it
// under a breakpoint-indexed witness so later constraints can use the
// breakpoint bounding Δt's current piece as a constant multiplier (see
// piecewiseMultiply in controller.go) instead of multiplying two free
// variables together.
func diagonalPiece() LinearPiece {
	one := big.NewRat(1, 1)
	zero := big.NewRat(0, 1)
	return LinearPiece{LoSlope: one, LoIntercept: zero, HiSlope: one, HiIntercept: zero}
}

// Piecewise is a real variable y produced from an expression x such
// that, in every satisfying model, y lies within the lower/upper
// envelope of whichever breakpoint interval contains x, and x itself is
// bounded to [breakpoints[0], breakpoints[last]]. The solver picks which
// interval applies via a disjunction over pieces, recorded in Witness
// (the index of the active piece, as an integer-valued real).
type Piecewise struct {
	X           facade.Expr
	Y           facade.Var
	Witness     facade.Var
	Breakpoints []*big.Rat
	Pieces      []LinearPiece
}

// NewPiecewise builds the piecewise-linear multiplier envelope: it
// allocates y and a piece witness, and asserts a disjunction over the
// len(pieces) breakpoint intervals, each disjunct pinning the witness to
// its index, bounding x to that interval, and bounding y between the
// piece's lower and upper envelope evaluated at x.
func NewPiecewise(fc facade.Facade, name string, x facade.Expr, breakpoints []*big.Rat, pieces []LinearPiece) (*Piecewise, error) {
	if len(breakpoints) < 2 {
		return nil, fmt.Errorf("linkmodel: piecewise %q needs at least 2 breakpoints, got %d", name, len(breakpoints))
	}
	if len(pieces) != len(breakpoints)-1 {
		return nil, fmt.Errorf("linkmodel: piecewise %q needs %d pieces for %d breakpoints, got %d", name, len(breakpoints)-1, len(breakpoints), len(pieces))
	}
	for i := 1; i < len(breakpoints); i++ {
		if breakpoints[i-1].Cmp(breakpoints[i]) >= 0 {
			return nil, fmt.Errorf("linkmodel: piecewise %q breakpoints must be strictly increasing", name)
		}
	}

	y := fc.RealVar(name + "_y")
	witness := fc.RealVar(name + "_piece")

	disjuncts := make([]facade.Constraint, len(pieces))
	for i, pc := range pieces {
		lo, hi := breakpoints[i], breakpoints[i+1]
		inRange := facade.And(
			facade.Leq(facade.ConstExpr{Value: lo}, x),
			facade.Leq(x, facade.ConstExpr{Value: hi}),
		)
		loEnv := affine(pc.LoSlope, x, pc.LoIntercept)
		hiEnv := affine(pc.HiSlope, x, pc.HiIntercept)
		disjuncts[i] = facade.And(
			inRange,
			facade.Eq(facade.VE(witness), facade.Const(int64(i))),
			facade.Leq(loEnv, facade.VE(y)),
			facade.Leq(facade.VE(y), hiEnv),
		)
	}
	fc.Assert(facade.Or(disjuncts...))

	lo0, hiK := breakpoints[0], breakpoints[len(breakpoints)-1]
	fc.Assert(facade.Leq(facade.ConstExpr{Value: lo0}, x))
	fc.Assert(facade.Leq(x, facade.ConstExpr{Value: hiK}))

	return &Piecewise{X: x, Y: y, Witness: witness, Breakpoints: breakpoints, Pieces: pieces}, nil
}

func affine(slope *big.Rat, x facade.Expr, intercept *big.Rat) facade.Expr {
	return facade.Add(facade.Mul(slope, x), facade.ConstExpr{Value: intercept})
}

// ActivePiece reads the piece witness out of a sat model and returns the
// index of the breakpoint interval the solver selected.
func (pw *Piecewise) ActivePiece(res Result) (int, error) {
	val, err := res.Value(pw.Witness)
	if err != nil {
		return 0, err
	}
	f, _ := val.Float64()
	return int(f + 0.5), nil
}

// deltaBreakpoints returns the {0, .25D, .5D, .75D, D} partition named
// named in the Δt partition scheme below.
func deltaBreakpoints(d float64) []*big.Rat {
	mk := func(f float64) *big.Rat { r := new(big.Rat); r.SetFloat64(f); return r }
	return []*big.Rat{mk(0), mk(0.25 * d), mk(0.5 * d), mk(0.75 * d), mk(d)}
}

func deltaPieces() []LinearPiece {
	return []LinearPiece{diagonalPiece(), diagonalPiece(), diagonalPiece(), diagonalPiece()}
}
