package gridsat

import (
	"fmt"
	"math/big"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// satisfies is the ground-truth check: it evaluates c against a full,
// concrete assignment using exact rational arithmetic. Bounds
// propagation and branch guidance elsewhere in this package are only
// heuristics for finding an assignment fast; this function is the only
// place that decides whether one is actually a model.
func satisfies(c facade.Constraint, assignment map[string]*big.Rat) (bool, error) {
	switch v := c.(type) {
	case facade.LeqC:
		x, y, err := evalPair(v.X, v.Y, assignment)
		if err != nil {
			return false, err
		}
		return x.Cmp(y) <= 0, nil
	case facade.LtC:
		x, y, err := evalPair(v.X, v.Y, assignment)
		if err != nil {
			return false, err
		}
		return x.Cmp(y) < 0, nil
	case facade.EqC:
		x, y, err := evalPair(v.X, v.Y, assignment)
		if err != nil {
			return false, err
		}
		return x.Cmp(y) == 0, nil
	case facade.AndC:
		for _, op := range v.Operands {
			ok, err := satisfies(op, assignment)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case facade.OrC:
		for _, op := range v.Operands {
			ok, err := satisfies(op, assignment)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case facade.ImpliesC:
		a, err := satisfies(v.Antecedent, assignment)
		if err != nil {
			return false, err
		}
		if !a {
			return true, nil
		}
		return satisfies(v.Consequent, assignment)
	default:
		return false, fmt.Errorf("%w: %T", ErrUnsupportedConstraint, c)
	}
}

func satisfiesAll(cs []facade.Constraint, assignment map[string]*big.Rat) (bool, error) {
	for _, c := range cs {
		ok, err := satisfies(c, assignment)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evalExpr(e facade.Expr, assignment map[string]*big.Rat) (*big.Rat, error) {
	switch v := e.(type) {
	case facade.ConstExpr:
		return v.Value, nil
	case facade.VarExpr:
		val, ok := assignment[v.V.Name()]
		if !ok {
			return nil, fmt.Errorf("gridsat: missing assignment for %s", v.V.Name())
		}
		return val, nil
	case facade.AddExpr:
		sum := big.NewRat(0, 1)
		for _, t := range v.Terms {
			tv, err := evalExpr(t, assignment)
			if err != nil {
				return nil, err
			}
			sum = new(big.Rat).Add(sum, tv)
		}
		return sum, nil
	case facade.NegExpr:
		xv, err := evalExpr(v.X, assignment)
		if err != nil {
			return nil, err
		}
		return new(big.Rat).Neg(xv), nil
	case facade.MulExpr:
		xv, err := evalExpr(v.X, assignment)
		if err != nil {
			return nil, err
		}
		return new(big.Rat).Mul(v.Coef, xv), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedConstraint, e)
	}
}

func evalPair(x, y facade.Expr, assignment map[string]*big.Rat) (*big.Rat, *big.Rat, error) {
	xv, err := evalExpr(x, assignment)
	if err != nil {
		return nil, nil, err
	}
	yv, err := evalExpr(y, assignment)
	if err != nil {
		return nil, nil, err
	}
	return xv, yv, nil
}
