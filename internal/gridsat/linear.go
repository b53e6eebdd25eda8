package gridsat

import (
	"fmt"
	"math/big"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// linearForm is a flattened affine expression: const + sum(coeffs[name] * var).
// Flattening rejects any product of two non-constant expressions, which
// keeps the whole package inside linear real arithmetic — exactly what
// facade.Expr's constructors already guarantee syntactically.
type linearForm struct {
	konst  *big.Rat
	coeffs map[string]*big.Rat
	vars   map[string]facade.Var
}

func newLinearForm() *linearForm {
	return &linearForm{
		konst:  big.NewRat(0, 1),
		coeffs: make(map[string]*big.Rat),
		vars:   make(map[string]facade.Var),
	}
}

func (f *linearForm) addVar(v facade.Var, coef *big.Rat) {
	name := v.Name()
	if existing, ok := f.coeffs[name]; ok {
		f.coeffs[name] = new(big.Rat).Add(existing, coef)
	} else {
		f.coeffs[name] = new(big.Rat).Set(coef)
	}
	f.vars[name] = v
}

func (f *linearForm) addConst(c *big.Rat) {
	f.konst = new(big.Rat).Add(f.konst, c)
}

// merge folds other into f, scaled by sign (+1 or -1).
func (f *linearForm) merge(other *linearForm, sign int64) {
	s := big.NewRat(sign, 1)
	f.konst = new(big.Rat).Add(f.konst, new(big.Rat).Mul(other.konst, s))
	for name, c := range other.coeffs {
		scaled := new(big.Rat).Mul(c, s)
		f.addVar(other.vars[name], scaled)
	}
}

// scale returns c*f as a new form.
func (f *linearForm) scale(c *big.Rat) *linearForm {
	out := newLinearForm()
	out.konst = new(big.Rat).Mul(f.konst, c)
	for name, coef := range f.coeffs {
		out.coeffs[name] = new(big.Rat).Mul(coef, c)
		out.vars[name] = f.vars[name]
	}
	return out
}

// flatten converts a facade.Expr into a linearForm, or reports the first
// unsupported construct (there are none today — the expression algebra
// in package facade is linear by construction — but flatten stays
// total and erroring so a future non-linear Expr variant fails loudly
// instead of silently mis-propagating).
func flatten(e facade.Expr) (*linearForm, error) {
	switch v := e.(type) {
	case facade.ConstExpr:
		f := newLinearForm()
		f.addConst(v.Value)
		return f, nil
	case facade.VarExpr:
		f := newLinearForm()
		f.addVar(v.V, big.NewRat(1, 1))
		return f, nil
	case facade.AddExpr:
		f := newLinearForm()
		for _, t := range v.Terms {
			tf, err := flatten(t)
			if err != nil {
				return nil, err
			}
			f.merge(tf, 1)
		}
		return f, nil
	case facade.NegExpr:
		tf, err := flatten(v.X)
		if err != nil {
			return nil, err
		}
		return tf.scale(big.NewRat(-1, 1)), nil
	case facade.MulExpr:
		tf, err := flatten(v.X)
		if err != nil {
			return nil, err
		}
		return tf.scale(v.Coef), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedConstraint, e)
	}
}

// eval evaluates the form exactly against a full assignment. Every
// variable named by the form must be present in assignment.
func (f *linearForm) eval(assignment map[string]*big.Rat) (*big.Rat, error) {
	sum := new(big.Rat).Set(f.konst)
	for name, coef := range f.coeffs {
		val, ok := assignment[name]
		if !ok {
			return nil, fmt.Errorf("gridsat: missing assignment for %s", name)
		}
		sum = new(big.Rat).Add(sum, new(big.Rat).Mul(coef, val))
	}
	return sum, nil
}

// boundsExcluding returns the interval of (const + sum of all terms
// except `exclude`) given the current domains of the variables involved.
// Used to isolate a single variable's own coefficient when tightening.
func (f *linearForm) boundsExcluding(exclude string, domains map[string]Domain) (lo, hi *big.Rat) {
	lo, hi = new(big.Rat).Set(f.konst), new(big.Rat).Set(f.konst)
	for name, coef := range f.coeffs {
		if name == exclude {
			continue
		}
		d, ok := domains[name]
		if !ok {
			continue // unbounded contribution; treated as already accounted for elsewhere
		}
		loContrib := new(big.Rat).Mul(coef, d.Lo)
		hiContrib := new(big.Rat).Mul(coef, d.Hi)
		if coef.Sign() < 0 {
			loContrib, hiContrib = hiContrib, loContrib
		}
		lo = new(big.Rat).Add(lo, loContrib)
		hi = new(big.Rat).Add(hi, hiContrib)
	}
	return lo, hi
}
