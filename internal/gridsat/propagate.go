package gridsat

import (
	"math/big"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// maxPropagationRounds bounds the bounds-consistency fixpoint loop. Bound
// tightening is monotone, so in practice it converges in far fewer
// rounds than this; the cap exists only to stop a pathological
// constraint set from looping forever.
const maxPropagationRounds = 64

// propagate narrows domains using bounds consistency over atoms (which
// must all be facade.LeqC, facade.LtC, or facade.EqC — the caller is
// responsible for expanding away And/Or/Implies first). It returns the
// narrowed domains, or ok=false if some domain became empty, proving the
// atom set inconsistent.
func propagate(atoms []facade.Constraint, domains map[string]Domain) (map[string]Domain, bool) {
	out := cloneDomains(domains)

	forms := make([]*linearForm, 0, len(atoms))
	for _, a := range atoms {
		switch c := a.(type) {
		case facade.LeqC:
			f, err := diff(c.X, c.Y)
			if err != nil {
				continue
			}
			forms = append(forms, f)
		case facade.LtC:
			f, err := diff(c.X, c.Y)
			if err != nil {
				continue
			}
			forms = append(forms, f)
		case facade.EqC:
			f, err := diff(c.X, c.Y)
			if err != nil {
				continue
			}
			forms = append(forms, f, f.scale(big.NewRat(-1, 1)))
		}
	}

	for round := 0; round < maxPropagationRounds; round++ {
		changed := false
		for _, f := range forms {
			ch, ok := tightenLeqZero(f, out)
			if !ok {
				return nil, false
			}
			changed = changed || ch
		}
		if !changed {
			break
		}
	}
	return out, true
}

// diff flattens X-Y into a linearForm representing "X-Y <= 0" (or "== 0").
func diff(x, y facade.Expr) (*linearForm, error) {
	fx, err := flatten(x)
	if err != nil {
		return nil, err
	}
	fy, err := flatten(y)
	if err != nil {
		return nil, err
	}
	out := newLinearForm()
	out.merge(fx, 1)
	out.merge(fy, -1)
	return out, nil
}

// tightenLeqZero narrows domains so that "f <= 0" remains satisfiable for
// at least the same set of full assignments as before — it never
// eliminates a true solution, only candidates that can be proven
// infeasible from the current domain bounds alone.
func tightenLeqZero(f *linearForm, domains map[string]Domain) (changed bool, ok bool) {
	for name, coef := range f.coeffs {
		if coef.Sign() == 0 {
			continue
		}
		d, exists := domains[name]
		if !exists {
			continue
		}
		restLo, _ := f.boundsExcluding(name, domains)
		// feasibility requires c*v <= -restLo for the most permissive rest
		bound := new(big.Rat).Neg(restLo)
		bound.Quo(bound, coef)

		switch {
		case coef.Sign() > 0:
			if bound.Cmp(d.Hi) < 0 {
				d.Hi = bound
				changed = true
			}
		default: // coef.Sign() < 0
			if bound.Cmp(d.Lo) > 0 {
				d.Lo = bound
				changed = true
			}
		}
		if d.IsEmpty() {
			return changed, false
		}
		domains[name] = d
	}
	return changed, true
}
