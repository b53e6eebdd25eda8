package gridsat

import (
	"context"
	"math/big"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// searchConfig bounds the otherwise-unbounded backtracking search. It is
// deliberately conservative: this package is a reference procedure for
// small seed scenarios (traces with a handful of observations and
// flows), not a production solver.
type searchConfig struct {
	resolution *big.Rat // branch candidate spacing within a non-singleton domain
	maxNodes   int      // variable-branching node budget
	workers    int      // size of the pool used to race top-level Or branches
}

type searchState struct {
	cfg      searchConfig
	original []facade.Constraint
	nodes    int
}

// solve attempts to find a full assignment satisfying every constraint in
// original, given the starting domains. It returns (model, true) on
// success, (nil, false) if it proves (within its bounded search) that no
// assignment exists or exhausts its node budget.
func (s *searchState) solve(ctx context.Context, pending []facade.Constraint, atoms []facade.Constraint, domains map[string]Domain, topLevel bool) (map[string]*big.Rat, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	if len(pending) == 0 {
		narrowed, ok := propagate(atoms, domains)
		if !ok {
			return nil, false
		}
		return s.branchVars(ctx, atoms, narrowed)
	}

	c := pending[0]
	rest := pending[1:]

	switch v := c.(type) {
	case facade.AndC:
		next := make([]facade.Constraint, 0, len(v.Operands)+len(rest))
		next = append(next, v.Operands...)
		next = append(next, rest...)
		return s.solve(ctx, next, atoms, domains, topLevel)

	case facade.OrC:
		if topLevel && len(v.Operands) > 1 {
			result, ok := raceBranches(len(v.Operands), s.cfg.workers, func(i int, stop <-chan struct{}) (any, bool) {
				branchPending := append([]facade.Constraint{v.Operands[i]}, rest...)
				model, ok := s.solve(ctx, branchPending, atoms, cloneDomains(domains), false)
				return model, ok
			})
			if !ok {
				return nil, false
			}
			return result.(map[string]*big.Rat), true
		}
		for _, op := range v.Operands {
			branchPending := append([]facade.Constraint{op}, rest...)
			if model, ok := s.solve(ctx, branchPending, atoms, cloneDomains(domains), false); ok {
				return model, true
			}
		}
		return nil, false

	case facade.ImpliesC:
		if neg := negate(v.Antecedent); neg != nil {
			branchPending := append([]facade.Constraint{neg}, rest...)
			if model, ok := s.solve(ctx, branchPending, atoms, cloneDomains(domains), false); ok {
				return model, true
			}
		}
		branchPending := append([]facade.Constraint{v.Antecedent, v.Consequent}, rest...)
		return s.solve(ctx, branchPending, atoms, cloneDomains(domains), false)

	default: // facade.LeqC, facade.LtC, facade.EqC
		newAtoms := make([]facade.Constraint, 0, len(atoms)+1)
		newAtoms = append(newAtoms, atoms...)
		newAtoms = append(newAtoms, c)
		return s.solve(ctx, rest, newAtoms, domains, topLevel)
	}
}

// branchVars performs first-fail branch-and-bound over the remaining
// non-singleton domains, re-propagating after every assignment, and
// verifies any fully-assigned leaf exactly against s.original before
// accepting it.
func (s *searchState) branchVars(ctx context.Context, atoms []facade.Constraint, domains map[string]Domain) (map[string]*big.Rat, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	s.nodes++
	if s.nodes > s.cfg.maxNodes {
		return nil, false
	}

	name, ok := pickSmallestNonSingleton(domains)
	if !ok {
		assignment := make(map[string]*big.Rat, len(domains))
		for n, d := range domains {
			assignment[n] = d.Lo
		}
		good, err := satisfiesAll(s.original, assignment)
		if err != nil || !good {
			return nil, false
		}
		return assignment, true
	}

	for _, candidate := range branchCandidates(domains[name], s.cfg.resolution) {
		next := cloneDomains(domains)
		next[name] = Domain{Lo: candidate, Hi: candidate}
		narrowed, ok := propagate(atoms, next)
		if !ok {
			continue
		}
		if model, ok := s.branchVars(ctx, atoms, narrowed); ok {
			return model, true
		}
	}
	return nil, false
}

func pickSmallestNonSingleton(domains map[string]Domain) (string, bool) {
	best := ""
	var bestWidth *big.Rat
	for name, d := range domains {
		if d.IsSingleton() {
			continue
		}
		w := d.Width()
		if bestWidth == nil || w.Cmp(bestWidth) < 0 {
			bestWidth = w
			best = name
		}
	}
	return best, bestWidth != nil
}

// branchCandidates enumerates grid points across [Lo,Hi] at the
// configured resolution, always including both endpoints.
func branchCandidates(d Domain, resolution *big.Rat) []*big.Rat {
	if d.IsSingleton() {
		return []*big.Rat{d.Lo}
	}
	var out []*big.Rat
	cur := new(big.Rat).Set(d.Lo)
	for cur.Cmp(d.Hi) < 0 {
		out = append(out, new(big.Rat).Set(cur))
		cur = new(big.Rat).Add(cur, resolution)
	}
	out = append(out, new(big.Rat).Set(d.Hi))
	return out
}
