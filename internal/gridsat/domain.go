// Package gridsat is a bounded, grid-discretized reference implementation
// of facade.Facade. It is not a decision procedure for linear real
// arithmetic: it tightens rational interval domains by bounds propagation
// and falls back to branch-and-bound enumeration over a configurable
// resolution when propagation alone cannot decide a variable. It exists
// to discharge this module's own seed scenarios and property tests in
// place of a production SMT binding, which is an external collaborator
// per the fluid model's own contract (package facade).
//
// Its UnsatCore support is similarly partial: on an unsat result it
// reports every labeled assertion (AssertLabeled) in assertion order,
// since the search has no conflict-analysis pass to shrink that down to
// a minimal core. Constraints added with plain Assert never appear in
// the reported set, so when they take part in the conflict the listed
// labels alone need not be jointly unsatisfiable; nor is the set
// minimized, unlike what a production SMT binding would return.
package gridsat

import "math/big"

// Domain is a closed rational interval [Lo, Hi] a variable is currently
// known to lie within. An interval with Lo > Hi is inconsistent (empty).
type Domain struct {
	Lo *big.Rat
	Hi *big.Rat
}

// Width returns Hi-Lo, used to rank variables for first-fail branching.
func (d Domain) Width() *big.Rat {
	w := new(big.Rat).Sub(d.Hi, d.Lo)
	return w
}

// IsSingleton reports whether the domain has narrowed to one point.
func (d Domain) IsSingleton() bool {
	return d.Lo.Cmp(d.Hi) == 0
}

// IsEmpty reports whether the domain is inconsistent.
func (d Domain) IsEmpty() bool {
	return d.Lo.Cmp(d.Hi) > 0
}

// Clone returns a value copy of the domain (big.Rat pointers are never
// mutated in place by this package, so sharing them across clones is
// safe; only the Domain struct itself needs copying).
func (d Domain) Clone() Domain {
	return Domain{Lo: d.Lo, Hi: d.Hi}
}

func cloneDomains(domains map[string]Domain) map[string]Domain {
	out := make(map[string]Domain, len(domains))
	for k, v := range domains {
		out[k] = v.Clone()
	}
	return out
}
