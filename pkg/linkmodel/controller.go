package linkmodel

import (
	"fmt"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// EmitLossDelayRTT asserts the standing bound L_d[t,f] <= L[t,f] for
// every (t,f), plus the loss-delay machinery: for every (t,f), either
// S[t,f] is too small to have been delivered yet, or some earlier tp's
// arrivals-minus-loss level matches it exactly; whichever earliest such
// tp changed from its predecessor (the tie-break for a run of equal A-L
// values) forces L_d[t,f] and rtt[t,f].
func EmitLossDelayRTT(m *Model, fc facade.Facade) error {
	p := m.Params
	assert := m.assertFn(fc)
	for t := 0; t < p.T; t++ {
		for ff := 0; ff < p.F; ff++ {
			flow := m.Flows[t][ff]
			assert(flowName(t, ff, "Ld_leq_L"), facade.Leq(facade.VE(flow.Ld), facade.VE(flow.L)))

			initAL := facade.Sub(facade.VE(m.Flows[0][ff].A), facade.VE(m.Flows[0][ff].L))
			tooSmall := facade.Lt(facade.VE(flow.S), initAL)

			var matches []facade.Constraint
			for tp := 0; tp < t; tp++ {
				al := facade.Sub(facade.VE(m.Flows[tp][ff].A), facade.VE(m.Flows[tp][ff].L))
				matches = append(matches, facade.Eq(facade.VE(flow.S), al))
			}
			if len(matches) > 0 {
				assert(flowName(t, ff, "loss_match_or_too_small"), facade.Or(tooSmall, facade.Or(matches...)))
			} else {
				assert(flowName(t, ff, "loss_match_or_too_small"), tooSmall)
			}

			for tp := 0; tp < t; tp++ {
				al := facade.Sub(facade.VE(m.Flows[tp][ff].A), facade.VE(m.Flows[tp][ff].L))
				matchesAtTp := facade.Eq(facade.VE(flow.S), al)
				changedAtTp := changedFromPredecessor(m, ff, tp)

				assert(fmt.Sprintf("t%d_f%d_tp%d_Ld", t, ff, tp), facade.Implies(
					facade.And(matchesAtTp, changedAtTp),
					facade.Eq(facade.VE(flow.Ld), facade.VE(m.Flows[tp][ff].L)),
				))
				assert(fmt.Sprintf("t%d_f%d_tp%d_rtt", t, ff, tp), facade.Implies(
					facade.And(matchesAtTp, changedAtTp),
					facade.Eq(facade.VE(flow.RTT), facade.Add(facade.ConstF(p.R), facade.Sub(facade.VE(m.Steps[t].Time), facade.VE(m.Steps[tp].Time)))),
				))
			}

			assert(flowName(t, ff, "rtt_floor"), facade.Implies(tooSmall, facade.Leq(
				facade.Add(facade.ConstF(p.R), facade.Sub(facade.VE(m.Steps[t].Time), facade.VE(m.Steps[0].Time))),
				facade.VE(flow.RTT),
			)))
		}
	}
	return nil
}

// changedFromPredecessor reports the loss-delay matching's tie-break condition:
// tp=0 always counts as changed (there is no predecessor to compare
// against); otherwise tp changed iff its arrivals-minus-loss level
// differs from tp-1's.
func changedFromPredecessor(m *Model, flowIdx, tp int) facade.Constraint {
	if tp == 0 {
		return facade.Leq(facade.Const(0), facade.Const(0)) // vacuously true
	}
	cur := facade.Sub(facade.VE(m.Flows[tp][flowIdx].A), facade.VE(m.Flows[tp][flowIdx].L))
	prev := facade.Sub(facade.VE(m.Flows[tp-1][flowIdx].A), facade.VE(m.Flows[tp-1][flowIdx].L))
	return facade.Or(facade.Lt(prev, cur), facade.Lt(cur, prev))
}

// EmitControllerCoupling asserts the per-flow arrival law: the
// window envelope (the R-seconds-ago existence disjunction bounding
// A[t,f] by a past service-plus-loss level), combined with A[t,f]
// resolving to either the rate-based envelope or a pause at A[t-1,f].
func EmitControllerCoupling(m *Model, fc facade.Facade) error {
	p := m.Params
	assert := m.assertFn(fc)
	for t := 1; t < p.T; t++ {
		for ff := 0; ff < p.F; ff++ {
			flow := m.Flows[t][ff]
			prev := m.Flows[t-1][ff]

			use := func(pt int) facade.Constraint {
				bound := facade.Add(facade.VE(m.Flows[pt][ff].S), facade.VE(m.Flows[pt][ff].Ld), facade.VE(flow.Cwnd))
				return facade.Leq(facade.VE(flow.A), bound)
			}
			fallback := facade.Leq(
				facade.VE(flow.A),
				facade.Add(facade.VE(m.Flows[0][ff].S), facade.VE(m.Flows[0][ff].Ld), facade.VE(flow.Cwnd)),
			)
			assert(flowName(t, ff, "window_envelope"), m.existsEarlierOrFallback(t, "R", p.R, use, fallback))

			delta := m.Deltas[t]
			prod := m.piecewiseMultiply(fc, delta, prev.Rate, flowName(t, ff, "rateterm"))
			rateEnvelope := facade.Add(facade.VE(prev.A), facade.VE(prod))

			assert(flowName(t, ff, "arrival_law"), facade.Or(
				facade.Eq(facade.VE(flow.A), rateEnvelope),
				facade.Eq(facade.VE(flow.A), facade.VE(prev.A)),
			))
		}
	}
	return nil
}

// piecewiseMultiply returns a fresh variable bounded, per whichever
// piece of delta's partition is currently active, between
// breakpoint[i]*coef and breakpoint[i+1]*coef. This is the piecewise
// multiplier: once the solver fixes delta's active piece,
// the bound on the product is linear in coef, never multiplying two
// free variables together. Sound for coef>=0; since every piece has
// breakpoint[i] < breakpoint[i+1], the envelope itself admits no model
// with coef<0.
func (m *Model) piecewiseMultiply(fc facade.Facade, delta *Piecewise, coef facade.Var, name string) facade.Var {
	prod := fc.RealVar(name)
	disjuncts := make([]facade.Constraint, len(delta.Pieces))
	for i := range delta.Pieces {
		lo, hi := delta.Breakpoints[i], delta.Breakpoints[i+1]
		witnessIs := facade.Eq(facade.VE(delta.Witness), facade.Const(int64(i)))
		loBound := facade.Mul(lo, facade.VE(coef))
		hiBound := facade.Mul(hi, facade.VE(coef))
		bounded := facade.And(facade.Leq(loBound, facade.VE(prod)), facade.Leq(facade.VE(prod), hiBound))
		disjuncts[i] = facade.And(witnessIs, bounded)
	}
	m.assertFn(fc)(name+"_envelope", facade.Or(disjuncts...))
	return prod
}

// PinRate asserts flow's rate at observation t to a concrete value, so
// scenario code reads as intent ("pin flow 0's rate to 0.5") rather than
// a raw equality assertion.
func (m *Model) PinRate(fc facade.Facade, flow, t int, value float64) error {
	if err := m.checkIndices(flow, t); err != nil {
		return err
	}
	fc.Assert(facade.Eq(facade.VE(m.Flows[t][flow].Rate), facade.ConstF(value)))
	return nil
}

// PinCwnd asserts flow's cwnd at observation t to a concrete value.
func (m *Model) PinCwnd(fc facade.Facade, flow, t int, value float64) error {
	if err := m.checkIndices(flow, t); err != nil {
		return err
	}
	fc.Assert(facade.Eq(facade.VE(m.Flows[t][flow].Cwnd), facade.ConstF(value)))
	return nil
}
