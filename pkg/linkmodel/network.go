package linkmodel

import (
	"fmt"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// EmitNetworkInvariants asserts the physical link laws: the
// per-flow service bound, the aggregate capacity bound, the
// propagation-delay coupling (the D-seconds-ago existence disjunction),
// the waste-vs-arrival coupling gated on Compose, and the buffering/loss
// rules gated on InfBuf. Multi-flow FIFO is emitted separately by
// EmitFIFO, per the builder's composition ordering.
func EmitNetworkInvariants(m *Model, fc facade.Facade) error {
	p := m.Params
	assert := m.assertFn(fc)

	for t := 0; t < p.T; t++ {
		step := m.Steps[t]
		assert(aggName(t, "cap_bound"), facade.Leq(facade.VE(step.S), capacityMinusWaste(p, step)))

		for ff := 0; ff < p.F; ff++ {
			flow := m.Flows[t][ff]
			assert(flowName(t, ff, "service_bound"), facade.Leq(facade.VE(flow.S), facade.Sub(facade.VE(flow.A), facade.VE(flow.L))))
		}

		emitPropagationDelay(m, fc, t)

		if t >= 1 {
			emitWasteArrivalCoupling(m, fc, t)
			emitLossRegime(m, fc, t)
		}
	}

	if p.InfBuf {
		for t := 1; t < p.T; t++ {
			assert(aggName(t, "inf_buf_no_loss"), facade.Eq(facade.VE(m.Steps[t].L), facade.VE(m.Steps[0].L)))
		}
	}

	return nil
}

// emitPropagationDelay asserts: for the observation whose timestamp is
// at least D, the point "D seconds ago" coincides with some earlier
// observation pt, at which C*time[pt]-W[pt] <= S[t] holds; otherwise
// (time[t]<D) the loosest slack C*(time[t]-D)-W[0] <= S[t] applies.
//
// This is the corrected transcription of the historical "pts = times[t]"
// quirk (see DESIGN.md): the bound below consistently uses times[pt],
// the matched earlier index, not times[t].
func emitPropagationDelay(m *Model, fc facade.Facade, t int) {
	if t == 0 {
		return
	}
	p := m.Params
	assert := m.assertFn(fc)
	step := m.Steps[t]

	use := func(pt int) facade.Constraint {
		return facade.Leq(capacityMinusWaste(p, m.Steps[pt]), facade.VE(step.S))
	}
	fallback := facade.Leq(
		facade.Sub(facade.MulF(p.C, facade.Sub(facade.VE(step.Time), facade.ConstF(p.D))), facade.VE(m.Steps[0].W)),
		facade.VE(step.S),
	)
	assert(aggName(t, "prop_delay"), m.existsEarlierOrFallback(t, "D", p.D, use, fallback))
}

// emitWasteArrivalCoupling asserts the two waste-vs-arrival regimes, gated
// on whether W strictly increased at t.
func emitWasteArrivalCoupling(m *Model, fc facade.Facade, t int) {
	p := m.Params
	assert := m.assertFn(fc)
	prev, cur := m.Steps[t-1], m.Steps[t]
	grew := facade.Lt(facade.VE(prev.W), facade.VE(cur.W))
	undelivered := facade.Sub(facade.VE(cur.A), facade.VE(cur.L))

	if p.Compose {
		assert(aggName(t, "waste_arrival"), facade.Implies(grew, facade.Leq(undelivered, capacityMinusWaste(p, cur))))
		return
	}
	assert(aggName(t, "waste_arrival"), facade.Implies(grew, facade.Leq(undelivered, facade.Add(facade.VE(cur.S), facade.VE(m.Epsilon)))))
}

// emitLossRegime asserts the finite-buffer loss rule (the
// infinite-buffer rule is asserted once, in bulk, by EmitNetworkInvariants).
func emitLossRegime(m *Model, fc facade.Facade, t int) {
	if m.Params.InfBuf {
		return
	}
	p := m.Params
	assert := m.assertFn(fc)
	prev, cur := m.Steps[t-1], m.Steps[t]
	undelivered := facade.Sub(facade.VE(cur.A), facade.VE(cur.L))
	capacityPlusBuf := facade.Add(capacityMinusWaste(p, cur), facade.VE(m.Buf))

	assert(aggName(t, "buf_cap"), facade.Leq(undelivered, capacityPlusBuf))

	grew := facade.Lt(facade.VE(prev.L), facade.VE(cur.L))
	assert(aggName(t, "loss_forces_full_buf"), facade.Implies(grew, facade.Eq(undelivered, capacityPlusBuf)))
}

// EmitFIFO asserts the multi-flow FIFO property, emitted only
// when F>1: whenever aggregate service at t has reached at least the
// aggregate arrivals-minus-loss level at t=0, there exists an earlier
// tp whose aggregate arrivals-minus-loss level matches S[t] exactly; and
// whenever that equality holds for a given tp, it holds per flow too.
func EmitFIFO(m *Model, fc facade.Facade) error {
	p := m.Params
	if p.F <= 1 {
		return nil
	}
	assert := m.assertFn(fc)

	for t := 1; t < p.T; t++ {
		cur := m.Steps[t]
		reached := facade.Leq(
			facade.Sub(facade.VE(m.Steps[0].A), facade.VE(m.Steps[0].L)),
			facade.VE(cur.S),
		)

		var matches []facade.Constraint
		for pt := 0; pt < t; pt++ {
			al := facade.Sub(facade.VE(m.Steps[pt].A), facade.VE(m.Steps[pt].L))
			matches = append(matches, facade.Eq(facade.VE(cur.S), al))
		}
		assert(aggName(t, "fifo_exists_match"), facade.Implies(reached, facade.Or(matches...)))

		for pt := 0; pt < t; pt++ {
			al := facade.Sub(facade.VE(m.Steps[pt].A), facade.VE(m.Steps[pt].L))
			matchesAtPt := facade.Eq(facade.VE(cur.S), al)

			var perFlow []facade.Constraint
			for ff := 0; ff < p.F; ff++ {
				flowAL := facade.Sub(facade.VE(m.Flows[pt][ff].A), facade.VE(m.Flows[pt][ff].L))
				perFlow = append(perFlow, facade.Eq(facade.VE(m.Flows[t][ff].S), flowAL))
			}
			assert(fmt.Sprintf("fifo_t%d_pt%d", t, pt), facade.Implies(matchesAtPt, facade.And(perFlow...)))
		}
	}
	return nil
}

// existsEarlierOrFallback builds: Or over earlier pt of (time[pt] =
// time[t]-offset AND use(pt)), Or (time[t]-time[0] < offset AND
// fallback) — the standard "existence over earlier observations, or the
// point is too close to the start to have one" pattern used by both the
// propagation-delay and the controller's R-seconds-ago machinery.
func (m *Model) existsEarlierOrFallback(t int, offsetLabel string, offset float64, use func(pt int) facade.Constraint, fallback facade.Constraint) facade.Constraint {
	disjuncts := make([]facade.Constraint, 0, t+1)
	for pt := 0; pt < t; pt++ {
		disjuncts = append(disjuncts, facade.And(m.earlierEq(t, pt, offsetLabel, offset), use(pt)))
	}
	tooSoon := facade.And(
		facade.Lt(facade.Sub(facade.VE(m.Steps[t].Time), facade.VE(m.Steps[0].Time)), facade.ConstF(offset)),
		fallback,
	)
	disjuncts = append(disjuncts, tooSoon)
	return facade.Or(disjuncts...)
}

// earlierEq returns the atomic equality time[pt] = time[t]-offset,
// memoized per (t, pt, offsetLabel) so repeated invariants referencing
// the same pair reuse one built expression.
func (m *Model) earlierEq(t, pt int, offsetLabel string, offset float64) facade.Constraint {
	key := fmt.Sprintf("%d:%d:%s", t, pt, offsetLabel)
	if c, ok := m.earlierMemo[key]; ok {
		return c
	}
	c := facade.Eq(facade.VE(m.Steps[pt].Time), facade.Sub(facade.VE(m.Steps[t].Time), facade.ConstF(offset)))
	m.earlierMemo[key] = c
	return c
}
