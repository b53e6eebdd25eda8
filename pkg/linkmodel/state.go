package linkmodel

import (
	"github.com/arnegrim/linkmodel/pkg/facade"
)

// Timestep is the per-observation-point record: a free timestamp, the
// wasted-capacity cumulant, and the three aggregate cumulants that equal
// the sum over flows of the corresponding per-flow cumulants.
type Timestep struct {
	Time facade.Var
	W    facade.Var
	A    facade.Var
	S    facade.Var
	L    facade.Var
}

// FlowState is the per-(observation,flow) record: the four per-flow
// cumulants, the current round-trip observation, and the controller
// inputs rate and cwnd.
type FlowState struct {
	A    facade.Var
	S    facade.Var
	L    facade.Var
	Ld   facade.Var
	RTT  facade.Var
	Rate facade.Var
	Cwnd facade.Var
}

// declareState allocates every Timestep and FlowState symbol, plus the
// optional epsilon/buf variables, and emits only the structural
// constraints: aggregate cumulants equal the sum of
// their per-flow counterparts. No dynamical invariant is emitted here.
func declareState(f facade.Facade, m *Model) (steps []Timestep, flows [][]FlowState, epsilon, buf facade.Var) {
	p := m.Params
	assert := m.assertFn(f)
	steps = make([]Timestep, p.T)
	flows = make([][]FlowState, p.T)

	for t := 0; t < p.T; t++ {
		steps[t] = Timestep{
			Time: f.RealVar(aggName(t, "time")),
			W:    f.RealVar(aggName(t, "W")),
			A:    f.RealVar(aggName(t, "A")),
			S:    f.RealVar(aggName(t, "S")),
			L:    f.RealVar(aggName(t, "L")),
		}
		flows[t] = make([]FlowState, p.F)
		for ff := 0; ff < p.F; ff++ {
			flows[t][ff] = FlowState{
				A:    f.RealVar(flowName(t, ff, "A")),
				S:    f.RealVar(flowName(t, ff, "S")),
				L:    f.RealVar(flowName(t, ff, "L")),
				Ld:   f.RealVar(flowName(t, ff, "Ld")),
				RTT:  f.RealVar(flowName(t, ff, "rtt")),
				Rate: f.RealVar(flowName(t, ff, "rate")),
				Cwnd: f.RealVar(flowName(t, ff, "cwnd")),
			}
		}

		sumA := make([]facade.Expr, p.F)
		sumS := make([]facade.Expr, p.F)
		sumL := make([]facade.Expr, p.F)
		for ff := 0; ff < p.F; ff++ {
			sumA[ff] = facade.VE(flows[t][ff].A)
			sumS[ff] = facade.VE(flows[t][ff].S)
			sumL[ff] = facade.VE(flows[t][ff].L)
		}
		assert(aggName(t, "sumA"), facade.Eq(facade.VE(steps[t].A), facade.Add(sumA...)))
		assert(aggName(t, "sumS"), facade.Eq(facade.VE(steps[t].S), facade.Add(sumS...)))
		assert(aggName(t, "sumL"), facade.Eq(facade.VE(steps[t].L), facade.Add(sumL...)))
	}

	if p.hasEpsilon() {
		epsilon = f.RealVar(epsilonName())
	}
	if p.hasBuf() {
		buf = f.RealVar(bufName())
		if p.BufSize > 0 {
			assert("buf_fixed", facade.Eq(facade.VE(buf), facade.ConstF(p.BufSize)))
		}
	}
	return steps, flows, epsilon, buf
}

// emitMonotonicity asserts the non-decreasing (or strictly increasing,
// for time) invariants: W, C*time-W, time, and A/S/L per
// total and per flow, plus L_d per flow.
func emitMonotonicity(f facade.Facade, m *Model) {
	p := m.Params
	assert := m.assertFn(f)
	steps, flows := m.Steps, m.Flows
	for t := 1; t < p.T; t++ {
		prev, cur := steps[t-1], steps[t]
		assert(aggName(t, "mono_time"), facade.Lt(facade.VE(prev.Time), facade.VE(cur.Time)))
		assert(aggName(t, "mono_W"), facade.Leq(facade.VE(prev.W), facade.VE(cur.W)))
		assert(aggName(t, "mono_cap"), facade.Leq(capacityMinusWaste(p, prev), capacityMinusWaste(p, cur)))
		assert(aggName(t, "mono_A"), facade.Leq(facade.VE(prev.A), facade.VE(cur.A)))
		assert(aggName(t, "mono_S"), facade.Leq(facade.VE(prev.S), facade.VE(cur.S)))
		assert(aggName(t, "mono_L"), facade.Leq(facade.VE(prev.L), facade.VE(cur.L)))

		for ff := 0; ff < p.F; ff++ {
			pf, cf := flows[t-1][ff], flows[t][ff]
			assert(flowName(t, ff, "mono_A"), facade.Leq(facade.VE(pf.A), facade.VE(cf.A)))
			assert(flowName(t, ff, "mono_S"), facade.Leq(facade.VE(pf.S), facade.VE(cf.S)))
			assert(flowName(t, ff, "mono_L"), facade.Leq(facade.VE(pf.L), facade.VE(cf.L)))
			assert(flowName(t, ff, "mono_Ld"), facade.Leq(facade.VE(pf.Ld), facade.VE(cf.Ld)))
		}
	}
}

// emitInitialConditions asserts the fixed-origin facts: time[0]=0,
// S[0]=0, aggregate L[t]>=0 at every t, per-flow L[0]>=0 and
// L_d[0]>=0, and a positive initial rtt.
func emitInitialConditions(f facade.Facade, m *Model) {
	p := m.Params
	assert := m.assertFn(f)
	steps, flows := m.Steps, m.Flows
	assert("time0_zero", facade.Eq(facade.VE(steps[0].Time), facade.Const(0)))
	assert("S0_zero", facade.Eq(facade.VE(steps[0].S), facade.Const(0)))

	for t := 0; t < p.T; t++ {
		assert(aggName(t, "L_nonneg"), facade.Leq(facade.Const(0), facade.VE(steps[t].L)))
	}

	for ff := 0; ff < p.F; ff++ {
		assert(flowName(0, ff, "L_nonneg"), facade.Leq(facade.Const(0), facade.VE(flows[0][ff].L)))
		assert(flowName(0, ff, "Ld_nonneg"), facade.Leq(facade.Const(0), facade.VE(flows[0][ff].Ld)))
		assert(flowName(0, ff, "rtt_pos"), facade.Lt(facade.Const(0), facade.VE(flows[0][ff].RTT)))
	}
}

// capacityMinusWaste builds the expression C*time[t] - W[t] used both as
// a monotone quantity in its own right and throughout the network and
// controller invariants as the available-capacity curve.
func capacityMinusWaste(p Params, t Timestep) facade.Expr {
	return facade.Sub(facade.MulF(p.C, facade.VE(t.Time)), facade.VE(t.W))
}
