package linkmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arnegrim/linkmodel/internal/gridsat"
	"github.com/arnegrim/linkmodel/pkg/facade"
)

func smallParams() Params {
	return Params{C: 1, R: 1, D: 1, T: 4, F: 1, Compose: true, InfBuf: true}
}

// assertUnsatCounterexample builds m's constraints plus extra (which
// should describe a counterexample to some invariant) and requires the
// combination to be unsat.
func assertUnsatCounterexample(t *testing.T, p Params, build func(m *Model, fc facade.Facade)) {
	t.Helper()
	if testing.Short() {
		t.Skip("grid-search property check, skipped under -short")
	}
	s := gridsat.New(gridsat.Config{BoundLo: -50, BoundHi: 50, Resolution: 0.5, MaxNodes: 400000})
	m, err := NewModel(s, p)
	require.NoError(t, err)
	build(m, s)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := m.Query(ctx, s)
	require.NoError(t, err)
	require.Equal(t, facade.Unsat, res.Satisfiable)
}

// Property 1: bounded inter-observation gap, for several (R,D) pairs.
func TestPropertyBoundedInterObservationGap(t *testing.T) {
	cases := []struct{ r, d float64 }{
		{1, 1}, {1, 2}, {2, 0.5},
	}
	for _, tc := range cases {
		tc := tc
		p := smallParams()
		p.R, p.D = tc.r, tc.d
		minRD := p.R
		if p.D < minRD {
			minRD = p.D
		}
		assertUnsatCounterexample(t, p, func(m *Model, fc facade.Facade) {
			fc.Assert(facade.Lt(facade.ConstF(minRD+0.01), facade.VE(m.Deltas[1].Y)))
		})
	}
}

// Property 3: A-L monotone, aggregate and per flow.
func TestPropertyALMonotone(t *testing.T) {
	p := smallParams()
	assertUnsatCounterexample(t, p, func(m *Model, fc facade.Facade) {
		al := func(tt int) facade.Expr {
			return facade.Sub(facade.VE(m.Steps[tt].A), facade.VE(m.Steps[tt].L))
		}
		fc.Assert(facade.Lt(al(1), al(0)))
	})
}

// Property 4: aggregates equal the sum of per-flow quantities.
func TestPropertyAggregateEqualsSumOfFlows(t *testing.T) {
	p := smallParams()
	p.F = 2
	assertUnsatCounterexample(t, p, func(m *Model, fc facade.Facade) {
		sum := facade.Add(facade.VE(m.Flows[0][0].A), facade.VE(m.Flows[0][1].A))
		fc.Assert(facade.Or(
			facade.Lt(facade.VE(m.Steps[0].A), sum),
			facade.Lt(sum, facade.VE(m.Steps[0].A)),
		))
	})
}

// Property 5: S <= A-L at every (t,f) and in aggregate.
func TestPropertyServiceBoundedByArrivalsMinusLoss(t *testing.T) {
	p := smallParams()
	assertUnsatCounterexample(t, p, func(m *Model, fc facade.Facade) {
		fc.Assert(facade.Lt(facade.Sub(facade.VE(m.Flows[2][0].A), facade.VE(m.Flows[2][0].L)), facade.VE(m.Flows[2][0].S)))
	})
}

// Property 6: L_d <= L at every (t,f).
func TestPropertyObservedLossBoundedByLoss(t *testing.T) {
	p := smallParams()
	p.InfBuf = false
	p.BufSize = 1
	assertUnsatCounterexample(t, p, func(m *Model, fc facade.Facade) {
		fc.Assert(facade.Lt(facade.VE(m.Flows[2][0].L), facade.VE(m.Flows[2][0].Ld)))
	})
}

// Property 7: FIFO consistency, checked via E6-style counterexample:
// aggregate match at (t,tp) without the corresponding per-flow equality.
func TestPropertyFIFOConsistency(t *testing.T) {
	p := smallParams()
	p.F = 2
	p.InfBuf = false
	p.BufSize = 1
	assertUnsatCounterexample(t, p, func(m *Model, fc facade.Facade) {
		obs, earlier := 3, 1
		aggAL := facade.Sub(facade.VE(m.Steps[earlier].A), facade.VE(m.Steps[earlier].L))
		flowAL := facade.Sub(facade.VE(m.Flows[earlier][0].A), facade.VE(m.Flows[earlier][0].L))
		fc.Assert(facade.Eq(facade.VE(m.Steps[obs].S), aggAL))
		fc.Assert(facade.Or(
			facade.Lt(facade.VE(m.Flows[obs][0].S), flowAL),
			facade.Lt(flowAL, facade.VE(m.Flows[obs][0].S)),
		))
	})
}
