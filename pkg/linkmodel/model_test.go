package linkmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arnegrim/linkmodel/internal/gridsat"
	"github.com/arnegrim/linkmodel/pkg/facade"
)

// newScenarioSolver builds a gridsat.Solver sized for the small traces
// this package's own tests build. Resolution is kept coarse since these
// scenarios only need to witness feasibility, not pin a tight model.
func newScenarioSolver() *gridsat.Solver {
	return gridsat.New(gridsat.Config{
		BoundLo:    -50,
		BoundHi:    50,
		Resolution: 0.5,
		MaxNodes:   400000,
	})
}

// E1: defaults (C=R=D=1, T=10, F=1, inf_buf=true, compose=true) with
// time[T-1] >= 5 and cwnd[.,0]=1, rate[.,0]=0.5 -> sat; the resulting
// trace has rtt[0,0]>0 and a monotone aggregate A.
func TestScenarioE1(t *testing.T) {
	if testing.Short() {
		t.Skip("grid-search scenario, skipped under -short")
	}
	s := newScenarioSolver()
	p := defaultParams()

	m, err := NewModel(s, p)
	require.NoError(t, err)

	s.Assert(facade.Leq(facade.Const(5), facade.VE(m.Steps[p.T-1].Time)))
	for tt := 0; tt < p.T; tt++ {
		require.NoError(t, m.PinCwnd(s, 0, tt, 1))
		require.NoError(t, m.PinRate(s, 0, tt, 0.5))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := m.Query(ctx, s)
	require.NoError(t, err)
	require.Equal(t, facade.Sat, res.Satisfiable)

	rtt0, err := res.Value(m.Flows[0][0].RTT)
	require.NoError(t, err)
	require.True(t, rtt0.Sign() > 0)

	for tt := 1; tt < p.T; tt++ {
		prevA, err := res.Value(m.Steps[tt-1].A)
		require.NoError(t, err)
		curA, err := res.Value(m.Steps[tt].A)
		require.NoError(t, err)
		require.True(t, curA.Cmp(prevA) >= 0)
	}
}

// E4: E1 plus the negation of the A-L monotone property (some A-L goes
// backwards) -> unsat.
func TestScenarioE4(t *testing.T) {
	if testing.Short() {
		t.Skip("grid-search scenario, skipped under -short")
	}
	s := newScenarioSolver()
	p := defaultParams()

	m, err := NewModel(s, p)
	require.NoError(t, err)

	s.Assert(facade.Leq(facade.Const(5), facade.VE(m.Steps[p.T-1].Time)))
	for tt := 0; tt < p.T; tt++ {
		require.NoError(t, m.PinCwnd(s, 0, tt, 1))
		require.NoError(t, m.PinRate(s, 0, tt, 0.5))
	}

	al := func(tt int) facade.Expr {
		return facade.Sub(facade.VE(m.Steps[tt].A), facade.VE(m.Steps[tt].L))
	}
	s.Assert(facade.Lt(al(1), al(0)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := m.Query(ctx, s)
	require.NoError(t, err)
	require.Equal(t, facade.Unsat, res.Satisfiable)
}

// E2: as E1 but inf_buf=false, buf_size=1, F=2, both flows freely
// controlled -> sat; FIFO holds on the returned model by construction
// (it's asserted unconditionally by EmitFIFO, not checked here as a
// counterexample), so this only confirms the composition stays
// satisfiable once loss and a second flow both apply.
func TestScenarioE2(t *testing.T) {
	if testing.Short() {
		t.Skip("grid-search scenario, skipped under -short")
	}
	s := newScenarioSolver()
	p := defaultParams()
	p.InfBuf = false
	p.BufSize = 1
	p.F = 2

	m, err := NewModel(s, p)
	require.NoError(t, err)

	s.Assert(facade.Leq(facade.Const(5), facade.VE(m.Steps[p.T-1].Time)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := m.Query(ctx, s)
	require.NoError(t, err)
	require.Equal(t, facade.Sat, res.Satisfiable)
}

// E3: E1 plus rtt[3,0]=1.5 and A[t] >= A[t-1]+C/2 for all t>=1 -> sat;
// check monotonicity of the returned aggregate A.
func TestScenarioE3(t *testing.T) {
	if testing.Short() {
		t.Skip("grid-search scenario, skipped under -short")
	}
	s := newScenarioSolver()
	p := defaultParams()

	m, err := NewModel(s, p)
	require.NoError(t, err)

	s.Assert(facade.Leq(facade.Const(5), facade.VE(m.Steps[p.T-1].Time)))
	for tt := 0; tt < p.T; tt++ {
		require.NoError(t, m.PinCwnd(s, 0, tt, 1))
		require.NoError(t, m.PinRate(s, 0, tt, 0.5))
	}
	s.Assert(facade.Eq(facade.VE(m.Flows[3][0].RTT), facade.ConstF(1.5)))
	for tt := 1; tt < p.T; tt++ {
		s.Assert(facade.Leq(
			facade.Add(facade.VE(m.Steps[tt-1].A), facade.ConstF(p.C/2)),
			facade.VE(m.Steps[tt].A),
		))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := m.Query(ctx, s)
	require.NoError(t, err)
	require.Equal(t, facade.Sat, res.Satisfiable)

	for tt := 1; tt < p.T; tt++ {
		prevA, err := res.Value(m.Steps[tt-1].A)
		require.NoError(t, err)
		curA, err := res.Value(m.Steps[tt].A)
		require.NoError(t, err)
		require.True(t, curA.Cmp(prevA) >= 0)
	}
}

// E5: E1 plus Δt[5] > min(R,D)+0.01 -> unsat, since the piecewise
// envelope bounds every Δt to [0,D] and D<=R in the default parameters.
func TestScenarioE5(t *testing.T) {
	if testing.Short() {
		t.Skip("grid-search scenario, skipped under -short")
	}
	s := newScenarioSolver()
	p := defaultParams()

	m, err := NewModel(s, p)
	require.NoError(t, err)

	minRD := p.R
	if p.D < minRD {
		minRD = p.D
	}
	s.Assert(facade.Lt(facade.ConstF(minRD+0.01), facade.VE(m.Deltas[5].Y)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := m.Query(ctx, s)
	require.NoError(t, err)
	require.Equal(t, facade.Unsat, res.Satisfiable)
}
