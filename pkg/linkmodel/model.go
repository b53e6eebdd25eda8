package linkmodel

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// Model is the fully declared and constrained symbolic trace for one
// query: every Timestep and FlowState, the optional epsilon/buf
// variables, the per-observation Δt piecewise variables, and the
// bookkeeping (memoized existence atoms, optional observability) shared
// across every constraint-emitting component.
type Model struct {
	Params Params
	Steps  []Timestep
	Flows  [][]FlowState
	Epsilon facade.Var
	Buf     facade.Var
	// Deltas[t] is the Δt piecewise variable for observation t; Deltas[0]
	// is nil, since Δt is only defined for t>=1.
	Deltas []*Piecewise

	log     *logrus.Entry
	metrics *Metrics

	earlierMemo map[string]facade.Constraint
}

// Metrics holds the optional Prometheus instrumentation for a Model's
// queries: how many were issued, their outcome, and how long CheckSat
// took. A nil *Metrics is a valid, no-op configuration.
type Metrics struct {
	queries  *prometheus.CounterVec
	duration prometheus.Histogram
	varCount prometheus.Gauge
}

// NewMetrics builds and registers a Metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkmodel",
			Name:      "queries_total",
			Help:      "Query calls issued against a linkmodel.Model, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linkmodel",
			Name:      "query_duration_seconds",
			Help:      "Wall-clock time spent in Model.Query.",
			Buckets:   prometheus.DefBuckets,
		}),
		varCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "linkmodel",
			Name:      "declared_variables",
			Help:      "Number of symbolic variables declared by the most recently built Model.",
		}),
	}
	reg.MustRegister(m.queries, m.duration, m.varCount)
	return m
}

// assertFn returns the assertion entry point every constraint-emitting
// component threads its conjuncts through: labeled, under a name unique
// within the Model, when the parameter block requests unsat-core
// support; a plain unlabeled assert otherwise, for speed.
func (m *Model) assertFn(fc facade.Facade) func(label string, c facade.Constraint) {
	if !m.Params.UnsatCore {
		return func(_ string, c facade.Constraint) { fc.Assert(c) }
	}
	return func(label string, c facade.Constraint) { fc.AssertLabeled(label, c) }
}

// Option configures a Model at construction time.
type Option func(*Model)

// WithLogger attaches structured, leveled tracing of each
// constraint-emission phase.
func WithLogger(log *logrus.Entry) Option {
	return func(m *Model) { m.log = log }
}

// WithMetrics attaches Prometheus instrumentation. A nil metrics value
// is equivalent to omitting the option.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Model) { m.metrics = metrics }
}

// NewModel builds the complete constraint system for p against fc,
// performing the composition in order: aggregate-equals-
// sum and optional declarations (state declaration), monotonicity,
// initial conditions, network invariants, loss-and-rtt, controller
// coupling, and multi-flow FIFO (only when F>1).
func NewModel(fc facade.Facade, p Params, opts ...Option) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		Params:      p,
		earlierMemo: make(map[string]facade.Constraint),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.log != nil {
		m.log.WithFields(logrus.Fields{"T": p.T, "F": p.F}).Debug("linkmodel: declaring state")
	}
	steps, flows, epsilon, buf := declareState(fc, m)
	m.Steps, m.Flows, m.Epsilon, m.Buf = steps, flows, epsilon, buf

	if err := m.declareDeltas(fc); err != nil {
		return nil, err
	}

	emitMonotonicity(fc, m)
	emitInitialConditions(fc, m)

	if m.log != nil {
		m.log.Debug("linkmodel: emitting network invariants")
	}
	if err := EmitNetworkInvariants(m, fc); err != nil {
		return nil, fmt.Errorf("linkmodel: network invariants: %w", err)
	}

	if m.log != nil {
		m.log.Debug("linkmodel: emitting loss-delay/rtt machinery")
	}
	if err := EmitLossDelayRTT(m, fc); err != nil {
		return nil, fmt.Errorf("linkmodel: loss-delay/rtt: %w", err)
	}

	if m.log != nil {
		m.log.Debug("linkmodel: emitting controller coupling")
	}
	if err := EmitControllerCoupling(m, fc); err != nil {
		return nil, fmt.Errorf("linkmodel: controller coupling: %w", err)
	}

	if p.F > 1 {
		if m.log != nil {
			m.log.Debug("linkmodel: emitting multi-flow FIFO")
		}
		if err := EmitFIFO(m, fc); err != nil {
			return nil, fmt.Errorf("linkmodel: FIFO: %w", err)
		}
	}

	if m.metrics != nil {
		m.metrics.varCount.Set(float64(m.variableCount()))
	}

	return m, nil
}

// declareDeltas allocates the Δt piecewise variable for every t>=1 over
// the {0, .25D, .5D, .75D, D} partition, constrained so
// Δt[t] = time[t]-time[t-1].
func (m *Model) declareDeltas(fc facade.Facade) error {
	p := m.Params
	m.Deltas = make([]*Piecewise, p.T)
	breakpoints := deltaBreakpoints(p.D)
	pieces := deltaPieces()

	for t := 1; t < p.T; t++ {
		diff := facade.Sub(facade.VE(m.Steps[t].Time), facade.VE(m.Steps[t-1].Time))
		pw, err := NewPiecewise(fc, deltaName(t), diff, breakpoints, pieces)
		if err != nil {
			return err
		}
		m.Deltas[t] = pw
	}
	return nil
}

func (m *Model) checkIndices(flow, t int) error {
	if flow < 0 || flow >= m.Params.F {
		return fmt.Errorf("linkmodel: flow index %d out of range [0,%d)", flow, m.Params.F)
	}
	if t < 0 || t >= m.Params.T {
		return fmt.Errorf("linkmodel: observation index %d out of range [0,%d)", t, m.Params.T)
	}
	return nil
}

// variableCount returns the number of symbols this Model declared, for
// the observability gauge only.
func (m *Model) variableCount() int {
	n := len(m.Steps) * 5
	n += len(m.Steps) * m.Params.F * 7
	n += (len(m.Steps) - 1) * 2          // Δt's y and witness, per t>=1
	n += (len(m.Steps) - 1) * m.Params.F // piecewiseMultiply's product, per t>=1 and flow
	if m.Epsilon != nil {
		n++
	}
	if m.Buf != nil {
		n++
	}
	return n
}

// Result is the outcome of a Query: the three-way satisfiability verdict
// plus, on Sat, a typed accessor for every declared variable's value.
type Result struct {
	Satisfiable facade.Satisfiable
	Model       *Model
	raw         facade.Result
}

// Value looks up v in the sat model, returning a MissingVariableError
// if the solver's model omitted it.
func (r Result) Value(v facade.Var) (*big.Rat, error) {
	val, ok := r.raw.Value(v)
	if !ok {
		return nil, &MissingVariableError{Name: v.Name()}
	}
	return val, nil
}

// UnsatCore returns the labeled assertions implicated in an unsat
// result, if the facade produced one.
func (r Result) UnsatCore() []string { return r.raw.UnsatCore }

// Query runs fc.CheckSat and wraps the outcome as a Result tied back to
// m, so callers can resolve variable values through Result.Value.
func (m *Model) Query(ctx context.Context, fc facade.Facade) (Result, error) {
	start := time.Now()
	raw, err := fc.CheckSat(ctx)
	if m.metrics != nil {
		m.metrics.duration.Observe(time.Since(start).Seconds())
		m.metrics.queries.WithLabelValues(raw.Satisfiable.String()).Inc()
	}
	if m.log != nil {
		m.log.WithField("satisfiable", raw.Satisfiable.String()).Debug("linkmodel: query complete")
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Satisfiable: raw.Satisfiable, Model: m, raw: raw}, nil
}
