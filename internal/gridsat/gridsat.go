package gridsat

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnegrim/linkmodel/pkg/facade"
)

// namedVar is the gridsat implementation of facade.Var.
type namedVar struct{ name string }

func (v namedVar) Name() string { return v.name }

// Config tunes the bounded search. A zero Config is usable — every field
// defaults to a value suitable for the small traces this module's own
// tests build (a handful of observations and flows).
type Config struct {
	// BoundLo/BoundHi is the default interval every fresh variable starts
	// in, before any constraint narrows it.
	BoundLo, BoundHi float64
	// Resolution is the branch-candidate spacing used once propagation
	// alone cannot decide a variable.
	Resolution float64
	// MaxNodes bounds the branch-and-bound search; exceeding it surfaces
	// as facade.Unknown rather than hanging.
	MaxNodes int
	// Workers sizes the pool racing top-level disjunction branches. 0
	// means runtime.NumCPU().
	Workers int
	// Metrics, if non-nil, receives query counters and latencies.
	Metrics *Metrics
	// Log, if non-nil, receives structured trace-level diagnostics.
	Log *logrus.Entry
}

func (c Config) withDefaults() Config {
	if c.BoundHi == 0 && c.BoundLo == 0 {
		c.BoundLo, c.BoundHi = -1000, 1000
	}
	if c.Resolution <= 0 {
		c.Resolution = 0.125
	}
	if c.MaxNodes <= 0 {
		c.MaxNodes = 200000
	}
	return c
}

// Solver implements facade.Facade over a bounded rational grid.
type Solver struct {
	mu          sync.Mutex
	cfg         Config
	vars        map[string]namedVar
	constraints []facade.Constraint
	labels      map[int]string
}

// New constructs a Solver.
func New(cfg Config) *Solver {
	return &Solver{
		cfg:    cfg.withDefaults(),
		vars:   make(map[string]namedVar),
		labels: make(map[int]string),
	}
}

func (s *Solver) RealVar(name string) facade.Var {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.vars[name]; ok {
		return v
	}
	v := namedVar{name: name}
	s.vars[name] = v
	return v
}

func (s *Solver) Assert(c facade.Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints = append(s.constraints, c)
}

func (s *Solver) AssertLabeled(label string, c facade.Constraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[len(s.constraints)] = label
	s.constraints = append(s.constraints, c)
}

// labeledNames returns every label recorded for an index below n, in
// assertion order. gridsat has no conflict-analysis machinery to shrink
// this down to a minimal core, so on unsat it reports the full labeled
// assertion set: not minimized, and never listing an unlabeled (Assert)
// constraint even when one takes part in the conflict.
func labeledNames(labels map[int]string, n int) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for i := 0; i < n; i++ {
		if label, ok := labels[i]; ok {
			out = append(out, label)
		}
	}
	return out
}

// CheckSat runs the bounded search. It returns facade.Unknown only when
// the node budget is exhausted; a cancelled ctx is returned as ctx.Err(),
// never as Unknown. A flattening error in a constraint is a
// programmer error in the caller and is returned as a Go error instead.
func (s *Solver) CheckSat(ctx context.Context) (facade.Result, error) {
	s.mu.Lock()
	constraints := append([]facade.Constraint(nil), s.constraints...)
	labels := make(map[int]string, len(s.labels))
	for idx, label := range s.labels {
		labels[idx] = label
	}
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	s.mu.Unlock()

	start := time.Now()
	if s.cfg.Log != nil {
		s.cfg.Log.WithFields(logrus.Fields{
			"vars":        len(names),
			"constraints": len(constraints),
		}).Debug("gridsat: starting CheckSat")
	}

	domains := make(map[string]Domain, len(names))
	lo, hi := big.NewRat(1, 1), big.NewRat(1, 1)
	lo.SetFloat64(s.cfg.BoundLo)
	hi.SetFloat64(s.cfg.BoundHi)
	for _, name := range names {
		domains[name] = Domain{Lo: new(big.Rat).Set(lo), Hi: new(big.Rat).Set(hi)}
	}
	resolution := new(big.Rat)
	resolution.SetFloat64(s.cfg.Resolution)

	state := &searchState{
		cfg: searchConfig{
			resolution: resolution,
			maxNodes:   s.cfg.MaxNodes,
			workers:    s.cfg.Workers,
		},
		original: constraints,
	}

	model, ok := state.solve(ctx, append([]facade.Constraint(nil), constraints...), nil, domains, true)

	budgetExhausted := !ok && state.nodes > state.cfg.maxNodes
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.observeQuery(time.Since(start), ok, ctx.Err() != nil || budgetExhausted)
	}

	if ctx.Err() != nil {
		return facade.Result{}, ctx.Err()
	}
	if !ok {
		if budgetExhausted {
			if s.cfg.Log != nil {
				s.cfg.Log.Warn("gridsat: node budget exhausted, surfacing unknown")
			}
			return facade.Result{Satisfiable: facade.Unknown}, nil
		}
		return facade.Result{Satisfiable: facade.Unsat, UnsatCore: labeledNames(labels, len(constraints))}, nil
	}

	out := make(map[string]*big.Rat, len(model))
	for k, v := range model {
		out[k] = v
	}
	return facade.Result{Satisfiable: facade.Sat, Model: out}, nil
}
