// Package solver provides a narrow boolean integer-program contract and two
// pure-Go backends implementing it. Models declare 0/1 decision variables,
// attach linear (in)equality constraints, and ask for any satisfying
// assignment; there is no objective, so a found solution is reported as
// optimal.
package solver

import (
	"context"
	"time"
)

// Status is the outcome of a Solve call.
type Status int

const (
	// StatusOptimal means a solution was found and no objective remains to
	// improve (feasibility problems report this on the first solution).
	StatusOptimal Status = iota
	// StatusFeasible means a solution was found but optimality was not proven.
	StatusFeasible
	// StatusInfeasible means the constraint system was proven unsatisfiable.
	StatusInfeasible
	// StatusNotSolved means the backend gave up (time budget or cancellation)
	// without proving anything either way.
	StatusNotSolved
)

// Solved reports whether variable values may be read back.
func (s Status) Solved() bool {
	return s == StatusOptimal || s == StatusFeasible
}

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "NOT_SOLVED"
	}
}

// Relation is the comparison between a linear expression and its bound.
type Relation int

const (
	// LessOrEqual constrains the expression to be at most the bound.
	LessOrEqual Relation = iota
	// Equal constrains the expression to match the bound exactly.
	Equal
)

// Var is a handle to a boolean decision variable within one engine instance.
// Handles are not portable across engines.
type Var int

// Term is a coefficient applied to a variable.
type Term struct {
	Var   Var
	Coeff int
}

// LinearExpr accumulates integer-weighted variable terms.
type LinearExpr struct {
	terms []Term
}

// NewLinearExpr returns an empty expression.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// Add appends a term and returns the expression for chaining.
func (e *LinearExpr) Add(v Var, coeff int) *LinearExpr {
	e.terms = append(e.terms, Term{Var: v, Coeff: coeff})
	return e
}

// Terms exposes the accumulated terms.
func (e *LinearExpr) Terms() []Term {
	return e.terms
}

// Sum builds a unit-coefficient expression over the given variables.
func Sum(vars ...Var) *LinearExpr {
	e := &LinearExpr{terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.terms = append(e.terms, Term{Var: v, Coeff: 1})
	}
	return e
}

// Engine is the solving contract consumed by the scheduling models.
// Implementations are single-use: build the model, solve once, read values.
type Engine interface {
	// NewBoolVar declares a 0/1 decision variable. The name is kept for
	// debugging only and need not be unique.
	NewBoolVar(name string) Var
	// AddConstraint attaches expr <relation> bound to the model.
	AddConstraint(expr *LinearExpr, rel Relation, bound int)
	// SetTimeLimit bounds the wall-clock time of the next Solve call.
	// A zero or negative duration removes the limit.
	SetTimeLimit(d time.Duration)
	// Solve searches for a satisfying assignment. The context's deadline and
	// cancellation are honored in addition to the configured time limit.
	Solve(ctx context.Context) Status
	// Value returns the solved 0/1 value of a variable. Valid only after
	// Solve returned a solved status.
	Value(v Var) int
	// Name identifies the backend for run metadata.
	Name() string
}

// model is the constraint store shared by both backends.
type model struct {
	names       []string
	constraints []constraint
	// varCons indexes constraints by the variables they touch so partial
	// assignments only re-check what changed.
	varCons [][]int
}

type constraint struct {
	terms []Term
	rel   Relation
	bound int
}

func (m *model) newVar(name string) Var {
	m.names = append(m.names, name)
	m.varCons = append(m.varCons, nil)
	return Var(len(m.names) - 1)
}

func (m *model) addConstraint(expr *LinearExpr, rel Relation, bound int) {
	if expr == nil {
		return
	}
	idx := len(m.constraints)
	terms := make([]Term, len(expr.terms))
	copy(terms, expr.terms)
	m.constraints = append(m.constraints, constraint{terms: terms, rel: rel, bound: bound})
	for _, t := range terms {
		m.varCons[t.Var] = append(m.varCons[t.Var], idx)
	}
}

// bounds computes the reachable [lo, hi] of a constraint's expression under a
// partial assignment (-1 marks unassigned variables).
func (m *model) bounds(c constraint, values []int8) (int, int) {
	lo, hi := 0, 0
	for _, t := range c.terms {
		switch v := values[t.Var]; v {
		case -1:
			if t.Coeff > 0 {
				hi += t.Coeff
			} else {
				lo += t.Coeff
			}
		default:
			fixed := t.Coeff * int(v)
			lo += fixed
			hi += fixed
		}
	}
	return lo, hi
}

// satisfiable reports whether the constraint can still be met.
func (m *model) satisfiable(c constraint, values []int8) bool {
	lo, hi := m.bounds(c, values)
	if c.rel == Equal {
		return lo <= c.bound && hi >= c.bound
	}
	return lo <= c.bound
}

// deadlineFor merges the engine time limit with the context deadline.
func deadlineFor(ctx context.Context, limit time.Duration) (time.Time, bool) {
	var deadline time.Time
	if limit > 0 {
		deadline = time.Now().Add(limit)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok {
		if deadline.IsZero() || ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
	}
	return deadline, !deadline.IsZero()
}
