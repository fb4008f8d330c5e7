package solver

import (
	"context"
	"time"
)

// enumerationEngine walks complete assignments depth-first and checks the
// full constraint set only at the leaves. It exists as a fallback with no
// pruning machinery to go wrong; on large models it relies on the time limit
// to bail out with StatusNotSolved.
type enumerationEngine struct {
	model
	limit    time.Duration
	solution []int8
}

// newEnumerationEngine constructs the fallback backend.
func newEnumerationEngine() (Engine, error) {
	return &enumerationEngine{}, nil
}

func (e *enumerationEngine) Name() string { return "enumeration" }

func (e *enumerationEngine) NewBoolVar(name string) Var {
	return e.newVar(name)
}

func (e *enumerationEngine) AddConstraint(expr *LinearExpr, rel Relation, bound int) {
	e.addConstraint(expr, rel, bound)
}

func (e *enumerationEngine) SetTimeLimit(d time.Duration) {
	e.limit = d
}

func (e *enumerationEngine) Solve(ctx context.Context) Status {
	n := len(e.names)
	values := make([]int8, n)

	deadline, hasDeadline := deadlineFor(ctx, e.limit)
	var nodes uint64
	expired := false

	var search func(i int) bool
	search = func(i int) bool {
		nodes++
		if nodes&checkInterval == 0 {
			if ctx.Err() != nil || (hasDeadline && time.Now().After(deadline)) {
				expired = true
			}
		}
		if expired {
			return false
		}
		if i == n {
			for _, c := range e.constraints {
				if !e.holds(c, values) {
					return false
				}
			}
			return true
		}
		for _, candidate := range [2]int8{1, 0} {
			values[i] = candidate
			if search(i + 1) {
				return true
			}
			if expired {
				break
			}
		}
		return false
	}

	if search(0) {
		e.solution = values
		return StatusOptimal
	}
	if expired {
		return StatusNotSolved
	}
	return StatusInfeasible
}

func (e *enumerationEngine) holds(c constraint, values []int8) bool {
	total := 0
	for _, t := range c.terms {
		total += t.Coeff * int(values[t.Var])
	}
	if c.rel == Equal {
		return total == c.bound
	}
	return total <= c.bound
}

func (e *enumerationEngine) Value(v Var) int {
	if e.solution == nil {
		return 0
	}
	return int(e.solution[v])
}
