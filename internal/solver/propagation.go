package solver

import (
	"context"
	"time"
)

// checkInterval controls how often the search loop looks at the clock.
const checkInterval = 1023

// propagationEngine runs a depth-first search over the variables in
// declaration order, pruning any branch under which a touched constraint can
// no longer be satisfied. Declaration-order scanning makes results
// deterministic for a fixed model.
type propagationEngine struct {
	model
	limit    time.Duration
	solution []int8
}

// newPropagationEngine constructs the primary backend.
func newPropagationEngine() (Engine, error) {
	return &propagationEngine{}, nil
}

func (e *propagationEngine) Name() string { return "propagation" }

func (e *propagationEngine) NewBoolVar(name string) Var {
	return e.newVar(name)
}

func (e *propagationEngine) AddConstraint(expr *LinearExpr, rel Relation, bound int) {
	e.addConstraint(expr, rel, bound)
}

func (e *propagationEngine) SetTimeLimit(d time.Duration) {
	e.limit = d
}

func (e *propagationEngine) Solve(ctx context.Context) Status {
	n := len(e.names)
	values := make([]int8, n)
	for i := range values {
		values[i] = -1
	}

	// Root pruning: a constraint unsatisfiable before any assignment proves
	// infeasibility outright.
	for _, c := range e.constraints {
		if !e.satisfiable(c, values) {
			return StatusInfeasible
		}
	}

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
			return true
		}
		for _, candidate := range [2]int8{1, 0} {
			values[i] = candidate
			ok := true
			for _, ci := range e.varCons[i] {
				if !e.satisfiable(e.constraints[ci], values) {
					ok = false
					break
				}
			}
			if ok && search(i+1) {
				return true
			}
			if expired {
				break
			}
		}
		values[i] = -1
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

func (e *propagationEngine) Value(v Var) int {
	if e.solution == nil {
		return 0
	}
	return int(e.solution[v])
}
