package optimization

import "sync/atomic"

// Evaluator wraps a CostFunction, counting calls and attaching context to
// failures. It is safe for concurrent use if the wrapped function is.
type Evaluator struct {
	cost      CostFunction
	component string
	calls     atomic.Int64
}

// NewEvaluator returns an Evaluator for cost on behalf of component.
func NewEvaluator(cost CostFunction, component string) *Evaluator {
	return &Evaluator{cost: cost, component: component}
}

// Eval returns the cost of c. A failing cost function is not retried.
func (e *Evaluator) Eval(c Candidate) (float64, error) {
	e.calls.Add(1)
	v, err := e.cost(c)
	if err != nil {
		return 0, WrapErrorf(err, "cost function failed for candidate %v", []int(c)).
			WithComponent(e.component).
			WithOperation("evaluate")
	}
	return v, nil
}

// Calls returns the number of evaluations so far.
func (e *Evaluator) Calls() int {
	return int(e.calls.Load())
}
