package chain

import "fmt"

// UnresolvedReferenceError reports a step operand that references the
// step's own position or a later one. Chains are strictly sequential;
// forward and self references are authoring errors.
type UnresolvedReferenceError struct {
	Step int
	Ref  string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("step %d: unresolved reference %q (steps may only reference earlier steps)", e.Step, e.Ref)
}

// StepTypeError reports an operation applied to an input it has no
// contract for, naming the offending step. It aborts validation of the
// task; authoring errors are not retried.
type StepTypeError struct {
	Step   int
	Op     string
	Detail string
}

func (e *StepTypeError) Error() string {
	return fmt.Sprintf("step %d (%s): %s", e.Step, e.Op, e.Detail)
}
