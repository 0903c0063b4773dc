package hook

import "fmt"

// HandlerRuntimeError reports a step that failed during an invocation.
// It is local to that invocation.
type HandlerRuntimeError struct {
	Kind      Kind
	Operation string
	Step      string // "pre[i]", "handler" or "post[i]"
	Err       error
}

func (e *HandlerRuntimeError) Error() string {
	return fmt.Sprintf("%s %q failed at %s: %v", e.Kind, e.Operation, e.Step, e.Err)
}

func (e *HandlerRuntimeError) Unwrap() error { return e.Err }
