package hook

// Params is the positional argument tuple threaded through a chain. Handlers
// receive (source, args); every later step receives what the previous step
// continued with.
type Params []any

// At returns the i-th parameter or nil when out of range.
func (p Params) At(i int) any {
	if i < 0 || i >= len(p) {
		return nil
	}
	return p[i]
}

// First returns the leading parameter, which is the chain's value once the
// last step has run.
func (p Params) First() any { return p.At(0) }

type resultKind int

const (
	continued resultKind = iota
	shortCircuited
	failed
)

// Result is what a step hands back to the pipeline. The zero value continues
// with no parameters.
type Result struct {
	kind   resultKind
	params Params
	value  any
	err    error
}

// Continue passes values on as the next step's parameters.
func Continue(values ...any) Result { return Result{kind: continued, params: values} }

// ShortCircuit ends the chain successfully with value. A nil value is a
// legitimate result.
func ShortCircuit(value any) Result { return Result{kind: shortCircuited, value: value} }

// Fail ends the chain with err.
func Fail(err error) Result { return Result{kind: failed, err: err} }

// From converts a conventional (value, error) pair into a Result.
func From(value any, err error) Result {
	if err != nil {
		return Fail(err)
	}
	return Continue(value)
}

func (r Result) IsShortCircuit() bool { return r.kind == shortCircuited }
func (r Result) IsFailure() bool      { return r.kind == failed }

// Params returns the parameters a continuing result carries.
func (r Result) Params() Params { return r.params }

// Value returns the short-circuit value.
func (r Result) Value() any { return r.value }

// Err returns the failure, if any.
func (r Result) Err() error { return r.err }
