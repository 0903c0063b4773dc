// Package hook composes an operation handler with ordered pre and post steps.
//
// A composed chain is [pre..., handler, post...]. Steps run one after another,
// never concurrently; each step's continued Params become the next step's
// input. Any step may end the chain early by returning done(value), which is
// a successful result and distinct from Fail. A failure stops the chain and
// is reported as a *HandlerRuntimeError.
package hook

import (
	"context"
	"fmt"
	"time"

	eventbus "github.com/anhldbk/graphqly/internal/eventbus"
	events "github.com/anhldbk/graphqly/internal/events"
	logging "github.com/anhldbk/graphqly/internal/logging"
	reqid "github.com/anhldbk/graphqly/internal/reqid"
)

// Scope is the owner every step of a chain is bound to, typically the
// operation the chain belongs to. It gives hook bodies access to shared
// per-operation state without re-passing it.
type Scope interface {
	logging.Logger
	Name() string
	Kind() Kind
	Get(key string) (any, bool)
	Publish(ctx context.Context, event string, payload any) error
}

// Done ends the chain with value. Steps return its result: `return done(v)`.
type Done func(value any) Result

// Step is one link of a chain.
type Step func(ctx context.Context, s Scope, in Params, done Done) Result

// Factory builds a step for a given owner. Factories registered for a kind
// are invoked once per operation of that kind, so each operation holds its
// own step instance.
type Factory func(s Scope) Step

// Handler is a composed chain ready to be invoked.
type Handler func(ctx context.Context, in Params) (any, error)

type link struct {
	label string
	step  Step
}

// Pipeline is a composed chain bound to its scope.
type Pipeline struct {
	scope Scope
	links []link
}

// Compose builds the chain pre..., handler, post... bound to s.
func Compose(s Scope, pre []Step, handler Step, post []Step) *Pipeline {
	p := &Pipeline{scope: s, links: make([]link, 0, len(pre)+len(post)+1)}
	for i, st := range pre {
		p.links = append(p.links, link{label: fmt.Sprintf("pre[%d]", i), step: st})
	}
	p.links = append(p.links, link{label: "handler", step: handler})
	for i, st := range post {
		p.links = append(p.links, link{label: fmt.Sprintf("post[%d]", i), step: st})
	}
	return p
}

// Len reports the number of steps in the chain.
func (p *Pipeline) Len() int { return len(p.links) }

func done(value any) Result { return ShortCircuit(value) }

// Invoke runs the chain with in as the first step's parameters. The result is
// the short-circuit value if a step called done, otherwise the first parameter
// the last step continued with.
func (p *Pipeline) Invoke(ctx context.Context, in Params) (value any, err error) {
	ctx, _ = reqid.NewContext(ctx)
	kind, name := string(p.scope.Kind()), p.scope.Name()
	start := time.Now()
	outcome := events.OutcomeOK
	eventbus.Publish(ctx, events.OperationStart{Kind: kind, Operation: name})
	defer func() {
		eventbus.Publish(ctx, events.OperationFinish{
			Kind: kind, Operation: name, Outcome: outcome, Err: err, Duration: time.Since(start),
		})
	}()

	params := in
	for _, l := range p.links {
		r := p.run(ctx, l.step, params)
		switch r.kind {
		case shortCircuited:
			outcome = events.OutcomeShortCircuit
			return r.value, nil
		case failed:
			outcome = events.OutcomeError
			return nil, &HandlerRuntimeError{Kind: p.scope.Kind(), Operation: name, Step: l.label, Err: r.err}
		}
		params = r.params
	}
	return params.First(), nil
}

func (p *Pipeline) run(ctx context.Context, st Step, in Params) (r Result) {
	defer func() {
		if v := recover(); v != nil {
			r = Fail(fmt.Errorf("panic: %v", v))
		}
	}()
	return st(ctx, p.scope, in, done)
}

// Handler returns Invoke as a Handler value.
func (p *Pipeline) Handler() Handler { return p.Invoke }

// Outcome is the settled result of an asynchronous invocation.
type Outcome struct {
	Value any
	Err   error
}

// Go invokes the chain on its own goroutine. The returned channel receives
// exactly one Outcome.
func (p *Pipeline) Go(ctx context.Context, in Params) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		v, err := p.Invoke(ctx, in)
		ch <- Outcome{Value: v, Err: err}
	}()
	return ch
}

// CatchErrors returns a handler that logs failures of h through log and
// resolves them to no value instead of an error.
func CatchErrors(h Handler, log logging.Logger) Handler {
	log = logging.OrNop(log)
	return func(ctx context.Context, in Params) (any, error) {
		v, err := h(ctx, in)
		if err != nil {
			log.Error(err)
			return nil, nil
		}
		return v, nil
	}
}
