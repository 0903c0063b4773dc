package schema

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/anhldbk/graphqly/internal/cache"
	"github.com/anhldbk/graphqly/internal/hook"
	"github.com/anhldbk/graphqly/internal/logging"
	"github.com/anhldbk/graphqly/internal/pubsub"
	"github.com/anhldbk/graphqly/internal/validate"
)

// ResolveFunc is an operation handler. For subscriptions source is the
// published payload.
type ResolveFunc func(ctx context.Context, source any, args map[string]any) (any, error)

// FilterFunc decides whether a published payload reaches a subscriber.
type FilterFunc func(ctx context.Context, payload any, args map[string]any) (bool, error)

// Metadata keys set by the builder itself.
const (
	MetaCacheTTL        = "cache.ttl"
	MetaCacheMaxEntries = "cache.max_entries"
)

// Operation is a query, mutation or subscription registered on a Builder.
// It is the scope its hook chain runs in: steps receive it as hook.Scope and
// can log, read metadata and publish through it.
type Operation struct {
	b *Builder

	kind      hook.Kind
	name      string
	signature string
	deps      []string
	handler   ResolveFunc
	before    []hook.Factory
	after     []hook.Factory
	filter    FilterFunc
	rules     validate.Rules
	cache     *cache.Cache
	catch     bool
	err       error

	mu   sync.RWMutex
	meta map[string]any

	// set by Build
	channel  pubsub.Channel
	pipeline *hook.Pipeline
}

func (o *Operation) Kind() hook.Kind { return o.kind }
func (o *Operation) Name() string    { return o.name }

// Signature returns the text emitted into the root type block.
func (o *Operation) Signature() string { return o.signature }

// Dependencies returns the non-builtin type names the signature references.
func (o *Operation) Dependencies() []string { return o.deps }

// Err returns the first registration error raised on o.
func (o *Operation) Err() error { return o.err }

func (o *Operation) fail(reason string) *Operation {
	err := &RegistrationError{Kind: string(o.kind), Name: o.name, Reason: reason}
	if o.err == nil {
		o.err = err
	}
	o.b.record(err)
	return o
}

// Resolve attaches the handler. Queries and mutations require one;
// subscriptions default to passing the published payload through.
func (o *Operation) Resolve(fn ResolveFunc) *Operation {
	if fn == nil {
		return o.fail("invalid resolving function")
	}
	o.handler = fn
	return o
}

// Map is Resolve for subscriptions: it transforms each published payload.
func (o *Operation) Map(fn ResolveFunc) *Operation { return o.Resolve(fn) }

// Hook registers a step factory at point for this operation only. The point's
// kind must match the operation's.
func (o *Operation) Hook(point string, f hook.Factory) *Operation {
	p, err := hook.ParsePoint(point)
	if err != nil {
		return o.fail(err.Error())
	}
	if p.Kind != o.kind {
		return o.fail("hook point " + strconv.Quote(point) + " does not apply to a " + string(o.kind))
	}
	if f == nil {
		return o.fail("invalid hook handler")
	}
	if p.Stage == hook.Pre {
		o.before = append(o.before, f)
	} else {
		o.after = append(o.after, f)
	}
	return o
}

// Before runs step ahead of the handler, after any kind-wide pre hooks.
func (o *Operation) Before(step hook.Step) *Operation {
	if step == nil {
		return o.fail("invalid hook handler")
	}
	o.before = append(o.before, constant(step))
	return o
}

// After runs step after the handler, ahead of any kind-wide post hooks.
func (o *Operation) After(step hook.Step) *Operation {
	if step == nil {
		return o.fail("invalid hook handler")
	}
	o.after = append(o.after, constant(step))
	return o
}

func constant(step hook.Step) hook.Factory { return func(hook.Scope) hook.Step { return step } }

// Filter drops published payloads fn rejects. Subscriptions only.
func (o *Operation) Filter(fn FilterFunc) *Operation {
	switch {
	case o.kind != hook.KindSubscription:
		return o.fail("only a subscription can filter payloads")
	case fn == nil:
		return o.fail("invalid filter function")
	}
	o.filter = fn
	return o
}

// Validate checks arguments against rules with the builder's validator before
// any operation-local step runs.
func (o *Operation) Validate(rules validate.Rules) *Operation {
	if len(rules) == 0 {
		return o.fail("validation rules must not be empty")
	}
	o.rules = rules
	return o
}

// Cache memoizes handler results per argument set for ttl, keeping at most
// maxEntries argument sets (cache.DefaultMaxEntries when maxEntries <= 0).
// Queries only.
func (o *Operation) Cache(ttl time.Duration, maxEntries int) *Operation {
	switch {
	case o.kind != hook.KindQuery:
		return o.fail("only a query can be cached")
	case ttl <= 0:
		return o.fail("cache ttl must be positive")
	}
	o.cache = cache.New(cache.Options{TTL: ttl, MaxEntries: maxEntries})
	return o.Set(MetaCacheTTL, o.cache.TTL()).Set(MetaCacheMaxEntries, o.cache.MaxEntries())
}

// CatchErrors makes failures resolve to no value after being logged through
// the builder's logger, instead of surfacing to the caller.
func (o *Operation) CatchErrors() *Operation {
	o.catch = true
	return o
}

// Set stores a metadata value. Metadata is opaque to the builder.
func (o *Operation) Set(key string, value any) *Operation {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.meta == nil {
		o.meta = make(map[string]any)
	}
	o.meta[key] = value
	return o
}

// Get returns a metadata value.
func (o *Operation) Get(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.meta[key]
	return v, ok
}

// Publish sends payload to subscribers of event through the channel the
// builder owns. It fails with ErrChannelUnavailable before Build.
func (o *Operation) Publish(ctx context.Context, event string, payload any) error {
	if o.channel == nil {
		return ErrChannelUnavailable
	}
	return o.channel.Publish(ctx, event, payload)
}

func (o *Operation) logger() logging.Logger { return o.b.opt.logger }

func (o *Operation) Silly(args ...any)   { o.logger().Silly(args...) }
func (o *Operation) Debug(args ...any)   { o.logger().Debug(args...) }
func (o *Operation) Verbose(args ...any) { o.logger().Verbose(args...) }
func (o *Operation) Info(args ...any)    { o.logger().Info(args...) }
func (o *Operation) Warn(args ...any)    { o.logger().Warn(args...) }
func (o *Operation) Error(args ...any)   { o.logger().Error(args...) }

// compose builds o's chain: kind-wide pre hooks, argument validation,
// operation pre steps, the handler, operation post steps, kind-wide post hooks.
func (o *Operation) compose(global map[hook.Point][]hook.Factory) *hook.Pipeline {
	var pre, post []hook.Step
	for _, f := range global[hook.Point{Stage: hook.Pre, Kind: o.kind}] {
		pre = append(pre, f(o))
	}
	if o.rules != nil {
		pre = append(pre, validationStep(o.b.opt.validator, o.rules))
	}
	for _, f := range o.before {
		pre = append(pre, f(o))
	}
	for _, f := range o.after {
		post = append(post, f(o))
	}
	for _, f := range global[hook.Point{Stage: hook.Post, Kind: o.kind}] {
		post = append(post, f(o))
	}

	fn := o.handler
	if fn == nil {
		fn = identity
	}
	if o.cache != nil {
		fn = cached(o.cache, o.name, fn)
	}
	return hook.Compose(o, pre, handlerStep(fn), post)
}

// resolver exposes the composed chain as a ResolveFunc.
func (o *Operation) resolver() ResolveFunc {
	h := o.pipeline.Handler()
	if o.catch {
		h = hook.CatchErrors(h, o)
	}
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return h(ctx, hook.Params{source, args})
	}
}

// subscriber returns the stream factory for a subscription, bound to the
// operation name as event.
func (o *Operation) subscriber() SubscribeFunc {
	return func(ctx context.Context, args map[string]any) (<-chan any, error) {
		in, err := o.channel.Subscribe(ctx, o.name)
		if err != nil {
			return nil, err
		}
		if o.filter == nil {
			return in, nil
		}
		out := make(chan any)
		go func() {
			defer close(out)
			for payload := range in {
				ok, err := o.filter(ctx, payload, args)
				if err != nil {
					o.Warn("subscription ", o.name, ": filter failed: ", err)
					continue
				}
				if !ok {
					continue
				}
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}

func identity(_ context.Context, source any, _ map[string]any) (any, error) { return source, nil }

func handlerStep(fn ResolveFunc) hook.Step {
	return func(ctx context.Context, _ hook.Scope, in hook.Params, _ hook.Done) hook.Result {
		args, _ := in.At(1).(map[string]any)
		return hook.From(fn(ctx, in.At(0), args))
	}
}

func validationStep(v validate.Validator, rules validate.Rules) hook.Step {
	return func(ctx context.Context, _ hook.Scope, in hook.Params, _ hook.Done) hook.Result {
		args, _ := in.At(1).(map[string]any)
		if err := v.Validate(ctx, args, rules); err != nil {
			return hook.Fail(err)
		}
		return hook.Continue(in...)
	}
}

func cached(c *cache.Cache, name string, fn ResolveFunc) ResolveFunc {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		key, err := cache.Key(name, args)
		if err != nil {
			return nil, err
		}
		v, _, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
			return fn(ctx, source, args)
		})
		return v, err
	}
}
