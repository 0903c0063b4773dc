package schema

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	eventbus "github.com/anhldbk/graphqly/internal/eventbus"
	events "github.com/anhldbk/graphqly/internal/events"
	"github.com/anhldbk/graphqly/internal/fragment"
	"github.com/anhldbk/graphqly/internal/hook"
	"github.com/anhldbk/graphqly/internal/language"
	"github.com/anhldbk/graphqly/internal/logging"
	"github.com/anhldbk/graphqly/internal/pubsub"
	reqid "github.com/anhldbk/graphqly/internal/reqid"
	"github.com/anhldbk/graphqly/internal/validate"
)

type options struct {
	logger    logging.Logger
	channel   pubsub.Channel
	validator validate.Validator
	sdl       bool
}

// Option configures a Builder.
type Option func(*options)

// WithLogger routes operation and builder logging to l.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = logging.OrNop(l) }
}

// WithPubSub sets the channel subscriptions listen on and Operation.Publish
// sends to. The default is an in-memory channel owned by the builder.
func WithPubSub(ch pubsub.Channel) Option {
	return func(o *options) {
		if ch != nil {
			o.channel = ch
		}
	}
}

// WithValidator sets the validator used by Operation.Validate.
func WithValidator(v validate.Validator) Option {
	return func(o *options) {
		if v != nil {
			o.validator = v
		}
	}
}

// WithSDLValidation makes Build load the rendered text with gqlparser and
// fail on any schema error.
func WithSDLValidation() Option {
	return func(o *options) { o.sdl = true }
}

// Builder registers structures and operations and assembles them into a
// schema. Registration is not safe for concurrent use; the handlers a
// successful Build returns are.
type Builder struct {
	opt options

	structures map[StructureKind][]*Structure
	names      map[string]*Structure
	operations map[hook.Kind][]*Operation
	opNames    map[string]*Operation
	hooks      map[hook.Point][]hook.Factory
	errs       []error

	text string
}

// New returns an empty Builder.
func New(opts ...Option) *Builder {
	o := options{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.channel == nil {
		o.channel = pubsub.NewMemory(0)
	}
	if o.validator == nil {
		o.validator = validate.NewPlayground()
	}
	return &Builder{
		opt:        o,
		structures: make(map[StructureKind][]*Structure),
		names:      make(map[string]*Structure),
		operations: make(map[hook.Kind][]*Operation),
		opNames:    make(map[string]*Operation),
		hooks:      make(map[hook.Point][]hook.Factory),
	}
}

func (b *Builder) record(err error) { b.errs = append(b.errs, err) }

// Err returns every registration error raised so far, joined.
func (b *Builder) Err() error { return errors.Join(b.errs...) }

// Channel returns the publish/subscribe channel the builder owns.
func (b *Builder) Channel() pubsub.Channel { return b.opt.channel }

// Use runs provider against b, letting packages contribute definitions.
func (b *Builder) Use(provider func(*Builder)) *Builder {
	if provider == nil {
		b.record(&RegistrationError{Kind: "provider", Reason: "invalid provider"})
		return b
	}
	provider(b)
	return b
}

func (b *Builder) Type(name string) *Structure      { return b.structure(KindType, name) }
func (b *Builder) Interface(name string) *Structure { return b.structure(KindInterface, name) }
func (b *Builder) Input(name string) *Structure     { return b.structure(KindInput, name) }
func (b *Builder) Enum(name string) *Structure      { return b.structure(KindEnum, name) }

// structure registers a new structure. Names share one namespace across all
// four kinds. An invalid registration returns a detached handle carrying the
// error.
func (b *Builder) structure(kind StructureKind, name string) *Structure {
	s := &Structure{b: b, kind: kind, name: name}
	if !fragment.IsName(name) || fragment.IsBuiltin(name) {
		return s.fail("invalid name")
	}
	if prev, ok := b.names[name]; ok {
		return s.fail("redefinition of " + string(prev.kind) + " " + strconv.Quote(name))
	}
	b.names[name] = s
	b.structures[kind] = append(b.structures[kind], s)
	return s
}

// Structure looks up a registered structure by name.
func (b *Builder) Structure(name string) (*Structure, bool) {
	s, ok := b.names[name]
	return s, ok
}

func (b *Builder) Query(signature string) *Operation {
	return b.operation(hook.KindQuery, signature)
}

func (b *Builder) Mutation(signature string) *Operation {
	return b.operation(hook.KindMutation, signature)
}

func (b *Builder) Subscription(signature string) *Operation {
	return b.operation(hook.KindSubscription, signature)
}

// operation registers a new operation named after its signature. Names share
// one namespace across queries, mutations and subscriptions.
func (b *Builder) operation(kind hook.Kind, signature string) *Operation {
	name := fragment.NameOf(signature)
	o := &Operation{
		b:         b,
		kind:      kind,
		name:      name,
		signature: trimBlankLines(signature),
		deps:      fragment.DependenciesOf(signature),
	}
	if !fragment.IsName(name) {
		return o.fail("invalid " + string(kind) + " signature " + strconv.Quote(signature))
	}
	if prev, ok := b.opNames[name]; ok {
		return o.fail("redefinition of " + string(prev.kind) + " " + strconv.Quote(name))
	}
	b.opNames[name] = o
	b.operations[kind] = append(b.operations[kind], o)
	return o
}

// Operation looks up a registered operation by name.
func (b *Builder) Operation(name string) (*Operation, bool) {
	o, ok := b.opNames[name]
	return o, ok
}

// Hook registers f at point for every operation of the point's kind. f is
// invoked once per operation on each Build.
func (b *Builder) Hook(point string, f hook.Factory) error {
	p, err := hook.ParsePoint(point)
	if err != nil {
		err = &RegistrationError{Kind: "hook", Name: point, Reason: err.Error()}
		b.record(err)
		return err
	}
	if f == nil {
		err := &RegistrationError{Kind: "hook", Name: point, Reason: "invalid hook handler"}
		b.record(err)
		return err
	}
	b.hooks[p] = append(b.hooks[p], f)
	return nil
}

// Text returns the schema text rendered by the last successful Build.
func (b *Builder) Text() string { return b.text }

// Output is the result of a Build.
type Output struct {
	Schema        string
	Definitions   []*Definition
	Resolvers     Resolvers
	TypeResolvers map[string]*TypeResolver

	// AST is set when the builder validates its SDL.
	AST *language.Schema
}

// Build assembles the registered structures and operations. Every call starts
// from the registrations alone, so repeated calls yield the same schema text.
func (b *Builder) Build(ctx context.Context) (out *Output, err error) {
	if err := b.Err(); err != nil {
		return nil, err
	}

	ctx, _ = reqid.NewContext(ctx)
	nstructs, nops := len(b.names), len(b.opNames)
	start := time.Now()
	eventbus.Publish(ctx, events.BuildStart{Structures: nstructs, Operations: nops})
	defer func() {
		eventbus.Publish(ctx, events.BuildFinish{
			Structures: nstructs, Operations: nops, Err: err, Duration: time.Since(start),
		})
	}()

	structures := b.orderedStructures()
	if err := b.checkStructures(structures); err != nil {
		return nil, err
	}
	defs, resolved, err := resolveStructures(structures)
	if err != nil {
		return nil, err
	}
	if err := checkDependencies(structures, resolved); err != nil {
		return nil, err
	}

	resolvers := make(Resolvers)
	for _, kind := range hook.Kinds {
		for _, o := range b.operations[kind] {
			if err := b.assemble(o, resolved, resolvers); err != nil {
				return nil, err
			}
		}
	}

	out = &Output{
		Schema:        render(defs, b.operations),
		Definitions:   defs,
		Resolvers:     resolvers,
		TypeResolvers: typeResolvers(b.structures[KindType]),
	}
	if b.opt.sdl {
		out.AST, err = language.LoadSchema("schema.graphql", out.Schema)
		if err != nil {
			return nil, fmt.Errorf("validate schema: %w", err)
		}
	}
	b.text = out.Schema
	b.opt.logger.Debug("schema built: ", nstructs, " structures, ", nops, " operations")
	return out, nil
}

// orderedStructures groups structures by kind, each group in registration order.
func (b *Builder) orderedStructures() []*Structure {
	out := make([]*Structure, 0, len(b.names))
	for _, kind := range structureKinds {
		out = append(out, b.structures[kind]...)
	}
	return out
}

func (b *Builder) checkStructures(structures []*Structure) error {
	for _, s := range structures {
		if !s.defined && s.parent == "" && s.iface == "" {
			return &RegistrationError{
				Kind: string(s.kind), Name: s.name,
				Reason: "must be defined or inherit a definition through extend or implements",
			}
		}
		if s.iface == "" {
			continue
		}
		if target, ok := b.names[s.iface]; ok && target.kind != KindInterface {
			return &RegistrationError{
				Kind: string(s.kind), Name: s.name,
				Reason: "implements " + string(target.kind) + " " + strconv.Quote(s.iface) + " which is not an interface",
			}
		}
		if len(s.fields) == 0 {
			return &InterfaceResolutionError{Type: s.name, Interface: s.iface}
		}
	}
	return nil
}

// assemble validates o against the resolved structures, composes its chain
// and registers it in resolvers.
func (b *Builder) assemble(o *Operation, resolved map[string]*Definition, resolvers Resolvers) error {
	if o.handler == nil && o.kind != hook.KindSubscription {
		return &MissingHandlerError{Kind: o.kind, Name: o.name}
	}
	for _, dep := range o.deps {
		if _, ok := resolved[dep]; !ok {
			return &UnresolvedDependencyError{Kind: string(o.kind), Name: o.name, Missing: dep}
		}
	}
	o.channel = b.opt.channel
	o.pipeline = o.compose(b.hooks)
	if o.cache != nil {
		o.cache.Purge()
	}

	fr := &FieldResolver{Resolve: o.resolver()}
	if o.kind == hook.KindSubscription {
		fr.Subscribe = o.subscriber()
	}
	resolvers.set(o.kind.RootType(), o.name, fr)
	return nil
}
