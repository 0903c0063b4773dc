package otel

import (
	"context"
	"sync"

	eventbus "github.com/anhldbk/graphqly/internal/eventbus"
	events "github.com/anhldbk/graphqly/internal/events"
	reqid "github.com/anhldbk/graphqly/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := NewSubscriber(otel.Tracer("graphqly"))
	off := sub.Attach()

	return func(ctx context.Context) error {
		off()
		return tp.Shutdown(ctx)
	}, nil
}

// Subscriber turns build and operation events into spans.
type Subscriber struct {
	tracer     trace.Tracer
	opSpans    sync.Map // invocation id -> trace.Span
	buildSpans sync.Map // build id -> trace.Span
}

func NewSubscriber(tracer trace.Tracer) *Subscriber { return &Subscriber{tracer: tracer} }

// Attach subscribes s to the global eventbus. The returned function detaches it.
func (s *Subscriber) Attach() (detach func()) {
	offs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.BuildStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "graphqly.build")
			span.SetAttributes(
				attribute.Int("graphqly.structures", e.Structures),
				attribute.Int("graphqly.operations", e.Operations),
			)
			s.buildSpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.BuildFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.buildSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.OperationStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "graphqly.operation")
			span.SetAttributes(
				attribute.String("graphql.operation.type", e.Kind),
				attribute.String("graphql.operation.name", e.Operation),
			)
			s.opSpans.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.OperationFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.opSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.String("graphqly.outcome", e.Outcome))
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
