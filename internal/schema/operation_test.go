package schema_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anhldbk/graphqly/internal/cache"
	"github.com/anhldbk/graphqly/internal/hook"
	"github.com/anhldbk/graphqly/internal/logging"
	"github.com/anhldbk/graphqly/internal/schema"
	"github.com/anhldbk/graphqly/internal/validate"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func noopFactory(hook.Scope) hook.Step {
	return func(_ context.Context, _ hook.Scope, in hook.Params, _ hook.Done) hook.Result {
		return hook.Continue(in...)
	}
}

func acceptAll(context.Context, any, map[string]any) (bool, error) { return true, nil }

type trace struct {
	mu    sync.Mutex
	calls []string
}

func (tr *trace) add(name string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.calls = append(tr.calls, name)
}

func (tr *trace) step(name string) hook.Step {
	return func(_ context.Context, _ hook.Scope, in hook.Params, _ hook.Done) hook.Result {
		tr.add(name)
		return hook.Continue(in...)
	}
}

func (tr *trace) factory(name string) hook.Factory {
	return func(hook.Scope) hook.Step { return tr.step(name) }
}

func (tr *trace) handler(v any) schema.ResolveFunc {
	return func(context.Context, any, map[string]any) (any, error) {
		tr.add("h")
		return v, nil
	}
}

func build(t *testing.T, b *schema.Builder) *schema.Output {
	t.Helper()
	out, err := b.Build(context.Background())
	require.NoError(t, err)
	return out
}

func resolve(t *testing.T, out *schema.Output, path string, source any, args map[string]any) (any, error) {
	t.Helper()
	fr, found := out.Resolvers.Lookup(path)
	require.True(t, found, path)
	return fr.Resolve(context.Background(), source, args)
}

func TestOperation_HookOrder(t *testing.T) {
	tr := &trace{}
	b := schema.New()
	require.NoError(t, b.Hook("pre.query", tr.factory("p1")))
	require.NoError(t, b.Hook("post.query", tr.factory("q2")))
	require.NoError(t, b.Hook("pre.mutation", tr.factory("m")))
	b.Query("posts: Int").
		Before(tr.step("p2")).
		After(tr.step("q1")).
		Resolve(tr.handler(7))

	out := build(t, b)
	got, err := resolve(t, out, "Query.posts", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.Equal(t, []string{"p1", "p2", "h", "q1", "q2"}, tr.calls)
}

func TestOperation_OperationHookPoints(t *testing.T) {
	tr := &trace{}
	b := schema.New()
	b.Mutation("bump: Int").
		Hook("post.mutation", tr.factory("after")).
		Hook("pre.mutation", tr.factory("before")).
		Resolve(tr.handler(1))

	out := build(t, b)
	_, err := resolve(t, out, "Mutation.bump", nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"before", "h", "after"}, tr.calls)
}

func TestOperation_ShortCircuit(t *testing.T) {
	tr := &trace{}
	b := schema.New()
	b.Query("posts: Int").
		Before(tr.step("p1")).
		Before(func(_ context.Context, _ hook.Scope, _ hook.Params, done hook.Done) hook.Result {
			tr.add("p2")
			return done("V")
		}).
		After(tr.step("q1")).
		Resolve(tr.handler(7))

	out := build(t, b)
	got, err := resolve(t, out, "Query.posts", nil, nil)
	require.NoError(t, err)
	require.Equal(t, "V", got)
	require.Equal(t, []string{"p1", "p2"}, tr.calls)
}

func TestOperation_StepRewritesArguments(t *testing.T) {
	b := schema.New()
	b.Query("posts(first: Int): Int").
		Before(func(_ context.Context, _ hook.Scope, in hook.Params, _ hook.Done) hook.Result {
			return hook.Continue(in.At(0), map[string]any{"first": 3})
		}).
		Resolve(func(_ context.Context, _ any, args map[string]any) (any, error) {
			return args["first"], nil
		}).
		After(func(_ context.Context, _ hook.Scope, in hook.Params, _ hook.Done) hook.Result {
			return hook.Continue(in.First().(int) * 2)
		})

	out := build(t, b)
	got, err := resolve(t, out, "Query.posts", nil, map[string]any{"first": 1})
	require.NoError(t, err)
	require.Equal(t, 6, got)
}

func TestOperation_HandlerFailure(t *testing.T) {
	tr := &trace{}
	boom := errors.New("boom")
	b := schema.New()
	b.Query("posts: Int").
		Resolve(func(context.Context, any, map[string]any) (any, error) { return nil, boom }).
		After(tr.step("q1"))

	out := build(t, b)
	_, err := resolve(t, out, "Query.posts", nil, nil)
	var hre *hook.HandlerRuntimeError
	require.ErrorAs(t, err, &hre)
	require.Equal(t, "handler", hre.Step)
	require.Equal(t, "posts", hre.Operation)
	require.ErrorIs(t, err, boom)
	require.Empty(t, tr.calls)
}

func TestOperation_CatchErrors(t *testing.T) {
	l, logs := logtest.NewNullLogger()
	b := schema.New(schema.WithLogger(logging.NewLogrus(l)))
	b.Query("posts: Int").
		Resolve(func(context.Context, any, map[string]any) (any, error) { return nil, errors.New("boom") }).
		CatchErrors()

	out := build(t, b)
	got, err := resolve(t, out, "Query.posts", nil, nil)
	require.NoError(t, err)
	require.Nil(t, got)

	entry := logs.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Contains(t, entry.Message, "boom")
}

func TestOperation_GlobalHooksPerOperation(t *testing.T) {
	var mu sync.Mutex
	var scopes []string
	b := schema.New()
	require.NoError(t, b.Hook("pre.query", func(s hook.Scope) hook.Step {
		mu.Lock()
		scopes = append(scopes, s.Name())
		mu.Unlock()
		return func(_ context.Context, s hook.Scope, in hook.Params, done hook.Done) hook.Result {
			if v, ok := s.Get("fixed"); ok {
				return done(v)
			}
			return hook.Continue(in...)
		}
	}))
	b.Query("a: Int").Resolve(ok(1))
	b.Query("b: Int").Resolve(ok(2)).Set("fixed", 20)

	out := build(t, b)
	require.Equal(t, []string{"a", "b"}, scopes)

	got, err := resolve(t, out, "Query.a", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, got)
	got, err = resolve(t, out, "Query.b", nil, nil)
	require.NoError(t, err)
	require.Equal(t, 20, got)
}

func TestOperation_Metadata(t *testing.T) {
	b := schema.New()
	o := b.Query("posts: Int").Resolve(ok(nil)).Set("owner", "blog").Cache(time.Minute, 0)

	v, found := o.Get("owner")
	require.True(t, found)
	require.Equal(t, "blog", v)
	v, found = o.Get(schema.MetaCacheTTL)
	require.True(t, found)
	require.Equal(t, time.Minute, v)
	v, found = o.Get(schema.MetaCacheMaxEntries)
	require.True(t, found)
	require.Equal(t, cache.DefaultMaxEntries, v)
	_, found = o.Get("missing")
	require.False(t, found)
}

func TestOperation_Cache(t *testing.T) {
	calls := 0
	b := schema.New()
	b.Query("post(id: ID!): Int").
		Resolve(func(_ context.Context, _ any, args map[string]any) (any, error) {
			calls++
			return calls, nil
		}).
		Cache(time.Minute, 0)

	out := build(t, b)
	for i := 0; i < 3; i++ {
		got, err := resolve(t, out, "Query.post", nil, map[string]any{"id": "1"})
		require.NoError(t, err)
		require.Equal(t, 1, got)
	}
	got, err := resolve(t, out, "Query.post", nil, map[string]any{"id": "2"})
	require.NoError(t, err)
	require.Equal(t, 2, got)
	require.Equal(t, 2, calls)

	// A rebuild starts with an empty cache.
	out = build(t, b)
	got, err = resolve(t, out, "Query.post", nil, map[string]any{"id": "1"})
	require.NoError(t, err)
	require.Equal(t, 3, got)
}

func TestOperation_CacheMaxEntries(t *testing.T) {
	calls := 0
	b := schema.New()
	b.Query("post(id: ID!): Int").
		Resolve(func(_ context.Context, _ any, args map[string]any) (any, error) {
			calls++
			return calls, nil
		}).
		Cache(time.Minute, 1)

	out := build(t, b)
	for _, id := range []string{"1", "2", "1"} {
		_, err := resolve(t, out, "Query.post", nil, map[string]any{"id": id})
		require.NoError(t, err)
	}
	require.Equal(t, 3, calls)
}

func TestOperation_Validate(t *testing.T) {
	tr := &trace{}
	b := schema.New()
	b.Query("post(id: ID!): Int").
		Validate(validate.Rules{"id": "required,numeric"}).
		Before(tr.step("p1")).
		Resolve(tr.handler(1))

	out := build(t, b)

	_, err := resolve(t, out, "Query.post", nil, map[string]any{"id": "abc"})
	var verr *validate.Error
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []validate.FieldError{{Field: "id", Reason: "numeric"}}, verr.Fields)
	require.Empty(t, tr.calls)

	got, err := resolve(t, out, "Query.post", nil, map[string]any{"id": "12"})
	require.NoError(t, err)
	require.Equal(t, 1, got)
	require.Equal(t, []string{"p1", "h"}, tr.calls)
}

func TestOperation_PublishBeforeBuild(t *testing.T) {
	b := schema.New()
	o := b.Mutation("addPost: Int").Resolve(ok(nil))
	require.ErrorIs(t, o.Publish(context.Background(), "postAdded", 1), schema.ErrChannelUnavailable)
}

func TestOperation_PublishSubscribe(t *testing.T) {
	b := schema.New()
	b.Type("Post").Define("title: String")
	b.Subscription("postAdded(prefix: String): Post").
		Filter(func(_ context.Context, payload any, args map[string]any) (bool, error) {
			title := payload.(map[string]any)["title"].(string)
			return len(title) > 0 && title[:1] == args["prefix"], nil
		}).
		Map(func(_ context.Context, source any, _ map[string]any) (any, error) {
			return source.(map[string]any)["title"], nil
		})
	b.Mutation("addPost(title: String): Post").
		Resolve(func(context.Context, any, map[string]any) (any, error) { return nil, nil }).
		After(func(ctx context.Context, s hook.Scope, in hook.Params, _ hook.Done) hook.Result {
			return hook.From(in.First(), s.Publish(ctx, "postAdded", map[string]any{"title": "go tour"}))
		})

	out := build(t, b)
	sub, found := out.Resolvers.Lookup("Subscription.postAdded")
	require.True(t, found)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := sub.Subscribe(ctx, map[string]any{"prefix": "g"})
	require.NoError(t, err)

	o, _ := b.Operation("addPost")
	require.NoError(t, o.Publish(ctx, "postAdded", map[string]any{"title": "rust book"}))
	_, err = resolve(t, out, "Mutation.addPost", nil, nil)
	require.NoError(t, err)

	select {
	case payload := <-stream:
		title, err := sub.Resolve(ctx, payload, nil)
		require.NoError(t, err)
		require.Equal(t, "go tour", title)
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
	}
}

func TestOperation_Logger(t *testing.T) {
	l, logs := logtest.NewNullLogger()
	l.SetLevel(logrus.TraceLevel)
	b := schema.New(schema.WithLogger(logging.NewLogrus(l)))
	o := b.Query("posts: Int")

	o.Info("hello")
	o.Silly("deep")
	require.Len(t, logs.AllEntries(), 2)
	require.Equal(t, logrus.InfoLevel, logs.AllEntries()[0].Level)
	require.Equal(t, logrus.TraceLevel, logs.AllEntries()[1].Level)
}
