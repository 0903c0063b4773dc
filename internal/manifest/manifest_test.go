package manifest_test

import (
	"context"
	"testing"

	"github.com/anhldbk/graphqly/internal/manifest"
	"github.com/anhldbk/graphqly/internal/schema"
	"github.com/stretchr/testify/require"
)

func placeholder(o *schema.Operation) {
	o.Resolve(func(context.Context, any, map[string]any) (any, error) { return nil, nil })
}

func TestLoad(t *testing.T) {
	m, err := manifest.Load("testdata/blog.yaml")
	require.NoError(t, err)
	require.Len(t, m.Structures, 4)
	require.Equal(t, manifest.Structure{Kind: "type", Name: "Guest", Extends: "Author"}, m.Structures[3])
	require.Equal(t, []string{"posts: Posts"}, m.Queries)

	b := schema.New()
	b.Use(m.Provider(placeholder))
	out, err := b.Build(context.Background())
	require.NoError(t, err)

	want := "interface List {\noffset: Int\n}\n\n" +
		"type Author {\nname: String!\n}\n\n" +
		"type Posts implements List {\noffset: Int\ntitle: String\nauthor: Author\n}\n\n" +
		"type Guest {\nname: String!\n}\n\n" +
		"type Query {\n  posts: Posts\n}\n\n" +
		"type Mutation {\n  rename(name: String!): Author\n}\n\n" +
		"type Subscription {\n  authorRenamed: Author\n}\n"
	require.Equal(t, want, out.Schema)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := manifest.Load("testdata/missing.yaml")
	require.ErrorContains(t, err, "failed to read manifest file")
}

func TestParse_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		data    string
		wantErr string
	}{
		{"not yaml", "structures: [", "failed to parse manifest YAML"},
		{"unknown kind", "structures:\n  - kind: union\n    name: U\n", `kind must be one of type, interface, input, enum, got: "union"`},
		{"missing name", "structures:\n  - kind: type\n", "structures[0]: name is required"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manifest.Parse([]byte(tc.data))
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestProvider_WithoutBind(t *testing.T) {
	m, err := manifest.Parse([]byte("queries:\n  - \"count: Int\"\n"))
	require.NoError(t, err)

	b := schema.New()
	b.Use(m.Provider(nil))
	_, err = b.Build(context.Background())
	var missing *schema.MissingHandlerError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "count", missing.Name)
}

func TestProvider_RegistrationErrors(t *testing.T) {
	m, err := manifest.Parse([]byte("structures:\n  - {kind: type, name: A, define: \"a: Int\"}\n  - {kind: input, name: A, define: \"a: Int\"}\n"))
	require.NoError(t, err)

	b := schema.New()
	b.Use(m.Provider(nil))
	var reg *schema.RegistrationError
	require.ErrorAs(t, b.Err(), &reg)
	require.Equal(t, "A", reg.Name)
}
