package schema_test

import (
	"testing"

	"github.com/anhldbk/graphqly/internal/schema"
	"github.com/stretchr/testify/require"
)

type comment struct {
	Body   string  `json:"body"`
	Author *string `json:"author,omitempty"`
}

type article struct {
	Title string
}

func TestTypeResolvers(t *testing.T) {
	b := schema.New()
	b.Interface("Entry").Define("id: ID!")
	b.Type("Article").Implements("Entry").Define("title: String")
	b.Type("Comment").Implements("Entry").Define("body: String\nauthor: String")
	b.Type("Plain").Define("note: String")
	out := build(t, b)

	require.Len(t, out.TypeResolvers, 1)
	r := out.TypeResolvers["Entry"]
	require.NotNil(t, r)
	require.Equal(t, []string{"Article", "Comment"}, r.PossibleTypes())

	author := "ann"
	for _, tc := range []struct {
		name  string
		value any
		want  string
	}{
		{"map with own fields", map[string]any{"id": 1, "title": "x"}, "Article"},
		{"map with second type fields", map[string]any{"body": "b", "author": "a"}, "Comment"},
		{"nil field does not count", map[string]any{"title": nil, "body": "b", "author": "a"}, "Comment"},
		{"first match wins", map[string]any{"title": "x", "body": "b", "author": "a"}, "Article"},
		{"struct by field name", article{Title: "x"}, "Article"},
		{"struct by json tag", &comment{Body: "b", Author: &author}, "Comment"},
		{"struct with nil pointer field", comment{Body: "b"}, ""},
		{"no match", map[string]any{"id": 1}, ""},
		{"scalar", 42, ""},
		{"nil", nil, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, found := r.ResolveType(tc.value)
			require.Equal(t, tc.want != "", found)
			require.Equal(t, tc.want, got)
		})
	}
}
