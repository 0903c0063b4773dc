package reqid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok, "unexpected id in empty context")
}

func TestNewContextIsFresh(t *testing.T) {
	ctx, outer := NewContext(context.Background())
	nested, inner := NewContext(ctx)
	require.NotEqual(t, outer, inner)
	got, _ := FromContext(nested)
	require.Equal(t, inner, got)
}
