package embedding

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Embed_Deterministic(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	a, err := svc.Embed(ctx, []string{"restart the nginx service"})
	require.NoError(t, err)
	b, err := svc.Embed(ctx, []string{"restart the nginx service"})
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0], b[0])
}

func TestService_Embed_DistinctInputsDiffer(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	vecs, err := svc.Embed(ctx, []string{"restart nginx", "list disk usage"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestService_Embed_FixedDimension(t *testing.T) {
	svc := NewService()
	vecs, err := svc.Embed(context.Background(), []string{"x", "a longer piece of text to embed"})
	require.NoError(t, err)
	for _, v := range vecs {
		assert.Len(t, v, Dim)
	}
}

func TestService_Embed_InputTooLong(t *testing.T) {
	svc := NewService()
	huge := strings.Repeat("a", MaxInputRunes+1)
	_, err := svc.Embed(context.Background(), []string{huge})
	assert.ErrorIs(t, err, ErrInputTooLong)
}

func TestService_Embed_BatchOrderPreserved(t *testing.T) {
	svc := NewService()
	in := []string{"one", "two", "three"}
	vecs, err := svc.Embed(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	again, err := svc.Embed(context.Background(), in)
	require.NoError(t, err)
	for i := range in {
		assert.Equal(t, vecs[i], again[i])
	}
}

func TestService_Embed_EmptyBatch(t *testing.T) {
	svc := NewService()
	vecs, err := svc.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}
