package graphcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphcheck/blobstore"
	"github.com/hupe1980/graphcheck/internal/labelindex"
)

func TestStoreBuilderIsImmutable(t *testing.T) {
	base := NewStoreBuilder()
	derived := base.Nodes(5).Corrupt(2).Seed(3)

	assert.Equal(t, 1000, base.nodes)
	assert.Equal(t, 0, base.corrupt)
	assert.Equal(t, 5, derived.nodes)
	assert.Equal(t, 2, derived.corrupt)
}

func TestStoreBuilderDeterministic(t *testing.T) {
	ctx := context.Background()
	b := NewStoreBuilder().Nodes(200).Corrupt(10).Seed(5).Compression(labelindex.CompressionLZ4)

	first, second := blobstore.NewMemoryStore(), blobstore.NewMemoryStore()
	r1, err := b.Build(ctx, first)
	require.NoError(t, err)
	r2, err := b.Build(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, r1.Expected, r2.Expected)

	names, err := first.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, names, 3)
	for _, name := range names {
		d1, err := blobstore.ReadAll(ctx, first, name)
		require.NoError(t, err)
		d2, err := blobstore.ReadAll(ctx, second, name)
		require.NoError(t, err)
		assert.Equal(t, d1, d2, name)
	}
}

func TestStoreBuilderValidation(t *testing.T) {
	ctx := context.Background()
	for _, b := range []StoreBuilder{
		NewStoreBuilder().Nodes(-1),
		NewStoreBuilder().MaxLabels(0),
		NewStoreBuilder().BlockSize(4),
		NewStoreBuilder().RangeSize(0),
		NewStoreBuilder().Nodes(3).Corrupt(4),
	} {
		_, err := b.Build(ctx, blobstore.NewMemoryStore())
		assert.ErrorIs(t, err, ErrInvalidOptions)
	}
}

func TestStoreBuilderSingleLabelSpace(t *testing.T) {
	bs := blobstore.NewMemoryStore()
	built, err := NewStoreBuilder().Nodes(50).LabelSpace(1).MaxLabels(3).Corrupt(8).Build(context.Background(), bs)
	require.NoError(t, err)

	res, err := Check(context.Background(), bs)
	require.NoError(t, err)
	assert.Equal(t, built.Expected, res.Findings)
}
