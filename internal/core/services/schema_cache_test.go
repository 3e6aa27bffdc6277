package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wearsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/wearsync/internal/core/domain"
)

func TestSchemaCache_IntrospectsOnce(t *testing.T) {
	sink := memory.NewSink()
	sink.CreateTable("t", []string{"a"}, "a", "b")
	cache := NewSchemaCache(sink)
	ctx := context.Background()

	first, err := cache.ColumnsFor(ctx, "t")
	require.NoError(t, err)
	second, err := cache.ColumnsFor(ctx, "t")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, sink.Introspections("t"))
}

func TestSchemaCache_FailureCachedForRun(t *testing.T) {
	sink := memory.NewSink()
	sink.CreateTable("t", []string{"a"}, "a")
	sink.FailIntrospection("t", errors.New("status 503"))
	cache := NewSchemaCache(sink)
	ctx := context.Background()

	_, err := cache.ColumnsFor(ctx, "t")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
	assert.Contains(t, err.Error(), "status 503")

	_, err = cache.ColumnsFor(ctx, "t")
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
	assert.Equal(t, 1, sink.Introspections("t"))
}

func TestSchemaCache_EmptySchemaUnavailable(t *testing.T) {
	sink := memory.NewSink()
	sink.CreateTable("empty", nil)
	cache := NewSchemaCache(sink)

	_, err := cache.ColumnsFor(context.Background(), "empty")
	assert.ErrorIs(t, err, domain.ErrSchemaUnavailable)
}

func TestSchemaCache_PerInstance(t *testing.T) {
	sink := memory.NewSink()
	sink.CreateTable("t", []string{"a"}, "a")
	ctx := context.Background()

	_, err := NewSchemaCache(sink).ColumnsFor(ctx, "t")
	require.NoError(t, err)
	_, err = NewSchemaCache(sink).ColumnsFor(ctx, "t")
	require.NoError(t, err)

	assert.Equal(t, 2, sink.Introspections("t"))
}
