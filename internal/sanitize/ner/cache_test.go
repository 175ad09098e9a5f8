package ner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/safedata/internal/sanitize"
)

type countingModel struct {
	calls atomic.Int32
	err   error
}

func (m *countingModel) Predict(_ context.Context, text string, _ []string, _ float64) ([]sanitize.Finding, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return []sanitize.Finding{{Text: text, Label: "x", Start: 0, End: len(text)}}, nil
}

func TestCache_Hit(t *testing.T) {
	model := &countingModel{}
	c := NewCache(model, 4)
	ctx := context.Background()

	first, err := c.Predict(ctx, "alpha", []string{"person"}, 0.3)
	require.NoError(t, err)
	second, err := c.Predict(ctx, "alpha", []string{"person"}, 0.3)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, model.calls.Load())

	// Different labels or threshold are different keys.
	_, _ = c.Predict(ctx, "alpha", []string{"org"}, 0.3)
	_, _ = c.Predict(ctx, "alpha", []string{"person"}, 0.5)
	assert.EqualValues(t, 3, model.calls.Load())
	assert.Equal(t, 3, c.Len())
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := NewCache(&countingModel{}, 4)
	ctx := context.Background()

	first, _ := c.Predict(ctx, "alpha", nil, 0)
	first[0].Label = "mutated"
	second, _ := c.Predict(ctx, "alpha", nil, 0)
	assert.Equal(t, "x", second[0].Label)
}

func TestCache_Evicts(t *testing.T) {
	model := &countingModel{}
	c := NewCache(model, 2)
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c"} {
		_, err := c.Predict(ctx, s, nil, 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Len())

	_, _ = c.Predict(ctx, "a", nil, 0) // evicted, so a miss
	assert.EqualValues(t, 4, model.calls.Load())
	_, _ = c.Predict(ctx, "c", nil, 0)
	assert.EqualValues(t, 4, model.calls.Load())
}

func TestCache_ErrorsNotCached(t *testing.T) {
	model := &countingModel{err: errors.New("down")}
	c := NewCache(model, 2)

	_, err := c.Predict(context.Background(), "a", nil, 0)
	assert.Error(t, err)
	_, err = c.Predict(context.Background(), "a", nil, 0)
	assert.Error(t, err)
	assert.EqualValues(t, 2, model.calls.Load())
	assert.Zero(t, c.Len())
}

func TestCache_Disabled(t *testing.T) {
	model := &countingModel{}
	c := NewCache(model, 0)
	_, _ = c.Predict(context.Background(), "a", nil, 0)
	_, _ = c.Predict(context.Background(), "a", nil, 0)
	assert.EqualValues(t, 2, model.calls.Load())
	assert.Zero(t, c.Len())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("t", []string{"a", "b"}, 0.3), cacheKey("t", []string{"a", "b"}, 0.3))
	assert.NotEqual(t, cacheKey("t", []string{"a,b"}, 0.3), cacheKey("t", []string{"a", "b"}, 0.3))
	assert.Len(t, cacheKey("t", nil, 0), 64)
}
