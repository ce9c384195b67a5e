package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingClient_ServesRepeats(t *testing.T) {
	mock := &mockClient{responses: []string{"first", "second"}}
	cache := NewCache()
	cc := NewCachingClient(mock, cache, false)

	a, err := cc.Complete(context.Background(), "p", Options{})
	require.NoError(t, err)
	b, err := cc.Complete(context.Background(), "p", Options{})
	require.NoError(t, err)

	assert.Equal(t, "first", a)
	assert.Equal(t, "first", b)
	assert.Equal(t, 1, mock.calls)
	assert.Equal(t, 1, cache.Hits())
}

func TestCachingClient_KeyIncludesOptions(t *testing.T) {
	mock := &mockClient{responses: []string{"a", "b"}}
	cc := NewCachingClient(mock, NewCache(), false)

	_, _ = cc.Complete(context.Background(), "p", Options{Model: "m1"})
	_, _ = cc.Complete(context.Background(), "p", Options{Model: "m2"})
	assert.Equal(t, 2, mock.calls)
}

func TestCachingClient_BypassAndClear(t *testing.T) {
	mock := &mockClient{responses: []string{"one", "two", "three"}}
	cache := NewCache()
	cc := NewCachingClient(mock, cache, false)

	_, _ = cc.Complete(context.Background(), "p", Options{})
	out, err := cc.Complete(Bypass(context.Background()), "p", Options{})
	require.NoError(t, err)
	assert.Equal(t, "two", out, "bypass always calls the model")
	assert.Equal(t, 1, cache.Len(), "bypassed responses are not stored")

	cache.Clear()
	assert.Zero(t, cache.Len())
	out, err = cc.Complete(context.Background(), "p", Options{})
	require.NoError(t, err)
	assert.Equal(t, "three", out)
}

func TestCachingClient_BypassAll(t *testing.T) {
	mock := &mockClient{}
	cache := NewCache()
	cc := NewCachingClient(mock, cache, true)

	_, _ = cc.Complete(context.Background(), "p", Options{})
	_, _ = cc.Complete(context.Background(), "p", Options{})
	assert.Equal(t, 2, mock.calls)
	assert.Zero(t, cache.Len())
}
