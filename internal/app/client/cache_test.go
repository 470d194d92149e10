package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadCache(t *testing.T) {
	cache := NewReadCache()

	cache.Set("post:1", "a")
	cache.Set("post:2", "b")
	cache.Set("feed", "c")

	v, ok := cache.Get("post:1")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok = cache.Get("missing")
	assert.False(t, ok)

	removed := cache.Invalidate("post:")
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, cache.Len())

	_, ok = cache.Get("post:1")
	assert.False(t, ok)
	_, ok = cache.Get("feed")
	assert.True(t, ok)
}

func TestConnectivity(t *testing.T) {
	conn := NewConnectivity(testLogger(), false)
	assert.False(t, conn.IsOnline())

	var transitions []bool
	conn.Subscribe(func(online bool) {
		transitions = append(transitions, online)
	})

	conn.SetOnline(true)
	conn.SetOnline(true) // повтор не уведомляет
	conn.SetOnline(false)

	assert.True(t, len(transitions) == 2)
	assert.Equal(t, []bool{true, false}, transitions)
}
