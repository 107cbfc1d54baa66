package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmbridge/wasmbridge/internal/engine"
)

// TestPoolReuse verifies that a returned instance is handed out again instead
// of creating a new one.
func TestPoolReuse(t *testing.T) {
	t.Parallel()

	created := 0
	pool := NewInstancePool(2, func() (*Instance, error) {
		created++
		return NewInstance("embedded", engine.NewEmbedded(), EmbeddedExports()), nil
	})

	inst, err := pool.Get()
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	pool.Put(context.Background(), inst)

	again, err := pool.Get()
	require.NoError(t, err)
	assert.Same(t, inst, again)
	assert.Equal(t, 1, created)
}

// TestPoolDropsBrokenInstance verifies that a trapped instance is not pooled
// again.
func TestPoolDropsBrokenInstance(t *testing.T) {
	t.Parallel()

	created := 0
	pool := NewInstancePool(1, func() (*Instance, error) {
		created++
		return NewInstance("embedded", engine.NewEmbedded(), EmbeddedExports()), nil
	})

	inst, err := pool.Get()
	require.NoError(t, err)
	inst.broken = true

	pool.Put(context.Background(), inst)

	next, err := pool.Get()
	require.NoError(t, err)
	assert.NotSame(t, inst, next)
	assert.Equal(t, 2, created)
}

// TestManagerEmbeddedRoundTrip acquires an embedded instance through the
// manager and runs a call on it.
func TestManagerEmbeddedRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, err := NewManager(ctx)
	require.NoError(t, err)
	defer m.Close()

	m.RegisterEmbedded("greeter", EmbeddedExports(), 1)

	inst, err := m.Acquire("greeter")
	require.NoError(t, err)
	defer m.Release("greeter", inst)

	got, err := inst.GreetPacked(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, "Hello World, pool!", got)

	_, err = m.Acquire("missing")
	assert.Error(t, err)
}
