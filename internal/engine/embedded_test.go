package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
)

// TestEmbeddedAnswer verifies the scalar export through the Module surface.
func TestEmbeddedAnswer(t *testing.T) {
	t.Parallel()

	m := NewEmbedded()
	res, err := m.Call(context.Background(), "answer")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int32(42), api.DecodeI32(res[0]))
}

// TestEmbeddedAllocatorLifecycle drives allocate/write/read/deallocate the
// way a host would.
func TestEmbeddedAllocatorLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewEmbedded()

	res, err := m.Call(ctx, "allocate", 5)
	require.NoError(t, err)
	ptr := api.DecodeU32(res[0])
	require.NotZero(t, ptr)

	require.True(t, m.MemoryWrite(ptr, []byte("hello")))

	got, ok := m.MemoryRead(ptr, 5)
	require.True(t, ok)
	assert.Equal(t, "hello", string(got))

	_, ok = m.MemoryRead(ptr, 6)
	assert.False(t, ok, "reads past the registered size must fail")

	res, err = m.Call(ctx, "deallocate", uint64(ptr))
	require.NoError(t, err)
	assert.Equal(t, int32(0), api.DecodeI32(res[0]))

	res, err = m.Call(ctx, "wasm_deallocate", uint64(ptr))
	require.NoError(t, err)
	assert.Equal(t, int32(-1), api.DecodeI32(res[0]), "double free must report not-allocated")
}

// TestEmbeddedUnknownExport verifies the fatal lookup failure path.
func TestEmbeddedUnknownExport(t *testing.T) {
	t.Parallel()

	m := NewEmbedded()
	_, err := m.Call(context.Background(), "no_such_export")
	assert.True(t, errors.Is(err, ErrExportNotFound))
}

// TestEmbeddedClosed verifies that a closed instance rejects calls.
func TestEmbeddedClosed(t *testing.T) {
	t.Parallel()

	m := NewEmbedded()
	require.NoError(t, m.Close(context.Background()))

	_, err := m.Call(context.Background(), "answer")
	assert.Error(t, err)
}
