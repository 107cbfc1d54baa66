package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wasmbridge/wasmbridge/pkg/guest"
	"github.com/wasmbridge/wasmbridge/pkg/guestmem"
)

// EmbeddedModule runs the guest adapters in-process against a private
// allocation table, exposing the same export surface a compiled guest module
// does. It backs tests and the CLI's embedded mode, where no .wasm artifact
// is available.
type EmbeddedModule struct {
	table  *guestmem.Table
	closed bool
}

// NewEmbedded returns a fresh embedded instance with its own table.
func NewEmbedded() *EmbeddedModule {
	return &EmbeddedModule{table: guestmem.NewTable()}
}

// Call dispatches an export name to the corresponding adapter. Both naming
// variants of the allocator exports resolve to the same table.
func (m *EmbeddedModule) Call(_ context.Context, export string, params ...uint64) ([]uint64, error) {
	if m.closed {
		return nil, errors.New("module is closed")
	}

	switch export {
	case "answer":
		if err := wantParams(export, params, 0); err != nil {
			return nil, err
		}
		return []uint64{api.EncodeI32(guest.Answer())}, nil

	case "allocate", "wasm_allocate":
		if err := wantParams(export, params, 1); err != nil {
			return nil, err
		}
		return []uint64{uint64(m.table.Allocate(uint32(params[0])))}, nil

	case "deallocate", "wasm_deallocate":
		if err := wantParams(export, params, 1); err != nil {
			return nil, err
		}
		return []uint64{api.EncodeI32(m.table.Deallocate(uint32(params[0])))}, nil

	case "wasm_memory_c_format_hello_world":
		if err := wantParams(export, params, 1); err != nil {
			return nil, err
		}
		return []uint64{uint64(guest.FormatHelloWorldC(m.table, uint32(params[0])))}, nil

	case "wasm_memory_rust_format_hello_world":
		if err := wantParams(export, params, 2); err != nil {
			return nil, err
		}
		return []uint64{uint64(guest.FormatHelloWorldPacked(
			m.table, uint32(params[0]), uint32(params[1]),
		))}, nil

	case "wasm_memory_process_data_arrow":
		if err := wantParams(export, params, 4); err != nil {
			return nil, err
		}
		return []uint64{uint64(guest.ProcessDataArrow(
			m.table, uint32(params[0]), uint32(params[1]), uint32(params[2]), uint32(params[3]),
		))}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, export)
	}
}

// MemoryRead resolves offset against the registered buffers and copies out
// length bytes.
func (m *EmbeddedModule) MemoryRead(offset, length uint32) ([]byte, bool) {
	region, ok := m.table.Region(offset, length)
	if !ok {
		return nil, false
	}

	out := make([]byte, length)
	copy(out, region)

	return out, true
}

// MemoryWrite resolves offset against the registered buffers and copies data
// in.
func (m *EmbeddedModule) MemoryWrite(offset uint32, data []byte) bool {
	region, ok := m.table.Region(offset, uint32(len(data)))
	if !ok {
		return false
	}
	copy(region, data)

	return true
}

// Close marks the instance unusable.
func (m *EmbeddedModule) Close(context.Context) error {
	m.closed = true
	return nil
}

// Table exposes the allocation table for white-box assertions in tests.
func (m *EmbeddedModule) Table() *guestmem.Table {
	return m.table
}

func wantParams(export string, params []uint64, n int) error {
	if len(params) != n {
		return fmt.Errorf("%s expects %d params, got %d", export, n, len(params))
	}

	return nil
}
