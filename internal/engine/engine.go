// Package engine wraps the WASM execution runtime behind the narrow surface
// the call driver needs: invoke an export by name with numeric arguments and
// move bytes in and out of guest linear memory.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// ErrExportNotFound reports a missing exported function. This is a programmer
// error and fatal to the call.
var ErrExportNotFound = errors.New("export not found")

// Module is one instantiated guest with its own linear memory and its own
// allocation table.
type Module interface {
	// Call invokes the named export. A missing export or a guest trap comes
	// back as an error; after a trap the instance must not be reused.
	Call(ctx context.Context, export string, params ...uint64) ([]uint64, error)
	// MemoryRead copies length bytes of guest memory starting at offset.
	MemoryRead(offset, length uint32) ([]byte, bool)
	// MemoryWrite copies data into guest memory starting at offset.
	MemoryWrite(offset uint32, data []byte) bool
	// Close releases the instance.
	Close(ctx context.Context) error
}

// Engine compiles and instantiates guest modules on a shared wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	nextID  atomic.Uint64
}

// New creates a runtime with WASI and the env host module instantiated.
func New(ctx context.Context) (*Engine, error) {
	rt := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)

	// env module with the log_debug function guests import.
	envBuilder := rt.NewHostModuleBuilder("env")
	envBuilder.NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32) {
			data, ok := m.Memory().Read(ptr, length)
			if !ok {
				log.Error().Msg("failed to read memory in log_debug")
				return
			}
			log.Debug().
				Str("event", "guest_debug").
				Str("debug_msg", string(data)).
				Msg("guest debug message")
		}).
		Export("log_debug")
	if _, err := envBuilder.Instantiate(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate env module: %w", err)
	}

	return &Engine{runtime: rt}, nil
}

// Load compiles a module image and instantiates it with start functions
// disabled. Each instance gets a unique name so several instances of the same
// image can coexist on the runtime.
func (e *Engine) Load(ctx context.Context, name string, image []byte) (Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module %s: %w", name, err)
	}

	cfg := wazero.NewModuleConfig().
		WithName(name + "-" + strconv.FormatUint(e.nextID.Add(1), 10)).
		WithStartFunctions() // Empty list means don't run any start functions.

	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module %s: %w", name, err)
	}

	return &wasmModule{mod: mod}, nil
}

// Close closes the underlying runtime and every module instantiated on it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

type wasmModule struct {
	mod api.Module
}

func (w *wasmModule) Call(ctx context.Context, export string, params ...uint64) ([]uint64, error) {
	fn := w.mod.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, export)
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, fmt.Errorf("call to %s failed: %w", export, err)
	}

	return results, nil
}

func (w *wasmModule) MemoryRead(offset, length uint32) ([]byte, bool) {
	return w.mod.Memory().Read(offset, length)
}

func (w *wasmModule) MemoryWrite(offset uint32, data []byte) bool {
	return w.mod.Memory().Write(offset, data)
}

func (w *wasmModule) Close(ctx context.Context) error {
	return w.mod.Close(ctx)
}
