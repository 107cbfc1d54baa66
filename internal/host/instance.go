// Package host drives calls into guest modules: allocate scratch guest
// buffers, write the inputs, invoke the target export, decode the numeric
// result, and release every buffer the call touched, on success and failure
// alike.
package host

import (
	"context"
	"errors"
	"sync"
)

// ErrInstanceBroken reports an instance that trapped on a previous call. Its
// allocation table is no longer trustworthy and it must not be reused.
var ErrInstanceBroken = errors.New("instance is broken after a fatal guest error")

// Exports names the allocator and adapter exports of one guest module. Two
// naming variants exist for the allocator pair (allocate vs wasm_allocate),
// so the set travels with the instance.
type Exports struct {
	Allocate     string
	Deallocate   string
	Answer       string
	GreetC       string
	GreetPacked  string
	ProcessBatch string
}

// GreeterExports is the export set of the greeter module.
func GreeterExports() Exports {
	return Exports{
		Allocate:    "allocate",
		Deallocate:  "deallocate",
		Answer:      "answer",
		GreetC:      "wasm_memory_c_format_hello_world",
		GreetPacked: "wasm_memory_rust_format_hello_world",
	}
}

// TabularExports is the export set of the tabular module.
func TabularExports() Exports {
	return Exports{
		Allocate:     "wasm_allocate",
		Deallocate:   "wasm_deallocate",
		ProcessBatch: "wasm_memory_process_data_arrow",
	}
}

// EmbeddedExports is the union surface of the embedded in-process guest.
func EmbeddedExports() Exports {
	e := GreeterExports()
	e.ProcessBatch = "wasm_memory_process_data_arrow"

	return e
}

// Instance is one guest module instance with its own linear memory and
// allocation table. Calls are serialized: one invocation runs to full
// completion, through deallocation, before the next is issued.
type Instance struct {
	name    string
	mod     Module
	exports Exports
	mu      sync.Mutex
	broken  bool
}

// Module is the execution-engine surface the driver depends on. It matches
// engine.Module.
type Module interface {
	Call(ctx context.Context, export string, params ...uint64) ([]uint64, error)
	MemoryRead(offset, length uint32) ([]byte, bool)
	MemoryWrite(offset uint32, data []byte) bool
	Close(ctx context.Context) error
}

// NewInstance wraps a loaded module with its export-name set.
func NewInstance(name string, mod Module, exports Exports) *Instance {
	return &Instance{name: name, mod: mod, exports: exports}
}

// Broken reports whether a previous call trapped.
func (inst *Instance) Broken() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	return inst.broken
}

// Close releases the underlying module instance.
func (inst *Instance) Close(ctx context.Context) error {
	return inst.mod.Close(ctx)
}
