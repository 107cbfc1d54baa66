// Package guestmem implements the per-instance allocation table that backs
// the guest side of the memory exchange protocol. Every buffer handed across
// the boundary is registered here first; a handle unknown to the table is
// invalid for any read, write or free.
package guestmem

// Status codes returned by Deallocate.
const (
	StatusOK           int32 = 0
	StatusNotAllocated int32 = -1
)

type entry struct {
	buf  []byte
	size uint32
}

// Table maps handles to live guest buffers. One table exists per module
// instance; handles must never be presented to another instance's table.
type Table struct {
	entries map[uint32]entry
	// nextPtr drives the native-build handle sequence. Memory layout:
	// [0-7]: reserved, [8+]: available for allocation.
	nextPtr uint32
}

// NewTable returns an empty allocation table.
func NewTable() *Table {
	return &Table{entries: make(map[uint32]entry), nextPtr: 8}
}

// Allocate reserves size zero-initialized bytes, registers the buffer and
// returns its handle. Zero-size allocations are registered with a recorded
// size of 0 so length-prefixed callers can round-trip empty payloads.
func (t *Table) Allocate(size uint32) uint32 {
	backing := size
	if backing == 0 {
		backing = 1 // a zero-length slice has no address to hand out.
	}
	buf := make([]byte, backing)
	handle := t.handleFor(buf)
	t.entries[handle] = entry{buf: buf[:size], size: size}

	return handle
}

// Deallocate removes and frees the entry for handle. Freeing a handle that is
// not registered returns StatusNotAllocated and touches nothing, so a double
// free can never corrupt guest memory.
func (t *Table) Deallocate(handle uint32) int32 {
	if _, ok := t.entries[handle]; !ok {
		return StatusNotAllocated
	}
	delete(t.entries, handle)

	return StatusOK
}

// Validate returns the registered size of handle, or 0 if it was never
// allocated through this table. Adapters call this before trusting any
// caller-declared length.
func (t *Table) Validate(handle uint32) uint32 {
	return t.entries[handle].size
}

// Bytes returns the registered buffer for handle, sliced to its recorded
// size. The second result is false if the handle is not registered.
func (t *Table) Bytes(handle uint32) ([]byte, bool) {
	e, ok := t.entries[handle]
	if !ok {
		return nil, false
	}

	return e.buf, true
}

// Region resolves an arbitrary (offset, length) range to the registered
// buffer containing it. Used by in-process hosts that address guest memory
// by offset rather than by handle.
func (t *Table) Region(offset, length uint32) ([]byte, bool) {
	for handle, e := range t.entries {
		if offset >= handle && offset-handle+length <= e.size {
			start := offset - handle
			return e.buf[start : start+length], true
		}
	}

	return nil, false
}

// Len reports the number of live buffers.
func (t *Table) Len() int {
	return len(t.entries)
}
