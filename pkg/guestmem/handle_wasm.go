//go:build wasm

package guestmem

import "unsafe"

// handleFor returns the linear-memory address of buf's backing array. The
// table entry keeps buf reachable so the runtime never reclaims it while the
// handle is live.
//
//nolint:gosec // allow unsafe pointer usage.
func (t *Table) handleFor(buf []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}
