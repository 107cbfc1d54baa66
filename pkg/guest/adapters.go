// Package guest implements the exported entry points of the guest modules.
// Every adapter accepts and returns only numeric values; buffers are passed
// as handles that must be registered in the instance's allocation table, and
// 0 from any adapter means "no valid result available".
package guest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/wasmbridge/wasmbridge/pkg/guestmem"
	"github.com/wasmbridge/wasmbridge/pkg/tabular"
)

// metaSize is the size of the packed multi-value record: [ptr][len], two
// little-endian u32 words.
const metaSize = 8

// Answer returns the canonical scalar result.
func Answer() int32 {
	return 42
}

// FormatHelloWorldC is the nul-terminated call shape. ptr must hold a
// registered buffer containing a nul-terminated name; the greeting comes back
// as a nul-terminated string in a freshly allocated buffer the caller owns.
func FormatHelloWorldC(t *guestmem.Table, ptr uint32) uint32 {
	buf, ok := t.Bytes(ptr)
	if !ok || len(buf) == 0 {
		return 0
	}

	name := buf
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		name = buf[:i]
	}

	out := append([]byte(formatHelloWorld(string(name))), 0)
	outPtr := t.Allocate(uint32(len(out)))
	dst, _ := t.Bytes(outPtr)
	copy(dst, out)

	return outPtr
}

// FormatHelloWorldPacked is the length-prefixed call shape. The declared
// length must match the registered size of ptr exactly; anything else is a
// hard rejection, never a partial read.
func FormatHelloWorldPacked(t *guestmem.Table, ptr, length uint32) uint32 {
	buf, ok := t.Bytes(ptr)
	if !ok || uint32(len(buf)) != length {
		return 0
	}

	return packBytes(t, []byte(formatHelloWorld(string(buf))))
}

// ProcessDataArrow is the structured call shape: a command batch and a data
// batch, both length-prefixed Arrow IPC payloads. Validation failures are
// rejections reported to the host log, not aborts.
func ProcessDataArrow(t *guestmem.Table, cmdPtr, cmdLen, dataPtr, dataLen uint32) uint32 {
	cmdBuf, ok := t.Bytes(cmdPtr)
	if !ok || uint32(len(cmdBuf)) != cmdLen {
		return 0
	}
	dataBuf, ok := t.Bytes(dataPtr)
	if !ok || uint32(len(dataBuf)) != dataLen {
		return 0
	}

	out, err := tabular.Process(cmdBuf, dataBuf)
	if err != nil {
		logDebug("batch rejected: " + err.Error())
		return 0
	}

	return packBytes(t, out)
}

// packBytes copies data into a fresh guest buffer and returns the handle of a
// second, fixed-size metadata buffer holding the [ptr][len] pair. This is how
// a two-value return crosses a single-integer calling convention.
func packBytes(t *guestmem.Table, data []byte) uint32 {
	dataPtr := t.Allocate(uint32(len(data)))
	dst, _ := t.Bytes(dataPtr)
	copy(dst, data)

	meta := make([]byte, metaSize)
	binary.LittleEndian.PutUint32(meta[0:4], dataPtr)
	binary.LittleEndian.PutUint32(meta[4:8], uint32(len(data)))

	metaPtr := t.Allocate(metaSize)
	dst, _ = t.Bytes(metaPtr)
	copy(dst, meta)

	return metaPtr
}

func formatHelloWorld(name string) string {
	return fmt.Sprintf("Hello World, %s!", name)
}
