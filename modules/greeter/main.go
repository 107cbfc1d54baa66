// Guest module exposing the greeting adapters. Build with GOOS=wasip1
// GOARCH=wasm (or tinygo) to produce greeter.wasm.
package main

import (
	"github.com/wasmbridge/wasmbridge/pkg/guest"
	"github.com/wasmbridge/wasmbridge/pkg/guestmem"
)

// One allocation table per module instance. Handles from this table are
// meaningless to any other instance.
var table = guestmem.NewTable()

//export answer
func answer() int32 {
	return guest.Answer()
}

//export allocate
func allocate(size uint32) uint32 {
	return table.Allocate(size)
}

//export deallocate
func deallocate(ptr uint32) int32 {
	return table.Deallocate(ptr)
}

//export wasm_memory_c_format_hello_world
func cFormatHelloWorld(ptr uint32) uint32 {
	return guest.FormatHelloWorldC(table, ptr)
}

//export wasm_memory_rust_format_hello_world
func rustFormatHelloWorld(ptr, length uint32) uint32 {
	return guest.FormatHelloWorldPacked(table, ptr, length)
}

func main() {}
