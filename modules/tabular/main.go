// Guest module exposing the structured record-batch adapter. Build with
// GOOS=wasip1 GOARCH=wasm (or tinygo) to produce tabular.wasm.
package main

import (
	"github.com/wasmbridge/wasmbridge/pkg/guest"
	"github.com/wasmbridge/wasmbridge/pkg/guestmem"
)

// One allocation table per module instance.
var table = guestmem.NewTable()

//export wasm_allocate
func wasmAllocate(size uint32) uint32 {
	return table.Allocate(size)
}

//export wasm_deallocate
func wasmDeallocate(ptr uint32) int32 {
	return table.Deallocate(ptr)
}

//export wasm_memory_process_data_arrow
func processDataArrow(cmdPtr, cmdLen, dataPtr, dataLen uint32) uint32 {
	return guest.ProcessDataArrow(table, cmdPtr, cmdLen, dataPtr, dataLen)
}

func main() {}
