package guest

// logDebug forwards a message from a guest adapter to the host.
//
//go:wasm-module env
//export log_debug
func logDebug(string) {}
