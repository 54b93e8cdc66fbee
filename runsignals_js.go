//go:build js && wasm
// +build js,wasm

package ui

import (
	"os"
)

// The browser tears the page down without signals.
func signals() []os.Signal {
	return nil
}
