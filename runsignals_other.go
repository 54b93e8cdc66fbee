//go:build !linux && !(js && wasm)
// +build !linux
// +build !js !wasm

package ui

import (
	"os"
)

// signals stop the viewer cleanly (the animation loop sees a cancelled context).
func signals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
