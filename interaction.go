package ui

import (
	"errors"
	"fmt"
	"image/color"
	"log"

	"github.com/Yeicor/spincube-ui/internal"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// onUpdateInputs handles inputs
func (r *Renderer) onUpdateInputs() {
	w, h := r.gl.Size()
	for _, ev := range r.pointer.events(samplePointer(w, h)) {
		err := r.tracker.Handle(ev)
		if errors.Is(err, internal.ErrInvalidViewport) {
			if !r.moveWarn {
				log.Println("[SpinCube] Ignoring pointer movement:", err)
				r.moveWarn = true
			}
		} else {
			r.moveWarn = false
		}
	}
	// Reset the cube at rest
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		r.state.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		r.showHUD = !r.showHUD
	}
}

// pointerSample is the polled state of the mouse (or the first touch) during one frame.
type pointerSample struct {
	X, Y    int
	Pressed bool
	Inside  bool
	Touch   bool
}

// pointerPoller turns polled pointer samples into the event stream a browser would deliver.
type pointerPoller struct {
	last    pointerSample
	started bool
}

// events compares s with the previous sample. Movement comes first, so that it counts before a release and is
// ignored before a press. A switch between mouse and touch never produces movement.
func (p *pointerPoller) events(s pointerSample) []internal.PointerEvent {
	var evs []internal.PointerEvent
	last := p.last
	if p.started && last.Touch == s.Touch && (s.X != last.X || s.Y != last.Y) {
		evs = append(evs, internal.PointerEvent{
			Kind:      internal.PointerMove,
			MovementX: float32(s.X - last.X),
			MovementY: float32(s.Y - last.Y),
		})
	}
	if s.Pressed && !last.Pressed && s.Inside {
		evs = append(evs, internal.PointerEvent{Kind: internal.PointerDown})
	}
	if !s.Pressed && last.Pressed {
		evs = append(evs, internal.PointerEvent{Kind: internal.PointerUp})
	}
	if p.started && last.Inside && !s.Inside {
		evs = append(evs, internal.PointerEvent{Kind: internal.PointerLeave})
	}
	p.last = s
	p.started = true
	return evs
}

// samplePointer reads the first active touch, or the mouse when there is none.
func samplePointer(width, height int) pointerSample {
	if touches := ebiten.AppendTouchIDs(nil); len(touches) > 0 {
		x, y := ebiten.TouchPosition(touches[0])
		return pointerSample{X: x, Y: y, Pressed: true, Inside: true, Touch: true}
	}
	x, y := ebiten.CursorPosition()
	return pointerSample{
		X:       x,
		Y:       y,
		Pressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		Inside:  x >= 0 && y >= 0 && x < width && y < height,
	}
}

// hudFace is the bitmap font of the HUD, drawn with hudLineSpacing pixels per line.
var hudFace = text.NewGoXFace(basicfont.Face7x13)

const hudLineSpacing = 13

// drawUI draws the current state and controls
func (r *Renderer) drawUI(screen *ebiten.Image) {
	msg := fmt.Sprintf("SpinCube\n========\nTPS: %0.2f/%d\nFrame: %d\n%s\nRotate [LeftMouse drag]\nReset [R]\nHide help [H]",
		ebiten.ActualTPS(), ebiten.TPS(), r.scheduler.Frame(), r.String())
	_, textH := text.Measure(msg, hudFace, hudLineSpacing)
	_, h := r.gl.Size()
	drawTextWithShadow(screen, msg, 5, float64(h)-textH-5, color.RGBA{G: 255, A: 255})
}

func drawTextWithShadow(screen *ebiten.Image, msg string, x, y float64, clr color.Color) {
	for _, pass := range []struct {
		dx  float64
		clr color.Color
	}{{1, color.RGBA{A: 255}}, {0, clr}} {
		op := &text.DrawOptions{}
		op.LineSpacing = hudLineSpacing
		op.GeoM.Translate(x+pass.dx, y+pass.dx)
		op.ColorScale.ScaleWithColor(pass.clr)
		text.Draw(screen, msg, hudFace, op)
	}
}
