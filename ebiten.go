package ui

import (
	"context"
	"errors"
	"image"
	"log"

	"github.com/Yeicor/spincube-ui/internal"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"
)

// rendererEbitenGame hides the private ebiten implementation while behaving like a *Renderer internally
type rendererEbitenGame struct {
	*Renderer
}

func (r rendererEbitenGame) Update() error {
	return r.update(r.onUpdateInputs)
}

// update runs one tick: pending configuration, inputs, then the scheduler. Cancellation ends the game cleanly, while a
// fatal render error is returned as is.
func (r *Renderer) update(pollInputs func()) error {
	if r.ctx.Err() != nil {
		log.Println("[SpinCube] Stopping:", context.Cause(r.ctx))
		return ebiten.Termination
	}
	if cfg := r.takePendingConfig(); cfg != nil {
		r.applyConfig(*cfg)
	}
	pollInputs()
	err := r.scheduler.Tick(r.ctx)
	var renderErr *internal.RenderError
	switch {
	case errors.Is(err, context.Canceled):
		return ebiten.Termination
	case errors.As(err, &renderErr):
		log.Println("[SpinCube] Stopping animation:", err)
		return err
	}
	return err
}

func (r rendererEbitenGame) Draw(screen *ebiten.Image) {
	r.drawCube(screen)
	if r.showHUD {
		r.drawUI(screen)
	}
}

func (r rendererEbitenGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	// Re-queried every frame, so resizes apply to the next pointer event and tick
	r.state.Viewport = internal.Viewport{Width: float32(outsideWidth), Height: float32(outsideHeight)}
	r.gl.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight // Use all available pixels, no re-scaling
}

// drawCube uploads the last software-rendered frame to the GPU.
func (r *Renderer) drawCube(screen *ebiten.Image) {
	r.premul = premultiply(r.premul, r.gl.Image())
	size := r.premul.Rect.Size()
	if r.frame == nil || r.frame.Bounds().Size() != size {
		if r.frame != nil {
			r.frame.Deallocate()
		}
		r.frame = ebiten.NewImage(size.X, size.Y)
	}
	r.frame.WritePixels(r.premul.Pix)
	screen.DrawImage(r.frame, nil)
}

// premultiply converts src into the alpha-premultiplied layout WritePixels expects, reusing dst when the size matches.
func premultiply(dst *image.RGBA, src image.Image) *image.RGBA {
	b := src.Bounds()
	if dst == nil || dst.Rect.Size() != b.Size() {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
