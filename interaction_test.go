package ui

import (
	"testing"

	"github.com/Yeicor/spincube-ui/internal"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/stretchr/testify/assert"
)

func kinds(evs []internal.PointerEvent) []internal.PointerKind {
	res := make([]internal.PointerKind, 0, len(evs))
	for _, ev := range evs {
		res = append(res, ev.Kind)
	}
	return res
}

func TestPointerPollerDrag(t *testing.T) {
	var p pointerPoller
	assert.Empty(t, p.events(pointerSample{X: 10, Y: 10, Inside: true}))

	// Hovering moves are reported, the tracker ignores them while not dragging
	evs := p.events(pointerSample{X: 15, Y: 10, Inside: true})
	assert.Equal(t, []internal.PointerKind{internal.PointerMove}, kinds(evs))

	evs = p.events(pointerSample{X: 15, Y: 10, Pressed: true, Inside: true})
	assert.Equal(t, []internal.PointerKind{internal.PointerDown}, kinds(evs))

	evs = p.events(pointerSample{X: 25, Y: 7, Pressed: true, Inside: true})
	assert.Equal(t, []internal.PointerEvent{{Kind: internal.PointerMove, MovementX: 10, MovementY: -3}}, evs)

	// The last movement counts before the release
	evs = p.events(pointerSample{X: 30, Y: 7, Inside: true})
	assert.Equal(t, []internal.PointerKind{internal.PointerMove, internal.PointerUp}, kinds(evs))
	assert.Equal(t, float32(5), evs[0].MovementX)
}

func TestPointerPollerMovementBeforePressIsIgnored(t *testing.T) {
	var p pointerPoller
	_ = p.events(pointerSample{X: 0, Y: 0, Inside: true})
	s := internal.State{Viewport: internal.Viewport{Width: 100, Height: 100}}
	tracker := internal.NewPointerTracker(&s)
	for _, ev := range p.events(pointerSample{X: 50, Y: 50, Pressed: true, Inside: true}) {
		_ = tracker.Handle(ev)
	}
	assert.True(t, s.Dragging)
	assert.Zero(t, s.Orientation.Theta)
}

func TestPointerPollerLeave(t *testing.T) {
	var p pointerPoller
	_ = p.events(pointerSample{X: 5, Y: 5, Pressed: true, Inside: true})
	evs := p.events(pointerSample{X: -3, Y: 5, Pressed: true})
	assert.Equal(t, []internal.PointerKind{internal.PointerMove, internal.PointerLeave}, kinds(evs))
	// Pressing outside the surface doesn't start a drag
	_ = p.events(pointerSample{X: -3, Y: 5})
	assert.Empty(t, p.events(pointerSample{X: -3, Y: 5, Pressed: true}))
}

func TestPointerPollerTouchSwitch(t *testing.T) {
	var p pointerPoller
	_ = p.events(pointerSample{X: 300, Y: 300, Inside: true})
	evs := p.events(pointerSample{X: 20, Y: 20, Pressed: true, Inside: true, Touch: true})
	assert.Equal(t, []internal.PointerKind{internal.PointerDown}, kinds(evs))
	evs = p.events(pointerSample{X: 300, Y: 300, Inside: true})
	assert.Equal(t, []internal.PointerKind{internal.PointerUp}, kinds(evs))
}

func TestHUDTextMeasure(t *testing.T) {
	w, h := text.Measure("ab\ncd", hudFace, hudLineSpacing)
	assert.InDelta(t, 14, w, 1e-9)
	assert.InDelta(t, 2*hudLineSpacing, h, 1e-9)
}
