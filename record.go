package ui

import (
	"context"
	"fmt"
	"image"
	"log"

	"github.com/Yeicor/spincube-ui/internal"
)

// DragScript is a synthetic pointer interaction: press, one move per frame, release, then coast.
type DragScript struct {
	Moves       [][2]float32 // Pixel movement (x, y) applied before each dragged frame
	CoastFrames int          // Frames rendered after the release
}

// LinearDrag moves the pointer by (dx, dy) pixels split evenly across frames.
func LinearDrag(dx, dy float32, frames, coastFrames int) DragScript {
	s := DragScript{CoastFrames: coastFrames}
	for i := 0; i < frames; i++ {
		s.Moves = append(s.Moves, [2]float32{dx / float32(frames), dy / float32(frames)})
	}
	return s
}

// RecordOptions configure a headless recording.
type RecordOptions struct {
	Width, Height int
	Config        Config
	Script        DragScript
}

// FrameSink receives a private copy of every rendered frame, numbered from 1.
type FrameSink func(frame uint64, img image.Image) error

// Record renders the scripted interaction on a software surface, one frame per scheduler tick, and returns the final
// interaction state. Frames that the scheduler skips (failed renders with the skip policy) are not passed to sink.
func Record(ctx context.Context, opts RecordOptions, sink FrameSink) (internal.State, error) {
	if err := opts.Config.Validate(); err != nil {
		return internal.State{}, err
	}
	gl, err := newSoftGL(opts.Width, opts.Height)
	if err != nil {
		return internal.State{}, &internal.SetupError{Stage: internal.StageSurface, Err: err}
	}
	cfg := opts.Config
	geom := internal.CubeGeometry(cfg.faceColors())
	step, err := internal.Setup(softSurfaces{DefaultSurfaceID: gl}, DefaultSurfaceID, geom)
	if err != nil {
		return internal.State{}, err
	}
	warnIfClipped(cfg.camera(), geom)
	step.ClearColor = [4]float32{cfg.ClearColor.R, cfg.ClearColor.G, cfg.ClearColor.B, cfg.ClearColor.A}

	state := &internal.State{Viewport: internal.Viewport{Width: float32(opts.Width), Height: float32(opts.Height)}}
	tracker := internal.NewPointerTracker(state)
	tracker.LeaveEndsDrag = cfg.LeaveEndsDrag
	rec := &recordingStep{step: step, gl: gl, sink: sink}
	scheduler := internal.NewScheduler(state, rec)
	scheduler.Amortization = cfg.Amortization
	scheduler.Camera = cfg.camera()
	scheduler.Policy = cfg.failurePolicy()

	tick := func() error {
		err := scheduler.Tick(ctx)
		if rec.sinkErr != nil {
			return rec.sinkErr
		}
		return err
	}
	if len(opts.Script.Moves) > 0 {
		tracker.Down()
		for _, m := range opts.Script.Moves {
			if err = tracker.Move(m[0], m[1]); err != nil {
				return scheduler.Snapshot(), err
			}
			if err = tick(); err != nil {
				return scheduler.Snapshot(), err
			}
		}
		tracker.Up()
	}
	for i := 0; i < opts.Script.CoastFrames; i++ {
		if err = tick(); err != nil {
			return scheduler.Snapshot(), err
		}
	}
	log.Println("[SpinCube] Recorded", scheduler.Frame(), "frames, final state:", fmtState(scheduler.Snapshot()))
	return scheduler.Snapshot(), nil
}

// recordingStep renders and hands a copy of the frame to the sink. A sink failure always stops the recording,
// whatever the failure policy.
type recordingStep struct {
	step    *internal.RenderStep
	gl      *softGL
	sink    FrameSink
	frames  uint64
	sinkErr error
}

func (r *recordingStep) Render(pair internal.TransformPair) error {
	r.frames++
	if err := r.step.Render(pair); err != nil {
		return err
	}
	if r.sink == nil {
		return nil
	}
	if err := r.sink(r.frames, cloneFrame(r.gl.Image())); err != nil {
		r.sinkErr = fmt.Errorf("frame %d sink: %w", r.frames, err)
		return r.sinkErr
	}
	return nil
}

// warnIfClipped logs when part of the cube falls outside the near and far planes of cam.
func warnIfClipped(cam internal.Camera, geom internal.Geometry) {
	if cam.Clips(geom) {
		log.Println("[SpinCube] WARNING: the cube will be clipped by the near or far plane")
	}
}

func fmtState(s internal.State) string {
	return fmt.Sprintf("theta=%.4f phi=%.4f dX=%.4f dY=%.4f", s.Orientation.Theta, s.Orientation.Phi, s.Velocity.DX, s.Velocity.DY)
}
