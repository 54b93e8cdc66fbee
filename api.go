package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/Yeicor/spincube-ui/internal"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/subchen/go-trylock/v2"
)

// DefaultSurfaceID names the drawing surface the viewer creates for itself.
const DefaultSurfaceID = "spincube"

// Option configures a Renderer before it runs.
type Option func(r *Renderer)

// Renderer is the interactive cube viewer: pointer drags rotate the cube, which keeps coasting after release.
type Renderer struct {
	cfg        Config
	cfgPath    string
	title      string
	surfaceID  string
	surfaceW   int
	surfaceH   int
	configLock trylock.TryLocker // Guards pendingCfg, written by the config watcher
	pendingCfg *Config

	ctx    context.Context
	cancel context.CancelFunc

	state     *internal.State
	tracker   *internal.PointerTracker
	scheduler *internal.Scheduler
	gl        *softGL
	step      *internal.RenderStep
	geom      internal.Geometry
	faces     [6][4]float32 // Uploaded with geom, fixed until restart
	pointer   pointerPoller
	frame     *ebiten.Image
	premul    *image.RGBA
	showHUD   bool
	moveWarn  bool
}

// OptMConfig replaces the whole configuration (see DefaultConfig).
func OptMConfig(cfg Config) Option {
	return func(r *Renderer) {
		r.cfg = cfg.clone()
	}
}

// OptMConfigFile loads the configuration from a TOML file when the viewer starts, and reloads it every time the file
// changes. A missing file keeps the current configuration until it is created.
func OptMConfigFile(path string) Option {
	return func(r *Renderer) {
		r.cfgPath = path
	}
}

// OptMSurface sets the identifier and the initial size of the drawing surface (the window, or the browser canvas).
func OptMSurface(id string, width, height int) Option {
	return func(r *Renderer) {
		r.surfaceID = id
		r.surfaceW = width
		r.surfaceH = height
	}
}

// OptMTitle sets the window title.
func OptMTitle(title string) Option {
	return func(r *Renderer) {
		r.title = title
	}
}

// NewRenderer creates a viewer, call Run to start it.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		cfg:        DefaultConfig(),
		title:      "SpinCube",
		surfaceID:  DefaultSurfaceID,
		surfaceW:   800,
		surfaceH:   600,
		configLock: trylock.New(),
		state:      &internal.State{},
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run sets up the graphics pipeline and blocks running the animation loop until the window is closed, Stop is called,
// the process is signalled or a frame fails to render (with the fatal policy). Setup failures are returned as
// *internal.SetupError before any window is shown.
func (r *Renderer) Run() error {
	ctx := r.ctx
	if sigs := signals(); len(sigs) > 0 {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, sigs...)
		defer stop()
	}
	r.ctx = ctx
	defer r.cancel()

	if r.cfgPath != "" {
		cfg, err := LoadConfig(r.cfgPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Println("[SpinCube] No configuration at", r.cfgPath, "yet, using defaults")
		case err != nil:
			return err
		default:
			r.cfg = cfg
		}
		if err = watchConfig(ctx, r.cfgPath, r.setPendingConfig); err != nil {
			log.Println("[SpinCube] Configuration won't be reloaded:", err)
		}
	}
	if err := r.cfg.Validate(); err != nil {
		return err
	}
	if err := r.setup(); err != nil {
		return err
	}

	ebiten.SetWindowTitle(r.title)
	ebiten.SetWindowSize(r.surfaceW, r.surfaceH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	if r.cfg.TPS > 0 {
		ebiten.SetTPS(r.cfg.TPS)
	}
	err := ebiten.RunGame(rendererEbitenGame{r})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Stop ends Run at the start of the next frame.
func (r *Renderer) Stop() {
	r.cancel()
}

// setup builds the pipeline on a software surface of the initial size.
func (r *Renderer) setup() error {
	gl, err := newSoftGL(r.surfaceW, r.surfaceH)
	if err != nil {
		return &internal.SetupError{Stage: internal.StageSurface, Err: err}
	}
	r.faces = r.cfg.faceColors()
	r.geom = internal.CubeGeometry(r.faces)
	step, err := internal.Setup(softSurfaces{r.surfaceID: gl}, r.surfaceID, r.geom)
	if err != nil {
		return err
	}
	r.gl = gl
	r.step = step
	r.state.Viewport = internal.Viewport{Width: float32(r.surfaceW), Height: float32(r.surfaceH)}
	r.tracker = internal.NewPointerTracker(r.state)
	r.scheduler = internal.NewScheduler(r.state, step)
	r.applyConfig(r.cfg)
	return nil
}

// applyConfig pushes the tunables that can change while running. Face colors are uploaded once at setup.
func (r *Renderer) applyConfig(cfg Config) {
	if cfg.faceColors() != r.faces {
		log.Println("[SpinCube] Face colors apply after a restart")
	}
	warnIfClipped(cfg.camera(), r.geom)
	r.cfg = cfg
	r.tracker.LeaveEndsDrag = cfg.LeaveEndsDrag
	r.scheduler.Amortization = cfg.Amortization
	r.scheduler.Camera = cfg.camera()
	r.scheduler.Policy = cfg.failurePolicy()
	r.step.ClearColor = [4]float32{cfg.ClearColor.R, cfg.ClearColor.G, cfg.ClearColor.B, cfg.ClearColor.A}
	r.showHUD = cfg.ShowHUD
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
}

// setPendingConfig is called from the watcher goroutine.
func (r *Renderer) setPendingConfig(cfg Config) {
	cfg = cfg.clone()
	r.configLock.Lock()
	r.pendingCfg = &cfg
	r.configLock.Unlock()
}

// takePendingConfig never blocks the frame for long: if the watcher holds the lock, the config is picked up later.
func (r *Renderer) takePendingConfig() *Config {
	ctx, cancel := context.WithTimeout(r.ctx, time.Millisecond)
	defer cancel()
	if !r.configLock.TryLock(ctx) {
		return nil
	}
	defer r.configLock.Unlock()
	cfg := r.pendingCfg
	r.pendingCfg = nil
	return cfg
}

// String describes the current state, for logs and the HUD.
func (r *Renderer) String() string {
	return fmt.Sprintf("%s dragging=%t", fmtState(*r.state), r.state.Dragging)
}
