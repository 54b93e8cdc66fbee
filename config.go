package ui

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/Yeicor/spincube-ui/internal"
	"github.com/barkimedes/go-deepcopy"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mitchellh/reflectwalk"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R float32 `toml:"r"`
	G float32 `toml:"g"`
	B float32 `toml:"b"`
	A float32 `toml:"a"`
}

func (c Color) validate(name string) error {
	for _, v := range [4]float32{c.R, c.G, c.B, c.A} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s component %g outside [0, 1]", ErrInvalidConfig, name, v)
		}
	}
	return nil
}

// Config holds every tunable of the viewer. It can be set with OptMConfig or loaded from a TOML file.
type Config struct {
	Amortization     float32 `toml:"amortization"`       // Velocity decay per frame while coasting
	FovYDegrees      float32 `toml:"fov_y_degrees"`      // Vertical field of view
	Near             float32 `toml:"near"`               // Near clipping plane
	Far              float32 `toml:"far"`                // Far clipping plane
	Distance         float32 `toml:"distance"`           // Distance from the camera to the cube center
	ClearColor       Color   `toml:"clear_color"`        // Background
	FaceColors       []Color `toml:"face_colors"`        // Front, back, top, bottom, right, left
	LeaveEndsDrag    bool    `toml:"leave_ends_drag"`    // Leaving the surface releases the cube
	SkipFailedFrames bool    `toml:"skip_failed_frames"` // Keep animating after a frame fails to render
	TPS              int     `toml:"tps"`                // Ticks per second (0 keeps the host default)
	ShowHUD          bool    `toml:"show_hud"`
}

// DefaultConfig returns the stock viewer: 45º FOV, 0.95 amortization and the classic white/red/green/blue/
// yellow/purple faces on black.
func DefaultConfig() Config {
	cfg := Config{
		Amortization:  internal.Amortization,
		FovYDegrees:   mgl32.RadToDeg(internal.DefaultCamera.FovY),
		Near:          internal.DefaultCamera.Near,
		Far:           internal.DefaultCamera.Far,
		Distance:      internal.DefaultCamera.Distance,
		ClearColor:    Color{A: 1},
		LeaveEndsDrag: true,
		ShowHUD:       true,
	}
	for _, c := range internal.FaceColors {
		cfg.FaceColors = append(cfg.FaceColors, Color{R: c[0], G: c[1], B: c[2], A: c[3]})
	}
	return cfg
}

// LoadConfig reads a TOML file on top of DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML on top of DefaultConfig. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every number is finite and within range, colors included.
func (c Config) Validate() error {
	w := &finiteWalker{}
	if err := reflectwalk.Walk(c, w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.ClearColor.validate("clear_color"); err != nil {
		return err
	}
	for i, fc := range c.FaceColors {
		if err := fc.validate(fmt.Sprintf("face_colors[%d]", i)); err != nil {
			return err
		}
	}
	switch {
	case c.Amortization < 0 || c.Amortization > 1:
		return fmt.Errorf("%w: amortization %g outside [0, 1]", ErrInvalidConfig, c.Amortization)
	case c.FovYDegrees <= 0 || c.FovYDegrees >= 180:
		return fmt.Errorf("%w: fov_y_degrees %g outside (0, 180)", ErrInvalidConfig, c.FovYDegrees)
	case c.Near <= 0 || c.Far <= c.Near:
		return fmt.Errorf("%w: clipping planes need 0 < near < far (near %g, far %g)", ErrInvalidConfig, c.Near, c.Far)
	case c.Distance <= 0:
		return fmt.Errorf("%w: distance %g must be positive", ErrInvalidConfig, c.Distance)
	case len(c.FaceColors) != 6:
		return fmt.Errorf("%w: need 6 face colors, got %d", ErrInvalidConfig, len(c.FaceColors))
	case c.TPS < 0:
		return fmt.Errorf("%w: negative tps %d", ErrInvalidConfig, c.TPS)
	}
	return nil
}

// clone returns a deep copy, so the running viewer never shares slices with the caller.
func (c Config) clone() Config {
	return *deepcopy.MustAnything(&c).(*Config)
}

func (c Config) camera() internal.Camera {
	return internal.Camera{
		FovY:     mgl32.DegToRad(c.FovYDegrees),
		Near:     c.Near,
		Far:      c.Far,
		Distance: c.Distance,
	}
}

func (c Config) faceColors() [6][4]float32 {
	var res [6][4]float32
	for i := 0; i < len(res) && i < len(c.FaceColors); i++ {
		fc := c.FaceColors[i]
		res[i] = [4]float32{fc.R, fc.G, fc.B, fc.A}
	}
	return res
}

func (c Config) failurePolicy() internal.FailurePolicy {
	if c.SkipFailedFrames {
		return internal.FailSkip
	}
	return internal.FailFatal
}

// finiteWalker rejects NaN and infinite floats anywhere in the walked value.
type finiteWalker struct {
	field string
}

func (w *finiteWalker) Struct(reflect.Value) error {
	return nil
}

func (w *finiteWalker) StructField(f reflect.StructField, _ reflect.Value) error {
	w.field = f.Name
	return nil
}

func (w *finiteWalker) Primitive(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		if f := v.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%s is not a finite number (%g)", w.field, f)
		}
	}
	return nil
}
