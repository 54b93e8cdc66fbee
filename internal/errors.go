package internal

import "fmt"

// SetupStage names the initialization step that failed.
type SetupStage string

const (
	StageSurface   SetupStage = "surface"
	StageShader    SetupStage = "shader"
	StageLink      SetupStage = "link"
	StageAttribute SetupStage = "attribute"
	StageUniform   SetupStage = "uniform"
	StageBuffer    SetupStage = "buffer"
)

// SetupError is returned when the graphics pipeline can't be initialized. It is never retried.
type SetupError struct {
	Stage SetupStage
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed at %s stage: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

// RenderError is a per-frame failure to upload the transforms or draw.
type RenderError struct {
	Frame uint64
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render failed at frame %d: %v", e.Frame, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
