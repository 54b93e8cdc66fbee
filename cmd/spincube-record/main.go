// spincube-record renders a scripted drag of the spinning cube without a window and saves every frame as WebP.
package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/Yeicor/spincube-ui"
	"github.com/spf13/cobra"
)

var (
	width, height int
	outDir        string
	configPath    string
	dragX, dragY  float32
	dragFrames    int
	coastFrames   int
	workers       int
)

func main() {
	cmd := &cobra.Command{
		Use:   "spincube-record",
		Short: "Record a spinning cube as WebP frames",
		Long: `spincube-record presses the pointer, drags it by (drag-x, drag-y) pixels over
drag-frames frames, releases it and lets the cube coast for coast frames.
Every frame is written to <out>/frame-NNNNN.webp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&width, "width", 320, "Surface width in pixels")
	cmd.Flags().IntVar(&height, "height", 240, "Surface height in pixels")
	cmd.Flags().StringVarP(&outDir, "out", "o", "frames", "Output directory")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().Float32Var(&dragX, "drag-x", 100, "Horizontal drag distance in pixels")
	cmd.Flags().Float32Var(&dragY, "drag-y", 0, "Vertical drag distance in pixels")
	cmd.Flags().IntVar(&dragFrames, "drag-frames", 1, "Frames the drag is split into")
	cmd.Flags().IntVar(&coastFrames, "coast", 60, "Frames rendered after the release")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Parallel WebP encoders (0 for one per CPU)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := ui.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = ui.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	sink, wait := ui.ParallelSink(ctx, workers, writeWebP)
	state, err := ui.Record(ctx, ui.RecordOptions{
		Width:  width,
		Height: height,
		Config: cfg,
		Script: ui.LinearDrag(dragX, dragY, dragFrames, coastFrames),
	}, sink)
	if waitErr := wait(); err == nil {
		err = waitErr
	}
	if err != nil {
		return err
	}
	log.Printf("Done: theta=%.4f phi=%.4f, frames in %s", state.Orientation.Theta, state.Orientation.Phi, outDir)
	return nil
}

func writeWebP(frame uint64, img image.Image) error {
	f, err := os.Create(filepath.Join(outDir, fmt.Sprintf("frame-%05d.webp", frame)))
	if err != nil {
		return err
	}
	if err = nativewebp.Encode(f, img, nil); err != nil {
		_ = f.Close()
		return fmt.Errorf("WebP encode: %w", err)
	}
	return f.Close()
}
