package main

import (
	"fmt"

	"github.com/richinsley/rosecolored/encoder"
	"github.com/richinsley/rosecolored/renderer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Render the masked region through a hue sweep into a video",
	RunE:  runSweep,
}

func init() {
	opts.BindSources(sweepCmd.Flags())
	opts.BindOutput(sweepCmd.Flags())
	opts.BindSweep(sweepCmd.Flags())
}

func runSweep(cmd *cobra.Command, args []string) error {
	if err := opts.ValidateRender(); err != nil {
		return err
	}
	colors := opts.SweepColors()
	if len(colors) == 0 {
		return fmt.Errorf("--steps must be positive")
	}

	enc, err := encoder.New(encoder.Options{
		OutputFile: opts.Output,
		Width:      opts.Width,
		Height:     opts.Height,
		FPS:        opts.FPS,
		Codec:      opts.Codec,
		HWAccel:    opts.HWAccel,
		FFMPEGPath: opts.FFMPEGPath,
	})
	if err != nil {
		return err
	}

	acquire, release, err := offscreenDevice()
	if err != nil {
		return err
	}
	defer release()

	s := newSurface(acquire, opts.Width, opts.Height, nil, nil)
	if err := s.Initialize(); err != nil {
		return err
	}
	defer s.Shutdown()
	if err := s.SetSources(opts.Photo, opts.Mask()); err != nil {
		return err
	}

	if err := enc.Start(); err != nil {
		return err
	}
	n, sweepErr := renderer.Sweep(cmd.Context(), s, colors, enc)
	if err := enc.Close(); err != nil && sweepErr == nil {
		sweepErr = err
	}
	if sweepErr != nil {
		return fmt.Errorf("sweep stopped after %d frames: %w", n, sweepErr)
	}
	logrus.WithFields(logrus.Fields{
		"output": opts.Output,
		"frames": n,
	}).Info("sweep complete")
	return nil
}
