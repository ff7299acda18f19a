package main

import (
	"github.com/richinsley/rosecolored/gldevice"
	"github.com/richinsley/rosecolored/headless"
	"github.com/richinsley/rosecolored/options"
	"github.com/richinsley/rosecolored/renderer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Recolor a photo offscreen and save it as a PNG",
	RunE:  runRender,
}

func init() {
	opts.BindSources(renderCmd.Flags())
	opts.BindOutput(renderCmd.Flags())
}

// offscreenDevice returns the device factory for --device and a function
// releasing whatever context backs it.
func offscreenDevice() (renderer.DeviceFactory, func(), error) {
	switch opts.Device {
	case options.DeviceEGL:
		ctx, err := headless.NewHeadless(opts.Width, opts.Height)
		if err != nil {
			return nil, nil, err
		}
		return gldevice.Factory(ctx), ctx.Shutdown, nil
	default:
		return renderer.SoftwareDevice(opts.Width, opts.Height), func() {}, nil
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := opts.ValidateRender(); err != nil {
		return err
	}
	color, _ := opts.TargetColor()

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

	frame, err := renderer.RenderStill(cmd.Context(), s, opts.Photo, opts.Mask(), color)
	if err != nil {
		return err
	}
	if err := renderer.SavePNG(opts.Output, frame); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"output": opts.Output,
		"color":  color.Hex(),
		"device": opts.Device,
	}).Info("render complete")
	return nil
}
