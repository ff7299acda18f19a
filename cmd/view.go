package main

import (
	"fmt"
	"image"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/rosecolored/gldevice"
	"github.com/richinsley/rosecolored/glfwcontext"
	"github.com/richinsley/rosecolored/renderer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// maxWindowSide bounds the larger side of the viewer window.
const maxWindowSide = 1024

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open a window and recolor the region under each click",
	Long: `view shows the photo recolored with --color. Clicking asks the mask
service for the mask under the pointer. Keys: 1-9 pick one of the --mask
URLs, C copies the frame to the clipboard, S saves it as a PNG, Esc quits.`,
	RunE: runView,
}

func init() {
	opts.BindService(viewCmd.Flags())
	opts.BindSources(viewCmd.Flags())
	viewCmd.Flags().IntVar(&opts.Width, "width", opts.Width, "initial window width")
	viewCmd.Flags().IntVar(&opts.Height, "height", opts.Height, "initial window height")
}

func runView(cmd *cobra.Command, args []string) error {
	if opts.Photo == "" {
		return fmt.Errorf("--photo is required")
	}
	color, err := opts.TargetColor()
	if err != nil {
		return err
	}

	var lookup renderer.MaskLookup
	if client, err := newClient(); err != nil {
		logrus.WithError(err).Warn("clicks will not select masks")
	} else {
		lookup = client.MaskLookup(opts.WantChild)
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return err
	}
	defer glfwcontext.TerminateGraphics()

	win, err := glfwcontext.New(glfwcontext.Options{
		Width:   opts.Width,
		Height:  opts.Height,
		Title:   "rosecolored - " + opts.Photo,
		Visible: true,
	})
	if err != nil {
		return err
	}
	defer win.Shutdown()

	s := newSurface(gldevice.Factory(win), opts.Width, opts.Height, lookup, func(w, h int) {
		win.SetSize(glfwcontext.FitAspect(w, h, maxWindowSide))
	})
	if err := s.Initialize(); err != nil {
		return err
	}
	defer s.Shutdown()

	if err := s.SetColor(color); err != nil {
		return err
	}
	if err := s.SetSources(opts.Photo, opts.Mask()); err != nil {
		return err
	}
	bindViewKeys(win, s)

	v := &renderer.Viewer{
		Window:  win,
		Input:   win,
		Surface: s,
		Log:     logrus.WithField("component", "viewer"),
	}
	return v.Run(cmd.Context())
}

var digitKeys = []glfw.Key{glfw.Key1, glfw.Key2, glfw.Key3, glfw.Key4, glfw.Key5, glfw.Key6, glfw.Key7, glfw.Key8, glfw.Key9}

func bindViewKeys(win *glfwcontext.Context, s *renderer.Surface) {
	for i, key := range digitKeys {
		if i >= len(opts.Masks) {
			break
		}
		mask := opts.Masks[i]
		win.RegisterKeyCallback(key, func() {
			logrus.WithField("mask", mask).Info("selecting mask")
			if err := s.SetMaskURL(mask); err != nil {
				logrus.WithError(err).Warn("cannot select mask")
			}
		})
	}

	// Key callbacks run after the swap, so draw again before reading back.
	win.RegisterKeyCallback(glfw.KeyC, func() {
		frame, err := redraw(s)
		if err == nil {
			err = copyImage(frame)
		}
		if err != nil {
			logrus.WithError(err).Warn("cannot copy frame")
			return
		}
		logrus.Info("frame copied to clipboard")
	})
	win.RegisterKeyCallback(glfw.KeyS, func() {
		name := fmt.Sprintf("rosecolored-%s.png", time.Now().Format("20060102-150405"))
		frame, err := redraw(s)
		if err == nil {
			err = renderer.SavePNG(name, frame)
		}
		if err != nil {
			logrus.WithError(err).Warn("cannot save frame")
			return
		}
		logrus.WithField("file", name).Info("frame saved")
	})
}

func redraw(s *renderer.Surface) (*image.RGBA, error) {
	if err := s.Render(); err != nil {
		return nil, err
	}
	return s.Snapshot()
}
