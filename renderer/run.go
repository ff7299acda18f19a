package renderer

import (
	"context"

	"github.com/richinsley/rosecolored/graphics"
	"github.com/richinsley/rosecolored/picking"
	"github.com/sirupsen/logrus"
)

// Click is a left-button press in window coordinates, origin top-left.
type Click struct {
	X, Y float64
}

// Input is the pointer side of an interactive window.
type Input interface {
	// Clicks drains the presses collected since the last call.
	Clicks() []Click
	// WindowSize is the window size in the units clicks are reported in.
	WindowSize() (int, int)
}

// Viewer drives a Surface in a window: each frame it applies finished
// loads, turns clicks into mask requests, draws and presents.
type Viewer struct {
	Window  graphics.Context
	Input   Input
	Surface *Surface
	Log     *logrus.Entry
}

// Run loops until the window closes or ctx is done. It must run on the
// goroutine that owns the window's context.
func (v *Viewer) Run(ctx context.Context) error {
	log := v.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := v.Surface
	frames, start := 0, v.Window.Time()
	for !v.Window.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		if w, h := v.Window.GetFramebufferSize(); w > 0 && h > 0 {
			if err := s.Resize(w, h); err != nil {
				return err
			}
		}
		if v.Input != nil {
			for _, c := range v.Input.Clicks() {
				v.pick(log, c)
			}
		}
		// failures are reported through OnError; the loop keeps going
		_ = s.Poll()
		if err := s.Render(); err != nil {
			return err
		}
		v.Window.EndFrame()
		frames++
	}
	fields := logrus.Fields{"frames": frames}
	if elapsed := v.Window.Time() - start; elapsed > 0 {
		fields["fps"] = float64(frames) / elapsed
	}
	log.WithFields(fields).Info("viewer closed")
	return nil
}

func (v *Viewer) pick(log *logrus.Entry, c Click) {
	s := v.Surface
	iw, ih := s.ImageSize()
	if iw == 0 || ih == 0 {
		log.Debug("click ignored, no photo on screen")
		return
	}
	ww, wh := v.Input.WindowSize()
	uv, err := picking.Map(picking.Point{X: c.X, Y: c.Y},
		picking.Box{Width: float64(ww), Height: float64(wh)}, iw, ih)
	if err != nil {
		log.WithError(err).Warn("cannot map click")
		return
	}
	if !uv.InRange() {
		log.WithField("uv", uv.String()).Debug("click outside the photo, clamping")
	}
	if err := s.RequestMask(uv); err != nil {
		log.WithError(err).Warn("mask request failed")
	}
}
