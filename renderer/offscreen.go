package renderer

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/richinsley/rosecolored/colorspace"
	"github.com/richinsley/rosecolored/graphics"
	"github.com/richinsley/rosecolored/shader"
	"github.com/richinsley/rosecolored/softdevice"
)

// SoftwareDevice returns a factory for the pure-Go device with the recolor
// program registered. It never needs a GPU or a display.
func SoftwareDevice(width, height int) DeviceFactory {
	return func() (graphics.Device, error) {
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("%w: invalid framebuffer size %dx%d", graphics.ErrContextAcquisition, width, height)
		}
		dev := softdevice.New(width, height)
		shader.Register(dev)
		return dev, nil
	}
}

// RenderStill sets the sources and color, waits for both images, draws
// once and reads the frame back. Unlike the interactive path, a failed load
// is returned rather than only reported.
func RenderStill(ctx context.Context, s *Surface, photoURL, maskURL string, c colorspace.Color) (*image.RGBA, error) {
	if err := s.SetColor(c); err != nil {
		return nil, err
	}
	if err := s.SetSources(photoURL, maskURL); err != nil {
		return nil, err
	}
	if err := s.Await(ctx); err != nil {
		return nil, err
	}
	if err := s.Render(); err != nil {
		return nil, err
	}
	return s.Snapshot()
}

// FrameSink consumes rendered frames in order.
type FrameSink interface {
	WriteFrame(img *image.RGBA) error
}

// Sweep renders the surface's current sources once per color and hands
// every frame to sink. It returns the number of frames written.
func Sweep(ctx context.Context, s *Surface, colors []colorspace.Color, sink FrameSink) (int, error) {
	if err := s.Await(ctx); err != nil {
		return 0, err
	}
	for i, c := range colors {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := s.SetColor(c); err != nil {
			return i, err
		}
		if err := s.Render(); err != nil {
			return i, err
		}
		frame, err := s.Snapshot()
		if err != nil {
			return i, err
		}
		if err := sink.WriteFrame(frame); err != nil {
			return i, fmt.Errorf("failed to write frame %d: %w", i, err)
		}
	}
	return len(colors), nil
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
