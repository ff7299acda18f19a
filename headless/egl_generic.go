//go:build !linux

// Package headless provides an EGL pbuffer context for rendering without a
// window or display server.
package headless

import (
	"fmt"

	"github.com/richinsley/rosecolored/graphics"
)

// Headless is unavailable on this platform.
type Headless struct{}

var _ graphics.Context = (*Headless)(nil)

func NewHeadless(width, height int) (*Headless, error) {
	return nil, fmt.Errorf("%w: egl headless rendering is not supported on this platform", graphics.ErrContextAcquisition)
}

func (h *Headless) MakeCurrent()                   {}
func (h *Headless) Shutdown()                      {}
func (h *Headless) ShouldClose() bool              { return true }
func (h *Headless) EndFrame()                      {}
func (h *Headless) GetFramebufferSize() (int, int) { return 0, 0 }
func (h *Headless) Time() float64                  { return 0 }
func (h *Headless) IsGLES() bool                   { return true }
