// Package glfwcontext provides a GLFW window implementing graphics.Context.
package glfwcontext

import (
	"fmt"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/rosecolored/graphics"
	"github.com/richinsley/rosecolored/renderer"
	"github.com/sirupsen/logrus"
)

// Options configures the window.
type Options struct {
	Width   int
	Height  int
	Title   string
	Visible bool
}

// Context tracks clicks and key callbacks for one window.
type Context struct {
	window *glfw.Window
	clicks []renderer.Click
	// key press handlers, run from EndFrame
	keyCallbacks map[glfw.Key]func()
}

var (
	_ graphics.Context = (*Context)(nil)
	_ renderer.Input   = (*Context)(nil)
)

// New opens a window with a GL 4.1 core context. InitGraphics must have
// been called. Failures wrap graphics.ErrContextAcquisition.
func New(opts Options) (*Context, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	if opts.Visible {
		glfw.WindowHint(glfw.Resizable, glfw.True)
		glfw.WindowHint(glfw.Visible, glfw.True)
	} else {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	title := opts.Title
	if title == "" {
		title = "rosecolored"
	}
	win, err := glfw.CreateWindow(opts.Width, opts.Height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", graphics.ErrContextAcquisition, err)
	}

	c := &Context{
		window:       win,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetMouseButtonCallback(c.glfwMouseButtonCallback)
	return c, nil
}

// RegisterKeyCallback runs f when key is pressed. Callbacks run inside
// EndFrame on the window's goroutine; Esc always closes the window.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
	}
	if action == glfw.Press {
		if callback, ok := c.keyCallbacks[key]; ok {
			callback()
		}
	}
}

func (c *Context) glfwMouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft || action != glfw.Press {
		return
	}
	x, y := w.GetCursorPos()
	c.clicks = append(c.clicks, renderer.Click{X: x, Y: y})
}

// Clicks drains the left-button presses, in window coordinates.
func (c *Context) Clicks() []renderer.Click {
	out := c.clicks
	c.clicks = nil
	return out
}

// WindowSize is the size in window coordinates, which on HiDPI displays
// differs from the framebuffer size.
func (c *Context) WindowSize() (int, int) {
	return c.window.GetSize()
}

// SetSize resizes the window.
func (c *Context) SetSize(width, height int) {
	c.window.SetSize(width, height)
}

// SetTitle changes the window title.
func (c *Context) SetTitle(title string) {
	c.window.SetTitle(title)
}

func (c *Context) IsGLES() bool {
	// GLFW does not provide a direct way to check if the context is GLES.
	return false
}

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
}

// Shutdown only destroys the window; TerminateGraphics ends GLFW.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

func (c *Context) Time() float64 {
	return glfw.GetTime()
}

// InitGraphics starts GLFW on the calling thread, which it locks.
func InitGraphics() error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("%w: %v", graphics.ErrContextAcquisition, err)
	}
	logrus.Debug("GLFW initialized")
	return nil
}

// TerminateGraphics stops GLFW. Call it from the thread that ran InitGraphics.
func TerminateGraphics() {
	glfw.Terminate()
	logrus.Debug("GLFW terminated")
}

// FitAspect returns a window size with the image's aspect ratio whose
// larger side is maxSide.
func FitAspect(imageWidth, imageHeight, maxSide int) (int, int) {
	if imageWidth <= 0 || imageHeight <= 0 || maxSide <= 0 {
		return maxSide, maxSide
	}
	if imageWidth >= imageHeight {
		h := (imageHeight*maxSide + imageWidth/2) / imageWidth
		return maxSide, max(h, 1)
	}
	w := (imageWidth*maxSide + imageHeight/2) / imageHeight
	return max(w, 1), maxSide
}
