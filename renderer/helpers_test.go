package renderer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/richinsley/rosecolored/colorspace"
	"github.com/richinsley/rosecolored/graphics"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// fakeLoader serves images from memory. A URL with a gate blocks until the
// gate is closed, ignoring cancellation so late arrivals can be simulated.
type fakeLoader struct {
	mu     sync.Mutex
	images map[string]image.Image
	gates  map[string]chan struct{}
	calls  []string
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		images: make(map[string]image.Image),
		gates:  make(map[string]chan struct{}),
	}
}

func (l *fakeLoader) add(url string, img image.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[url] = img
}

func (l *fakeLoader) gate(url string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	g := make(chan struct{})
	l.gates[url] = g
	return g
}

func (l *fakeLoader) Load(ctx context.Context, url string) (image.Image, error) {
	l.mu.Lock()
	l.calls = append(l.calls, url)
	g := l.gates[url]
	l.mu.Unlock()
	if g != nil {
		<-g
	}
	l.mu.Lock()
	img, ok := l.images[url]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", graphics.ErrImageLoad, url)
	}
	return img, nil
}

func (l *fakeLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func newSurface(t *testing.T, opts SurfaceOptions) *Surface {
	t.Helper()
	if opts.Width == 0 {
		opts.Width, opts.Height = 8, 8
	}
	s := NewSurface(SoftwareDevice(opts.Width, opts.Height), opts)
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(s.Shutdown)
	return s
}

func await(t *testing.T, s *Surface) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Await(ctx)
}

func frame(t *testing.T, s *Surface) *image.RGBA {
	t.Helper()
	if err := s.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return img
}

func center(img *image.RGBA) color.RGBA {
	b := img.Bounds()
	return img.RGBAAt(b.Dx()/2, b.Dy()/2)
}

func toColor(c color.RGBA) colorspace.Color {
	return colorspace.Color{R: float32(c.R) / 255, G: float32(c.G) / 255, B: float32(c.B) / 255}
}

func closeTo(a, b color.RGBA, tol int) bool {
	d := func(x, y uint8) bool {
		diff := int(x) - int(y)
		return diff <= tol && diff >= -tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B)
}
