package renderer

import (
	"context"
	"testing"

	"github.com/richinsley/rosecolored/picking"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeWindow closes itself after a fixed number of frames and replays
// scripted clicks, one batch per frame.
type fakeWindow struct {
	frames, limit int
	w, h          int
	clicks        [][]Click
}

func (f *fakeWindow) MakeCurrent()                   {}
func (f *fakeWindow) Shutdown()                      {}
func (f *fakeWindow) ShouldClose() bool              { return f.frames >= f.limit }
func (f *fakeWindow) EndFrame()                      { f.frames++ }
func (f *fakeWindow) GetFramebufferSize() (int, int) { return f.w, f.h }
func (f *fakeWindow) Time() float64                  { return float64(f.frames) / 60 }
func (f *fakeWindow) IsGLES() bool                   { return false }

func (f *fakeWindow) Clicks() []Click {
	if f.frames < len(f.clicks) {
		return f.clicks[f.frames]
	}
	return nil
}

func (f *fakeWindow) WindowSize() (int, int) { return f.w, f.h }

func TestViewer_ClickPicksMask(t *testing.T) {
	loader := newFakeLoader()
	loader.add("photo", solid(12, 4, brick))
	loader.add("mask", solid(12, 4, white))

	lookups := make(chan picking.UV, 4)
	s := newSurface(t, SurfaceOptions{
		Width: 6, Height: 4,
		Loader: loader,
		MaskLookup: func(ctx context.Context, photoURL string, uv picking.UV) (string, error) {
			lookups <- uv
			return "mask", nil
		},
	})
	s.SetColor(blue)
	s.SetPhotoURL("photo")
	if err := await(t, s); err != nil {
		t.Fatal(err)
	}

	win := &fakeWindow{limit: 3, w: 6, h: 4, clicks: [][]Click{{{X: 3, Y: 2}}}}
	v := &Viewer{Window: win, Input: win, Surface: s}
	if err := v.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if win.frames != 3 {
		t.Errorf("presented %d frames, want 3", win.frames)
	}

	if err := await(t, s); err != nil {
		t.Fatal(err)
	}
	select {
	case uv := <-lookups:
		if uv != (picking.UV{U: 0.5, V: 0.5}) {
			t.Errorf("lookup uv = %v, want center", uv)
		}
	default:
		t.Fatal("click did not reach the mask lookup")
	}
	if s.MaskURL() != "mask" {
		t.Errorf("mask URL = %q", s.MaskURL())
	}
}

func TestViewer_ClickWithoutPhotoIgnored(t *testing.T) {
	called := false
	s := newSurface(t, SurfaceOptions{
		Loader: newFakeLoader(),
		MaskLookup: func(ctx context.Context, photoURL string, uv picking.UV) (string, error) {
			called = true
			return "", nil
		},
	})
	win := &fakeWindow{limit: 1, w: 8, h: 8, clicks: [][]Click{{{X: 1, Y: 1}}}}
	if err := (&Viewer{Window: win, Input: win, Surface: s}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if called || s.Pending() != 0 {
		t.Error("click without a photo started a lookup")
	}
}

func TestViewer_StopsOnContext(t *testing.T) {
	s := newSurface(t, SurfaceOptions{Loader: newFakeLoader()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	win := &fakeWindow{limit: 100, w: 8, h: 8}
	if err := (&Viewer{Window: win, Surface: s}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if win.frames != 0 {
		t.Errorf("ran %d frames after cancellation", win.frames)
	}
}

func TestViewer_TracksFramebufferSize(t *testing.T) {
	s := newSurface(t, SurfaceOptions{Loader: newFakeLoader()})
	win := &fakeWindow{limit: 1, w: 10, h: 5}
	if err := (&Viewer{Window: win, Surface: s}).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if w, h := s.Size(); w != 10 || h != 5 {
		t.Errorf("surface size = %dx%d, want 10x5", w, h)
	}
}

func TestViewer_LogsFrameRate(t *testing.T) {
	s := newSurface(t, SurfaceOptions{Width: 4, Height: 4})
	logger, hook := test.NewNullLogger()
	win := &fakeWindow{limit: 6, w: 4, h: 4}
	v := &Viewer{Window: win, Surface: s, Log: logrus.NewEntry(logger)}
	if err := v.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Message != "viewer closed" {
		t.Fatalf("last log entry = %v", entry)
	}
	if entry.Data["frames"] != 6 {
		t.Errorf("frames = %v, want 6", entry.Data["frames"])
	}
	// the fake clock advances 1/60 s per presented frame
	if fps, ok := entry.Data["fps"].(float64); !ok || fps < 59.9 || fps > 60.1 {
		t.Errorf("fps = %v, want 60", entry.Data["fps"])
	}
}
