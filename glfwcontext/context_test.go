package glfwcontext

import "testing"

func TestFitAspect(t *testing.T) {
	tests := []struct {
		iw, ih, side int
		w, h         int
	}{
		{1200, 400, 900, 900, 300},
		{400, 1200, 900, 300, 900},
		{500, 500, 640, 640, 640},
		{4000, 1, 800, 800, 1},
		{0, 10, 800, 800, 800},
	}
	for _, tt := range tests {
		w, h := FitAspect(tt.iw, tt.ih, tt.side)
		if w != tt.w || h != tt.h {
			t.Errorf("FitAspect(%d, %d, %d) = %dx%d, want %dx%d", tt.iw, tt.ih, tt.side, w, h, tt.w, tt.h)
		}
	}
}
