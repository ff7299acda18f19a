package picking

import (
	"errors"
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMap(t *testing.T) {
	tests := []struct {
		name   string
		local  Point
		box    Box
		iw, ih int
		want   UV
	}{
		{"center of wide image", Point{300, 200}, Box{Width: 600, Height: 400}, 1200, 400, UV{0.5, 0.5}},
		{"origin of wide image", Point{0, 0}, Box{Width: 600, Height: 400}, 1200, 400, UV{-0.5, 0}},
		{"matching aspect", Point{150, 100}, Box{Width: 600, Height: 400}, 300, 200, UV{0.25, 0.25}},
		{"tall image", Point{100, 0}, Box{Width: 200, Height: 200}, 100, 400, UV{0.5, 0.375}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Map(tt.local, tt.box, tt.iw, tt.ih)
			if err != nil {
				t.Fatal(err)
			}
			if !near(got.U, tt.want.U) || !near(got.V, tt.want.V) {
				t.Errorf("Map = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMap_Empty(t *testing.T) {
	cases := []struct {
		box    Box
		iw, ih int
	}{
		{Box{Width: 0, Height: 10}, 10, 10},
		{Box{Width: 10, Height: 0}, 10, 10},
		{Box{Width: 10, Height: 10}, 0, 10},
		{Box{Width: 10, Height: 10}, 10, 0},
	}
	for _, c := range cases {
		if _, err := Map(Point{}, c.box, c.iw, c.ih); !errors.Is(err, ErrEmpty) {
			t.Errorf("Map(%+v, %d, %d) err = %v", c.box, c.iw, c.ih, err)
		}
	}
}

func TestLocal(t *testing.T) {
	b := Box{Width: 600, Height: 400, Offsets: []Point{{10, 20}, {100, 50}}}
	got := b.Local(Point{400, 250}, Point{10, 20})
	if got != (Point{300, 200}) {
		t.Errorf("Local = %+v", got)
	}
	uv, err := MapClient(Point{400, 250}, Point{10, 20}, b, 1200, 400)
	if err != nil || !near(uv.U, 0.5) || !near(uv.V, 0.5) {
		t.Errorf("MapClient = %v, %v", uv, err)
	}
}

func TestUV_Clamp(t *testing.T) {
	uv := UV{-0.25, 1.5}
	if uv.InRange() {
		t.Error("out-of-range UV reported in range")
	}
	if got := uv.Clamp(); got != (UV{0, 1}) || !got.InRange() {
		t.Errorf("Clamp = %v", got)
	}
}

func TestExtent_EdgesMapToImageBorder(t *testing.T) {
	tests := []struct {
		name   string
		box    Box
		iw, ih int
		fx, fy float64
	}{
		{"wide image letterboxed", Box{Width: 600, Height: 400}, 1200, 400, 0.5, 1},
		{"tall image cropped", Box{Width: 600, Height: 400}, 400, 1200, 1, 4.5},
		{"matching aspect", Box{Width: 600, Height: 400}, 300, 200, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, fy, err := Extent(tt.box, tt.iw, tt.ih)
			if err != nil {
				t.Fatal(err)
			}
			if !near(fx, tt.fx) || !near(fy, tt.fy) {
				t.Fatalf("Extent = %v, %v, want %v, %v", fx, fy, tt.fx, tt.fy)
			}
			// the drawn image's top-left and bottom-right corners must map to
			// the texture corners
			left := tt.box.Width * (1 - fx) / 2
			top := tt.box.Height * (1 - fy) / 2
			uv, _ := Map(Point{left, top}, tt.box, tt.iw, tt.ih)
			if !near(uv.U, 0) || !near(uv.V, 0) {
				t.Errorf("top-left maps to %v", uv)
			}
			uv, _ = Map(Point{tt.box.Width - left, tt.box.Height - top}, tt.box, tt.iw, tt.ih)
			if !near(uv.U, 1) || !near(uv.V, 1) {
				t.Errorf("bottom-right maps to %v", uv)
			}
		})
	}

	if _, _, err := Extent(Box{}, 1, 1); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty box err = %v", err)
	}
}
