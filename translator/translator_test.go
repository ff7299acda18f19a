package translator

import "testing"

func TestMapped(t *testing.T) {
	tr := &Translated{Names: map[string]string{
		"u_color": "_uu_color",
		"u_mask":  "",
	}}
	tests := map[string]string{
		"u_color": "_uu_color",
		"u_mask":  "u_mask",
		"u_photo": "u_photo",
	}
	for in, want := range tests {
		if got := tr.Mapped(in); got != want {
			t.Errorf("Mapped(%q) = %q, want %q", in, got, want)
		}
	}
}
