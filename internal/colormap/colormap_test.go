package colormap

import (
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestGradientEndpoints(t *testing.T) {
	for _, name := range Names() {
		g, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}
		stops := g.Stops()
		if got := Hex(g.At(0)); got != stops[0] {
			t.Errorf("%s: At(0) = %s, want %s", name, got, stops[0])
		}
		if got := Hex(g.At(1)); got != stops[len(stops)-1] {
			t.Errorf("%s: At(1) = %s, want %s", name, got, stops[len(stops)-1])
		}
	}
}

func TestGradientInterpolates(t *testing.T) {
	g, err := NewGradient("bw", "#000000", "#ffffff")
	if err != nil {
		t.Fatalf("NewGradient: %v", err)
	}
	if got := Hex(g.At(0.5)); got != "#808080" {
		t.Errorf("expected mid grey, got %s", got)
	}

	g3, _ := NewGradient("rgb", "#ff0000", "#00ff00", "#0000ff")
	if got := Hex(g3.At(0.5)); got != "#00ff00" {
		t.Errorf("expected middle stop at 0.5, got %s", got)
	}
	if got := Hex(g3.At(0.25)); got != "#808000" {
		t.Errorf("expected red/green blend at 0.25, got %s", got)
	}
}

func TestGradientClamps(t *testing.T) {
	g, _ := NewGradient("bw", "#000000", "#ffffff")
	if got := Hex(g.At(-3)); got != "#000000" {
		t.Errorf("expected clamp to first stop, got %s", got)
	}
	if got := Hex(g.At(7)); got != "#ffffff" {
		t.Errorf("expected clamp to last stop, got %s", got)
	}
	if got := Hex(g.At(math.NaN())); got != "#000000" {
		t.Errorf("expected NaN to map to first stop, got %s", got)
	}
}

func TestReversed(t *testing.T) {
	g, err := Lookup("viridis_r")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if g.Name != "viridis_r" {
		t.Errorf("expected name viridis_r, got %q", g.Name)
	}
	if got := Hex(g.At(0)); got != "#fde725" {
		t.Errorf("expected reversed start #fde725, got %s", got)
	}
}

func TestLookupDefaultAndUnknown(t *testing.T) {
	g, err := Lookup("")
	if err != nil || g.Name != Default {
		t.Fatalf("expected default colormap, got %v, %v", g, err)
	}
	if _, err := Lookup("rainbow"); err == nil {
		t.Fatal("expected error for unknown colormap")
	}
	if _, err := Lookup("rainbow_r"); err == nil {
		t.Fatal("expected error for unknown reversed colormap")
	}
}

func TestNewGradientErrors(t *testing.T) {
	if _, err := NewGradient("one", "#000000"); err == nil {
		t.Error("expected error for single stop")
	}
	if _, err := NewGradient("bad", "#000000", "not-a-color"); err == nil {
		t.Error("expected error for bad hex")
	}
}

func TestFunc(t *testing.T) {
	var cm Colormap = Func(func(t float64) colorful.Color {
		return colorful.Color{R: t, G: t, B: t}
	})
	if got := Hex(cm.At(1)); got != "#ffffff" {
		t.Errorf("expected white, got %s", got)
	}
}

func TestHexClamps(t *testing.T) {
	if got := Hex(colorful.Color{R: 1.4, G: -0.2, B: 0.5}); got != "#ff0080" {
		t.Errorf("expected clamped hex, got %s", got)
	}
}
