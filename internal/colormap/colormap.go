package colormap

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap maps a unit fraction to a color.
type Colormap interface {
	At(t float64) colorful.Color
}

// Func adapts an ordinary function to the Colormap interface.
type Func func(t float64) colorful.Color

// At calls f(t).
func (f Func) At(t float64) colorful.Color { return f(t) }

// Gradient is a colormap built from evenly spaced stops, interpolated
// linearly in RGB.
type Gradient struct {
	Name  string
	stops []colorful.Color
}

// NewGradient parses hex stops ("#rrggbb") into a gradient. At least two
// stops are required.
func NewGradient(name string, hexes ...string) (*Gradient, error) {
	if len(hexes) < 2 {
		return nil, fmt.Errorf("colormap %s: need at least 2 stops, got %d", name, len(hexes))
	}
	g := &Gradient{Name: name, stops: make([]colorful.Color, len(hexes))}
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colormap %s: stop %d: %w", name, i, err)
		}
		g.stops[i] = c
	}
	return g, nil
}

func mustGradient(name string, hexes ...string) *Gradient {
	g, err := NewGradient(name, hexes...)
	if err != nil {
		panic(err)
	}
	return g
}

// At returns the color at t. Values outside [0,1] are clamped and NaN is
// treated as 0.
func (g *Gradient) At(t float64) colorful.Color {
	switch {
	case math.IsNaN(t) || t <= 0:
		return g.stops[0]
	case t >= 1:
		return g.stops[len(g.stops)-1]
	}
	pos := t * float64(len(g.stops)-1)
	i := int(pos)
	return g.stops[i].BlendRgb(g.stops[i+1], pos-float64(i))
}

// Reversed returns the gradient running from the last stop to the first.
func (g *Gradient) Reversed() *Gradient {
	r := &Gradient{Name: g.Name + "_r", stops: make([]colorful.Color, len(g.stops))}
	for i, c := range g.stops {
		r.stops[len(g.stops)-1-i] = c
	}
	return r
}

// Stops returns the gradient stops as hex strings, for drawing legends.
func (g *Gradient) Stops() []string {
	out := make([]string, len(g.stops))
	for i, c := range g.stops {
		out[i] = Hex(c)
	}
	return out
}

// Hex formats a color as "#rrggbb", clamping out-of-gamut channels.
func Hex(c colorful.Color) string {
	return c.Clamped().Hex()
}
