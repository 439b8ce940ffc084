package colormap

import (
	"fmt"
	"sort"
	"strings"
)

// Stops sampled from the matplotlib and ColorBrewer palettes of the same name.
var builtin = map[string]*Gradient{
	"viridis": mustGradient("viridis",
		"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"),
	"plasma": mustGradient("plasma",
		"#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786",
		"#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921"),
	"inferno": mustGradient("inferno",
		"#000004", "#1b0c41", "#4a0c6b", "#781c6d", "#a52c60",
		"#cf4446", "#ed6925", "#fb9b06", "#f7d13d", "#fcffa4"),
	"magma": mustGradient("magma",
		"#000004", "#180f3d", "#440f76", "#721f81", "#9e2f7f",
		"#cd4071", "#f1605d", "#fd9668", "#feca8d", "#fcfdbf"),
	"cividis": mustGradient("cividis",
		"#00224e", "#123570", "#3b496c", "#575d6d", "#707173",
		"#8a8779", "#a69d75", "#c4b56c", "#e4cf5b", "#fee838"),
	"RdYlGn": mustGradient("RdYlGn",
		"#a50026", "#d73027", "#f46d43", "#fdae61", "#fee08b", "#ffffbf",
		"#d9ef8b", "#a6d96a", "#66bd63", "#1a9850", "#006837"),
	"Blues": mustGradient("Blues",
		"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6",
		"#4292c6", "#2171b5", "#08519c", "#08306b"),
	"Greens": mustGradient("Greens",
		"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476",
		"#41ab5d", "#238b45", "#006d2c", "#00441b"),
	"Reds": mustGradient("Reds",
		"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a",
		"#ef3b2c", "#cb181d", "#a50f15", "#67000d"),
	"YlOrRd": mustGradient("YlOrRd",
		"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c",
		"#fc4e2a", "#e31a1c", "#bd0026", "#800026"),
	"coolwarm": mustGradient("coolwarm",
		"#3b4cc0", "#6788ee", "#9abbff", "#c9d7f0",
		"#edd1c2", "#f7a889", "#e26952", "#b40426"),
}

// Default is the colormap used when none is selected.
const Default = "viridis"

// Lookup returns a built-in gradient by name. A "_r" suffix selects the
// reversed gradient.
func Lookup(name string) (*Gradient, error) {
	if name == "" {
		name = Default
	}
	if g, ok := builtin[name]; ok {
		return g, nil
	}
	if base, ok := strings.CutSuffix(name, "_r"); ok {
		if g, ok := builtin[base]; ok {
			return g.Reversed(), nil
		}
	}
	return nil, fmt.Errorf("unknown colormap %q", name)
}

// Names lists the built-in colormaps (without reversed variants), sorted
// case-insensitively.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}
