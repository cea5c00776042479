// Package export builds the terrain mesh and the on-disk catchment bundle
// consumed by external viewers: mesh decimation, the 7-band elevation
// colour ramp, and the tagged record of §3/§6.
package export

import (
	"github.com/lucasb-eyer/go-colorful"

	"hydroterrain/core"
)

// band is one anchor of the 7-band elevation colour ramp, in ascending t.
type band struct {
	t     float64
	color colorful.Color
}

var bands = []band{
	{0.00, colorful.Color{R: 10.0 / 255, G: 59.0 / 255, B: 31.0 / 255}},   // deep green
	{0.16, colorful.Color{R: 34.0 / 255, G: 94.0 / 255, B: 38.0 / 255}},   // forest green
	{0.33, colorful.Color{R: 107.0 / 255, G: 107.0 / 255, B: 40.0 / 255}}, // olive
	{0.50, colorful.Color{R: 204.0 / 255, G: 164.0 / 255, B: 61.0 / 255}}, // yellow ochre
	{0.66, colorful.Color{R: 217.0 / 255, G: 119.0 / 255, B: 38.0 / 255}}, // orange
	{0.83, colorful.Color{R: 178.0 / 255, G: 34.0 / 255, B: 34.0 / 255}},  // red
	{1.00, colorful.Color{R: 112.0 / 255, G: 41.0 / 255, B: 99.0 / 255}},  // purple
}

var grey = colorful.Color{R: 128.0 / 255, G: 128.0 / 255, B: 128.0 / 255}

// ElevationColor maps a raw elevation to an RGB triple via the 7-band
// ramp, normalised against [min, max]. Invalid (not >0, or min>=max)
// elevations get a neutral grey. Bands are blended in Luv space via
// go-colorful rather than raw per-channel RGB interpolation, avoiding the
// muddy midpoints a linear RGB lerp produces between hues this different.
func ElevationColor(elevation, min, max float32) (r, g, b uint8) {
	if elevation <= 0 || !core.IsValidElevation(elevation) || max <= min {
		return grey.RGB255()
	}
	t := float64((elevation - min) / (max - min))
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	for i := 1; i < len(bands); i++ {
		if t <= bands[i].t {
			lo, hi := bands[i-1], bands[i]
			span := hi.t - lo.t
			var f float64
			if span > 0 {
				f = (t - lo.t) / span
			}
			return lo.color.BlendLuv(hi.color, f).Clamped().RGB255()
		}
	}
	return bands[len(bands)-1].color.RGB255()
}

// Mesh is a decimated, coloured sampling of the elevation grid for
// external rendering.
type Mesh struct {
	Width, Height int
	SkipFactor    int
	Elevations    []float32
	Colors        []uint8 // 3 bytes per vertex, row-major
}

// BuildMesh decimates e per config's vertex ceiling and colours each
// surviving vertex from the 7-band ramp. skip = ceil(max(w,h)/ceiling),
// minimum 1; a grid already under the ceiling is emitted at full
// resolution (skip=1).
func BuildMesh(e *core.ElevationGrid, vertexCeiling int) *Mesh {
	w, h := e.Width, e.Height
	skip := 1
	if m := max(w, h); vertexCeiling > 0 && m > vertexCeiling {
		skip = (m + vertexCeiling - 1) / vertexCeiling
	}

	meshW := w/skip + 1
	meshH := h/skip + 1

	minE, maxE, _ := e.Range()

	elevations := make([]float32, 0, meshW*meshH)
	colors := make([]uint8, 0, meshW*meshH*3)

	for my := 0; my < meshH; my++ {
		y := min(my*skip, h-1)
		for mx := 0; mx < meshW; mx++ {
			x := min(mx*skip, w-1)
			v := e.At(x, y)
			elevations = append(elevations, v)
			r, g, b := ElevationColor(v, minE, maxE)
			colors = append(colors, r, g, b)
		}
	}

	return &Mesh{Width: meshW, Height: meshH, SkipFactor: skip, Elevations: elevations, Colors: colors}
}
