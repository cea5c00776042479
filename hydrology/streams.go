package hydrology

import (
	"sort"

	"hydroterrain/core"
)

// StreamLabel names one of the three fixed percentile networks.
type StreamLabel string

const (
	StreamDetailed StreamLabel = "detailed"
	StreamMedium   StreamLabel = "medium"
	StreamMajor    StreamLabel = "major"
)

// StreamPercentiles maps each label to the percentile used to derive its
// threshold.
var StreamPercentiles = map[StreamLabel]float64{
	StreamDetailed: 0.01,
	StreamMedium:   0.05,
	StreamMajor:    0.10,
}

// Point is a grid cell coordinate.
type Point struct{ X, Y int }

// Polyline is an ordered sequence of cells forming a traced stream segment,
// head to outlet (or confluence with a lower-order stream).
type Polyline []Point

// Threshold returns tau(p): the accumulation value at rank
// ceil((1-p)*N) of the ascending-sorted accumulation of valid cells, so
// that the top p fraction of cells clear the threshold. Returns
// (0, false) if there are fewer than two valid cells, the degenerate case
// the caller surfaces as ThresholdDegenerate.
func Threshold(e *core.ElevationGrid, acc *core.Grid[uint32], p float64) (uint32, bool) {
	values := make([]uint32, 0, acc.Len())
	for i := 0; i < acc.Len(); i++ {
		x, y := e.XY(i)
		if e.Valid(x, y) {
			values = append(values, acc.AtIndex(i))
		}
	}
	if len(values) < 2 {
		return 0, false
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	n := len(values)
	rank := int(ceilFloat(float64(1-p) * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return values[rank-1], true
}

func ceilFloat(v float64) float64 {
	i := float64(int64(v))
	if v > i {
		return i + 1
	}
	return i
}

// ExtractStreams builds the polyline network for percentile p: every head
// cell (a masked cell with no masked upstream neighbour pointing at it) is
// traced downstream to an outlet, an invalid cell or a confluence with an
// already-claimed cell. Polylines are returned in decreasing length, ties
// broken by ascending head grid index, per the ordering guarantee. With
// fewer than two valid cells no threshold exists and it returns
// (nil, false), the ThresholdDegenerate case — callers treat it as "no
// streams" rather than failing the call. A mask of a single cell returns
// no polyline, because polylines shorter than two cells are dropped.
func ExtractStreams(e *core.ElevationGrid, field *FlowField, acc *core.Grid[uint32], p float64) ([]Polyline, bool) {
	tau, ok := Threshold(e, acc, p)
	if !ok {
		return nil, false
	}

	width, height := e.Width, e.Height
	mask := make([]bool, width*height)
	for i := 0; i < acc.Len(); i++ {
		x, y := e.XY(i)
		mask[i] = e.Valid(x, y) && acc.AtIndex(i) >= tau
	}

	hasMaskedUpstream := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := e.Index(x, y)
			if !mask[idx] {
				continue
			}
			if tx, ty, okT := field.Target(x, y); okT {
				tIdx := e.Index(tx, ty)
				if mask[tIdx] {
					hasMaskedUpstream[tIdx] = true
				}
			}
		}
	}

	claimed := make([]bool, width*height)
	var lines []Polyline

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := e.Index(x, y)
			if !mask[idx] || hasMaskedUpstream[idx] || claimed[idx] {
				continue
			}

			line := Polyline{{X: x, Y: y}}
			claimed[idx] = true
			cx, cy := x, y
			for {
				tx, ty, okT := field.Target(cx, cy)
				if !okT {
					break
				}
				tIdx := e.Index(tx, ty)
				if !mask[tIdx] || claimed[tIdx] {
					break
				}
				line = append(line, Point{X: tx, Y: ty})
				claimed[tIdx] = true
				cx, cy = tx, ty
			}

			if len(line) >= 2 {
				lines = append(lines, line)
			}
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if len(lines[i]) != len(lines[j]) {
			return len(lines[i]) > len(lines[j])
		}
		hi := e.Index(lines[i][0].X, lines[i][0].Y)
		hj := e.Index(lines[j][0].X, lines[j][0].Y)
		return hi < hj
	})

	return lines, true
}

// SmoothChaikin applies Chaikin's corner-cutting subdivision to a
// polyline, iterations times. Endpoints are preserved so a smoothed
// stream still begins and ends at its original head and terminus. An
// iteration count of 0 returns the input unchanged, matching the opt-in
// default of no smoothing.
func SmoothChaikin(line Polyline, iterations int) Polyline {
	if iterations <= 0 || len(line) < 3 {
		return line
	}
	cur := line
	for it := 0; it < iterations; it++ {
		next := make(Polyline, 0, 2*(len(cur)-1))
		next = append(next, cur[0])
		for i := 0; i < len(cur)-1; i++ {
			p0, p1 := cur[i], cur[i+1]
			q := lerpPoint(p0, p1, 0.25)
			r := lerpPoint(p0, p1, 0.75)
			next = append(next, q, r)
		}
		next = append(next, cur[len(cur)-1])
		cur = next
	}
	return cur
}

func lerpPoint(a, b Point, t float64) Point {
	return Point{
		X: int(float64(a.X) + t*float64(b.X-a.X)),
		Y: int(float64(a.Y) + t*float64(b.Y-a.Y)),
	}
}
