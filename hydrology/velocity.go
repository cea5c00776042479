package hydrology

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"hydroterrain/core"
)

// VelocityField is the per-cell Manning-inspired velocity proxy used to
// drive rendered particle motion: direction from the D8 target, magnitude
// from slope and accumulation.
type VelocityField struct {
	Vectors *core.Grid[mgl32.Vec2]
}

// ConfluenceInDegreeThreshold is the in_degree a cell needs, within the
// major mask, to count as a confluence spawn point.
const ConfluenceInDegreeThreshold = 2

// DeriveVelocity builds the velocity field: magnitude k*slope^0.5*(1+acc)^0.4
// oriented toward each cell's D8 target, with k normalised so the
// percentileForK-th percentile of raw magnitudes maps to 1
// (config.VelocityPercentileForK, 0.99 by default). Invalid cells and pits
// are the zero vector.
func DeriveVelocity(e *core.ElevationGrid, field *FlowField, acc *core.Grid[uint32], percentileForK float64) *VelocityField {
	width, height := e.Width, e.Height
	raw := make([]float32, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := e.Index(x, y)
			if !e.Valid(x, y) {
				continue
			}
			s := field.Slope.AtIndex(idx)
			a := acc.AtIndex(idx)
			raw[idx] = float32(math.Pow(float64(s), 0.5) * math.Pow(float64(1+a), 0.4))
		}
	}

	k := normalisingConstant(raw, percentileForK)

	vectors := core.NewGrid[mgl32.Vec2](width, height, e.CellSize)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := e.Index(x, y)
			if !e.Valid(x, y) {
				continue
			}
			tx, ty, ok := field.Target(x, y)
			if !ok {
				continue
			}
			dx, dy := float32(tx-x), float32(ty-y)
			length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
			if length == 0 {
				continue
			}
			magnitude := k * raw[idx]
			vectors.SetIndex(idx, mgl32.Vec2{dx / length * magnitude, dy / length * magnitude})
		}
	}

	return &VelocityField{Vectors: vectors}
}

// normalisingConstant returns 1/p(values) for the given percentile p, so
// scaling by it maps that percentile's magnitude to 1. Returns 1 if every
// value is zero.
func normalisingConstant(values []float32, percentile float64) float32 {
	nonZero := make([]float32, 0, len(values))
	for _, v := range values {
		if v > 0 {
			nonZero = append(nonZero, v)
		}
	}
	if len(nonZero) == 0 {
		return 1
	}
	sort.Slice(nonZero, func(i, j int) bool { return nonZero[i] < nonZero[j] })
	rank := int(math.Ceil(percentile * float64(len(nonZero))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(nonZero) {
		rank = len(nonZero)
	}
	p := nonZero[rank-1]
	if p <= 0 {
		return 1
	}
	return 1 / p
}

// SpawnPoints returns the deduplicated particle spawn origins: every
// confluence of the major network (in_degree >= ConfluenceInDegreeThreshold
// among major-masked upstream neighbours) plus points sampled every
// spawnInterval cells along each detailed polyline
// (config.SpawnSampleInterval, 20 by default).
func SpawnPoints(e *core.ElevationGrid, field *FlowField, major *core.Grid[uint32], majorTau uint32, detailed []Polyline, spawnInterval int) []Point {
	if spawnInterval < 1 {
		spawnInterval = 1
	}
	width, height := e.Width, e.Height
	seen := make(map[int]bool)
	var points []Point

	add := func(x, y int) {
		idx := e.Index(x, y)
		if !seen[idx] {
			seen[idx] = true
			points = append(points, Point{X: x, Y: y})
		}
	}

	inDegree := make([]int, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !e.Valid(x, y) || major.At(x, y) < majorTau {
				continue
			}
			if tx, ty, ok := field.Target(x, y); ok && major.At(tx, ty) >= majorTau {
				inDegree[e.Index(tx, ty)]++
			}
		}
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if inDegree[e.Index(x, y)] >= ConfluenceInDegreeThreshold {
				add(x, y)
			}
		}
	}

	for _, line := range detailed {
		for i := 0; i < len(line); i += spawnInterval {
			add(line[i].X, line[i].Y)
		}
	}

	sort.Slice(points, func(i, j int) bool {
		return e.Index(points[i].X, points[i].Y) < e.Index(points[j].X, points[j].Y)
	})
	return points
}
