// Package core holds the dense raster primitives shared by every stage of
// the hydrology pipeline: the generic Grid, the elevation grid built on top
// of it, D8 direction codes, and the per-catchment error/state types.
package core

import "fmt"

// Grid is a row-major dense 2D array. The canonical index for (x, y) is
// y*width + x, with 0 <= x < width and 0 <= y < height.
type Grid[T any] struct {
	Width, Height int
	CellSize      float64 // metres, isotropic
	data          []T
}

// NewGrid allocates a width*height grid filled with the zero value of T.
func NewGrid[T any](width, height int, cellSize float64) *Grid[T] {
	return &Grid[T]{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		data:     make([]T, width*height),
	}
}

// NewGridFrom wraps an existing row-major buffer without copying it.
func NewGridFrom[T any](width, height int, cellSize float64, data []T) (*Grid[T], error) {
	if len(data) != width*height {
		return nil, fmt.Errorf("grid: buffer length %d does not match %dx%d", len(data), width, height)
	}
	return &Grid[T]{Width: width, Height: height, CellSize: cellSize, data: data}, nil
}

// Index returns the canonical flat index for (x, y). Callers that have
// already validated bounds (the hot paths in hydrology/) should use this
// directly; At/Set re-check bounds for callers that haven't.
func (g *Grid[T]) Index(x, y int) int { return y*g.Width + x }

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid[T]) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// At returns the value at (x, y), panicking on out-of-range coordinates —
// the same contract the teacher's indexed accessors use for programmer
// errors rather than data errors.
func (g *Grid[T]) At(x, y int) T {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("core: (%d,%d) out of bounds for %dx%d grid", x, y, g.Width, g.Height))
	}
	return g.data[g.Index(x, y)]
}

// Set writes the value at (x, y).
func (g *Grid[T]) Set(x, y int, v T) {
	if !g.InBounds(x, y) {
		panic(fmt.Sprintf("core: (%d,%d) out of bounds for %dx%d grid", x, y, g.Width, g.Height))
	}
	g.data[g.Index(x, y)] = v
}

// AtIndex/SetIndex operate on the flat index directly; the accumulation and
// routing loops stay on this path to avoid repeated bounds arithmetic.
func (g *Grid[T]) AtIndex(i int) T     { return g.data[i] }
func (g *Grid[T]) SetIndex(i int, v T) { g.data[i] = v }

// Raw exposes the contiguous backing buffer for bulk operations (export
// encoding, bulk copy). Callers must not resize it.
func (g *Grid[T]) Raw() []T { return g.data }

// Len returns the total cell count, width*height.
func (g *Grid[T]) Len() int { return len(g.data) }

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.data {
		g.data[i] = v
	}
}

// XY decomposes a flat index back into (x, y) coordinates.
func (g *Grid[T]) XY(index int) (x, y int) {
	return index % g.Width, index / g.Width
}

// Neighbor8Offset is one of the 8 canonical D8 neighbour offsets, in the
// fixed order E, SE, S, SW, W, NW, N, NE. This order is the tie-break rule
// used throughout hydrology/: the first-encountered neighbour in this order
// wins ties in slope and priority.
type Neighbor8Offset struct {
	DX, DY int
	Dir    Direction
}

// Neighbors8 lists the 8 adjacent offsets in canonical D8 order.
var Neighbors8 = [8]Neighbor8Offset{
	{1, 0, East},
	{1, 1, Southeast},
	{0, 1, South},
	{-1, 1, Southwest},
	{-1, 0, West},
	{-1, -1, Northwest},
	{0, -1, North},
	{1, -1, Northeast},
}

// NeighborDistance returns the Euclidean distance in metres from a cell to
// the given D8 neighbour, given the grid's cell size: cellSize for
// cardinals, cellSize*sqrt2 for diagonals.
func NeighborDistance(cellSize float64, off Neighbor8Offset) float64 {
	if off.DX != 0 && off.DY != 0 {
		return cellSize * sqrt2
	}
	return cellSize
}

const sqrt2 = 1.4142135623730951

// EachNeighbor8 calls fn for every in-bounds 8-neighbour of (x, y) in
// canonical D8 order, passing the neighbour coordinates, its flat index and
// the offset descriptor (which carries the D8 direction code and distance
// needed by the caller).
func (g *Grid[T]) EachNeighbor8(x, y int, fn func(nx, ny, nIndex int, off Neighbor8Offset)) {
	for _, off := range Neighbors8 {
		nx, ny := x+off.DX, y+off.DY
		if g.InBounds(nx, ny) {
			fn(nx, ny, g.Index(nx, ny), off)
		}
	}
}

// Downsample reduces a grid by block-mean averaging factor*factor blocks of
// valid cells. isValid reports whether a source value should contribute to
// the average; a block with no valid source cells produces invalid (the
// caller supplies invalidValue) in the output. Downsampling preserves the
// origin of the raster: output cell (0,0) covers source block (0,0).
// factor==1 is the identity (spec.md §8 property 7).
func Downsample(src *Grid[float32], factor int, isValid func(float32) bool, invalidValue float32) *Grid[float32] {
	if factor <= 1 {
		out := NewGrid[float32](src.Width, src.Height, src.CellSize)
		copy(out.Raw(), src.Raw())
		return out
	}

	outW := (src.Width + factor - 1) / factor
	outH := (src.Height + factor - 1) / factor
	out := NewGrid[float32](outW, outH, src.CellSize*float64(factor))

	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			var sum float32
			var count int
			x0, y0 := ox*factor, oy*factor
			x1, y1 := min(x0+factor, src.Width), min(y0+factor, src.Height)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					v := src.At(x, y)
					if isValid(v) {
						sum += v
						count++
					}
				}
			}
			if count == 0 {
				out.Set(ox, oy, invalidValue)
			} else {
				out.Set(ox, oy, sum/float32(count))
			}
		}
	}
	return out
}
