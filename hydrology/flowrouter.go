package hydrology

import "hydroterrain/core"

// FlowField holds the per-cell D8 direction and slope computed by
// RouteFlow, parallel to the elevation grid it was derived from.
type FlowField struct {
	Direction *core.Grid[core.Direction]
	Slope     *core.Grid[float32]
}

// RouteFlow computes, for every valid cell, the steepest-descent D8
// neighbour and writes its direction code and slope. Ties in slope are
// broken by canonical neighbour order: the first-encountered neighbour in
// core.Neighbors8 order wins, so strictly-greater (not >=) comparisons are
// used while scanning. Cells with no strictly positive slope are left as
// pits (Direction.Undefined); invalid cells are always Undefined with
// slope 0.
func RouteFlow(e *core.ElevationGrid) *FlowField {
	dir := core.NewGrid[core.Direction](e.Width, e.Height, e.CellSize)
	slope := core.NewGrid[float32](e.Width, e.Height, e.CellSize)

	for y := 0; y < e.Height; y++ {
		for x := 0; x < e.Width; x++ {
			if !e.Valid(x, y) {
				continue
			}
			elev := e.At(x, y)
			var maxSlope float32
			var maxDir core.Direction

			e.EachNeighbor8(x, y, func(nx, ny, nIndex int, off core.Neighbor8Offset) {
				if !e.ValidIndex(nIndex) {
					return
				}
				drop := elev - e.AtIndex(nIndex)
				s := drop / float32(core.NeighborDistance(e.CellSize, off))
				if s > maxSlope {
					maxSlope = s
					maxDir = off.Dir
				}
			})

			dir.Set(x, y, maxDir)
			slope.Set(x, y, maxSlope)
		}
	}

	return &FlowField{Direction: dir, Slope: slope}
}

// Target returns the downstream cell (x, y) flow routes to, and whether
// one exists: false for pits, invalid cells, and flow that would leave the
// grid along a boundary outlet.
func (f *FlowField) Target(x, y int) (tx, ty int, ok bool) {
	d := f.Direction.At(x, y)
	if !d.Valid() {
		return 0, 0, false
	}
	dx, dy := d.Offset()
	tx, ty = x+dx, y+dy
	return tx, ty, f.Direction.InBounds(tx, ty)
}
