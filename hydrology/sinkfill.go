// Package hydrology implements the conditioning, routing, accumulation and
// stream-extraction stages of the pipeline, operating on the raster
// primitives in core.
package hydrology

import (
	"container/heap"
	"math"

	"hydroterrain/core"
)

// DefaultEpsilonFraction is the fraction of the elevation range used to
// derive an epsilon when the caller doesn't supply one explicitly.
const DefaultEpsilonFraction = 1e-6

// sinkItem is one entry of the priority-flood queue: elevation is the
// primary key, seq (insertion order) the tie-break, per the canonical
// priority-flood ordering.
type sinkItem struct {
	elevation float32
	seq       int
	x, y      int
}

type sinkQueue []sinkItem

func (q sinkQueue) Len() int { return len(q) }
func (q sinkQueue) Less(i, j int) bool {
	if q[i].elevation != q[j].elevation {
		return q[i].elevation < q[j].elevation
	}
	return q[i].seq < q[j].seq
}
func (q sinkQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *sinkQueue) Push(x any)        { *q = append(*q, x.(sinkItem)) }
func (q *sinkQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// ResolveEpsilon picks the conditioning epsilon: if epsilon is positive it
// is used as-is, otherwise it is derived as DefaultEpsilonFraction of the
// elevation's valid range, falling back to DefaultEpsilonFraction itself
// when the grid has no valid range (e.g. a single valid cell).
func ResolveEpsilon(e *core.ElevationGrid, epsilon float32) float32 {
	if epsilon > 0 {
		return epsilon
	}
	lo, hi, ok := e.Range()
	if !ok || hi <= lo {
		return DefaultEpsilonFraction
	}
	return DefaultEpsilonFraction * (hi - lo)
}

// isEffectiveBoundary reports whether (x, y) sits on the boundary of the
// valid region: either the literal grid edge, or a valid cell with at
// least one invalid neighbour. A raster clipped to a catchment polygon
// commonly carries nodata around its bounding-box edges, in which case the
// next-inward ring of valid cells — not the (invalid) literal edge — is the
// effective boundary the flood must seed from (spec.md §8 scenario S6).
func isEffectiveBoundary(e *core.ElevationGrid, x, y int) bool {
	if e.OnBoundary(x, y) {
		return true
	}
	boundary := false
	e.EachNeighbor8(x, y, func(nx, ny, _ int, _ core.Neighbor8Offset) {
		if !e.Valid(nx, ny) {
			boundary = true
		}
	})
	return boundary
}

// FillSinks conditions e in place by priority-flood so that every valid
// cell has a monotonically non-increasing path to the grid boundary. It
// visits each valid cell exactly once. If the grid has no valid cells at
// all this is a no-op; if it has valid cells but none of them sit on the
// effective boundary (the literal edge, or the inward ring behind an
// invalid rim), conditioning cannot establish a drainage outlet and it
// fails with a NoDrainageOutlet error.
func FillSinks(e *core.ElevationGrid, epsilon float32) error {
	width, height := e.Width, e.Height

	closed := make([]bool, width*height)
	q := &sinkQueue{}
	seq := 0

	anyValid := false
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if e.Valid(x, y) {
				anyValid = true
				break
			}
		}
	}
	if !anyValid {
		return nil
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !e.Valid(x, y) || !isEffectiveBoundary(e, x, y) {
				continue
			}
			idx := e.Index(x, y)
			heap.Push(q, sinkItem{elevation: e.AtIndex(idx), seq: seq, x: x, y: y})
			closed[idx] = true
			seq++
		}
	}

	if q.Len() == 0 {
		return core.NewError(core.NoDrainageOutlet, "", core.StateLoaded, nil)
	}

	for q.Len() > 0 {
		item := heap.Pop(q).(sinkItem)
		cellElev := item.elevation

		e.EachNeighbor8(item.x, item.y, func(nx, ny, nIndex int, off core.Neighbor8Offset) {
			if closed[nIndex] || !e.Valid(nx, ny) {
				return
			}
			raised := cellElev + epsilon
			if raised <= cellElev {
				// epsilon was absorbed by float32 rounding at this elevation
				raised = math.Nextafter32(cellElev, float32(math.Inf(1)))
			}
			if e.AtIndex(nIndex) < raised {
				e.SetIndex(nIndex, raised)
			}
			closed[nIndex] = true
			seq++
			heap.Push(q, sinkItem{elevation: e.AtIndex(nIndex), seq: seq, x: nx, y: ny})
		})
	}

	return nil
}
