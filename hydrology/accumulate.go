package hydrology

import (
	"sort"

	"hydroterrain/core"
)

// MaxReportedOutlets caps the outlets surfaced in the accumulation result,
// matching the original implementation's top-10-by-accumulation rule
// (SPEC_FULL.md §4, "outlets list in the flow-accumulation result").
const MaxReportedOutlets = 10

// Outlet is a cell with no downstream target — either a true pit or a
// boundary cell whose flow leaves the grid — together with its final
// accumulation.
type Outlet struct {
	X, Y         int
	Accumulation uint32
}

// AccumulationField holds the per-cell flow accumulation produced by
// Accumulate, along with the outlets discovered while draining the D8 DAG.
type AccumulationField struct {
	Accumulation *core.Grid[uint32]
	Outlets      []Outlet
}

// Accumulate computes, for every valid cell, the count of cells whose
// downstream path passes through it (including itself), via a topological
// drain of the D8 DAG built by field. The grid carries no recursion and no
// explicit stack beyond the FIFO queue, so memory is bounded by the grid
// size regardless of drainage depth.
//
// A RoutingCycleDetected error can only occur on corrupt direction data
// (a cycle in a supposedly-acyclic D8 field); it cannot occur on a field
// produced by RouteFlow over a grid that has been conditioned by FillSinks.
func Accumulate(e *core.ElevationGrid, field *FlowField) (*AccumulationField, error) {
	width, height := e.Width, e.Height
	n := width * height

	acc := core.NewGrid[uint32](width, height, e.CellSize)
	inDegree := make([]int, n)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := e.Index(x, y)
			if e.Valid(x, y) {
				acc.SetIndex(idx, 1)
			}
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !e.Valid(x, y) {
				continue
			}
			if tx, ty, ok := field.Target(x, y); ok {
				inDegree[e.Index(tx, ty)]++
			}
		}
	}

	queue := make([]int, 0, n)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := e.Index(x, y)
			if e.Valid(x, y) && inDegree[idx] == 0 {
				queue = append(queue, idx)
			}
		}
	}

	var outlets []Outlet
	processed := 0

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		processed++

		x, y := e.XY(idx)
		tx, ty, ok := field.Target(x, y)
		if !ok {
			outlets = append(outlets, Outlet{X: x, Y: y, Accumulation: acc.AtIndex(idx)})
			continue
		}

		tIdx := e.Index(tx, ty)
		acc.SetIndex(tIdx, acc.AtIndex(tIdx)+acc.AtIndex(idx))
		inDegree[tIdx]--
		if inDegree[tIdx] == 0 {
			queue = append(queue, tIdx)
		}
	}

	validCount := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if e.Valid(x, y) {
				validCount++
			}
		}
	}
	if processed != validCount {
		return nil, core.NewError(core.RoutingCycleDetected, "", core.StateRouted, nil)
	}

	// Outlets here carries every drain point, including trivial single-cell
	// ones, so that Σ(Outlets.Accumulation) == the valid cell count holds
	// (spec.md §8 property 3). SignificantOutlets applies the curated
	// top-N selection for export/reporting, not for this invariant.
	return &AccumulationField{Accumulation: acc, Outlets: outlets}, nil
}

// SignificantOutlets filters out trivial single-cell outlets (accumulation
// <= 1), sorts the remainder by descending accumulation, and caps the
// result at MaxReportedOutlets — the original implementation's find_outlets
// selection rule (SPEC_FULL.md §4), applied when exporting a bundle rather
// than inside Accumulate so the raw Outlets slice still satisfies the mass
// balance invariant.
func SignificantOutlets(outlets []Outlet) []Outlet {
	kept := make([]Outlet, 0, len(outlets))
	for _, o := range outlets {
		if o.Accumulation > 1 {
			kept = append(kept, o)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Accumulation > kept[j].Accumulation
	})
	if len(kept) > MaxReportedOutlets {
		kept = kept[:MaxReportedOutlets]
	}
	return kept
}
