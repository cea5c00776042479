// Package engine is the stateful per-catchment facade over hydrology/: it
// enforces the Empty -> Loaded -> Conditioned -> Routed -> Accumulated ->
// Streams -> Exported pipeline and exposes the operations of the external
// interface, failing with InvalidState when called out of order.
package engine

import (
	"github.com/looplab/fsm"

	"hydroterrain/config"
	"hydroterrain/core"
	"hydroterrain/hydrology"
)

const (
	evLoad       = "load"
	evCondition  = "condition"
	evRoute      = "route"
	evAccumulate = "accumulate"
	evExtract    = "extract"
	evExport     = "export"
	evReset      = "reset"
)

// Engine is the per-catchment pipeline facade. It is not safe for
// concurrent use from multiple goroutines: the scheduling model is
// single-threaded cooperative within a catchment.
type Engine struct {
	CatchmentID string
	Config      config.Config

	fsm *fsm.FSM

	elevation *core.ElevationGrid
	flow      *hydrology.FlowField
	accum     *hydrology.AccumulationField
	streams   map[hydrology.StreamLabel][]hydrology.Polyline
	velocity  *hydrology.VelocityField
}

// New creates an Engine for catchment id, starting in the Empty state.
func New(catchmentID string, cfg config.Config) *Engine {
	e := &Engine{CatchmentID: catchmentID, Config: cfg}
	e.fsm = fsm.NewFSM(
		string(core.StateEmpty),
		fsm.Events{
			{Name: evLoad, Src: []string{string(core.StateEmpty), string(core.StateLoaded), string(core.StateConditioned), string(core.StateRouted), string(core.StateAccumulated), string(core.StateStreams), string(core.StateExported)}, Dst: string(core.StateLoaded)},
			{Name: evCondition, Src: []string{string(core.StateLoaded), string(core.StateConditioned), string(core.StateRouted), string(core.StateAccumulated), string(core.StateStreams), string(core.StateExported)}, Dst: string(core.StateConditioned)},
			{Name: evRoute, Src: []string{string(core.StateConditioned), string(core.StateRouted), string(core.StateAccumulated), string(core.StateStreams), string(core.StateExported)}, Dst: string(core.StateRouted)},
			{Name: evAccumulate, Src: []string{string(core.StateRouted), string(core.StateAccumulated), string(core.StateStreams), string(core.StateExported)}, Dst: string(core.StateAccumulated)},
			{Name: evExtract, Src: []string{string(core.StateAccumulated), string(core.StateStreams)}, Dst: string(core.StateStreams)},
			{Name: evExport, Src: []string{string(core.StateStreams), string(core.StateExported)}, Dst: string(core.StateExported)},
			{Name: evReset, Src: []string{string(core.StateEmpty), string(core.StateLoaded), string(core.StateConditioned), string(core.StateRouted), string(core.StateAccumulated), string(core.StateStreams), string(core.StateExported)}, Dst: string(core.StateEmpty)},
		},
		fsm.Callbacks{},
	)
	return e
}

// State returns the current pipeline stage.
func (e *Engine) State() core.State { return core.State(e.fsm.Current()) }

func (e *Engine) fail(kind core.Kind, cause error) error {
	return core.NewError(kind, e.CatchmentID, e.State(), cause)
}

// LoadDEM ingests a raw row-major elevation buffer, applying block-mean
// downsampling toward Config.TargetCellSize if the source is finer, and
// resets every derived buffer. Re-loading from any state returns to Loaded
// directly (the implicit reset to Empty happens internally).
func (e *Engine) LoadDEM(width, height int, cellSize float64, elevations []float32) error {
	if len(elevations) != width*height {
		return e.fail(core.DimensionMismatch, nil)
	}

	grid, err := core.NewElevationGrid(width, height, cellSize, elevations)
	if err != nil {
		return e.fail(core.DimensionMismatch, err)
	}

	if cellSize > 0 && cellSize < e.Config.TargetCellSize {
		factor := int(e.Config.TargetCellSize/cellSize + 0.5)
		if factor > 1 {
			downsampled := core.Downsample(grid.Grid, factor, core.IsValidElevation, float32(-1))
			grid = &core.ElevationGrid{Grid: downsampled}
		}
	}

	e.elevation = grid
	e.flow = nil
	e.accum = nil
	e.streams = nil
	e.velocity = nil

	return e.fsm.Event(nil, evLoad)
}

// Condition runs priority-flood sink filling (C2). Only "fill" (or "") is
// implemented; "breach", "combined" and any other method fail with
// InvalidState.
func (e *Engine) Condition(method string, epsilon float32) error {
	if !e.State().AtLeast(core.StateLoaded) {
		return e.fail(core.InvalidState, nil)
	}
	if method != "" && method != "fill" {
		return e.fail(core.InvalidState, nil)
	}

	eps := hydrology.ResolveEpsilon(e.elevation, epsilon)
	if err := hydrology.FillSinks(e.elevation, eps); err != nil {
		if he, ok := err.(*core.HydrologyError); ok {
			he.Catchment = e.CatchmentID
			he.Stage = e.State()
			return he
		}
		return e.fail(core.IoFailure, err)
	}
	return e.fsm.Event(nil, evCondition)
}

// ComputeFlow runs D8 routing (C3) then topological accumulation (C4).
func (e *Engine) ComputeFlow() error {
	if !e.State().AtLeast(core.StateConditioned) {
		return e.fail(core.InvalidState, nil)
	}

	e.flow = hydrology.RouteFlow(e.elevation)
	if err := e.fsm.Event(nil, evRoute); err != nil {
		return err
	}

	accum, err := hydrology.Accumulate(e.elevation, e.flow)
	if err != nil {
		if he, ok := err.(*core.HydrologyError); ok {
			he.Catchment = e.CatchmentID
			he.Stage = e.State()
			return he
		}
		return e.fail(core.RoutingCycleDetected, err)
	}
	e.accum = accum

	return e.fsm.Event(nil, evAccumulate)
}

// StreamPolylines runs C5 at percentile p and returns its traced polylines,
// smoothed per Config.StreamSmoothIterations. A degenerate percentile (the
// accumulation grid has fewer than two valid cells) yields an empty slice;
// the call still succeeds, per spec.md §7's ThresholdDegenerate note.
func (e *Engine) StreamPolylines(p float64) ([]hydrology.Polyline, error) {
	if !e.State().AtLeast(core.StateAccumulated) {
		return nil, e.fail(core.InvalidState, nil)
	}

	lines, ok := hydrology.ExtractStreams(e.elevation, e.flow, e.accum.Accumulation, p)
	if err := e.fsm.Event(nil, evExtract); err != nil {
		return nil, err
	}
	if !ok {
		lines = nil
	}

	if e.Config.StreamSmoothIterations > 0 {
		smoothed := make([]hydrology.Polyline, len(lines))
		for i, line := range lines {
			smoothed[i] = hydrology.SmoothChaikin(line, e.Config.StreamSmoothIterations)
		}
		lines = smoothed
	}

	if e.streams == nil {
		e.streams = make(map[hydrology.StreamLabel][]hydrology.Polyline)
	}
	e.streams[labelForPercentile(p)] = lines

	return lines, nil
}

// StreamNetwork is StreamPolylines flattened to [x1,y1,x2,y2,...] per
// polyline, matching the FlatPoints return shape of §6.
func (e *Engine) StreamNetwork(p float64) ([][]int, error) {
	lines, err := e.StreamPolylines(p)
	if err != nil {
		return nil, err
	}
	flat := make([][]int, len(lines))
	for i, line := range lines {
		pts := make([]int, 0, len(line)*2)
		for _, pt := range line {
			pts = append(pts, pt.X, pt.Y)
		}
		flat[i] = pts
	}
	return flat, nil
}

// WaterVisualizationData runs C6's velocity/spawn derivation and returns
// its components. Spawn sampling along detailed polylines uses the network
// stored by an earlier StreamPolylines call at the detailed percentile; if
// none has been extracted, only major-network confluences are returned.
func (e *Engine) WaterVisualizationData() (*hydrology.VelocityField, []hydrology.Point, error) {
	if !e.State().AtLeast(core.StateAccumulated) {
		return nil, nil, e.fail(core.InvalidState, nil)
	}

	e.velocity = hydrology.DeriveVelocity(e.elevation, e.flow, e.accum.Accumulation, e.Config.VelocityPercentileForK)

	detailed := e.streams[hydrology.StreamDetailed]
	majorTau, ok := hydrology.Threshold(e.elevation, e.accum.Accumulation, e.Config.StreamPercentiles[string(hydrology.StreamMajor)])
	if !ok {
		return e.velocity, nil, nil
	}
	spawns := hydrology.SpawnPoints(e.elevation, e.flow, e.accum.Accumulation, majorTau, detailed, e.Config.SpawnSampleInterval)

	return e.velocity, spawns, nil
}

// Dimensions returns the current (possibly downsampled) grid dimensions
// and cell size.
func (e *Engine) Dimensions() (width, height int, cellSize float64, err error) {
	if !e.State().AtLeast(core.StateLoaded) {
		return 0, 0, 0, e.fail(core.InvalidState, nil)
	}
	return e.elevation.Width, e.elevation.Height, e.elevation.CellSize, nil
}

// Elevation exposes the current elevation grid for the export package; it
// requires at least Loaded.
func (e *Engine) Elevation() (*core.ElevationGrid, error) {
	if !e.State().AtLeast(core.StateLoaded) {
		return nil, e.fail(core.InvalidState, nil)
	}
	return e.elevation, nil
}

// Flow exposes the current flow field, requiring at least Routed.
func (e *Engine) Flow() (*hydrology.FlowField, error) {
	if !e.State().AtLeast(core.StateRouted) {
		return nil, e.fail(core.InvalidState, nil)
	}
	return e.flow, nil
}

// Accumulation exposes the current accumulation field, requiring at least
// Accumulated.
func (e *Engine) Accumulation() (*hydrology.AccumulationField, error) {
	if !e.State().AtLeast(core.StateAccumulated) {
		return nil, e.fail(core.InvalidState, nil)
	}
	return e.accum, nil
}

// MarkExported transitions Streams -> Exported once the export bundle has
// been written.
func (e *Engine) MarkExported() error {
	if !e.State().AtLeast(core.StateStreams) {
		return e.fail(core.InvalidState, nil)
	}
	return e.fsm.Event(nil, evExport)
}

// Reset returns the engine to Empty and releases every derived buffer.
func (e *Engine) Reset() error {
	e.elevation = nil
	e.flow = nil
	e.accum = nil
	e.streams = nil
	e.velocity = nil
	return e.fsm.Event(nil, evReset)
}

func labelForPercentile(p float64) hydrology.StreamLabel {
	switch {
	case p <= hydrology.StreamPercentiles[hydrology.StreamDetailed]:
		return hydrology.StreamDetailed
	case p <= hydrology.StreamPercentiles[hydrology.StreamMedium]:
		return hydrology.StreamMedium
	default:
		return hydrology.StreamMajor
	}
}
