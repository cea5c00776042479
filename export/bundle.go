package export

import (
	"encoding/json"
	"fmt"
	"os"

	"hydroterrain/config"
	"hydroterrain/core"
	"hydroterrain/engine"
	"hydroterrain/hydrology"
)

// Metadata is the per-catchment header of §6's bundle layout.
type Metadata struct {
	Width               int       `json:"width"`
	Height              int       `json:"height"`
	Resolution          float64   `json:"resolution"`
	Bounds              [4]float64 `json:"bounds"`
	ElevationRange      [2]float32 `json:"elevationRange"`
	ProcessingTimestamp int64     `json:"processingTimestamp"`
}

// Terrain is the decimated, coloured mesh section of the bundle.
type Terrain struct {
	ElevationData []float32 `json:"elevationData"`
	ColorData     []uint8   `json:"colorData"`
	MeshWidth     int       `json:"meshWidth"`
	MeshHeight    int       `json:"meshHeight"`
	SkipFactor    int       `json:"skipFactor"`
}

// OutletRecord is one outlet entry of the flow section; it carries no JSON
// tags, so it encodes as an object with X, Y and Accumulation fields.
type OutletRecord struct {
	X, Y         int
	Accumulation uint32
}

// Flow is the routing/accumulation section of the bundle.
type Flow struct {
	FlowDirections    []uint8        `json:"flowDirections"`
	FlowAccumulation  []uint32       `json:"flowAccumulation"`
	Slopes            []float32      `json:"slopes"`
	Outlets           []OutletRecord `json:"outlets"`
}

// Streams is the three fixed-percentile polyline networks, each polyline a
// list of hydrology.Point values (encoded as {"X": .., "Y": ..} objects).
type Streams struct {
	Detailed [][]hydrology.Point `json:"detailed"`
	Medium   [][]hydrology.Point `json:"medium"`
	Major    [][]hydrology.Point `json:"major"`
}

// WaterViz is the visualization-deriver section of the bundle.
type WaterViz struct {
	FlowAccumulation []uint32         `json:"flowAccumulation"`
	Slopes           []float32        `json:"slopes"`
	Velocities       []float32        `json:"velocities"` // 2 per cell
	SpawnPoints      []hydrology.Point `json:"spawnPoints"`
}

// Bundle is the full tagged record of §3/§6, ready for adapter encoding.
type Bundle struct {
	ID       string   `json:"id"`
	Metadata Metadata `json:"metadata"`
	Terrain  Terrain  `json:"terrain"`
	Flow     Flow     `json:"flow"`
	Streams  Streams  `json:"streams"`
	WaterViz WaterViz `json:"waterViz"`
}

// IndexEntry is one row of the companion index file mapping catchment id
// to its dimensions.
type IndexEntry struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Resolution float64 `json:"resolution"`
}

// BuildBundle drains eng (which must be at least in the Accumulated state)
// into a Bundle, extracting the three fixed networks itself via
// eng.StreamPolylines, then transitions it to Exported.
func BuildBundle(eng *engine.Engine, cfg config.Config, timestamp int64) (*Bundle, error) {
	elevation, err := eng.Elevation()
	if err != nil {
		return nil, err
	}
	flow, err := eng.Flow()
	if err != nil {
		return nil, err
	}
	accum, err := eng.Accumulation()
	if err != nil {
		return nil, err
	}

	detailed, err := eng.StreamPolylines(cfg.StreamPercentiles["detailed"])
	if err != nil {
		return nil, err
	}
	medium, err := eng.StreamPolylines(cfg.StreamPercentiles["medium"])
	if err != nil {
		return nil, err
	}
	major, err := eng.StreamPolylines(cfg.StreamPercentiles["major"])
	if err != nil {
		return nil, err
	}

	velocity, spawns, err := eng.WaterVisualizationData()
	if err != nil {
		return nil, err
	}

	minE, maxE, _ := elevation.Range()
	mesh := BuildMesh(elevation, cfg.MeshVertexCeiling)

	flowDirections := make([]uint8, flow.Direction.Len())
	for i := 0; i < flow.Direction.Len(); i++ {
		flowDirections[i] = uint8(flow.Direction.AtIndex(i))
	}

	velocities := make([]float32, 0, velocity.Vectors.Len()*2)
	for i := 0; i < velocity.Vectors.Len(); i++ {
		v := velocity.Vectors.AtIndex(i)
		velocities = append(velocities, v.X(), v.Y())
	}

	significant := hydrology.SignificantOutlets(accum.Outlets)
	outlets := make([]OutletRecord, len(significant))
	for i, o := range significant {
		outlets[i] = OutletRecord{X: o.X, Y: o.Y, Accumulation: o.Accumulation}
	}

	bundle := &Bundle{
		ID: eng.CatchmentID,
		Metadata: Metadata{
			Width:               elevation.Width,
			Height:              elevation.Height,
			Resolution:          elevation.CellSize,
			Bounds:              [4]float64{0, 0, float64(elevation.Width) * elevation.CellSize, float64(elevation.Height) * elevation.CellSize},
			ElevationRange:      [2]float32{minE, maxE},
			ProcessingTimestamp: timestamp,
		},
		Terrain: Terrain{
			ElevationData: mesh.Elevations,
			ColorData:     mesh.Colors,
			MeshWidth:     mesh.Width,
			MeshHeight:    mesh.Height,
			SkipFactor:    mesh.SkipFactor,
		},
		Flow: Flow{
			FlowDirections:   flowDirections,
			FlowAccumulation: accum.Accumulation.Raw(),
			Slopes:           flow.Slope.Raw(),
			Outlets:          outlets,
		},
		Streams: Streams{
			Detailed: polylinesToPoints(detailed),
			Medium:   polylinesToPoints(medium),
			Major:    polylinesToPoints(major),
		},
		WaterViz: WaterViz{
			FlowAccumulation: accum.Accumulation.Raw(),
			Slopes:           flow.Slope.Raw(),
			Velocities:       velocities,
			SpawnPoints:      spawns,
		},
	}

	if err := eng.MarkExported(); err != nil {
		return nil, err
	}
	return bundle, nil
}

func polylinesToPoints(lines []hydrology.Polyline) [][]hydrology.Point {
	out := make([][]hydrology.Point, len(lines))
	for i, l := range lines {
		out[i] = []hydrology.Point(l)
	}
	return out
}

// WriteJSON encodes bundle as JSON to path. Concrete encoding is an
// adapter choice, not part of the core's contract (§6).
func WriteJSON(bundle *Bundle, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return core.NewError(core.IoFailure, bundle.ID, core.StateExported, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return core.NewError(core.IoFailure, bundle.ID, core.StateExported, err)
	}
	return nil
}

// WriteIndex writes the companion index file mapping catchment id to its
// dimensions.
func WriteIndex(index map[string]IndexEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: writing index %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(index)
}
