// Package config holds the engine's tunables: the sink-fill epsilon, the
// mesh vertex ceiling, the stream percentiles and related knobs, loaded
// from an optional JSON file with programmatic defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config carries every tunable the engine and batch runner need. Zero
// values are never used directly — callers get a filled Config from
// DefaultConfig or LoadConfig.
type Config struct {
	// TargetCellSize is the effective cell size, in metres, the internal
	// processing grid is downsampled to. Default ~100m.
	TargetCellSize float64 `json:"targetCellSize"`

	// SinkFillEpsilon is the ε used by priority-flood conditioning. Zero
	// means "derive from the elevation range" (hydrology.ResolveEpsilon).
	SinkFillEpsilon float32 `json:"sinkFillEpsilon"`

	// MaxBreachDepth is reserved for the breach/combined conditioning
	// methods; fill is the only method this engine implements.
	MaxBreachDepth uint32 `json:"maxBreachDepth"`

	// MeshVertexCeiling bounds terrain mesh vertex count per dimension.
	MeshVertexCeiling int `json:"meshVertexCeiling"`

	// SpawnSampleInterval is the cell spacing used to sample spawn points
	// along detailed polylines.
	SpawnSampleInterval int `json:"spawnSampleInterval"`

	// VelocityPercentileForK is the percentile of raw velocity magnitude
	// normalised to 1 by the k constant (0.99 per spec).
	VelocityPercentileForK float64 `json:"velocityPercentileForK"`

	// StreamPercentiles maps each network label to its percentile.
	StreamPercentiles map[string]float64 `json:"streamPercentiles"`

	// StreamSmoothIterations is the opt-in Chaikin smoothing pass count
	// applied to traced polylines; 0 disables smoothing.
	StreamSmoothIterations int `json:"streamSmoothIterations"`
}

// DefaultConfig returns the engine's built-in tunables.
func DefaultConfig() Config {
	return Config{
		TargetCellSize:         100,
		SinkFillEpsilon:        0,
		MaxBreachDepth:         0,
		MeshVertexCeiling:      2048,
		SpawnSampleInterval:    20,
		VelocityPercentileForK: 0.99,
		StreamPercentiles: map[string]float64{
			"detailed": 0.01,
			"medium":   0.05,
			"major":    0.10,
		},
		StreamSmoothIterations: 0,
	}
}

// LoadConfig reads path as JSON over the defaults; a missing file is not
// an error, it just yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
