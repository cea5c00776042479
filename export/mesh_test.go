package export

import (
	"testing"

	"hydroterrain/core"
)

func TestElevationColorGreyForInvalid(t *testing.T) {
	r, g, b := ElevationColor(-1, 0, 100)
	wr, wg, wb := grey.RGB255()
	if r != wr || g != wg || b != wb {
		t.Fatalf("invalid elevation should be grey, got (%d,%d,%d)", r, g, b)
	}
}

func TestElevationColorBandEndpoints(t *testing.T) {
	r, g, b := ElevationColor(0.001, 0, 100)
	wr, wg, wb := bands[0].color.RGB255()
	if r != wr || g != wg || b != wb {
		t.Fatalf("near-zero elevation should match the first band, got (%d,%d,%d)", r, g, b)
	}

	r, g, b = ElevationColor(100, 0, 100)
	wr, wg, wb = bands[len(bands)-1].color.RGB255()
	if r != wr || g != wg || b != wb {
		t.Fatalf("max elevation should match the last band, got (%d,%d,%d)", r, g, b)
	}
}

func TestBuildMeshNoDecimationUnderCeiling(t *testing.T) {
	data := make([]float32, 25)
	for i := range data {
		data[i] = float32(i)
	}
	e, err := core.NewElevationGrid(5, 5, 1, data)
	if err != nil {
		t.Fatal(err)
	}

	mesh := BuildMesh(e, 2048)
	if mesh.SkipFactor != 1 {
		t.Fatalf("SkipFactor = %d, want 1", mesh.SkipFactor)
	}
	if mesh.Width != 6 || mesh.Height != 6 {
		t.Fatalf("got %dx%d mesh, want 6x6 (w/skip+1)", mesh.Width, mesh.Height)
	}
}

func TestBuildMeshDecimatesAboveCeiling(t *testing.T) {
	data := make([]float32, 4000*4000)
	e, err := core.NewElevationGrid(4000, 4000, 1, data)
	if err != nil {
		t.Fatal(err)
	}

	mesh := BuildMesh(e, 2048)
	if mesh.SkipFactor < 2 {
		t.Fatalf("expected decimation above the vertex ceiling, got skip=%d", mesh.SkipFactor)
	}
	if mesh.Width > 2048+1 || mesh.Height > 2048+1 {
		t.Fatalf("mesh %dx%d exceeds the vertex ceiling", mesh.Width, mesh.Height)
	}
}
