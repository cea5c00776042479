// Command viewer is a minimal external 3D preview of an exported
// catchment bundle: it renders the decimated terrain mesh as a coloured
// point cloud and overlays the stream networks as coloured polylines.
// It is a genuinely optional adapter — nothing under core/, hydrology/ or
// engine/ imports this package or raylib.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"hydroterrain/export"
	"hydroterrain/hydrology"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: viewer <bundle.json>")
		os.Exit(2)
	}

	bundle, err := loadBundle(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "viewer: %v\n", err)
		os.Exit(1)
	}

	rl.InitWindow(1280, 800, fmt.Sprintf("hydroterrain viewer - %s", bundle.ID))
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	center := rl.Vector3{
		X: float32(bundle.Terrain.MeshWidth) / 2,
		Y: 0,
		Z: float32(bundle.Terrain.MeshHeight) / 2,
	}
	camera := rl.Camera3D{
		Position:   rl.Vector3{X: center.X, Y: float32(bundle.Metadata.ElevationRange[1]) + 200, Z: center.Z + float32(bundle.Terrain.MeshHeight)},
		Target:     center,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}

	elevationScale := float32(0.02)

	for !rl.WindowShouldClose() {
		rl.UpdateCamera(&camera, rl.CameraOrbital)

		rl.BeginDrawing()
		rl.ClearBackground(rl.NewColor(18, 18, 24, 255))

		rl.BeginMode3D(camera)
		drawMeshPoints(bundle, elevationScale)
		drawStreams(bundle.Streams.Major, bundle.Terrain.SkipFactor, elevationScale, rl.SkyBlue)
		drawStreams(bundle.Streams.Medium, bundle.Terrain.SkipFactor, elevationScale, rl.Blue)
		rl.DrawGrid(40, 10)
		rl.EndMode3D()

		rl.DrawText(fmt.Sprintf("%s  %dx%d  skip=%d", bundle.ID, bundle.Metadata.Width, bundle.Metadata.Height, bundle.Terrain.SkipFactor), 10, 10, 18, rl.RayWhite)
		rl.EndDrawing()
	}
}

func loadBundle(path string) (*export.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var bundle export.Bundle
	if err := json.NewDecoder(f).Decode(&bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

func drawMeshPoints(bundle *export.Bundle, elevationScale float32) {
	w := bundle.Terrain.MeshWidth
	for i, elev := range bundle.Terrain.ElevationData {
		x, z := i%w, i/w
		c := bundle.Terrain.ColorData[i*3 : i*3+3]
		color := rl.NewColor(c[0], c[1], c[2], 255)
		pos := rl.Vector3{X: float32(x), Y: float32(elev) * elevationScale, Z: float32(z)}
		rl.DrawPoint3D(pos, color)
	}
}

func drawStreams(polylines [][]hydrology.Point, skip int, elevationScale float32, color rl.Color) {
	for _, line := range polylines {
		for i := 0; i+1 < len(line); i++ {
			a := line[i]
			b := line[i+1]
			start := rl.Vector3{X: float32(a.X) / float32(skip), Y: 0, Z: float32(a.Y) / float32(skip)}
			end := rl.Vector3{X: float32(b.X) / float32(skip), Y: 0, Z: float32(b.Y) / float32(skip)}
			rl.DrawLine3D(start, end, color)
		}
	}
}
