// Package raster is the external raster reader adapter: it decodes a
// GeoTIFF into the plain (width, height, cellSize, elevations) tuple the
// core's load_dem expects. GeoTIFF decoding and geospatial metadata are
// explicitly out of the core's contract (spec.md §1); this package is the
// thin collaborator that supplies it.
package raster

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/tiff"
)

// DEM is the raw tuple load_dem consumes.
type DEM struct {
	Width, Height int
	CellSize      float64
	Elevations    []float32
}

// DefaultCellSize is the cell size ReadGeoTIFF reports for every file:
// golang.org/x/image/tiff does not expose GeoTIFF's ModelPixelScale tag,
// so no geo-referencing tag is read.
const DefaultCellSize = 30.0

// ReadGeoTIFF decodes path into a DEM. Single-band grayscale and 16-bit
// sources are read directly; for any other image format the R, G and B
// samples are averaged and scaled down to the 0..255 range of 8-bit Gray.
func ReadGeoTIFF(path string) (*DEM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: opening %s: %w", path, err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("raster: decoding %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	elevations := make([]float32, width*height)

	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				elevations[y*width+x] = float32(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				elevations[y*width+x] = float32(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				elevations[y*width+x] = float32(r+g+b) / 3 / 257
			}
		}
	}

	return &DEM{Width: width, Height: height, CellSize: DefaultCellSize, Elevations: elevations}, nil
}
