// Package batch is the CLI pre-computation runner: it walks a directory
// for GeoTIFFs, drives one Engine per catchment across a bounded worker
// pool, and writes the per-catchment bundle plus a companion index file.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"

	"hydroterrain/config"
	"hydroterrain/engine"
	"hydroterrain/export"
	"hydroterrain/raster"
)

// Runner walks inputDir for .tif/.tiff files and writes one bundle per
// catchment into outputDir, logging per-catchment, per-stage progress.
type Runner struct {
	Config     config.Config
	MaxWorkers int
	Log        *logrus.Logger
}

// New returns a Runner with sane worker-pool sizing and a logrus logger
// writing structured fields, matching the teacher's
// per-watcher/per-job logging granularity.
func New(cfg config.Config, maxWorkers int) *Runner {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &Runner{Config: cfg, MaxWorkers: maxWorkers, Log: log}
}

// Result is the outcome of processing a single catchment file.
type Result struct {
	Path  string
	ID    string
	Err   error
	Entry export.IndexEntry
}

// Run walks inputDir, processes every .tif/.tiff catchment on the worker
// pool, writes each bundle to outputDir and a companion index.json. It
// returns a non-nil error if any catchment failed, after every catchment
// has been attempted — a single failure never aborts the batch.
func (r *Runner) Run(inputDir, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("batch: creating output dir: %w", err)
	}

	paths, err := findGeoTIFFs(inputDir)
	if err != nil {
		return fmt.Errorf("batch: walking %s: %w", inputDir, err)
	}
	r.Log.WithField("count", len(paths)).Info("discovered catchment files")

	wp := workerpool.New(r.MaxWorkers)
	results := make([]Result, len(paths))
	var mu sync.Mutex

	for i, path := range paths {
		i, path := i, path
		wp.Submit(func() {
			res := r.processOne(path, outputDir)
			mu.Lock()
			results[i] = res
			mu.Unlock()
		})
	}
	wp.StopWait()

	index := make(map[string]export.IndexEntry)
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			r.Log.WithFields(logrus.Fields{"path": res.Path, "error": res.Err}).Error("catchment failed")
			continue
		}
		index[res.ID] = res.Entry
	}

	if err := export.WriteIndex(index, filepath.Join(outputDir, "index.json")); err != nil {
		return fmt.Errorf("batch: writing index: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("batch: %d of %d catchments failed", failed, len(paths))
	}
	return nil
}

func (r *Runner) processOne(path, outputDir string) Result {
	id := catchmentID(path)
	log := r.Log.WithFields(logrus.Fields{"catchment": id, "path": path})

	log.Info("reading")
	dem, err := raster.ReadGeoTIFF(path)
	if err != nil {
		return Result{Path: path, ID: id, Err: err}
	}

	eng := engine.New(id, r.Config)
	if err := eng.LoadDEM(dem.Width, dem.Height, dem.CellSize, dem.Elevations); err != nil {
		return Result{Path: path, ID: id, Err: err}
	}

	log.Info("computing")
	if err := eng.Condition("fill", r.Config.SinkFillEpsilon); err != nil {
		return Result{Path: path, ID: id, Err: err}
	}
	if err := eng.ComputeFlow(); err != nil {
		return Result{Path: path, ID: id, Err: err}
	}

	bundle, err := export.BuildBundle(eng, r.Config, 0)
	if err != nil {
		return Result{Path: path, ID: id, Err: err}
	}

	log.Info("writing")
	outPath := filepath.Join(outputDir, id+".json")
	if err := export.WriteJSON(bundle, outPath); err != nil {
		return Result{Path: path, ID: id, Err: err}
	}

	width, height, cellSize, err := eng.Dimensions()
	if err != nil {
		return Result{Path: path, ID: id, Err: err}
	}

	return Result{
		Path: path,
		ID:   id,
		Entry: export.IndexEntry{
			Width:      width,
			Height:     height,
			Resolution: cellSize,
		},
	}
}

func findGeoTIFFs(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".tif" || ext == ".tiff" {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func catchmentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
