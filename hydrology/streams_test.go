package hydrology

import "testing"

// S3 — Linear channel: a single contiguous polyline along the channel's
// highest-accumulation tail, matching the threshold derived from the
// accumulation distribution itself.
func TestExtractStreamsLinearChannel(t *testing.T) {
	data := make([]float32, 100)
	for x := 0; x < 100; x++ {
		data[x] = float32(100 - x)
	}
	e := buildGrid(t, 100, 1, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}

	tau, ok := Threshold(e, acc.Accumulation, 0.01)
	if !ok {
		t.Fatal("expected a valid threshold")
	}
	wantLen := 0
	for x := 0; x < 100; x++ {
		if acc.Accumulation.At(x, 0) >= tau {
			wantLen++
		}
	}

	lines, ok := ExtractStreams(e, field, acc.Accumulation, 0.01)
	if !ok {
		t.Fatal("expected a valid threshold")
	}
	if len(lines) != 1 {
		t.Fatalf("expected exactly one polyline, got %d", len(lines))
	}
	if len(lines[0]) != wantLen {
		t.Fatalf("expected a polyline of length %d, got %d", wantLen, len(lines[0]))
	}
}

func TestExtractStreamsThresholdDegenerate(t *testing.T) {
	data := []float32{-1, -1, 5, -1}
	e := buildGrid(t, 2, 2, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}

	_, ok := ExtractStreams(e, field, acc.Accumulation, 0.01)
	if ok {
		t.Fatal("expected threshold to be degenerate with fewer than two valid cells")
	}
}

// Polylines are ordered by decreasing length per spec.md's output-ordering
// guarantee.
func TestExtractStreamsOrderedByLength(t *testing.T) {
	data := make([]float32, 20*10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			if x < 10 {
				data[y*20+x] = float32(10 - x)
			} else {
				data[y*20+x] = float32(x - 9)
			}
		}
	}
	e := buildGrid(t, 20, 10, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}

	lines, ok := ExtractStreams(e, field, acc.Accumulation, 0.05)
	if !ok {
		t.Fatal("expected a valid threshold")
	}
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) > len(lines[i-1]) {
			t.Fatalf("polylines out of order: line %d longer than line %d", i, i-1)
		}
	}
}

func TestSmoothChaikinPreservesEndpoints(t *testing.T) {
	line := Polyline{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	smoothed := SmoothChaikin(line, 1)
	if smoothed[0] != line[0] || smoothed[len(smoothed)-1] != line[len(line)-1] {
		t.Fatal("Chaikin smoothing should preserve endpoints")
	}
	if len(smoothed) <= len(line) {
		t.Fatal("one Chaikin iteration should increase point count")
	}
}

func TestSmoothChaikinZeroIterationsIsIdentity(t *testing.T) {
	line := Polyline{{0, 0}, {1, 1}, {2, 2}}
	smoothed := SmoothChaikin(line, 0)
	if len(smoothed) != len(line) {
		t.Fatal("zero iterations should leave the polyline unchanged")
	}
}
