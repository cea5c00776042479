package hydrology

import (
	"math"
	"testing"
)

// S1 — Cone: all flow accumulates at the centre, A[(2,2)] = 25.
func TestAccumulateCone(t *testing.T) {
	data := make([]float32, 25)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			dx, dy := x-2, y-2
			data[y*5+x] = float32(10 + math.Sqrt(float64(dx*dx+dy*dy)))
		}
	}
	e := buildGrid(t, 5, 5, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}

	if got := acc.Accumulation.At(2, 2); got != 25 {
		t.Fatalf("A[(2,2)] = %d, want 25", got)
	}
	if len(acc.Outlets) != 1 || acc.Outlets[0].X != 2 || acc.Outlets[0].Y != 2 {
		t.Fatalf("expected a single outlet at (2,2), got %+v", acc.Outlets)
	}
}

// S3 — Linear channel: A[x] = x+1, outlet at x=99 with A=100.
func TestAccumulateLinearChannel(t *testing.T) {
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

	for x := 0; x < 100; x++ {
		if got := acc.Accumulation.At(x, 0); got != uint32(x+1) {
			t.Fatalf("A[%d] = %d, want %d", x, got, x+1)
		}
	}
	if len(acc.Outlets) != 1 || acc.Outlets[0].Accumulation != 100 {
		t.Fatalf("expected one outlet with A=100, got %+v", acc.Outlets)
	}
}

// Mass balance (spec property 3): sum of outlet accumulations equals the
// number of valid cells.
func TestAccumulateMassBalance(t *testing.T) {
	data := []float32{10, 8, 6, 9, 5, 3, 7, 4, 1}
	e := buildGrid(t, 3, 3, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}

	var total uint32
	for _, o := range acc.Outlets {
		total += o.Accumulation
	}
	if total != 9 {
		t.Fatalf("sum of outlet accumulations = %d, want 9 (all cells valid)", total)
	}
}

// SignificantOutlets drops trivial (A<=1) outlets, sorts by descending
// accumulation, and caps the result at MaxReportedOutlets.
func TestSignificantOutletsFiltersSortsAndCaps(t *testing.T) {
	outlets := []Outlet{
		{X: 0, Y: 0, Accumulation: 1}, // trivial, dropped
		{X: 1, Y: 0, Accumulation: 5},
		{X: 2, Y: 0, Accumulation: 50},
		{X: 3, Y: 0, Accumulation: 20},
	}
	for i := 0; i < MaxReportedOutlets+3; i++ {
		outlets = append(outlets, Outlet{X: i + 10, Y: 0, Accumulation: uint32(2 + i)})
	}

	got := SignificantOutlets(outlets)
	if len(got) != MaxReportedOutlets {
		t.Fatalf("len(got) = %d, want %d", len(got), MaxReportedOutlets)
	}
	for i, o := range got {
		if o.Accumulation <= 1 {
			t.Fatalf("trivial outlet leaked through at position %d: %+v", i, o)
		}
		if i > 0 && got[i-1].Accumulation < o.Accumulation {
			t.Fatalf("outlets not sorted descending at position %d: %+v before %+v", i, got[i-1], o)
		}
	}
	if got[0].Accumulation != 50 {
		t.Fatalf("largest outlet should be first, got %+v", got[0])
	}
}
