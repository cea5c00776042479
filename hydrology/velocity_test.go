package hydrology

import "testing"

func TestDeriveVelocityZeroAtPitsAndInvalid(t *testing.T) {
	data := make([]float32, 25)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			dx, dy := x-2, y-2
			data[y*5+x] = float32(10 + dx*dx + dy*dy)
		}
	}
	data[0] = -1 // one invalid corner
	e := buildGrid(t, 5, 5, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}
	vel := DeriveVelocity(e, field, acc.Accumulation, 0.99)

	if v := vel.Vectors.At(0, 0); v.X() != 0 || v.Y() != 0 {
		t.Fatalf("invalid cell should have zero velocity, got %v", v)
	}
	if v := vel.Vectors.At(2, 2); v.X() != 0 || v.Y() != 0 {
		t.Fatalf("pit cell should have zero velocity, got %v", v)
	}
}

func TestDeriveVelocityOrientedTowardTarget(t *testing.T) {
	data := []float32{10, 8, 6, 9, 5, 3, 7, 4, 1}
	e := buildGrid(t, 3, 3, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}
	vel := DeriveVelocity(e, field, acc.Accumulation, 0.99)

	tx, ty, ok := field.Target(0, 0)
	if !ok {
		t.Fatal("expected (0,0) to have a downstream target on this slope")
	}
	v := vel.Vectors.At(0, 0)
	dx, dy := float32(tx), float32(ty)
	if (dx > 0 && v.X() <= 0) || (dx == 0 && v.X() != 0) {
		t.Fatalf("velocity x-component %v does not point toward target dx=%v", v.X(), dx)
	}
	if (dy > 0 && v.Y() <= 0) || (dy == 0 && v.Y() != 0) {
		t.Fatalf("velocity y-component %v does not point toward target dy=%v", v.Y(), dy)
	}
}

func TestSpawnPointsDeduplicated(t *testing.T) {
	data := []float32{10, 8, 6, 9, 5, 3, 7, 4, 1}
	e := buildGrid(t, 3, 3, data)
	field := RouteFlow(e)
	acc, err := Accumulate(e, field)
	if err != nil {
		t.Fatal(err)
	}
	tau, ok := Threshold(e, acc.Accumulation, 0.10)
	if !ok {
		t.Fatal("expected a valid threshold")
	}
	detailed, ok := ExtractStreams(e, field, acc.Accumulation, 0.01)
	if !ok {
		t.Fatal("expected a valid threshold")
	}

	spawns := SpawnPoints(e, field, acc.Accumulation, tau, detailed, 20)
	seen := make(map[[2]int]bool)
	for _, p := range spawns {
		key := [2]int{p.X, p.Y}
		if seen[key] {
			t.Fatalf("duplicate spawn point at (%d,%d)", p.X, p.Y)
		}
		seen[key] = true
	}
}
