package gridmap

import "testing"

func unitDomain() Domain {
	return Domain{X: [2]float64{0, 1}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
}

func TestNewRejectsInvertedDomain(t *testing.T) {
	d := Domain{X: [2]float64{1, 0}, Y: [2]float64{0, 1}, Z: [2]float64{0, 1}}
	_, err := New(d, 0.01, 0.001, Boundary{Type: "PEC"})
	if err == nil {
		t.Fatal("expected error for inverted domain")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

func TestNewRejectsNonPositiveStep(t *testing.T) {
	if _, err := New(unitDomain(), 0, 0.001, Boundary{Type: "PEC"}); err == nil {
		t.Fatal("expected error for dx <= 0")
	}
	if _, err := New(unitDomain(), 0.01, 0, Boundary{Type: "PEC"}); err == nil {
		t.Fatal("expected error for dt <= 0")
	}
}

func TestNewRejectsPMLCellsUnderPEC(t *testing.T) {
	_, err := New(unitDomain(), 0.01, 0.001, Boundary{Type: "PEC", Cells: 8})
	if err == nil {
		t.Fatal("expected error: PEC boundary must have Cells == 0")
	}
}

func TestGridDimensionsNoPML(t *testing.T) {
	g, err := New(unitDomain(), 0.1, 0.001, Boundary{Type: "PEC"})
	if err != nil {
		t.Fatal(err)
	}
	for a := 0; a < 3; a++ {
		if g.S[a] != 10 {
			t.Errorf("axis %d: expected S=10, got %d", a, g.S[a])
		}
		if g.G[a] != g.S[a] {
			t.Errorf("axis %d: expected G == S with PEC, got G=%d S=%d", a, g.G[a], g.S[a])
		}
	}
}

func TestGridDimensionsWithPML(t *testing.T) {
	g, err := New(unitDomain(), 0.1, 0.001, Boundary{Type: "PML", Cells: 8, Sigma: 1, Alpha: 0})
	if err != nil {
		t.Fatal(err)
	}
	for a := 0; a < 3; a++ {
		if g.G[a] != g.S[a]+16 {
			t.Errorf("axis %d: expected G = S+2C = %d, got %d", a, g.S[a]+16, g.G[a])
		}
	}
}

func TestGridInvariantGGreaterEqualS(t *testing.T) {
	g, err := New(unitDomain(), 0.05, 0.001, Boundary{Type: "PML", Cells: 5})
	if err != nil {
		t.Fatal(err)
	}
	for a := 0; a < 3; a++ {
		if g.G[a] < g.S[a] {
			t.Errorf("axis %d: G (%d) must be >= S (%d)", a, g.G[a], g.S[a])
		}
	}
}

func TestInteriorClassification(t *testing.T) {
	g, err := New(unitDomain(), 0.1, 0.001, Boundary{Type: "PML", Cells: 2})
	if err != nil {
		t.Fatal(err)
	}
	if g.Interior(0, 5, 5) {
		t.Error("cell at halo index 0 should not be interior")
	}
	if !g.Interior(g.C, 5, 5) {
		t.Error("cell at index C should be interior")
	}
	if g.Interior(g.G[0]-1, 5, 5) {
		t.Error("cell at G-1 should not be interior")
	}
}

func TestWorldToGridMapsOriginNearGrid(t *testing.T) {
	g, err := New(unitDomain(), 0.1, 0.001, Boundary{Type: "PEC"})
	if err != nil {
		t.Fatal(err)
	}
	gp := g.WorldToGrid([3]float64{0, 0, 0})
	for a := 0; a < 3; a++ {
		if gp[a] < -1 || gp[a] > float64(g.G[a]+1) {
			t.Errorf("axis %d: mapped origin (%v) far outside grid extent %d", a, gp[a], g.G[a])
		}
	}
}

func TestCellsCount(t *testing.T) {
	g, err := New(unitDomain(), 0.5, 0.001, Boundary{Type: "PEC"})
	if err != nil {
		t.Fatal(err)
	}
	want := g.G[0] * g.G[1] * g.G[2]
	if g.Cells() != want {
		t.Errorf("expected %d cells, got %d", want, g.Cells())
	}
}
