package grainsim

import (
	"os"
	"strings"
	"testing"
)

func TestAnalyzerVolumeOfUniformLattice(t *testing.T) {
	const side = Coord(4)
	l := NewLattice(side, defaultSeed)
	for i := range l.Voxels {
		l.Voxels[i].Spin = 7
	}
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var a Analyzer
	a.Load(l)

	if got := a.volVector[7]; got != int(side*side*side) {
		t.Fatalf("volVector[7] = %d, want %d", got, side*side*side)
	}
	for s, v := range a.volVector {
		if s != 7 && v != 0 {
			t.Fatalf("volVector[%d] = %d, want 0", s, v)
		}
	}
}

func TestAnalyzerSaveToFileWritesAllSections(t *testing.T) {
	const side = Coord(4)
	l := twoGrainLattice(t, side)

	var a Analyzer
	a.Load(l)

	path := t.TempDir() + "/analysis.txt"
	if err := a.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	for _, section := range []string{"VOLUMES", "CURVATURES", "SURFACE_AREAS"} {
		if !strings.Contains(content, section) {
			t.Fatalf("analysis report missing %q section", section)
		}
	}
}

func TestAnalyzerCurvatureIsAntisymmetric(t *testing.T) {
	const side = Coord(4)
	l := twoGrainLattice(t, side)

	var a Analyzer
	a.Load(l)

	c12 := a.Curvature(1, 2)
	c21 := a.Curvature(2, 1)
	if c12 != -c21 {
		t.Fatalf("Curvature(1,2) = %v, Curvature(2,1) = %v, want negatives of each other", c12, c21)
	}
}
