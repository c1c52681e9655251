package grainsim

import "testing"

func TestDrawDistinctIndicesClampsToPopulation(t *testing.T) {
	l := NewLattice(2, defaultSeed)
	got := l.drawDistinctIndices(10, 3)
	if len(got) != 3 {
		t.Fatalf("drawDistinctIndices(10, 3) returned %d indices, want 3", len(got))
	}
	for idx := range got {
		if idx < 0 || idx >= 3 {
			t.Fatalf("index %d out of range [0,3)", idx)
		}
	}
}

func TestDrawDistinctIndicesZeroPopulation(t *testing.T) {
	l := NewLattice(2, defaultSeed)
	got := l.drawDistinctIndices(5, 0)
	if len(got) != 0 {
		t.Fatalf("drawDistinctIndices(5, 0) returned %d indices, want 0", len(got))
	}
}

// TestS6PotentialEnergyPropagation reproduces the potential-energy
// scenario directly against the boundary registry: a transformed boundary
// whose previous_surface_area - area = 10 spends that surplus against its
// smallest untransformed junction, which has area 7, leaving
// potential_energy == 3.
func TestS6PotentialEnergyPropagation(t *testing.T) {
	l := NewLattice(2, defaultSeed)
	for i := range l.Voxels {
		l.Voxels[i].Spin = 1
		l.Voxels[i].Index = i
	}
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	transformed := l.Boundary.FindOrCreate(5, 6)
	l.Boundary.MarkTransformed(transformed)
	transformed.PreviousSurfaceArea = transformed.Area() + 10

	junction := l.Boundary.FindOrCreate(5, 7)
	for i := 0; i < 7; i++ {
		junction.Voxels[i] = struct{}{}
	}
	transformed.Junctions[junction] = 1

	if err := l.TransitionBoundaries(0, 0, 0, true); err != nil {
		t.Fatalf("TransitionBoundaries: %v", err)
	}

	if !junction.Transformed {
		t.Fatalf("smallest untransformed junction was not transformed")
	}
	if transformed.PotentialEnergy != 3 {
		t.Fatalf("PotentialEnergy = %d, want 3", transformed.PotentialEnergy)
	}
}

func TestS4JunctionsPopulatedForThreeGrainColumn(t *testing.T) {
	const side = Coord(4)
	l := NewLattice(side, defaultSeed)
	for z := Coord(0); z < side; z++ {
		for y := Coord(0); y < side; y++ {
			for x := Coord(0); x < side; x++ {
				switch {
				case x < side/2 && y < side/2:
					l.VoxelAt(x, y, z).Spin = 1
				case x >= side/2 && y < side/2:
					l.VoxelAt(x, y, z).Spin = 2
				default:
					l.VoxelAt(x, y, z).Spin = 3
				}
			}
		}
	}
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	b12 := l.Boundary.lookup(1, 2)
	b13 := l.Boundary.lookup(1, 3)
	b23 := l.Boundary.lookup(2, 3)
	if b12 == nil || b13 == nil || b23 == nil {
		t.Fatalf("expected all three pairwise boundaries to exist")
	}

	if b12.Junctions[b13] <= 0 && b12.Junctions[b23] <= 0 {
		t.Fatalf("(1,2) boundary has no positive junction evidence toward (1,3) or (2,3)")
	}
}
