package grainsim

import "testing"

func TestActivityOctreeDeltaUpdatesRoot(t *testing.T) {
	tree := NewActivityOctree(4, 3)
	tree.Delta(0, 0, 0, 5)
	tree.Delta(1, 1, 1, 3)
	if got := tree.SystemActivity(); got != 8 {
		t.Fatalf("SystemActivity = %v, want 8", got)
	}

	tree.Delta(0, 0, 0, -2)
	if got := tree.SystemActivity(); got != 6 {
		t.Fatalf("SystemActivity after decrement = %v, want 6", got)
	}
}

func TestActivityOctreeGetVoxelFromSumActivity(t *testing.T) {
	const side = Coord(4)
	tree := NewActivityOctree(4, 3)
	voxels := make([]Voxel, side*side*side)

	idx := func(x, y, z Coord) int { return int(x + y*side + z*side*side) }

	voxels[idx(0, 0, 0)].Activity = 1
	tree.Delta(0, 0, 0, 1)
	voxels[idx(3, 3, 3)].Activity = 2
	tree.Delta(3, 3, 3, 2)

	x, y, z, err := tree.GetVoxelFromSumActivity(0.5, voxels, side)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x != 0 || y != 0 || z != 0 {
		t.Fatalf("got (%d,%d,%d), want (0,0,0)", x, y, z)
	}

	x, y, z, err = tree.GetVoxelFromSumActivity(2.0, voxels, side)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x != 3 || y != 3 || z != 3 {
		t.Fatalf("got (%d,%d,%d), want (3,3,3)", x, y, z)
	}
}

func TestActivityOctreeGetVoxelFromSumActivityExhaustionIsInvariant(t *testing.T) {
	tree := NewActivityOctree(4, 3)
	voxels := make([]Voxel, 4*4*4)
	_, _, _, err := tree.GetVoxelFromSumActivity(1.0, voxels, 4)
	if err == nil {
		t.Fatalf("expected invariant error on a zero-activity tree, got nil")
	}
}

func TestActivityOctreePaddedSideLargerThanTrueLattice(t *testing.T) {
	// L=3 pads to a side-4 octree; only the 27 true cells are addressable
	// by GetVoxelFromSumActivity even though the tree spans 64 leaves.
	const side = Coord(3)
	tree := NewActivityOctree(4, 3)
	voxels := make([]Voxel, side*side*side)
	voxels[0].Activity = 1
	tree.Delta(0, 0, 0, 1)

	x, y, z, err := tree.GetVoxelFromSumActivity(0.5, voxels, side)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x != 0 || y != 0 || z != 0 {
		t.Fatalf("got (%d,%d,%d), want (0,0,0)", x, y, z)
	}
}
