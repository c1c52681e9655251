package grainsim

import "testing"

func TestVoxelSetNeighborNewSlot(t *testing.T) {
	var v Voxel
	v.Spin = 1
	v.Index = 0

	delta, err := v.SetNeighbor(2, 0.5, nil)
	if err != nil {
		t.Fatalf("SetNeighbor: %v", err)
	}
	if delta != 0.5 {
		t.Fatalf("delta = %v, want 0.5", delta)
	}
	if v.Activity != 0.5 {
		t.Fatalf("Activity = %v, want 0.5", v.Activity)
	}
	if !v.HasNeighbor(2) {
		t.Fatalf("HasNeighbor(2) = false, want true")
	}
}

func TestVoxelSetNeighborUpdatesExisting(t *testing.T) {
	var v Voxel
	v.Spin = 1
	oldProb, newProb := Activ(0.5), Activ(0.8)
	if _, err := v.SetNeighbor(2, oldProb, nil); err != nil {
		t.Fatal(err)
	}
	delta, err := v.SetNeighbor(2, newProb, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := newProb - oldProb; delta != want {
		t.Fatalf("delta = %v, want %v", delta, want)
	}
	if v.Activity != 0.8 {
		t.Fatalf("Activity = %v, want 0.8", v.Activity)
	}
}

func TestVoxelSetNeighborZeroProbRemoves(t *testing.T) {
	var v Voxel
	v.Spin = 1
	if _, err := v.SetNeighbor(2, 0.5, nil); err != nil {
		t.Fatal(err)
	}
	delta, err := v.SetNeighbor(2, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if delta != -0.5 {
		t.Fatalf("delta = %v, want -0.5", delta)
	}
	if v.HasNeighbor(2) {
		t.Fatalf("HasNeighbor(2) = true after removal")
	}
	if v.Activity != 0 {
		t.Fatalf("Activity = %v, want 0", v.Activity)
	}
}

func TestVoxelSetNeighborOverflow(t *testing.T) {
	var v Voxel
	v.Spin = 0
	for i := Spin(1); i <= NeighCount; i++ {
		if _, err := v.SetNeighbor(i, 1.0, nil); err != nil {
			t.Fatalf("unexpected error filling slot %d: %v", i, err)
		}
	}
	if _, err := v.SetNeighbor(Spin(NeighCount+1), 1.0, nil); err == nil {
		t.Fatalf("expected overflow error, got nil")
	}
}

func TestVoxelResetClearsAllSlots(t *testing.T) {
	var v Voxel
	v.Spin = 1
	if _, err := v.SetNeighbor(2, 0.3, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := v.SetNeighbor(3, 0.4, nil); err != nil {
		t.Fatal(err)
	}

	delta := v.Reset(nil)
	if delta != -0.7 {
		t.Fatalf("delta = %v, want -0.7", delta)
	}
	if v.Activity != 0 {
		t.Fatalf("Activity = %v, want 0", v.Activity)
	}
	if v.HasNeighbor(2) || v.HasNeighbor(3) {
		t.Fatalf("neighbors remain after Reset")
	}
}

func TestVoxelChooseNeighborDeterministic(t *testing.T) {
	var v Voxel
	v.Spin = 1
	if _, err := v.SetNeighbor(2, 0.3, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := v.SetNeighbor(3, 0.5, nil); err != nil {
		t.Fatal(err)
	}

	if got := v.ChooseNeighbor(0.1); got != 2 {
		t.Fatalf("ChooseNeighbor(0.1) = %d, want 2", got)
	}
	if got := v.ChooseNeighbor(0.3); got != 2 {
		t.Fatalf("ChooseNeighbor(0.3) = %d, want 2", got)
	}
	if got := v.ChooseNeighbor(0.35); got != 3 {
		t.Fatalf("ChooseNeighbor(0.35) = %d, want 3", got)
	}
}

func TestVoxelActivityEqualsNeighborProbSum(t *testing.T) {
	var v Voxel
	v.Spin = 1
	probs := []Activ{0.1, 0.2, 0.3}
	for i, p := range probs {
		if _, err := v.SetNeighbor(Spin(i+2), p, nil); err != nil {
			t.Fatal(err)
		}
	}
	var sum Activ
	for _, p := range probs {
		sum += p
	}
	if v.Activity != sum {
		t.Fatalf("Activity = %v, want %v", v.Activity, sum)
	}
}
