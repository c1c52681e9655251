package grainsim

// Voxel is a single cell of the cubic lattice: its current spin, the
// flip-activity contributed by each foreign spin touching it, and its
// linear index within the lattice.
//
// neighborSpins/neighborProbs form a fixed-capacity inline table (26
// slots, one per geometric neighbor in the worst case) so that per-voxel
// bookkeeping never allocates on the hot path. neighborSpins never holds
// the voxel's own spin, and each foreign spin occupies at most one slot.
type Voxel struct {
	Spin     Spin
	Activity Activ
	Index    int

	neighborSpins [NeighCount]Spin
	neighborProbs [NeighCount]Activ
}

// SetNeighbor records the probability that this voxel flips to nspin,
// returning the resulting change in Activity. A zero probability removes
// the entry. If nspin is new to the table and a boundary registry is
// given, the new (v.Spin, nspin) adjacency is reported to it.
func (v *Voxel) SetNeighbor(nspin Spin, prob Activ, reg *BoundaryRegistry) (Activ, error) {
	if prob == 0 {
		return v.RemoveNeighbor(nspin, reg), nil
	}

	slot := -1
	newNeighbor := true
	for i := 0; i < NeighCount; i++ {
		if v.neighborSpins[i] == nspin {
			slot = i
			newNeighbor = false
			break
		}
		if slot < 0 && v.neighborSpins[i] == 0 {
			slot = i
		}
	}

	if slot < 0 {
		return 0, invariant("voxel %d: neighbor table overflow (26 slots exhausted)", v.Index)
	}

	if newNeighbor {
		v.neighborSpins[slot] = nspin
		v.neighborProbs[slot] = prob
		v.Activity += prob
		if reg != nil {
			reg.AddToBoundary(v.Spin, nspin, v.Index, &v.neighborSpins)
		}
		return prob, nil
	}

	delta := prob - v.neighborProbs[slot]
	v.neighborProbs[slot] += delta
	v.Activity += delta
	return delta, nil
}

// HasNeighbor reports whether nspin currently occupies a slot.
func (v *Voxel) HasNeighbor(nspin Spin) bool {
	for i := 0; i < NeighCount; i++ {
		if v.neighborSpins[i] == nspin {
			return true
		}
	}
	return false
}

// RemoveNeighbor clears nspin's slot if present, returning the
// (non-positive) change in Activity and reporting the removal to reg.
func (v *Voxel) RemoveNeighbor(nspin Spin, reg *BoundaryRegistry) Activ {
	for i := 0; i < NeighCount; i++ {
		if v.neighborSpins[i] == nspin {
			v.neighborSpins[i] = 0
			delta := -v.neighborProbs[i]
			v.neighborProbs[i] = 0
			v.Activity += delta
			if reg != nil {
				reg.RemoveFromBoundary(v.Spin, nspin, v.Index, &v.neighborSpins)
			}
			return delta
		}
	}
	return 0
}

// Reset clears every occupied slot, reporting each removal to reg, and
// returns the total change in Activity.
func (v *Voxel) Reset(reg *BoundaryRegistry) Activ {
	var delta Activ
	for i := 0; i < NeighCount; i++ {
		if v.neighborSpins[i] != 0 {
			delta -= v.neighborProbs[i]
			if reg != nil {
				reg.RemoveFromBoundary(v.Spin, v.neighborSpins[i], v.Index, &v.neighborSpins)
			}
			v.neighborSpins[i] = 0
			v.neighborProbs[i] = 0
		}
	}
	v.Activity = 0
	return delta
}

// ChooseNeighbor walks occupied slots in array order, subtracting each
// slot's probability from desiredActiv, and returns the first spin whose
// subtraction brings the running value to zero or below. Array order is
// deterministic, which fixes the sampling distribution for a given table
// layout.
func (v *Voxel) ChooseNeighbor(desiredActiv Activ) Spin {
	for i := 0; i < NeighCount; i++ {
		if v.neighborSpins[i] == 0 {
			continue
		}
		desiredActiv -= v.neighborProbs[i]
		if desiredActiv <= 0 {
			return v.neighborSpins[i]
		}
	}
	return 0
}
