package grainsim

import "errors"

// transitionBoundary marks boundary as transformed and rebuilds the
// activity of every voxel on it (and each of their 26 neighbors, for the
// voxel's current spin) — the mobility of any edge touching a
// newly-transformed boundary has changed, so its probabilities must be
// recomputed.
func (l *Lattice) transitionBoundary(boundary *Boundary) error {
	l.Boundary.MarkTransformed(boundary)

	for index := range boundary.Voxels {
		x, y, z := l.FromIndex(index)

		if err := l.rebuildVoxelActivity(x, y, z); err != nil {
			return err
		}
		spin := l.Voxels[index].Spin
		for n := 0; n < NeighCount; n++ {
			nx, ny, nz := x+l.neighborLookupX[n], y+l.neighborLookupY[n], z+l.neighborLookupZ[n]
			if err := l.rebuildNeighborActivity(nx, ny, nz, spin); err != nil {
				return err
			}
		}
	}

	if l.log != nil {
		if err := l.log.Record(boundary.ASpin, boundary.BSpin); err != nil {
			return err
		}
	}

	return nil
}

// drawDistinctIndices draws count distinct integers from [0, population)
// without replacement, clamping count to population first so the
// rejection loop can never spin forever (spec's flagged open question).
func (l *Lattice) drawDistinctIndices(count, population int) map[int]struct{} {
	if count > population {
		count = population
	}
	out := make(map[int]struct{}, count)
	for len(out) < count {
		idx := int(l.rngFloat(0, Activ(population)))
		if idx >= population {
			idx = population - 1
		}
		out[idx] = struct{}{}
	}
	return out
}

// TransitionBoundaries periodically transitions a batch of grain
// boundaries: count is split between direct flips of untransformed
// boundaries and propagation from already-transformed ones, and (when
// usePotentialEnergy is set) transformed boundaries also spend
// accumulated shrinkage to greedily transform their smallest
// untransformed junction partners.
//
// The random indices naming which k-th untransformed/transformed
// boundary to act on are drawn once, then consumed during a single
// traversal of the registry in its canonical iteration order — this
// decouples sampling from iteration but is not perfectly uniform over
// the boundary set, since propagation can advance the traversal out of
// sequence (documented design, inherited from the modeled system).
//
// A transitionBoundary failure other than ErrIOFailure aborts the
// traversal: an ErrIOFailure (a transition-log write) is logged and the
// traversal continues, per spec.md §7's IOFailure policy, but any other
// error (ErrInternalInvariant,
// propagated from a broken activity rebuild) is returned to the caller
// without completing the remaining boundaries.
func (l *Lattice) TransitionBoundaries(count int, propagationChance, propagationRatio float64, usePotentialEnergy bool) error {
	Infof("transitioning %d boundaries", count)

	untransformedTotal := l.Boundary.TotalBoundaryCount - l.Boundary.TransformedBoundaryCount
	if count > untransformedTotal {
		count = untransformedTotal
	}

	propagateCount := int(float64(count) * propagationChance)
	flipCount := count - propagateCount

	if l.Boundary.TransformedBoundaryCount < propagateCount {
		propagateCount = l.Boundary.TransformedBoundaryCount
		flipCount = count - propagateCount
	}

	flipIndices := l.drawDistinctIndices(flipCount, untransformedTotal)
	propagateIndices := l.drawDistinctIndices(propagateCount, l.Boundary.TransformedBoundaryCount)

	var debugPropAmt, debugFlipAmt, debugPotenAmt int
	var aborted error

	// transition runs transitionBoundary and reports whether the
	// traversal may continue: an IOFailure is logged in place and treated
	// as recovered, anything else aborts by recording it in aborted.
	transition := func(b *Boundary) bool {
		err := l.transitionBoundary(b)
		if err == nil {
			return true
		}
		if errors.Is(err, ErrIOFailure) {
			Infof("transition log write failed: %v", err)
			return true
		}
		aborted = err
		return false
	}

	untransCount, transCount := 0, 0
	flipRemaining := len(flipIndices)
	propagateRemaining := len(propagateIndices)

	l.Boundary.All(func(boundary *Boundary) {
		if aborted != nil {
			return
		}
		if boundary.Transformed {
			if propagateRemaining > 0 {
				if _, ok := propagateIndices[transCount]; ok {
					delete(propagateIndices, transCount)
					propagateRemaining--

					propNum := int(float64(len(boundary.Junctions)) * propagationRatio)
					if propagationRatio <= 0 {
						propNum = 1
					}

					foundJunc := false
					for other := range boundary.Junctions {
						if other.Transformed {
							continue
						}
						if !transition(other) {
							return
						}
						foundJunc = true
						debugPropAmt++

						if debugPropAmt >= propagateCount {
							propagateRemaining = 0
							break
						}

						propNum--
						if propNum <= 0 {
							break
						}
					}

					if !foundJunc {
						newIdx := transCount + 1
						for {
							if _, taken := propagateIndices[newIdx]; !taken {
								break
							}
							newIdx++
						}
						propagateIndices[newIdx] = struct{}{}
						propagateRemaining++
					}
				}
				transCount++
			}

			if usePotentialEnergy {
				if boundary.PreviousSurfaceArea != 0 {
					boundary.PotentialEnergy += boundary.PreviousSurfaceArea - boundary.Area()
					if boundary.PotentialEnergy < 0 {
						boundary.PotentialEnergy = 0
					}

					for {
						var smallest *Boundary
						for other := range boundary.Junctions {
							if other.Transformed {
								continue
							}
							if smallest == nil || smallest.Area() > other.Area() {
								smallest = other
							}
						}
						if smallest == nil || smallest.Area() > boundary.PotentialEnergy {
							break
						}
						if !transition(smallest) {
							return
						}
						boundary.PotentialEnergy -= smallest.Area()
						debugPotenAmt++
					}
				}
				boundary.PreviousSurfaceArea = boundary.Area()
			}
		} else if flipRemaining > 0 {
			if _, ok := flipIndices[untransCount]; ok {
				if !transition(boundary) {
					return
				}
				debugFlipAmt++
				flipRemaining--
			}
			untransCount++
		}
	})

	if aborted != nil {
		return aborted
	}

	Infof("transitioned boundaries: %d / %d", l.Boundary.TransformedBoundaryCount, l.Boundary.TotalBoundaryCount)
	Infof("via propagation: %d, via random flipping: %d, via potential energy: %d", debugPropAmt, debugFlipAmt, debugPotenAmt)
	return nil
}
