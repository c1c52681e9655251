package grainsim

import "sort"

// Boundary is the first-class interface object for one unordered pair of
// distinct, currently-adjacent spins. ASpin is always the smaller of the
// two canonical spins.
//
// Junctions is non-owning: it holds evidence of triple-junction contact
// with other boundaries, keyed by their *Boundary identity. Entries are
// not eagerly scrubbed when a boundary is deleted; BoundaryRegistry.
// RemoveMarked prunes dangling entries in a batched sweep, matching the
// deferred-cleanup discipline of the system this was modeled on.
type Boundary struct {
	ASpin, BSpin Spin
	Transformed  bool

	Voxels map[int]struct{}

	PreviousSurfaceArea int
	PotentialEnergy     int

	Junctions map[*Boundary]int

	pendingDelete bool
}

func newBoundary(a, b Spin) *Boundary {
	return &Boundary{
		ASpin:     a,
		BSpin:     b,
		Voxels:    make(map[int]struct{}),
		Junctions: make(map[*Boundary]int),
	}
}

// Area is the number of voxels on this boundary's voxel set.
func (b *Boundary) Area() int {
	return len(b.Voxels)
}

// deltaJunction adjusts the junction counter toward other by dArea,
// pruning the entry once it reaches zero.
func (b *Boundary) deltaJunction(other *Boundary, dArea int) {
	b.Junctions[other] += dArea
	if b.Junctions[other] == 0 {
		delete(b.Junctions, other)
	}
}

func canonicalPair(a, b Spin) (Spin, Spin) {
	if a < b {
		return a, b
	}
	return b, a
}

// flipCounts tracks directional flip counts across one unordered pair of
// spins, feeding downstream analysis only.
type flipCounts struct {
	lowToHigh, highToLow int64
}

// BoundaryRegistry owns every Boundary, keyed by its canonical (min, max)
// spin pair, plus bookkeeping counters the transformation driver and
// analysis tooling both depend on.
type BoundaryRegistry struct {
	boundaries map[Spin]map[Spin]*Boundary

	TotalBoundaryCount       int
	TransformedBoundaryCount int

	flips map[Spin]map[Spin]*flipCounts
}

// NewBoundaryRegistry constructs an empty registry.
func NewBoundaryRegistry() *BoundaryRegistry {
	return &BoundaryRegistry{
		boundaries: make(map[Spin]map[Spin]*Boundary),
		flips:      make(map[Spin]map[Spin]*flipCounts),
	}
}

// FindOrCreate returns the boundary for (a, b), creating it on first use
// and unmarking any pending deletion.
func (r *BoundaryRegistry) FindOrCreate(a, b Spin) *Boundary {
	lo, hi := canonicalPair(a, b)
	bucket, ok := r.boundaries[lo]
	if !ok {
		bucket = make(map[Spin]*Boundary)
		r.boundaries[lo] = bucket
	}
	boundary, ok := bucket[hi]
	if !ok {
		boundary = newBoundary(lo, hi)
		bucket[hi] = boundary
		r.TotalBoundaryCount++
		return boundary
	}
	boundary.pendingDelete = false
	return boundary
}

// lookup returns the boundary for (a, b) if it exists, without creating
// it.
func (r *BoundaryRegistry) lookup(a, b Spin) *Boundary {
	lo, hi := canonicalPair(a, b)
	bucket, ok := r.boundaries[lo]
	if !ok {
		return nil
	}
	return bucket[hi]
}

// IsTransformed reports whether the boundary between a and b is
// transformed. It creates the boundary if absent — this preserves the
// original simulator's create-on-query behaviour rather than treating an
// absent boundary as untransformed (see DESIGN.md's open-question
// decision).
func (r *BoundaryRegistry) IsTransformed(a, b Spin) bool {
	return r.FindOrCreate(a, b).Transformed
}

// AddToBoundary inserts index into the (a, b) boundary's voxel set and
// credits junction evidence: for each foreign spin s present in
// neighborSpins (s != 0, s != a, s != b), the (a, b) boundary's junction
// counter toward (a, s) is incremented. Credit is asymmetric by design —
// callers must invoke this with a as the root voxel's spin and b as the
// foreign neighbor's spin (see DESIGN.md's open-question decision).
func (r *BoundaryRegistry) AddToBoundary(a, b Spin, index int, neighborSpins *[NeighCount]Spin) {
	boundary := r.FindOrCreate(a, b)
	boundary.Voxels[index] = struct{}{}

	for _, s := range neighborSpins {
		if s != 0 && s != a && s != b {
			boundary.deltaJunction(r.FindOrCreate(a, s), 1)
		}
	}
}

// RemoveFromBoundary erases index from the (a, b) boundary's voxel set
// and decrements the same junction counters. If the voxel set empties,
// the boundary is marked for deletion by a later RemoveMarked sweep.
func (r *BoundaryRegistry) RemoveFromBoundary(a, b Spin, index int, neighborSpins *[NeighCount]Spin) {
	boundary := r.FindOrCreate(a, b)
	delete(boundary.Voxels, index)

	for _, s := range neighborSpins {
		if s != 0 && s != a && s != b {
			boundary.deltaJunction(r.FindOrCreate(a, s), -1)
		}
	}

	if boundary.Area() == 0 {
		boundary.pendingDelete = true
	}
}

// MarkTransformed marks boundary as transformed, incrementing the global
// transformed counter exactly once per boundary.
func (r *BoundaryRegistry) MarkTransformed(boundary *Boundary) {
	if boundary.Transformed {
		return
	}
	boundary.Transformed = true
	r.TransformedBoundaryCount++
}

// MarkTransformedPair is MarkTransformed keyed by spin pair instead of a
// boundary reference.
func (r *BoundaryRegistry) MarkTransformedPair(a, b Spin) {
	r.MarkTransformed(r.FindOrCreate(a, b))
}

// DeleteBoundary forcefully removes the boundary between a and b. Any
// non-zero potential energy is transferred to a surviving junction,
// preferring a transformed junction with strictly positive existing
// energy, else any transformed junction, else the arbitrary first
// junction encountered.
func (r *BoundaryRegistry) DeleteBoundary(a, b Spin) {
	lo, hi := canonicalPair(a, b)
	bucket := r.boundaries[lo]
	boundary := bucket[hi]
	if boundary == nil {
		return
	}
	r.unlinkBoundary(lo, hi, bucket, boundary)
}

func (r *BoundaryRegistry) unlinkBoundary(lo, hi Spin, bucket map[Spin]*Boundary, boundary *Boundary) {
	delete(bucket, hi)
	if boundary.Transformed {
		r.TransformedBoundaryCount--
	}
	if len(bucket) == 0 {
		delete(r.boundaries, lo)
	}
	r.TotalBoundaryCount--

	if boundary.PotentialEnergy > 0 && len(boundary.Junctions) > 0 {
		var transfer *Boundary
		var first *Boundary
		for other := range boundary.Junctions {
			if first == nil {
				first = other
			}
			if other.Transformed {
				if other.PotentialEnergy > 0 {
					transfer = other
					break
				}
				if transfer == nil {
					transfer = other
				}
			}
		}
		if transfer == nil {
			transfer = first
		}
		transfer.PotentialEnergy += boundary.PotentialEnergy
	}
}

// RemoveMarked sweeps every boundary: junction entries whose counterpart
// is pending deletion (or whose count has decayed to zero or below) are
// pruned, then every pending boundary is deleted.
func (r *BoundaryRegistry) RemoveMarked() {
	pending := make([]*Boundary, 0)
	for _, bucket := range r.boundaries {
		for _, boundary := range bucket {
			if boundary.pendingDelete {
				pending = append(pending, boundary)
			}
		}
	}
	pendingSet := make(map[*Boundary]struct{}, len(pending))
	for _, b := range pending {
		pendingSet[b] = struct{}{}
	}

	for _, bucket := range r.boundaries {
		for _, boundary := range bucket {
			for other, count := range boundary.Junctions {
				if count <= 0 {
					delete(boundary.Junctions, other)
					continue
				}
				if _, dead := pendingSet[other]; dead {
					delete(boundary.Junctions, other)
				}
			}
		}
	}

	for _, boundary := range pending {
		r.DeleteBoundary(boundary.ASpin, boundary.BSpin)
	}
}

// TrackFlip increments the flip counter in the direction old->new for
// the unordered (old, new) pair. This feeds downstream analysis only.
func (r *BoundaryRegistry) TrackFlip(old, new_ Spin) {
	if old == new_ {
		return
	}
	lo, hi := canonicalPair(old, new_)
	bucket, ok := r.flips[lo]
	if !ok {
		bucket = make(map[Spin]*flipCounts)
		r.flips[lo] = bucket
	}
	counts, ok := bucket[hi]
	if !ok {
		counts = &flipCounts{}
		bucket[hi] = counts
	}
	if old == lo {
		counts.lowToHigh++
	} else {
		counts.highToLow++
	}
}

// ResetFlips clears the flip-tracking table.
func (r *BoundaryRegistry) ResetFlips() {
	r.flips = make(map[Spin]map[Spin]*flipCounts)
}

// All iterates every live boundary in a stable order (sorted by the
// canonical pair) — the iteration order the transformation driver's k-th
// of its kind selection scheme relies on.
func (r *BoundaryRegistry) All(visit func(*Boundary)) {
	los := make([]Spin, 0, len(r.boundaries))
	for lo := range r.boundaries {
		los = append(los, lo)
	}
	sort.Slice(los, func(i, j int) bool { return los[i] < los[j] })
	for _, lo := range los {
		bucket := r.boundaries[lo]
		his := make([]Spin, 0, len(bucket))
		for hi := range bucket {
			his = append(his, hi)
		}
		sort.Slice(his, func(i, j int) bool { return his[i] < his[j] })
		for _, hi := range his {
			visit(bucket[hi])
		}
	}
}
