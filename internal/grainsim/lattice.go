package grainsim

import (
	"math"
	"math/rand"
)

// kT is the fixed simulation temperature used in the Boltzmann-style
// flip probability (Frazier thesis, Eq. 4.2).
const kT Activ = 0.5

// noDeltaENeighbor is the sentinel returned by deltaE when no neighbor
// carries the candidate spin.
const noDeltaENeighbor = -50

// Lattice is a cube of side SideLength voxels under periodic boundary
// conditions, together with the activity octree and boundary registry
// that make its n-fold-way step O(log N).
type Lattice struct {
	SideLength Coord
	Voxels     []Voxel

	ActivTree *ActivityOctree
	Boundary  *BoundaryRegistry

	DefaultMobility      Activ
	TransitionedMobility Activ

	GrainCount Spin

	TotalFlips       int64
	TransformedFlips int64

	neighborLookupX [NeighCount]Coord
	neighborLookupY [NeighCount]Coord
	neighborLookupZ [NeighCount]Coord

	probETermLookup [NeighCount*2 + 1]Activ

	rng *rand.Rand

	log *TransitionLog
}

// BeginLoggingTransitions starts appending boundary-transition records
// to outputFolder/transitions.txt.
func (l *Lattice) BeginLoggingTransitions(outputFolder string) error {
	log, err := BeginTransitionLog(outputFolder)
	if err != nil {
		return err
	}
	l.log = log
	return nil
}

// StopLoggingTransitions flushes and closes the transition log, if one
// is open.
func (l *Lattice) StopLoggingTransitions() error {
	if l.log == nil {
		return nil
	}
	err := l.log.Stop()
	l.log = nil
	return err
}

// FlushLogFile flushes the transition log's buffer without closing it.
func (l *Lattice) FlushLogFile() error {
	if l.log == nil {
		return nil
	}
	return l.log.Flush()
}

// SetLogTimestep stamps subsequent transition-log records with
// timestep.
func (l *Lattice) SetLogTimestep(timestep float64) {
	if l.log != nil {
		l.log.SetTimestep(timestep)
	}
}

// NewLattice allocates a lattice of the given side length. Use Init once
// the initial spins (and, optionally, GrainCount) have been populated.
func NewLattice(sideLength Coord, seed int64) *Lattice {
	l := &Lattice{
		SideLength:           sideLength,
		Voxels:               make([]Voxel, sideLength*sideLength*sideLength),
		DefaultMobility:      0.002,
		TransitionedMobility: 0.04,
		Boundary:             NewBoundaryRegistry(),
		rng:                  rand.New(rand.NewSource(seed)),
	}

	nextPow2 := Coord(1)
	for nextPow2 < sideLength {
		nextPow2 *= 2
	}
	height := int(math.Log2(float64(nextPow2))) + 1
	l.ActivTree = NewActivityOctree(nextPow2, height)

	Infof("created lattice of size %d", sideLength)
	return l
}

func (l *Lattice) buildLookupTables() {
	i := 0
	for z := Coord(-1); z <= 1; z++ {
		for y := Coord(-1); y <= 1; y++ {
			for x := Coord(-1); x <= 1; x++ {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				l.neighborLookupX[i] = x
				l.neighborLookupY[i] = y
				l.neighborLookupZ[i] = z
				i++
			}
		}
	}

	for de := -NeighCount; de <= NeighCount; de++ {
		l.probETermLookup[de+NeighCount] = math.Exp(float64(-de) / float64(kT))
	}
}

// IndexAt returns the linear index of (x, y, z) after wrapping under
// periodic boundary conditions.
func (l *Lattice) IndexAt(x, y, z Coord) int {
	n := l.SideLength
	x = ((x % n) + n) % n
	y = ((y % n) + n) % n
	z = ((z % n) + n) % n
	return int(x + y*n + z*n*n)
}

// VoxelAt returns the voxel at (x, y, z), wrapping under periodic
// boundary conditions.
func (l *Lattice) VoxelAt(x, y, z Coord) *Voxel {
	return &l.Voxels[l.IndexAt(x, y, z)]
}

// NeighborAt returns the n'th (0..25) geometric neighbor of (x, y, z).
func (l *Lattice) NeighborAt(x, y, z Coord, n int) *Voxel {
	return l.VoxelAt(x+l.neighborLookupX[n], y+l.neighborLookupY[n], z+l.neighborLookupZ[n])
}

// FromIndex recovers (x, y, z) from a linear voxel index.
func (l *Lattice) FromIndex(index int) (Coord, Coord, Coord) {
	n := l.SideLength
	idx := Coord(index)
	x := idx % n
	idx /= n
	y := idx % n
	idx /= n
	z := idx % n
	return x, y, z
}

func (l *Lattice) rngFloat(min, max Activ) Activ {
	return l.rng.Float64()*(max-min) + min
}

func (l *Lattice) mobility(a, b Spin) Activ {
	if l.Boundary.IsTransformed(a, b) {
		return l.TransitionedMobility
	}
	return l.DefaultMobility
}

// deltaE computes the change in energy from flipping (x, y, z) to
// newSpin: the count of neighbors sharing the voxel's current spin minus
// the count sharing newSpin. Returns noDeltaENeighbor if no neighbor
// carries newSpin at all.
func (l *Lattice) deltaE(x, y, z Coord, newSpin Spin) int {
	currSpin := l.VoxelAt(x, y, z).Spin
	output := 0
	found := false

	for n := 0; n < NeighCount; n++ {
		nspin := l.NeighborAt(x, y, z, n).Spin
		switch {
		case nspin == newSpin:
			output--
			found = true
		case nspin == currSpin:
			output++
		}
	}

	if !found {
		return noDeltaENeighbor
	}
	return output
}

// getProb is the flip probability for (x, y, z) -> newSpin (Frazier
// thesis Eq. 4.2): zero if newSpin is the current spin or unreachable;
// the raw mobility if the flip is energetically favorable (dE < 0);
// otherwise mobility scaled by exp(-dE / kT).
func (l *Lattice) getProb(x, y, z Coord, newSpin Spin) Activ {
	currSpin := l.VoxelAt(x, y, z).Spin
	if newSpin == currSpin {
		return 0
	}

	dE := l.deltaE(x, y, z, newSpin)
	switch {
	case dE == noDeltaENeighbor:
		return 0
	case dE < 0:
		return l.mobility(currSpin, newSpin)
	default:
		return l.mobility(currSpin, newSpin) * l.probETermLookup[dE+NeighCount]
	}
}

// rebuildVoxelActivity recalculates the activity table for (x, y, z)
// from scratch, populating an entry for every foreign neighbor spin not
// already present.
func (l *Lattice) rebuildVoxelActivity(x, y, z Coord) error {
	v := l.VoxelAt(x, y, z)
	for n := 0; n < NeighCount; n++ {
		nspin := l.NeighborAt(x, y, z, n).Spin
		if nspin == v.Spin || v.HasNeighbor(nspin) {
			continue
		}
		delta, err := v.SetNeighbor(nspin, l.getProb(x, y, z, nspin), l.Boundary)
		if err != nil {
			return err
		}
		l.ActivTree.Delta(x, y, z, delta)
	}
	return nil
}

// rebuildNeighborActivity recomputes a single voxel's probability entry
// for nspin (wrapping x, y, z under periodic boundary conditions).
func (l *Lattice) rebuildNeighborActivity(x, y, z Coord, nspin Spin) error {
	n := l.SideLength
	x = ((x % n) + n) % n
	y = ((y % n) + n) % n
	z = ((z % n) + n) % n

	v := l.VoxelAt(x, y, z)
	newProb := l.getProb(x, y, z, nspin)
	delta, err := v.SetNeighbor(nspin, newProb, l.Boundary)
	if err != nil {
		return err
	}
	l.ActivTree.Delta(x, y, z, delta)
	return nil
}

// Init builds the neighbor/probability lookup tables and populates every
// voxel's activity table. If GrainCount is unset (<= 0), it is derived
// from the number of distinct spins present in the initial lattice.
func (l *Lattice) Init() error {
	Infof("initializing lattice")
	l.buildLookupTables()

	spins := make(map[Spin]struct{})
	detectGrainCount := l.GrainCount == 0

	for z := Coord(0); z < l.SideLength; z++ {
		for y := Coord(0); y < l.SideLength; y++ {
			for x := Coord(0); x < l.SideLength; x++ {
				v := l.VoxelAt(x, y, z)
				v.Index = l.IndexAt(x, y, z)
				if detectGrainCount {
					spins[v.Spin] = struct{}{}
				}
				if err := l.rebuildVoxelActivity(x, y, z); err != nil {
					return err
				}
			}
		}
	}

	if detectGrainCount {
		l.GrainCount = Spin(len(spins))
	}

	Infof("done initializing lattice")
	return nil
}

// SystemActivity is the total activity across every voxel in the
// lattice.
func (l *Lattice) SystemActivity() Activ {
	return l.ActivTree.SystemActivity()
}

// flipVoxel reassigns (x, y, z) to newSpin: its own table is reset and
// rebuilt, then every one of its 26 neighbors has its probability
// entries for both the old and the new spin recomputed. The double pass
// over each neighbor is required — the old spin may now be entirely
// absent from a neighbor's neighborhood, and the new spin may now be
// present for the first time.
func (l *Lattice) flipVoxel(x, y, z Coord, newSpin Spin) error {
	v := l.VoxelAt(x, y, z)
	oldSpin := v.Spin

	l.ActivTree.Delta(x, y, z, v.Reset(l.Boundary))
	v.Spin = newSpin

	if err := l.rebuildVoxelActivity(x, y, z); err != nil {
		return err
	}

	for n := 0; n < NeighCount; n++ {
		nx, ny, nz := x+l.neighborLookupX[n], y+l.neighborLookupY[n], z+l.neighborLookupZ[n]
		if err := l.rebuildNeighborActivity(nx, ny, nz, oldSpin); err != nil {
			return err
		}
		if err := l.rebuildNeighborActivity(nx, ny, nz, newSpin); err != nil {
			return err
		}
	}

	l.TotalFlips++
	if l.Boundary.IsTransformed(oldSpin, newSpin) {
		l.TransformedFlips++
	}
	l.Boundary.TrackFlip(oldSpin, newSpin)

	return nil
}

// Step performs one n-fold-way flip: draws a voxel in proportion to
// system activity, draws a new spin in proportion to that voxel's
// per-neighbor activity, executes the flip, and returns the simulated
// time increment (Hassold & Holm 1993, Eq. 20).
func (l *Lattice) Step() (Activ, error) {
	systemActiv := l.SystemActivity()
	var randActiv Activ
	for {
		randActiv = l.rngFloat(0, systemActiv)
		if randActiv < systemActiv {
			break
		}
	}

	vx, vy, vz, err := l.ActivTree.GetVoxelFromSumActivity(randActiv, l.Voxels, l.SideLength)
	if err != nil {
		return 0, err
	}

	v := l.VoxelAt(vx, vy, vz)
	if v.Activity == 0 {
		return 0, invariant("step chose a zero-activity voxel at (%d,%d,%d)", vx, vy, vz)
	}

	for {
		randActiv = l.rngFloat(0, v.Activity)
		if randActiv < v.Activity {
			break
		}
	}

	newSpin := v.ChooseNeighbor(randActiv)
	if err := l.flipVoxel(vx, vy, vz, newSpin); err != nil {
		return 0, err
	}

	u := l.rngFloat(0.01, 0.99)
	return -(Activ(l.GrainCount) - 1) * math.Log(u) / systemActiv, nil
}
