// Package grainsim implements a three-dimensional Potts-model "n-fold way"
// grain-growth simulator: a cubic lattice of voxels, each carrying an
// integer grain spin, evolved by rejection-free Monte-Carlo flips drawn
// in proportion to per-voxel flip activity.
package grainsim

// Spin identifies a grain. Spin 0 is reserved as "absent" within a
// voxel's neighbor table.
type Spin = uint32

// Activ holds an un-normalized flip probability mass.
type Activ = float64

// Coord holds one lattice dimension. Signed so that coord+1 never
// overflows while wrapping under periodic boundary conditions.
type Coord = int64

// NeighCount is the number of voxels in the 26-neighborhood of a cell.
const NeighCount = 26
