package grainsim

import (
	"bufio"
	"fmt"
	"math"
	"os"
)

// Analyzer computes and reports per-grain volumes, boundary curvatures,
// and boundary surface areas from a lattice snapshot. It is an external
// collaborator of the core: nothing in lattice.go, boundary.go, or
// octree.go depends on it.
type Analyzer struct {
	cube *Lattice

	maxGrains   Spin
	matrixDim   int
	outieMatrix []int
	volVector   []int
}

// Load captures a snapshot of cube and (re)builds the outie matrix used
// for curvature and volume reporting.
func (a *Analyzer) Load(cube *Lattice) {
	a.cube = cube
	a.maxGrains = a.calculateMaxGrains()
	a.matrixDim = int(a.maxGrains) + 1
	a.outieMatrix = make([]int, a.matrixDim*a.matrixDim)
	a.volVector = make([]int, a.matrixDim)
	a.generateMatrices()
}

func (a *Analyzer) calculateMaxGrains() Spin {
	var max Spin
	for z := Coord(0); z < a.cube.SideLength; z++ {
		for y := Coord(0); y < a.cube.SideLength; y++ {
			for x := Coord(0); x < a.cube.SideLength; x++ {
				if s := a.cube.VoxelAt(x, y, z).Spin; s > max {
					max = s
				}
			}
		}
	}
	return max
}

// checkEdge inspects the four voxels straddling one of a cell's three
// back/bottom/left edges: if exactly three of the four share a spin and
// the fourth differs, that differing grain is "outie" along this edge
// relative to the other three, so its tally against the majority grain
// is incremented.
func (a *Analyzer) checkEdge(rx, ry, rz Coord, offsets [4][3]Coord) {
	var id [4]Spin
	for i, o := range offsets {
		id[i] = a.cube.VoxelAt(rx+o[0], ry+o[1], rz+o[2]).Spin
	}

	switch {
	case id[0] != id[1] && id[1] == id[2] && id[1] == id[3]:
		a.outieMatrix[int(id[0])*a.matrixDim+int(id[1])]++
	case id[1] != id[0] && id[0] == id[2] && id[0] == id[3]:
		a.outieMatrix[int(id[1])*a.matrixDim+int(id[0])]++
	case id[2] != id[0] && id[0] == id[1] && id[0] == id[3]:
		a.outieMatrix[int(id[2])*a.matrixDim+int(id[0])]++
	case id[3] != id[0] && id[0] == id[1] && id[0] == id[2]:
		a.outieMatrix[int(id[3])*a.matrixDim+int(id[0])]++
	}
}

var (
	backBottomEdge = [4][3]Coord{{0, 0, -1}, {0, 0, 0}, {0, -1, 0}, {0, -1, -1}}
	backLeftEdge   = [4][3]Coord{{-1, 0, 0}, {0, 0, 0}, {0, 0, -1}, {-1, 0, -1}}
	topLeftEdge    = [4][3]Coord{{-1, 1, 0}, {0, 1, 0}, {0, 0, 0}, {-1, 0, 0}}
)

func (a *Analyzer) generateMatrices() {
	for i := range a.outieMatrix {
		a.outieMatrix[i] = 0
	}
	for i := range a.volVector {
		a.volVector[i] = 0
	}

	for z := Coord(0); z < a.cube.SideLength; z++ {
		for y := Coord(0); y < a.cube.SideLength; y++ {
			for x := Coord(0); x < a.cube.SideLength; x++ {
				a.checkEdge(x, y, z, backBottomEdge)
				a.checkEdge(x, y, z, backLeftEdge)
				a.checkEdge(x, y, z, topLeftEdge)

				a.volVector[int(a.cube.VoxelAt(x, y, z).Spin)]++
			}
		}
	}
}

// Curvature reports the (unchecked — x and y are assumed adjacent)
// signed curvature between grains x and y, from the accumulated outie
// tallies.
func (a *Analyzer) Curvature(x, y Spin) float64 {
	return (math.Pi / 4.0) * float64(a.outieMatrix[int(x)*a.matrixDim+int(y)]-a.outieMatrix[int(y)*a.matrixDim+int(x)])
}

// SaveToFile writes the VOLUMES / CURVATURES / SURFACE_AREAS report
// sections to path.
func (a *Analyzer) SaveToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return ioFailure("creating analysis file %q: %v", path, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprint(w, "VOLUMES\n")
	for i, v := range a.volVector {
		if v == 0 {
			continue
		}
		fmt.Fprintf(w, "%d %d\n", i, v)
	}

	fmt.Fprint(w, "CURVATURES\n")
	a.cube.Boundary.All(func(b *Boundary) {
		if b.Area() == 0 {
			return
		}
		fmt.Fprintf(w, "%d %d %v\n", b.ASpin, b.BSpin, a.Curvature(b.ASpin, b.BSpin))
		fmt.Fprintf(w, "%d %d %v\n", b.BSpin, b.ASpin, a.Curvature(b.BSpin, b.ASpin))
	})

	fmt.Fprint(w, "SURFACE_AREAS\n")
	a.cube.Boundary.All(func(b *Boundary) {
		if b.Area() == 0 {
			return
		}
		fmt.Fprintf(w, "%d %d %d\n", b.ASpin, b.BSpin, b.Area())
		fmt.Fprintf(w, "%d %d %d\n", b.BSpin, b.ASpin, b.Area())
	})

	if err := w.Flush(); err != nil {
		return ioFailure("writing analysis file %q: %v", path, err)
	}
	return nil
}
