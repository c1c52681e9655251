package grainsim

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadLattice autodetects a lattice file's format by extension and loads
// it: ".vtk" is the legacy rectilinear-grid format, anything else is
// treated as the flat format. seed feeds the lattice's RNG; init runs
// Init on the returned lattice when true.
func LoadLattice(path string, seed int64, init bool) (*Lattice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, badInput("opening lattice file %q: %v", path, err)
	}
	defer f.Close()

	var l *Lattice
	if strings.HasSuffix(path, ".vtk") {
		l, err = LoadVTK(f, seed)
	} else {
		l, err = LoadFlat(f, seed)
	}
	if err != nil {
		return nil, err
	}

	if init {
		if err := l.Init(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadVTK parses the legacy rectilinear-grid format: a "DIMENSIONS L+1
// L+1 L+1" header line, a "CELL_DATA L^3" header, then L^3 integer
// spins, one per line, in x-major order.
func LoadVTK(r io.Reader, seed int64) (*Lattice, error) {
	scanner := bufio.NewScanner(r)

	const (
		stateSeekDimensions = 0
		stateSeekCellData   = 1
		stateReadSpins      = 2
	)
	state := stateSeekDimensions

	var l *Lattice
	var index int

	for scanner.Scan() {
		line := scanner.Text()
		switch state {
		case stateSeekDimensions:
			if strings.HasPrefix(line, "DIMENSIONS") {
				fields := strings.Fields(line)
				if len(fields) < 2 {
					return nil, badInput("malformed DIMENSIONS line %q", line)
				}
				dimPlusOne, err := strconv.Atoi(fields[1])
				if err != nil {
					return nil, badInput("parsing DIMENSIONS %q: %v", line, err)
				}
				l = NewLattice(Coord(dimPlusOne-1), seed)
				state = stateSeekCellData
			}
		case stateSeekCellData:
			if strings.HasPrefix(line, "CELL_DATA") {
				state = stateReadSpins
			}
		case stateReadSpins:
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || !isDigit(trimmed[0]) {
				continue
			}
			spin, err := strconv.ParseUint(trimmed, 10, 32)
			if err != nil {
				return nil, badInput("parsing spin %q: %v", trimmed, err)
			}
			if index >= len(l.Voxels) {
				return nil, badInput("VTK file has more CELL_DATA entries than L^3")
			}
			l.Voxels[index].Spin = Spin(spin)
			index++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, badInput("reading VTK file: %v", err)
	}
	if l == nil {
		return nil, badInput("VTK file missing DIMENSIONS header")
	}
	return l, nil
}

// LoadFlat parses the flat format: a single integer L, two skipped
// header lines, then L^3 integer spins one per line.
func LoadFlat(r io.Reader, seed int64) (*Lattice, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() {
		return nil, badInput("flat lattice file is empty")
	}
	dim, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, badInput("parsing flat lattice side length: %v", err)
	}
	l := NewLattice(Coord(dim), seed)

	for i := 0; i < 2 && scanner.Scan(); i++ {
		// skip header lines
	}

	index := 0
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || !isDigit(trimmed[0]) {
			break
		}
		spin, err := strconv.ParseUint(trimmed, 10, 32)
		if err != nil {
			return nil, badInput("parsing spin %q: %v", trimmed, err)
		}
		if index >= len(l.Voxels) {
			return nil, badInput("flat lattice file has more spins than L^3")
		}
		l.Voxels[index].Spin = Spin(spin)
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, badInput("reading flat lattice file: %v", err)
	}
	return l, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// SaveVTK writes l in the legacy rectilinear-grid format to path.
func SaveVTK(path string, l *Lattice) error {
	f, err := os.Create(path)
	if err != nil {
		return ioFailure("creating VTK file %q: %v", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	n := l.SideLength

	fmt.Fprint(w, "# vtk DataFile Version 2.0\n data set from grainsim\nASCII\nDATASET RECTILINEAR_GRID\n")
	fmt.Fprintf(w, "DIMENSIONS %d %d %d \n", n+1, n+1, n+1)

	for _, axis := range []string{"X", "Y", "Z"} {
		fmt.Fprintf(w, "%s_COORDINATES %d Float \n", axis, n+1)
		for i := Coord(0); i < n+1; i++ {
			fmt.Fprintf(w, "%d\n", i)
		}
	}

	fmt.Fprintf(w, "CELL_DATA %d \n", n*n*n)
	fmt.Fprint(w, "SCALARS GrainIDs int  1\nLOOKUP_TABLE default\n")
	for i := range l.Voxels {
		fmt.Fprintf(w, "%d\n", l.Voxels[i].Spin)
	}

	if err := w.Flush(); err != nil {
		return ioFailure("writing VTK file %q: %v", path, err)
	}
	return nil
}

// ScaleLattice builds a new lattice whose side is l.SideLength *
// multiplier, mapping each new cell's spin from the nearest source cell
// by integer-truncated index division (matches the modeled system's own
// lattice-scaling helper).
func ScaleLattice(l *Lattice, multiplier float64, seed int64) (*Lattice, error) {
	if multiplier <= 0 {
		return nil, badInput("scale multiplier must be > 0, got %v", multiplier)
	}
	Infof("scaling lattice")

	newSide := Coord(float64(l.SideLength) * multiplier)
	out := NewLattice(newSide, seed)

	for z := Coord(0); z < newSide; z++ {
		for y := Coord(0); y < newSide; y++ {
			for x := Coord(0); x < newSide; x++ {
				sx := Coord(float64(x) / multiplier)
				sy := Coord(float64(y) / multiplier)
				sz := Coord(float64(z) / multiplier)
				out.Voxels[out.IndexAt(x, y, z)].Spin = l.Voxels[l.IndexAt(sx, sy, sz)].Spin
			}
		}
	}

	return out, nil
}
