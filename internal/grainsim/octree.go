package grainsim

// ActivityOctree is a full octree over a cube whose side is a power of
// two at least as large as the lattice's true side length. Every
// internal node stores the sum of its eight children's activities; the
// root therefore always equals the total system activity. Nodes are
// allocated once at construction; only their scalar activities change as
// voxel activities shift, which keeps Delta and the sampling walk at
// O(log N) without any tree restructuring.
type ActivityOctree struct {
	rootSize int64
	maxLevel int
	powTable []int64
	activities []Activ

	// Navigation state for the current walk, reused across Delta/Get
	// calls the way the modeled system's single-cursor walker does —
	// each call resets it before use.
	currIndex                 int64
	currLevel, currSibling    int
	parentX, parentY, parentZ Coord
	offsetX, offsetY, offsetZ Coord
	nodeSize                  Coord
}

// NewActivityOctree builds an octree whose addressable cube has the
// given side length (normally the next power of two ≥ the lattice side)
// and the given height (levels, root inclusive).
func NewActivityOctree(sideLength Coord, height int) *ActivityOctree {
	t := &ActivityOctree{
		rootSize: int64(sideLength),
		maxLevel: height - 1,
	}
	t.powTable = make([]int64, height)
	var count int64
	p := int64(1)
	for i := 0; i < height; i++ {
		t.powTable[i] = p
		count += p
		p *= 8
	}
	t.activities = make([]Activ, count)
	t.resetPos()
	return t
}

func (t *ActivityOctree) resetPos() {
	t.parentX, t.parentY, t.parentZ = 0, 0, 0
	t.offsetX, t.offsetY, t.offsetZ = 0, 0, 0
	t.currLevel, t.currSibling, t.currIndex = 0, 0, 0
	t.nodeSize = Coord(t.rootSize)
}

func (t *ActivityOctree) currentActivity() Activ { return t.activities[t.currIndex] }

func (t *ActivityOctree) firstChild() bool {
	if t.currLevel == t.maxLevel {
		return false
	}
	if t.currLevel == 0 {
		t.currLevel++
		t.currIndex++
		t.nodeSize /= 2
		return true
	}

	t.parentX += t.offsetX
	t.parentY += t.offsetY
	t.parentZ += t.offsetZ
	t.offsetX, t.offsetY, t.offsetZ = 0, 0, 0
	t.nodeSize /= 2

	var rindex int64
	for level := 0; level < t.currLevel; level++ {
		rindex += t.powTable[level]
	}
	t.currIndex = (rindex + t.powTable[t.currLevel]) + (t.currIndex-rindex)*8

	t.currSibling = 0
	t.currLevel++
	return true
}

func (t *ActivityOctree) jumpToSibling(sibling int) {
	t.currIndex += int64(sibling - t.currSibling)
	t.currSibling = sibling

	if sibling >= 4 {
		t.offsetZ = t.nodeSize
		sibling -= 4
	} else {
		t.offsetZ = 0
	}
	if sibling >= 2 {
		t.offsetY = t.nodeSize
		sibling -= 2
	} else {
		t.offsetY = 0
	}
	if sibling >= 1 {
		t.offsetX = t.nodeSize
	} else {
		t.offsetX = 0
	}
}

func (t *ActivityOctree) nextOnLevel() bool {
	if t.currSibling >= 7 {
		return false
	}
	t.jumpToSibling(t.currSibling + 1)
	return true
}

func (t *ActivityOctree) jumpToPositionalSibling(x, y, z Coord) {
	x -= t.parentX
	y -= t.parentY
	z -= t.parentZ

	sibling := 0
	if z >= t.nodeSize {
		sibling += 4
	}
	if y >= t.nodeSize {
		sibling += 2
	}
	if x >= t.nodeSize {
		sibling += 1
	}
	t.jumpToSibling(sibling)
}

// Delta shifts the activity of the cell at (x, y, z) by dA, updating
// every ancestor node on the path from root to leaf.
func (t *ActivityOctree) Delta(x, y, z Coord, dA Activ) {
	if dA == 0 {
		return
	}
	t.resetPos()
	for {
		t.jumpToPositionalSibling(x, y, z)
		t.activities[t.currIndex] += dA
		if !t.firstChild() {
			break
		}
	}
}

// SystemActivity is the total activity stored at the root, i.e. the sum
// of every voxel's activity (subject to floating-point drift — see
// GetVoxelFromSumActivity).
func (t *ActivityOctree) SystemActivity() Activ {
	return t.activities[0]
}

// GetVoxelFromSumActivity walks down from the root, at each level
// subtracting sibling activities from randActiv until it finds the
// octant containing the draw, then — because the padded cube may be
// larger than the true lattice — linearly scans the lattice cells
// covered by the resulting leaf (in x-major, y, z order) to find the
// exact voxel whose activity absorbs the remaining draw.
func (t *ActivityOctree) GetVoxelFromSumActivity(randActiv Activ, voxels []Voxel, trueSideLength Coord) (Coord, Coord, Coord, error) {
	t.resetPos()
	for {
		for t.currentActivity() < randActiv {
			randActiv -= t.currentActivity()
			if !t.nextOnLevel() {
				return 0, 0, 0, invariant("octree walk exhausted siblings without locating a cell")
			}
		}
		if !t.firstChild() {
			break
		}
	}

	nodeSize := t.nodeSize
	zLimit := t.parentZ + t.offsetZ + nodeSize
	if zLimit > trueSideLength {
		zLimit = trueSideLength
	}
	yLimit := t.parentY + t.offsetY + nodeSize
	if yLimit > trueSideLength {
		yLimit = trueSideLength
	}
	xLimit := t.parentX + t.offsetX + nodeSize
	if xLimit > trueSideLength {
		xLimit = trueSideLength
	}

	for z := t.parentZ + t.offsetZ; z < zLimit; z++ {
		for y := t.parentY + t.offsetY; y < yLimit; y++ {
			for x := t.parentX + t.offsetX; x < xLimit; x++ {
				vindex := x + (y * trueSideLength) + (z * trueSideLength * trueSideLength)
				if voxels[vindex].Activity >= randActiv {
					return x, y, z, nil
				}
				randActiv -= voxels[vindex].Activity
			}
		}
	}
	return 0, 0, 0, invariant("octree leaf walk exhausted cells without locating a sink")
}
