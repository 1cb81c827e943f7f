package xodr2net

import (
	"sort"
	"strings"
)

// laneSide distinguishes the two driving directions of a road
type laneSide uint16

const (
	SIDE_CENTER = laneSide(iota)
	SIDE_RIGHT
	SIDE_LEFT
)

// widthPoly is one cubic piece of a lane width profile, positioned at sOffset
// relative to the owning section
type widthPoly struct {
	polynomial
}

// speedEntry is a speed limit starting at sOffset relative to the owning section
type speedEntry struct {
	s     float64
	speed float64
}

// lane is a single lane record of a lane section
type lane struct {
	id          int
	laneType    string
	level       string
	predecessor int
	successor   int

	// speed is the limit valid at the section start, width the maximum
	// sampled width over the section
	speed float64
	width float64

	widths []widthPoly
	speeds []speedEntry
}

func newLane(id int) lane {
	return lane{
		id:          id,
		predecessor: unsetLane,
		successor:   unsetLane,
	}
}

func (l *lane) clone() lane {
	copied := *l
	copied.widths = append([]widthPoly(nil), l.widths...)
	copied.speeds = append([]speedEntry(nil), l.speeds...)
	return copied
}

// speedAt returns the limit recorded exactly at the given section offset, zero
// when none starts there
func (l *lane) speedAt(sectionOffset float64) float64 {
	for i := range l.speeds {
		if l.speeds[i].s == sectionOffset {
			return l.speeds[i].speed
		}
	}
	return 0
}

// widthAt evaluates the lane width profile at the given section offset
func (l *lane) widthAt(sectionOffset float64) float64 {
	if len(l.widths) == 0 {
		return 0
	}
	idx := 0
	for i := range l.widths {
		if l.widths[i].s > sectionOffset {
			break
		}
		idx = i
	}
	return l.widths[idx].computeAt(sectionOffset)
}

// laneSection is one longitudinal slice of a road with a fixed set of lanes
type laneSection struct {
	// s is the start of the section along the road, sOrig the start it had
	// before any splitting
	s     float64
	sOrig float64

	right  []lane
	left   []lane
	center []lane

	// laneMap translates input lane ids onto dense output indices, filled
	// by buildLaneMapping
	laneMap        map[int]int
	rightLaneCount int
	leftLaneCount  int
	rightType      string
	leftType       string

	// edgeID is the identifier of the graph edge built for this section
	edgeID string
}

func newLaneSection(s float64) *laneSection {
	return &laneSection{
		s:       s,
		sOrig:   s,
		laneMap: make(map[int]int),
	}
}

func (sec *laneSection) clone() *laneSection {
	copied := newLaneSection(sec.s)
	copied.sOrig = sec.sOrig
	copied.rightLaneCount = sec.rightLaneCount
	copied.leftLaneCount = sec.leftLaneCount
	copied.rightType = sec.rightType
	copied.leftType = sec.leftType
	copied.edgeID = sec.edgeID
	for k, v := range sec.laneMap {
		copied.laneMap[k] = v
	}
	for i := range sec.right {
		copied.right = append(copied.right, sec.right[i].clone())
	}
	for i := range sec.left {
		copied.left = append(copied.left, sec.left[i].clone())
	}
	for i := range sec.center {
		copied.center = append(copied.center, sec.center[i].clone())
	}
	return copied
}

func (sec *laneSection) lanesBySide(side laneSide) []lane {
	switch side {
	case SIDE_RIGHT:
		return sec.right
	case SIDE_LEFT:
		return sec.left
	}
	return sec.center
}

// buildLaneMapping assigns dense output indices to the lanes the policy admits.
// Right lanes are walked from the outermost one inwards (reverse document
// order), left lanes in document order, so that index 0 is always the
// outermost included lane of its side
func (sec *laneSection) buildLaneMapping(policy laneTypePolicy) {
	sec.laneMap = make(map[int]int)
	sec.rightLaneCount = 0
	sec.leftLaneCount = 0

	rightTypes := []string{}
	for i := len(sec.right) - 1; i >= 0; i-- {
		l := &sec.right[i]
		if !policy.includes(l.laneType) {
			continue
		}
		sec.laneMap[l.id] = sec.rightLaneCount
		sec.rightLaneCount++
		rightTypes = appendUniqueType(rightTypes, l.laneType)
	}
	sec.rightType = strings.Join(rightTypes, "|")

	leftTypes := []string{}
	for i := 0; i < len(sec.left); i++ {
		l := &sec.left[i]
		if !policy.includes(l.laneType) {
			continue
		}
		sec.laneMap[l.id] = sec.leftLaneCount
		sec.leftLaneCount++
		leftTypes = appendUniqueType(leftTypes, l.laneType)
	}
	sec.leftType = strings.Join(leftTypes, "|")
}

func appendUniqueType(types []string, laneType string) []string {
	for _, t := range types {
		if t == laneType {
			return types
		}
	}
	return append(types, laneType)
}

// innerConnections maps output lane indices of the previous section onto
// output lane indices of this one, following the lane predecessor references.
// On the left side the driving direction is reversed, so the mapping is
// flipped there
func (sec *laneSection) innerConnections(side laneSide, prev *laneSection) map[int]int {
	result := make(map[int]int)
	for _, l := range sec.lanesBySide(side) {
		if l.predecessor == unsetLane {
			continue
		}
		fromIdx, okFrom := prev.laneMap[l.predecessor]
		toIdx, okTo := sec.laneMap[l.id]
		if !okFrom || !okTo {
			continue
		}
		if side == SIDE_LEFT {
			result[toIdx] = fromIdx
			continue
		}
		result[fromIdx] = toIdx
	}
	return result
}

// buildLaneSection splits off a copy of the section starting at the given road
// position. Lanes of the copy take the speed limit recorded exactly at the
// split offset, or zero when none starts there
func (sec *laneSection) buildLaneSection(startPos float64) *laneSection {
	copied := sec.clone()
	copied.s += startPos
	for i := range copied.right {
		copied.right[i].speed = copied.right[i].speedAt(startPos)
	}
	for i := range copied.left {
		copied.left[i].speed = copied.left[i].speedAt(startPos)
	}
	return copied
}

// buildSpeedChanges splits the section at every offset where a lane speed limit
// changes. The returned slice starts with the section itself. Speeds are
// propagated forward so a part without its own record keeps the previous limit;
// the first part falls back to the type default where nothing is recorded
func (sec *laneSection) buildSpeedChanges(policy laneTypePolicy) []*laneSection {
	positions := map[float64]struct{}{}
	collect := func(lanes []lane) {
		for i := range lanes {
			for _, entry := range lanes[i].speeds {
				if entry.s > 0 {
					positions[entry.s] = struct{}{}
				}
			}
		}
	}
	collect(sec.right)
	collect(sec.left)

	offsets := make([]float64, 0, len(positions))
	for pos := range positions {
		offsets = append(offsets, pos)
	}
	sort.Float64s(offsets)

	result := []*laneSection{sec}
	for _, offset := range offsets {
		result = append(result, sec.buildLaneSection(offset))
	}

	// lanes of the first part keep a recorded limit at offset zero or the
	// type default
	for _, sides := range [][]lane{sec.right, sec.left} {
		for i := range sides {
			if sides[i].speed == 0 {
				sides[i].speed = sides[i].speedAt(0)
			}
			if sides[i].speed == 0 {
				sides[i].speed = policy.speed(sides[i].laneType)
			}
		}
	}

	// propagate limits forward into parts without their own record
	for idx := 1; idx < len(result); idx++ {
		prev := result[idx-1]
		curr := result[idx]
		for i := range curr.right {
			if curr.right[i].speed == 0 {
				curr.right[i].speed = prev.right[i].speed
			}
		}
		for i := range curr.left {
			if curr.left[i].speed == 0 {
				curr.left[i].speed = prev.left[i].speed
			}
		}
	}
	return result
}
