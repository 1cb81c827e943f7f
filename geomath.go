package xodr2net

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

const (
	// positionEps is the tolerance below which two positions are considered equal
	positionEps = 0.1
	// numericalEps is the tolerance for pure floating point comparisons
	numericalEps = 0.001
)

// almostSamePoint reports whether two points coincide within positionEps
func almostSamePoint(p, q orb.Point) bool {
	return planar.Distance(p, q) < positionEps
}

// appendNoDouble appends a point to the line unless it duplicates the last one
func appendNoDouble(line orb.LineString, pt orb.Point) orb.LineString {
	if len(line) > 0 && almostSamePoint(line[len(line)-1], pt) {
		return line
	}
	return append(line, pt)
}

// rotateLine rotates every point of the line around the origin by given angle (radians). Returns new slice
func rotateLine(line orb.LineString, angle float64) orb.LineString {
	sin, cos := math.Sin(angle), math.Cos(angle)
	result := make(orb.LineString, len(line))
	for i, pt := range line {
		result[i] = orb.Point{pt[0]*cos - pt[1]*sin, pt[0]*sin + pt[1]*cos}
	}
	return result
}

// translateLine shifts every point of the line by (dx, dy). Returns new slice
func translateLine(line orb.LineString, dx, dy float64) orb.LineString {
	result := make(orb.LineString, len(line))
	for i, pt := range line {
		result[i] = orb.Point{pt[0] + dx, pt[1] + dy}
	}
	return result
}

// pointAtDistance returns the point reached after walking given distance along the line.
// Distances beyond the ends are clamped
func pointAtDistance(line orb.LineString, distance float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if distance <= 0 {
		return line[0]
	}
	walked := 0.0
	for i := 1; i < len(line); i++ {
		segment := planar.Distance(line[i-1], line[i])
		if walked+segment >= distance {
			fraction := 0.0
			if segment > 0 {
				fraction = (distance - walked) / segment
			}
			return orb.Point{
				(1-fraction)*line[i-1][0] + fraction*line[i][0],
				(1-fraction)*line[i-1][1] + fraction*line[i][1],
			}
		}
		walked += segment
	}
	return line[len(line)-1]
}

// rotationAtDistance returns the heading (radians) of the segment containing the given distance
func rotationAtDistance(line orb.LineString, distance float64) float64 {
	if len(line) < 2 {
		return 0
	}
	walked := 0.0
	for i := 1; i < len(line); i++ {
		segment := planar.Distance(line[i-1], line[i])
		if walked+segment >= distance || i == len(line)-1 {
			return math.Atan2(line[i][1]-line[i-1][1], line[i][0]-line[i-1][0])
		}
		walked += segment
	}
	return 0
}

// subLine extracts the part of the line between the two running distances.
// End points are interpolated so the result covers exactly [start, end]
func subLine(line orb.LineString, start, end float64) orb.LineString {
	if len(line) < 2 {
		return line.Clone()
	}
	total := planar.Length(line)
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if end <= start {
		pt := pointAtDistance(line, start)
		return orb.LineString{pt, pt}
	}
	result := make(orb.LineString, 0, len(line))
	result = append(result, pointAtDistance(line, start))
	walked := 0.0
	for i := 1; i < len(line)-1; i++ {
		walked += planar.Distance(line[i-1], line[i])
		if walked > start && walked < end {
			result = appendNoDouble(result, line[i])
		}
	}
	result = appendNoDouble(result, pointAtDistance(line, end))
	if len(result) < 2 {
		result = append(result, result[0])
	}
	return result
}

// indexOfClosest returns index of the line vertex closest to the given point
func indexOfClosest(line orb.LineString, pt orb.Point) int {
	best := 0
	bestDist := math.Inf(1)
	for i := range line {
		if d := planar.Distance(line[i], pt); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// insertAtClosest inserts the point into the segment it is closest to and returns the
// new line together with the insertion index
func insertAtClosest(line orb.LineString, pt orb.Point) (orb.LineString, int) {
	bestIdx := 1
	bestDist := math.Inf(1)
	for i := 1; i < len(line); i++ {
		d := distanceToSegment(pt, line[i-1], line[i])
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	result := make(orb.LineString, 0, len(line)+1)
	result = append(result, line[:bestIdx]...)
	result = append(result, pt)
	result = append(result, line[bestIdx:]...)
	return result, bestIdx
}

// distanceToSegment returns distance from point p to segment (a, b)
func distanceToSegment(p, a, b orb.Point) float64 {
	abX, abY := b[0]-a[0], b[1]-a[1]
	lenSq := abX*abX + abY*abY
	if lenSq == 0 {
		return planar.Distance(p, a)
	}
	t := ((p[0]-a[0])*abX + (p[1]-a[1])*abY) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return planar.Distance(p, orb.Point{a[0] + t*abX, a[1] + t*abY})
}

// Check if two segments intersects and returns intersections Point
// p1, p2 - first segment
// p3, p4 - second segment
// Note: Euclidean space
func intersect(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	// Calculate the coefficients of the linear equations
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	// Calculate the determinant
	det := a1*b2 - a2*b1
	if det == 0 {
		return orb.Point{}, fmt.Errorf("The lines are parallel")
	}

	// Calculate the intersection point
	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	return orb.Point{x, y}, nil
}

// shiftLine moves every vertex of the line sideways by its own offset (positive values
// shift to the left of the walking direction). Vertex count is preserved. Fails when the
// line is degenerate or when the offsets are too large for the local curvature so that
// no consistent shift direction exists
func shiftLine(line orb.LineString, offsets []float64) (orb.LineString, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("shift needs at least two points, got %d", len(line))
	}
	if len(offsets) != len(line) {
		return nil, fmt.Errorf("got %d offsets for %d points", len(offsets), len(line))
	}
	maxOffset := 0.0
	for _, off := range offsets {
		if math.Abs(off) > maxOffset {
			maxOffset = math.Abs(off)
		}
	}
	segments := make([][2]orb.Point, 0, len(line)-1)
	for i := 1; i < len(line); i++ {
		p1 := line[i-1]
		p2 := line[i]
		vec := [2]float64{p2[0] - p1[0], p2[1] - p1[1]}
		vecLen := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1])
		if vecLen == 0 {
			return nil, fmt.Errorf("zero length segment at index %d", i-1)
		}
		// Rotate the normalized vector by 90 degrees
		normal := [2]float64{-vec[1] / vecLen, vec[0] / vecLen}
		op1 := orb.Point{p1[0] + normal[0]*offsets[i-1], p1[1] + normal[1]*offsets[i-1]}
		op2 := orb.Point{p2[0] + normal[0]*offsets[i], p2[1] + normal[1]*offsets[i]}
		segments = append(segments, [2]orb.Point{op1, op2})
	}
	result := make(orb.LineString, 0, len(line))
	result = append(result, segments[0][0])
	for i := 1; i < len(segments); i++ {
		seg1 := segments[i-1]
		seg2 := segments[i]
		intersection, err := intersect(seg1[0], seg1[1], seg2[0], seg2[1])
		if err != nil {
			// Collinear neighbours, the offset segments share the vertex
			result = append(result, seg2[0])
			continue
		}
		result = append(result, intersection)
	}
	result = append(result, segments[len(segments)-1][1])
	for i := range result {
		if math.IsNaN(result[i][0]) || math.IsNaN(result[i][1]) || math.IsInf(result[i][0], 0) || math.IsInf(result[i][1], 0) {
			return nil, fmt.Errorf("shifted point %d is not finite", i)
		}
		if planar.Distance(result[i], line[i]) > 3*maxOffset+positionEps {
			return nil, fmt.Errorf("offset %f too large for local curvature near point %d", maxOffset, i)
		}
	}
	return result, nil
}

// shiftLineBy moves the whole line sideways by a constant distance
func shiftLineBy(line orb.LineString, distance float64) (orb.LineString, error) {
	offsets := make([]float64, len(line))
	for i := range offsets {
		offsets[i] = distance
	}
	return shiftLine(line, offsets)
}
