package xodr2net

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// computeShapes discretises the reference line of every road, attaches the
// elevation profile and applies the lateral lane offsets. Roads whose shape
// cannot be shifted keep the unshifted reference line
func computeShapes(roads []*Road, resolution float64, diag *diagnostics) {
	for _, road := range roads {
		road.geom = buildReferenceLine(road, resolution, diag)
		road.elevation = buildElevation(road)
		applyLaneOffsets(road, diag)
	}
}

// buildReferenceLine concatenates the discretised geometry primitives of the road
func buildReferenceLine(road *Road, resolution float64, diag *diagnostics) orb.LineString {
	geom := orb.LineString{}
	prevKind := GEOMETRY_UNKNOWN
	var last orb.Point
	for i := range road.geometries {
		prim := &road.geometries[i]
		var piece orb.LineString
		switch prim.kind {
		case GEOMETRY_LINE:
			piece = geomFromLine(road, prim, resolution)
		case GEOMETRY_SPIRAL:
			piece = geomFromSpiral(road, prim, resolution, diag)
		case GEOMETRY_ARC:
			piece = geomFromArc(prim, resolution)
		case GEOMETRY_POLY3:
			piece = geomFromPoly(prim, resolution)
		case GEOMETRY_PARAM_POLY3:
			piece = geomFromParamPoly(prim, resolution)
		default:
			continue
		}
		if len(piece) == 0 {
			continue
		}
		if len(geom) > 0 {
			if planar.Distance(geom[len(geom)-1], piece[0]) > positionEps {
				diag.Warnf("mismatched geometry for road '%s' between segments %d and %d", road.id, i-1, i)
			}
			// a straight predecessor contributes only its start, its end is
			// restated by the next primitive
			if prevKind == GEOMETRY_LINE {
				geom = geom[:len(geom)-1]
			}
		}
		for _, pt := range piece {
			geom = appendNoDouble(geom, pt)
		}
		last = piece[len(piece)-1]
		prevKind = prim.kind
	}
	// restore the end vertex when deduplication collapsed two distinct points;
	// a genuinely single-point shape stays short and the road is skipped later
	if len(geom) == 1 && !almostSamePoint(geom[0], last) {
		geom = append(geom, last)
	}
	return geom
}

func geomFromLine(road *Road, prim *geometryPrimitive, resolution float64) orb.LineString {
	sin, cos := math.Sincos(prim.hdg)
	end := orb.Point{prim.x + cos*prim.length, prim.y + sin*prim.length}
	if !road.hasNonLinearElevation() {
		return orb.LineString{{prim.x, prim.y}, end}
	}
	// densify straight pieces so the elevation profile has vertices to hang on
	geom := orb.LineString{}
	for dist := 0.0; dist < prim.length; dist += resolution {
		geom = append(geom, orb.Point{prim.x + cos*dist, prim.y + sin*dist})
	}
	return append(geom, end)
}

func geomFromSpiral(road *Road, prim *geometryPrimitive, resolution float64, diag *diagnostics) orb.LineString {
	curvStart := prim.params[0]
	curvEnd := prim.params[1]
	if prim.length <= 0 || curvEnd == curvStart {
		diag.Warnf("skipping malformed spiral in road '%s' (length %f, constant curvature %f)", road.id, prim.length, curvStart)
		return orb.LineString{{prim.x, prim.y}}
	}
	curvDot := (curvEnd - curvStart) / prim.length
	sStart := curvStart / curvDot
	sEnd := curvEnd / curvDot

	geom := orb.LineString{}
	for s := sStart; s <= sEnd; s += resolution {
		x, y, _ := odrSpiral(s, curvDot)
		geom = append(geom, orb.Point{x, y})
	}
	xEnd, yEnd, _ := odrSpiral(sEnd, curvDot)
	geom = append(geom, orb.Point{xEnd, yEnd})

	// move the sampled part so it starts at the origin, align the tangent with
	// the start heading and place it at the primitive's start pose
	_, _, tStart := odrSpiral(sStart, curvDot)
	geom = translateLine(geom, -geom[0][0], -geom[0][1])
	geom = rotateLine(geom, prim.hdg-tStart)
	return translateLine(geom, prim.x, prim.y)
}

func geomFromArc(prim *geometryPrimitive, resolution float64) orb.LineString {
	curvature := prim.params[0]
	radius := 1.0 / math.Abs(curvature)
	// the center sits perpendicular to the heading, on the left for positive
	// curvature
	side := 1.0
	if curvature < 0 {
		side = -1.0
	}
	sinH, cosH := math.Sincos(prim.hdg)
	centerX := prim.x - side*sinH*radius
	centerY := prim.y + side*cosH*radius
	startAngle := math.Atan2(prim.y-centerY, prim.x-centerX)

	geom := orb.LineString{}
	for dist := 0.0; dist < prim.length; dist += resolution {
		angle := startAngle + side*dist/radius
		geom = append(geom, orb.Point{centerX + math.Cos(angle)*radius, centerY + math.Sin(angle)*radius})
	}
	endAngle := startAngle + side*prim.length/radius
	return append(geom, orb.Point{centerX + math.Cos(endAngle)*radius, centerY + math.Sin(endAngle)*radius})
}

func geomFromPoly(prim *geometryPrimitive, resolution float64) orb.LineString {
	a, b, c, d := prim.params[0], prim.params[1], prim.params[2], prim.params[3]
	geom := orb.LineString{}
	for off := 0.0; off < prim.length+resolution; off += resolution {
		geom = append(geom, orb.Point{off, a + b*off + c*off*off + d*off*off*off})
	}
	geom = rotateLine(geom, prim.hdg)
	return translateLine(geom, prim.x, prim.y)
}

func geomFromParamPoly(prim *geometryPrimitive, resolution float64) orb.LineString {
	aU, bU, cU, dU := prim.params[0], prim.params[1], prim.params[2], prim.params[3]
	aV, bV, cV, dV := prim.params[4], prim.params[5], prim.params[6], prim.params[7]
	pMax := prim.params[8]
	if pMax <= 0 {
		pMax = prim.length
	}
	pStep := pMax / math.Ceil(prim.length/resolution)
	geom := orb.LineString{}
	for p := 0.0; p <= pMax+pStep; p += pStep {
		q := math.Min(p, pMax)
		u := aU + bU*q + cU*q*q + dU*q*q*q
		v := aV + bV*q + cV*q*q + dV*q*q*q
		geom = append(geom, orb.Point{u, v})
	}
	geom = rotateLine(geom, prim.hdg)
	return translateLine(geom, prim.x, prim.y)
}

// buildElevation evaluates the elevation profile at every vertex of the
// discretised reference line. The cumulative planar distance stands in for the
// road running coordinate
func buildElevation(road *Road) []float64 {
	elevation := make([]float64, len(road.geom))
	if len(road.elevations) == 0 {
		return elevation
	}
	pos := 0.0
	idx := 0
	for i := range road.geom {
		if i > 0 {
			pos += planar.Distance(road.geom[i-1], road.geom[i])
		}
		for idx+1 < len(road.elevations) && road.elevations[idx+1].s <= pos {
			idx++
		}
		elevation[i] = road.elevations[idx].computeAt(pos)
	}
	return elevation
}

// applyLaneOffsets shifts the reference line sideways following the road's
// lateral offset profile. Extra vertices are inserted at the profile
// boundaries so the shift tracks the profile faithfully
func applyLaneOffsets(road *Road, diag *diagnostics) {
	if len(road.offsets) == 0 || len(road.geom) < 2 {
		return
	}
	allZero := true
	for _, off := range road.offsets {
		if off.a != 0 || off.b != 0 || off.c != 0 || off.d != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return
	}
	for _, off := range road.offsets {
		pt := pointAtDistance(road.geom, off.s)
		closest := indexOfClosest(road.geom, pt)
		if planar.Distance(road.geom[closest], pt) <= positionEps {
			continue
		}
		geom, idx := insertAtClosest(road.geom, pt)
		road.geom = geom
		road.elevation = insertElevationAt(road.elevation, idx)
	}
	offsets := make([]float64, len(road.geom))
	pos := 0.0
	idx := 0
	for i := range road.geom {
		if i > 0 {
			pos += planar.Distance(road.geom[i-1], road.geom[i])
		}
		for idx+1 < len(road.offsets) && road.offsets[idx+1].s <= pos {
			idx++
		}
		// positive profile values move the line to the left of the driving
		// direction
		offsets[i] = road.offsets[idx].computeAt(pos)
	}
	shifted, err := shiftLine(road.geom, offsets)
	if err != nil {
		diag.Warnf("could not compute shape of road '%s': %v", road.id, err)
		return
	}
	road.geom = shifted
}

// insertElevationAt duplicates the neighbouring elevation into a newly inserted
// vertex slot, interpolating between the vertices around it
func insertElevationAt(elevation []float64, idx int) []float64 {
	if len(elevation) == 0 {
		return elevation
	}
	value := elevation[idx-1]
	if idx < len(elevation) {
		value = (elevation[idx-1] + elevation[idx]) / 2
	}
	result := make([]float64, 0, len(elevation)+1)
	result = append(result, elevation[:idx]...)
	result = append(result, value)
	result = append(result, elevation[idx:]...)
	return result
}
