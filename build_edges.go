package xodr2net

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// buildEdges creates up to two directed edges (one per driving side) for every
// lane section of every outer road. Section boundaries inside a road become
// internal nodes named <road>.<s>
func buildEdges(net *Network, outer []*Road, parser *Parser, policy laneTypePolicy, diag *diagnostics) {
	for _, road := range outer {
		if len(road.geom) < 2 {
			diag.Warnf("ignoring road '%s' without geometry", road.id)
			continue
		}
		// a road looping back onto its own node needs an intermediate node,
		// otherwise its two edges collapse
		if road.from == road.to && len(road.sections) == 1 {
			second := road.sections[0].buildLaneSection(road.length / 2)
			setStraightConnections(second)
			road.sections = append(road.sections, second)
			diag.Warnf("splitting self-looping road '%s' at its middle", road.id)
		}
		if parser.minWidth > 0 && !parser.ignoreWidths {
			splitMinWidths(road, policy, parser.minWidth, parser.minWidthSpacing)
		}
		for _, sec := range road.sections {
			sec.buildLaneMapping(policy)
		}
		buildRoadEdges(net, road, parser, policy, diag)
	}
}

func buildRoadEdges(net *Network, road *Road, parser *Parser, policy laneTypePolicy, diag *diagnostics) {
	length2D := planar.Length(road.geom)
	cF := 1.0
	if length2D > 0 {
		cF = road.length / length2D
	}

	sB := 0.0
	sFrom := road.from
	prevRightID := ""
	prevLeftID := ""
	builtLanes := false
	var prevSec *laneSection

	for j, sec := range road.sections {
		lastSection := j+1 == len(road.sections)
		nextS := road.length
		sTo := road.to
		sE := length2D
		if !lastSection {
			nextS = road.sections[j+1].s
			node := net.getOrBuildNode(fmt.Sprintf("%s.%.2f", road.id, nextS), pointAtDistance(road.geom, nextS))
			sTo = node.ID
			sE = nextS / cF
		}

		geom := subLine(road.geom, sB, sE)
		elevation := elevationForLine(road, geom, sB)

		id := road.id
		if sFrom != road.from || sTo != road.to {
			id = fmt.Sprintf("%s.%.2f", id, sec.s)
		} else if len(road.sections) == 1 {
			id = id + ".0.00"
		}

		rightID := ""
		if sec.rightLaneCount > 0 {
			rightID = "-" + id
			edge := &NetworkEdge{
				ID:        rightID,
				from:      sFrom,
				to:        sTo,
				geom:      geom.Clone(),
				elevation: append([]float64(nil), elevation...),
				lanes:     buildEdgeLanes(sec, sec.right, parser, policy),
				priority:  road.getPriority(SIDE_RIGHT),
				typeLabel: sec.rightType,
				roadID:    road.id,
				sectionS:  sec.s,
				name:      road.name,
			}
			net.edges[edge.ID] = edge
			builtLanes = true
		}
		leftID := ""
		if sec.leftLaneCount > 0 {
			leftID = id
			reversed := geom.Clone()
			reversedElevation := append([]float64(nil), elevation...)
			for i, k := 0, len(reversed)-1; i < k; i, k = i+1, k-1 {
				reversed[i], reversed[k] = reversed[k], reversed[i]
				reversedElevation[i], reversedElevation[k] = reversedElevation[k], reversedElevation[i]
			}
			edge := &NetworkEdge{
				ID:        leftID,
				from:      sTo,
				to:        sFrom,
				geom:      reversed,
				elevation: reversedElevation,
				lanes:     buildEdgeLanes(sec, sec.left, parser, policy),
				priority:  road.getPriority(SIDE_LEFT),
				typeLabel: sec.leftType,
				roadID:    road.id,
				sectionS:  sec.s,
				name:      road.name,
			}
			net.edges[edge.ID] = edge
			builtLanes = true
		}

		if prevSec != nil {
			if prevRightID != "" && rightID != "" {
				for fromIdx, toIdx := range sec.innerConnections(SIDE_RIGHT, prevSec) {
					net.connections = append(net.connections, EdgeConnection{
						FromEdge: prevRightID,
						ToEdge:   rightID,
						FromLane: fromIdx,
						ToLane:   toIdx,
					})
				}
			}
			if prevLeftID != "" && leftID != "" {
				for fromIdx, toIdx := range sec.innerConnections(SIDE_LEFT, prevSec) {
					net.connections = append(net.connections, EdgeConnection{
						FromEdge: leftID,
						ToEdge:   prevLeftID,
						FromLane: fromIdx,
						ToLane:   toIdx,
					})
				}
			}
		}

		sec.edgeID = id
		prevRightID = rightID
		prevLeftID = leftID
		prevSec = sec
		sB = sE
		sFrom = sTo
	}
	if !builtLanes {
		diag.Warnf("road '%s' has no lanes", road.id)
	}
}

// buildEdgeLanes fills the per-lane attribute slice in output index order
func buildEdgeLanes(sec *laneSection, side []lane, parser *Parser, policy laneTypePolicy) []EdgeLane {
	count := 0
	for i := range side {
		if _, ok := sec.laneMap[side[i].id]; ok {
			count++
		}
	}
	lanes := make([]EdgeLane, count)
	for i := range side {
		idx, ok := sec.laneMap[side[i].id]
		if !ok {
			continue
		}
		lanes[idx] = laneAttributes(&side[i], parser, policy)
	}
	return lanes
}

// laneAttributes resolves the output attributes of a single lane. Vehicular
// lanes narrower than the minimum width are demoted to emergency access only
func laneAttributes(l *lane, parser *Parser, policy laneTypePolicy) EdgeLane {
	attrs := EdgeLane{
		Speed:       l.speed,
		Width:       policy.width(l.laneType),
		Permissions: policy.permissions(l.laneType),
	}
	if attrs.Speed == 0 {
		attrs.Speed = policy.speed(l.laneType)
	}
	if !parser.ignoreWidths && l.width > 0 {
		attrs.Width = l.width
	}
	if parser.minWidth > 0 && attrs.Width < parser.minWidth &&
		attrs.Permissions&PERMISSION_PASSENGER != 0 && attrs.Width < policy.width(l.laneType) {
		attrs.Permissions = PERMISSION_EMERGENCY | PERMISSION_AUTHORITY
	}
	return attrs
}

// elevationForLine interpolates the road's per-vertex elevation onto the
// vertices of a sub-line starting at running coordinate startDist
func elevationForLine(road *Road, sub orb.LineString, startDist float64) []float64 {
	result := make([]float64, len(sub))
	if len(road.elevation) == 0 || len(road.geom) < 2 {
		return result
	}
	dist := startDist
	for i := range sub {
		if i > 0 {
			dist += planar.Distance(sub[i-1], sub[i])
		}
		result[i] = elevationAtDistance(road.geom, road.elevation, dist)
	}
	return result
}

func elevationAtDistance(geom orb.LineString, elevation []float64, dist float64) float64 {
	if dist <= 0 {
		return elevation[0]
	}
	walked := 0.0
	for i := 1; i < len(geom); i++ {
		segment := planar.Distance(geom[i-1], geom[i])
		if walked+segment >= dist {
			fraction := 0.0
			if segment > 0 {
				fraction = (dist - walked) / segment
			}
			return (1-fraction)*elevation[i-1] + fraction*elevation[i]
		}
		walked += segment
	}
	return elevation[len(elevation)-1]
}
