package xodr2net

import (
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// setRoadConnections derives lane-to-lane connections from the road links.
// Connections are recorded in travel direction, so predecessor links get their
// endpoints swapped
func setRoadConnections(all []*Road, roads map[string]*Road, policy laneTypePolicy, diag *diagnostics) error {
	for _, road := range all {
		if len(road.sections) == 0 {
			continue
		}
		for _, link := range road.links {
			if link.elementType != ELEMENT_ROAD {
				continue
			}
			if _, ok := roads[link.elementID]; !ok {
				return errors.Errorf("Road '%s' links unknown road '%s'", road.id, link.elementID)
			}
			sec := road.sections[0]
			if link.linkType == LINK_SUCCESSOR {
				sec = road.sections[len(road.sections)-1]
			}
			for _, sides := range []struct {
				lanes []lane
				left  bool
			}{{sec.right, false}, {sec.left, true}} {
				for i := range sides.lanes {
					l := &sides.lanes[i]
					if _, mapped := sec.laneMap[l.id]; !mapped && !policy.importAll {
						continue
					}
					target := l.predecessor
					if link.linkType == LINK_SUCCESSOR {
						target = l.successor
					}
					var c connection
					if sides.left {
						c = connection{
							fromRoad: link.elementID,
							fromLane: target,
							fromCP:   link.contactPoint,
							toRoad:   road.id,
							toLane:   l.id,
							toCP:     CONTACT_POINT_END,
						}
					} else {
						c = connection{
							fromRoad: road.id,
							fromLane: l.id,
							fromCP:   CONTACT_POINT_END,
							toRoad:   link.elementID,
							toLane:   target,
							toCP:     link.contactPoint,
						}
					}
					if link.linkType != LINK_SUCCESSOR {
						c.fromRoad, c.toRoad = c.toRoad, c.fromRoad
						c.fromLane, c.toLane = c.toLane, c.fromLane
						c.fromCP, c.toCP = c.toCP, c.fromCP
					}
					c.origRoad = ""
					c.origLane = unsetLane
					road.addConnection(&c)
				}
			}
		}
	}
	return nil
}

// resolveConnections flattens every connection passing through junction
// internal roads into direct connections between outer roads
func resolveConnections(all []*Road, roads map[string]*Road, parser *Parser, diag *diagnostics) []*connection {
	resolved := []*connection{}
	for _, road := range all {
		for _, c := range road.orderedConnections() {
			dest, ok := roads[c.toRoad]
			if !ok {
				diag.Warnf("connection of road '%s' references unknown road '%s'", c.fromRoad, c.toRoad)
				continue
			}
			// hops between internal roads are only reached through the walk,
			// so the walk starts at connections coming from outside
			if from, ok := roads[c.fromRoad]; !ok || from.isInner() {
				continue
			}
			if dest.isInner() {
				seen := map[connectionKey]struct{}{}
				buildConnectionsToOuter(c, roads, parser, &resolved, seen, diag)
				continue
			}
			resolved = append(resolved, c)
		}
	}
	return resolved
}

// buildConnectionsToOuter follows the connection into the junction and hops
// from internal road to internal road until an outer road is reached, emitting
// a flattened connection there. Revisiting a connection means the junction
// wiring is circular; the walk stops with a diagnostic then
func buildConnectionsToOuter(c *connection, roads map[string]*Road, parser *Parser, into *[]*connection, seen map[connectionKey]struct{}, diag *diagnostics) {
	if _, visited := seen[c.key()]; visited {
		diag.Warnf("circular connection in junction involving roads '%s' and '%s' (loop size %d)", c.fromRoad, c.toRoad, len(seen))
		return
	}
	seen[c.key()] = struct{}{}
	dest := roads[c.toRoad]
	for _, destCon := range dest.orderedConnections() {
		if destCon.fromRoad != dest.id {
			continue
		}
		next, ok := roads[destCon.toRoad]
		if !ok {
			diag.Warnf("connection of road '%s' references unknown road '%s'", destCon.fromRoad, destCon.toRoad)
			continue
		}
		if !c.all && !laneSectionsConnected(dest, c.toLane, destCon.fromLane) {
			continue
		}
		cn := *destCon
		cn.fromRoad = c.fromRoad
		cn.fromLane = c.fromLane
		cn.fromCP = c.fromCP
		cn.all = c.all
		if next.isInner() {
			if parser.internalShapes {
				cn.shape = append(dest.geom.Clone(), c.shape...)
			}
			buildConnectionsToOuter(&cn, roads, parser, into, seen, diag)
			continue
		}
		cn.origRoad = c.toRoad
		cn.origLane = c.toLane
		if parser.internalShapes {
			cn.shape = internalShape(dest, c, diag)
		}
		copied := cn
		*into = append(*into, &copied)
	}
}

// laneSectionsConnected checks whether the given lane at the road's start is
// continued by the given lane at its end, following the lane successor chain
// through all sections
func laneSectionsConnected(road *Road, in, out int) bool {
	if len(road.sections) <= 1 {
		return in == out
	}
	current := in
	for i := 0; i < len(road.sections)-1; i++ {
		sec := road.sections[i]
		side := sec.right
		if current > 0 {
			side = sec.left
		}
		next := unsetLane
		for k := range side {
			if side[k].id == current {
				next = side[k].successor
				break
			}
		}
		if next == unsetLane {
			return false
		}
		current = next
	}
	return current == out
}

// internalShape shifts the internal road's reference line onto the centerline
// of the lane the connection uses. The shape is reported in travel direction
func internalShape(dest *Road, c *connection, diag *diagnostics) orb.LineString {
	if len(dest.geom) < 2 || len(dest.sections) == 0 {
		return dest.geom.Clone()
	}
	sec := dest.sections[0]
	lanesDir := sec.right
	offsetFactor := -1.0
	referenceLane := unsetLane
	if c.toCP == CONTACT_POINT_END {
		lanesDir = sec.left
		offsetFactor = 1.0
		for i := range sec.left {
			if sec.left[i].successor == c.fromLane {
				referenceLane = sec.left[i].id
			}
		}
	} else {
		for i := range sec.right {
			if sec.right[i].predecessor == c.fromLane {
				referenceLane = sec.right[i].id
			}
		}
	}
	if referenceLane == unsetLane {
		referenceLane = c.toLane
	}

	offsets := make([]float64, len(dest.geom))
	pos := 0.0
	for i := range dest.geom {
		if i > 0 {
			pos += planar.Distance(dest.geom[i-1], dest.geom[i])
		}
		for k := range lanesDir {
			l := &lanesDir[k]
			if intAbs(l.id) > intAbs(referenceLane) || len(l.widths) == 0 {
				continue
			}
			multiplier := offsetFactor
			if l.id == referenceLane {
				multiplier *= 0.5
			}
			offsets[i] += l.widths[0].computeAt(pos) * multiplier
		}
	}
	shape, err := shiftLine(dest.geom, offsets)
	if err != nil {
		diag.Warnf("could not compute internal shape within road '%s': %v", dest.id, err)
		return nil
	}
	if c.toCP == CONTACT_POINT_END {
		for i, k := 0, len(shape)-1; i < k; i, k = i+1, k-1 {
			shape[i], shape[k] = shape[k], shape[i]
		}
	}
	return shape
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// applyConnections translates the resolved connections into edge connections
// of the output graph, mapping input lane ids onto the dense edge lane indices
func applyConnections(net *Network, resolved []*connection, roads map[string]*Road, diag *diagnostics) {
	type emittedKey struct {
		fromEdge string
		toEdge   string
		fromLane int
		toLane   int
	}
	emitted := map[emittedKey]EdgeConnection{}

	emit := func(c *connection, fromLane, toLane int) {
		fromRoad := roads[c.fromRoad]
		toRoad := roads[c.toRoad]
		fromLast := c.fromCP == CONTACT_POINT_END && fromLane < 0
		fromSec := fromRoad.sections[0]
		if fromLast {
			fromSec = fromRoad.sections[len(fromRoad.sections)-1]
		}
		fromEdge := fromSec.edgeID
		if fromLane < 0 {
			fromEdge = revertID(fromEdge)
		}
		toLast := c.toCP == CONTACT_POINT_END || toLane > 0
		toSec := toRoad.sections[0]
		if toLast {
			toSec = toRoad.sections[len(toRoad.sections)-1]
		}
		toEdge := toSec.edgeID
		if toLane < 0 {
			toEdge = revertID(toEdge)
		}
		if _, ok := net.edges[fromEdge]; !ok {
			diag.Warnf("connection from unknown edge '%s' (road '%s')", fromEdge, c.fromRoad)
			return
		}
		if _, ok := net.edges[toEdge]; !ok {
			diag.Warnf("connection to unknown edge '%s' (road '%s')", toEdge, c.toRoad)
			return
		}
		key := emittedKey{
			fromEdge: fromEdge,
			toEdge:   toEdge,
			fromLane: fromSec.laneMap[fromLane],
			toLane:   toSec.laneMap[toLane],
		}
		if _, ok := emitted[key]; ok {
			return
		}
		emitted[key] = EdgeConnection{
			FromEdge: key.fromEdge,
			ToEdge:   key.toEdge,
			FromLane: key.fromLane,
			ToLane:   key.toLane,
			Shape:    c.shape,
		}
	}

	for _, c := range resolved {
		if c.fromRoad == "" || c.toRoad == "" {
			continue
		}
		fromRoad, ok := roads[c.fromRoad]
		if !ok || len(fromRoad.sections) == 0 {
			diag.Warnf("connection references unknown road '%s'", c.fromRoad)
			continue
		}
		toRoad, ok := roads[c.toRoad]
		if !ok || len(toRoad.sections) == 0 {
			diag.Warnf("connection references unknown road '%s'", c.toRoad)
			continue
		}
		if c.all {
			// wildcard connections continue every lane id present on both roads
			fromSec := fromRoad.sections[0]
			if c.fromCP == CONTACT_POINT_END {
				fromSec = fromRoad.sections[len(fromRoad.sections)-1]
			}
			toSec := toRoad.sections[0]
			if c.toCP == CONTACT_POINT_END {
				toSec = toRoad.sections[len(toRoad.sections)-1]
			}
			ids := make([]int, 0, len(fromSec.laneMap))
			for id := range fromSec.laneMap {
				if _, ok := toSec.laneMap[id]; ok {
					ids = append(ids, id)
				}
			}
			sort.Ints(ids)
			for _, id := range ids {
				emit(c, id, id)
			}
			continue
		}
		if c.fromLane == unsetLane || c.toLane == unsetLane {
			continue
		}
		emit(c, c.fromLane, c.toLane)
	}

	keys := make([]emittedKey, 0, len(emitted))
	for key := range emitted {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.fromEdge != b.fromEdge {
			return a.fromEdge < b.fromEdge
		}
		if a.toEdge != b.toEdge {
			return a.toEdge < b.toEdge
		}
		if a.fromLane != b.fromLane {
			return a.fromLane < b.fromLane
		}
		return a.toLane < b.toLane
	})
	for _, key := range keys {
		net.connections = append(net.connections, emitted[key])
	}
}

// revertID toggles the direction prefix of an edge identifier
func revertID(id string) string {
	if strings.HasPrefix(id, "-") {
		return id[1:]
	}
	return "-" + id
}
