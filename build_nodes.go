package xodr2net

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// buildNodes creates the graph vertices and assigns both ends of every outer
// road to one. Junctions collapse into a single node placed at the center of
// the bounding box of their internal roads
func buildNodes(net *Network, outer, inner []*Road, roads map[string]*Road, diag *diagnostics) error {
	junctionNodes := map[string]string{}
	road2junction := map[string]string{}
	junctionRoads := map[string][]*Road{}
	for _, road := range inner {
		road2junction[road.id] = road.junction
		junctionRoads[road.junction] = append(junctionRoads[road.junction], road)
	}
	for _, road := range inner {
		junction := road.junction
		if _, ok := junctionNodes[junction]; ok {
			continue
		}
		node := newNetworkNode(junction, junctionCenter(junctionRoads[junction]))
		if err := net.addNode(node); err != nil {
			return errors.Wrapf(err, "Can't create node for junction '%s'", junction)
		}
		junctionNodes[junction] = node.ID
	}

	// roads whose links name a junction, or an inner road of one, end at the
	// junction node
	for _, road := range outer {
		for _, link := range road.links {
			var nodeID string
			if link.elementType != ELEMENT_ROAD {
				nodeID = link.elementID
			} else if junction, ok := road2junction[link.elementID]; ok {
				nodeID = junction
			} else {
				continue
			}
			pos := linkEndPosition(road, link.linkType)
			net.getOrBuildNode(nodeID, pos)
			if err := setNodeSecure(road, nodeID, link.linkType); err != nil {
				return err
			}
		}
	}

	// two outer roads meeting outside any junction share a node named after
	// both of them
	for _, road := range outer {
		for _, link := range road.links {
			if link.elementType != ELEMENT_ROAD {
				continue
			}
			if _, ok := road2junction[link.elementID]; ok {
				continue
			}
			id1, id2 := road.id, link.elementID
			if id1 < id2 {
				id1, id2 = id2, id1
			}
			nodeID := id1 + "." + id2
			pos := linkEndPosition(road, link.linkType)
			net.getOrBuildNode(nodeID, pos)
			if err := setNodeSecure(road, nodeID, link.linkType); err != nil {
				return err
			}
		}
	}

	// inner roads referencing an outer road pin that outer road's end to the
	// junction node
	for _, road := range inner {
		junction := junctionNodes[road.junction]
		for _, link := range road.links {
			if link.elementType != ELEMENT_ROAD {
				continue
			}
			target, ok := roads[link.elementID]
			if !ok || target.isInner() {
				continue
			}
			// roads with both ends assigned already are left alone
			if target.from != "" && target.to != "" {
				continue
			}
			linkType := LINK_SUCCESSOR
			if link.contactPoint == CONTACT_POINT_START {
				linkType = LINK_PREDECESSOR
			}
			pos := linkEndPosition(target, linkType)
			net.getOrBuildNode(junction, pos)
			if err := setNodeSecure(target, junction, linkType); err != nil {
				return err
			}
		}
	}

	// remaining loose ends get synthesised dead end nodes
	for _, road := range outer {
		if (road.from == "" || road.to == "") && len(road.geom) == 0 {
			continue
		}
		if road.from == "" {
			node := net.getOrBuildNode(road.id+".begin", road.geom[0])
			road.from = node.ID
		}
		if road.to == "" {
			node := net.getOrBuildNode(road.id+".end", road.geom[len(road.geom)-1])
			road.to = node.ID
		}
	}
	return nil
}

// setNodeSecure assigns the node to the road end the link type names, failing
// when a different node was assigned earlier
func setNodeSecure(road *Road, nodeID string, linkType roadLinkType) error {
	if linkType == LINK_PREDECESSOR {
		if road.from != "" && road.from != nodeID {
			return errors.Errorf("Road '%s' has two end nodes ('%s' and '%s')", road.id, road.from, nodeID)
		}
		road.from = nodeID
		return nil
	}
	if road.to != "" && road.to != nodeID {
		return errors.Errorf("Road '%s' has two end nodes ('%s' and '%s')", road.id, road.to, nodeID)
	}
	road.to = nodeID
	return nil
}

func linkEndPosition(road *Road, linkType roadLinkType) orb.Point {
	if len(road.geom) == 0 {
		return orb.Point{}
	}
	if linkType == LINK_PREDECESSOR {
		return road.geom[0]
	}
	return road.geom[len(road.geom)-1]
}

// junctionCenter returns the center of the bounding box around the internal
// road geometries
func junctionCenter(roads []*Road) orb.Point {
	minX, minY := 0.0, 0.0
	maxX, maxY := 0.0, 0.0
	first := true
	for _, road := range roads {
		for _, pt := range road.geom {
			if first {
				minX, maxX = pt[0], pt[0]
				minY, maxY = pt[1], pt[1]
				first = false
				continue
			}
			if pt[0] < minX {
				minX = pt[0]
			}
			if pt[0] > maxX {
				maxX = pt[0]
			}
			if pt[1] < minY {
				minY = pt[1]
			}
			if pt[1] > maxY {
				maxY = pt[1]
			}
		}
	}
	return orb.Point{(minX + maxX) / 2, (minY + maxY) / 2}
}
