package xodr2net

import (
	"strings"
)

// trafficLightSignalType is the only signal type interpreted as a traffic light
const trafficLightSignalType = "1000001"

// associateSignals assigns traffic light signals to the edge they control and
// marks that edge's target node as signalised. Signals on junction internal
// roads cannot name an edge directly, so a placeholder built from the road's
// links is used and stripped to the incoming edge afterwards
func associateSignals(net *Network, all []*Road, roads map[string]*Road, parser *Parser, diag *diagnostics) {
	tlsControlled := map[string]string{}
	for _, road := range all {
		if len(road.sections) == 0 {
			continue
		}
		for i := range road.signals {
			signal := &road.signals[i]
			if signal.signalType != trafficLightSignalType {
				continue
			}
			idx := 0
			for k := range road.sections {
				if road.sections[k].s < signal.s {
					idx = k
				}
			}
			sec := road.sections[idx]
			var id string
			if sec.edgeID == "" && road.isInner() {
				id = signalPlaceholder(road, signal, roads, diag)
				if id == "->" {
					diag.Warnf("dropping signal '%s' on road '%s' without resolvable edges", signal.id, road.id)
					continue
				}
			} else if sec.edgeID != "" {
				id = sec.edgeID
				if signal.orientation > 0 {
					id = "-" + id
				}
			} else {
				diag.Warnf("dropping signal '%s' on road '%s' without a built edge", signal.id, road.id)
				continue
			}
			name := signal.name
			if name == "" {
				name = signal.id
			}
			tlsControlled[id] = name
		}
	}

	for id, name := range tlsControlled {
		edgeID := id
		if pos := strings.Index(edgeID, "->"); pos >= 0 {
			edgeID = edgeID[:pos]
		}
		edge, ok := net.edges[edgeID]
		if !ok {
			diag.Warnf("signal '%s' controls unknown edge '%s'", name, edgeID)
			continue
		}
		node, ok := net.nodes[edge.to]
		if !ok {
			continue
		}
		node.controlType = CONTROL_TYPE_IS_SIGNAL
		node.signalType = parser.defaultSignalType
		net.trafficLights[edgeID] = name
	}
}

// signalPlaceholder derives "<incoming>-><outgoing>" edge identifiers for a
// signal sitting on a junction internal road
func signalPlaceholder(road *Road, signal *roadSignal, roads map[string]*Road, diag *diagnostics) string {
	fromID := ""
	toID := ""
	for _, link := range road.links {
		if link.elementType != ELEMENT_ROAD {
			continue
		}
		target, ok := roads[link.elementID]
		if !ok || len(target.sections) == 0 {
			continue
		}
		if link.linkType == LINK_PREDECESSOR {
			if fromID != "" {
				diag.Warnf("ambiguous start of connection for signal on road '%s'", road.id)
			}
			if link.contactPoint == CONTACT_POINT_START {
				fromID = target.sections[0].edgeID
				if signal.orientation < 0 {
					fromID = "-" + fromID
				}
			} else {
				fromID = target.sections[len(target.sections)-1].edgeID
				if signal.orientation > 0 {
					fromID = "-" + fromID
				}
			}
		} else {
			if toID != "" {
				diag.Warnf("ambiguous end of connection for signal on road '%s'", road.id)
			}
			if link.contactPoint == CONTACT_POINT_START {
				toID = target.sections[0].edgeID
			} else {
				toID = "-" + target.sections[len(target.sections)-1].edgeID
			}
		}
	}
	return fromID + "->" + toID
}
