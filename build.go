package xodr2net

import (
	"fmt"

	"github.com/pkg/errors"
)

// CreateNetwork runs the whole pipeline: parse the input, discretise the
// geometry, normalise the lane sections, build nodes and edges, resolve
// junction connections and associate traffic signals
func (parser *Parser) CreateNetwork() (*Network, error) {
	if parser.verbose {
		fmt.Println(parser)
	}
	diag := newDiagnostics(parser.log)
	policy := laneTypePolicy{importAll: parser.importAllLaneTypes}

	roads, err := parser.readOpenDrive(diag)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read OpenDRIVE file")
	}
	all := sortedRoads(roads)
	inner := []*Road{}
	outer := []*Road{}
	for _, road := range all {
		if road.isInner() {
			inner = append(inner, road)
		} else {
			outer = append(outer, road)
		}
	}
	if parser.verbose {
		fmt.Printf("Read %d roads (%d within junctions)\n", len(all), len(inner))
	}

	computeShapes(all, parser.curveResolution, diag)
	revisitLaneSections(all, policy, diag)
	for _, road := range inner {
		for _, sec := range road.sections {
			sec.buildLaneMapping(policy)
		}
	}

	net := newNetwork()
	if err := buildNodes(net, outer, inner, roads, diag); err != nil {
		return nil, errors.Wrap(err, "Can't build nodes")
	}
	buildEdges(net, outer, parser, policy, diag)

	if err := setRoadConnections(all, roads, policy, diag); err != nil {
		return nil, errors.Wrap(err, "Can't link roads")
	}
	resolved := resolveConnections(all, roads, parser, diag)
	applyConnections(net, resolved, roads, diag)

	associateSignals(net, all, roads, parser, diag)

	if parser.objectOutput != "" {
		if err := exportObjects(all, parser.objectOutput, diag); err != nil {
			return nil, errors.Wrap(err, "Can't export objects")
		}
	}

	if parser.verbose {
		fmt.Printf("Built %d nodes, %d edges, %d connections (%d warnings)\n", len(net.nodes), len(net.edges), len(net.connections), diag.Warnings())
	}
	return net, nil
}
