package xodr2net

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

/* Nodes stuff */

type ControlType uint16

const (
	CONTROL_TYPE_NOT_SIGNAL = ControlType(iota + 1)
	CONTROL_TYPE_IS_SIGNAL
)

func (iotaIdx ControlType) String() string {
	return [...]string{"common", "signal"}[iotaIdx-1]
}

// NetworkNode is a graph vertex: a junction center, a shared road end or a
// synthesised dead end
type NetworkNode struct {
	ID          string
	controlType ControlType
	// signalType is the control program label for signalised nodes
	signalType string
	geom       orb.Point
}

func (node *NetworkNode) Geom() orb.Point {
	return node.geom
}

func newNetworkNode(id string, geom orb.Point) *NetworkNode {
	return &NetworkNode{
		ID:          id,
		controlType: CONTROL_TYPE_NOT_SIGNAL,
		geom:        geom,
	}
}

// addNode inserts the node, failing on identifier collisions
func (net *Network) addNode(node *NetworkNode) error {
	if _, ok := net.nodes[node.ID]; ok {
		return errors.Errorf("Node '%s' already exists", node.ID)
	}
	net.nodes[node.ID] = node
	return nil
}

// getOrBuildNode returns the node with the given identifier, creating it at
// the given position when absent
func (net *Network) getOrBuildNode(id string, geom orb.Point) *NetworkNode {
	if node, ok := net.nodes[id]; ok {
		return node
	}
	node := newNetworkNode(id, geom)
	net.nodes[id] = node
	return node
}
