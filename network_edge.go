package xodr2net

import (
	"github.com/paulmach/orb"
)

/* Edges stuff */

// EdgeLane carries the per-lane attributes of a graph edge, index 0 being the
// outermost lane
type EdgeLane struct {
	Width       float64
	Speed       float64
	Permissions VehiclePermissions
}

// NetworkEdge is a directed graph edge built from one driving direction of a
// lane section
type NetworkEdge struct {
	ID   string
	from string
	to   string

	geom      orb.LineString
	elevation []float64

	lanes     []EdgeLane
	priority  int
	typeLabel string

	// roadID and sectionS locate the lane section the edge was built from
	roadID   string
	sectionS float64
	name     string
}

func (edge *NetworkEdge) From() string {
	return edge.from
}

func (edge *NetworkEdge) To() string {
	return edge.to
}

func (edge *NetworkEdge) Geom() orb.LineString {
	return edge.geom
}

// Elevation returns the per-vertex z values matching Geom
func (edge *NetworkEdge) Elevation() []float64 {
	return edge.elevation
}

func (edge *NetworkEdge) Lanes() []EdgeLane {
	return edge.lanes
}

func (edge *NetworkEdge) Priority() int {
	return edge.priority
}

// EdgeConnection allows traffic to continue from one edge lane onto another
type EdgeConnection struct {
	FromEdge string
	ToEdge   string
	FromLane int
	ToLane   int
	Shape    orb.LineString
}
