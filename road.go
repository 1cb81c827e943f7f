package xodr2net

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// contactPoint tells which end of a road a link or connection refers to
type contactPoint uint16

const (
	CONTACT_POINT_NONE = contactPoint(iota)
	CONTACT_POINT_START
	CONTACT_POINT_END
)

// roadLinkType distinguishes predecessor and successor links
type roadLinkType uint16

const (
	LINK_PREDECESSOR = roadLinkType(iota + 1)
	LINK_SUCCESSOR
)

// linkElementType is the kind of entity a road link points to
type linkElementType uint16

const (
	ELEMENT_ROAD = linkElementType(iota + 1)
	ELEMENT_JUNCTION
)

// geometryKind is the tag of a reference line primitive
type geometryKind uint16

const (
	GEOMETRY_UNKNOWN = geometryKind(iota)
	GEOMETRY_LINE
	GEOMETRY_SPIRAL
	GEOMETRY_ARC
	GEOMETRY_POLY3
	GEOMETRY_PARAM_POLY3
)

// unsetLane marks an absent lane reference in links and connections
const unsetLane = math.MaxInt32

// geometryPrimitive is a single piece of a road's reference line: a local start
// pose, a length along the curve and kind-specific parameters
type geometryPrimitive struct {
	s      float64
	x      float64
	y      float64
	hdg    float64
	length float64
	kind   geometryKind
	params []float64
}

// polynomial is a cubic polynomial piece positioned at running coordinate s,
// used for elevation profiles and lateral lane offsets
type polynomial struct {
	s float64
	a float64
	b float64
	c float64
	d float64
}

// computeAt evaluates the polynomial at the given running coordinate
func (p polynomial) computeAt(pos float64) float64 {
	ds := pos - p.s
	return p.a + p.b*ds + p.c*ds*ds + p.d*ds*ds*ds
}

// roadLink is a predecessor/successor record of a road
type roadLink struct {
	linkType     roadLinkType
	elementType  linkElementType
	elementID    string
	contactPoint contactPoint
}

// roadSignal is a traffic control device placed along a road
type roadSignal struct {
	id          string
	signalType  string
	name        string
	orientation int
	dynamic     bool
	s           float64
}

// roadObject is a roadside object (for optional polygon export)
type roadObject struct {
	id      string
	objType string
	name    string
	s       float64
	t       float64
	width   float64
	length  float64
	radius  float64
	hdg     float64
}

// connectionKey identifies a connection for ordering and deduplication
type connectionKey struct {
	fromRoad string
	toRoad   string
	fromLane int
	toLane   int
}

func (k connectionKey) less(o connectionKey) bool {
	if k.fromRoad != o.fromRoad {
		return k.fromRoad < o.fromRoad
	}
	if k.toRoad != o.toRoad {
		return k.toRoad < o.toRoad
	}
	if k.fromLane != o.fromLane {
		return k.fromLane < o.fromLane
	}
	return k.toLane < o.toLane
}

// connection is a lane-to-lane link between two roads, possibly via a junction
type connection struct {
	fromRoad string
	toRoad   string
	fromLane int
	toLane   int
	fromCP   contactPoint
	toCP     contactPoint
	// all marks a junction connection given without explicit lane links
	all      bool
	origRoad string
	origLane int
	shape    orb.LineString
}

func (c *connection) key() connectionKey {
	return connectionKey{fromRoad: c.fromRoad, toRoad: c.toRoad, fromLane: c.fromLane, toLane: c.toLane}
}

// Road is a single parsed input record together with everything later pipeline
// stages attach to it
type Road struct {
	id       string
	name     string
	junction string
	length   float64

	geometries []geometryPrimitive
	elevations []polynomial
	offsets    []polynomial
	sections   []*laneSection
	links      []roadLink
	signals    []roadSignal
	objects    []roadObject

	connections map[connectionKey]*connection

	// geom and elevation are filled by the geometry engine: the discretised
	// reference line and the z value per vertex
	geom      orb.LineString
	elevation []float64

	// from and to are graph node identifiers assigned during node building
	from string
	to   string
}

func newRoad(id, name, junction string, length float64) *Road {
	return &Road{
		id:          id,
		name:        name,
		junction:    junction,
		length:      length,
		connections: make(map[connectionKey]*connection),
	}
}

// isInner reports whether the road exists only to carry traffic through a junction
func (road *Road) isInner() bool {
	return road.junction != "" && road.junction != "-1"
}

// addConnection inserts the connection unless an equal one is already known
func (road *Road) addConnection(c *connection) {
	key := c.key()
	if _, ok := road.connections[key]; ok {
		return
	}
	road.connections[key] = c
}

// orderedConnections returns the road's connections sorted by
// (from-road, to-road, from-lane, to-lane) for deterministic processing
func (road *Road) orderedConnections() []*connection {
	keys := make([]connectionKey, 0, len(road.connections))
	for key := range road.connections {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	result := make([]*connection, len(keys))
	for i, key := range keys {
		result[i] = road.connections[key]
	}
	return result
}

// getPriority derives the edge priority for one driving direction from the
// priority and yield signs placed along the road
func (road *Road) getPriority(side laneSide) int {
	prio := 1
	for i := range road.signals {
		tmp := 1
		switch road.signals[i].signalType {
		case "301", "306": // priority road or local priority
			tmp = 2
		case "205": // yield
			tmp = 0
		}
		if tmp != 1 && side == SIDE_RIGHT && road.signals[i].orientation > 0 {
			prio = tmp
		}
		if tmp != 1 && side == SIDE_LEFT && road.signals[i].orientation < 0 {
			prio = tmp
		}
	}
	return prio
}

// hasNonLinearElevation reports whether straight segments must be densified to
// follow the elevation profile
func (road *Road) hasNonLinearElevation() bool {
	if len(road.elevations) > 1 {
		return true
	}
	for _, el := range road.elevations {
		if el.c != 0 || el.d != 0 {
			return true
		}
	}
	return false
}

// sortedRoads returns roads ordered by identifier so every pipeline stage
// processes them deterministically
func sortedRoads(roads map[string]*Road) []*Road {
	ids := make([]string, 0, len(roads))
	for id := range roads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*Road, len(ids))
	for i, id := range ids {
		result[i] = roads[id]
	}
	return result
}
