package xodr2net

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// Network is the traffic graph built from the input: directed edges between
// nodes, lane-to-lane connections and the traffic light assignment
type Network struct {
	nodes         map[string]*NetworkNode
	edges         map[string]*NetworkEdge
	connections   []EdgeConnection
	trafficLights map[string]string
}

func newNetwork() *Network {
	return &Network{
		nodes:         make(map[string]*NetworkNode),
		edges:         make(map[string]*NetworkEdge),
		trafficLights: make(map[string]string),
	}
}

func (net *Network) Nodes() map[string]*NetworkNode {
	return net.nodes
}

func (net *Network) Edges() map[string]*NetworkEdge {
	return net.edges
}

func (net *Network) Connections() []EdgeConnection {
	return net.connections
}

// TrafficLights returns edge identifier to signal name assignment
func (net *Network) TrafficLights() map[string]string {
	return net.trafficLights
}

func (net *Network) ExportToCSV(fname string) error {

	fnameParts := strings.Split(fname, ".csv")
	fnameNodes := fmt.Sprintf(fnameParts[0] + "_nodes.csv")
	fnameEdges := fmt.Sprintf(fnameParts[0] + "_edges.csv")
	fnameConnections := fmt.Sprintf(fnameParts[0] + "_connections.csv")

	err := net.exportNodesToCSV(fnameNodes)
	if err != nil {
		return errors.Wrap(err, "Can't export nodes")
	}

	err = net.exportEdgesToCSV(fnameEdges)
	if err != nil {
		return errors.Wrap(err, "Can't export edges")
	}

	err = net.exportConnectionsToCSV(fnameConnections)
	if err != nil {
		return errors.Wrap(err, "Can't export connections")
	}

	return nil
}

func (net *Network) exportEdgesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"id", "source_node", "target_node", "road_id", "section_s", "lanes", "lane_widths", "lane_speeds", "lane_permissions", "priority", "type", "name", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	ids := make([]string, 0, len(net.edges))
	for id := range net.edges {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		edge := net.edges[id]
		widths := make([]string, len(edge.lanes))
		speeds := make([]string, len(edge.lanes))
		permissions := make([]string, len(edge.lanes))
		for i, l := range edge.lanes {
			widths[i] = fmt.Sprintf("%f", l.Width)
			speeds[i] = fmt.Sprintf("%f", l.Speed)
			permissions[i] = fmt.Sprintf("%s", l.Permissions)
		}
		err = writer.Write([]string{
			edge.ID,
			edge.from,
			edge.to,
			edge.roadID,
			fmt.Sprintf("%f", edge.sectionS),
			fmt.Sprintf("%d", len(edge.lanes)),
			strings.Join(widths, ","),
			strings.Join(speeds, ","),
			strings.Join(permissions, ","),
			fmt.Sprintf("%d", edge.priority),
			edge.typeLabel,
			edge.name,
			fmt.Sprintf("%s", wkt.MarshalString(edge.geom)),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write edge")
		}
	}
	return nil
}

func (net *Network) exportNodesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"id", "control_type", "signal_type", "x", "y"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	ids := make([]string, 0, len(net.nodes))
	for id := range net.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		node := net.nodes[id]
		err = writer.Write([]string{
			node.ID,
			fmt.Sprintf("%s", node.controlType),
			node.signalType,
			fmt.Sprintf("%f", node.geom[0]),
			fmt.Sprintf("%f", node.geom[1]),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write node")
		}
	}
	return nil
}

func (net *Network) exportConnectionsToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"from_edge", "to_edge", "from_lane", "to_lane", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, conn := range net.connections {
		geom := ""
		if len(conn.Shape) > 0 {
			geom = wkt.MarshalString(conn.Shape)
		}
		err = writer.Write([]string{
			conn.FromEdge,
			conn.ToEdge,
			fmt.Sprintf("%d", conn.FromLane),
			fmt.Sprintf("%d", conn.ToLane),
			geom,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write connection")
		}
	}
	return nil
}
