package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/LdDl/ch"
	"github.com/LdDl/xodr2net"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

var (
	xodrFileName  = flag.String("file", "my_map.xodr", "Filename of *.xodr file")
	out           = flag.String("out", "my_graph.csv", "Filename of 'Comma-Separated Values' (CSV) formatted file. E.g.: if file name is 'map.csv' then files 'map_nodes.csv', 'map_edges.csv', 'map_connections.csv' will be produced")
	geomFormat    = flag.String("geomf", "wkt", "Format of output geometry for the routing graph. Expected values: wkt / geojson")
	doContraction = flag.Bool("contract", true, "Prepare contraction hierarchies?")
	resolution    = flag.Float64("resolution", 2.0, "Sampling step (meters) for curved geometry")
	minWidth      = flag.Float64("min-width", 1.8, "Minimum usable lane width (meters), 0 disables width handling")
	importAll     = flag.Bool("import-all-lanes", false, "Keep lanes of unknown or discarded types")
	ignoreWidths  = flag.Bool("ignore-widths", false, "Use default lane widths everywhere")
	innerShapes   = flag.Bool("internal-shapes", false, "Export geometry of connections through junctions")
	objectsOut    = flag.String("polygon-output", "", "Filename of GeoJSON file for roadside objects (empty disables the export)")
	verbose       = flag.Bool("verbose", false, "Print progress information")
)

func main() {

	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer log.Sync()

	parser := xodr2net.NewParser(
		*xodrFileName,
		xodr2net.WithCurveResolution(*resolution),
		xodr2net.WithMinWidth(*minWidth),
		xodr2net.WithImportAllLaneTypes(*importAll),
		xodr2net.WithIgnoreWidths(*ignoreWidths),
		xodr2net.WithInternalShapes(*innerShapes),
		xodr2net.WithObjectOutput(*objectsOut),
		xodr2net.WithVerbose(*verbose),
		xodr2net.WithLogger(log),
	)

	network, err := parser.CreateNetwork()
	if err != nil {
		fmt.Println(err)
		return
	}

	err = network.ExportToCSV(*out)
	if err != nil {
		fmt.Println(err)
		return
	}

	if !*doContraction {
		return
	}

	fnamePart := strings.Split(*out, ".csv")
	fnameRouting := fmt.Sprintf(fnamePart[0] + "_routing.csv")
	fnameVertices := fmt.Sprintf(fnamePart[0] + "_vertices.csv")
	fnameShortcuts := fmt.Sprintf(fnamePart[0] + "_shortcuts.csv")

	/* Routing edges file */
	fileRouting, err := os.Create(fnameRouting)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer fileRouting.Close()
	writerRouting := csv.NewWriter(fileRouting)
	defer writerRouting.Flush()
	writerRouting.Comma = ';'
	// 		from_vertex_id - int64, ID of source vertex
	// 		to_vertex_id - int64, ID of target vertex
	// 		weight - float64, Weight of an edge (meters)
	//      geom - geometry (WKT or GeoJSON representation)
	//      edge_id - string, ID of the graph edge
	err = writerRouting.Write([]string{"from_vertex_id", "to_vertex_id", "weight", "geom", "edge_id"})
	if err != nil {
		fmt.Println(err)
		return
	}

	/* Vertices file */
	fileVertices, err := os.Create(fnameVertices)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer fileVertices.Close()
	writerVertices := csv.NewWriter(fileVertices)
	defer writerVertices.Flush()
	writerVertices.Comma = ';'
	// 		vertex_id - int64, ID of vertex
	// 		order_pos - int, Position of vertex in hierarchies (evaluted by library)
	// 		importance - int, Importance of vertex in graph (evaluted by library)
	//      geom - geometry (WKT or GeoJSON representation)
	err = writerVertices.Write([]string{"vertex_id", "order_pos", "importance", "geom"})
	if err != nil {
		fmt.Println(err)
		return
	}

	// the contraction library wants integer vertices, so node identifiers get
	// sequential numbers in sorted order
	nodes := network.Nodes()
	nodeIDs := make([]string, 0, len(nodes))
	for id := range nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)
	vertices := make(map[string]int64, len(nodeIDs))
	verticesGeoms := make(map[int64]orb.Point, len(nodeIDs))
	for i, id := range nodeIDs {
		vertices[id] = int64(i)
		verticesGeoms[int64(i)] = nodes[id].Geom()
	}

	graph := ch.Graph{}
	edges := network.Edges()
	edgeIDs := make([]string, 0, len(edges))
	for id := range edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Strings(edgeIDs)
	for _, id := range edgeIDs {
		edge := edges[id]
		source := vertices[edge.From()]
		target := vertices[edge.To()]
		err := graph.CreateVertex(source)
		if err != nil {
			fmt.Println(err)
			return
		}
		err = graph.CreateVertex(target)
		if err != nil {
			fmt.Println(err)
			return
		}
		cost := planar.Length(edge.Geom())
		err = graph.AddEdge(source, target, cost)
		if err != nil {
			fmt.Println(err)
			return
		}

		geomStr := ""
		if strings.ToLower(*geomFormat) == "geojson" {
			geomStr = xodr2net.PrepareGeoJSONLinestring(edge.Geom())
		} else {
			geomStr = xodr2net.PrepareWKTLinestring(edge.Geom())
		}
		err = writerRouting.Write([]string{
			fmt.Sprintf("%d", source),
			fmt.Sprintf("%d", target),
			fmt.Sprintf("%f", cost),
			geomStr,
			id,
		})
		if err != nil {
			fmt.Println(err)
			return
		}
	}

	fmt.Println("Starting contraction process....")
	st := time.Now()
	graph.PrepareContractionHierarchies()
	fmt.Printf("Done contraction process in %v\n", time.Since(st))

	/* Write vertices */
	for i := 0; i < len(graph.Vertices); i++ {
		currentVertexExternal := graph.Vertices[i].Label
		vertexGeom := verticesGeoms[currentVertexExternal]
		geomStr := ""
		if strings.ToLower(*geomFormat) == "geojson" {
			geomStr = xodr2net.PrepareGeoJSONPoint(vertexGeom)
		} else {
			geomStr = xodr2net.PrepareWKTPoint(vertexGeom)
		}
		err = writerVertices.Write([]string{
			fmt.Sprintf("%d", currentVertexExternal),
			fmt.Sprintf("%d", graph.Vertices[i].OrderPos()),
			fmt.Sprintf("%d", graph.Vertices[i].Importance()),
			geomStr,
		})
		if err != nil {
			fmt.Println(err)
			return
		}
	}

	/* Write shortcuts */
	// 	from_vertex_id - int64, ID of source vertex
	// 	to_vertex_id - int64, ID of target vertex
	// 	weight - float64, Weight of an edge
	// 	via_vertex_id - int64, ID of vertex through which the shortcut exists
	err = graph.ExportShortcutsToFile(fnameShortcuts)
	if err != nil {
		fmt.Println(err)
		return
	}
}
