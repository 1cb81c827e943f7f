package xodr2net

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readExported(t *testing.T, fname string) [][]string {
	t.Helper()
	file, err := os.Open(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	reader := csv.NewReader(file)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

func TestExportToCSV(t *testing.T) {
	parser := NewParser(writeTempDocument(t, singleRoadDocument))
	net, err := parser.CreateNetwork()
	if err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(t.TempDir(), "graph.csv")
	if err := net.ExportToCSV(base); err != nil {
		t.Fatal(err)
	}

	nodes := readExported(t, strings.Replace(base, ".csv", "_nodes.csv", 1))
	if strings.Join(nodes[0], ";") != "id;control_type;signal_type;x;y" {
		t.Errorf("Nodes header mismatch: %v", nodes[0])
	}
	if len(nodes) != 1+len(net.Nodes()) {
		t.Errorf("Expected %d node rows, got %d", len(net.Nodes()), len(nodes)-1)
	}

	edges := readExported(t, strings.Replace(base, ".csv", "_edges.csv", 1))
	if strings.Join(edges[0], ";") != "id;source_node;target_node;road_id;section_s;lanes;lane_widths;lane_speeds;lane_permissions;priority;type;name;geom" {
		t.Errorf("Edges header mismatch: %v", edges[0])
	}
	if len(edges) != 2 {
		t.Fatalf("Expected a single edge row, got %d", len(edges)-1)
	}
	row := edges[1]
	if row[0] != "-R.0.00" || row[1] != "R.begin" || row[2] != "R.end" {
		t.Errorf("Edge row mismatch: %v", row)
	}
	if !strings.HasPrefix(row[len(row)-1], "LINESTRING") {
		t.Errorf("Edge geometry should be WKT, got '%s'", row[len(row)-1])
	}

	connections := readExported(t, strings.Replace(base, ".csv", "_connections.csv", 1))
	if strings.Join(connections[0], ";") != "from_edge;to_edge;from_lane;to_lane;geom" {
		t.Errorf("Connections header mismatch: %v", connections[0])
	}
}
