package xodr2net

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeTempDocument(t *testing.T, doc string) string {
	t.Helper()
	fname := filepath.Join(t.TempDir(), "map.xodr")
	if err := os.WriteFile(fname, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return fname
}

const singleRoadDocument = `<?xml version="1.0"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4"/>
  <road id="R" name="Solo" junction="-1" length="100">
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.5"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`

func TestSingleRoadRoundTrip(t *testing.T) {
	parser := NewParser(writeTempDocument(t, singleRoadDocument))
	net, err := parser.CreateNetwork()
	if err != nil {
		t.Fatal(err)
	}
	if len(net.Edges()) != 1 {
		t.Fatalf("Single one-sided road should produce one edge, got %d", len(net.Edges()))
	}
	edge, ok := net.Edges()["-R.0.00"]
	if !ok {
		t.Fatalf("Edge '-R.0.00' expected, got %v", net.Edges())
	}
	if edge.From() != "R.begin" || edge.To() != "R.end" {
		t.Errorf("Edge should run R.begin -> R.end, got %s -> %s", edge.From(), edge.To())
	}
	if Round(planar.Length(edge.Geom()), 0.001) != 100 {
		t.Errorf("Edge length should be 100, got %f", planar.Length(edge.Geom()))
	}
	lanes := edge.Lanes()
	if len(lanes) != 1 {
		t.Fatalf("One lane expected, got %d", len(lanes))
	}
	if lanes[0].Width != 3.5 {
		t.Errorf("Lane width should be 3.5, got %f", lanes[0].Width)
	}
	if lanes[0].Speed != defaultLaneSpeed {
		t.Errorf("Lane speed should default to %f, got %f", defaultLaneSpeed, lanes[0].Speed)
	}
	if len(net.Nodes()) != 2 {
		t.Errorf("Two synthesised dead end nodes expected, got %d", len(net.Nodes()))
	}
}

const linkedRoadsDocument = `<?xml version="1.0"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4"/>
  <road id="1" name="" junction="-1" length="100">
    <link>
      <successor elementType="road" elementId="2" contactPoint="start"/>
    </link>
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <link><successor id="-1"/></link>
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="2" name="" junction="-1" length="50">
    <link>
      <predecessor elementType="road" elementId="1" contactPoint="end"/>
    </link>
    <planView>
      <geometry s="0" x="100" y="0" hdg="0" length="50"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`

func TestLinkedRoadsShareNode(t *testing.T) {
	parser := NewParser(writeTempDocument(t, linkedRoadsDocument))
	net, err := parser.CreateNetwork()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := net.Nodes()["2.1"]; !ok {
		t.Fatalf("Shared node '2.1' expected, got %v", net.Nodes())
	}
	if len(net.Nodes()) != 3 {
		t.Errorf("Shared node plus two dead ends expected, got %d", len(net.Nodes()))
	}
	edge1 := net.Edges()["-1.0.00"]
	edge2 := net.Edges()["-2.0.00"]
	if edge1 == nil || edge2 == nil {
		t.Fatalf("Both roads should produce edges, got %v", net.Edges())
	}
	if edge1.To() != "2.1" || edge2.From() != "2.1" {
		t.Errorf("Edges should meet at the shared node, got %s and %s", edge1.To(), edge2.From())
	}
	conns := net.Connections()
	if len(conns) != 1 {
		t.Fatalf("One lane connection expected, got %d", len(conns))
	}
	c := conns[0]
	if c.FromEdge != "-1.0.00" || c.ToEdge != "-2.0.00" || c.FromLane != 0 || c.ToLane != 0 {
		t.Errorf("Connection mismatch: %+v", c)
	}
}

const junctionDocument = `<?xml version="1.0"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4"/>
  <road id="A" name="" junction="-1" length="100">
    <link>
      <successor elementType="junction" elementId="J1"/>
    </link>
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
    <signals>
      <signal id="sig1" s="90" name="tl1" dynamic="yes" orientation="+" type="1000001"/>
    </signals>
  </road>
  <road id="B" name="" junction="-1" length="100">
    <link>
      <predecessor elementType="junction" elementId="J1"/>
    </link>
    <planView>
      <geometry s="0" x="120" y="0" hdg="0" length="100"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="C" name="" junction="J1" length="20">
    <link>
      <predecessor elementType="road" elementId="A" contactPoint="end"/>
      <successor elementType="road" elementId="B" contactPoint="start"/>
    </link>
    <planView>
      <geometry s="0" x="100" y="0" hdg="0" length="20"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <link><predecessor id="-1"/><successor id="-1"/></link>
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <junction id="J1">
    <connection id="0" incomingRoad="A" connectingRoad="C" contactPoint="start">
      <laneLink from="-1" to="-1"/>
    </connection>
  </junction>
</OpenDRIVE>`

func TestJunctionFlattening(t *testing.T) {
	parser := NewParser(writeTempDocument(t, junctionDocument))
	net, err := parser.CreateNetwork()
	if err != nil {
		t.Fatal(err)
	}
	// internal roads never become edges
	if len(net.Edges()) != 2 {
		t.Fatalf("Only the outer roads should produce edges, got %v", net.Edges())
	}
	for id := range net.Edges() {
		if strings.Contains(id, "C") {
			t.Errorf("Internal road leaked into the edge set: %s", id)
		}
	}
	conns := net.Connections()
	if len(conns) != 1 {
		t.Fatalf("The path A-C-B should flatten to one connection, got %d", len(conns))
	}
	c := conns[0]
	if c.FromEdge != "-A.0.00" || c.ToEdge != "-B.0.00" {
		t.Errorf("Connection should run -A.0.00 -> -B.0.00, got %s -> %s", c.FromEdge, c.ToEdge)
	}
	junctionNode, ok := net.Nodes()["J1"]
	if !ok {
		t.Fatalf("Junction node 'J1' expected, got %v", net.Nodes())
	}
	center := orb.Point{110, 0}
	if planar.Distance(junctionNode.geom, center) > positionEps {
		t.Errorf("Junction node should sit at the center of its roads, got %v", junctionNode.geom)
	}
	edgeA := net.Edges()["-A.0.00"]
	if edgeA.To() != "J1" {
		t.Errorf("Edge of road A should end at the junction, got %s", edgeA.To())
	}
}

func TestSignalAssociation(t *testing.T) {
	parser := NewParser(writeTempDocument(t, junctionDocument))
	net, err := parser.CreateNetwork()
	if err != nil {
		t.Fatal(err)
	}
	name, ok := net.TrafficLights()["-A.0.00"]
	if !ok {
		t.Fatalf("Signal should control edge '-A.0.00', got %v", net.TrafficLights())
	}
	if name != "tl1" {
		t.Errorf("Signal name should be 'tl1', got '%s'", name)
	}
	node := net.Nodes()["J1"]
	if node.controlType != CONTROL_TYPE_IS_SIGNAL {
		t.Errorf("Junction node should be signalised, got %v", node.controlType)
	}
	if node.signalType != "static" {
		t.Errorf("Default signal type should be recorded, got '%s'", node.signalType)
	}
}

const circularJunctionDocument = `<?xml version="1.0"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4"/>
  <road id="A" name="" junction="-1" length="100">
    <link>
      <successor elementType="junction" elementId="J1"/>
    </link>
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="100"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="C1" name="" junction="J1" length="20">
    <link>
      <predecessor elementType="road" elementId="A" contactPoint="end"/>
      <successor elementType="road" elementId="C2" contactPoint="start"/>
    </link>
    <planView>
      <geometry s="0" x="100" y="0" hdg="0" length="20"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <link><predecessor id="-1"/><successor id="-1"/></link>
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <road id="C2" name="" junction="J1" length="20">
    <link>
      <successor elementType="road" elementId="C1" contactPoint="start"/>
    </link>
    <planView>
      <geometry s="0" x="120" y="0" hdg="3.14159265" length="20"><line/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <link><predecessor id="-1"/><successor id="-1"/></link>
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
  <junction id="J1">
    <connection id="0" incomingRoad="A" connectingRoad="C1" contactPoint="start">
      <laneLink from="-1" to="-1"/>
    </connection>
  </junction>
</OpenDRIVE>`

func TestCircularJunctionDiagnostic(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	parser := NewParser(writeTempDocument(t, circularJunctionDocument), WithLogger(zap.New(core)))
	net, err := parser.CreateNetwork()
	if err != nil {
		t.Fatal(err)
	}
	circular := 0
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, "circular") {
			circular++
		}
	}
	if circular != 1 {
		t.Errorf("Exactly one diagnostic per connection cycle expected, got %d", circular)
	}
	for _, c := range net.Connections() {
		if strings.Contains(c.FromEdge, "C") || strings.Contains(c.ToEdge, "C") {
			t.Errorf("Internal road leaked into connections: %+v", c)
		}
	}
}

const pointRoadDocument = `<?xml version="1.0"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4"/>
  <road id="D" name="" junction="-1" length="50">
    <planView>
      <geometry s="0" x="3" y="4" hdg="0" length="50"><spiral curvStart="0.01" curvEnd="0.01"/></geometry>
    </planView>
    <lanes>
      <laneSection s="0">
        <right>
          <lane id="-1" type="driving" level="false">
            <width sOffset="0" a="3.0"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
  </road>
</OpenDRIVE>`

func TestPointRoadProducesNoEdges(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	parser := NewParser(writeTempDocument(t, pointRoadDocument), WithLogger(zap.New(core)))
	net, err := parser.CreateNetwork()
	if err != nil {
		t.Fatal(err)
	}
	if len(net.Edges()) != 0 {
		t.Errorf("Road collapsing to a single point should produce no edges, got %v", net.Edges())
	}
	skipped := 0
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, "without geometry") {
			skipped++
		}
	}
	if skipped != 1 {
		t.Errorf("Skipping the road should be reported once, got %d", skipped)
	}
}

func TestInnerLinkSkipsAssignedRoads(t *testing.T) {
	a := newRoad("A", "", "", 100)
	a.geom = orb.LineString{{0, 0}, {100, 0}}
	a.links = []roadLink{
		{linkType: LINK_PREDECESSOR, elementType: ELEMENT_JUNCTION, elementID: "J1"},
		{linkType: LINK_SUCCESSOR, elementType: ELEMENT_JUNCTION, elementID: "J2"},
	}
	c := newRoad("C", "", "J2", 10)
	c.geom = orb.LineString{{100, 0}, {110, 0}}
	c.links = []roadLink{
		{linkType: LINK_PREDECESSOR, elementType: ELEMENT_ROAD, elementID: "A", contactPoint: CONTACT_POINT_START},
	}
	roads := map[string]*Road{"A": a, "C": c}

	net := newNetwork()
	if err := buildNodes(net, []*Road{a}, []*Road{c}, roads, newDiagnostics(nil)); err != nil {
		t.Fatalf("Inner links of fully assigned roads should be tolerated, got %v", err)
	}
	if a.from != "J1" || a.to != "J2" {
		t.Errorf("Road ends should keep their junction nodes, got '%s' and '%s'", a.from, a.to)
	}
}

func TestSelfLoopRoadSplit(t *testing.T) {
	road := newRoad("R", "", "", 100)
	road.geom = orb.LineString{{0, 0}, {100, 0}}
	road.elevation = []float64{0, 0}
	road.from = "N"
	road.to = "N"
	sec := newLaneSection(0)
	l := newLane(-1)
	l.laneType = "driving"
	l.width = 3.0
	sec.right = []lane{l}
	road.sections = []*laneSection{sec}

	net := newNetwork()
	net.getOrBuildNode("N", orb.Point{0, 0})
	parser := NewParser("unused.xodr")
	diag := newDiagnostics(nil)
	buildEdges(net, []*Road{road}, parser, laneTypePolicy{}, diag)

	if len(road.sections) != 2 {
		t.Fatalf("Self-looping road should be split in two sections, got %d", len(road.sections))
	}
	if _, ok := net.edges["-R.0.00"]; !ok {
		t.Errorf("First half edge '-R.0.00' expected, got %v", net.edges)
	}
	if _, ok := net.edges["-R.50.00"]; !ok {
		t.Errorf("Second half edge '-R.50.00' expected, got %v", net.edges)
	}
	if len(net.connections) != 1 {
		t.Errorf("The halves should be connected, got %d connections", len(net.connections))
	}
	if diag.Warnings() != 1 {
		t.Errorf("Splitting should be reported once, got %d warnings", diag.Warnings())
	}
}
