package xodr2net

import (
	"strings"
	"testing"
)

const sampleDocument = `<?xml version="1.0"?>
<OpenDRIVE>
  <header revMajor="1" revMinor="4"/>
  <road id="1" name="Main street" junction="-1" length="100">
    <link>
      <successor elementType="road" elementId="2"/>
    </link>
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="60"><line/></geometry>
      <geometry s="60" x="60" y="0" hdg="0" length="40"><arc curvature="0.01"/></geometry>
    </planView>
    <elevationProfile>
      <elevation s="0" a="1" b="0.01" c="0" d="0"/>
    </elevationProfile>
    <lanes>
      <laneOffset s="0" a="0.5" b="0" c="0" d="0"/>
      <laneSection s="0">
        <left>
          <lane id="1" type="driving" level="false">
            <width sOffset="0" a="3.0"/>
          </lane>
        </left>
        <center>
          <lane id="0" type="none" level="false"/>
        </center>
        <right>
          <lane id="-1" type="driving" level="false">
            <link><successor id="-1"/></link>
            <width sOffset="0" a="3.25"/>
            <width sOffset="50" a="3.75"/>
            <speed sOffset="0" max="36" unit="km/h"/>
          </lane>
        </right>
      </laneSection>
    </lanes>
    <signals>
      <signal id="sig1" s="90" name="tl" dynamic="yes" orientation="+" type="1000001"/>
    </signals>
  </road>
  <road id="2" name="" junction="-1" length="50">
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
  <road id="10" name="" junction="5" length="10">
    <planView>
      <geometry s="0" x="0" y="0" hdg="0" length="10"><line/></geometry>
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
  <junction id="5">
    <connection id="0" incomingRoad="1" connectingRoad="10" contactPoint="start"/>
  </junction>
</OpenDRIVE>`

func parseSample(t *testing.T) map[string]*Road {
	t.Helper()
	parser := NewParser("inline.xodr")
	diag := newDiagnostics(nil)
	roads, err := readOpenDriveFrom(strings.NewReader(sampleDocument), parser, diag)
	if err != nil {
		t.Fatal(err)
	}
	return roads
}

func TestReadRoads(t *testing.T) {
	roads := parseSample(t)
	if len(roads) != 3 {
		t.Fatalf("Document contains 3 roads, got %d", len(roads))
	}
	road := roads["1"]
	if road.name != "Main street" || road.length != 100 {
		t.Errorf("Road attributes mismatch: '%s' %f", road.name, road.length)
	}
	if road.isInner() {
		t.Errorf("Road with junction '-1' should not be treated as internal")
	}
	if !roads["10"].isInner() {
		t.Errorf("Road with a junction id should be treated as internal")
	}
	if len(road.geometries) != 2 || road.geometries[1].kind != GEOMETRY_ARC {
		t.Errorf("Expected line and arc primitives, got %v", road.geometries)
	}
	if len(road.elevations) != 1 || len(road.offsets) != 1 {
		t.Errorf("Elevation and offset profiles should be read, got %d and %d", len(road.elevations), len(road.offsets))
	}
}

func TestReadLanes(t *testing.T) {
	roads := parseSample(t)
	sec := roads["1"].sections[0]
	if len(sec.right) != 1 || len(sec.left) != 1 || len(sec.center) != 1 {
		t.Fatalf("Lane side counts mismatch: %d/%d/%d", len(sec.right), len(sec.left), len(sec.center))
	}
	l := sec.right[0]
	if l.successor != -1 {
		t.Errorf("Lane successor should be -1, got %d", l.successor)
	}
	if sec.left[0].successor != unsetLane {
		t.Errorf("Lane without a link should keep its successor unset")
	}
	// width tracks the maximum a coefficient
	if l.width != 3.75 {
		t.Errorf("Lane width should be the maximum recorded 3.75, got %f", l.width)
	}
	if Round(l.speeds[0].speed, 0.0001) != 10 {
		t.Errorf("36 km/h should be converted to 10 m/s, got %f", l.speeds[0].speed)
	}
}

func TestReadLinkDefaults(t *testing.T) {
	roads := parseSample(t)
	link := roads["1"].links[0]
	if link.linkType != LINK_SUCCESSOR || link.elementType != ELEMENT_ROAD {
		t.Errorf("Successor road link expected, got %v", link)
	}
	// a successor without explicit contact point is entered at its start
	if link.contactPoint != CONTACT_POINT_START {
		t.Errorf("Default contact point for successors should be start, got %v", link.contactPoint)
	}
}

func TestReadSignals(t *testing.T) {
	roads := parseSample(t)
	signals := roads["1"].signals
	if len(signals) != 1 {
		t.Fatalf("One signal expected, got %d", len(signals))
	}
	if signals[0].orientation != 1 || !signals[0].dynamic || signals[0].signalType != "1000001" {
		t.Errorf("Signal attributes mismatch: %+v", signals[0])
	}
}

func TestReadWildcardJunctionConnection(t *testing.T) {
	roads := parseSample(t)
	conns := roads["10"].orderedConnections()
	if len(conns) != 1 {
		t.Fatalf("Wildcard connection should be stored on the connecting road, got %d", len(conns))
	}
	c := conns[0]
	if !c.all {
		t.Errorf("Connection without lane links should connect all lanes")
	}
	if c.fromRoad != "1" || c.toRoad != "10" || c.toCP != CONTACT_POINT_START {
		t.Errorf("Connection endpoints mismatch: %+v", c)
	}
}

func TestReadUnknownRoadInJunction(t *testing.T) {
	doc := strings.Replace(sampleDocument, `connectingRoad="10"`, `connectingRoad="99"`, 1)
	parser := NewParser("inline.xodr")
	diag := newDiagnostics(nil)
	if _, err := readOpenDriveFrom(strings.NewReader(doc), parser, diag); err == nil {
		t.Errorf("Junction referencing an unknown road should fail")
	}
}
