package xodr2net

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func TestPrepareWKT(t *testing.T) {
	pt := PrepareWKTPoint(orb.Point{1.5, 2.5})
	if pt != "POINT(1.500000 2.500000)" {
		t.Errorf("WKT point mismatch: '%s'", pt)
	}
	line := PrepareWKTLinestring(orb.LineString{{0, 0}, {1, 1}})
	if line != "LINESTRING(0.000000 0.000000,1.000000 1.000000)" {
		t.Errorf("WKT linestring mismatch: '%s'", line)
	}
}

func TestPrepareGeoJSON(t *testing.T) {
	pt := PrepareGeoJSONPoint(orb.Point{1, 2})
	if !strings.Contains(pt, `"Point"`) || !strings.Contains(pt, "[1,2]") {
		t.Errorf("GeoJSON point mismatch: '%s'", pt)
	}
	line := PrepareGeoJSONLinestring(orb.LineString{{0, 0}, {1, 1}})
	if !strings.Contains(line, `"LineString"`) {
		t.Errorf("GeoJSON linestring mismatch: '%s'", line)
	}
}
