package xodr2net

import (
	"math"
	"os"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// exportObjects writes every roadside object as a GeoJSON feature. Objects
// with a radius become points, the remaining ones rectangles spanned by their
// length, width and heading
func exportObjects(roads []*Road, fname string, diag *diagnostics) error {
	collection := geojson.NewFeatureCollection()
	for _, road := range roads {
		if len(road.geom) < 2 {
			continue
		}
		for i := range road.objects {
			o := &road.objects[i]
			feature := objectFeature(road, o)
			if feature == nil {
				diag.Warnf("skipping object '%s' on road '%s' with degenerate shape", o.id, road.id)
				continue
			}
			collection.AddFeature(feature)
		}
	}
	data, err := collection.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't marshal objects")
	}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		return errors.Wrap(err, "Can't write objects file")
	}
	return nil
}

func objectFeature(road *Road, o *roadObject) *geojson.Feature {
	ref := lateralPosition(road.geom, o.s, o.t)
	var feature *geojson.Feature
	if o.radius >= 0 {
		feature = geojson.NewPointFeature([]float64{ref[0], ref[1]})
	} else {
		hdg := rotationAtDistance(road.geom, o.s) + o.hdg
		ring := objectRectangle(ref, hdg, o.length, o.width)
		if ring == nil {
			return nil
		}
		feature = geojson.NewPolygonFeature([][][]float64{ring})
	}
	feature.SetProperty("id", o.id)
	feature.SetProperty("type", o.objType)
	feature.SetProperty("name", o.name)
	feature.SetProperty("road_id", road.id)
	return feature
}

// lateralPosition walks the line to the running coordinate and steps sideways,
// positive offsets to the left of the walking direction
func lateralPosition(line orb.LineString, s, t float64) orb.Point {
	base := pointAtDistance(line, s)
	hdg := rotationAtDistance(line, s)
	sin, cos := math.Sincos(hdg)
	return orb.Point{base[0] - sin*t, base[1] + cos*t}
}

func objectRectangle(center orb.Point, hdg, length, width float64) [][]float64 {
	if length <= 0 || width <= 0 {
		return nil
	}
	sin, cos := math.Sincos(hdg)
	halfL := length / 2
	halfW := width / 2
	corners := [][2]float64{
		{-halfL, -halfW},
		{halfL, -halfW},
		{halfL, halfW},
		{-halfL, halfW},
		{-halfL, -halfW},
	}
	ring := make([][]float64, len(corners))
	for i, corner := range corners {
		x := center[0] + corner[0]*cos - corner[1]*sin
		y := center[1] + corner[0]*sin + corner[1]*cos
		ring[i] = []float64{x, y}
	}
	return ring
}
