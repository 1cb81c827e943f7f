package xodr2net

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
)

type xmlOpenDrive struct {
	Header    xmlHeader     `xml:"header"`
	Roads     []xmlRoad     `xml:"road"`
	Junctions []xmlJunction `xml:"junction"`
}

type xmlHeader struct {
	RevMajor int `xml:"revMajor,attr"`
	RevMinor int `xml:"revMinor,attr"`
}

type xmlRoad struct {
	ID       string  `xml:"id,attr"`
	Name     string  `xml:"name,attr"`
	Junction string  `xml:"junction,attr"`
	Length   float64 `xml:"length,attr"`

	Link       *xmlRoadLink   `xml:"link"`
	Geometries []xmlGeometry  `xml:"planView>geometry"`
	Elevations []xmlPoly      `xml:"elevationProfile>elevation"`
	Offsets    []xmlPoly      `xml:"lanes>laneOffset"`
	Sections   []xmlSection   `xml:"lanes>laneSection"`
	Signals    []xmlSignal    `xml:"signals>signal"`
	Objects    []xmlObject    `xml:"objects>object"`
}

type xmlRoadLink struct {
	Predecessor *xmlLinkTarget `xml:"predecessor"`
	Successor   *xmlLinkTarget `xml:"successor"`
}

type xmlLinkTarget struct {
	ElementType  string `xml:"elementType,attr"`
	ElementID    string `xml:"elementId,attr"`
	ContactPoint string `xml:"contactPoint,attr"`
}

type xmlGeometry struct {
	S      float64 `xml:"s,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Hdg    float64 `xml:"hdg,attr"`
	Length float64 `xml:"length,attr"`

	Line       *struct{}      `xml:"line"`
	Spiral     *xmlSpiral     `xml:"spiral"`
	Arc        *xmlArc        `xml:"arc"`
	Poly3      *xmlPoly3      `xml:"poly3"`
	ParamPoly3 *xmlParamPoly3 `xml:"paramPoly3"`
}

type xmlSpiral struct {
	CurvStart float64 `xml:"curvStart,attr"`
	CurvEnd   float64 `xml:"curvEnd,attr"`
}

type xmlArc struct {
	Curvature float64 `xml:"curvature,attr"`
}

type xmlPoly3 struct {
	A float64 `xml:"a,attr"`
	B float64 `xml:"b,attr"`
	C float64 `xml:"c,attr"`
	D float64 `xml:"d,attr"`
}

type xmlParamPoly3 struct {
	AU     float64 `xml:"aU,attr"`
	BU     float64 `xml:"bU,attr"`
	CU     float64 `xml:"cU,attr"`
	DU     float64 `xml:"dU,attr"`
	AV     float64 `xml:"aV,attr"`
	BV     float64 `xml:"bV,attr"`
	CV     float64 `xml:"cV,attr"`
	DV     float64 `xml:"dV,attr"`
	PRange string  `xml:"pRange,attr"`
}

type xmlPoly struct {
	S float64 `xml:"s,attr"`
	A float64 `xml:"a,attr"`
	B float64 `xml:"b,attr"`
	C float64 `xml:"c,attr"`
	D float64 `xml:"d,attr"`
}

type xmlSection struct {
	S      float64   `xml:"s,attr"`
	Left   []xmlLane `xml:"left>lane"`
	Center []xmlLane `xml:"center>lane"`
	Right  []xmlLane `xml:"right>lane"`
}

type xmlLane struct {
	ID    int    `xml:"id,attr"`
	Type  string `xml:"type,attr"`
	Level string `xml:"level,attr"`

	Link *struct {
		Predecessor *struct {
			ID int `xml:"id,attr"`
		} `xml:"predecessor"`
		Successor *struct {
			ID int `xml:"id,attr"`
		} `xml:"successor"`
	} `xml:"link"`

	Widths []struct {
		SOffset float64 `xml:"sOffset,attr"`
		A       float64 `xml:"a,attr"`
		B       float64 `xml:"b,attr"`
		C       float64 `xml:"c,attr"`
		D       float64 `xml:"d,attr"`
	} `xml:"width"`

	Speeds []struct {
		SOffset float64 `xml:"sOffset,attr"`
		Max     float64 `xml:"max,attr"`
		Unit    string  `xml:"unit,attr"`
	} `xml:"speed"`
}

type xmlSignal struct {
	ID          string  `xml:"id,attr"`
	S           float64 `xml:"s,attr"`
	Name        string  `xml:"name,attr"`
	Dynamic     string  `xml:"dynamic,attr"`
	Orientation string  `xml:"orientation,attr"`
	Type        string  `xml:"type,attr"`
}

type xmlObject struct {
	ID     string  `xml:"id,attr"`
	Type   string  `xml:"type,attr"`
	Name   string  `xml:"name,attr"`
	S      float64 `xml:"s,attr"`
	T      float64 `xml:"t,attr"`
	Width  float64 `xml:"width,attr"`
	Length float64 `xml:"length,attr"`
	Radius float64 `xml:"radius,attr"`
	Hdg    float64 `xml:"hdg,attr"`

	Repeats []struct {
		S          float64 `xml:"s,attr"`
		Length     float64 `xml:"length,attr"`
		Distance   float64 `xml:"distance,attr"`
		TStart     float64 `xml:"tStart,attr"`
		TEnd       float64 `xml:"tEnd,attr"`
		WidthStart float64 `xml:"widthStart,attr"`
		WidthEnd   float64 `xml:"widthEnd,attr"`
	} `xml:"repeat"`
}

type xmlJunction struct {
	ID          string `xml:"id,attr"`
	Connections []struct {
		IncomingRoad   string `xml:"incomingRoad,attr"`
		ConnectingRoad string `xml:"connectingRoad,attr"`
		ContactPoint   string `xml:"contactPoint,attr"`
		LaneLinks      []struct {
			From int `xml:"from,attr"`
			To   int `xml:"to,attr"`
		} `xml:"laneLink"`
	} `xml:"connection"`
}

// readOpenDrive parses the input file into road records. Junction connections
// are attached to their connecting road right away
func (parser *Parser) readOpenDrive(diag *diagnostics) (map[string]*Road, error) {
	file, err := os.Open(parser.filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open file")
	}
	defer file.Close()
	return readOpenDriveFrom(file, parser, diag)
}

func readOpenDriveFrom(r io.Reader, parser *Parser, diag *diagnostics) (map[string]*Road, error) {
	doc := xmlOpenDrive{}
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "Can't decode XML document")
	}
	if doc.Header.RevMajor != 1 {
		diag.Warnf("unsupported format revision %d.%d, results may be incomplete", doc.Header.RevMajor, doc.Header.RevMinor)
	}

	roads := make(map[string]*Road, len(doc.Roads))
	for i := range doc.Roads {
		road, err := convertRoad(&doc.Roads[i], parser, diag)
		if err != nil {
			return nil, err
		}
		if _, ok := roads[road.id]; ok {
			return nil, errors.Errorf("Duplicate road id '%s'", road.id)
		}
		roads[road.id] = road
	}

	for i := range doc.Junctions {
		if err := attachJunctionConnections(&doc.Junctions[i], roads, diag); err != nil {
			return nil, err
		}
	}
	return roads, nil
}

func convertRoad(x *xmlRoad, parser *Parser, diag *diagnostics) (*Road, error) {
	if x.ID == "" {
		return nil, errors.New("Road without id")
	}
	road := newRoad(x.ID, x.Name, x.Junction, x.Length)

	if x.Link != nil {
		if x.Link.Predecessor != nil {
			link, err := convertLink(x.Link.Predecessor, LINK_PREDECESSOR)
			if err != nil {
				return nil, errors.Wrapf(err, "Bad predecessor link of road '%s'", x.ID)
			}
			road.links = append(road.links, link)
		}
		if x.Link.Successor != nil {
			link, err := convertLink(x.Link.Successor, LINK_SUCCESSOR)
			if err != nil {
				return nil, errors.Wrapf(err, "Bad successor link of road '%s'", x.ID)
			}
			road.links = append(road.links, link)
		}
	}

	for i := range x.Geometries {
		prim, err := convertGeometry(&x.Geometries[i], x.ID, diag)
		if err != nil {
			return nil, err
		}
		road.geometries = append(road.geometries, prim)
	}

	for _, el := range x.Elevations {
		road.elevations = append(road.elevations, polynomial{s: el.S, a: el.A, b: el.B, c: el.C, d: el.D})
	}
	for _, off := range x.Offsets {
		road.offsets = append(road.offsets, polynomial{s: off.S, a: off.A, b: off.B, c: off.C, d: off.D})
	}
	sort.Slice(road.elevations, func(i, j int) bool { return road.elevations[i].s < road.elevations[j].s })
	sort.Slice(road.offsets, func(i, j int) bool { return road.offsets[i].s < road.offsets[j].s })

	for i := range x.Sections {
		road.sections = append(road.sections, convertSection(&x.Sections[i]))
	}
	sort.Slice(road.sections, func(i, j int) bool { return road.sections[i].s < road.sections[j].s })

	for _, sig := range x.Signals {
		orientation := 0
		switch sig.Orientation {
		case "+":
			orientation = 1
		case "-":
			orientation = -1
		}
		road.signals = append(road.signals, roadSignal{
			id:          sig.ID,
			signalType:  sig.Type,
			name:        sig.Name,
			orientation: orientation,
			dynamic:     sig.Dynamic == "yes",
			s:           sig.S,
		})
	}

	for i := range x.Objects {
		road.objects = append(road.objects, expandObject(&x.Objects[i], parser.curveResolution)...)
	}
	return road, nil
}

func convertLink(x *xmlLinkTarget, linkType roadLinkType) (roadLink, error) {
	link := roadLink{linkType: linkType, elementID: x.ElementID}
	switch x.ElementType {
	case "road":
		link.elementType = ELEMENT_ROAD
	case "junction":
		link.elementType = ELEMENT_JUNCTION
	default:
		return link, errors.Errorf("unknown element type '%s'", x.ElementType)
	}
	switch x.ContactPoint {
	case "start":
		link.contactPoint = CONTACT_POINT_START
	case "end":
		link.contactPoint = CONTACT_POINT_END
	case "":
		// the linked road is walked away from the link by default
		if linkType == LINK_PREDECESSOR {
			link.contactPoint = CONTACT_POINT_END
		} else {
			link.contactPoint = CONTACT_POINT_START
		}
	default:
		return link, errors.Errorf("unknown contact point '%s'", x.ContactPoint)
	}
	return link, nil
}

func convertGeometry(x *xmlGeometry, roadID string, diag *diagnostics) (geometryPrimitive, error) {
	prim := geometryPrimitive{s: x.S, x: x.X, y: x.Y, hdg: x.Hdg, length: x.Length}
	switch {
	case x.Line != nil:
		prim.kind = GEOMETRY_LINE
	case x.Spiral != nil:
		prim.kind = GEOMETRY_SPIRAL
		prim.params = []float64{x.Spiral.CurvStart, x.Spiral.CurvEnd}
	case x.Arc != nil:
		prim.kind = GEOMETRY_ARC
		prim.params = []float64{x.Arc.Curvature}
	case x.Poly3 != nil:
		prim.kind = GEOMETRY_POLY3
		prim.params = []float64{x.Poly3.A, x.Poly3.B, x.Poly3.C, x.Poly3.D}
	case x.ParamPoly3 != nil:
		prim.kind = GEOMETRY_PARAM_POLY3
		pRange := 1.0
		switch x.ParamPoly3.PRange {
		case "", "normalized":
		case "arcLength":
			pRange = -1.0
		default:
			diag.Warnf("invalid pRange '%s' in road '%s', assuming normalized", x.ParamPoly3.PRange, roadID)
		}
		p := x.ParamPoly3
		prim.params = []float64{p.AU, p.BU, p.CU, p.DU, p.AV, p.BV, p.CV, p.DV, pRange}
	default:
		return prim, errors.Errorf("Geometry of road '%s' at s=%f has no primitive", roadID, x.S)
	}
	return prim, nil
}

func convertSection(x *xmlSection) *laneSection {
	sec := newLaneSection(x.S)
	for i := range x.Right {
		sec.right = append(sec.right, convertLane(&x.Right[i]))
	}
	for i := range x.Left {
		sec.left = append(sec.left, convertLane(&x.Left[i]))
	}
	for i := range x.Center {
		sec.center = append(sec.center, convertLane(&x.Center[i]))
	}
	return sec
}

func convertLane(x *xmlLane) lane {
	l := newLane(x.ID)
	l.laneType = x.Type
	l.level = x.Level
	if x.Link != nil {
		if x.Link.Predecessor != nil {
			l.predecessor = x.Link.Predecessor.ID
		}
		if x.Link.Successor != nil {
			l.successor = x.Link.Successor.ID
		}
	}
	for _, w := range x.Widths {
		l.widths = append(l.widths, widthPoly{polynomial{s: w.SOffset, a: w.A, b: w.B, c: w.C, d: w.D}})
		if w.A > l.width {
			l.width = w.A
		}
	}
	sort.Slice(l.widths, func(i, j int) bool { return l.widths[i].s < l.widths[j].s })
	for _, sp := range x.Speeds {
		speed := sp.Max
		switch sp.Unit {
		case "km/h":
			speed /= 3.6
		case "mph":
			speed *= 1.609344 / 3.6
		}
		l.speeds = append(l.speeds, speedEntry{s: sp.SOffset, speed: speed})
	}
	sort.Slice(l.speeds, func(i, j int) bool { return l.speeds[i].s < l.speeds[j].s })
	return l
}

// expandObject turns repeat records into standalone objects placed along the
// road. Objects without repeats pass through unchanged
func expandObject(x *xmlObject, resolution float64) []roadObject {
	radius := x.Radius
	if radius == 0 {
		radius = -1
	}
	base := roadObject{
		id:      x.ID,
		objType: x.Type,
		name:    x.Name,
		s:       x.S,
		t:       x.T,
		width:   x.Width,
		length:  x.Length,
		radius:  radius,
		hdg:     x.Hdg,
	}
	if len(x.Repeats) == 0 {
		return []roadObject{base}
	}
	result := []roadObject{}
	index := 0
	for _, rep := range x.Repeats {
		dist := rep.Distance
		if dist == 0 {
			dist = resolution
		}
		for pos := 0.0; pos <= rep.Length+numericalEps; pos += dist {
			fraction := 0.0
			if rep.Length > 0 {
				fraction = pos / rep.Length
			}
			copied := base
			copied.id = fmt.Sprintf("%s#%d", base.id, index)
			copied.s = rep.S + pos
			copied.t = rep.TStart + (rep.TEnd-rep.TStart)*fraction
			if rep.WidthStart > 0 || rep.WidthEnd > 0 {
				copied.width = rep.WidthStart + (rep.WidthEnd-rep.WidthStart)*fraction
			}
			result = append(result, copied)
			index++
		}
	}
	return result
}

// attachJunctionConnections stores every lane link of the junction on its
// connecting road. A connection without lane links connects all lanes with
// matching identifiers
func attachJunctionConnections(x *xmlJunction, roads map[string]*Road, diag *diagnostics) error {
	for i := range x.Connections {
		xc := &x.Connections[i]
		inner, ok := roads[xc.ConnectingRoad]
		if !ok {
			return errors.Errorf("Junction '%s' references unknown connecting road '%s'", x.ID, xc.ConnectingRoad)
		}
		if _, ok := roads[xc.IncomingRoad]; !ok {
			return errors.Errorf("Junction '%s' references unknown incoming road '%s'", x.ID, xc.IncomingRoad)
		}
		toCP := CONTACT_POINT_START
		if xc.ContactPoint == "end" {
			toCP = CONTACT_POINT_END
		}
		if len(xc.LaneLinks) == 0 {
			inner.addConnection(&connection{
				fromRoad: xc.IncomingRoad,
				toRoad:   xc.ConnectingRoad,
				fromLane: 0,
				toLane:   0,
				toCP:     toCP,
				all:      true,
			})
			continue
		}
		for _, link := range xc.LaneLinks {
			inner.addConnection(&connection{
				fromRoad: xc.IncomingRoad,
				toRoad:   xc.ConnectingRoad,
				fromLane: link.From,
				toLane:   link.To,
				toCP:     toCP,
				all:      false,
			})
		}
	}
	return nil
}
