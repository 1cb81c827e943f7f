package xodr2net

import (
	"math"
	"testing"
)

func narrowingRoad() *Road {
	road := newRoad("R1", "", "", 100)
	sec := newLaneSection(0)
	l := newLane(-1)
	l.laneType = "driving"
	l.widths = []widthPoly{
		{polynomial{s: 0, a: 3.0}},
		{polynomial{s: 50, a: 1.5}},
	}
	l.width = 3.0
	sec.right = []lane{l}
	road.sections = []*laneSection{sec}
	return road
}

func TestSplitMinWidths(t *testing.T) {
	road := narrowingRoad()
	splitMinWidths(road, laneTypePolicy{}, 2.0, 2.0)
	if len(road.sections) != 2 {
		t.Fatalf("Width drop below 2.0 should split the section, got %d sections", len(road.sections))
	}
	if math.Abs(road.sections[1].s-50) > positionEps {
		t.Errorf("Split should land at the width drop near 50, but got %f", road.sections[1].s)
	}
	if road.sections[0].right[0].width != 3.0 {
		t.Errorf("Wide part should keep width 3.0, got %f", road.sections[0].right[0].width)
	}
	if road.sections[1].right[0].width != 1.5 {
		t.Errorf("Narrow part should get width 1.5, got %f", road.sections[1].right[0].width)
	}
	// the split-off part continues its own lanes
	if road.sections[1].right[0].predecessor != -1 {
		t.Errorf("Split-off lane should continue lane -1, got %d", road.sections[1].right[0].predecessor)
	}
}

func TestSplitMinWidthsIdempotent(t *testing.T) {
	road := narrowingRoad()
	splitMinWidths(road, laneTypePolicy{}, 2.0, 2.0)
	count := len(road.sections)
	splitMinWidths(road, laneTypePolicy{}, 2.0, 2.0)
	if len(road.sections) != count {
		t.Errorf("Second split pass should change nothing, got %d sections after %d", len(road.sections), count)
	}
}

func TestSplitMinWidthsIgnoresFootpaths(t *testing.T) {
	road := narrowingRoad()
	road.sections[0].right[0].laneType = "sidewalk"
	splitMinWidths(road, laneTypePolicy{}, 2.0, 2.0)
	if len(road.sections) != 1 {
		t.Errorf("Pedestrian-only lanes should not trigger splits, got %d sections", len(road.sections))
	}
}

func TestSplitMinWidthsNearBoundary(t *testing.T) {
	road := newRoad("R1", "", "", 100)
	sec := newLaneSection(0)
	l := newLane(-1)
	l.laneType = "driving"
	l.widths = []widthPoly{
		{polynomial{s: 0, a: 3.0}},
		{polynomial{s: 99.5, a: 1.0}},
	}
	l.width = 3.0
	sec.right = []lane{l}
	road.sections = []*laneSection{sec}
	splitMinWidths(road, laneTypePolicy{}, 2.0, 2.0)
	if len(road.sections) != 1 {
		t.Errorf("Split closer than the spacing to the section end should be dropped, got %d sections", len(road.sections))
	}
}

func TestNarrowLaneDemotion(t *testing.T) {
	parser := NewParser("unused.xodr")
	policy := laneTypePolicy{}
	l := newLane(-1)
	l.laneType = "driving"
	l.width = 1.5
	attrs := laneAttributes(&l, parser, policy)
	if attrs.Permissions != PERMISSION_EMERGENCY|PERMISSION_AUTHORITY {
		t.Errorf("Too narrow driving lane should be demoted to emergency access, got %s", attrs.Permissions)
	}

	l.width = 3.0
	attrs = laneAttributes(&l, parser, policy)
	if attrs.Permissions&PERMISSION_PASSENGER == 0 {
		t.Errorf("Wide driving lane should keep passenger permissions, got %s", attrs.Permissions)
	}
	if attrs.Width != 3.0 {
		t.Errorf("Recorded width should win over the type default, got %f", attrs.Width)
	}
	if attrs.Speed != defaultLaneSpeed {
		t.Errorf("Lane without a limit should use the type default speed, got %f", attrs.Speed)
	}
}
