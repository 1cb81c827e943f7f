package xodr2net

import (
	"math"
	"sort"
)

// splitMinWidths splits the road's lane sections wherever a vehicular lane
// crosses the minimum usable width, so that too-narrow stretches become
// sections of their own and can be demoted later. Splits landing too close to
// a section boundary or to each other are dropped. Width profile offsets are
// relative to the section start before any earlier splitting, hence the sOrig
// based coordinates throughout
func splitMinWidths(road *Road, policy laneTypePolicy, minWidth, minDist float64) {
	rebuilt := make([]*laneSection, 0, len(road.sections))
	split := false
	for j, sec := range road.sections {
		sectionEnd := road.length
		if j+1 < len(road.sections) {
			sectionEnd = road.sections[j+1].s
		}
		relStart := sec.s - sec.sOrig
		relEnd := sectionEnd - sec.sOrig
		splits := []float64{}
		for _, side := range [][]lane{sec.right, sec.left} {
			for i := range side {
				l := &side[i]
				if !policy.knows(l.laneType) || policy.discarded(l.laneType) {
					continue
				}
				if policy.permissions(l.laneType)&^permissionsNonMotor == 0 {
					continue
				}
				splits = findWidthSplits(l.widths, relStart, relEnd, minWidth, splits)
			}
		}
		rebuilt = append(rebuilt, sec)
		if len(splits) == 0 {
			continue
		}
		sort.Float64s(splits)
		accepted := []float64{}
		prev := relStart
		for _, offset := range splits {
			if offset-relStart < minDist {
				continue
			}
			if relEnd-offset < minDist {
				continue
			}
			if offset-prev < minDist && len(accepted) > 0 {
				continue
			}
			accepted = append(accepted, offset)
			prev = offset
		}
		if len(accepted) == 0 {
			continue
		}
		split = true
		pieces := []*laneSection{sec}
		for _, offset := range accepted {
			piece := sec.clone()
			piece.s = sec.sOrig + offset
			piece.sOrig = sec.sOrig
			setStraightConnections(piece)
			pieces = append(pieces, piece)
			rebuilt = append(rebuilt, piece)
		}
		for k, piece := range pieces {
			pieceStart := piece.s - sec.sOrig
			pieceEnd := relEnd
			if k+1 < len(pieces) {
				pieceEnd = pieces[k+1].s - sec.sOrig
			}
			recomputeWidths(piece, pieceStart, pieceEnd)
		}
	}
	if split {
		road.sections = rebuilt
	}
}

// findWidthSplits scans the width profile for crossings of the minimum width
// inside [relStart, relEnd] and appends the crossing offsets. The linear
// estimate between the interval ends is refined in positionEps steps until the
// profile value is within numericalEps of the threshold
func findWidthSplits(widths []widthPoly, relStart, relEnd, minWidth float64, splits []float64) []float64 {
	if len(widths) == 0 {
		return splits
	}
	sPrev := math.Max(widths[0].s, relStart)
	wPrev := widths[0].computeAt(sPrev)
	for k := range widths {
		if widths[k].s <= sPrev {
			wPrev = widths[k].computeAt(sPrev)
		}
	}
	for k := range widths {
		sEnd := relEnd
		if k+1 < len(widths) && widths[k+1].s < sEnd {
			sEnd = widths[k+1].s
		}
		if sEnd <= sPrev {
			continue
		}
		w := widths[k].computeAt(sEnd)
		if (wPrev < minWidth) != (w < minWidth) {
			splitPos := sPrev + (sEnd-sPrev)/math.Abs(w-wPrev)*math.Abs(minWidth-wPrev)
			wSplit := widths[k].computeAt(splitPos)
			for iter := 0; math.Abs(wSplit-minWidth) > numericalEps && iter < 10000; iter++ {
				if (wSplit < minWidth) == (w > wPrev) {
					splitPos += positionEps
				} else {
					splitPos -= positionEps
				}
				if splitPos < sPrev || splitPos > sEnd {
					break
				}
				wSplit = widths[k].computeAt(splitPos)
			}
			if splitPos < sPrev {
				splitPos = sPrev
			}
			if splitPos > sEnd {
				splitPos = sEnd
			}
			splits = append(splits, splitPos)
		}
		wPrev = w
		sPrev = sEnd
	}
	return splits
}

// recomputeWidths sets every lane width to the maximum the profile reaches
// inside the sub-interval [relStart, relEnd] of the original section
func recomputeWidths(sec *laneSection, relStart, relEnd float64) {
	for _, side := range [][]lane{sec.right, sec.left} {
		for i := range side {
			l := &side[i]
			if len(l.widths) == 0 {
				continue
			}
			max := 0.0
			candidates := []float64{relStart, relEnd}
			for k := range l.widths {
				candidates = append(candidates, l.widths[k].s)
			}
			for _, pos := range candidates {
				if pos < relStart {
					pos = relStart
				}
				if pos > relEnd {
					pos = relEnd
				}
				if w := l.widthAt(pos); w > max {
					max = w
				}
			}
			l.width = max
		}
	}
}

// setStraightConnections makes every lane of a split-off section continue its
// own counterpart of the preceding piece
func setStraightConnections(sec *laneSection) {
	for _, side := range [][]lane{sec.right, sec.left} {
		for i := range side {
			side[i].predecessor = side[i].id
		}
	}
}
