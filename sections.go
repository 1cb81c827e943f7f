package xodr2net

// revisitLaneSections expands sections at speed limit changes, checks the
// section ordering and removes sections that start almost on top of their
// predecessor. Roads inside junctions keep near-duplicate sections since their
// connection resolution relies on the exact section list
func revisitLaneSections(roads []*Road, policy laneTypePolicy, diag *diagnostics) {
	for _, road := range roads {
		expanded := make([]*laneSection, 0, len(road.sections))
		for _, sec := range road.sections {
			expanded = append(expanded, sec.buildSpeedChanges(policy)...)
		}
		road.sections = expanded

		for i := 1; i < len(road.sections); i++ {
			if road.sections[i].s <= road.sections[i-1].s {
				diag.Warnf("lane sections of road '%s' are not sorted by start position", road.id)
				break
			}
		}

		if road.isInner() {
			continue
		}
		pruned := make([]*laneSection, 0, len(road.sections))
		for i, sec := range road.sections {
			if i > 0 && sec.s-pruned[len(pruned)-1].s < positionEps {
				continue
			}
			pruned = append(pruned, sec)
		}
		road.sections = pruned
	}
}
