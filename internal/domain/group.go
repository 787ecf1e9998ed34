package domain

import "sort"

// ProjectGroup is one project's trips in chronological order.
type ProjectGroup struct {
	Project string         `json:"project"`
	Trips   []ResolvedTrip `json:"trips"`
}

// ProjectGroups is an ordered mapping from project identifier to that
// project's trips. Group order follows the first appearance of each
// project identifier in the input; a plain map would lose that ordering.
type ProjectGroups []ProjectGroup

// GroupByProject groups trips by project identifier and sorts each group
// by trip start time ascending.
//
// The project identifier is used exactly as given, with no normalization.
// A typo in a project name produces a distinct group on purpose: project
// separation is an external contract with the business process, and
// silently merging near-identical names would hide data problems.
//
// The in-group sort is stable, so trips sharing a start time keep their
// original input order. Report consumers expect a deterministic
// chronological listing.
func GroupByProject(trips []ResolvedTrip) ProjectGroups {
	var groups ProjectGroups
	index := make(map[string]int)

	for _, t := range trips {
		i, ok := index[t.Record.Project]
		if !ok {
			i = len(groups)
			index[t.Record.Project] = i
			groups = append(groups, ProjectGroup{Project: t.Record.Project})
		}
		groups[i].Trips = append(groups[i].Trips, t)
	}

	for i := range groups {
		sort.SliceStable(groups[i].Trips, func(a, b int) bool {
			return groups[i].Trips[a].Record.StartTime.Before(groups[i].Trips[b].Record.StartTime)
		})
	}

	return groups
}

// Find returns the group for the given project identifier, matched
// exactly.
func (g ProjectGroups) Find(project string) (ProjectGroup, bool) {
	for _, group := range g {
		if group.Project == project {
			return group, true
		}
	}
	return ProjectGroup{}, false
}
