package catalog

import (
	"sort"
	"strings"

	"github.com/verte-zerg/concerto/internal/model"
)

type workKey struct {
	order    int
	title    string
	composer string
}

// GroupPrograms groups rows by program id for card display.
// Programs keep first-appearance order; works are ordered by work order.
// A session cell may list several comma-separated sessions.
func GroupPrograms(rows []model.Row) []model.Program {
	index := map[string]int{}
	var programs []model.Program
	works := map[string]map[workKey]struct{}{}
	conductors := map[string]map[string]struct{}{}
	sessions := map[string]map[string]struct{}{}
	series := map[string]map[string]struct{}{}

	for _, r := range rows {
		i, ok := index[r.ProgramID]
		if !ok {
			i = len(programs)
			index[r.ProgramID] = i
			programs = append(programs, model.Program{ID: r.ProgramID})
			works[r.ProgramID] = map[workKey]struct{}{}
			conductors[r.ProgramID] = map[string]struct{}{}
			sessions[r.ProgramID] = map[string]struct{}{}
			series[r.ProgramID] = map[string]struct{}{}
		}
		p := &programs[i]
		key := workKey{order: r.WorkOrder, title: r.Title, composer: r.Composer}
		if _, seen := works[r.ProgramID][key]; !seen {
			works[r.ProgramID][key] = struct{}{}
			p.Works = append(p.Works, model.Work{Order: r.WorkOrder, Title: r.Title, Composer: r.Composer})
		}
		if r.Conductor != "" {
			conductors[r.ProgramID][r.Conductor] = struct{}{}
		}
		for _, session := range strings.Split(r.Session, ",") {
			if session = strings.TrimSpace(session); session != "" {
				sessions[r.ProgramID][session] = struct{}{}
			}
		}
		if r.Series != "" {
			if _, seen := series[r.ProgramID][r.Series]; !seen {
				series[r.ProgramID][r.Series] = struct{}{}
				p.Series = append(p.Series, r.Series)
			}
		}
	}

	for i := range programs {
		p := &programs[i]
		sort.SliceStable(p.Works, func(a, b int) bool { return p.Works[a].Order < p.Works[b].Order })
		p.Conductors = sortedKeys(conductors[p.ID])
		p.Sessions = sortedKeys(sessions[p.ID])
	}
	return programs
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
