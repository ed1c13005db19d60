// Package coverage ranks concert series by how well they cover a user's rated programs.
package coverage

import (
	"sort"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/model"
)

// Weights scales the coverage of each rating level into a series score.
type Weights struct {
	Level3 float64
	Level2 float64
	Level1 float64
}

// DefaultWeights favours must-see programs over merely interesting ones.
var DefaultWeights = Weights{Level3: 5, Level2: 3, Level1: 1}

func (w Weights) of(level int) float64 {
	switch level {
	case 3:
		return w.Level3
	case 2:
		return w.Level2
	case 1:
		return w.Level1
	}
	return 0
}

// SeriesCoverage is one ranked series.
type SeriesCoverage struct {
	Series string `json:"series"`
	// Coverage holds the percentage per rating level; index 0 is unused.
	Coverage [4]float64 `json:"coverage"`
	Score    float64    `json:"score"`
	Weekdays []string   `json:"weekdays"`
}

// Report is the ranked coverage of every catalog series.
type Report struct {
	Series []SeriesCoverage `json:"series"`
	// Rated counts rated catalog programs per level; index 0 is unused.
	// Entries for ids outside the catalog are not counted.
	Rated [4]int `json:"rated"`
}

// Empty reports whether no program carries a positive rating.
func (r Report) Empty() bool {
	return len(r.Series) == 0
}

// Score ranks series using DefaultWeights.
func Score(cat *catalog.Catalog, ratings model.RatingMap) Report {
	return ScoreWeighted(cat, ratings, DefaultWeights)
}

// ScoreWeighted ranks series by the weighted sum of their per-level coverage.
// Ratings of 0 and program ids missing from the catalog are ignored, so the
// per-level denominators count rated catalog programs rather than every entry
// of the rating map. A map holding only unknown ids yields an empty report.
func ScoreWeighted(cat *catalog.Catalog, ratings model.RatingMap, w Weights) Report {
	idx := indexCatalog(cat)

	var byLevel [4][]string
	for id, r := range ratings {
		if !r.Positive() {
			continue
		}
		if !cat.HasProgram(id) {
			continue
		}
		byLevel[r] = append(byLevel[r], id)
	}

	var report Report
	total := 0
	for level := 1; level <= 3; level++ {
		report.Rated[level] = len(byLevel[level])
		total += len(byLevel[level])
	}
	if total == 0 {
		return Report{}
	}

	report.Series = make([]SeriesCoverage, 0, len(idx.series))
	for _, name := range idx.series {
		sc := SeriesCoverage{Series: name, Weekdays: idx.weekdays[name]}
		members := idx.members[name]
		for level := 1; level <= 3; level++ {
			rated := byLevel[level]
			if len(rated) == 0 {
				continue
			}
			hits := 0
			for _, id := range rated {
				if _, ok := members[id]; ok {
					hits++
				}
			}
			sc.Coverage[level] = float64(hits) / float64(len(rated)) * 100
			sc.Score += w.of(level) * sc.Coverage[level]
		}
		report.Series = append(report.Series, sc)
	}

	sort.SliceStable(report.Series, func(i, j int) bool {
		return report.Series[i].Score > report.Series[j].Score
	})
	return report
}

type catalogIndex struct {
	series   []string
	members  map[string]map[string]struct{}
	weekdays map[string][]string
}

func indexCatalog(cat *catalog.Catalog) catalogIndex {
	idx := catalogIndex{
		series:   cat.Series(),
		members:  map[string]map[string]struct{}{},
		weekdays: map[string][]string{},
	}
	counts := map[string]map[string]int{}
	order := map[string][]string{}
	for _, r := range cat.Rows() {
		if r.Series == "" {
			continue
		}
		if idx.members[r.Series] == nil {
			idx.members[r.Series] = map[string]struct{}{}
			counts[r.Series] = map[string]int{}
		}
		idx.members[r.Series][r.ProgramID] = struct{}{}
		if r.Weekday == "" {
			continue
		}
		if counts[r.Series][r.Weekday] == 0 {
			order[r.Series] = append(order[r.Series], r.Weekday)
		}
		counts[r.Series][r.Weekday]++
	}
	for name, days := range order {
		c := counts[name]
		sort.SliceStable(days, func(i, j int) bool { return c[days[i]] > c[days[j]] })
		idx.weekdays[name] = days
	}
	return idx
}
