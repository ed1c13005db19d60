// Package filter resolves a filter selection against the catalog.
package filter

import (
	"strconv"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/model"
)

// Result is the filtered view plus the options each selector may offer.
type Result struct {
	Rows    []model.Row
	Options model.Options
}

// Resolve returns the rows matching every non-empty dimension of sel.
// Dimensions are ANDed; values within one dimension are ORed.
func Resolve(cat *catalog.Catalog, sel model.Selection) Result {
	m := newMatcher(sel)
	all := cat.Rows()

	rows := make([]model.Row, 0, len(all))
	composerScope := make([]model.Row, 0, len(all))
	for _, r := range all {
		if !m.matchScope(r) {
			continue
		}
		composerScope = append(composerScope, r)
		if m.matchComposer(r) {
			rows = append(rows, r)
		}
	}

	return Result{
		Rows: rows,
		Options: model.Options{
			// Month, weekday and series always list the whole catalog so a
			// selection never hides its own alternatives. Only composers narrow.
			Months:    cat.Months(),
			Weekdays:  cat.Weekdays(),
			Series:    cat.Series(),
			Composers: catalog.DistinctStrings(composerScope, func(r model.Row) string { return r.Composer }),
		},
	}
}

type matcher struct {
	months    map[int]struct{}
	weekdays  map[string]struct{}
	series    map[string]struct{}
	composers map[string]struct{}
}

func newMatcher(sel model.Selection) matcher {
	m := matcher{
		weekdays:  toSet(sel.Weekdays),
		series:    toSet(sel.Series),
		composers: toSet(sel.Composers),
	}
	if len(sel.Months) > 0 {
		m.months = make(map[int]struct{}, len(sel.Months))
		for _, month := range sel.Months {
			m.months[month] = struct{}{}
		}
	}
	return m
}

// matchScope tests month, weekday and series, the dimensions composer options depend on.
func (m matcher) matchScope(r model.Row) bool {
	if m.months != nil {
		if _, ok := m.months[r.Month]; !ok {
			return false
		}
	}
	return in(m.weekdays, r.Weekday) && in(m.series, r.Series)
}

func (m matcher) matchComposer(r model.Row) bool {
	return in(m.composers, r.Composer)
}

// in reports membership; a nil set places no restriction.
func in(set map[string]struct{}, v string) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// MonthLabels renders month options as three-letter labels.
func MonthLabels(months []int) []string {
	out := make([]string, 0, len(months))
	for _, m := range months {
		if label := model.MonthLabel(m); label != "" {
			out = append(out, label)
			continue
		}
		out = append(out, strconv.Itoa(m))
	}
	return out
}
