// Package catalog holds the immutable concert program catalog.
package catalog

import (
	"sort"

	"github.com/verte-zerg/concerto/internal/model"
)

// Catalog is the full, read-only set of program rows loaded at startup.
type Catalog struct {
	rows      []model.Row
	months    []int
	weekdays  []string
	series    []string
	composers []string
	programs  map[string]struct{}
}

// New builds a catalog from rows. The slice is copied.
func New(rows []model.Row) *Catalog {
	c := &Catalog{rows: append([]model.Row(nil), rows...)}
	c.months = DistinctMonths(c.rows)
	c.weekdays = DistinctStrings(c.rows, func(r model.Row) string { return r.Weekday })
	c.series = DistinctStrings(c.rows, func(r model.Row) string { return r.Series })
	c.composers = DistinctStrings(c.rows, func(r model.Row) string { return r.Composer })
	c.programs = make(map[string]struct{}, len(c.rows))
	for _, r := range c.rows {
		c.programs[r.ProgramID] = struct{}{}
	}
	return c
}

// Rows returns the catalog rows in load order. Callers must not modify them.
func (c *Catalog) Rows() []model.Row {
	if c == nil {
		return nil
	}
	return c.rows
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// Months returns the sorted distinct months.
func (c *Catalog) Months() []int {
	if c == nil {
		return nil
	}
	return append([]int(nil), c.months...)
}

// Weekdays returns the sorted distinct weekdays.
func (c *Catalog) Weekdays() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.weekdays...)
}

// Series returns the sorted distinct series.
func (c *Catalog) Series() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.series...)
}

// Composers returns the sorted distinct composers.
func (c *Catalog) Composers() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.composers...)
}

// ProgramCount returns the number of distinct program ids.
func (c *Catalog) ProgramCount() int {
	if c == nil {
		return 0
	}
	return len(c.programs)
}

// HasProgram reports whether any row carries the program id.
func (c *Catalog) HasProgram(programID string) bool {
	if c == nil {
		return false
	}
	_, ok := c.programs[programID]
	return ok
}

// DistinctMonths returns the sorted distinct non-zero months of rows.
func DistinctMonths(rows []model.Row) []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, r := range rows {
		if r.Month == 0 {
			continue
		}
		if _, ok := seen[r.Month]; ok {
			continue
		}
		seen[r.Month] = struct{}{}
		out = append(out, r.Month)
	}
	sort.Ints(out)
	return out
}

// DistinctStrings returns the sorted distinct non-empty values of field.
func DistinctStrings(rows []model.Row, field func(model.Row) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range rows {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CountWorks returns the number of distinct work titles in rows.
func CountWorks(rows []model.Row) int {
	seen := map[string]struct{}{}
	for _, r := range rows {
		if r.Title == "" {
			continue
		}
		seen[r.Title] = struct{}{}
	}
	return len(seen)
}
