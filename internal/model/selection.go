package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension names a filterable catalog column.
type Dimension string

// Filter dimensions.
const (
	DimMonth    Dimension = "month"
	DimWeekday  Dimension = "weekday"
	DimSeries   Dimension = "series"
	DimComposer Dimension = "composer"
)

// Dimensions lists the filter dimensions in display order.
var Dimensions = []Dimension{DimMonth, DimWeekday, DimSeries, DimComposer}

// ParseDimension maps a dimension name to a Dimension.
func ParseDimension(name string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(name))) {
	case DimMonth:
		return DimMonth, nil
	case DimWeekday:
		return DimWeekday, nil
	case DimSeries:
		return DimSeries, nil
	case DimComposer:
		return DimComposer, nil
	default:
		return "", fmt.Errorf("unknown filter dimension %q", name)
	}
}

// Selection holds the selected values per dimension. An empty set means no restriction.
type Selection struct {
	Months    []int    `json:"months"`
	Weekdays  []string `json:"weekdays"`
	Series    []string `json:"series"`
	Composers []string `json:"composers"`
}

// IsEmpty reports whether no dimension restricts the catalog.
func (s Selection) IsEmpty() bool {
	return len(s.Months) == 0 && len(s.Weekdays) == 0 && len(s.Series) == 0 && len(s.Composers) == 0
}

// Clear resets every dimension to unrestricted.
func (s *Selection) Clear() {
	*s = Selection{}
}

// Values returns the selected values of a dimension as strings.
func (s Selection) Values(dim Dimension) []string {
	switch dim {
	case DimMonth:
		out := make([]string, len(s.Months))
		for i, m := range s.Months {
			out[i] = strconv.Itoa(m)
		}
		return out
	case DimWeekday:
		return append([]string(nil), s.Weekdays...)
	case DimSeries:
		return append([]string(nil), s.Series...)
	case DimComposer:
		return append([]string(nil), s.Composers...)
	}
	return nil
}

// Has reports whether value is selected in dim.
func (s Selection) Has(dim Dimension, value string) bool {
	for _, v := range s.Values(dim) {
		if v == value {
			return true
		}
	}
	return false
}

// Set replaces the selected values of a dimension.
func (s *Selection) Set(dim Dimension, values []string) error {
	switch dim {
	case DimMonth:
		months := make([]int, 0, len(values))
		for _, v := range values {
			m, err := parseMonthValue(v)
			if err != nil {
				return err
			}
			months = appendUniqueInt(months, m)
		}
		s.Months = months
	case DimWeekday:
		s.Weekdays = uniqueStrings(values)
	case DimSeries:
		s.Series = uniqueStrings(values)
	case DimComposer:
		s.Composers = uniqueStrings(values)
	default:
		return fmt.Errorf("unknown filter dimension %q", dim)
	}
	return nil
}

// Toggle adds value to dim when absent and removes it otherwise.
func (s *Selection) Toggle(dim Dimension, value string) error {
	current := s.Values(dim)
	if dim == DimMonth {
		m, err := parseMonthValue(value)
		if err != nil {
			return err
		}
		value = strconv.Itoa(m)
	}
	next := make([]string, 0, len(current)+1)
	removed := false
	for _, v := range current {
		if v == value {
			removed = true
			continue
		}
		next = append(next, v)
	}
	if !removed {
		next = append(next, value)
	}
	return s.Set(dim, next)
}

func parseMonthValue(v string) (int, error) {
	v = strings.TrimSpace(v)
	if m, ok := ParseMonthLabel(v); ok {
		return m, nil
	}
	m, err := strconv.Atoi(v)
	if err != nil || m < 1 || m > 12 {
		return 0, fmt.Errorf("invalid month %q", v)
	}
	return m, nil
}

func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func appendUniqueInt(values []int, v int) []int {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
