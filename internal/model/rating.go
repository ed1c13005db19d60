package model

import (
	"fmt"
	"strings"
)

// Rating is a personal preference level for a program. Zero means unrated.
type Rating int

// Rating levels.
const (
	Unrated  Rating = 0
	MinRated Rating = 1
	MaxRated Rating = 3
)

// Valid reports whether r is within 0..3.
func (r Rating) Valid() bool {
	return r >= Unrated && r <= MaxRated
}

// Positive reports whether r counts as a rating signal.
func (r Rating) Positive() bool {
	return r >= MinRated && r <= MaxRated
}

// Label returns the display caption of a rating level.
func (r Rating) Label() string {
	switch r {
	case 3:
		return "Must-see"
	case 2:
		return "Very good"
	case 1:
		return "Interesting"
	case 0:
		return "Not for me"
	default:
		return fmt.Sprintf("Rating %d", int(r))
	}
}

// RatingMap maps program ids to ratings.
type RatingMap map[string]Rating

// Get returns the rating of a program, Unrated when absent.
func (m RatingMap) Get(programID string) Rating {
	if m == nil {
		return Unrated
	}
	return m[programID]
}

// Merge copies every entry of other into m, overwriting existing values.
func (m RatingMap) Merge(other RatingMap) {
	for id, r := range other {
		m[id] = r
	}
}

// CountPositive returns how many programs carry a rating above zero.
func (m RatingMap) CountPositive() int {
	n := 0
	for _, r := range m {
		if r.Positive() {
			n++
		}
	}
	return n
}

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthLabel returns the three-letter label of a month number.
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthLabels[month-1]
}

// ParseMonthLabel maps a three-letter month label back to its number.
func ParseMonthLabel(label string) (int, bool) {
	for i, l := range monthLabels {
		if strings.EqualFold(l, label) {
			return i + 1, true
		}
	}
	return 0, false
}
