// Package model defines shared data structures.
package model

// Row is one performed work within a program, as stored in the catalog.
type Row struct {
	ProgramID string
	WorkOrder int
	Title     string
	Composer  string
	Conductor string
	Session   string
	Series    string
	Weekday   string
	Month     int
}

// Work is one entry of a program's composition.
type Work struct {
	Order    int
	Title    string
	Composer string
}

// Program groups catalog rows sharing a program id for display.
type Program struct {
	ID         string
	Works      []Work
	Conductors []string
	Sessions   []string
	Series     []string
}

// Options lists the selectable values per filter dimension.
type Options struct {
	Months    []int    `json:"months"`
	Weekdays  []string `json:"weekdays"`
	Series    []string `json:"series"`
	Composers []string `json:"composers"`
}

// User is a record of the identity store.
type User struct {
	Email    string
	Name     string
	Password string
}
