package web

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/chart"
	"github.com/verte-zerg/concerto/internal/coverage"
	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/session"
)

var templateFuncs = template.FuncMap{
	"percent": chart.Percent,
	"axis":    chart.AxisLabel,
	"color":   func(level int) string { return chart.LevelColors[level] },
	"share":   func(sc coverage.SeriesCoverage, level int) float64 { return sc.Coverage[level] },
	"caption": func(level int) string { return model.Rating(level).Label() },
	"score":   func(v float64) string { return strconv.FormatFloat(v, 'f', 0, 64) },
	"rank":    func(i int) int { return i + 1 },
}

type optionItem struct {
	Value    string
	Label    string
	Selected bool
}

type selector struct {
	Dim   string
	Title string
	Items []optionItem
}

type ratingChoice struct {
	Value int
	Label string
}

// programCard is one program as the rate view shows it.
type programCard struct {
	ID         string
	Works      []string
	Conductors string
	Sessions   string
	Series     string
	Rating     int
}

type pageData struct {
	Authenticated bool
	Name          string
	Email         string
	Notice        session.Notice
	ResetPending  bool
	Coverage      bool

	Selectors    []selector
	ProgramCount int
	WorkCount    int
	Cards        []programCard
	Choices      []ratingChoice

	Report coverage.Report
	Levels []int
}

func buildPage(e *entry) pageData {
	s := e.session
	data := pageData{
		Authenticated: s.Authenticated(),
		Name:          s.Name,
		Email:         s.Email,
		Notice:        e.takeNotice(),
		ResetPending:  s.ResetPending,
		Coverage:      s.Page == session.PageCoverage,
	}
	if !data.Authenticated {
		return data
	}

	view := s.View()
	data.Selectors = selectors(view.Options, s.Selection)
	if data.Coverage {
		data.Report = s.Coverage()
		data.Levels = chart.Levels
		return data
	}

	programs := catalog.GroupPrograms(view.Rows)
	data.ProgramCount = len(programs)
	data.WorkCount = catalog.CountWorks(view.Rows)
	data.Cards = cards(programs, s.Ratings)
	for r := model.MaxRated; r >= model.Unrated; r-- {
		data.Choices = append(data.Choices, ratingChoice{Value: int(r), Label: r.Label()})
	}
	return data
}

func selectors(opts model.Options, sel model.Selection) []selector {
	months := make([]optionItem, 0, len(opts.Months))
	for _, m := range opts.Months {
		v := strconv.Itoa(m)
		label := model.MonthLabel(m)
		if label == "" {
			label = v
		}
		months = append(months, optionItem{Value: v, Label: label, Selected: sel.Has(model.DimMonth, v)})
	}
	return []selector{
		{Dim: string(model.DimMonth), Title: "Month", Items: months},
		{Dim: string(model.DimWeekday), Title: "Weekday", Items: items(model.DimWeekday, opts.Weekdays, sel)},
		{Dim: string(model.DimSeries), Title: "Series", Items: items(model.DimSeries, opts.Series, sel)},
		{Dim: string(model.DimComposer), Title: "Composer", Items: items(model.DimComposer, opts.Composers, sel)},
	}
}

func items(dim model.Dimension, values []string, sel model.Selection) []optionItem {
	out := make([]optionItem, 0, len(values))
	for _, v := range values {
		out = append(out, optionItem{Value: v, Label: v, Selected: sel.Has(dim, v)})
	}
	return out
}

func cards(programs []model.Program, ratings model.RatingMap) []programCard {
	out := make([]programCard, 0, len(programs))
	for _, p := range programs {
		works := make([]string, 0, len(p.Works))
		for _, w := range p.Works {
			works = append(works, workLine(w))
		}
		out = append(out, programCard{
			ID:         p.ID,
			Works:      works,
			Conductors: strings.Join(p.Conductors, ", "),
			Sessions:   strings.Join(p.Sessions, ", "),
			Series:     strings.Join(p.Series, ", "),
			Rating:     int(ratings.Get(p.ID)),
		})
	}
	return out
}

func workLine(w model.Work) string {
	if w.Composer == "" {
		return w.Title
	}
	return w.Title + " - " + w.Composer
}

// API payloads.

type workDTO struct {
	Order    int    `json:"order"`
	Title    string `json:"title"`
	Composer string `json:"composer"`
}

type programDTO struct {
	ID         string    `json:"program_id"`
	Works      []workDTO `json:"works"`
	Conductors []string  `json:"conductors"`
	Sessions   []string  `json:"sessions"`
	Series     []string  `json:"series"`
	Rating     int       `json:"rating"`
}

type programsResponse struct {
	ProgramCount int          `json:"program_count"`
	WorkCount    int          `json:"work_count"`
	Programs     []programDTO `json:"programs"`
}

type optionsResponse struct {
	Options     model.Options   `json:"options"`
	MonthLabels []string        `json:"month_labels"`
	Selection   model.Selection `json:"selection"`
}

type ratingRequest struct {
	Rating *int `json:"rating"`
}

type ratingResponse struct {
	ProgramID string `json:"program_id"`
	Rating    int    `json:"rating"`
	Label     string `json:"label"`
}

func programDTOs(programs []model.Program, ratings model.RatingMap) []programDTO {
	out := make([]programDTO, 0, len(programs))
	for _, p := range programs {
		works := make([]workDTO, 0, len(p.Works))
		for _, w := range p.Works {
			works = append(works, workDTO{Order: w.Order, Title: w.Title, Composer: w.Composer})
		}
		out = append(out, programDTO{
			ID:         p.ID,
			Works:      works,
			Conductors: p.Conductors,
			Sessions:   p.Sessions,
			Series:     p.Series,
			Rating:     int(ratings.Get(p.ID)),
		})
	}
	return out
}
