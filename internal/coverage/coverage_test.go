package coverage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/model"
)

func scenarioCatalog() *catalog.Catalog {
	return catalog.New([]model.Row{
		{ProgramID: "P1", Series: "A", Weekday: "Thu"},
		{ProgramID: "P1", Series: "A", Weekday: "Sat"},
		{ProgramID: "P2", Series: "A", Weekday: "Sat"},
		{ProgramID: "P3", Series: "B", Weekday: "Sun"},
		{ProgramID: "P4", Series: "C", Weekday: "Fri"},
	})
}

func find(t *testing.T, r Report, series string) SeriesCoverage {
	t.Helper()
	for _, sc := range r.Series {
		if sc.Series == series {
			return sc
		}
	}
	t.Fatalf("series %q not in report", series)
	return SeriesCoverage{}
}

func TestScoreScenario(t *testing.T) {
	report := Score(scenarioCatalog(), model.RatingMap{"P1": 3, "P2": 3, "P3": 1})
	require.False(t, report.Empty())
	require.Len(t, report.Series, 3)

	a := find(t, report, "A")
	assert.InDelta(t, 100, a.Coverage[3], 1e-9)
	assert.InDelta(t, 0, a.Coverage[1], 1e-9)
	assert.InDelta(t, 500, a.Score, 1e-9)

	b := find(t, report, "B")
	assert.InDelta(t, 100, b.Coverage[1], 1e-9)
	assert.InDelta(t, 100, b.Score, 1e-9)

	c := find(t, report, "C")
	assert.InDelta(t, 0, c.Score, 1e-9)

	assert.Equal(t, []string{"A", "B", "C"}, []string{report.Series[0].Series, report.Series[1].Series, report.Series[2].Series})
	assert.Equal(t, [4]int{0, 1, 0, 2}, report.Rated)
}

func TestScoreCoverageSumsToHundred(t *testing.T) {
	cat := scenarioCatalog()
	report := Score(cat, model.RatingMap{"P1": 2, "P2": 1, "P3": 2, "P4": 2})
	for level := 1; level <= 3; level++ {
		if report.Rated[level] == 0 {
			continue
		}
		sum := 0.0
		for _, sc := range report.Series {
			sum += sc.Coverage[level]
		}
		assert.InDelta(t, 100, sum, 1e-9, "level %d", level)
	}
}

func TestScoreEmptyWithoutPositiveRatings(t *testing.T) {
	cat := scenarioCatalog()
	assert.True(t, Score(cat, nil).Empty())
	assert.True(t, Score(cat, model.RatingMap{"P1": 0, "P2": 0}).Empty())
	assert.True(t, Score(cat, model.RatingMap{"unknown": 3}).Empty())
}

func TestScoreIgnoresUnknownPrograms(t *testing.T) {
	ratings := model.RatingMap{"P3": 3, "ghost": 3}
	report := Score(scenarioCatalog(), ratings)
	b := find(t, report, "B")
	assert.InDelta(t, 100, b.Coverage[3], 1e-9)
	assert.Equal(t, 1, report.Rated[3])
	assert.Equal(t, 2, ratings.CountPositive(), "the map itself still holds both entries")

	assert.True(t, Score(scenarioCatalog(), model.RatingMap{"ghost": 3}).Empty())
}

func TestScoreTiesKeepSeriesOrder(t *testing.T) {
	report := Score(scenarioCatalog(), model.RatingMap{"P3": 2, "P4": 2})
	require.Len(t, report.Series, 3)
	assert.Equal(t, "B", report.Series[0].Series)
	assert.Equal(t, "C", report.Series[1].Series)
	assert.Equal(t, "A", report.Series[2].Series)
}

func TestScoreWeekdayMixByFrequency(t *testing.T) {
	cat := catalog.New([]model.Row{
		{ProgramID: "P1", Series: "A", Weekday: "Thu"},
		{ProgramID: "P1", Series: "A", Weekday: "Sat"},
		{ProgramID: "P2", Series: "A", Weekday: "Sat"},
		{ProgramID: "P3", Series: "A", Weekday: "Fri"},
	})
	report := Score(cat, model.RatingMap{"P1": 1})
	assert.Equal(t, []string{"Sat", "Thu", "Fri"}, report.Series[0].Weekdays)
}

func TestScoreWeightedOverridesWeights(t *testing.T) {
	report := ScoreWeighted(scenarioCatalog(), model.RatingMap{"P1": 3, "P3": 1}, Weights{Level3: 0, Level2: 0, Level1: 1})
	assert.Equal(t, "B", report.Series[0].Series)
	assert.InDelta(t, 100, report.Series[0].Score, 1e-9)
}

func TestScoreDeterministic(t *testing.T) {
	cat := scenarioCatalog()
	ratings := model.RatingMap{"P1": 1, "P2": 2, "P3": 3, "P4": 1}
	first := Score(cat, ratings)
	for i := 0; i < 10; i++ {
		next := Score(cat, ratings)
		require.Equal(t, first, next)
	}
	for _, sc := range first.Series {
		assert.False(t, math.IsNaN(sc.Score))
	}
}
