package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/concerto/internal/catalog"
	apperrors "github.com/verte-zerg/concerto/internal/errors"
	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/ratings"
)

type fakeUsers struct {
	users map[string]model.User
}

func (f *fakeUsers) GetUser(_ context.Context, email string) (model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return model.User{}, apperrors.ErrUnknownIdentity
	}
	return u, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u model.User) error {
	if _, ok := f.users[u.Email]; ok {
		return apperrors.ErrAlreadyRegistered
	}
	f.users[u.Email] = u
	return nil
}

type countingStore struct {
	RatingStore
	loads int
}

func (c *countingStore) Load(ctx context.Context, email string, m model.RatingMap) (int, error) {
	c.loads++
	return c.RatingStore.Load(ctx, email, m)
}

type brokenStore struct{}

func (brokenStore) Save(context.Context, string, model.RatingMap) error { return fmt.Errorf("disk gone") }
func (brokenStore) Load(context.Context, string, model.RatingMap) (int, error) {
	return 0, fmt.Errorf("disk gone")
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]model.Row{
		{ProgramID: "P1", Composer: "Beethoven", Series: "A", Weekday: "Thu", Month: 3},
		{ProgramID: "P2", Composer: "Mozart", Series: "A", Weekday: "Sat", Month: 4},
		{ProgramID: "P3", Composer: "Ravel", Series: "B", Weekday: "Sun", Month: 5},
	})
}

func newTestSession(t *testing.T) (*Session, *countingStore, *ratings.Files) {
	t.Helper()
	files := ratings.NewFiles(t.TempDir())
	store := &countingStore{RatingStore: files}
	users := &fakeUsers{users: map[string]model.User{
		"ana@example.com": {Email: "ana@example.com", Name: "Ana", Password: "pw"},
	}}
	s := New(Deps{Users: users, Ratings: store, Catalog: testCatalog()})
	return s, store, files
}

func TestLoginErrorsLeaveSessionUntouched(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	_, err := s.Login(ctx, "ghost@example.com", "pw")
	assert.ErrorIs(t, err, apperrors.ErrUnknownIdentity)
	_, err = s.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = s.Login(ctx, "", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.False(t, s.Authenticated())
	assert.False(t, s.RatingsLoaded)
}

func TestLoginAutoLoadsOnce(t *testing.T) {
	s, store, files := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, files.Save(ctx, "ana@example.com", model.RatingMap{"P1": 3}))

	notice, err := s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, LevelSuccess, notice.Level)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "Ana", s.Name)
	assert.True(t, s.RatingsLoaded)
	assert.Equal(t, model.Rating(3), s.Ratings["P1"])

	require.NoError(t, s.Rate("P1", 1))
	notice, err = s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, notice.Empty())
	assert.Equal(t, 1, store.loads)
	assert.Equal(t, model.Rating(1), s.Ratings["P1"])
}

func TestLoginWithoutSavedFileIsSilent(t *testing.T) {
	s, _, _ := newTestSession(t)
	notice, err := s.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, notice.Empty())
	assert.True(t, s.RatingsLoaded)
	assert.Empty(t, s.Ratings)
}

func TestLoginReportsBrokenStorage(t *testing.T) {
	users := &fakeUsers{users: map[string]model.User{"a@b.co": {Email: "a@b.co", Name: "A", Password: "x"}}}
	s := New(Deps{Users: users, Ratings: brokenStore{}, Catalog: testCatalog()})
	notice, err := s.Login(context.Background(), "a@b.co", "x")
	require.NoError(t, err)
	assert.Equal(t, LevelError, notice.Level)
	assert.True(t, s.Authenticated())
}

func TestExplicitLoadMerges(t *testing.T) {
	s, _, files := newTestSession(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, s.Rate("P2", 2))
	require.NoError(t, s.Rate("P3", 1))
	require.NoError(t, files.Save(ctx, "ana@example.com", model.RatingMap{"P1": 3, "P2": 0}))

	n, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, model.RatingMap{"P1": 3, "P2": 0, "P3": 1}, s.Ratings)
}

func TestExplicitLoadMissingFileWarns(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Rate("P1", 2))

	_, err = s.Load(ctx)
	require.ErrorIs(t, err, apperrors.ErrNoSavedRatings)
	assert.Equal(t, LevelWarning, Failure(err).Level)
	assert.Equal(t, model.RatingMap{"P1": 2}, s.Ratings)
}

func TestSaveThenReload(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Rate("P1", 3))
	require.NoError(t, s.Rate("P2", 0))

	n, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s.Ratings = model.RatingMap{}
	_, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.RatingMap{"P1": 3, "P2": 0}, s.Ratings)
}

func TestRateRules(t *testing.T) {
	s, _, _ := newTestSession(t)
	assert.ErrorIs(t, s.Rate("P1", 2), apperrors.ErrNotAuthenticated)

	_, err := s.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Rate("P1", 4), apperrors.ErrValidation)
	assert.ErrorIs(t, s.Rate("missing", 2), apperrors.ErrNotFound)
	assert.Empty(t, s.Ratings)

	require.NoError(t, s.Rate("P1", 2))
	require.NoError(t, s.Rate("P1", 0))
	assert.Equal(t, model.Rating(0), s.Ratings["P1"])
}

func TestClearFiltersKeepsRatings(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Rate("P1", 3))
	require.NoError(t, s.Toggle(model.DimSeries, "A"))
	require.NoError(t, s.SetFilter(model.DimMonth, []string{"Mar"}))

	assert.Len(t, s.View().Rows, 1)
	s.ClearFilters()
	assert.True(t, s.Selection.IsEmpty())
	assert.Equal(t, model.RatingMap{"P1": 3}, s.Ratings)
	assert.Len(t, s.View().Rows, 3)
}

func TestResetKeepsIdentity(t *testing.T) {
	s, store, _ := newTestSession(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Rate("P1", 3))
	require.NoError(t, s.Toggle(model.DimComposer, "Mozart"))
	s.SetPage(PageCoverage)

	assert.False(t, s.ConfirmReset(), "confirm without request is a no-op")
	assert.Len(t, s.Ratings, 1)

	s.RequestReset()
	s.CancelReset()
	assert.False(t, s.ConfirmReset())

	s.RequestReset()
	require.True(t, s.ConfirmReset())
	assert.Equal(t, "ana@example.com", s.Email)
	assert.Equal(t, "Ana", s.Name)
	assert.Empty(t, s.Ratings)
	assert.True(t, s.Selection.IsEmpty())
	assert.True(t, s.RatingsLoaded)
	assert.False(t, s.ResetPending)
	assert.Equal(t, PagePrograms, s.Page)

	_, err = s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, 1, store.loads)
}

func TestLogoutClearsEverything(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Rate("P1", 3))
	s.Logout()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Ratings)
	assert.False(t, s.RatingsLoaded)
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	err := s.Register(ctx, "new@example.com", "New", "a", "b")
	assert.Equal(t, "passwords do not match", apperrors.Message(err))
	err = s.Register(ctx, "new@example.com", "", "a", "a")
	assert.Equal(t, "fill in all fields", apperrors.Message(err))
	err = s.Register(ctx, "ana@example.com", "Ana", "a", "a")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)

	require.NoError(t, s.Register(ctx, "new@example.com", "New", "a", "a"))
	assert.False(t, s.Authenticated())
	_, err = s.Login(ctx, "new@example.com", "a")
	require.NoError(t, err)
}

func TestPageToggleAndCoverage(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)

	assert.True(t, s.Coverage().Empty())
	require.NoError(t, s.Rate("P3", 3))
	s.TogglePage()
	assert.Equal(t, PageCoverage, s.Page)
	report := s.Coverage()
	require.False(t, report.Empty())
	assert.Equal(t, "B", report.Series[0].Series)
	s.TogglePage()
	assert.Equal(t, PagePrograms, s.Page)
}

func TestLoginAsAnotherUserStartsClean(t *testing.T) {
	s, store, files := newTestSession(t)
	ctx := context.Background()
	s.deps.Users.(*fakeUsers).users["bob@example.com"] = model.User{Email: "bob@example.com", Name: "Bob", Password: "pw2"}

	_, err := s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Rate("P1", 3))
	require.NoError(t, s.Toggle(model.DimSeries, "A"))
	s.SetPage(PageCoverage)

	_, err = s.Login(ctx, "bob@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, "ana@example.com", s.Email, "failed login keeps the current user")
	assert.Equal(t, model.RatingMap{"P1": 3}, s.Ratings)

	_, err = s.Login(ctx, "bob@example.com", "pw2")
	require.NoError(t, err)
	assert.Equal(t, "Bob", s.Name)
	assert.Empty(t, s.Ratings)
	assert.True(t, s.Selection.IsEmpty())
	assert.Equal(t, PagePrograms, s.Page)
	assert.Equal(t, 2, store.loads, "the new identity gets its own hydration")

	require.NoError(t, s.Rate("P2", 2))
	_, err = s.Save(ctx)
	require.NoError(t, err)
	saved := model.RatingMap{}
	_, err = files.Load(ctx, "bob@example.com", saved)
	require.NoError(t, err)
	assert.Equal(t, model.RatingMap{"P2": 2}, saved)
}

func TestLoginAgainKeepsState(t *testing.T) {
	s, store, _ := newTestSession(t)
	ctx := context.Background()
	_, err := s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Rate("P1", 3))

	_, err = s.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, model.RatingMap{"P1": 3}, s.Ratings)
	assert.Equal(t, 1, store.loads)
}

func TestNarrowingDropsUnavailableComposers(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.Login(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, s.Toggle(model.DimComposer, "Ravel"))
	require.NoError(t, s.Toggle(model.DimComposer, "Mozart"))
	require.NoError(t, s.Toggle(model.DimSeries, "A"))
	assert.Equal(t, []string{"Mozart"}, s.Selection.Composers)
	assert.Len(t, s.View().Rows, 1)

	require.NoError(t, s.SetFilter(model.DimMonth, []string{"Mar"}))
	assert.Empty(t, s.Selection.Composers)
	assert.Len(t, s.View().Rows, 1, "P1 shows once the hidden composer is gone")

	s.ApplySelection(model.Selection{Series: []string{"B"}, Composers: []string{"Beethoven", "Ravel"}})
	assert.Equal(t, []string{"Ravel"}, s.Selection.Composers)
}
