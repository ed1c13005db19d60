// Package session holds one user's dashboard state and every action on it.
package session

import (
	"context"
	"fmt"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/coverage"
	apperrors "github.com/verte-zerg/concerto/internal/errors"
	"github.com/verte-zerg/concerto/internal/filter"
	"github.com/verte-zerg/concerto/internal/logging"
	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/validation"
)

// Page selects the main dashboard view.
type Page string

// Pages.
const (
	PagePrograms Page = "programs"
	PageCoverage Page = "coverage"
)

// Identities looks up and registers users.
type Identities interface {
	GetUser(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, u model.User) error
}

// RatingStore persists a user's rating map.
type RatingStore interface {
	Save(ctx context.Context, email string, m model.RatingMap) error
	Load(ctx context.Context, email string, m model.RatingMap) (int, error)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Users   Identities
	Ratings RatingStore
	Catalog *catalog.Catalog
	Weights coverage.Weights
}

// Session is the state of one signed-in (or signing-in) user.
type Session struct {
	deps Deps

	Email string
	Name  string

	Selection     model.Selection
	Ratings       model.RatingMap
	RatingsLoaded bool
	ResetPending  bool
	Page          Page
}

// New returns a signed-out session.
func New(deps Deps) *Session {
	if deps.Weights == (coverage.Weights{}) {
		deps.Weights = coverage.DefaultWeights
	}
	s := &Session{deps: deps}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.Email = ""
	s.Name = ""
	s.Selection = model.Selection{}
	s.Ratings = model.RatingMap{}
	s.RatingsLoaded = false
	s.ResetPending = false
	s.Page = PagePrograms
}

// Authenticated reports whether an identity is attached.
func (s *Session) Authenticated() bool {
	return s.Email != ""
}

// Catalog returns the shared catalog.
func (s *Session) Catalog() *catalog.Catalog {
	return s.deps.Catalog
}

// Login authenticates and hydrates the rating map once per identity.
// The returned Notice describes the hydration; auth failures leave the session untouched.
// Signing in as someone else first clears the whole session.
func (s *Session) Login(ctx context.Context, email, password string) (Notice, error) {
	if err := validation.Struct(validation.Login{Email: email, Password: password}); err != nil {
		return Notice{}, err
	}
	u, err := s.deps.Users.GetUser(ctx, email)
	if err != nil {
		return Notice{}, err
	}
	// Plain-text comparison; credentials need hashing before any shared deployment.
	if u.Password != password {
		logging.Warn().Str("user", u.Email).Msg("login rejected")
		return Notice{}, apperrors.ErrInvalidCredentials
	}
	// A different identity never inherits the previous user's state.
	if s.Authenticated() && s.Email != u.Email {
		logging.Info().Str("user", s.Email).Msg("replaced by another login")
		s.reset()
	}
	s.Email = u.Email
	s.Name = u.Name
	logging.Info().Str("user", s.Email).Msg("logged in")
	return s.autoLoad(ctx), nil
}

// autoLoad runs the one automatic hydration after login. A missing file is silent.
func (s *Session) autoLoad(ctx context.Context) Notice {
	if s.RatingsLoaded {
		return Notice{}
	}
	s.RatingsLoaded = true
	n, err := s.deps.Ratings.Load(ctx, s.Email, s.Ratings)
	switch {
	case err == nil:
		logging.Info().Str("user", s.Email).Int("rated", n).Msg("ratings restored")
		return Success(fmt.Sprintf("Restored %d saved ratings.", n))
	case apperrors.IsWarning(err):
		return Notice{}
	default:
		logging.Error().Err(err).Str("user", s.Email).Msg("failed to restore ratings")
		return Failure(err)
	}
}

// Register creates an identity. It does not sign in.
func (s *Session) Register(ctx context.Context, email, name, password, confirm string) error {
	form := validation.Registration{Email: email, Name: name, Password: password, Confirm: confirm}
	if err := validation.Struct(form); err != nil {
		return err
	}
	if err := s.deps.Users.CreateUser(ctx, model.User{Email: email, Name: name, Password: password}); err != nil {
		return err
	}
	logging.Info().Str("user", email).Msg("registered")
	return nil
}

// Logout clears the whole session, identity included.
func (s *Session) Logout() {
	if s.Authenticated() {
		logging.Info().Str("user", s.Email).Msg("logged out")
	}
	s.reset()
}

// Rate sets the rating of one program.
func (s *Session) Rate(programID string, rating model.Rating) error {
	if !s.Authenticated() {
		return apperrors.ErrNotAuthenticated
	}
	if err := validation.Struct(validation.RatingInput{ProgramID: programID, Rating: int(rating)}); err != nil {
		return err
	}
	if s.deps.Catalog != nil && !s.deps.Catalog.HasProgram(programID) {
		return apperrors.NotFound(fmt.Sprintf("program %s not found", programID))
	}
	s.Ratings[programID] = rating
	return nil
}

// Save overwrites the user's rating file with the whole map.
func (s *Session) Save(ctx context.Context) (int, error) {
	if !s.Authenticated() {
		return 0, apperrors.ErrNotAuthenticated
	}
	if err := s.deps.Ratings.Save(ctx, s.Email, s.Ratings); err != nil {
		return 0, err
	}
	logging.Info().Str("user", s.Email).Int("rated", len(s.Ratings)).Msg("ratings saved")
	return len(s.Ratings), nil
}

// Load merges the saved ratings into the map. A missing file is a warning.
func (s *Session) Load(ctx context.Context) (int, error) {
	if !s.Authenticated() {
		return 0, apperrors.ErrNotAuthenticated
	}
	n, err := s.deps.Ratings.Load(ctx, s.Email, s.Ratings)
	if err != nil {
		return 0, err
	}
	s.RatingsLoaded = true
	logging.Info().Str("user", s.Email).Int("rated", n).Msg("ratings loaded")
	return n, nil
}

// Toggle flips one filter value.
func (s *Session) Toggle(dim model.Dimension, value string) error {
	if err := s.Selection.Toggle(dim, value); err != nil {
		return err
	}
	s.pruneComposers()
	return nil
}

// SetFilter replaces one dimension's selection.
func (s *Session) SetFilter(dim model.Dimension, values []string) error {
	if err := s.Selection.Set(dim, values); err != nil {
		return err
	}
	s.pruneComposers()
	return nil
}

// ApplySelection replaces every dimension at once.
func (s *Session) ApplySelection(sel model.Selection) {
	s.Selection = sel
	s.pruneComposers()
}

// pruneComposers drops selected composers that the month, weekday and series
// selections no longer offer.
func (s *Session) pruneComposers() {
	if len(s.Selection.Composers) == 0 || s.deps.Catalog == nil {
		return
	}
	available := make(map[string]struct{})
	for _, c := range s.View().Options.Composers {
		available[c] = struct{}{}
	}
	kept := s.Selection.Composers[:0:0]
	for _, c := range s.Selection.Composers {
		if _, ok := available[c]; ok {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(s.Selection.Composers) {
		return
	}
	logging.Debug().Strs("kept", kept).Strs("selected", s.Selection.Composers).Msg("pruned unavailable composers")
	if len(kept) == 0 {
		kept = nil
	}
	s.Selection.Composers = kept
}

// ClearFilters empties every selection. Ratings are kept.
func (s *Session) ClearFilters() {
	s.Selection.Clear()
}

// RequestReset asks for confirmation before a full reset.
func (s *Session) RequestReset() {
	s.ResetPending = true
}

// CancelReset drops a pending reset.
func (s *Session) CancelReset() {
	s.ResetPending = false
}

// ConfirmReset clears filters and ratings but keeps the identity.
// Ratings are marked loaded so nothing re-hydrates. It reports whether a reset was pending.
func (s *Session) ConfirmReset() bool {
	if !s.ResetPending {
		return false
	}
	email, name := s.Email, s.Name
	s.reset()
	s.Email, s.Name = email, name
	s.RatingsLoaded = true
	logging.Info().Str("user", s.Email).Msg("session reset")
	return true
}

// SetPage switches the main view.
func (s *Session) SetPage(p Page) {
	if p != PageCoverage {
		p = PagePrograms
	}
	s.Page = p
}

// TogglePage switches between the two views.
func (s *Session) TogglePage() {
	if s.Page == PageCoverage {
		s.Page = PagePrograms
		return
	}
	s.Page = PageCoverage
}

// View resolves the current selection against the catalog.
func (s *Session) View() filter.Result {
	return filter.Resolve(s.deps.Catalog, s.Selection)
}

// Coverage scores the rating map against the full catalog.
func (s *Session) Coverage() coverage.Report {
	return coverage.ScoreWeighted(s.deps.Catalog, s.Ratings, s.deps.Weights)
}
