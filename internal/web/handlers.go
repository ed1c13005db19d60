package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/verte-zerg/concerto/internal/catalog"
	apperrors "github.com/verte-zerg/concerto/internal/errors"
	"github.com/verte-zerg/concerto/internal/filter"
	"github.com/verte-zerg/concerto/internal/logging"
	"github.com/verte-zerg/concerto/internal/metrics"
	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/session"
	"github.com/verte-zerg/concerto/internal/validation"
)

// reason turns an outcome into a metric label.
func reason(err error) string {
	if err == nil {
		return ""
	}
	return strings.ToLower(string(apperrors.CodeOf(err)))
}

// backToPage redirects to the page after a form post.
func backToPage(w http.ResponseWriter, r *http.Request, fragment string) {
	target := "/"
	if fragment != "" {
		target += "#" + fragment
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// formAction runs fn for an authenticated browser session and redirects back.
func (s *Server) formAction(fn func(r *http.Request, e *entry)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := s.sessions.acquire(w, r)
		defer e.mu.Unlock()

		if err := r.ParseForm(); err != nil {
			e.flash(session.Failure(apperrors.Validation("invalid form")))
			backToPage(w, r, "")
			return
		}
		if !e.session.Authenticated() {
			e.flash(session.Failure(apperrors.ErrNotAuthenticated))
			backToPage(w, r, "")
			return
		}
		fn(r, e)
		backToPage(w, r, r.PostFormValue("fragment"))
	}
}

// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.acquire(w, r)
	defer e.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, buildPage(e)); err != nil {
		logging.Error().Err(err).Msg("failed to render page")
	}
}

// POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.acquire(w, r)
	defer e.mu.Unlock()

	notice, err := e.session.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	metrics.RecordLogin(reason(err))
	if err != nil {
		e.flash(session.Failure(err))
	} else {
		e.flash(notice)
	}
	backToPage(w, r, "")
}

// POST /register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.acquire(w, r)
	defer e.mu.Unlock()

	err := e.session.Register(r.Context(),
		r.PostFormValue("email"),
		r.PostFormValue("name"),
		r.PostFormValue("password"),
		r.PostFormValue("confirm"),
	)
	metrics.RecordRegistration(reason(err))
	if err != nil {
		e.flash(session.Failure(err))
	} else {
		e.flash(session.Success("Account created. You can log in now."))
	}
	backToPage(w, r, "")
}

// POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(_ *http.Request, e *entry) {
		e.session.Logout()
		e.flash(session.Info("Logged out."))
	})(w, r)
}

// POST /filters
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(r *http.Request, e *entry) {
		next := e.session.Selection
		for _, dim := range model.Dimensions {
			if err := next.Set(dim, r.PostForm[string(dim)]); err != nil {
				e.flash(session.Failure(apperrors.Validation(err.Error())))
				return
			}
		}
		e.session.ApplySelection(next)
	})(w, r)
}

// POST /filters/clear
func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(_ *http.Request, e *entry) {
		e.session.ClearFilters()
	})(w, r)
}

// POST /ratings
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(r *http.Request, e *entry) {
		value, err := strconv.Atoi(r.PostFormValue("rating"))
		if err != nil {
			e.flash(session.Failure(apperrors.Validation(validation.MsgInvalidRating)))
			return
		}
		if err := e.session.Rate(r.PostFormValue("program_id"), model.Rating(value)); err != nil {
			e.flash(session.Failure(err))
			return
		}
		metrics.RatingsChanged.Inc()
	})(w, r)
}

// POST /ratings/save
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(r *http.Request, e *entry) {
		n, err := e.session.Save(r.Context())
		metrics.RecordSave(err)
		if err != nil {
			logging.Error().Err(err).Str("user", e.session.Email).Msg("failed to save ratings")
			e.flash(session.Failure(err))
			return
		}
		e.flash(session.SavedNotice(n))
	})(w, r)
}

// POST /ratings/load
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(r *http.Request, e *entry) {
		n, err := e.session.Load(r.Context())
		metrics.RecordLoad(reason(err))
		if err != nil {
			e.flash(session.Failure(err))
			return
		}
		e.flash(session.LoadedNotice(n))
	})(w, r)
}

// POST /reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(_ *http.Request, e *entry) {
		e.session.RequestReset()
	})(w, r)
}

// POST /reset/confirm
func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(_ *http.Request, e *entry) {
		if e.session.ConfirmReset() {
			e.flash(session.Info("Filters and ratings were reset."))
		}
	})(w, r)
}

// POST /reset/cancel
func (s *Server) handleResetCancel(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(_ *http.Request, e *entry) {
		e.session.CancelReset()
	})(w, r)
}

// POST /page
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.formAction(func(r *http.Request, e *entry) {
		e.session.SetPage(session.Page(r.PostFormValue("page")))
	})(w, r)
}

// apiSession returns the locked entry of an authenticated browser, or writes 401.
func (s *Server) apiSession(w http.ResponseWriter, r *http.Request) (*entry, bool) {
	e := s.sessions.acquire(w, r)
	if !e.session.Authenticated() {
		e.mu.Unlock()
		respondError(w, apperrors.ErrNotAuthenticated)
		return nil, false
	}
	return e, true
}

// GET /api/options
func (s *Server) handleAPIOptions(w http.ResponseWriter, r *http.Request) {
	e, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	defer e.mu.Unlock()

	view := e.session.View()
	respondData(w, optionsResponse{
		Options:     view.Options,
		MonthLabels: filter.MonthLabels(view.Options.Months),
		Selection:   e.session.Selection,
	})
}

// GET /api/programs
func (s *Server) handleAPIPrograms(w http.ResponseWriter, r *http.Request) {
	e, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	defer e.mu.Unlock()

	view := e.session.View()
	programs := catalog.GroupPrograms(view.Rows)
	respondData(w, programsResponse{
		ProgramCount: len(programs),
		WorkCount:    catalog.CountWorks(view.Rows),
		Programs:     programDTOs(programs, e.session.Ratings),
	})
}

// GET /api/coverage
func (s *Server) handleAPICoverage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	defer e.mu.Unlock()

	respondData(w, e.session.Coverage())
}

// PUT /api/ratings/{programID}
func (s *Server) handleAPIRate(w http.ResponseWriter, r *http.Request) {
	e, ok := s.apiSession(w, r)
	if !ok {
		return
	}
	defer e.mu.Unlock()

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
		respondError(w, apperrors.Validation(validation.MsgInvalidRating))
		return
	}
	programID := chi.URLParam(r, "programID")
	rating := model.Rating(*req.Rating)
	if err := e.session.Rate(programID, rating); err != nil {
		respondError(w, err)
		return
	}
	metrics.RatingsChanged.Inc()
	respondData(w, ratingResponse{ProgramID: programID, Rating: int(rating), Label: rating.Label()})
}
