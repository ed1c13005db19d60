package web

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/concerto/internal/catalog"
	"github.com/verte-zerg/concerto/internal/model"
	"github.com/verte-zerg/concerto/internal/ratings"
	"github.com/verte-zerg/concerto/internal/session"
	"github.com/verte-zerg/concerto/internal/store"
)

type testServer struct {
	url   string
	files *ratings.Files
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	files := ratings.NewFiles(filepath.Join(dir, "ratings"))
	cat := catalog.New([]model.Row{
		{ProgramID: "P1", WorkOrder: 1, Title: "Symphony 5", Composer: "Beethoven", Conductor: "Karabtchevsky", Session: "Thu 20h", Series: "A", Weekday: "Thu", Month: 3},
		{ProgramID: "P2", WorkOrder: 1, Title: "Requiem", Composer: "Mozart", Conductor: "Minczuk", Session: "Sat 16h", Series: "A", Weekday: "Sat", Month: 4},
		{ProgramID: "P3", WorkOrder: 1, Title: "Bolero", Composer: "Ravel", Conductor: "Minczuk", Session: "Sun 11h", Series: "B", Weekday: "Sun", Month: 5},
	})

	srv, err := New(session.Deps{Users: st, Ratings: files, Catalog: cat}, opts)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{url: ts.URL, files: files}
}

// browser is a client with its own cookie jar, i.e. its own session.
func (ts *testServer) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postForm(t *testing.T, c *http.Client, target string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(target, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func getJSON(t *testing.T, c *http.Client, target string, out any) int {
	t.Helper()
	resp, err := c.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.NoError(t, json.Unmarshal(env.Data, out))
	return resp.StatusCode
}

func putRating(t *testing.T, c *http.Client, target, body string) (int, Envelope) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, target, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func signIn(t *testing.T, ts *testServer, c *http.Client) {
	t.Helper()
	status, body := postForm(t, c, ts.url+"/register", url.Values{
		"email": {"ana@example.com"}, "name": {"Ana"}, "password": {"pw"}, "confirm": {"pw"},
	})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Account created")

	status, body = postForm(t, c, ts.url+"/login", url.Values{"email": {"ana@example.com"}, "password": {"pw"}})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "Ana &lt;ana@example.com&gt;")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})
	var health HealthResponse
	status := getJSON(t, ts.browser(t), ts.url+"/health", &health)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 3, health.Programs)
}

func TestAPIRequiresLogin(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := ts.browser(t).Get(ts.url + "/api/coverage")
	require.NoError(t, err)
	defer resp.Body.Close()

	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_AUTHENTICATED", env.Code)
}

func TestLoginFailureShowsNotice(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)

	_, body := postForm(t, c, ts.url+"/login", url.Values{"email": {"ghost@example.com"}, "password": {"x"}})
	assert.Contains(t, body, "user not found")
	assert.Contains(t, body, `action="/register"`)

	_, body = postForm(t, c, ts.url+"/register", url.Values{"email": {"a@b.co"}, "name": {"A"}, "password": {"1"}, "confirm": {"2"}})
	assert.Contains(t, body, "passwords do not match")
}

func TestRateAndCoverage(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)

	status, env := putRating(t, c, ts.url+"/api/ratings/P3", `{"rating": 3}`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
	status, _ = putRating(t, c, ts.url+"/api/ratings/P1", `{"rating": 1}`)
	require.Equal(t, http.StatusOK, status)

	var report struct {
		Series []struct {
			Series   string     `json:"series"`
			Coverage [4]float64 `json:"coverage"`
		} `json:"series"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, c, ts.url+"/api/coverage", &report))
	require.Len(t, report.Series, 2)
	assert.Equal(t, "B", report.Series[0].Series)
	assert.InDelta(t, 100, report.Series[0].Coverage[3], 1e-9)

	var programs programsResponse
	require.Equal(t, http.StatusOK, getJSON(t, c, ts.url+"/api/programs", &programs))
	assert.Equal(t, 3, programs.ProgramCount)
	assert.Equal(t, 3, programs.Programs[2].Rating)
}

func TestRateValidation(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)

	status, env := putRating(t, c, ts.url+"/api/ratings/P1", `{"rating": 7}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", env.Code)

	status, env = putRating(t, c, ts.url+"/api/ratings/P9", `{"rating": 2}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Code)

	status, _ = putRating(t, c, ts.url+"/api/ratings/P1", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFiltersKeepFullOptions(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)

	status, body := postForm(t, c, ts.url+"/filters", url.Values{"series": {"A"}, "month": {"3", "4"}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "2 programs / 2 works")

	var opts optionsResponse
	require.Equal(t, http.StatusOK, getJSON(t, c, ts.url+"/api/options", &opts))
	assert.Equal(t, []string{"A", "B"}, opts.Options.Series)
	assert.Equal(t, []int{3, 4, 5}, opts.Options.Months)
	assert.Equal(t, []string{"Mar", "Apr", "May"}, opts.MonthLabels)
	assert.Equal(t, []string{"Beethoven", "Mozart"}, opts.Options.Composers)
	assert.Equal(t, []string{"A"}, opts.Selection.Series)

	_, body = postForm(t, c, ts.url+"/filters/clear", nil)
	assert.Contains(t, body, "3 programs / 3 works")
}

func TestSaveAndLoadForms(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)

	_, body := postForm(t, c, ts.url+"/ratings/load", nil)
	assert.Contains(t, body, "no saved ratings found")

	_, body = postForm(t, c, ts.url+"/ratings", url.Values{"program_id": {"P2"}, "rating": {"2"}})
	assert.NotContains(t, body, "notice error")

	_, body = postForm(t, c, ts.url+"/ratings/save", nil)
	assert.Contains(t, body, "Saved 1 ratings.")
	assert.FileExists(t, ts.files.Path("ana@example.com"))

	_, body = postForm(t, c, ts.url+"/ratings/load", nil)
	assert.Contains(t, body, "Loaded 1 ratings.")
}

func TestResetNeedsConfirmation(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)
	status, _ := putRating(t, c, ts.url+"/api/ratings/P1", `{"rating": 3}`)
	require.Equal(t, http.StatusOK, status)

	_, body := postForm(t, c, ts.url+"/reset", nil)
	assert.Contains(t, body, "Yes, reset")
	_, body = postForm(t, c, ts.url+"/reset/cancel", nil)
	assert.NotContains(t, body, "Yes, reset")

	postForm(t, c, ts.url+"/reset", nil)
	_, body = postForm(t, c, ts.url+"/reset/confirm", nil)
	assert.Contains(t, body, "Filters and ratings were reset.")
	assert.Contains(t, body, "ana@example.com")

	var programs programsResponse
	require.Equal(t, http.StatusOK, getJSON(t, c, ts.url+"/api/programs", &programs))
	for _, p := range programs.Programs {
		assert.Zero(t, p.Rating)
	}
}

func TestPageToggleAndLogout(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)

	_, body := postForm(t, c, ts.url+"/page", url.Values{"page": {"coverage"}})
	assert.Contains(t, body, "Start rating programs to see coverage.")

	_, body = postForm(t, c, ts.url+"/logout", nil)
	assert.Contains(t, body, "Logged out.")
	assert.Contains(t, body, `action="/login"`)

	resp, err := c.Get(ts.url + "/api/options")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionsAreIsolated(t *testing.T) {
	ts := newTestServer(t, Options{})
	signIn(t, ts, ts.browser(t))

	resp, err := ts.browser(t).Get(ts.url + "/api/programs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{LoginRateLimit: 2, LoginRateWindow: time.Minute})
	c := ts.browser(t)
	form := url.Values{"email": {"ghost@example.com"}, "password": {"x"}}

	for i := 0; i < 2; i++ {
		status, _ := postForm(t, c, ts.url+"/login", form)
		assert.Equal(t, http.StatusOK, status)
	}
	status, _ := postForm(t, c, ts.url+"/login", form)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	resp, err := c.Get(ts.url + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = c.Get(ts.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `concerto_http_requests_total{method="GET",route="/health",status="200"}`)
}

func TestLoginAsAnotherUserInSameBrowser(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)
	status, _ := putRating(t, c, ts.url+"/api/ratings/P1", `{"rating": 3}`)
	require.Equal(t, http.StatusOK, status)

	_, body := postForm(t, c, ts.url+"/register", url.Values{
		"email": {"bob@example.com"}, "name": {"Bob"}, "password": {"pw2"}, "confirm": {"pw2"},
	})
	require.Contains(t, body, "Account created")
	_, body = postForm(t, c, ts.url+"/login", url.Values{"email": {"bob@example.com"}, "password": {"pw2"}})
	require.Contains(t, body, "Bob &lt;bob@example.com&gt;")

	var programs programsResponse
	require.Equal(t, http.StatusOK, getJSON(t, c, ts.url+"/api/programs", &programs))
	for _, p := range programs.Programs {
		assert.Zero(t, p.Rating, p.ID)
	}

	_, body = postForm(t, c, ts.url+"/ratings/save", nil)
	assert.Contains(t, body, "Saved 0 ratings.")
	saved := model.RatingMap{}
	_, err := ts.files.Load(context.Background(), "bob@example.com", saved)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestFiltersDropHiddenComposer(t *testing.T) {
	ts := newTestServer(t, Options{})
	c := ts.browser(t)
	signIn(t, ts, c)

	_, body := postForm(t, c, ts.url+"/filters", url.Values{"composer": {"Ravel"}})
	require.Contains(t, body, "1 programs / 1 works")

	_, body = postForm(t, c, ts.url+"/filters", url.Values{"series": {"A"}, "composer": {"Ravel"}})
	assert.Contains(t, body, "2 programs / 2 works")

	var opts optionsResponse
	require.Equal(t, http.StatusOK, getJSON(t, c, ts.url+"/api/options", &opts))
	assert.Empty(t, opts.Selection.Composers)
}
