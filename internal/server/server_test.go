package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/TweetPulse/internal/config"
	"github.com/TobiSchelling/TweetPulse/internal/database"
	"github.com/TobiSchelling/TweetPulse/internal/pipeline"
	"github.com/TobiSchelling/TweetPulse/internal/sentiment"
)

func testConfig() *config.Config {
	return &config.Config{
		Display: config.Display{Timezone: "UTC", LatestCount: 10, PageSize: 2},
		Server:  config.Server{PredictRate: 100, PredictBurst: 100},
	}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func loadScorer(t *testing.T) *sentiment.Scorer {
	t.Helper()
	s, err := sentiment.Load(
		filepath.Join("..", "sentiment", "testdata", "vectorizer.json"),
		filepath.Join("..", "sentiment", "testdata", "classifier.json"),
	)
	if err != nil {
		t.Fatalf("failed to load scorer: %v", err)
	}
	return s
}

type fakeRefresher struct {
	calls   int
	trigger string
	err     error
}

func (f *fakeRefresher) Refresh(_ context.Context, trigger string) (*pipeline.Result, error) {
	f.calls++
	f.trigger = trigger
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{Stored: 3}, nil
}

func newTestServer(t *testing.T, cfg *config.Config, db *database.DB, refresher pipeline.Refresher) *Server {
	t.Helper()
	srv, err := New(cfg, db, loadScorer(t), refresher)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

// newClient starts srv over HTTP and returns a client that keeps cookies
// and follows redirects.
func newClient(t *testing.T, srv *Server) (*http.Client, string) {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}, ts.URL
}

func postForm(t *testing.T, c *http.Client, u string, form url.Values) (int, string) {
	t.Helper()
	resp, err := c.PostForm(u, form)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func get(t *testing.T, c *http.Client, u string) (int, string) {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", u, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func register(t *testing.T, c *http.Client, base string) string {
	t.Helper()
	code, body := postForm(t, c, base+"/register", url.Values{
		"email":    {"ada@example.com"},
		"name":     {"Ada Lovelace"},
		"password": {"secret123"},
		"confirm":  {"secret123"},
	})
	if code != http.StatusOK {
		t.Fatalf("register: expected 200 after redirect, got %d", code)
	}
	return body
}

func TestPredict(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	tests := []struct {
		text string
		want string
	}{
		{"I love this", "positive"},
		{"I hate this", "negative"},
		{"qwerty zxcvb", "neutral"},
		{"", "neutral"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/predict?text="+url.QueryEscape(tt.text), nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tt.text, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%q: expected JSON content type, got %q", tt.text, ct)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%q: decoding response: %v", tt.text, err)
		}
		if resp["sentiment"] != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.text, tt.want, resp["sentiment"])
		}
	}
}

func TestPredictMissingText(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	req := httptest.NewRequest("GET", "/predict", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["type"] != "validation" {
		t.Errorf("expected validation error, got %v", resp["type"])
	}
	if ctx, _ := resp["context"].(map[string]any); ctx["parameter"] != "text" {
		t.Errorf("expected missing parameter in context, got %v", resp["context"])
	}
}

func TestPredictRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Server.PredictRate = 0.001
	cfg.Server.PredictBurst = 1
	srv := newTestServer(t, cfg, openTestDB(t), nil)

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest("GET", "/predict?text=hello", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusOK {
		t.Errorf("first request: expected 200, got %d", codes[0])
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("second request: expected 429, got %d", codes[1])
	}
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	for _, path := range []string{"/", "/dashboard", "/tweets", "/feedback"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusFound {
			t.Errorf("%s: expected 302, got %d", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s: expected redirect to /login, got %q", path, loc)
		}
	}
}

func TestLoginPage(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	req := httptest.NewRequest("GET", "/login", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Please log in") {
		t.Error("expected login form in response body")
	}
}

func TestRegisterLogoutLogin(t *testing.T) {
	db := openTestDB(t)
	srv := newTestServer(t, testConfig(), db, nil)
	c, base := newClient(t, srv)

	body := register(t, c, base)
	if !strings.Contains(body, "You registered and are now logged in. Welcome!") {
		t.Error("expected welcome flash after registering")
	}
	if !strings.Contains(body, "Log out (Ada Lovelace)") {
		t.Error("expected nav for logged-in user")
	}

	code, body := postForm(t, c, base+"/logout", nil)
	if code != http.StatusOK || !strings.Contains(body, "You were logged out.") {
		t.Errorf("expected logout flash on login page, got %d", code)
	}
	if code, _ := get(t, c, base+"/dashboard"); code != http.StatusOK {
		t.Fatalf("expected login page after redirect, got %d", code)
	}

	code, body = postForm(t, c, base+"/login", url.Values{
		"email":    {"ada@example.com"},
		"password": {"wrong-password"},
	})
	if code != http.StatusUnprocessableEntity {
		t.Errorf("wrong password: expected 422, got %d", code)
	}
	if !strings.Contains(body, "Invalid email and/or password.") {
		t.Error("expected invalid credentials message")
	}

	code, body = postForm(t, c, base+"/login", url.Values{
		"email":    {"ada@example.com"},
		"password": {"secret123"},
	})
	if code != http.StatusOK {
		t.Fatalf("login: expected 200 after redirect, got %d", code)
	}
	if !strings.Contains(body, "Latest tweets") {
		t.Error("expected dashboard after login")
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)
	c, base := newClient(t, srv)

	code, body := postForm(t, c, base+"/register", url.Values{
		"email":    {"not-an-email"},
		"name":     {"Al"},
		"password": {"secret123"},
		"confirm":  {"secret124"},
	})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if !strings.Contains(body, "Passwords must match.") {
		t.Error("expected password mismatch error")
	}
	if !strings.Contains(body, "Field must be between 3 and 40 characters long.") {
		t.Error("expected name length error")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)
	c, base := newClient(t, srv)
	register(t, c, base)
	postForm(t, c, base+"/logout", nil)

	code, body := postForm(t, c, base+"/register", url.Values{
		"email":    {"ada@example.com"},
		"name":     {"Someone Else"},
		"password": {"secret123"},
		"confirm":  {"secret123"},
	})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", code)
	}
	if !strings.Contains(body, "Email already registered.") {
		t.Error("expected duplicate email error")
	}
}

var when = time.Date(2023, 2, 28, 0, 36, 5, 0, time.UTC)

func seedTweets(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.InsertTweets([]database.NewTweet{
		{Text: "I love this", Name: "A", Username: "a", CreatedAt: when, Sentiment: "positive", Source: "csv"},
		{Text: "I hate this", Name: "B", Username: "b", CreatedAt: when.Add(time.Minute), Sentiment: "negative", Source: "csv"},
		{Text: "so sad and awful", Name: "C", Username: "c", CreatedAt: when.Add(2 * time.Minute), Sentiment: "negative", Source: "csv"},
	})
	if err != nil {
		t.Fatalf("seeding tweets: %v", err)
	}
}

func TestDashboard(t *testing.T) {
	db := openTestDB(t)
	seedTweets(t, db)
	srv := newTestServer(t, testConfig(), db, nil)
	c, base := newClient(t, srv)
	register(t, c, base)

	code, body := get(t, c, base+"/dashboard")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	for _, want := range []string{"I love this", "so sad and awful", "28th Feb, 2023", "Negative (66.7%)", "text-success"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in dashboard", want)
		}
	}
}

func TestTweetsPagination(t *testing.T) {
	db := openTestDB(t)
	seedTweets(t, db)
	srv := newTestServer(t, testConfig(), db, nil)
	c, base := newClient(t, srv)
	register(t, c, base)

	_, body := get(t, c, base+"/tweets")
	if !strings.Contains(body, "so sad and awful") || strings.Contains(body, "I love this") {
		t.Error("expected the two newest tweets on page 1")
	}
	if !strings.Contains(body, `href="/tweets?page=2"`) {
		t.Error("expected link to page 2")
	}

	_, body = get(t, c, base+"/tweets?page=2")
	if !strings.Contains(body, "I love this") {
		t.Error("expected oldest tweet on page 2")
	}

	code, body := get(t, c, base+"/tweets?page=9")
	if code != http.StatusOK || !strings.Contains(body, "No tweets on this page.") {
		t.Errorf("expected empty page past the end, got %d", code)
	}
}

func TestSaveFeedback(t *testing.T) {
	db := openTestDB(t)
	srv := newTestServer(t, testConfig(), db, nil)
	c, base := newClient(t, srv)
	register(t, c, base)

	code, body := postForm(t, c, base+"/save-feedback", url.Values{
		"name":    {"Grace"},
		"phone":   {"+256 700 000000"},
		"content": {"This is **great**"},
	})
	if code != http.StatusOK {
		t.Fatalf("expected 200 after redirect, got %d", code)
	}
	if !strings.Contains(body, "New feedback added.") {
		t.Error("expected success flash")
	}
	if !strings.Contains(body, "<strong>great</strong>") {
		t.Error("expected feedback rendered as markdown")
	}

	_, body = postForm(t, c, base+"/save-feedback", url.Values{"name": {"Grace"}})
	if !strings.Contains(body, "Name and feedback are required.") {
		t.Error("expected validation flash")
	}
}

func TestRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	srv := newTestServer(t, testConfig(), openTestDB(t), refresher)
	c, base := newClient(t, srv)
	register(t, c, base)

	_, body := postForm(t, c, base+"/refresh", nil)
	if !strings.Contains(body, "New tweets fetched.") {
		t.Error("expected success flash")
	}
	if refresher.calls != 1 || refresher.trigger != pipeline.TriggerWeb {
		t.Errorf("expected one web refresh, got %d calls with trigger %q", refresher.calls, refresher.trigger)
	}

	refresher.err = pipeline.ErrRunInProgress
	_, body = postForm(t, c, base+"/refresh", nil)
	if !strings.Contains(body, "A refresh is already running.") {
		t.Error("expected in-progress flash")
	}
}

func TestRefreshRequiresLogin(t *testing.T) {
	refresher := &fakeRefresher{}
	srv := newTestServer(t, testConfig(), openTestDB(t), refresher)

	req := httptest.NewRequest("POST", "/refresh", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("expected 302, got %d", rec.Code)
	}
	if refresher.calls != 0 {
		t.Error("refresh should not run without a session")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("healthz: got %d %s", rec.Code, rec.Body.String())
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/predict?text=hi", nil))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "tweetpulse_predict_requests_total") {
		t.Error("expected predict counter in metrics output")
	}
}

func TestCorrelationIDHeader(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected request ID to be echoed, got %q", got)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request ID")
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/static/style.css", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestFormatCustomDate(t *testing.T) {
	kampala := time.FixedZone("EAT", 3*60*60)
	tests := []struct {
		in   time.Time
		loc  *time.Location
		want string
	}{
		{when, time.UTC, "28th Feb, 2023"},
		{time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC), time.UTC, "01st Mar, 2023"},
		{time.Date(2023, 3, 22, 8, 0, 0, 0, time.UTC), time.UTC, "22nd Mar, 2023"},
		{time.Date(2023, 3, 13, 8, 0, 0, 0, time.UTC), time.UTC, "13th Mar, 2023"},
		{time.Date(2023, 3, 3, 8, 0, 0, 0, time.UTC), time.UTC, "03rd Mar, 2023"},
		{time.Date(2023, 2, 28, 22, 0, 0, 0, time.UTC), kampala, "01st Mar, 2023"},
	}
	for _, tt := range tests {
		if got := FormatCustomDate(tt.in, tt.loc); got != tt.want {
			t.Errorf("FormatCustomDate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	l := NewRateLimiter(0.001, 2)
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("expected burst of two to be allowed")
	}
	if l.Allow("a") {
		t.Error("expected third request to be limited")
	}
	if !l.Allow("b") {
		t.Error("expected other client to have its own bucket")
	}

	disabled := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !disabled.Allow("a") {
			t.Fatal("disabled limiter should always allow")
		}
	}
}

func TestProtectedRouteFlashesLoginMessage(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)
	c, base := newClient(t, srv)

	code, body := get(t, c, base+"/tweets")
	if code != http.StatusOK {
		t.Fatalf("expected login page after redirect, got %d", code)
	}
	if !strings.Contains(body, "Please log in to access this page.") || !strings.Contains(body, "alert-danger") {
		t.Error("expected login-required flash on the login page")
	}
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/no-such-page", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected an HTML error page, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Page not found") {
		t.Error("expected not-found page body")
	}
}

func TestServerErrorPageHidesCause(t *testing.T) {
	srv := newTestServer(t, testConfig(), openTestDB(t), nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/dashboard", nil)
	srv.serverError(rec, req, "loading tweets", errors.New("disk I/O error at /var/secret"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Something went wrong") {
		t.Error("expected generic error page")
	}
	if strings.Contains(body, "/var/secret") || strings.Contains(body, "loading tweets") {
		t.Error("internal error details leaked into the page")
	}
}
