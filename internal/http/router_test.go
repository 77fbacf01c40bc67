package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-poll-backend/internal/config"
	"github.com/tbourn/go-poll-backend/internal/domain"
	"github.com/tbourn/go-poll-backend/internal/ratelimit"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:routerdb?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Poll{}, &domain.Vote{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestLimiter(t *testing.T) *ratelimit.Limiter {
	t.Helper()
	l := ratelimit.New(time.Minute)
	t.Cleanup(l.Close)
	return l
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     1000,
		RateBurst:   1000,
		CORS:        config.CORSConfig{AllowedOrigins: nil},
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), newTestLimiter(t), testConfig())

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS.AllowedOrigins = []string{"http://example.com"}
	RegisterRoutes(r, newTestDB(t), newTestLimiter(t), cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func Test_pollRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)
	shim := pollRepoShim{}
	ctx := context.Background()

	p, err := shim.CreatePoll(ctx, db, "u1", "Q?", []string{"a", "b"})
	if err != nil || p == nil || p.ID == "" {
		t.Fatalf("CreatePoll = (%+v, %v)", p, err)
	}

	got, err := shim.GetPoll(ctx, db, p.ID)
	if err != nil || got.OwnerID != "u1" {
		t.Fatalf("GetPoll = (%+v, %v)", got, err)
	}

	all, err := shim.ListPolls(ctx, db, "u1")
	if err != nil || len(all) != 1 {
		t.Fatalf("ListPolls = (%d, %v)", len(all), err)
	}

	n, err := shim.CountPolls(ctx, db, "u1")
	if err != nil || n != 1 {
		t.Fatalf("CountPolls = (%d, %v)", n, err)
	}

	page, err := shim.ListPollsPage(ctx, db, "u1", 0, 10)
	if err != nil || len(page) != 1 {
		t.Fatalf("ListPollsPage = (%d, %v)", len(page), err)
	}

	rows, err := shim.UpdatePoll(ctx, db, p.ID, "u1", "Q2?", []string{"c", "d"})
	if err != nil || rows != 1 {
		t.Fatalf("UpdatePoll = (%d, %v)", rows, err)
	}

	rows, err = shim.DeletePoll(ctx, db, p.ID, "u1")
	if err != nil || rows != 1 {
		t.Fatalf("DeletePoll = (%d, %v)", rows, err)
	}
}

func TestRouter_GeneralQuotaOnAPIRoutes(t *testing.T) {
	orig := ratelimit.General
	t.Cleanup(func() { ratelimit.General = orig })
	ratelimit.General = ratelimit.Policy{Window: time.Minute, MaxRequests: 2}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), newTestLimiter(t), testConfig())

	// Same anonymous caller; third API request must trip the general quota.
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/v1/polls/some-id", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d; want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After on quota denial")
	}

	// Health is outside the API group and stays reachable.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
}

// End-to-end flow through the full middleware and handler pipeline:
// create a poll, fetch it anonymously, vote, then read the tallies.
func TestRouter_PollLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), newTestLimiter(t), testConfig())

	// Create
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/polls",
		bytes.NewBufferString(`{"question":"Tabs or spaces?","options":["Tabs","Spaces"]}`))
	req.Header.Set("X-User-ID", "alice")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var created domain.Poll
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("create body: %s (%v)", w.Body.String(), err)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	// Anonymous read
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/polls/"+created.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}

	// Vote as another user
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/polls/"+created.ID+"/votes",
		bytes.NewBufferString(`{"option_index":1}`))
	req.Header.Set("X-User-ID", "bob")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("vote = %d: %s", w.Code, w.Body.String())
	}

	// Duplicate vote → 409
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/polls/"+created.ID+"/votes",
		bytes.NewBufferString(`{"option_index":0}`))
	req.Header.Set("X-User-ID", "bob")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate vote = %d: %s", w.Code, w.Body.String())
	}

	// Results
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/polls/"+created.ID+"/results", nil)
	req.Header.Set("Accept-Encoding", "identity")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("results = %d", w.Code)
	}
	var res struct {
		Counts []int64 `json:"counts"`
		Total  int64   `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("results body: %s (%v)", w.Body.String(), err)
	}
	if res.Total != 1 || len(res.Counts) != 2 || res.Counts[1] != 1 {
		t.Fatalf("unexpected tallies: %+v", res)
	}
}
