package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-voice-chat/docs"
	"github.com/tbourn/go-voice-chat/internal/config"
	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/repo"
	"github.com/tbourn/go-voice-chat/internal/services"
	"github.com/tbourn/go-voice-chat/internal/sessionlog"
	"github.com/tbourn/go-voice-chat/internal/speech"
	"github.com/tbourn/go-voice-chat/internal/web"
)

// ---------- collaborator fakes ----------

type fakeCompleter struct {
	replies map[string]string
	err     error
}

func (f *fakeCompleter) Name() string { return "fake-llm" }

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if r, ok := f.replies[prompt]; ok {
		return r, nil
	}
	return "echo: " + prompt, nil
}

type fakeTranslator struct {
	table map[string]string // "text|target" -> translation
	err   error
}

func (f *fakeTranslator) Name() string { return "fake-tr" }

func (f *fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if out, ok := f.table[text+"|"+target]; ok {
		return out, nil
	}
	return text, nil
}

// blockingRecorder writes an empty WAV path after release is closed.
type blockingRecorder struct {
	dir     string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingRecorder) Record(ctx context.Context) (string, func(), error) {
	r.once.Do(func() { close(r.started) })
	select {
	case <-r.release:
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
	p := filepath.Join(r.dir, "utterance.wav")
	if err := os.WriteFile(p, []byte("RIFF"), 0o600); err != nil {
		return "", nil, err
	}
	return p, func() { _ = os.Remove(p) }, nil
}

type fakeTranscriber struct{ text string }

func (f fakeTranscriber) Transcribe(context.Context, string) (string, error) { return f.text, nil }

// ---------- app assembly ----------

type testApp struct {
	r   *gin.Engine
	db  *gorm.DB
	log *sessionlog.Log
	rec *blockingRecorder
}

func testConfig() config.Config {
	return config.Config{
		OTEL:     config.OTELConfig{ServiceName: "test-svc"},
		Security: config.SecurityConfig{HSTSMaxAge: time.Hour},
	}
}

func newTestApp(t *testing.T, c *fakeCompleter, tr *fakeTranslator, cfg config.Config) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "chat_history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sessLog := sessionlog.New(100)
	rec := &blockingRecorder{dir: t.TempDir(), started: make(chan struct{}), release: make(chan struct{})}
	close(rec.release) // non-blocking unless a test swaps it

	listener := speech.NewListener(rec, fakeTranscriber{text: "what time is it"}, 0)

	svc := Services{
		Chat: &services.ChatService{
			DB: db, Log: sessLog, Completer: c, Translator: tr,
			CompletionTimeout: time.Second, TranslateTimeout: time.Second,
			DefaultLanguage: "en", MaxMessageRunes: 100, IdempotencyTTL: time.Hour,
		},
		Voice: &services.VoiceService{
			Listener: listener, Completer: c, Log: sessLog,
			SpeechTimeout: 2 * time.Second, CompletionTimeout: time.Second,
		},
		History: &services.HistoryService{DB: db, Log: sessLog},
		Page:    web.MustPage(),
	}

	r := gin.New()
	RegisterRoutes(r, svc, cfg)
	return &testApp{r: r, db: db, log: sessLog, rec: rec}
}

func (a *testApp) do(method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func (a *testApp) rows(t *testing.T) int64 {
	t.Helper()
	n, err := repo.CountTurns(context.Background(), a.db)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json %q: %v", w.Body.String(), err)
	}
	return v
}

// ---------- operational routes ----------

func TestRegisterRoutes_Health_Metrics_Fallbacks_Headers(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())

	w := app.do(http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.test"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-all CORS expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing request id or security headers: %#v", w.Header())
	}

	w = app.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = app.do(http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("404 expected, got %d", w.Code)
	}
	if er := decode[map[string]string](t, w); er["code"] != "not_found" || er["error"] == "" {
		t.Fatalf("404 body = %#v", er)
	}

	w = app.do(http.MethodGet, "/chat", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("405 expected, got %d", w.Code)
	}

	// swagger is off by default
	w = app.do(http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://app.example.com"}
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, cfg)

	w := app.do(http.MethodGet, "/health", "", map[string]string{"Origin": "https://app.example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected echoed origin, got %q", got)
	}

	w = app.do(http.MethodGet, "/health", "", map[string]string{"Origin": "https://evil.example.com"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin should be rejected, got %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, cfg)

	w := app.do(http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/chat") {
		t.Fatalf("swagger doc: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_IndexPage(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())
	w := app.do(http.MethodGet, "/", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<html") {
		t.Fatalf("GET / = %d", w.Code)
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("page should carry a CSP")
	}
}

func TestRegisterRoutes_GzipWhenAccepted(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())
	w := app.do(http.MethodGet, "/", "", map[string]string{"Accept-Encoding": "gzip"})
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", w.Header().Get("Content-Encoding"))
	}
}

// ---------- chat scenarios ----------

func TestChat_TranslatedTurnIsStoredAndLogged(t *testing.T) {
	c := &fakeCompleter{replies: map[string]string{"Hello": "Hi there"}}
	tr := &fakeTranslator{table: map[string]string{"Hi there|es": "Hola"}}
	app := newTestApp(t, c, tr, testConfig())

	w := app.do(http.MethodPost, "/chat", `{"message":"Hello","language":"es"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got := decode[map[string]string](t, w)["response"]; got != "<strong>AI Response:</strong> Hola" {
		t.Fatalf("response = %q", got)
	}

	if app.rows(t) != 1 {
		t.Fatalf("expected exactly one row")
	}
	entries := app.log.All()
	if len(entries) != 1 || entries[0] != (domain.LogEntry{User: "Hello", AI: "Hola"}) {
		t.Fatalf("log = %+v", entries)
	}

	w = app.do(http.MethodGet, "/history", "", nil)
	if w.Body.String() != `{"history":[["Hello","Hola"]]}` {
		t.Fatalf("history = %s", w.Body.String())
	}
}

func TestChat_CompletionFailure_NoRowNoLog(t *testing.T) {
	c := &fakeCompleter{err: errors.New("401 invalid api key")}
	app := newTestApp(t, c, &fakeTranslator{}, testConfig())

	w := app.do(http.MethodPost, "/chat", `{"message":"Hi"}`, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", w.Code)
	}
	er := decode[map[string]string](t, w)
	if er["code"] != "provider_failed" || !strings.Contains(er["error"], "invalid api key") {
		t.Fatalf("body = %#v", er)
	}
	if app.rows(t) != 0 || app.log.Len() != 0 {
		t.Fatalf("failed completion must leave no trace")
	}
}

func TestChat_TranslationFailure_NoRow(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{err: errors.New("quota")}, testConfig())

	w := app.do(http.MethodPost, "/chat", `{"message":"Hi","language":"fr"}`, nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", w.Code)
	}
	if app.rows(t) != 0 || app.log.Len() != 0 {
		t.Fatalf("failed translation must leave no trace")
	}
}

func TestChat_BadInput_400(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())
	for _, body := range []string{`{bad`, `{"message":"   "}`, `{"message":"Hi","language":"not a tag!"}`, `{"message":"` + strings.Repeat("x", 101) + `"}`} {
		w := app.do(http.MethodPost, "/chat", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s -> %d", body, w.Code)
		}
	}
	if app.rows(t) != 0 {
		t.Fatalf("bad input must not write")
	}
}

func TestChat_IdempotentReplay(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())
	hdr := map[string]string{"Idempotency-Key": "retry-1"}

	first := app.do(http.MethodPost, "/chat", `{"message":"Hello"}`, hdr)
	second := app.do(http.MethodPost, "/chat", `{"message":"Hello"}`, hdr)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("codes %d %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body differs: %s vs %s", first.Body.String(), second.Body.String())
	}
	if first.Header().Get("Idempotency-Replayed") != "" || second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay header mismatch")
	}
	if app.rows(t) != 1 || app.log.Len() != 1 {
		t.Fatalf("replay must not add rows or log entries")
	}

	w := app.do(http.MethodPost, "/chat", `{"message":"Hello"}`, map[string]string{"Idempotency-Key": "bad key"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid key -> %d", w.Code)
	}
}

func TestChat_BodyTooLarge_400(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())
	big := `{"message":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	w := app.do(http.MethodPost, "/chat", big, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

// ---------- voice + log ----------

func TestVoice_AppendsToLogOnly_LogKeepsOrder(t *testing.T) {
	c := &fakeCompleter{replies: map[string]string{"what time is it": "It is 3 PM."}}
	app := newTestApp(t, c, &fakeTranslator{}, testConfig())

	if w := app.do(http.MethodPost, "/chat", `{"message":"first"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("chat = %d", w.Code)
	}
	w := app.do(http.MethodPost, "/voice", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("voice = %d %s", w.Code, w.Body.String())
	}
	if got := decode[map[string]string](t, w)["response"]; got != "It is 3 PM." {
		t.Fatalf("voice response = %q", got)
	}
	if app.rows(t) != 1 {
		t.Fatalf("voice must not write the store")
	}

	w = app.do(http.MethodGet, "/log", "", nil)
	resp := decode[struct {
		Log []domain.LogEntry `json:"log"`
	}](t, w)
	if len(resp.Log) != 2 || resp.Log[0].User != "first" || resp.Log[1].User != "what time is it" {
		t.Fatalf("log order = %+v", resp.Log)
	}

	// Conditional GET
	etag := w.Header().Get("ETag")
	w = app.do(http.MethodGet, "/log", "", map[string]string{"If-None-Match": etag})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
}

func TestVoice_DeviceBusy_409(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())
	app.rec.release = make(chan struct{})

	done := make(chan int, 1)
	go func() {
		done <- app.do(http.MethodPost, "/voice", "", nil).Code
	}()
	<-app.rec.started

	w := app.do(http.MethodPost, "/voice", "", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("contending capture = %d", w.Code)
	}
	if er := decode[map[string]string](t, w); er["code"] != "device_busy" {
		t.Fatalf("body = %#v", er)
	}

	close(app.rec.release)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first capture = %d", code)
	}
}

// ---------- history ----------

func TestHistory_NewestFirstCappedAndConditional(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, &fakeTranslator{}, testConfig())
	for i := 0; i < 12; i++ {
		msg := string(rune('a' + i))
		if w := app.do(http.MethodPost, "/chat", `{"message":"`+msg+`"}`, nil); w.Code != http.StatusOK {
			t.Fatalf("seed %d = %d", i, w.Code)
		}
	}

	w := app.do(http.MethodGet, "/history", "", nil)
	resp := decode[map[string][][]string](t, w)
	h := resp["history"]
	if len(h) != 10 || h[0][0] != "l" || h[9][0] != "c" {
		t.Fatalf("history = %v", h)
	}

	again := app.do(http.MethodGet, "/history", "", nil)
	if !bytes.Equal(again.Body.Bytes(), w.Body.Bytes()) {
		t.Fatalf("history is not idempotent")
	}

	w = app.do(http.MethodGet, "/history?limit=2", "", nil)
	if h := decode[map[string][][]string](t, w)["history"]; len(h) != 2 {
		t.Fatalf("limit=2 -> %d", len(h))
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	if w = app.do(http.MethodGet, "/history", "", map[string]string{"If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(4))
	r.POST("/x", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("123")))
	if w.Code != http.StatusNoContent {
		t.Fatalf("small body = %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("123456")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body = %d", w.Code)
	}
}
