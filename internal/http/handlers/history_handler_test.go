package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-voice-chat/internal/domain"
	"github.com/tbourn/go-voice-chat/internal/services"
)

func historyRouter(svc *stubHistorySvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(&stubChatSvc{}, stubVoiceSvc{}, svc, nil)
	r := gin.New()
	r.GET("/history", h.History)
	r.GET("/log", h.Log)
	return r
}

func get(r http.Handler, target string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

// ---------- History ----------

func TestHistory_PairsAndETag(t *testing.T) {
	svc := &stubHistorySvc{
		etag: `W/"history:2:2"`,
		turns: []domain.ChatTurn{
			{ID: 2, UserMessage: "Bye", AIResponse: "Adios"},
			{ID: 1, UserMessage: "Hello", AIResponse: "Hola"},
		},
	}
	w := get(historyRouter(svc), "/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("ETag") != svc.etag {
		t.Fatalf("etag = %q", w.Header().Get("ETag"))
	}
	var raw map[string][][]string
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	got := raw["history"]
	if len(got) != 2 || got[0][0] != "Bye" || got[0][1] != "Adios" || got[1][0] != "Hello" {
		t.Fatalf("history = %#v", got)
	}
	if len(svc.limits) != 1 || svc.limits[0] != services.MaxHistory {
		t.Fatalf("default limit not applied: %v", svc.limits)
	}
}

func TestHistory_EmptyIsArray(t *testing.T) {
	w := get(historyRouter(&stubHistorySvc{etag: `W/"history:0:0"`}), "/history", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"history":[]}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestHistory_LimitQueryForwarded(t *testing.T) {
	svc := &stubHistorySvc{}
	get(historyRouter(svc), "/history?limit=3", nil)
	get(historyRouter(svc), "/history?limit=abc", nil)
	if len(svc.limits) != 2 || svc.limits[0] != 3 || svc.limits[1] != services.MaxHistory {
		t.Fatalf("limits = %v", svc.limits)
	}
}

func TestHistory_NotModified_SkipsRead(t *testing.T) {
	svc := &stubHistorySvc{etag: `W/"history:5:9"`}
	w := get(historyRouter(svc), "/history", map[string]string{"If-None-Match": `W/"history:5:9"`})
	if w.Code != http.StatusNotModified {
		t.Fatalf("status=%d", w.Code)
	}
	if len(svc.limits) != 0 {
		t.Fatalf("Recent must not run on 304")
	}
}

func TestHistory_ETagErrorStillServes(t *testing.T) {
	svc := &stubHistorySvc{etagErr: errors.New("stats"), turns: []domain.ChatTurn{{ID: 1, UserMessage: "a", AIResponse: "b"}}}
	w := get(historyRouter(svc), "/history", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != "" {
		t.Fatalf("got %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
}

func TestHistory_StorageFailure_500(t *testing.T) {
	svc := &stubHistorySvc{etag: `W/"history:1:1"`, err: &domain.StorageError{Op: "recent", Err: errors.New("no such table: chats")}}
	w := get(historyRouter(svc), "/history", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("ETag") != "" {
		t.Fatalf("error responses must not carry an ETag")
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v", err)
	}
	if er.Code != ErrCodeStorageFailed {
		t.Fatalf("code = %q", er.Code)
	}
}

// ---------- Log ----------

func TestLog_EntriesInOrderAndETag(t *testing.T) {
	svc := &stubHistorySvc{
		log:     []domain.LogEntry{{User: "Hello", AI: "Hola"}, {User: "what time is it", AI: "3 PM"}},
		logETag: `W/"log:2"`,
	}
	w := get(historyRouter(svc), "/log", nil)
	if w.Code != http.StatusOK || w.Header().Get("ETag") != `W/"log:2"` {
		t.Fatalf("got %d etag=%q", w.Code, w.Header().Get("ETag"))
	}
	var resp LogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Log) != 2 || resp.Log[0].User != "Hello" || resp.Log[1].AI != "3 PM" {
		t.Fatalf("log = %+v", resp.Log)
	}

	w = get(historyRouter(svc), "/log", map[string]string{"If-None-Match": `W/"log:2"`})
	if w.Code != http.StatusNotModified {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestLog_EmptyIsArray(t *testing.T) {
	w := get(historyRouter(&stubHistorySvc{logETag: `W/"log:0"`}), "/log", nil)
	if w.Body.String() != `{"log":[]}` {
		t.Fatalf("body = %s", w.Body.String())
	}
}
