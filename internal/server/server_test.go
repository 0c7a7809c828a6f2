package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cropwise/agroquery/internal/config"
	"github.com/cropwise/agroquery/internal/query"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	return New(query.NewService(cfg, nil, nil), nil, 0)
}

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestQueryEmptyQuestionRejected(t *testing.T) {
	router := testServer(t).Router()
	for _, body := range []string{`{}`, `{"question":"  "}`, `not json`} {
		rec := postQuery(t, router, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
		var payload map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("body %q: invalid json: %v", body, err)
		}
		for _, key := range []string{"answer_text", "chart", "climate_table", "top_crops", "provenance"} {
			if _, ok := payload[key]; !ok {
				t.Fatalf("body %q: missing key %q in %v", body, key, payload)
			}
		}
	}
}

func TestQueryAnswered(t *testing.T) {
	router := testServer(t).Router()
	rec := postQuery(t, router, `{"question":"list states"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp query.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" || resp.AnswerText == "" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestQueryAcceptsShortKey(t *testing.T) {
	rec := postQuery(t, testServer(t).Router(), `{"q":"list states"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	testServer(t).Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}
