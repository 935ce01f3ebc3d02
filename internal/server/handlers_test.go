package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hyperjump/venturelens/internal/apperr"
	"github.com/hyperjump/venturelens/internal/config"
	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/internal/storage"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeAnalyzer struct {
	mu   sync.Mutex
	reqs []*models.AnalysisRequest
	err  error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "fake", err)
	}
	return &models.AnalysisResult{AnalysisID: "an-1", IdeaSummary: req.Query, GlobalScore: 61, StartupStage: req.Stage}, nil
}

func newTestServer(t *testing.T, a Analyzer) (*Server, storage.AuditLog) {
	t.Helper()
	audit := storage.NewJSONAuditLog(filepath.Join(t.TempDir(), "feedback.json"))
	cfg := &config.ServerConfig{Port: 8080, MaxUploadMB: 1, AllowedOrigins: []string{"http://localhost:3000"}}
	return NewServer(a, audit, cfg, zap.NewNop(), WithModel("gpt-4o-mini"), WithVersion("test")), audit
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("pitchDeck", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(file)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out.Error
}

func TestHandleGenerate_multipart(t *testing.T) {
	fa := &fakeAnalyzer{}
	srv, _ := newTestServer(t, fa)
	body, ct := multipartBody(t, map[string]string{
		"query":         "AI bookkeeping for freelancers",
		"targetMarket":  "EU freelancers",
		"startupStage":  "growth",
		"customWeights": `{"tech": 0.5}`,
	}, "deck.pdf", []byte("%PDF-1.4"))

	r := httptest.NewRequest(http.MethodPost, "/api/generate-idea", body)
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var res models.AnalysisResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.AnalysisID != "an-1" || res.GlobalScore != 61 {
		t.Errorf("result = %+v", res)
	}
	req := fa.reqs[0]
	if req.TargetMarket != "EU freelancers" || req.Stage != models.StageGrowth {
		t.Errorf("request = %+v", req)
	}
	if req.CustomWeights == nil || *req.CustomWeights.Tech != 0.5 || req.CustomWeights.GTM != nil {
		t.Errorf("custom weights = %+v", req.CustomWeights)
	}
	if req.Deck == nil || req.Deck.Filename != "deck.pdf" || string(req.Deck.Content) != "%PDF-1.4" {
		t.Errorf("deck = %+v", req.Deck)
	}
}

func TestHandleGenerate_urlencoded(t *testing.T) {
	fa := &fakeAnalyzer{}
	srv, _ := newTestServer(t, fa)
	r := httptest.NewRequest(http.MethodPost, "/api/generate-idea", strings.NewReader("query=Drone+delivery"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	if fa.reqs[0].Query != "Drone delivery" || fa.reqs[0].Deck != nil {
		t.Errorf("request = %+v", fa.reqs[0])
	}
}

func TestHandleGenerate_missingAPIKey(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	r := httptest.NewRequest(http.MethodPost, "/api/generate-idea", strings.NewReader("not even a form"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeError(t, w); got != "OpenAI API key not configured" {
		t.Errorf("error = %q", got)
	}
}

func TestHandleGenerate_errors(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"empty query", map[string]string{"query": " "}, nil, http.StatusInternalServerError, "query cannot be empty"},
		{"bad weights", map[string]string{"query": "x", "customWeights": "{tech"}, nil, http.StatusInternalServerError, "customWeights must be a JSON object of numbers"},
		{"unsupported", map[string]string{"query": "x"}, apperr.New(apperr.KindUnsupportedFormat, "t", "deck.txt"), http.StatusInternalServerError, kindMessages[apperr.KindUnsupportedFormat]},
		{"upstream", map[string]string{"query": "x"}, apperr.Wrap(apperr.KindUpstream, "t", errors.New("secret detail")), http.StatusInternalServerError, kindMessages[apperr.KindUpstream]},
		{"malformed", map[string]string{"query": "x"}, apperr.New(apperr.KindMalformedResponse, "t", "not json"), http.StatusInternalServerError, kindMessages[apperr.KindMalformedResponse]},
		{"timeout", map[string]string{"query": "x"}, apperr.New(apperr.KindTimeout, "t", "slow"), http.StatusInternalServerError, kindMessages[apperr.KindTimeout]},
		{"plain error", map[string]string{"query": "x"}, errors.New("boom"), http.StatusInternalServerError, "Failed to generate analysis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &fakeAnalyzer{err: tt.err})
			body, ct := multipartBody(t, tt.fields, "", nil)
			r := httptest.NewRequest(http.MethodPost, "/api/generate-idea", body)
			r.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			got := decodeError(t, w)
			if got != tt.wantMsg {
				t.Errorf("error = %q, want %q", got, tt.wantMsg)
			}
			if strings.Contains(got, "secret detail") {
				t.Error("internal detail leaked to client")
			}
		})
	}
}

func TestHandleGenerate_uploadTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAnalyzer{})
	body, ct := multipartBody(t, map[string]string{"query": "x"}, "deck.pdf", bytes.Repeat([]byte("a"), 2<<20))
	r := httptest.NewRequest(http.MethodPost, "/api/generate-idea", body)
	r.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	var out map[string]string
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil || out["error"] == "" {
		t.Errorf("body = %v, err = %v", out, err)
	}
}

func TestHandleFeedback(t *testing.T) {
	srv, audit := newTestServer(t, &fakeAnalyzer{})
	payload := `{"analysisId": "an-1", "rating": 4, "comments": "helpful", "analysis": {"analysisId": "an-1", "globalScore": 61}}`
	r := httptest.NewRequest(http.MethodPut, "/api/generate-idea", strings.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	var out map[string]string
	_ = json.NewDecoder(w.Body).Decode(&out)
	if out["message"] != "Feedback recorded" {
		t.Errorf("body = %v", out)
	}
	records, err := audit.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Feedback.Rating != 4 || len(records[0].Analysis) == 0 {
		t.Errorf("records = %+v", records)
	}
}

func TestHandleFeedback_invalid(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":       "{",
		"missing id":     `{"rating": 3}`,
		"rating too big": `{"analysisId": "a", "rating": 9}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, audit := newTestServer(t, &fakeAnalyzer{})
			r := httptest.NewRequest(http.MethodPut, "/api/generate-idea", strings.NewReader(payload))
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, r)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d", w.Code)
			}
			if n, _ := audit.Count(context.Background()); n != 0 {
				t.Errorf("invalid feedback recorded (%d)", n)
			}
		})
	}
}

func TestHandleFeedbackListAndExport(t *testing.T) {
	srv, audit := newTestServer(t, &fakeAnalyzer{})
	ctx := context.Background()
	for i, rating := range []int{5, 2} {
		rec := &models.AuditRecord{Feedback: &models.Feedback{AnalysisID: string(rune('a' + i)), Rating: rating}}
		if err := audit.Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feedback", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list struct {
		Count   int                   `json:"count"`
		Records []*models.AuditRecord `json:"records"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Count != 2 || list.Records[1].Feedback.Rating != 2 {
		t.Errorf("list = %+v", list)
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/feedback/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("content disposition = %q", w.Header().Get("Content-Disposition"))
	}
	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("export is not a workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("Feedback")
	if len(rows) != 3 {
		t.Errorf("rows = %d, want header + 2", len(rows))
	}
}

func TestHandleStatus(t *testing.T) {
	srv, audit := newTestServer(t, &fakeAnalyzer{})
	_ = audit.Append(context.Background(), &models.AuditRecord{Feedback: &models.Feedback{AnalysisID: "a", Rating: 3}})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out map[string]any
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["records"] != float64(1) || out["model"] != "gpt-4o-mini" || out["llm_configured"] != true {
		t.Errorf("status = %v", out)
	}
	if size, _ := out["audit_log_bytes"].(float64); size <= 0 {
		t.Errorf("audit_log_bytes = %v", out["audit_log_bytes"])
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health = %d %s", w.Code, w.Body)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	r := httptest.NewRequest(http.MethodOptions, "/api/generate-idea", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}
}
