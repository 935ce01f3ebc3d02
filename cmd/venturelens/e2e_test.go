package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/venturelens/internal/cli"
	"github.com/hyperjump/venturelens/internal/config"
	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/internal/server"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const e2eModelReply = `{
  "ideaSummary": "Robotic arms rented by the hour to small machine shops.",
  "swot": {"strengths": ["capex-free"], "weaknesses": ["logistics"], "opportunities": ["reshoring"], "threats": ["incumbent OEMs"]},
  "investmentMemo": {"executiveSummary": "e", "marketOpportunity": "m", "businessModel": "b",
    "competitiveLandscape": "c", "teamAssessment": "t", "investmentRecommendation": "r"},
  "investmentMemoScores": {"executiveSummary": 60, "marketOpportunity": 70, "businessModel": 65,
    "competitiveLandscape": 50, "teamAssessment": 55, "investmentRecommendation": 60},
  "dueDiligenceTech": ["Safety certification"],
  "dueDiligenceGtm": [{"point": "Channel partners", "score": 70}],
  "techScore": 68, "gtmScore": 62, "confidenceScore": 57
}`

func fakeOpenAI(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode completion request: %v", err)
		}
		if n := len(req.Messages); n == 0 || !strings.Contains(req.Messages[n-1].Content, "Acme Robotics") {
			t.Errorf("prompt does not carry the deck text")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": e2eModelReply}, "finish_reason": "stop"}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeDeck(t *testing.T, dir string) string {
	t.Helper()
	ns := `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	slide := func(paras ...string) string {
		var b strings.Builder
		b.WriteString(`<p:sld ` + ns + `><p:cSld><p:spTree>`)
		for _, p := range paras {
			b.WriteString(`<p:sp><p:txBody><a:p><a:r><a:t>` + p + `</a:t></a:r></a:p></p:txBody></p:sp>`)
		}
		b.WriteString(`</p:spTree></p:cSld></p:sld>`)
		return b.String()
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"ppt/slides/slide1.xml": slide("Acme Robotics", "Hourly robot rental for machine shops"),
		"ppt/slides/slide2.xml": slide("Technology:", "Our platform uses computer vision and a cloud fleet API"),
		"ppt/slides/slide3.xml": slide("Funding:", "We are raising $3M seed to expand to 40 shops"),
	} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "deck.pptx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestE2E_AnalyzeFeedbackExport(t *testing.T) {
	var calls atomic.Int32
	openai := fakeOpenAI(t, &calls)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.LLM.APIKey = "e2e-key"
	cfg.LLM.BaseURL = openai.URL + "/v1"
	cfg.LLM.RequestsPerMinute = 0
	cfg.Storage.AuditLogPath = filepath.Join(dir, "feedback.json")
	cfg.Storage.SavedAnalysesPath = filepath.Join(dir, "saved.json")
	cfg.Storage.LogAnalyses = true

	components, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()

	srv := server.NewServer(components.Analyzer, components.Audit, &cfg.Server, zap.NewNop(),
		server.WithModel(cfg.LLM.Model), server.WithVersion("e2e"))
	api := httptest.NewServer(srv.Handler())
	defer api.Close()

	client := cli.NewClient(api.URL, 10*time.Second, nil)
	ctx := context.Background()

	weights, err := parseWeightsFlag("tech=0.5,gtm=0.25,memo=0.25")
	if err != nil {
		t.Fatal(err)
	}
	result, err := client.Analyze(ctx, cli.AnalyzeParams{
		Query:    "Robot arms as a service",
		Stage:    "growth",
		Weights:  weights,
		DeckPath: writeDeck(t, dir),
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("model calls = %d, want 1", calls.Load())
	}
	if result.AnalysisID == "" || result.StartupStage != models.StageGrowth {
		t.Errorf("result = %+v", result)
	}
	if !result.PitchDeckProcessed || result.PitchDeckInfo == nil || result.PitchDeckInfo.ExtractionMethod != models.ExtractionExtracted {
		t.Fatalf("deck info = %+v", result.PitchDeckInfo)
	}
	if w := result.Weights; w == nil || w.Tech != 0.5 || w.GTM != 0.25 || w.InvestmentMemo != 0.25 {
		t.Errorf("weights = %+v", result.Weights)
	}
	if result.GlobalScore <= 0 || result.GlobalScore > 100 {
		t.Errorf("global score = %v", result.GlobalScore)
	}
	if result.IndustryAverages.MarketSize == "" {
		t.Error("industry averages should be backfilled")
	}

	if err := client.SendFeedback(ctx, &models.Feedback{AnalysisID: result.AnalysisID, Rating: 5, Comments: "spot on"}); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// One logged analysis plus one feedback record.
	if status["records"] != float64(2) || status["llm_configured"] != true {
		t.Errorf("status = %v", status)
	}

	var xlsx bytes.Buffer
	if err := client.ExportFeedback(ctx, &xlsx); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(&xlsx)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Feedback")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want header plus two records", len(rows))
	}
}
