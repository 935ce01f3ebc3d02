package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/venturelens/internal/models"
	"go.uber.org/zap"
)

// Client calls a VentureLens server.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// AnalyzeParams are the form fields of an analysis request.
type AnalyzeParams struct {
	Query        string
	TargetMarket string
	Stage        string
	// Weights is the raw customWeights JSON, e.g. {"tech":0.5}.
	Weights  string
	DeckPath string
}

// Analyze submits one analysis. When every returned score is zero the request is
// retried once, and the second result is returned whatever it holds.
func (c *Client) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisResult, error) {
	res, err := c.analyzeOnce(ctx, p)
	if err != nil {
		return nil, err
	}
	if res.AllScoresZero() {
		c.logger.Warn("all scores are zero, retrying once", zap.String("analysis_id", res.AnalysisID))
		return c.analyzeOnce(ctx, p)
	}
	return res, nil
}

func (c *Client) analyzeOnce(ctx context.Context, p AnalyzeParams) (*models.AnalysisResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"query":         p.Query,
		"targetMarket":  p.TargetMarket,
		"startupStage":  p.Stage,
		"customWeights": p.Weights,
	} {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if p.DeckPath != "" {
		data, err := os.ReadFile(p.DeckPath)
		if err != nil {
			return nil, fmt.Errorf("read pitch deck: %w", err)
		}
		fw, err := mw.CreateFormFile("pitchDeck", filepath.Base(p.DeckPath))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate-idea", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var result models.AnalysisResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendFeedback records a rating for an analysis.
func (c *Client) SendFeedback(ctx context.Context, fb *models.Feedback) error {
	data, err := json.Marshal(fb)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/generate-idea", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// Status returns the server status document.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/status", nil)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportFeedback downloads the feedback workbook into w.
func (c *Client) ExportFeedback(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/feedback/export", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func responseError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server error (%d)", resp.StatusCode)
}
