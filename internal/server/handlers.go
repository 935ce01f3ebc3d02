package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/venturelens/internal/apperr"
	"github.com/hyperjump/venturelens/internal/config"
	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultMaxUploadMB = 25
	multipartMemory    = 32 << 20
)

// Client-facing messages. Details stay in the server log.
var kindMessages = map[apperr.Kind]string{
	apperr.KindUnsupportedFormat: "Unsupported pitch deck format. Please upload a PDF or PPTX file.",
	apperr.KindUpstream:          "Failed to get a response from the analysis service",
	apperr.KindTimeout:           "The analysis service took too long to respond",
	apperr.KindMalformedResponse: "The analysis service returned an invalid response",
	apperr.KindConfiguration:     config.ErrAPIKeyMissing.Error(),
	apperr.KindInternal:          "Failed to generate analysis",
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		s.respondError(w, http.StatusInternalServerError, config.ErrAPIKeyMissing.Error())
		return
	}
	req, err := s.parseAnalysisRequest(w, r)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.logger.Debug("analysis request",
		zap.Int("query_len", len(req.Query)),
		zap.String("stage", string(req.Stage)),
		zap.Bool("deck", req.Deck != nil))

	result, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.respondAppError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// parseAnalysisRequest reads the multipart (or urlencoded) form.
func (s *Server) parseAnalysisRequest(w http.ResponseWriter, r *http.Request) (*models.AnalysisRequest, error) {
	const op = "server.parseAnalysisRequest"
	maxMB := s.config.MaxUploadMB
	if maxMB <= 0 {
		maxMB = defaultMaxUploadMB
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMB<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return nil, apperr.Errorf(apperr.KindInvalidInput, op, "request body exceeds %d MB", maxMB)
		case errors.Is(err, http.ErrNotMultipart):
			if err := r.ParseForm(); err != nil {
				return nil, apperr.Wrap(apperr.KindInvalidInput, op, fmt.Errorf("invalid form: %w", err))
			}
		default:
			return nil, apperr.Wrap(apperr.KindInvalidInput, op, fmt.Errorf("invalid form: %w", err))
		}
	}

	req := &models.AnalysisRequest{
		Query:        r.FormValue("query"),
		TargetMarket: r.FormValue("targetMarket"),
		Stage:        models.Stage(r.FormValue("startupStage")),
	}
	if raw := strings.TrimSpace(r.FormValue("customWeights")); raw != "" && raw != "null" {
		var o models.WeightOverrides
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, apperr.Errorf(apperr.KindInvalidInput, op, "customWeights must be a JSON object of numbers")
		}
		if !o.Empty() {
			req.CustomWeights = &o
		}
	}

	file, header, err := r.FormFile("pitchDeck")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return nil, apperr.Wrap(apperr.KindInvalidInput, op, fmt.Errorf("read pitch deck: %w", err))
	default:
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidInput, op, fmt.Errorf("read pitch deck: %w", err))
		}
		req.Deck = &models.DeckUpload{Filename: header.Filename, Content: content}
	}
	return req, nil
}

type feedbackRequest struct {
	models.Feedback
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20)).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := body.Feedback.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec := &models.AuditRecord{Feedback: &body.Feedback, Timestamp: time.Now().UTC()}
	if len(body.Analysis) > 0 && string(body.Analysis) != "null" {
		rec.Analysis = body.Analysis
	}
	if err := s.audit.Append(r.Context(), rec); err != nil {
		s.logger.Error("record feedback failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to record feedback")
		return
	}
	s.logger.Info("feedback recorded", zap.String("analysis_id", body.AnalysisID), zap.Int("rating", body.Rating))
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Feedback recorded"})
}

func (s *Server) handleFeedbackList(w http.ResponseWriter, r *http.Request) {
	records, err := s.audit.List(r.Context())
	if err != nil {
		s.logger.Error("list feedback failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to read feedback")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

func (s *Server) handleFeedbackExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.audit.List(r.Context())
	if err != nil {
		s.logger.Error("export feedback failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to read feedback")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="venturelens-feedback.xlsx"`)
	if err := storage.WriteFeedbackXLSX(w, records); err != nil {
		s.logger.Error("write feedback workbook failed", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.audit.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Failed to read audit log")
		return
	}
	resp := map[string]any{
		"records":        count,
		"llm_configured": s.analyzer != nil,
		"model":          s.model,
		"audit_log_path": s.audit.Path(),
	}
	if s.version != "" {
		resp["version"] = s.version
	}
	if size, err := storage.AuditLogBytes(s.audit); err == nil {
		resp["audit_log_bytes"] = size
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondAppError answers every analysis failure with a 500. Invalid input keeps its own
// message; other kinds get a generic one.
func (s *Server) respondAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInvalidInput {
		s.logger.Debug("invalid analysis request", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, invalidInputMessage(err))
		return
	}
	s.logger.Error("analysis failed", zap.String("kind", kind.String()), zap.Error(err))
	msg, ok := kindMessages[kind]
	if !ok {
		msg = kindMessages[apperr.KindInternal]
	}
	s.respondError(w, http.StatusInternalServerError, msg)
}

// invalidInputMessage returns the innermost message of a validation error, which only
// describes the client's own input.
func invalidInputMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		if ae.Message != "" {
			return ae.Message
		}
		if ae.Err != nil {
			return ae.Err.Error()
		}
	}
	return "invalid request"
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
