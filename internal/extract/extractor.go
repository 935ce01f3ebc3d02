// Package extract turns uploaded pitch decks (PDF, PPTX) into plain text, falling back to
// OCR when a document carries its content as images.
package extract

import (
	"context"
	"strings"

	"github.com/hyperjump/venturelens/internal/apperr"
	"github.com/hyperjump/venturelens/internal/models"
	"go.uber.org/zap"
)

// Placeholder texts used when no readable text could be recovered.
const (
	PlaceholderNoText      = "[No readable text could be extracted from the pitch deck]"
	PlaceholderImageFailed = "[Image text unavailable]"
)

// DefaultMinPDFTextLength is the trimmed text length below which a PDF is treated as
// image-based.
const DefaultMinPDFTextLength = 100

// OCR recognizes text in image and PDF buffers.
type OCR interface {
	Image(ctx context.Context, data []byte, ext string) (string, error)
	PDF(ctx context.Context, data []byte) (string, error)
}

// Options tune extraction.
type Options struct {
	MinPDFTextLength int
	// MaxImages caps how many embedded PPTX images are sent to OCR. 0 means no limit.
	MaxImages int
}

// Result is the text of one deck and the path that produced it.
type Result struct {
	Text     string
	Method   models.ExtractionMethod
	Warnings []string
}

// Extractor extracts plain text from pitch-deck files.
type Extractor struct {
	ocr    OCR
	opts   Options
	logger *zap.Logger
	// pdfText reads the PDF text layer. Replaced in tests.
	pdfText func([]byte) (string, error)
}

// NewExtractor returns an Extractor. ocr may be nil, in which case OCR fallbacks fail
// over to placeholders.
func NewExtractor(ocr OCR, opts Options, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MinPDFTextLength <= 0 {
		opts.MinPDFTextLength = DefaultMinPDFTextLength
	}
	return &Extractor{ocr: ocr, opts: opts, logger: logger, pdfText: readPDFText}
}

// NormalizeExt lowercases ext and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// Supported reports whether ext names a deck format the extractor accepts.
func Supported(ext string) bool {
	switch NormalizeExt(ext) {
	case "pdf", "pptx":
		return true
	}
	return false
}

// Extract returns the text of content, a deck in the format named by ext ("pdf" or
// "pptx", with or without the dot). Any other extension fails with KindUnsupportedFormat.
// Parse and OCR failures never surface as errors: the Result then carries a placeholder
// text, Method "failed" and the reasons in Warnings.
func (e *Extractor) Extract(ctx context.Context, content []byte, ext string) (Result, error) {
	switch NormalizeExt(ext) {
	case "pdf":
		return e.extractPDF(ctx, content), nil
	case "pptx":
		return e.extractPPTX(ctx, content), nil
	default:
		return Result{}, apperr.Errorf(apperr.KindUnsupportedFormat, "extract.Extract",
			"unsupported file type %q", ext)
	}
}

func (e *Extractor) ocrPDF(ctx context.Context, content []byte) (string, error) {
	if e.ocr == nil {
		return "", apperr.New(apperr.KindOCR, "extract.ocrPDF", "ocr not configured")
	}
	return e.ocr.PDF(ctx, content)
}

func (e *Extractor) ocrImage(ctx context.Context, data []byte, ext string) (string, error) {
	if e.ocr == nil {
		return "", apperr.New(apperr.KindOCR, "extract.ocrImage", "ocr not configured")
	}
	return e.ocr.Image(ctx, data, ext)
}

func failed(warnings []string) Result {
	return Result{Text: PlaceholderNoText, Method: models.ExtractionFailed, Warnings: warnings}
}
