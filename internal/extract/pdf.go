package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/venturelens/internal/models"
	"github.com/hyperjump/venturelens/pkg/utils"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// extractPDF reads the text layer and OCRs the whole document when that text is missing
// or shorter than the configured minimum.
func (e *Extractor) extractPDF(ctx context.Context, content []byte) Result {
	var warnings []string
	text, err := e.pdfText(content)
	if err != nil {
		e.logger.Debug("pdf text layer unreadable", zap.Error(err))
		warnings = append(warnings, "text layer: "+err.Error())
		text = ""
	}
	text = utils.CollapseSpaces(text)
	if utf8.RuneCountInString(text) >= e.opts.MinPDFTextLength {
		return Result{Text: text, Method: models.ExtractionExtracted, Warnings: warnings}
	}

	e.logger.Debug("pdf text below threshold, trying ocr",
		zap.Int("chars", utf8.RuneCountInString(text)),
		zap.Int("min", e.opts.MinPDFTextLength))
	ocrText, err := e.ocrPDF(ctx, content)
	if err == nil && strings.TrimSpace(ocrText) != "" {
		return Result{Text: ocrText, Method: models.ExtractionOCR, Warnings: warnings}
	}
	if err != nil {
		e.logger.Warn("pdf ocr failed", zap.Error(err))
		warnings = append(warnings, "ocr: "+err.Error())
	}
	if text != "" {
		return Result{Text: text, Method: models.ExtractionExtracted, Warnings: warnings}
	}
	return failed(warnings)
}

// readPDFText returns the plain text of every page, one page per line block.
func readPDFText(content []byte) (text string, err error) {
	// The pdf package panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read PDF: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		buf.WriteString(pageText)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
