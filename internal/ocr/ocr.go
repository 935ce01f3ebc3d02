// Package ocr recognizes text in images and image-only PDFs using the tesseract and
// pdftoppm command-line tools.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/venturelens/internal/apperr"
	"github.com/hyperjump/venturelens/pkg/utils"
	"go.uber.org/zap"
)

// Config holds binary locations and recognition settings.
type Config struct {
	Tesseract   string
	Pdftoppm    string
	Language    string
	TessdataDir string
	DPI         int
	// MaxPages caps how many PDF pages are rasterized. 0 means no limit.
	MaxPages int
	// Timeout bounds one Image or PDF call, including every subprocess it starts.
	Timeout time.Duration
}

var imageExts = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "gif": true,
	"bmp": true, "tif": true, "tiff": true, "webp": true,
}

// SupportedImage reports whether tesseract can read an image with the given extension.
func SupportedImage(ext string) bool {
	return imageExts[strings.TrimPrefix(strings.ToLower(ext), ".")]
}

// Engine runs OCR on in-memory buffers.
type Engine struct {
	cfg    Config
	runner Runner
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner replaces the subprocess runner.
func WithRunner(r Runner) Option {
	return func(e *Engine) { e.runner = r }
}

// New creates an Engine. Empty config fields get the usual defaults.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	e := &Engine{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Image recognizes the text in one image buffer. ext names the image format.
func (e *Engine) Image(ctx context.Context, data []byte, ext string) (string, error) {
	const op = "ocr.Image"
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if !SupportedImage(ext) {
		return "", apperr.Errorf(apperr.KindOCR, op, "unsupported image format %q", ext)
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	dir, cleanup, err := tempDir()
	if err != nil {
		return "", apperr.Wrap(apperr.KindOCR, op, err)
	}
	defer cleanup()

	path := filepath.Join(dir, "image."+ext)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", apperr.Wrap(apperr.KindOCR, op, err)
	}
	txt, err := e.tesseract(ctx, path)
	if err != nil {
		return "", classify(ctx, op, err)
	}
	txt = utils.CollapseSpaces(txt)
	if txt == "" {
		return "", apperr.New(apperr.KindOCR, op, "no text recognized")
	}
	return txt, nil
}

// PDF rasterizes each page of a PDF buffer and recognizes the text of every page.
// Pages that fail are skipped; an error is returned only when no page yields text.
func (e *Engine) PDF(ctx context.Context, data []byte) (string, error) {
	const op = "ocr.PDF"
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	dir, cleanup, err := tempDir()
	if err != nil {
		return "", apperr.Wrap(apperr.KindOCR, op, err)
	}
	defer cleanup()

	in := filepath.Join(dir, "deck.pdf")
	if err := os.WriteFile(in, data, 0600); err != nil {
		return "", apperr.Wrap(apperr.KindOCR, op, err)
	}

	prefix := filepath.Join(dir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, in, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return "", classify(ctx, op, fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb))))
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	if len(pages) == 0 {
		return "", apperr.New(apperr.KindOCR, op, "pdftoppm produced no images")
	}
	sortPages(pages)
	if e.cfg.MaxPages > 0 && len(pages) > e.cfg.MaxPages {
		pages = pages[:e.cfg.MaxPages]
	}

	var b strings.Builder
	for _, page := range pages {
		txt, err := e.tesseract(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return "", classify(ctx, op, err)
			}
			e.logger.Debug("page ocr failed", zap.String("page", filepath.Base(page)), zap.Error(err))
			continue
		}
		txt = utils.CollapseSpaces(txt)
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	if b.Len() == 0 {
		return "", apperr.New(apperr.KindOCR, op, "no text recognized")
	}
	return b.String(), nil
}

func (e *Engine) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, e.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// classify maps a subprocess failure to Timeout when the deadline expired, OCR otherwise.
func classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, op, err)
	}
	return apperr.Wrap(apperr.KindOCR, op, err)
}

func tempDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "venturelens-ocr-*")
	if err != nil {
		return "", nil, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// sortPages orders pdftoppm output (page-1.png, page-2.png, …, page-10.png) by page number.
func sortPages(pages []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		n, _ := strconv.Atoi(base[strings.LastIndex(base, "-")+1:])
		return n
	}
	sort.Slice(pages, func(i, j int) bool { return num(pages[i]) < num(pages[j]) })
}
