package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/venturelens/internal/apperr"
)

type call struct {
	name string
	args []string
}

// fakeRunner answers tesseract with per-file text and makes pdftoppm write page images.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []call
	pages    int
	text     map[string]string // image base name -> recognized text
	failTess bool
	block    bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args})
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, []byte("killed"), ctx.Err()
	}
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			p := prefix + "-" + strconv.Itoa(i) + ".png"
			if err := os.WriteFile(p, []byte("png"), 0600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		if f.failTess {
			return nil, []byte("read error"), errors.New("exit status 1")
		}
		return []byte(f.text[filepath.Base(args[0])]), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func TestImage(t *testing.T) {
	r := &fakeRunner{text: map[string]string{"image.png": "  Revenue   grew\n\n\n 3x  "}}
	e := New(Config{Language: "deu", TessdataDir: "/td"}, nil, WithRunner(r))
	got, err := e.Image(context.Background(), []byte{1, 2, 3}, ".PNG")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Revenue grew\n\n3x" {
		t.Errorf("got %q", got)
	}
	args := strings.Join(r.calls[0].args, " ")
	if !strings.Contains(args, "stdout -l deu") || !strings.Contains(args, "--tessdata-dir /td") {
		t.Errorf("tesseract args = %q", args)
	}
	if _, err := os.Stat(r.calls[0].args[0]); !os.IsNotExist(err) {
		t.Error("temp image should be removed after the call")
	}
}

func TestImage_unsupportedFormat(t *testing.T) {
	r := &fakeRunner{}
	e := New(Config{}, nil, WithRunner(r))
	_, err := e.Image(context.Background(), []byte{1}, "emf")
	if !apperr.Is(err, apperr.KindOCR) {
		t.Errorf("want OCR error, got %v", err)
	}
	if len(r.calls) != 0 {
		t.Error("no subprocess should run for unsupported formats")
	}
}

func TestImage_failure(t *testing.T) {
	e := New(Config{}, nil, WithRunner(&fakeRunner{failTess: true}))
	_, err := e.Image(context.Background(), []byte{1}, "jpg")
	if !apperr.Is(err, apperr.KindOCR) {
		t.Errorf("want OCR error, got %v", err)
	}
}

func TestImage_emptyText(t *testing.T) {
	e := New(Config{}, nil, WithRunner(&fakeRunner{text: map[string]string{}}))
	if _, err := e.Image(context.Background(), []byte{1}, "png"); !apperr.Is(err, apperr.KindOCR) {
		t.Errorf("blank output should be an OCR error, got %v", err)
	}
}

func TestImage_timeout(t *testing.T) {
	e := New(Config{Timeout: 20 * time.Millisecond}, nil, WithRunner(&fakeRunner{block: true}))
	_, err := e.Image(context.Background(), []byte{1}, "png")
	if !apperr.Is(err, apperr.KindTimeout) {
		t.Errorf("want timeout, got %v", err)
	}
}

func TestPDF(t *testing.T) {
	r := &fakeRunner{
		pages: 3,
		text: map[string]string{
			"page-1.png": "Problem",
			"page-2.png": "",
			"page-3.png": "Solution",
		},
	}
	e := New(Config{DPI: 150, MaxPages: 2}, nil, WithRunner(r))
	got, err := e.PDF(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatal(err)
	}
	// MaxPages=2 keeps page 1 and 2; page 2 is blank.
	if got != "Problem" {
		t.Errorf("got %q", got)
	}
	pp := strings.Join(r.calls[0].args, " ")
	if r.calls[0].name != "pdftoppm" || !strings.Contains(pp, "-r 150 -png") || !strings.Contains(pp, "-l 2") {
		t.Errorf("pdftoppm call = %s %q", r.calls[0].name, pp)
	}
}

func TestPDF_allPagesJoinedInOrder(t *testing.T) {
	r := &fakeRunner{
		pages: 2,
		text:  map[string]string{"page-1.png": "one", "page-2.png": "two"},
	}
	e := New(Config{}, nil, WithRunner(r))
	got, err := e.PDF(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "one\n\ntwo" {
		t.Errorf("got %q", got)
	}
}

func TestPDF_noPages(t *testing.T) {
	e := New(Config{}, nil, WithRunner(&fakeRunner{pages: 0}))
	if _, err := e.PDF(context.Background(), []byte("%PDF")); !apperr.Is(err, apperr.KindOCR) {
		t.Errorf("want OCR error, got %v", err)
	}
}

func TestPDF_timeout(t *testing.T) {
	e := New(Config{Timeout: 20 * time.Millisecond}, nil, WithRunner(&fakeRunner{block: true}))
	if _, err := e.PDF(context.Background(), []byte("%PDF")); !apperr.Is(err, apperr.KindTimeout) {
		t.Errorf("want timeout, got %v", err)
	}
}

func TestSortPages(t *testing.T) {
	pages := []string{"/t/page-10.png", "/t/page-2.png", "/t/page-1.png"}
	sortPages(pages)
	if pages[0] != "/t/page-1.png" || pages[2] != "/t/page-10.png" {
		t.Errorf("got %v", pages)
	}
}
