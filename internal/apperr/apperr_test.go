package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(KindUpstream, "llm.complete", base)
	if KindOf(err) != KindUpstream {
		t.Errorf("KindOf = %v", KindOf(err))
	}
	wrapped := fmt.Errorf("analyze: %w", err)
	if !Is(wrapped, KindUpstream) {
		t.Error("kind should survive fmt wrapping")
	}
	if !errors.Is(wrapped, base) {
		t.Error("cause should be reachable")
	}
	if KindOf(base) != KindInternal {
		t.Error("untagged errors are internal")
	}
	if Is(nil, KindInternal) {
		t.Error("nil error has no kind")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindOCR, "op", nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestErrorString(t *testing.T) {
	err := New(KindUnsupportedFormat, "extract", `extension "txt"`)
	if got := err.Error(); got != `extract: unsupported_format: extension "txt"` {
		t.Errorf("got %q", got)
	}
	err = Wrap(KindTimeout, "", errors.New("deadline"))
	if got := err.Error(); got != "timeout: deadline" {
		t.Errorf("got %q", got)
	}
}
