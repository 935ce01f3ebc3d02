package utils

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestTruncateChars(t *testing.T) {
	got, cut := TruncateChars("abcdef", 10)
	if cut || got != "abcdef" {
		t.Errorf("short input: got %q cut=%v", got, cut)
	}
	got, cut = TruncateChars("abc def ghi", 4)
	if !cut {
		t.Fatal("expected truncation")
	}
	if got != "abc"+TruncatedMarker {
		t.Errorf("got %q", got)
	}
	got, _ = TruncateChars("héllo wörld", 5)
	if !strings.HasPrefix(got, "héllo") {
		t.Errorf("rune-safe cut: got %q", got)
	}
}

func TestTruncateWords(t *testing.T) {
	got, cut := TruncateWords("one two three", 5)
	if cut || got != "one two three" {
		t.Errorf("got %q cut=%v", got, cut)
	}
	got, cut = TruncateWords("one two\nthree four", 2)
	if !cut {
		t.Fatal("expected truncation")
	}
	if got != "one two"+TruncatedMarker {
		t.Errorf("got %q", got)
	}
	got, cut = TruncateWords("one two", 2)
	if cut || got != "one two" {
		t.Errorf("exact word count should not truncate: %q", got)
	}
}

func TestTruncateWords_agreesWithCountWords(t *testing.T) {
	tests := map[string]string{
		"nbsp":      "one\u00a0two\u00a0three",
		"form feed": "one\ftwo\fthree",
		"vtab":      "one\vtwo three",
		"ideograph": "one\u3000two\u3000three",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if n := CountWords(in); n != 3 {
				t.Fatalf("CountWords = %d, want 3", n)
			}
			got, cut := TruncateWords(in, 2)
			if !cut || !strings.HasSuffix(got, TruncatedMarker) {
				t.Fatalf("TruncateWords(%q, 2) = %q, %v", in, got, cut)
			}
			if n := CountWords(strings.TrimSuffix(got, TruncatedMarker)); n != 2 {
				t.Errorf("kept %d words, want 2", n)
			}
			if _, cut := TruncateWords(in, 3); cut {
				t.Error("three words should fit a cap of three")
			}
		})
	}
}

func TestCollapseSpaces(t *testing.T) {
	in := "  a   b \r\n\n\n c\t\td  \n"
	if got := CollapseSpaces(in); got != "a b\n\nc d" {
		t.Errorf("got %q", got)
	}
}

func TestCountWords(t *testing.T) {
	if n := CountWords(" a b\nc "); n != 3 {
		t.Errorf("got %d", n)
	}
}
