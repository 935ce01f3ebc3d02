// Package apperr defines the error kinds shared by the analysis pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can choose recovery and HTTP status.
type Kind int

const (
	// KindInternal is any failure not covered by a more specific kind.
	KindInternal Kind = iota
	// KindInvalidInput is a missing or wrong-typed request field.
	KindInvalidInput
	// KindUnsupportedFormat is an uploaded file that is neither PDF nor PPTX.
	KindUnsupportedFormat
	// KindExtraction is a PDF/PPTX parse failure. Recovered by OCR or placeholders.
	KindExtraction
	// KindOCR is an OCR failure. Recovered with a placeholder string.
	KindOCR
	// KindUpstream is a network or API failure talking to the model provider.
	KindUpstream
	// KindMalformedResponse is model output that is not a JSON object.
	KindMalformedResponse
	// KindConfiguration is missing or invalid configuration (e.g. API key).
	KindConfiguration
	// KindTimeout is an outbound call that exceeded its deadline.
	KindTimeout
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindExtraction:
		return "extraction_failure"
	case KindOCR:
		return "ocr_failure"
	case KindUpstream:
		return "upstream_error"
	case KindMalformedResponse:
		return "malformed_response"
	case KindConfiguration:
		return "configuration_error"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is an error tagged with a Kind and the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, op, message string) error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Errorf returns an error of the given kind with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind and op. Returns nil when err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
