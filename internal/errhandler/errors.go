package errhandler

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Kind classifies a SitemapError.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindFile       Kind = "FILE_ERROR"
	KindConfig     Kind = "CONFIG_ERROR"
	KindUnknown    Kind = "UNKNOWN_ERROR"
)

// SitemapError is an error annotated with a kind and the context in which it
// happened.
type SitemapError struct {
	Message string
	Kind    Kind
	Context string
	Err     error
}

func (e *SitemapError) Error() string {
	if e.Context == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Context, e.Message)
}

func (e *SitemapError) Unwrap() error {
	return e.Err
}

func NewValidationError(message, context string, err error) *SitemapError {
	return &SitemapError{Message: message, Kind: KindValidation, Context: context, Err: err}
}

func NewFileError(message, context string, err error) *SitemapError {
	return &SitemapError{Message: message, Kind: KindFile, Context: context, Err: err}
}

func NewConfigError(message, context string, err error) *SitemapError {
	return &SitemapError{Message: message, Kind: KindConfig, Context: context, Err: err}
}

// Wrap converts err into a SitemapError, classifying foreign errors by their
// chain and message.
func Wrap(err error, context string) *SitemapError {
	var se *SitemapError
	if errors.As(err, &se) {
		return se
	}

	msg := err.Error()
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrExist):
		return NewFileError(msg, context, err)
	case containsFold(msg, "invalid"), containsFold(msg, "validation"):
		return NewValidationError(msg, context, err)
	}
	return &SitemapError{Message: msg, Kind: KindUnknown, Context: context, Err: err}
}

// IsKind reports whether any SitemapError in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var se *SitemapError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}
