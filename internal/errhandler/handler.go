package errhandler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/romangod6/sitemap-gen/internal/utils"
)

// Reporter is the part of Handler that pipeline components report into.
type Reporter interface {
	HandleError(err error, context string, critical bool) error
	AddWarning(message string)
}

// Handler accumulates the errors and warnings of one generation run.
type Handler struct {
	mu       sync.Mutex
	logger   *utils.Logger
	errors   []*SitemapError
	warnings []string
}

func NewHandler(logger *utils.Logger) *Handler {
	return &Handler{logger: logger}
}

// HandleError records err. Critical errors are logged and returned wrapped;
// anything else is logged as a warning and nil is returned.
func (h *Handler) HandleError(err error, context string, critical bool) error {
	if err == nil {
		return nil
	}
	se := Wrap(err, context)

	h.mu.Lock()
	h.errors = append(h.errors, se)
	h.mu.Unlock()

	if critical {
		h.logError(se)
		return se
	}
	h.logger.LogWarn("Non-critical error in %s: %s", context, se.Message)
	return nil
}

func (h *Handler) HandleValidationError(message, context string, critical bool) error {
	return h.HandleError(NewValidationError(message, context, nil), context, critical)
}

func (h *Handler) HandleFileError(err error, context string, critical bool) error {
	if err == nil {
		return nil
	}
	return h.HandleError(NewFileError(err.Error(), context, err), context, critical)
}

// HandleConfigError records a configuration error; these are always critical.
func (h *Handler) HandleConfigError(err error, context string) error {
	if err == nil {
		return nil
	}
	return h.HandleError(NewConfigError(err.Error(), context, err), context, true)
}

func (h *Handler) AddWarning(message string) {
	h.mu.Lock()
	h.warnings = append(h.warnings, message)
	h.mu.Unlock()
	h.logger.LogWarn("%s", message)
}

func (h *Handler) Errors() []*SitemapError {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*SitemapError(nil), h.errors...)
}

func (h *Handler) Warnings() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.warnings...)
}

// HasCriticalErrors reports whether a configuration or validation error was
// recorded.
func (h *Handler) HasCriticalErrors() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.errors {
		if e.Kind == KindConfig || e.Kind == KindValidation {
			return true
		}
	}
	return false
}

func (h *Handler) Clear() {
	h.mu.Lock()
	h.errors = nil
	h.warnings = nil
	h.mu.Unlock()
}

// Summary renders counts like "2 errors, 1 warning".
func (h *Handler) Summary() string {
	h.mu.Lock()
	errorCount, warningCount := len(h.errors), len(h.warnings)
	h.mu.Unlock()

	if errorCount == 0 && warningCount == 0 {
		return NoIssues
	}

	var parts []string
	if errorCount > 0 {
		parts = append(parts, plural(errorCount, "error"))
	}
	if warningCount > 0 {
		parts = append(parts, plural(warningCount, "warning"))
	}
	return strings.Join(parts, ", ")
}

// NoIssues is the summary of a clean run.
const NoIssues = "No errors or warnings"

func (h *Handler) logError(e *SitemapError) {
	h.logger.LogError("[%s] %s", e.Kind, e.Message)
	if e.Context != "" {
		h.logger.LogDebug("  Context: %s", e.Context)
	}
	if e.Err != nil {
		h.logger.LogDebug("  Original error: %v", e.Err)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
