package errhandler

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romangod6/sitemap-gen/internal/utils"
)

func TestWrapClassifiesFileErrors(t *testing.T) {
	err := fmt.Errorf("open app/page.tsx: %w", fs.ErrNotExist)

	se := Wrap(err, "scan")

	assert.Equal(t, KindFile, se.Kind)
	assert.Equal(t, "scan", se.Context)
	assert.ErrorIs(t, se, fs.ErrNotExist)
}

func TestWrapClassifiesValidation(t *testing.T) {
	se := Wrap(errors.New("Invalid URL generated: x"), "entry")
	assert.Equal(t, KindValidation, se.Kind)

	se = Wrap(errors.New("something odd"), "entry")
	assert.Equal(t, KindUnknown, se.Kind)
}

func TestWrapKeepsSitemapErrors(t *testing.T) {
	orig := NewConfigError("bad base url", "load", nil)

	se := Wrap(fmt.Errorf("outer: %w", orig), "other")

	assert.Same(t, orig, se)
	assert.True(t, IsKind(orig, KindConfig))
}

func TestHandleErrorNonCritical(t *testing.T) {
	h := NewHandler(utils.Discard())

	err := h.HandleError(errors.New("boom"), "collect", false)

	assert.NoError(t, err)
	require.Len(t, h.Errors(), 1)
	assert.Equal(t, "collect", h.Errors()[0].Context)
}

func TestHandleErrorCritical(t *testing.T) {
	h := NewHandler(utils.Discard())

	err := h.HandleError(errors.New("boom"), "generate", true)

	require.Error(t, err)
	assert.Equal(t, "generate: boom", err.Error())
	assert.Len(t, h.Errors(), 1)
}

func TestHandleConfigErrorIsCritical(t *testing.T) {
	h := NewHandler(utils.Discard())

	err := h.HandleConfigError(errors.New("unreadable"), "load")

	require.Error(t, err)
	assert.True(t, IsKind(err, KindConfig))
	assert.True(t, h.HasCriticalErrors())
}

func TestHandleFileErrorNonCritical(t *testing.T) {
	h := NewHandler(utils.Discard())

	assert.NoError(t, h.HandleFileError(fs.ErrPermission, "write", false))
	assert.False(t, h.HasCriticalErrors())
	assert.Equal(t, KindFile, h.Errors()[0].Kind)
}

func TestSummary(t *testing.T) {
	h := NewHandler(utils.Discard())
	assert.Equal(t, "No errors or warnings", h.Summary())

	h.HandleValidationError("bad priority", "config", false)
	h.HandleValidationError("bad freq", "config", false)
	h.AddWarning("blog unavailable")
	assert.Equal(t, "2 errors, 1 warning", h.Summary())

	h.Clear()
	h.AddWarning("a")
	h.AddWarning("b")
	assert.Equal(t, "2 warnings", h.Summary())
}
