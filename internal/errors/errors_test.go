package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMacrodocError_Error(t *testing.T) {
	err := NewValidationError(ErrCodeInvalidPath, "bad path")
	assert.Contains(t, err.Error(), "[ERR_INVALID_PATH]")
	assert.Contains(t, err.Error(), "bad path")
}

func TestMacrodocError_Location(t *testing.T) {
	err := NewValidationError(ErrCodeConfigInvalid, "bad value").
		WithLocation("macros/site.ddoc", 12)

	assert.Contains(t, err.Error(), "macros/site.ddoc:12")
}

func TestMacrodocError_MacroContext(t *testing.T) {
	err := ErrRenderFailed("index", nil).WithMacro("DDOC")
	assert.Contains(t, err.Error(), "macro:DDOC")
}

func TestMacrodocError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewIOError(ErrCodeMacroFileRead, "cannot open macro file", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
}

func TestMacrodocError_Is(t *testing.T) {
	a := ErrDocumentNotFound("index")
	b := ErrDocumentNotFound("other")
	assert.True(t, stderrors.Is(a, b))

	c := ErrInvalidPath("x")
	assert.False(t, stderrors.Is(a, c))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(ErrDocumentNotFound("index")))
	assert.True(t, IsRecoverable(ErrRenderFailed("index", nil)))
	assert.False(t, IsRecoverable(ErrPathTraversal("../etc")))
	assert.False(t, IsRecoverable(stderrors.New("plain")))
}
