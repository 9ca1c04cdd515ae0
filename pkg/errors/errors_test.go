package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	typed := Wrap(errors.New("missing"), ErrInputUnavailable.Code, ErrInputUnavailable.Status, "names table unavailable")
	got := FromError(fmt.Errorf("run: %w", typed))
	require.NotNil(t, got)
	assert.Equal(t, "INPUT_UNAVAILABLE", got.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)
	assert.Equal(t, "names table unavailable: missing", got.Error())

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "format must be text")
	assert.Equal(t, "format must be text", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.True(t, errors.Is(clone, ErrValidation))
	assert.False(t, errors.Is(clone, ErrInternal))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(Clone(ErrValidation, "bad flags")))
	assert.Equal(t, 1, ExitCode(Clone(ErrInputUnavailable, "")))
	assert.Equal(t, 1, ExitCode(errors.New("other")))
}
