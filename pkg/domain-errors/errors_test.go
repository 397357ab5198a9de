package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeConflict, "sheet is not summarizing")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("close sheet: %w", New(CodeValidation, "notary_id is required"))
		assert.True(t, HasCode(err, CodeValidation))
		assert.Equal(t, CodeValidation, CodeOf(err))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		err := stderrors.New("connection reset")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("pq: connection refused")

	err := Wrap(cause, CodeInternal, "failed to load sheet")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load sheet: pq: connection refused", err.Error())
	assert.Nil(t, Wrap(nil, CodeInternal, "unused"))
}
