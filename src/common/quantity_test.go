package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferQuantity(t *testing.T) {
	t.Run("exact multiples resolve cleanly", func(t *testing.T) {
		qty, err := InferQuantity(199, 199)
		assert.Nil(t, err)
		assert.Equal(t, uint(1), qty)

		qty, err = InferQuantity(398, 199)
		assert.Nil(t, err)
		assert.Equal(t, uint(2), qty)

		qty, err = InferQuantity(1990, 199)
		assert.Nil(t, err)
		assert.Equal(t, uint(10), qty)
	})

	t.Run("small rounding drift is absorbed", func(t *testing.T) {
		qty, err := InferQuantity(398.40, 199.20)
		assert.Nil(t, err)
		assert.Equal(t, uint(2), qty)

		qty, err = InferQuantity(199.3, 199)
		assert.Nil(t, err)
		assert.Equal(t, uint(1), qty)
	})

	t.Run("off-multiple amounts are rejected, not floored", func(t *testing.T) {
		_, err := InferQuantity(100, 199)
		assert.ErrorIs(t, err, ErrAmbiguousAmount)

		_, err = InferQuantity(250, 100)
		assert.ErrorIs(t, err, ErrAmbiguousAmount)

		_, err = InferQuantity(300, 199)
		assert.ErrorIs(t, err, ErrAmbiguousAmount)
	})

	t.Run("non-positive inputs", func(t *testing.T) {
		_, err := InferQuantity(0, 199)
		assert.ErrorIs(t, err, ErrAmbiguousAmount)

		_, err = InferQuantity(-199, 199)
		assert.ErrorIs(t, err, ErrAmbiguousAmount)

		_, err = InferQuantity(199, 0)
		assert.NotNil(t, err)

		_, err = InferQuantity(199, -1)
		assert.NotNil(t, err)
	})
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(ErrSignatureInvalid))
	assert.False(t, Retryable(ErrEventNotFound))
	assert.False(t, Retryable(ErrCapacityExceeded))
	assert.False(t, Retryable(ErrAmbiguousAmount))
	assert.True(t, Retryable(ErrIdentityMissing))
	assert.True(t, Retryable(assert.AnError))
}
