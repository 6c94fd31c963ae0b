package safeconv_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/colprofile/pkg/safeconv"
)

func TestClampToUint64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(0), safeconv.ClampToUint64(-5))
	assert.Equal(t, uint64(0), safeconv.ClampToUint64(0))
	assert.Equal(t, uint64(64), safeconv.ClampToUint64(64))
}

func TestClampToInt64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(42), safeconv.ClampToInt64(42))
	assert.Equal(t, int64(math.MaxInt64), safeconv.ClampToInt64(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), safeconv.ClampToInt64(math.MaxUint64))
}

func TestMustUint64ToInt64(t *testing.T) {
	t.Parallel()

	t.Run("in_range", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, int64(64_000_000), safeconv.MustUint64ToInt64(64_000_000))
	})

	t.Run("overflow_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: uint64 to int64 overflow", func() {
			safeconv.MustUint64ToInt64(math.MaxInt64 + 1)
		})
	})
}
