package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentChange(t *testing.T) {
	t.Run("growth", func(t *testing.T) {
		change := PercentChange(3, 1)
		require.NotNil(t, change)
		assert.Equal(t, 200.0, *change)
	})

	t.Run("decline", func(t *testing.T) {
		change := PercentChange(50, 100)
		require.NotNil(t, change)
		assert.Equal(t, -50.0, *change)
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		change := PercentChange(1, 3)
		require.NotNil(t, change)
		assert.Equal(t, -66.7, *change)
	})

	t.Run("no baseline yields nil", func(t *testing.T) {
		assert.Nil(t, PercentChange(10, 0))
	})

	t.Run("flat", func(t *testing.T) {
		change := PercentChange(5, 5)
		require.NotNil(t, change)
		assert.Equal(t, 0.0, *change)
	})
}

func TestTrendDirection(t *testing.T) {
	up := 12.5
	down := -3.0
	flat := 0.0

	assert.Equal(t, TrendUp, TrendDirection(&up, false))
	assert.Equal(t, TrendDown, TrendDirection(&down, false))
	assert.Equal(t, TrendNeutral, TrendDirection(&flat, false))
	assert.Equal(t, TrendNeutral, TrendDirection(nil, false))

	// A falling bounce rate is an improvement.
	assert.Equal(t, TrendUp, TrendDirection(&down, true))
	assert.Equal(t, TrendDown, TrendDirection(&up, true))
	assert.Equal(t, TrendNeutral, TrendDirection(nil, true))
}

func TestSharePercent(t *testing.T) {
	assert.Equal(t, 50.0, SharePercent(1, 2))
	assert.Equal(t, 33.3, SharePercent(1, 3))
	assert.Equal(t, 0.0, SharePercent(5, 0))
	assert.Equal(t, 0.0, SharePercent(0, 10))
	assert.Equal(t, 100.0, SharePercent(10, 10))
}
