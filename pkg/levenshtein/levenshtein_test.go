package levenshtein_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/colprofile/pkg/levenshtein"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"region", "region", 0},
		{"업태", "업종", 1},
		{"지역", "지역명", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein.Distance(tt.a, tt.b), "%q -> %q", tt.a, tt.b)
		assert.Equal(t, tt.want, levenshtein.Distance(tt.b, tt.a), "%q -> %q", tt.b, tt.a)
	}
}

func TestClosest(t *testing.T) {
	t.Parallel()

	header := []string{"name", "Region", "business type", "지역"}

	got, ok := levenshtein.Closest("regoin", header, -1)
	assert.True(t, ok)
	assert.Equal(t, "Region", got)

	got, ok = levenshtein.Closest("  BUSINES TYPE ", header, 2)
	assert.True(t, ok)
	assert.Equal(t, "business type", got)

	got, ok = levenshtein.Closest("지역명", header, 1)
	assert.True(t, ok)
	assert.Equal(t, "지역", got)

	_, ok = levenshtein.Closest("totally unrelated", header, -1)
	assert.False(t, ok)

	_, ok = levenshtein.Closest("", header, 3)
	assert.False(t, ok)

	_, ok = levenshtein.Closest("name", nil, 3)
	assert.False(t, ok)
}
