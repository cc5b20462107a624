package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	t.Run("removes duplicates preserving order", func(t *testing.T) {
		got := DedupeAndTrim([]string{"b", "a", "b", "c", "a"})
		assert.Equal(t, []string{"b", "a", "c"}, got)
	})

	t.Run("trims whitespace before comparing", func(t *testing.T) {
		got := DedupeAndTrim([]string{" a ", "a", "b "})
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("drops empty entries", func(t *testing.T) {
		got := DedupeAndTrim([]string{"", "  ", "a"})
		assert.Equal(t, []string{"a"}, got)
	})

	t.Run("empty input passes through", func(t *testing.T) {
		assert.Empty(t, DedupeAndTrim(nil))
	})
}

func TestDedupeAndTrimLower(t *testing.T) {
	got := DedupeAndTrimLower([]string{"Monday", " monday", "TUESDAY"})
	assert.Equal(t, []string{"monday", "tuesday"}, got)
}
