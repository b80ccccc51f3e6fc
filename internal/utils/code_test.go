package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUniqueCode(t *testing.T) {
	t.Run("free code is returned as-is", func(t *testing.T) {
		code := GenerateUniqueCode("foo", func(string) bool { return false })
		assert.Equal(t, "foo", code)
	})

	t.Run("taken code gets the first numeric suffix", func(t *testing.T) {
		taken := map[string]bool{"foo": true}
		code := GenerateUniqueCode("foo", func(c string) bool { return taken[c] })
		assert.Equal(t, "foo_1", code)
	})

	t.Run("suffixes advance past taken ones", func(t *testing.T) {
		taken := map[string]bool{"foo": true, "foo_1": true, "foo_2": true}
		code := GenerateUniqueCode("foo", func(c string) bool { return taken[c] })
		assert.Equal(t, "foo_3", code)
	})
}
