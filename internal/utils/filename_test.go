package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name.jpg`,
			expected: "filename.jpg",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces.png",
			expected: "file name with spaces.png",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name.png",
			expected: "file name.png",
		},
		{
			name:     "strips control characters",
			input:    "pic\x00ture\x1f.gif",
			expected: "picture.gif",
		},
		{
			name:     "trims whitespace",
			input:    "  photo.jpg  ",
			expected: "photo.jpg",
		},
		{
			name:     "drops leading dots",
			input:    "../../etc/passwd",
			expected: "etcpasswd",
		},
		{
			name:     "empty input stays empty",
			input:    "",
			expected: "",
		},
		{
			name:     "only invalid characters stays empty",
			input:    `<>:?*`,
			expected: "",
		},
		{
			name:     "handles unicode",
			input:    "zdjęcie wakacyjne.jpg",
			expected: "zdjęcie wakacyjne.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFileName(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSanitizeFileName_TruncatesKeepingExtension(t *testing.T) {
	long := strings.Repeat("a", 250) + ".jpeg"
	result := SanitizeFileName(long)

	assert.LessOrEqual(t, len(result), 200)
	assert.True(t, strings.HasSuffix(result, ".jpeg"))
}
