package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain json untouched",
			input:    `{"description": "a shirt"}`,
			expected: `{"description": "a shirt"}`,
		},
		{
			name:     "json fence with language tag",
			input:    "```json\n{\"description\": \"a shirt\"}\n```",
			expected: `{"description": "a shirt"}`,
		},
		{
			name:     "fence without language tag",
			input:    "```\n{\"description\": \"a shirt\"}\n```",
			expected: `{"description": "a shirt"}`,
		},
		{
			name:     "fence directly followed by brace",
			input:    "```{\"a\": 1}```",
			expected: `{"a": 1}`,
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  \n```json\n[1, 2]\n```\n  ",
			expected: "[1, 2]",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripCodeFence(tt.input))
		})
	}
}
