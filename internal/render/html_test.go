package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paragraphs become lines",
			input:    "<p>first</p><p>second</p>",
			expected: "first\nsecond",
		},
		{
			name:     "script and style are dropped",
			input:    "<style>p{color:red}</style><p>visible</p><script>alert(1)</script>",
			expected: "visible",
		},
		{
			name:     "line breaks",
			input:    "one<br>two",
			expected: "one\ntwo",
		},
		{
			name:     "anchor keeps target next to text",
			input:    `<a href="https://example.com">click here</a>`,
			expected: "click here (https://example.com)",
		},
		{
			name:     "anchor with matching text is not doubled",
			input:    `<a href="https://example.com">https://example.com</a>`,
			expected: "https://example.com",
		},
		{
			name:     "bare anchor emits the target",
			input:    `<a href="https://example.com"></a>`,
			expected: "https://example.com",
		},
		{
			name:     "list items",
			input:    "<ul><li>alpha</li><li>beta</li></ul>",
			expected: "alpha\nbeta",
		},
		{
			name:     "runs of blank lines collapse",
			input:    "<div></div><div></div><div></div><p>body</p>",
			expected: "body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := HTMLToText(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestHTMLToTextPlainInputPassesThrough(t *testing.T) {
	out, err := HTMLToText("no markup at all")
	require.NoError(t, err)
	assert.Equal(t, "no markup at all", out)
}
