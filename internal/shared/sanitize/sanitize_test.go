package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 70)

	tests := []struct {
		name     string
		params   map[string]any
		opts     []Option
		expected map[string]any
	}{
		{
			name:     "short values untouched",
			params:   map[string]any{"message_number": 3, "text": "hello"},
			expected: map[string]any{"message_number": 3, "text": "hello"},
		},
		{
			name:     "long strings truncated",
			params:   map[string]any{"text": long},
			expected: map[string]any{"text": strings.Repeat("a", 64) + "..truncated for print.."},
		},
		{
			name:     "jwt keys dropped",
			params:   map[string]any{"user_jwt": "token", "id": "1"},
			expected: map[string]any{"id": "1"},
		},
		{
			name:     "jwt keys kept on request",
			params:   map[string]any{"user_jwt": "token"},
			opts:     []Option{WithJWT()},
			expected: map[string]any{"user_jwt": "token"},
		},
		{
			name:     "lists summarised",
			params:   map[string]any{"files": []any{"a", "b"}},
			opts:     []Option{WithListSummary()},
			expected: map[string]any{"files": "List with 2 items"},
		},
		{
			name:     "lists kept by default",
			params:   map[string]any{"files": []any{"a"}},
			expected: map[string]any{"files": []any{"a"}},
		},
		{
			name: "nested objects sanitised",
			params: map[string]any{
				"callback": map[string]any{"jwt": "secret", "url": long},
			},
			expected: map[string]any{
				"callback": map[string]any{"url": strings.Repeat("a", 64) + "..truncated for print.."},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, Params(tc.params, tc.opts...))
		})
	}
}

func TestParams_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	params := map[string]any{"jwt": "x", "nested": map[string]any{"jwt": "y"}}

	_ = Params(params)

	assert.Contains(t, params, "jwt")
	assert.Contains(t, params["nested"], "jwt")
}
