package services

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "bare object",
			content:  `{"score": 85}`,
			expected: `{"score": 85}`,
		},
		{
			name:     "json fence",
			content:  "```json\n{\"score\": 85}\n```",
			expected: `{"score": 85}`,
		},
		{
			name:     "plain fence",
			content:  "```\n{\"score\": 85}\n```",
			expected: `{"score": 85}`,
		},
		{
			name:     "surrounding prose",
			content:  "Here is the analysis:\n{\"score\": 85}\nLet me know if you need more.",
			expected: `{"score": 85}`,
		},
		{
			name:     "nested braces",
			content:  `{"outer": {"inner": 1}}`,
			expected: `{"outer": {"inner": 1}}`,
		},
		{
			name:     "no object",
			content:  "I could not produce JSON for this.",
			expected: "",
		},
		{
			name:     "invalid json",
			content:  `{"score": }`,
			expected: "",
		},
		{
			name:     "empty",
			content:  "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.content)
			if got != tt.expected {
				t.Errorf("ExtractJSON(%q) = %q, expected %q", tt.content, got, tt.expected)
			}
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "bare array",
			content:  `[{"question_text": "Q1"}]`,
			expected: `[{"question_text": "Q1"}]`,
		},
		{
			name:     "fenced array with prose",
			content:  "Sure!\n```json\n[1, 2, 3]\n```",
			expected: `[1, 2, 3]`,
		},
		{
			name:     "no array",
			content:  "nothing useful here",
			expected: "",
		},
		{
			name:     "invalid array",
			content:  `[1, 2,`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSONArray(tt.content)
			if got != tt.expected {
				t.Errorf("ExtractJSONArray(%q) = %q, expected %q", tt.content, got, tt.expected)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := stripCodeFence("```json\n{}\n```"); got != "{}" {
		t.Errorf("got %q", got)
	}
	if got := stripCodeFence("no fences here"); got != "no fences here" {
		t.Errorf("got %q", got)
	}
	if got := stripCodeFence("prefix ```\ninner\n``` suffix"); got != "inner" {
		t.Errorf("got %q", got)
	}
}
