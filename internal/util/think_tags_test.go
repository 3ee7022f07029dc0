package util

import (
	"testing"
)

func TestContainsThinkTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{
			name:     "has think tags",
			input:    "<think>The user likes machines</think>Try a CNC course",
			expected: true,
		},
		{
			name:     "has thinking tags",
			input:    "<thinking>Step by step</thinking>Final advice",
			expected: true,
		},
		{
			name:     "no think tags",
			input:    "Start with digital literacy",
			expected: false,
		},
		{
			name:     "has Chinese think tags",
			input:    "<思考>让我想想</思考>答案",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsThinkTags(tt.input); got != tt.expected {
				t.Errorf("ContainsThinkTags() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStripThinkTags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strip single think block",
			input:    "<think>This is my reasoning</think>Learn PLC basics",
			expected: "Learn PLC basics",
		},
		{
			name:     "strip multiple blocks",
			input:    "<think>First</think>Some text<THINKING>Second</THINKING> more",
			expected: "Some text more",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  \n<think>x</think>\n  Answer\n",
			expected: "Answer",
		},
		{
			name:     "only reasoning",
			input:    "<think>nothing else</think>",
			expected: "",
		},
		{
			name:     "no think tags",
			input:    "Just a regular response",
			expected: "Just a regular response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripThinkTags(tt.input); got != tt.expected {
				t.Errorf("StripThinkTags() = %q, want %q", got, tt.expected)
			}
		})
	}
}
