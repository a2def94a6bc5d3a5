package openai

import (
	"errors"
	"testing"

	"shadow7-backend/internal/llm"
)

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini"); !errors.Is(err, llm.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	if _, err := NewClient("sk-test", ""); err == nil {
		t.Fatalf("expected error for missing model")
	}
}

func TestExtractJSONStripsFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"duplicates": 1}`, `{"duplicates": 1}`},
		{"fenced", "```json\n{\"duplicates\": 1}\n```", `{"duplicates": 1}`},
		{"fenced no lang", "```\n{\"duplicates\": 2}\n```", `{"duplicates": 2}`},
		{"surrounding text", "النتيجة:\n```json\n{\"outliers\": 3}\n```\nتم", `{"outliers": 3}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
