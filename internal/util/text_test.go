package util

import "testing"

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{
			name:  "short input keeps full text",
			input: "Article 5",
			max:   200,
			want:  "Article 5...",
		},
		{
			name:  "long input is cut at max",
			input: "abcdefghij",
			max:   4,
			want:  "abcd...",
		},
		{
			name:  "multibyte runes are not split",
			input: "法规条款内容",
			max:   3,
			want:  "法规条...",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Excerpt(tc.input, tc.max); got != tc.want {
				t.Fatalf("Excerpt() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("hello", 10); got != "hello" {
		t.Fatalf("TruncateRunes() = %q, want %q", got, "hello")
	}
	if got := TruncateRunes("hello", 2); got != "he" {
		t.Fatalf("TruncateRunes() = %q, want %q", got, "he")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	input := "  a\nb\r\n  c   d "
	if got := CollapseWhitespace(input); got != "a b c d" {
		t.Fatalf("CollapseWhitespace() = %q, want %q", got, "a b c d")
	}
}
