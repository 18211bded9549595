package segment

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitPacksSentences(t *testing.T) {
	text := "第一条 为了保障食品安全。第二条 本法适用于食品生产。第三条 禁止生产不符合标准的食品。"

	segments := Split(text, 512)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if !strings.Contains(segments[0].Content, "第二条") {
		t.Fatalf("sentences not packed together: %q", segments[0].Content)
	}
	if !strings.HasSuffix(segments[0].Content, "。") {
		t.Fatalf("expected CJK full stop suffix: %q", segments[0].Content)
	}
	if segments[0].Index != 0 {
		t.Fatalf("expected index 0, got %d", segments[0].Index)
	}
}

func TestSplitRespectsMaxLength(t *testing.T) {
	long := strings.Repeat("条", 60)
	text := long + "。" + long + "。" + long + "。"

	segments := Split(text, 100)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for i, s := range segments {
		if s.Index != i {
			t.Fatalf("segment %d has index %d", i, s.Index)
		}
		if s.Length != utf8.RuneCountInString(s.Content) {
			t.Fatalf("segment %d length mismatch: %d vs %d", i, s.Length, utf8.RuneCountInString(s.Content))
		}
		if s.ID == "" {
			t.Fatalf("segment %d has empty id", i)
		}
	}
}

func TestSplitMixedTerminators(t *testing.T) {
	segments := Split("Is this allowed? It is not! 违者罚款；情节严重的吊销执照.", 10)
	if len(segments) != 4 {
		t.Fatalf("expected 4 segments, got %d", len(segments))
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if got := Split("", 512); len(got) != 0 {
		t.Fatalf("expected no segments, got %d", len(got))
	}
	if got := Split("。。。；；", 512); len(got) != 0 {
		t.Fatalf("expected no segments from bare terminators, got %d", len(got))
	}
}

func TestExtractMetadata(t *testing.T) {
	text := "本regulation适用于食品生产经营\n\n违反本law的处罚如下"

	md := ExtractMetadata(text, "food_safety.txt")
	if md.Filename != "food_safety.txt" {
		t.Fatalf("filename: %q", md.Filename)
	}
	// 18 CJK characters plus 2 Latin words
	if md.WordCount != 20 {
		t.Fatalf("word count: %d", md.WordCount)
	}
	if md.ParagraphCount != 2 {
		t.Fatalf("paragraph count: %d", md.ParagraphCount)
	}
	if len(md.DetectedKeywords) != 2 {
		t.Fatalf("detected keywords: %v", md.DetectedKeywords)
	}
}

func TestExtractMetadataNoBlankLineBreaks(t *testing.T) {
	long := strings.Repeat("a", 60)
	text := long + "\n" + long + "\nshort"

	// no blank-line breaks, so the whole text counts as one paragraph
	md := ExtractMetadata(text, "doc.txt")
	if md.ParagraphCount != 1 {
		t.Fatalf("paragraph count: %d", md.ParagraphCount)
	}
}
