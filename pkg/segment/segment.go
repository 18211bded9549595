// Package segment splits regulation text into retrieval-sized segments and
// derives document-level metadata from the raw text.
package segment

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/common"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultMaxLength is the segment packing limit in characters.
const DefaultMaxLength = 512

var (
	sentenceSplit = regexp.MustCompile(`[.。!！?？；;]`)
	cjkChar       = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	latinWord     = regexp.MustCompile(`\b[a-zA-Z]+\b`)
)

// lawKeywords are scanned verbatim against the document text.
var lawKeywords = []string{
	"law", "regulation", "statute", "provision",
	"measure", "rule", "notice", "announcement",
}

// Split breaks text into sentences on CJK and Latin terminators and packs
// them into segments of at most maxLength characters. Sentences are joined
// with a CJK full stop; a sentence longer than maxLength becomes its own
// segment. maxLength falls back to DefaultMaxLength when not positive.
func Split(text string, maxLength int) []common.Segment {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	sentences := sentenceSplit.Split(text, -1)
	segments := make([]common.Segment, 0)

	var current strings.Builder
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if utf8.RuneCountInString(current.String())+utf8.RuneCountInString(sentence) <= maxLength {
			current.WriteString(sentence)
			current.WriteString("。")
			continue
		}

		if current.Len() > 0 {
			segments = append(segments, newSegment(current.String(), len(segments)))
		}
		current.Reset()
		current.WriteString(sentence)
		current.WriteString("。")
	}
	if current.Len() > 0 {
		segments = append(segments, newSegment(current.String(), len(segments)))
	}

	return segments
}

func newSegment(content string, index int) common.Segment {
	content = strings.TrimSpace(content)
	return common.Segment{
		ID:        util.NewID(),
		Content:   content,
		Index:     index,
		Length:    utf8.RuneCountInString(content),
		CreatedAt: time.Now().UTC(),
	}
}

// ExtractMetadata derives document statistics from the raw text. Word count
// sums CJK characters and Latin words, which keeps mixed-language regulation
// texts comparable.
func ExtractMetadata(text, filename string) common.DocumentMetadata {
	wordCount := len(cjkChar.FindAllString(text, -1)) + len(latinWord.FindAllString(text, -1))

	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	if paragraphs == 0 {
		// no blank-line breaks; count substantial single lines instead
		for _, p := range strings.Split(text, "\n") {
			if utf8.RuneCountInString(strings.TrimSpace(p)) > 50 {
				paragraphs++
			}
		}
	}

	detected := make([]string, 0, len(lawKeywords))
	for _, kw := range lawKeywords {
		if strings.Contains(text, kw) {
			detected = append(detected, kw)
		}
	}

	return common.DocumentMetadata{
		Filename:         filename,
		WordCount:        wordCount,
		CharacterCount:   utf8.RuneCountInString(text),
		ParagraphCount:   paragraphs,
		DetectedKeywords: detected,
		ExtractionTime:   time.Now().UTC(),
	}
}

// CountTokens reports the o200k token count of text. It returns 0 when the
// encoding dictionary cannot be loaded.
func CountTokens(text string) int {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}
