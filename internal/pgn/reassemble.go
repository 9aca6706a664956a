package pgn

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosingBrace is returned when replacement text would terminate its
// comment early.
var ErrClosingBrace = errors.New("comment text contains '}'")

// HasClosingBrace reports whether text cannot be placed inside a comment.
func HasClosingBrace(text string) bool {
	return strings.IndexByte(text, '}') >= 0
}

// Reassemble rebuilds doc with texts[i] placed inside comments[i]. Everything
// outside the comment spans is copied byte for byte.
func Reassemble(doc string, comments []Comment, texts []string) (string, error) {
	if len(texts) != len(comments) {
		return "", fmt.Errorf("text count mismatch: %d comments, %d texts", len(comments), len(texts))
	}

	grow := len(doc)
	for i, c := range comments {
		grow += len(texts[i]) - len(c.Text)
	}
	var b strings.Builder
	if grow > 0 {
		b.Grow(grow)
	}

	prev := 0
	for i, c := range comments {
		if c.Span.Start < prev || c.Span.End > len(doc) || c.Span.End-c.Span.Start < 2 {
			return "", fmt.Errorf("comment %d has invalid span [%d, %d)", i, c.Span.Start, c.Span.End)
		}
		if HasClosingBrace(texts[i]) {
			return "", fmt.Errorf("comment %d: %w", i, ErrClosingBrace)
		}
		b.WriteString(doc[prev:c.Span.Start])
		b.WriteByte('{')
		b.WriteString(texts[i])
		b.WriteByte('}')
		prev = c.Span.End
	}
	b.WriteString(doc[prev:])
	return b.String(), nil
}

// OriginalTexts returns the current text of every comment.
func OriginalTexts(comments []Comment) []string {
	texts := make([]string, len(comments))
	for i, c := range comments {
		texts[i] = c.Text
	}
	return texts
}
