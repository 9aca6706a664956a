// Package pgn locates brace comments in PGN text and rebuilds the document
// with replacement comment text. It does not parse moves, tags or variations.
package pgn

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// Span is a half-open byte range [Start, End) covering a comment including
// its opening and closing braces.
type Span struct {
	Start int
	End   int
}

// Comment is a single `{...}` annotation found in a document.
type Comment struct {
	Index int
	Span  Span
	// Text is the content strictly between the braces.
	Text string
}

// ErrMalformedInput matches any *MalformedInputError.
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError reports an opening brace with no closing brace before
// the end of the document.
type MalformedInputError struct {
	Offset int // byte offset of the unmatched '{'
	Line   int // 1-based
	Column int // 1-based, counted in grapheme clusters
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("unterminated comment: '{' at line %d, column %d has no matching '}'", e.Line, e.Column)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// Locate scans doc once, left to right, and returns every comment in order.
// Comments do not nest: a '{' inside a comment is ordinary comment text, and a
// '}' outside a comment is ordinary document text. An unterminated comment is
// reported as *MalformedInputError and no comments are returned.
func Locate(doc string) ([]Comment, error) {
	var comments []Comment
	open := -1
	for i := 0; i < len(doc); i++ {
		switch doc[i] {
		case '{':
			if open < 0 {
				open = i
			}
		case '}':
			if open < 0 {
				continue
			}
			comments = append(comments, Comment{
				Index: len(comments),
				Span:  Span{Start: open, End: i + 1},
				Text:  doc[open+1 : i],
			})
			open = -1
		}
	}
	if open >= 0 {
		line, col := position(doc, open)
		return nil, &MalformedInputError{Offset: open, Line: line, Column: col}
	}
	return comments, nil
}

func position(doc string, offset int) (int, int) {
	head := doc[:offset]
	line := 1 + strings.Count(head, "\n")
	lineStart := strings.LastIndexByte(head, '\n') + 1
	return line, uniseg.GraphemeClusterCount(head[lineStart:]) + 1
}

// SplitPadding separates leading and trailing whitespace from the comment
// core. lead+core+trail always equals text.
func SplitPadding(text string) (lead, core, trail string) {
	rest := strings.TrimLeftFunc(text, unicode.IsSpace)
	lead = text[:len(text)-len(rest)]
	core = strings.TrimRightFunc(rest, unicode.IsSpace)
	trail = rest[len(core):]
	return lead, core, trail
}

// Core returns the comment text without surrounding whitespace.
func (c Comment) Core() string {
	_, core, _ := SplitPadding(c.Text)
	return core
}

// WithCore returns the comment text with its core replaced and the original
// padding kept.
func (c Comment) WithCore(core string) string {
	lead, _, trail := SplitPadding(c.Text)
	return lead + core + trail
}

// Blank reports whether the comment has nothing worth translating.
func (c Comment) Blank() bool {
	return c.Core() == ""
}

// Segment is one piece of a document split at comment boundaries.
type Segment struct {
	Text string
	// Comment is -1 for text outside comments, otherwise the comment index.
	Comment int
}

// Segments splits doc into alternating non-comment and comment pieces.
// Comment pieces include their braces; empty non-comment pieces are omitted.
// Concatenating all pieces yields doc.
func Segments(doc string, comments []Comment) []Segment {
	segments := make([]Segment, 0, 2*len(comments)+1)
	prev := 0
	for _, c := range comments {
		if c.Span.Start > prev {
			segments = append(segments, Segment{Text: doc[prev:c.Span.Start], Comment: -1})
		}
		segments = append(segments, Segment{Text: doc[c.Span.Start:c.Span.End], Comment: c.Index})
		prev = c.Span.End
	}
	if prev < len(doc) {
		segments = append(segments, Segment{Text: doc[prev:], Comment: -1})
	}
	return segments
}
