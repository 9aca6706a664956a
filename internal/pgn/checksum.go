package pgn

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
)

// CommentsChecksum returns a stable SHA-256 checksum for a comment list.
// Spans are included so that a moved comment changes the checksum.
func CommentsChecksum(comments []Comment) [32]byte {
	h := sha256.New()
	io.WriteString(h, "comments_v1\n")
	io.WriteString(h, strconv.Itoa(len(comments)))
	io.WriteString(h, "\n")
	for _, c := range comments {
		io.WriteString(h, strconv.Itoa(c.Span.Start))
		io.WriteString(h, ",")
		io.WriteString(h, strconv.Itoa(c.Span.End))
		io.WriteString(h, "\n")
		writeField(h, c.Text)
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// CommentsChecksumHex returns a sha256-prefixed hex string checksum.
func CommentsChecksumHex(comments []Comment) string {
	sum := CommentsChecksum(comments)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func writeField(w io.Writer, value string) {
	io.WriteString(w, strconv.Itoa(len(value)))
	io.WriteString(w, ":")
	io.WriteString(w, value)
	io.WriteString(w, "\n")
}
