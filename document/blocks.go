// Package document turns raw document text into addressable blocks.
//
// Information Hiding:
// - Line splitting and block marker syntax
// - Resolution of stable identifiers (embedded marker vs. position)
// - Round-trip serialization with embedded markers
package document

import (
	"regexp"
	"strconv"
	"strings"
)

// markerPattern matches a line carrying an explicit stable identifier,
// e.g. "[BLOCK:12]Some text".
var markerPattern = regexp.MustCompile(`^\[BLOCK:(\d+)\](.*)$`)

// Block is one line of a document.
//
// Position is the display index shown to the reasoning service and the only
// index suggestions may reference. ID is the stable identifier: the value of
// an embedded [BLOCK:n] marker, or Position when the line has none.
type Block struct {
	Position int
	ID       int
	Content  string
	Marked   bool
}

// Index splits content into blocks, one per line, preserving order. Lines
// end at "\n"; one "\r" before it is dropped so CRLF text indexes like LF.
//
// The empty document yields a single empty block, the same result as
// splitting "" on line boundaries. Index never fails: a marker that cannot
// be parsed is treated as ordinary text.
func Index(content string) []Block {
	lines := strings.Split(content, "\n")
	blocks := make([]Block, len(lines))
	for i, line := range lines {
		blocks[i] = parseLine(i, strings.TrimSuffix(line, "\r"))
	}
	return blocks
}

// Count returns the number of blocks Index would produce for content.
func Count(content string) int {
	return strings.Count(content, "\n") + 1
}

func parseLine(position int, line string) Block {
	m := markerPattern.FindStringSubmatch(line)
	if m == nil {
		return Block{Position: position, ID: position, Content: line}
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		// overflow: keep the line verbatim with a positional id
		return Block{Position: position, ID: position, Content: line}
	}
	return Block{Position: position, ID: id, Content: m[2], Marked: true}
}

// Serialize renders blocks with their stable identifiers embedded, one
// "[BLOCK:<id>]<content>" line per block. Index(Serialize(b)) recovers the
// same IDs and contents.
func Serialize(blocks []Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("[BLOCK:")
		sb.WriteString(strconv.Itoa(b.ID))
		sb.WriteByte(']')
		sb.WriteString(b.Content)
	}
	return sb.String()
}

// Text returns the document text without block markers.
func Text(blocks []Block) string {
	contents := make([]string, len(blocks))
	for i, b := range blocks {
		contents[i] = b.Content
	}
	return strings.Join(contents, "\n")
}

// IsBlank reports whether the document has no visible content: every block
// is empty or whitespace. Such documents must be rewritten with replace_all.
func IsBlank(blocks []Block) bool {
	for _, b := range blocks {
		if strings.TrimSpace(b.Content) != "" {
			return false
		}
	}
	return true
}
