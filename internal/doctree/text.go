package doctree

import "unicode/utf16"

// Well-known leaf marks. Boolean marks carry the value "true"; writers report
// each mark individually instead of pre-rendering them.
const (
	MarkBold          = "bold"
	MarkItalic        = "italic"
	MarkUnderline     = "underline"
	MarkStrikethrough = "strikethrough"
	MarkCode          = "code"
)

// MarkOn is the value stored for a boolean mark.
const MarkOn = "true"

func encodeText(s string) []uint16 {
	if s == "" {
		return nil
	}
	return utf16.Encode([]rune(s))
}

func decodeText(u []uint16) string {
	if len(u) == 0 {
		return ""
	}
	return string(utf16.Decode(u))
}

// TextLength returns the length of s in UTF-16 code units, the unit of leaf offsets.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// splitsSurrogate reports whether offset o falls between the halves of a
// surrogate pair.
func splitsSurrogate(text []uint16, o int) bool {
	if o <= 0 || o >= len(text) {
		return false
	}
	hi, lo := text[o-1], text[o]
	return hi >= 0xD800 && hi < 0xDC00 && lo >= 0xDC00 && lo < 0xE000
}
