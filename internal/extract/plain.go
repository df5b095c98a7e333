package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain decodes data as UTF-8. Bytes that are not valid UTF-8 are
// reinterpreted as Latin-1, which maps every byte to a rune and so never
// fails.
func extractPlain(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}
