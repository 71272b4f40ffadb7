// Package report renders scan findings as report lines and JSON documents.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/memscope/pkg/model"
)

// FormatLine renders one finding:
//
//	[000] cocos2d::CCSprite
//	[008] maybe string 5 > 15, "hello"
func FormatLine(f model.Finding) string {
	switch f.Kind {
	case model.FindingKindType:
		return fmt.Sprintf("[%03x] %s", f.Offset, f.TypeName)
	case model.FindingKindString:
		return fmt.Sprintf("[%03x] maybe string %d > %d, %s", f.Offset, f.Length, f.Capacity, QuotePreview(f.Preview))
	default:
		return fmt.Sprintf("[%03x] unknown", f.Offset)
	}
}

// Lines renders findings in order.
func Lines(findings []model.Finding) []string {
	lines := make([]string, 0, len(findings))
	for _, f := range findings {
		lines = append(lines, FormatLine(f))
	}
	return lines
}

// QuotePreview returns s as a JSON string literal. Every control character
// (C0, DEL and C1) is written as a \uXXXX escape and invalid UTF-8 becomes
// U+FFFD, so the result never contains a raw control byte. HTML characters
// are left alone.
func QuotePreview(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Encoding a string cannot fail; keep the line well formed anyway.
		return strconv.QuoteToASCII(s)
	}
	return escapeControls(strings.TrimSuffix(buf.String(), "\n"))
}

// escapeControls rewrites the control runes encoding/json passes through.
func escapeControls(quoted string) string {
	if strings.IndexFunc(quoted, unicode.IsControl) < 0 {
		return quoted
	}
	var b strings.Builder
	b.Grow(len(quoted) + 8)
	for _, r := range quoted {
		if unicode.IsControl(r) {
			fmt.Fprintf(&b, "\\u%04x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
