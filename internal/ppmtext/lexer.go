// Package ppmtext parses the §6 textual task-table format into an
// internal/ppm.Table: the "external collaborator" spec.md deliberately keeps
// out of the compression core.
package ppmtext

import "strings"

// line is one digit-led source line split into whitespace-delimited tokens,
// grounded on original_source/model_parser.c's fgets+sscanf loop: every
// field and every literal arrow ("->", "--") is its own token once split on
// whitespace, so a hand-rolled tokenizer needs nothing fancier than
// strings.Fields.
type line struct {
	no     int // 1-based source line number, for error messages
	tokens []string
}

// isDigitLed reports whether s starts with a decimal digit, the same test
// MParser_init/_parse use (linebuf[0] < '0' || linebuf[0] > '9') to skip
// comments and blank lines.
func isDigitLed(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

// splitLines tokenizes every digit-led line of src, preserving 1-based line
// numbers for diagnostics. Non-digit-led lines are silently skipped, exactly
// as the original parser does.
func splitLines(src []string) []line {
	out := make([]line, 0, len(src))
	for i, raw := range src {
		if !isDigitLed(raw) {
			continue
		}
		out = append(out, line{no: i + 1, tokens: strings.Fields(raw)})
	}
	return out
}
