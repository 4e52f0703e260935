package adif

import (
	"regexp"
	"strconv"
	"strings"
)

// Token is one scanned tag/length/value field. Tokens are transient; they
// exist only between scanning and record assembly.
type Token struct {
	Name     string // lowercase field name
	Length   int    // declared value length
	TypeHint string // optional data type indicator, rarely present
	Value    string // truncated to Length, then trimmed
}

// tagPattern matches <name:length[:type]>value. Anything that does not match
// is skipped silently; real-world logs are full of stray text and the format
// is designed to tolerate it.
var (
	tagPattern = regexp.MustCompile(`(?i)<([^:>]+):(\d+)(?::([^>]+))?>([^<]*)`)
	eohPattern = regexp.MustCompile(`(?i)<eoh>`)
	eorPattern = regexp.MustCompile(`(?i)<eor>`)
)

// ScanOptions controls document splitting.
type ScanOptions struct {
	// TokenAwareSplit splits the body on top-level <eor> tokens instead of a
	// textual regex split. The textual split is the legacy behavior and the
	// default: a declared length that runs past an <eor> marker still splits
	// there. Token-aware mode honors declared lengths across markers, which
	// changes what malformed inputs produce.
	TokenAwareSplit bool
}

// ScanTokens tokenizes raw text into tags. Each call scans from the start of
// the given text; no cursor is shared between invocations.
func ScanTokens(text string) []Token {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		length, err := strconv.Atoi(m[2])
		if err != nil || length < 0 {
			continue
		}
		tokens = append(tokens, Token{
			Name:     normalizeFieldName(m[1]),
			Length:   length,
			TypeHint: strings.TrimSpace(m[3]),
			Value:    strings.TrimSpace(truncateRunes(m[4], length)),
		})
	}
	return tokens
}

// SplitBody separates the optional header from the record-bearing body.
// The header ends at the first case-insensitive <eoh>; without one the whole
// document is body.
func SplitBody(text string) (header, body string) {
	loc := eohPattern.FindStringIndex(text)
	if loc == nil {
		return "", text
	}
	return text[:loc[0]], text[loc[1]:]
}

// SplitRecords cuts the body into one chunk per record. Whitespace-only
// chunks are dropped.
func SplitRecords(body string, opts ScanOptions) []string {
	var raw []string
	if opts.TokenAwareSplit {
		raw = splitTokenAware(body)
	} else {
		raw = eorPattern.Split(body, -1)
	}
	chunks := make([]string, 0, len(raw))
	for _, chunk := range raw {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitTokenAware walks the body with a hand-written scanner so that a value
// whose declared length spans an <eor> marker does not split there. Only an
// <eor> outside any declared value ends a record.
func splitTokenAware(body string) []string {
	runes := []rune(body)
	var chunks []string
	start := 0
	i := 0
	for i < len(runes) {
		if runes[i] != '<' {
			i++
			continue
		}
		close := indexRune(runes, i+1, '>')
		if close < 0 {
			break
		}
		inner := string(runes[i+1 : close])
		if strings.EqualFold(inner, "eor") {
			chunks = append(chunks, string(runes[start:i]))
			i = close + 1
			start = i
			continue
		}
		length, ok := parseTagHeader(inner)
		if !ok {
			i = close + 1
			continue
		}
		// Compare against the remaining input instead of computing
		// close+1+length, which a hostile declared length can overflow.
		if length >= len(runes)-(close+1) {
			i = len(runes)
		} else {
			i = close + 1 + length
		}
	}
	if start < len(runes) {
		chunks = append(chunks, string(runes[start:]))
	}
	return chunks
}

// parseTagHeader extracts the declared length from "name:length[:type]"
// inside a tag.
func parseTagHeader(inner string) (length int, ok bool) {
	parts := strings.SplitN(inner, ":", 3)
	if len(parts) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func indexRune(runes []rune, from int, r rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// truncateRunes cuts value to at most n characters. Declared lengths count
// characters, not bytes.
func truncateRunes(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[:n])
}
