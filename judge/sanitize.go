package judge

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// isZeroWidth reports whether r is one of the zero-width/format characters
// used to smuggle invisible content past naive keyword checks.
func isZeroWidth(r rune) bool {
	return (r >= '\u200b' && r <= '\u200d') || r == '\ufeff'
}

// Normalize cleans raw SQL text for execution and comparison: NFKC unicode
// normalization, zero-width character removal, comment stripping, and
// whitespace collapsing. Normalize is idempotent.
func Normalize(text string) string {
	s := norm.NFKC.String(text)
	s = strings.Map(func(r rune) rune {
		if isZeroWidth(r) {
			return -1
		}
		return r
	}, s)
	s = stripComments(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")

	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

// scanner states for stripComments and SplitStatements. SQLite accepts four
// quoting styles; all of them may contain semicolons and comment markers.
const (
	scanNormal = iota
	scanSingleQuote
	scanDoubleQuote
	scanBacktick
	scanBracket
	scanLineComment
	scanBlockComment
)

// stripComments removes -- line comments and /* */ block comments without
// touching comment markers inside string literals or quoted identifiers.
// Block comments become a single space so adjacent tokens stay separated.
// An unterminated literal or comment consumes the rest of the input.
func stripComments(s string) string {
	var b strings.Builder
	rs := []rune(s)
	state := scanNormal
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch state {
		case scanNormal:
			switch {
			case r == '\'':
				state = scanSingleQuote
				b.WriteRune(r)
			case r == '"':
				state = scanDoubleQuote
				b.WriteRune(r)
			case r == '`':
				state = scanBacktick
				b.WriteRune(r)
			case r == '[':
				state = scanBracket
				b.WriteRune(r)
			case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
				state = scanLineComment
				i++
			case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
				state = scanBlockComment
				i++
				b.WriteRune(' ')
			default:
				b.WriteRune(r)
			}
		case scanSingleQuote:
			b.WriteRune(r)
			if r == '\'' {
				// '' escapes a quote inside the literal
				if i+1 < len(rs) && rs[i+1] == '\'' {
					b.WriteRune(rs[i+1])
					i++
				} else {
					state = scanNormal
				}
			}
		case scanDoubleQuote:
			b.WriteRune(r)
			if r == '"' {
				if i+1 < len(rs) && rs[i+1] == '"' {
					b.WriteRune(rs[i+1])
					i++
				} else {
					state = scanNormal
				}
			}
		case scanBacktick:
			b.WriteRune(r)
			if r == '`' {
				state = scanNormal
			}
		case scanBracket:
			b.WriteRune(r)
			if r == ']' {
				state = scanNormal
			}
		case scanLineComment:
			if r == '\n' {
				state = scanNormal
				b.WriteRune('\n')
			}
		case scanBlockComment:
			if r == '*' && i+1 < len(rs) && rs[i+1] == '/' {
				state = scanNormal
				i++
			}
		}
	}
	return b.String()
}

// SplitStatements splits SQL text on statement-terminating semicolons,
// ignoring semicolons inside literals, quoted identifiers and comments.
// Only non-empty trimmed statements are returned, in source order.
func SplitStatements(text string) []string {
	var statements []string
	var b strings.Builder
	flush := func() {
		if stmt := strings.TrimSpace(b.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		b.Reset()
	}

	rs := []rune(text)
	state := scanNormal
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch state {
		case scanNormal:
			switch {
			case r == ';':
				flush()
				continue
			case r == '\'':
				state = scanSingleQuote
			case r == '"':
				state = scanDoubleQuote
			case r == '`':
				state = scanBacktick
			case r == '[':
				state = scanBracket
			case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
				state = scanLineComment
				i++
				continue
			case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
				state = scanBlockComment
				i++
				continue
			}
			b.WriteRune(r)
		case scanSingleQuote:
			b.WriteRune(r)
			if r == '\'' {
				if i+1 < len(rs) && rs[i+1] == '\'' {
					b.WriteRune(rs[i+1])
					i++
				} else {
					state = scanNormal
				}
			}
		case scanDoubleQuote:
			b.WriteRune(r)
			if r == '"' {
				if i+1 < len(rs) && rs[i+1] == '"' {
					b.WriteRune(rs[i+1])
					i++
				} else {
					state = scanNormal
				}
			}
		case scanBacktick:
			b.WriteRune(r)
			if r == '`' {
				state = scanNormal
			}
		case scanBracket:
			b.WriteRune(r)
			if r == ']' {
				state = scanNormal
			}
		case scanLineComment:
			if r == '\n' {
				state = scanNormal
				b.WriteRune('\n')
			}
		case scanBlockComment:
			if r == '*' && i+1 < len(rs) && rs[i+1] == '/' {
				state = scanNormal
				i++
			}
		}
	}
	flush()
	return statements
}

// FirstStatement normalizes text and returns its first statement, or ""
// when the input contains no statement at all. Trailing statements are
// discarded so stacked payloads ("SELECT 1; DROP TABLE x") never execute
// beyond the first statement.
func FirstStatement(text string) string {
	statements := SplitStatements(Normalize(text))
	if len(statements) == 0 {
		return ""
	}
	return statements[0]
}

// EnforceReadOnly accepts only statements whose leading keyword is SELECT
// or WITH. It must be called with an already-sanitized statement; the same
// string is then executed and logged.
func EnforceReadOnly(statement string) (bool, string) {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return false, "empty statement"
	}
	switch strings.ToLower(fields[0]) {
	case "select", "with":
		return true, ""
	default:
		return false, fmt.Sprintf("only SELECT queries are allowed, got %s", strings.ToUpper(fields[0]))
	}
}
