package judge

import (
	"fmt"
	"regexp"
)

// Known engine error shapes. Anything that does not match one of these is
// reported with the generic hint so raw engine internals never reach the
// player.
var (
	unknownTablePattern    = regexp.MustCompile(`no such table:\s*([A-Za-z0-9_."]+)`)
	unknownColumnPattern   = regexp.MustCompile(`no such column:\s*([A-Za-z0-9_."]+)`)
	ambiguousColumnPattern = regexp.MustCompile(`ambiguous column name:\s*([A-Za-z0-9_."]+)`)
	syntaxNearPattern      = regexp.MustCompile(`near "([^"]+)": syntax error`)
	foreignKeyPattern      = regexp.MustCompile(`FOREIGN KEY constraint failed`)
)

// classifyExecError rewrites an execution failure into an actionable hint
// naming the offending identifier when the engine exposes one.
func classifyExecError(err error) string {
	msg := err.Error()
	if m := unknownTablePattern.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("unknown table %q: check the table name against the schema", m[1])
	}
	if m := unknownColumnPattern.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("unknown column %q: check the column name and its table", m[1])
	}
	if m := ambiguousColumnPattern.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("ambiguous column %q: qualify it with a table name or alias", m[1])
	}
	if m := syntaxNearPattern.FindStringSubmatch(msg); m != nil {
		return fmt.Sprintf("syntax error near %q: check your SQL syntax", m[1])
	}
	if foreignKeyPattern.MatchString(msg) {
		return "foreign key constraint failed: check the values your query references"
	}
	return "SQL execution failed: check your query syntax"
}
