// Package sanitize cleans AI output before it is inserted into a rich-text
// mail body, where raw markdown would render as literal punctuation.
package sanitize

import (
	"regexp"
	"strings"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// rules are applied in order.
var rules = []rule{
	{regexp.MustCompile(`\r\n`), "\n"},
	{regexp.MustCompile(`<(https?://[^<>\s]+)>`), "$1"},
	{regexp.MustCompile(`\[([^\[\]]+)\]\(([^()\s]+)\)`), "$1"},
	{regexp.MustCompile(`\*\*(.+?)\*\*`), "$1"},
	{regexp.MustCompile(`__(.+?)__`), "$1"},
	{regexp.MustCompile(`\*(.+?)\*`), "$1"},
	{regexp.MustCompile("`(.+?)`"), "$1"},
	{regexp.MustCompile(` {2,}`), " "},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// Text strips markdown artifacts and normalizes whitespace. It is pure and
// idempotent: the rule set is applied until nothing changes, so markup or
// line endings uncovered by one pass are rewritten by the next. Every
// rewrite shortens the text, which bounds the loop.
func Text(s string) string {
	for {
		next := pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func pass(s string) string {
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return strings.TrimSpace(s)
}
