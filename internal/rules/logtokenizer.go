package rules

import "strings"

// LogCall is one parsed `log.level(...)` invocation: the contents of its
// first argument when that is a string literal (HasLiteral), and the raw
// text of the arguments after it (every argument when the first is not a
// literal). PlaceholderCount derives the "{}" count from FirstLiteral.
type LogCall struct {
	Level        string
	Line         int
	FirstLiteral string
	HasLiteral   bool
	Args         []string
}

// PlaceholderCount returns the number of "{}" placeholders in the first
// literal argument.
func (lc LogCall) PlaceholderCount() int {
	return strings.Count(lc.FirstLiteral, "{}")
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true,
}

// ParseLogCalls scans content for `log.level(arg0, arg1, ...)` style
// invocations and tokenizes each argument list respecting string
// literals, escapes, and balanced (), {}, [].
func ParseLogCalls(content string, lineOf func(int) int) []LogCall {
	var calls []LogCall
	n := len(content)

	for i := 0; i < n; i++ {
		if content[i] != '.' {
			continue
		}
		nameStart := i + 1
		j := nameStart
		for j < n && isIdentRune(content[j]) {
			j++
		}
		level := content[nameStart:j]
		if !logLevels[level] {
			continue
		}
		k := j
		for k < n && (content[k] == ' ' || content[k] == '\t') {
			k++
		}
		if k >= n || content[k] != '(' {
			continue
		}

		argsEnd := matchParen(content, k)
		if argsEnd == -1 {
			continue
		}
		args := splitArgs(content[k+1 : argsEnd])

		call := LogCall{Level: level, Line: lineOf(i), Args: args}
		if len(args) > 0 {
			lit, ok := stringLiteral(args[0])
			call.FirstLiteral = lit
			call.HasLiteral = ok
			if ok {
				call.Args = args[1:]
			}
		}
		calls = append(calls, call)
	}
	return calls
}

func isIdentRune(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// matchParen returns the index of the ')' matching the '(' at open,
// tracking nested (), {}, [] and skipping string/char literal contents
// (including escapes).
func matchParen(content string, open int) int {
	depth := 0
	i := open
	for i < len(content) {
		c := content[i]
		switch c {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
			if depth == 0 && c == ')' {
				return i
			}
		case '"', '\'':
			i = skipLiteral(content, i)
			continue
		}
		i++
	}
	return -1
}

func skipLiteral(content string, start int) int {
	quote := content[start]
	i := start + 1
	for i < len(content) {
		if content[i] == '\\' {
			i += 2
			continue
		}
		if content[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

// splitArgs splits a raw argument-list body on top-level commas,
// respecting nested brackets and string/char literals.
func splitArgs(body string) []string {
	var args []string
	depth := 0
	start := 0
	i := 0
	for i < len(body) {
		c := body[i]
		switch c {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case '"', '\'':
			i = skipLiteral(body, i)
			continue
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
		i++
	}
	if strings.TrimSpace(body) != "" {
		args = append(args, strings.TrimSpace(body[start:]))
	}
	return args
}

// stringLiteral returns the unquoted contents of arg if it is a bare
// double-quoted string literal (no concatenation).
func stringLiteral(arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
		return arg[1 : len(arg)-1], true
	}
	return "", false
}
