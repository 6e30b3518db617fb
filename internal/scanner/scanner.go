// Package scanner turns raw source text into structural positions: line
// numbers, brace-matched spans, method declarations, and annotation
// blocks. It is string/comment-aware but has no notion of types or
// bindings — everything here degrades gracefully (returns a sentinel or
// an empty result) rather than erroring, per the core's error taxonomy.
package scanner

import "strings"

// LineOf returns the 1-based line number containing byte offset idx in
// content. idx past the end of content clamps to the last line.
func LineOf(content string, idx int) int {
	if idx < 0 {
		idx = 0
	}
	if idx > len(content) {
		idx = len(content)
	}
	return 1 + strings.Count(content[:idx], "\n")
}

// maskMode tracks which kind of literal/comment the scanner is currently
// inside of, so brace/quote characters within it are ignored.
type maskMode int

const (
	modeNone maskMode = iota
	modeString
	modeChar
	modeLineComment
	modeBlockComment
)

// classify walks content once, invoking visit(i, mode) for every byte
// position with the mode active AT that position (modeNone for ordinary
// code). Shared by FindMatchingBrace and MethodSpans so masking logic
// lives in exactly one place.
func classify(content string, visit func(i int, mode maskMode)) {
	mode := modeNone
	n := len(content)
	for i := 0; i < n; i++ {
		c := content[i]
		switch mode {
		case modeLineComment:
			visit(i, mode)
			if c == '\n' {
				mode = modeNone
			}
			continue
		case modeBlockComment:
			visit(i, mode)
			if c == '*' && i+1 < n && content[i+1] == '/' {
				visit(i+1, mode)
				i++
				mode = modeNone
			}
			continue
		case modeString:
			visit(i, mode)
			if c == '\\' {
				if i+1 < n {
					visit(i+1, mode)
					i++
				}
				continue
			}
			if c == '"' {
				mode = modeNone
			}
			continue
		case modeChar:
			visit(i, mode)
			if c == '\\' {
				if i+1 < n {
					visit(i+1, mode)
					i++
				}
				continue
			}
			if c == '\'' {
				mode = modeNone
			}
			continue
		}

		// mode == modeNone
		if c == '/' && i+1 < n && content[i+1] == '/' {
			visit(i, mode)
			mode = modeLineComment
			continue
		}
		if c == '/' && i+1 < n && content[i+1] == '*' {
			visit(i, mode)
			mode = modeBlockComment
			continue
		}
		if c == '"' {
			visit(i, mode)
			mode = modeString
			continue
		}
		if c == '\'' {
			visit(i, mode)
			mode = modeChar
			continue
		}
		visit(i, mode)
	}
}

// Mask replaces every byte that is inside a string, char literal, or
// comment with a space, preserving length and line structure (newlines
// inside block comments and strings survive so LineOf stays accurate).
// Useful for rule patterns that must not fire on tokens hiding in text.
func Mask(content string) string {
	buf := []byte(content)
	classify(content, func(i int, mode maskMode) {
		if mode != modeNone && buf[i] != '\n' {
			buf[i] = ' '
		}
	})
	return string(buf)
}

// FindMatchingBrace returns the index just past the '}' matching the '{'
// at openBracePos, skipping braces inside strings/chars/comments. Returns
// -1 if content[openBracePos] isn't '{' or no match is found (unmatched
// brace degrades to the sentinel per the scanner's failure semantics).
func FindMatchingBrace(content string, openBracePos int) int {
	return findMatchingBracket(content, openBracePos, '{', '}')
}

// FindMatchingParen returns the index just past the ')' matching the '('
// at openParenPos, with the same masking rules as FindMatchingBrace.
// Handles nested parentheses (e.g. parameter annotations with arguments).
func FindMatchingParen(content string, openParenPos int) int {
	return findMatchingBracket(content, openParenPos, '(', ')')
}

func findMatchingBracket(content string, openPos int, open, close byte) int {
	if openPos < 0 || openPos >= len(content) || content[openPos] != open {
		return -1
	}

	depth := 0
	result := -1
	classify(content, func(i int, mode maskMode) {
		if result != -1 || mode != modeNone || i < openPos {
			return
		}
		switch content[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				result = i + 1
			}
		}
	})
	return result
}

// maskedCopy returns content with string/char/comment regions blanked
// out with spaces, used internally by scanners that need to run plain
// byte scans (not regex) over "real code only".
func maskedCopy(content string) []byte {
	return []byte(Mask(content))
}
