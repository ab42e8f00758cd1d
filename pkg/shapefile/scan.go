package shapefile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// scanBalanced walks text from the opening parenthesis at start, counting
// depth, and returns the index one past the matching close. Item bodies
// contain parentheses of their own, so a regex alone cannot find the span.
func scanBalanced(text string, start int) (int, error) {
	if start >= len(text) || text[start] != '(' {
		return 0, fmt.Errorf("%w: no opening parenthesis at offset %d", ErrMalformedBlock, start)
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: block opened at offset %d never closes", ErrUnbalancedParens, start)
}

// headerPattern matches "keyword (" or "keyword name (" at a word
// boundary, case-insensitively. Keywords never need escaping but
// QuoteMeta keeps it honest.
func headerPattern(keyword string, named bool) *regexp.Regexp {
	name := ""
	if named {
		name = `\s+[^\s()]+`
	}
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + name + `\s*\(`)
}

// extractBlock locates the named block in text and returns its full span,
// from the keyword through the matching closing parenthesis.
func extractBlock(text, keyword string) (string, error) {
	start, end, err := extractBlockSpan(text, keyword)
	if err != nil {
		return "", err
	}
	return text[start:end], nil
}

// extractBlockSpan is extractBlock returning byte offsets into text.
func extractBlockSpan(text, keyword string) (int, int, error) {
	loc := headerPattern(keyword, false).FindStringIndex(text)
	if loc == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBlockNotFound, keyword)
	}
	open := loc[1] - 1
	end, err := scanBalanced(text, open)
	if err != nil {
		return 0, 0, fmt.Errorf("block %q: %w", keyword, err)
	}
	return loc[0], end, nil
}

// takeBlock extracts the first occurrence of the named block and returns
// it together with the text that follows its closing parenthesis.
func takeBlock(text, keyword string) (block, rest string, err error) {
	start, end, err := extractBlockSpan(text, keyword)
	if err != nil {
		return "", "", err
	}
	return text[start:end], text[end:], nil
}

// blockHeadPattern matches "keyword (" or "keyword name (" at the start
// of a block fragment.
var blockHeadPattern = regexp.MustCompile(`(?i)^\s*([a-z_0-9]+)(\s+[^\s()]+)?\s*\(`)

// splitBlock splits a block fragment "keyword [name] ( body )" into its
// keyword, optional name token and inner body text. The keyword comes
// back lowercased; dispatch sites compare against one canonical form.
func splitBlock(block string) (keyword, name, body string, err error) {
	m := blockHeadPattern.FindStringSubmatchIndex(block)
	if m == nil {
		return "", "", "", fmt.Errorf("%w: %q", ErrMalformedBlock, snippet(block))
	}
	keyword = strings.ToLower(block[m[2]:m[3]])
	if m[4] >= 0 {
		name = strings.TrimSpace(block[m[4]:m[5]])
	}
	open := m[1] - 1 // the full match ends on the opening parenthesis
	end, err := scanBalanced(block, open)
	if err != nil {
		return "", "", "", err
	}
	return keyword, name, block[open+1 : end-1], nil
}

// expectBlock is splitBlock constrained to a known keyword.
func expectBlock(fragment, keyword string) (name, body string, err error) {
	kw, name, body, err := splitBlock(fragment)
	if err != nil {
		return "", "", err
	}
	if kw != keyword {
		return "", "", fmt.Errorf("%w: expected %q, found %q", ErrMalformedBlock, keyword, kw)
	}
	return name, body, nil
}

// countedBody matches the declared count at the start of a list body and
// returns it together with the remaining item text.
var countPattern = regexp.MustCompile(`^\s*(\d+)\b`)

func countedBody(body string) (int, string, error) {
	m := countPattern.FindStringSubmatch(body)
	if m == nil {
		return 0, "", fmt.Errorf("%w: list body %q has no count", ErrMalformedBlock, snippet(body))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", fmt.Errorf("%w: count %q", ErrTokenFormat, m[1])
	}
	return n, body[len(m[0]):], nil
}

// itemSpan is one item occurrence inside a list body.
type itemSpan struct {
	keyword string
	text    string
}

// scanItems walks body collecting spans of the given item keywords. Items
// may carry a name token between keyword and parenthesis when named is
// true. Scanning resumes after each item's closing parenthesis so nested
// occurrences of the keyword inside an item are not double-counted.
func scanItems(body string, named bool, keywords ...string) ([]itemSpan, error) {
	alt := strings.Join(keywords, "|")
	name := ""
	if named {
		name = `(?:\s+[^\s()]+)?`
	}
	pat := regexp.MustCompile(`(?i)\b(` + alt + `)` + name + `\s*\(`)

	var items []itemSpan
	pos := 0
	for pos < len(body) {
		m := pat.FindStringSubmatchIndex(body[pos:])
		if m == nil {
			break
		}
		start := pos + m[0]
		open := pos + m[1] - 1
		end, err := scanBalanced(body, open)
		if err != nil {
			return nil, err
		}
		items = append(items, itemSpan{
			keyword: strings.ToLower(body[pos+m[2] : pos+m[3]]),
			text:    body[start:end],
		})
		pos = end
	}
	return items, nil
}

// checkCount enforces the list count invariant: the declared header count
// must equal the number of items found, scaled by multiplier for blocks
// whose header counts sub-units rather than items (vertex_idxs declares
// three times its triplet count, normal_idxs half its value count).
func checkCount(keyword string, declared, found int, multiplier float64) error {
	if multiplier <= 0 {
		multiplier = 1
	}
	if declared != int(float64(found)*multiplier) {
		return fmt.Errorf("%w: %s declares %d but holds %d", ErrCountMismatch, keyword, declared, int(float64(found)*multiplier))
	}
	return nil
}

// snippet truncates text for error messages.
func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 40 {
		return text[:40] + "..."
	}
	return text
}
