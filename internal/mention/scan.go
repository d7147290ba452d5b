package mention

import (
	"strings"

	"github.com/jarboard/backend/internal/types"
)

// Kind discriminates the three mention sigils.
type Kind string

const (
	KindJar      Kind = "jar"      // @name
	KindTag      Kind = "tag"      // #name
	KindPriority Kind = "priority" // !level
)

// Mention is the token under the caret, as reported by ScanAt. Start/End are
// byte offsets into the scanned text, End exclusive and clamped to the caret.
type Mention struct {
	Kind  Kind   `json:"kind"`
	Query string `json:"query"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ScanResult is the full-text scan output. Names are case-sensitively
// deduplicated; discovery order carries no meaning.
type ScanResult struct {
	JarNames map[string]struct{}
	TagNames map[string]struct{}
	Priority *types.Priority
}

var priorityAliases = map[string]types.Priority{
	"very-low":  types.PriorityVeryLow,
	"vlow":      types.PriorityVeryLow,
	"vl":        types.PriorityVeryLow,
	"low":       types.PriorityLow,
	"l":         types.PriorityLow,
	"medium":    types.PriorityMedium,
	"med":       types.PriorityMedium,
	"m":         types.PriorityMedium,
	"high":      types.PriorityHigh,
	"h":         types.PriorityHigh,
	"very-high": types.PriorityVeryHigh,
	"vhigh":     types.PriorityVeryHigh,
	"vh":        types.PriorityVeryHigh,
}

// ResolvePriorityAlias maps a bare (sigil-less) priority token to its level.
func ResolvePriorityAlias(token string) (types.Priority, bool) {
	p, ok := priorityAliases[strings.ToLower(token)]
	return p, ok
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func isPriorityChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '-'
}

// ValidName reports whether name is a legal jar/tag name: one or more
// characters from the mention charset. Non-conforming names are rejected
// outright, never slugified.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return false
		}
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// ScanAll extracts every @jar and #tag name plus the first priority token
// from text. A fresh stateless scan per call; safe under concurrent use.
func ScanAll(text string) ScanResult {
	res := ScanResult{
		JarNames: make(map[string]struct{}),
		TagNames: make(map[string]struct{}),
	}
	prioritySeen := false
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '@', '#':
			sigil := text[i]
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			if j > i+1 {
				name := text[i+1 : j]
				if sigil == '@' {
					res.JarNames[name] = struct{}{}
				} else {
					res.TagNames[name] = struct{}{}
				}
				i = j - 1
			}
		case '!':
			j := i + 1
			for j < len(text) && isPriorityChar(text[j]) {
				j++
			}
			if j > i+1 {
				// Only the first priority token counts; an unrecognized
				// alias means no priority, not a fall-through to the next.
				if !prioritySeen {
					prioritySeen = true
					if p, ok := ResolvePriorityAlias(text[i+1 : j]); ok {
						res.Priority = &p
					}
				}
				i = j - 1
			}
		}
	}
	return res
}

// ScanAt reports the mention the caret is inside of, if any. The current
// token runs from just past the last whitespace before the caret up to the
// caret itself; a bare sigil is an active mention with an empty query.
func ScanAt(text string, caret int) *Mention {
	if caret < 0 || caret > len(text) {
		return nil
	}
	start := caret
	for start > 0 && !isSpace(text[start-1]) {
		start--
	}
	if start == caret {
		return nil
	}
	var kind Kind
	switch text[start] {
	case '@':
		kind = KindJar
	case '#':
		kind = KindTag
	case '!':
		kind = KindPriority
	default:
		return nil
	}
	return &Mention{
		Kind:  kind,
		Query: text[start+1 : caret],
		Start: start,
		End:   caret,
	}
}

// StripPriority removes the first recognized priority token from text,
// returning the cleaned text for display. Jar and tag mentions stay inline.
// Text without a recognized token comes back unchanged.
func StripPriority(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] != '!' {
			continue
		}
		j := i + 1
		for j < len(text) && isPriorityChar(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		if _, ok := ResolvePriorityAlias(text[i+1 : j]); !ok {
			// First token wins even when unknown; leave text as-is.
			return text
		}
		// Swallow one adjacent space so "a !h b" cleans to "a b".
		if i > 0 && isSpace(text[i-1]) {
			i--
		} else if j < len(text) && isSpace(text[j]) {
			j++
		}
		return strings.TrimSpace(text[:i] + text[j:])
	}
	return text
}
