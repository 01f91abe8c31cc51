package ledger

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold returns the NFC-normalized, Unicode case-folded form of s.
// A fresh Caser per call: cases.Caser is stateful and not safe to share.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// searchText is the text a query is matched against.
func searchText(r Record) string {
	return fold(r.Name + " " + r.Topic + " " + r.ID)
}

// Matcher reports whether a record matches a search query.
// The query is trimmed and folded once; an empty query matches everything.
type Matcher struct {
	needle string
}

// NewMatcher prepares query for repeated matching.
func NewMatcher(query string) Matcher {
	return Matcher{needle: fold(strings.TrimSpace(query))}
}

// Match reports whether r's name, topic or id contains the query.
func (m Matcher) Match(r Record) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(searchText(r), m.needle)
}
