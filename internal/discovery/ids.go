package discovery

import (
	"regexp"
	"slices"
	"strings"
)

// idPattern matches the "0x<16>:0x<16>" entity identifier embedded in
// search pages. Pages escape some characters with a backslash, so the
// match is unescaped afterwards.
var idPattern = regexp.MustCompile(`0x.{16}:0x.{16}`)

// ExtractIDs returns every distinct identifier in a search page.
func ExtractIDs(page string) IDSet {
	ids := NewIDSet()
	for _, m := range idPattern.FindAllString(page, -1) {
		ids.Add(strings.ReplaceAll(m, `\`, ""))
	}
	return ids
}

// FirstID returns the first identifier in a page, with backslashes and
// double quotes removed.
func FirstID(page string) (string, bool) {
	m := idPattern.FindString(page)
	if m == "" {
		return "", false
	}
	m = strings.ReplaceAll(m, `\`, "")
	m = strings.ReplaceAll(m, `"`, "")
	return m, true
}

// IDSet is an unordered set of entity identifiers.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IDSet) Add(id string) { s[id] = struct{}{} }

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of o to s.
func (s IDSet) Union(o IDSet) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Subtract removes every member of o from s.
func (s IDSet) Subtract(o IDSet) {
	for id := range o {
		delete(s, id)
	}
}

// Sorted returns the members in ascending order.
func (s IDSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
