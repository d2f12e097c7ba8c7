package extractor

import (
	"regexp"
)

// MatchMode controls how many identifiers are taken from one commit message
type MatchMode int

const (
	// MatchFirst takes only the first identifier in each message
	MatchFirst MatchMode = iota
	// MatchAll takes every identifier in each message
	MatchAll
)

// Matcher finds ticket identifiers of the form <project-key>-<digits>
type Matcher struct {
	projectKey string
	pattern    *regexp.Regexp
	mode       MatchMode
}

// NewMatcher builds a case-insensitive matcher for projectKey.
// An empty key matches any hyphen followed by digits.
func NewMatcher(projectKey string, mode MatchMode) *Matcher {
	return &Matcher{
		projectKey: projectKey,
		pattern:    regexp.MustCompile(`(?i)` + regexp.QuoteMeta(projectKey) + `-\d+`),
		mode:       mode,
	}
}

// Pattern returns the compiled expression source
func (m *Matcher) Pattern() string {
	return m.pattern.String()
}

// ProjectKey returns the key the matcher was built from
func (m *Matcher) ProjectKey() string {
	return m.projectKey
}

// Match returns the identifiers found in message, keeping their original casing
func (m *Matcher) Match(message string) []string {
	if m.mode == MatchAll {
		return m.pattern.FindAllString(message, -1)
	}

	if first := m.pattern.FindString(message); first != "" {
		return []string{first}
	}
	return nil
}

// Unique drops repeated identifiers, keeping first-seen order
func Unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}
