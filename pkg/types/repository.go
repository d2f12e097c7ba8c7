package types

import (
	"fmt"
	"strings"
)

// RepositoryInfo identifies a GitHub repository
type RepositoryInfo struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRepository parses "owner/name" as found in GITHUB_REPOSITORY
func ParseRepository(s string) (RepositoryInfo, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "https://github.com/")
	s = strings.TrimSuffix(s, ".git")

	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryInfo{}, fmt.Errorf("invalid repository %q, expected owner/name", s)
	}

	return RepositoryInfo{Owner: parts[0], Name: parts[1]}, nil
}

// FullName returns "owner/name"
func (r RepositoryInfo) FullName() string {
	return r.Owner + "/" + r.Name
}
