package workflows

import (
	"github.com/clintrovert/release-tickets/pkg/types"
)

// ExtractionInput is the input for the extraction workflow
type ExtractionInput struct {
	Repository types.RepositoryInfo
	ProjectKey string
	AllMatches bool
}
