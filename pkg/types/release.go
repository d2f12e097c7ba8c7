package types

import (
	"time"
)

// Tag is a named pointer to the commit a release was cut from
type Tag struct {
	Name      string `json:"name"`
	CommitSHA string `json:"commit_sha"`
}

// Commit is the subset of commit detail the extractor reads
type Commit struct {
	SHA           string    `json:"sha"`
	Message       string    `json:"message"`
	CommitterDate time.Time `json:"committer_date"`
}

// TimeWindow selects the commits introduced by a release.
// Start is inclusive at the API level, so it is offset past the previous
// release's commit; End is inclusive.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeWindow derives the window (previous, latest] from the two tag commits.
// Start <= End is not verified: inverted tags yield an empty or inverted window.
func NewTimeWindow(previous, latest *Commit) TimeWindow {
	return TimeWindow{
		Start: previous.CommitterDate.Add(time.Second),
		End:   latest.CommitterDate,
	}
}

// Contains reports whether t falls within [Start, End]
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ExtractionResult is what a completed extraction reports
type ExtractionResult struct {
	Repository  RepositoryInfo `json:"repository"`
	LatestTag   Tag            `json:"latest_tag"`
	PreviousTag Tag            `json:"previous_tag"`
	Window      TimeWindow     `json:"window"`
	Tickets     []string       `json:"tickets"`
}
