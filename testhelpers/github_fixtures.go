package testhelpers

import (
	"fmt"

	"github.com/google/go-github/v62/github"
)

// SamplePRData provides common PR data for testing
type SamplePRData struct {
	Number int
	Title  string
	Head   string
	Base   string
	State  string
	Merged bool
}

// NewSamplePullRequest creates a github.PullRequest from sample data
func NewSamplePullRequest(data SamplePRData) *github.PullRequest {
	return &github.PullRequest{
		Number:  github.Int(data.Number),
		Title:   github.String(data.Title),
		Head:    &github.PullRequestBranch{Ref: github.String(data.Head)},
		Base:    &github.PullRequestBranch{Ref: github.String(data.Base)},
		HTMLURL: github.String(fmt.Sprintf("https://github.com/owner/repo/pull/%d", data.Number)),
		State:   github.String(data.State),
		Merged:  github.Bool(data.Merged),
	}
}

// OpenPRData returns an open PR for head on base
func OpenPRData(number int, head, base string) SamplePRData {
	return SamplePRData{
		Number: number,
		Title:  "Change " + head,
		Head:   head,
		Base:   base,
		State:  "open",
	}
}

// MergedPRData returns PR data for a merged PR
func MergedPRData(number int, head, base string) SamplePRData {
	data := OpenPRData(number, head, base)
	data.State = "closed"
	data.Merged = true
	return data
}

// ClosedPRData returns PR data for a PR closed without merging
func ClosedPRData(number int, head, base string) SamplePRData {
	data := OpenPRData(number, head, base)
	data.State = "closed"
	return data
}
