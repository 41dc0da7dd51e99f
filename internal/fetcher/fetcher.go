package fetcher

import "context"

// FetchResult is the contract every content-acquisition collaborator
// fulfils. Only the stealth variant ever produces a screenshot.
type FetchResult struct {
	HTML           string `json:"html"`
	ScreenshotPath string `json:"screenshotPath,omitempty"`
	Title          string `json:"title,omitempty"`
}

// Fetcher acquires the content of a target URL.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (FetchResult, error)
}
