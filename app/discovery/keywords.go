package discovery

import (
	"strings"
)

// opportunityKeywords is the substring heuristic used to keep only URLs that
// plausibly describe funding or opportunity listings.
var opportunityKeywords = []string{
	"scholarship",
	"fellowship",
	"grant",
	"funding",
	"opportunity",
	"internship",
	"conference",
	"competition",
	"exchange",
	"program",
	"award",
	"bursary",
	"stipend",
	"research",
	"study",
}

// MatchesOpportunityKeywords reports whether the URL contains any
// opportunity keyword, case-insensitive.
func MatchesOpportunityKeywords(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, keyword := range opportunityKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// FilterOpportunityURLs keeps matching URLs and drops duplicates, preserving
// input order. Running it on an already-filtered list returns the same list.
func FilterOpportunityURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	filtered := make([]string, 0, len(urls))

	for _, u := range urls {
		if !MatchesOpportunityKeywords(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		filtered = append(filtered, u)
	}

	return filtered
}
