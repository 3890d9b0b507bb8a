package discovery

import (
	"reflect"
	"testing"
)

func TestMatchesOpportunityKeywords(t *testing.T) {
	matching := []string{
		"https://example.org/scholarship-2025",
		"https://example.org/posts/PhD-Fellowship",
		"https://example.org/grant/apply",
		"https://example.org/RESEARCH/openings",
	}
	for _, u := range matching {
		if !MatchesOpportunityKeywords(u) {
			t.Errorf("Expected URL to match keywords: %s", u)
		}
	}

	nonMatching := []string{
		"https://example.org/about",
		"https://example.org/contact-us",
		"https://example.org/privacy-policy",
	}
	for _, u := range nonMatching {
		if MatchesOpportunityKeywords(u) {
			t.Errorf("Expected URL not to match keywords: %s", u)
		}
	}
}

func TestFilterOpportunityURLs(t *testing.T) {
	urls := []string{
		"https://example.org/scholarship-a",
		"https://example.org/about",
		"https://example.org/grant-b",
		"https://example.org/scholarship-a", // duplicate
	}

	filtered := FilterOpportunityURLs(urls)

	expected := []string{
		"https://example.org/scholarship-a",
		"https://example.org/grant-b",
	}
	if !reflect.DeepEqual(filtered, expected) {
		t.Errorf("Expected %v, got: %v", expected, filtered)
	}
}

func TestFilterOpportunityURLs_Idempotent(t *testing.T) {
	urls := []string{
		"https://example.org/funding-call",
		"https://example.org/internship-program",
	}

	once := FilterOpportunityURLs(urls)
	twice := FilterOpportunityURLs(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filtering an already-filtered list should be a no-op, got %v then %v", once, twice)
	}
}

func TestFilterOpportunityURLs_Empty(t *testing.T) {
	if got := FilterOpportunityURLs(nil); len(got) != 0 {
		t.Errorf("Expected empty result for nil input, got: %v", got)
	}
}
