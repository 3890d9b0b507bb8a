package ai

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shubhamdixena/opportunity-harvester/app/scrape"
)

func TestFallbackFromScraped(t *testing.T) {
	content := &scrape.ScrapedContent{
		Title:   "Emergency Relief Grant",
		URL:     "https://example.org/relief",
		Content: strings.Repeat("Long scraped description. ", 20),
		Metadata: scrape.ScrapedMetadata{
			Organization: "Relief Works",
			Deadline:     "April 1, 2025",
			Amount:       "$2,500",
			Requirements: "Registered nonprofits only",
			ScrapedAt:    time.Now(),
			SourceURL:    "https://example.org/relief",
		},
	}

	data := FallbackFromScraped(content)

	if data.Title != "Emergency Relief Grant" {
		t.Errorf("Expected scraped title, got: %s", data.Title)
	}
	if data.Organization != "Relief Works" {
		t.Errorf("Expected scraped organization, got: %s", data.Organization)
	}
	if len(data.Description) != fallbackDescriptionLength {
		t.Errorf("Expected description truncated to %d characters, got: %d", fallbackDescriptionLength, len(data.Description))
	}
	if data.URL != "https://example.org/relief" {
		t.Errorf("Expected source URL, got: %s", data.URL)
	}
	if data.Category != DefaultCategory {
		t.Errorf("Expected default category, got: %s", data.Category)
	}
	if data.FundingType != DefaultFundingType {
		t.Errorf("Expected default funding type, got: %s", data.FundingType)
	}
}

func TestFallbackFromScraped_DescriptionRuneBoundary(t *testing.T) {
	// The leading ASCII byte shifts every two-byte rune so the cut at the
	// description limit lands mid-rune.
	content := &scrape.ScrapedContent{
		Title:   "Stipendium",
		Content: "x" + strings.Repeat("ö", fallbackDescriptionLength),
		Metadata: scrape.ScrapedMetadata{
			SourceURL: "https://example.org/stipendium",
		},
	}

	data := FallbackFromScraped(content)

	if !utf8.ValidString(data.Description) {
		t.Errorf("Description must stay valid UTF-8, got: %q", data.Description)
	}
	if len(data.Description) > fallbackDescriptionLength {
		t.Errorf("Expected at most %d bytes, got: %d", fallbackDescriptionLength, len(data.Description))
	}
}

func TestFallbackFromScraped_UnknownOrganization(t *testing.T) {
	content := &scrape.ScrapedContent{
		Title:   "Untitled Opportunity",
		Content: "Short description.",
		Metadata: scrape.ScrapedMetadata{
			SourceURL: "https://example.org/x",
		},
	}

	data := FallbackFromScraped(content)

	if data.Organization != "Unknown" {
		t.Errorf("Expected organization 'Unknown', got: %s", data.Organization)
	}
	if data.Description != "Short description." {
		t.Errorf("Short content should be kept whole, got: %s", data.Description)
	}
}
