package ai

import (
	"strings"
	"unicode/utf8"

	"github.com/shubhamdixena/opportunity-harvester/app/scrape"
)

const fallbackDescriptionLength = 200

// FallbackFromScraped builds a minimal opportunity record straight from the
// scraped metadata when the AI call fails or returns unparsable JSON, so one
// bad model response never fails the whole item.
func FallbackFromScraped(content *scrape.ScrapedContent) *OpportunityData {
	organization := strings.TrimSpace(content.Metadata.Organization)
	if organization == "" {
		organization = "Unknown"
	}

	description := content.Content
	if len(description) > fallbackDescriptionLength {
		// Back up to a rune boundary so the cut never splits a character.
		cut := fallbackDescriptionLength
		for cut > 0 && !utf8.RuneStart(description[cut]) {
			cut--
		}
		description = description[:cut]
	}

	return &OpportunityData{
		Title:             content.Title,
		Organization:      organization,
		Description:       description,
		Category:          DefaultCategory,
		Location:          DefaultLocation,
		Deadline:          content.Metadata.Deadline,
		Amount:            content.Metadata.Amount,
		URL:               content.Metadata.SourceURL,
		Requirements:      content.Metadata.Requirements,
		FundingType:       DefaultFundingType,
		EligibleCountries: []string{DefaultEligibleCountries},
	}
}
