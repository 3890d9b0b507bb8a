package campaign

import (
	"testing"

	"github.com/shubhamdixena/opportunity-harvester/app/ai"
)

func TestOpportunityFromData(t *testing.T) {
	data := &ai.OpportunityData{
		Title:             "Ocean Science Fellowship",
		Organization:      "Blue Institute",
		Description:       "A one-year fellowship.",
		Category:          "Fellowships",
		Location:          "Portugal",
		Deadline:          "March 1, 2025",
		Amount:            "$20,000",
		URL:               "https://example.org/fellowship",
		HowToApply:        "Apply online.",
		FundingType:       "Full Funding",
		EligibleCountries: []string{"Global"},
		MinAmount:         10000,
		MaxAmount:         20000,
	}

	opp := OpportunityFromData(data)

	if opp.Title != data.Title || opp.Organization != data.Organization {
		t.Errorf("Core fields should map directly, got: %+v", opp)
	}
	if opp.Deadline != "March 1, 2025" {
		t.Errorf("Raw deadline string should be kept, got: %s", opp.Deadline)
	}
	if opp.DeadlineAt == nil {
		t.Fatal("Expected a parsed deadline timestamp")
	}
	if opp.DeadlineAt.Year() != 2025 || int(opp.DeadlineAt.Month()) != 3 || opp.DeadlineAt.Day() != 1 {
		t.Errorf("Expected deadline parsed as 2025-03-01, got: %s", opp.DeadlineAt)
	}
	if opp.Status != "draft" {
		t.Errorf("New opportunities start as draft, got: %s", opp.Status)
	}
	if opp.MinAmount != 10000 || opp.MaxAmount != 20000 {
		t.Errorf("Amount bounds should map directly, got: %f-%f", opp.MinAmount, opp.MaxAmount)
	}
}

func TestOpportunityFromData_UnparsableDeadline(t *testing.T) {
	data := &ai.OpportunityData{
		Title:    "Grant",
		Deadline: "rolling basis",
	}

	opp := OpportunityFromData(data)

	if opp.DeadlineAt != nil {
		t.Errorf("Unparsable deadline should leave the timestamp nil, got: %s", opp.DeadlineAt)
	}
	if opp.Deadline != "rolling basis" {
		t.Errorf("Raw deadline string should still be kept, got: %s", opp.Deadline)
	}
}
