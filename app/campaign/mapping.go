package campaign

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/shubhamdixena/opportunity-harvester/app/ai"
	"github.com/shubhamdixena/opportunity-harvester/app/database"
)

// OpportunityFromData maps the AI extraction record onto the persisted
// opportunity schema field by field. An explicit mapping keeps schema drift
// a compile error instead of a silent key-transformation bug.
func OpportunityFromData(data *ai.OpportunityData) database.Opportunity {
	opp := database.Opportunity{
		Title:               data.Title,
		Organization:        data.Organization,
		Description:         data.Description,
		Category:            data.Category,
		Location:            data.Location,
		Deadline:            data.Deadline,
		Amount:              data.Amount,
		Tags:                data.Tags,
		URL:                 data.URL,
		Featured:            data.Featured,
		AboutOpportunity:    data.AboutOpportunity,
		Requirements:        data.Requirements,
		HowToApply:          data.HowToApply,
		WhatYouGet:          data.WhatYouGet,
		ApplicationDeadline: data.ApplicationDeadline,
		ContactEmail:        data.ContactEmail,
		FundingType:         data.FundingType,
		EligibleCountries:   data.EligibleCountries,
		MinAmount:           data.MinAmount,
		MaxAmount:           data.MaxAmount,
		Status:              "draft",
	}

	if t, ok := parseLooseDate(data.Deadline); ok {
		opp.DeadlineAt = &t
	}
	if t, ok := parseLooseDate(data.PostedDate); ok {
		opp.PostedDate = &t
	}

	return opp
}

// parseLooseDate best-effort parses free-form date strings like
// "March 1, 2025". The raw string is always persisted alongside.
func parseLooseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
