package ai

// OpportunityData is the validated shape of the model's JSON response. Every
// field is optional on the wire; defaulting rules are applied after parsing.
type OpportunityData struct {
	Title               string   `json:"title"`
	Organization        string   `json:"organization"`
	Description         string   `json:"description"`
	Category            string   `json:"category"`
	Location            string   `json:"location"`
	Deadline            string   `json:"deadline"`
	Amount              string   `json:"amount"`
	Tags                []string `json:"tags"`
	URL                 string   `json:"url"`
	Featured            bool     `json:"featured"`
	AboutOpportunity    string   `json:"aboutOpportunity"`
	Requirements        string   `json:"requirements"`
	HowToApply          string   `json:"howToApply"`
	WhatYouGet          string   `json:"whatYouGet"`
	ApplicationDeadline string   `json:"applicationDeadline"`
	PostedDate          string   `json:"postedDate"`
	ContactEmail        string   `json:"contactEmail"`
	FundingType         string   `json:"fundingType"`
	EligibleCountries   []string `json:"eligibleCountries"`
	MinAmount           float64  `json:"minAmount"`
	MaxAmount           float64  `json:"maxAmount"`
}

// Result is the outcome of one AI extraction.
type Result struct {
	Success          bool
	Data             *OpportunityData
	Confidence       float64
	ValidationErrors []string
	ExtractedFields  []string
	Error            string
}

// Categories form a closed enum; anything else is defaulted to Misc.
var Categories = []string{
	"Scholarships",
	"Fellowships",
	"Grants",
	"Internships",
	"Conferences",
	"Competitions",
	"Exchange Programs",
	"Research",
	"Misc",
}

const (
	DefaultCategory          = "Misc"
	DefaultFundingType       = "Variable Amount"
	DefaultLocation          = "Global"
	DefaultEligibleCountries = "Global"
)
