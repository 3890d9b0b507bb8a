package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Core fields counted toward confidence. Bonuses are added for a concrete
// deadline, a concrete amount, and a contact email, then the sum is
// normalized by the core field count and capped at 1.0. The model's own
// confidence claims are never used.
var coreFields = []string{"title", "organization", "description", "deadline", "aboutOpportunity", "requirements", "howToApply"}

const fieldBonus = 0.5

const promptTemplate = `You are a data extraction assistant for a funding opportunity database.
Extract structured data from the page below and return ONLY a JSON object, no prose, matching this schema:

{
  "title": string,
  "organization": string,
  "description": string,
  "category": one of [%s],
  "location": string,
  "deadline": string,
  "amount": string,
  "tags": [string],
  "url": string,
  "featured": boolean,
  "aboutOpportunity": string,
  "requirements": string,
  "howToApply": string,
  "whatYouGet": string,
  "applicationDeadline": string,
  "postedDate": string,
  "contactEmail": string,
  "fundingType": string,
  "eligibleCountries": [string],
  "minAmount": number,
  "maxAmount": number
}

Use an empty string for fields not present on the page. Do not invent data.

Page title: %s
Page URL: %s
Page content:
%s`

const maxPromptContent = 8000

// Extractor turns scraped page text into a validated opportunity record via
// the generative model.
type Extractor struct {
	generator Generator
}

func NewExtractor(generator Generator) *Extractor {
	return &Extractor{generator: generator}
}

func (e *Extractor) ModelVersion() string {
	if e.generator == nil {
		return ""
	}
	return e.generator.ModelVersion()
}

// Run sends the page to the model and parses the response. A response that
// cannot be reduced to valid JSON is a hard failure, not a partial result.
func (e *Extractor) Run(ctx context.Context, title, content, sourceURL string) Result {
	if e.generator == nil {
		return Result{Success: false, Error: "no AI generator configured"}
	}

	prompt := BuildPrompt(title, content, sourceURL)

	raw, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	sanitized := SanitizeResponse(raw)

	var data OpportunityData
	if err := json.Unmarshal([]byte(sanitized), &data); err != nil {
		slog.Debug("AI response is not valid JSON", "url", sourceURL, "error", err)
		return Result{Success: false, Error: fmt.Sprintf("failed to parse AI response: %v", err)}
	}

	ApplyDefaults(&data, sourceURL)

	confidence := ComputeConfidence(&data)
	validationErrors := Validate(&data)

	return Result{
		Success:          true,
		Data:             &data,
		Confidence:       confidence,
		ValidationErrors: validationErrors,
		ExtractedFields:  extractedFields(&data),
	}
}

func BuildPrompt(title, content, sourceURL string) string {
	if len(content) > maxPromptContent {
		content = content[:maxPromptContent]
	}

	return fmt.Sprintf(promptTemplate, strings.Join(Categories, ", "), title, sourceURL, content)
}

// SanitizeResponse strips markdown code fences and any prose around the
// JSON object, trimming to the outermost braces.
func SanitizeResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)

	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	return strings.TrimSpace(cleaned)
}

// ApplyDefaults fills omitted enum-ish fields and force-overwrites the URL
// with the original source URL; the model's echo of it is never trusted.
func ApplyDefaults(data *OpportunityData, sourceURL string) {
	data.URL = sourceURL

	if strings.TrimSpace(data.Category) == "" || !validCategory(data.Category) {
		data.Category = DefaultCategory
	}
	if strings.TrimSpace(data.FundingType) == "" {
		data.FundingType = DefaultFundingType
	}
	if strings.TrimSpace(data.Location) == "" {
		data.Location = DefaultLocation
	}
	if len(data.EligibleCountries) == 0 {
		data.EligibleCountries = []string{DefaultEligibleCountries}
	}
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ComputeConfidence scores the extraction from the data alone.
func ComputeConfidence(data *OpportunityData) float64 {
	score := 0.0
	for _, field := range coreFields {
		if fieldValue(data, field) != "" {
			score++
		}
	}

	if strings.TrimSpace(data.Deadline) != "" {
		score += fieldBonus
	}
	if amount := strings.TrimSpace(data.Amount); amount != "" && !strings.HasPrefix(strings.ToLower(amount), "variable") {
		score += fieldBonus
	}
	if strings.TrimSpace(data.ContactEmail) != "" {
		score += fieldBonus
	}

	confidence := score / float64(len(coreFields))
	if confidence > 1.0 {
		confidence = 1.0
	}

	return confidence
}

// Validate reports schema problems without failing the extraction.
func Validate(data *OpportunityData) []string {
	var errs []string

	if strings.TrimSpace(data.Title) == "" {
		errs = append(errs, "title is empty")
	}
	if strings.TrimSpace(data.Description) == "" {
		errs = append(errs, "description is empty")
	}
	if strings.TrimSpace(data.Organization) == "" {
		errs = append(errs, "organization is empty")
	}
	if data.MinAmount > data.MaxAmount && data.MaxAmount > 0 {
		errs = append(errs, "minAmount exceeds maxAmount")
	}
	if data.ContactEmail != "" && !strings.Contains(data.ContactEmail, "@") {
		errs = append(errs, "contactEmail is not an email address")
	}

	return errs
}

func extractedFields(data *OpportunityData) []string {
	var fields []string
	for _, field := range coreFields {
		if fieldValue(data, field) != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

func fieldValue(data *OpportunityData, field string) string {
	switch field {
	case "title":
		return strings.TrimSpace(data.Title)
	case "organization":
		return strings.TrimSpace(data.Organization)
	case "description":
		return strings.TrimSpace(data.Description)
	case "deadline":
		return strings.TrimSpace(data.Deadline)
	case "aboutOpportunity":
		return strings.TrimSpace(data.AboutOpportunity)
	case "requirements":
		return strings.TrimSpace(data.Requirements)
	case "howToApply":
		return strings.TrimSpace(data.HowToApply)
	default:
		return ""
	}
}
