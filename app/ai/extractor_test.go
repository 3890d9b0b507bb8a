package ai

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
)

// stubGenerator returns a canned response without network access.
type stubGenerator struct {
	response string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.response, g.err
}

func (g *stubGenerator) ModelVersion() string {
	return "stub-model"
}

func TestSanitizeResponse_CodeFences(t *testing.T) {
	raw := "```json\n{\"title\": \"Scholarship\"}\n```"

	cleaned := SanitizeResponse(raw)

	if cleaned != `{"title": "Scholarship"}` {
		t.Errorf("Expected fences stripped, got: %s", cleaned)
	}
}

func TestSanitizeResponse_SurroundingProse(t *testing.T) {
	raw := `Here is the extracted data:
{"title": "Grant", "organization": "Fund"}
Let me know if you need anything else.`

	cleaned := SanitizeResponse(raw)

	if !strings.HasPrefix(cleaned, "{") || !strings.HasSuffix(cleaned, "}") {
		t.Errorf("Expected response trimmed to outermost braces, got: %s", cleaned)
	}
	if strings.Contains(cleaned, "Here is") {
		t.Errorf("Prose before the JSON should be removed, got: %s", cleaned)
	}
}

func TestSanitizeResponse_PlainJSON(t *testing.T) {
	raw := `{"title": "Award"}`

	if cleaned := SanitizeResponse(raw); cleaned != raw {
		t.Errorf("Plain JSON should pass through unchanged, got: %s", cleaned)
	}
}

func TestApplyDefaults(t *testing.T) {
	data := &OpportunityData{
		Title: "Test",
		URL:   "https://model-hallucinated.example/page",
	}

	ApplyDefaults(data, "https://real-source.example/opportunity")

	if data.URL != "https://real-source.example/opportunity" {
		t.Errorf("URL must be overwritten with the source URL, got: %s", data.URL)
	}
	if data.Category != DefaultCategory {
		t.Errorf("Expected default category '%s', got: %s", DefaultCategory, data.Category)
	}
	if data.FundingType != DefaultFundingType {
		t.Errorf("Expected default funding type '%s', got: %s", DefaultFundingType, data.FundingType)
	}
	if data.Location != DefaultLocation {
		t.Errorf("Expected default location '%s', got: %s", DefaultLocation, data.Location)
	}
	if len(data.EligibleCountries) != 1 || data.EligibleCountries[0] != DefaultEligibleCountries {
		t.Errorf("Expected default eligible countries, got: %v", data.EligibleCountries)
	}
}

func TestApplyDefaults_InvalidCategory(t *testing.T) {
	data := &OpportunityData{Category: "Unicorns"}

	ApplyDefaults(data, "https://example.org/x")

	if data.Category != DefaultCategory {
		t.Errorf("Unknown category should default to '%s', got: %s", DefaultCategory, data.Category)
	}
}

func TestApplyDefaults_ValidCategoryKept(t *testing.T) {
	data := &OpportunityData{Category: "Fellowships"}

	ApplyDefaults(data, "https://example.org/x")

	if data.Category != "Fellowships" {
		t.Errorf("Valid category should be kept, got: %s", data.Category)
	}
}

func TestComputeConfidence_Empty(t *testing.T) {
	if got := ComputeConfidence(&OpportunityData{}); got != 0 {
		t.Errorf("Expected confidence 0 for empty record, got: %f", got)
	}
}

func TestComputeConfidence_CoreFieldsOnly(t *testing.T) {
	data := &OpportunityData{
		Title:        "Scholarship",
		Organization: "Foundation",
		Description:  "Supports students",
	}

	got := ComputeConfidence(data)
	expected := 3.0 / 7.0

	if math.Abs(got-expected) > 1e-9 {
		t.Errorf("Expected confidence %f, got: %f", expected, got)
	}
}

func TestComputeConfidence_Bonuses(t *testing.T) {
	base := &OpportunityData{Title: "Scholarship"}
	withDeadline := &OpportunityData{Title: "Scholarship", Deadline: "March 1, 2025"}

	if ComputeConfidence(withDeadline) <= ComputeConfidence(base) {
		t.Error("A concrete deadline should raise confidence")
	}

	withEmail := &OpportunityData{Title: "Scholarship", ContactEmail: "info@example.org"}
	if ComputeConfidence(withEmail) <= ComputeConfidence(base) {
		t.Error("A contact email should raise confidence")
	}
}

func TestComputeConfidence_VariableAmountNoBonus(t *testing.T) {
	variable := &OpportunityData{Title: "Grant", Amount: "Variable Amount"}
	concrete := &OpportunityData{Title: "Grant", Amount: "$5,000"}

	if ComputeConfidence(variable) >= ComputeConfidence(concrete) {
		t.Error("A variable amount should not earn the amount bonus")
	}
}

func TestComputeConfidence_CappedAtOne(t *testing.T) {
	data := &OpportunityData{
		Title:            "T",
		Organization:     "O",
		Description:      "D",
		Deadline:         "March 1, 2025",
		AboutOpportunity: "A",
		Requirements:     "R",
		HowToApply:       "H",
		Amount:           "$1,000",
		ContactEmail:     "c@example.org",
	}

	if got := ComputeConfidence(data); got != 1.0 {
		t.Errorf("Expected confidence capped at 1.0, got: %f", got)
	}
}

func TestValidate(t *testing.T) {
	data := &OpportunityData{
		MinAmount:    5000,
		MaxAmount:    1000,
		ContactEmail: "not-an-email",
	}

	errs := Validate(data)

	if len(errs) == 0 {
		t.Fatal("Expected validation errors")
	}

	joined := strings.Join(errs, "; ")
	for _, want := range []string{"title", "description", "organization", "minAmount", "contactEmail"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected a validation error mentioning %s, got: %s", want, joined)
		}
	}
}

func TestExtractor_Run(t *testing.T) {
	generator := &stubGenerator{response: "```json\n" + `{
		"title": "Climate Research Grant",
		"organization": "Green Fund",
		"description": "Funding for climate research projects.",
		"category": "Grants",
		"deadline": "June 1, 2025",
		"url": "https://wrong.example/echo"
	}` + "\n```"}

	extractor := NewExtractor(generator)
	result := extractor.Run(context.Background(), "Climate Research Grant", "page content", "https://example.org/grant")

	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}
	if result.Data.URL != "https://example.org/grant" {
		t.Errorf("URL must come from the source, got: %s", result.Data.URL)
	}
	if result.Data.Category != "Grants" {
		t.Errorf("Expected category 'Grants', got: %s", result.Data.Category)
	}
	if result.Confidence <= 0 {
		t.Errorf("Expected positive confidence, got: %f", result.Confidence)
	}
}

func TestExtractor_Run_InvalidJSON(t *testing.T) {
	generator := &stubGenerator{response: "I could not find any structured data on this page."}

	extractor := NewExtractor(generator)
	result := extractor.Run(context.Background(), "Title", "content", "https://example.org/x")

	if result.Success {
		t.Error("Expected failure for unparsable response")
	}
	if result.Error == "" {
		t.Error("Expected an error message")
	}
}

func TestExtractor_Run_GeneratorError(t *testing.T) {
	generator := &stubGenerator{err: errors.New("api timeout")}

	extractor := NewExtractor(generator)
	result := extractor.Run(context.Background(), "Title", "content", "https://example.org/x")

	if result.Success {
		t.Error("Expected failure when the generator errors")
	}
}

func TestBuildPrompt_TruncatesContent(t *testing.T) {
	content := strings.Repeat("x", maxPromptContent+500)

	prompt := BuildPrompt("Title", content, "https://example.org/x")

	if len(prompt) >= len(content)+1000 {
		t.Errorf("Expected content truncated to %d characters", maxPromptContent)
	}
	if !strings.Contains(prompt, "https://example.org/x") {
		t.Error("Expected the source URL in the prompt")
	}
}
