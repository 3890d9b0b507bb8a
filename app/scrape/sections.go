package scrape

import (
	"html"
	"regexp"
	"strings"
)

const maxSectionLength = 800

// Section category names.
const (
	SectionType           = "type"
	SectionOrganization   = "organization"
	SectionLocation       = "location"
	SectionSalary         = "salary"
	SectionEligibility    = "eligibility"
	SectionBenefits       = "benefits"
	SectionHowToApply     = "how_to_apply"
	SectionDeadline       = "deadline"
	SectionAdditionalInfo = "additional_info"
)

// headingRe matches structural headings used as section boundaries.
var headingRe = regexp.MustCompile(`(?is)<(h[1-6]|strong|b)\b[^>]*>(.*?)</\s*(?:h[1-6]|strong|b)\s*>`)

type sectionRule struct {
	category string
	pattern  *regexp.Regexp
}

// Ordered: the first rule whose pattern matches the heading text claims the
// section.
var sectionRules = []sectionRule{
	{SectionDeadline, regexp.MustCompile(`(?i)deadline|closing date|apply by|due date`)},
	{SectionEligibility, regexp.MustCompile(`(?i)eligib|requirement|criteria|who can apply`)},
	{SectionBenefits, regexp.MustCompile(`(?i)benefit|what you get|funding cover|award include`)},
	{SectionHowToApply, regexp.MustCompile(`(?i)how to apply|application process|apply now|submission`)},
	{SectionSalary, regexp.MustCompile(`(?i)salary|stipend|amount|funding|grant value`)},
	{SectionOrganization, regexp.MustCompile(`(?i)about (?:the )?(?:organi[sz]ation|funder|university|foundation|us)`)},
	{SectionLocation, regexp.MustCompile(`(?i)location|host country|where`)},
	{SectionType, regexp.MustCompile(`(?i)opportunity type|type of (?:award|opportunity|funding)`)},
	{SectionAdditionalInfo, regexp.MustCompile(`(?i)additional information|more information|notes`)},
}

// Trailing boilerplate stripped from section content.
var sectionBoilerplate = []string{
	"also check:",
	"also read:",
	"tags:",
	"share this:",
	"related posts",
	"follow us",
}

// SectionExtractor slices HTML into labeled sections bounded by structural
// headings.
type SectionExtractor struct{}

func NewSectionExtractor() *SectionExtractor {
	return &SectionExtractor{}
}

// Run scans headings in document order and returns the cleaned HTML slice
// between each recognized heading and the next heading as that section's
// content. The first heading to claim a category keeps it.
func (e *SectionExtractor) Run(rawHTML string) map[string]string {
	matches := headingRe.FindAllStringSubmatchIndex(rawHTML, -1)
	if matches == nil {
		return map[string]string{}
	}

	sections := make(map[string]string)

	for i, match := range matches {
		headingText := cleanSectionText(rawHTML[match[4]:match[5]])
		category := classifyHeading(headingText)
		if category == "" {
			continue
		}
		if _, exists := sections[category]; exists {
			continue
		}

		sliceStart := match[1]
		sliceEnd := len(rawHTML)
		if i+1 < len(matches) {
			sliceEnd = matches[i+1][0]
		}

		content := cleanSectionText(rawHTML[sliceStart:sliceEnd])
		content = stripBoilerplate(content)
		if content == "" {
			continue
		}

		sections[category] = truncate(content, maxSectionLength)
	}

	return sections
}

func classifyHeading(heading string) string {
	for _, rule := range sectionRules {
		if rule.pattern.MatchString(heading) {
			return rule.category
		}
	}
	return ""
}

func cleanSectionText(fragment string) string {
	cleaned := scriptRe.ReplaceAllString(fragment, " ")
	cleaned = styleRe.ReplaceAllString(cleaned, " ")
	cleaned = tagRe.ReplaceAllString(cleaned, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(cleaned)
}

func stripBoilerplate(content string) string {
	lower := strings.ToLower(content)
	cut := len(content)

	for _, marker := range sectionBoilerplate {
		if idx := strings.Index(lower, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}

	return strings.TrimSpace(content[:cut])
}
