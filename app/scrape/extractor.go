package scrape

import (
	"errors"
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

// ErrExtractionEmpty means the HTML parsed but neither a title nor content
// could be pulled out. Treated as retryable by the queue, like a fetch error.
var ErrExtractionEmpty = errors.New("extraction produced no title or content")

const (
	maxContentLength     = 5000
	maxDescriptionLength = 300

	// Below this many characters of stripped text, the page likely keeps
	// its real content behind markup the tag stripper mangled; fall back to
	// readability extraction.
	thinContentLength = 200
)

var (
	scriptRe  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe   = regexp.MustCompile(`\s+`)

	titleTagRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	h1TagRe    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
)

// Ordered pattern lists. The first pattern that matches wins for its field;
// later patterns are not tried.
var (
	deadlinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)deadline\s*:\s*(.{1,50})`),
		regexp.MustCompile(`(?i)due\s*:\s*(.{1,50})`),
		regexp.MustCompile(`(?i)apply by\s*:?\s*(.{1,50})`),
		regexp.MustCompile(`(?i)closing date\s*:\s*(.{1,50})`),
	}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[$£€]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:million|k|thousand))?`),
		regexp.MustCompile(`(?i)(?:award|scholarship|funding)\s*(?:of|:)\s*([^.]{0,40}?\d[\d,]*(?:\.\d+)?)`),
	}

	organizationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:offered by|sponsored by|hosted by)\s+(.{1,100}?)(?:[.,;]|$)`),
		regexp.MustCompile(`([A-Z][A-Za-z&,.'\- ]{2,90}?(?:Foundation|University|Institute|Trust|Council))`),
	}

	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)location\s*:\s*(.{1,50}?)(?:[.,;]|$)`),
		regexp.MustCompile(`(?i)country\s*:\s*(.{1,50}?)(?:[.,;]|$)`),
		regexp.MustCompile(`(?i)eligible\s+(?:countries|nationalities)\s*:?\s*(.{1,80}?)(?:[.;]|$)`),
	}

	requirementsPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)requirements?\s*:\s*(.{1,200}?)(?:[.;]|$)`),
		regexp.MustCompile(`(?i)eligibility\s*:\s*(.{1,200}?)(?:[.;]|$)`),
	}

	applyInfoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)how to apply\s*:?\s*(.{1,200}?)(?:[.;]|$)`),
		regexp.MustCompile(`(?i)application process\s*:?\s*(.{1,200}?)(?:[.;]|$)`),
	}
)

// FieldExtractor pulls opportunity fields out of raw HTML with ordered
// first-match heuristics. Extraction is pure: same HTML, same result.
type FieldExtractor struct{}

func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

func (e *FieldExtractor) Run(rawHTML string, pageURL string) (*Extracted, error) {
	text := e.PlainText(rawHTML)

	if len(text) < thinContentLength {
		if readable := e.readableText(rawHTML, pageURL); len(readable) > len(text) {
			text = readable
		}
	}

	extracted := &Extracted{
		Title:        e.extractTitle(rawHTML),
		Content:      truncate(text, maxContentLength),
		Description:  truncate(text, maxDescriptionLength),
		Organization: firstMatch(organizationPatterns, text),
		Deadline:     firstMatch(deadlinePatterns, text),
		Location:     firstMatch(locationPatterns, text),
		Amount:       firstMatch(amountPatterns, text),
		Requirements: firstMatch(requirementsPatterns, text),
		ApplyInfo:    firstMatch(applyInfoPatterns, text),
	}

	if extracted.Title == "" && extracted.Content == "" {
		return nil, ErrExtractionEmpty
	}

	return extracted, nil
}

// PlainText strips scripts, styles, comments and all remaining tags, then
// collapses whitespace.
func (e *FieldExtractor) PlainText(rawHTML string) string {
	cleaned := scriptRe.ReplaceAllString(rawHTML, " ")
	cleaned = styleRe.ReplaceAllString(cleaned, " ")
	cleaned = commentRe.ReplaceAllString(cleaned, " ")
	cleaned = tagRe.ReplaceAllString(cleaned, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = spaceRe.ReplaceAllString(cleaned, " ")

	return strings.TrimSpace(cleaned)
}

func (e *FieldExtractor) extractTitle(rawHTML string) string {
	if m := titleTagRe.FindStringSubmatch(rawHTML); m != nil {
		if title := strings.TrimSpace(html.UnescapeString(m[1])); title != "" {
			return collapseSpaces(title)
		}
	}

	if m := h1TagRe.FindStringSubmatch(rawHTML); m != nil {
		inner := tagRe.ReplaceAllString(m[1], " ")
		if title := strings.TrimSpace(html.UnescapeString(inner)); title != "" {
			return collapseSpaces(title)
		}
	}

	return ""
}

func (e *FieldExtractor) readableText(rawHTML string, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return ""
	}

	return collapseSpaces(strings.TrimSpace(article.TextContent))
}

// firstMatch tries patterns in declared order and returns the first capture
// group of the first pattern that matches, or the whole match for patterns
// without groups.
func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		value := m[0]
		if len(m) > 1 && m[1] != "" {
			value = m[1]
		}

		return strings.TrimSpace(value)
	}

	return ""
}

// truncate cuts at limit bytes, backing up to the nearest rune boundary so a
// multi-byte character is never split.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func collapseSpaces(s string) string {
	return spaceRe.ReplaceAllString(s, " ")
}
