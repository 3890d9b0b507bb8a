package scrape

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFieldExtractor_Run(t *testing.T) {
	rawHTML := `<html>
<head><title>Global Research Scholarship 2025</title></head>
<body>
<script>var x = 1;</script>
<h1>Global Research Scholarship</h1>
<p>Offered by the International Science Foundation, this scholarship supports early-career researchers
working on climate adaptation. The award covers tuition, travel and a living allowance for one year.
Deadline: March 1, 2025. Funding of $10,000 is available per scholar.</p>
<p>Location: Global. Requirements: a completed master's degree and two letters of recommendation.</p>
<p>How to apply: submit the online form with your research proposal.</p>
</body>
</html>`

	extractor := NewFieldExtractor()
	extracted, err := extractor.Run(rawHTML, "https://example.org/scholarship")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if extracted.Title != "Global Research Scholarship 2025" {
		t.Errorf("Expected title from <title> tag, got: %s", extracted.Title)
	}
	if !strings.HasPrefix(extracted.Deadline, "March 1, 2025") {
		t.Errorf("Expected deadline 'March 1, 2025...', got: %s", extracted.Deadline)
	}
	if extracted.Amount != "$10,000" {
		t.Errorf("Expected amount '$10,000', got: %s", extracted.Amount)
	}
	if !strings.Contains(extracted.Organization, "International Science Foundation") {
		t.Errorf("Expected organization to mention the foundation, got: %s", extracted.Organization)
	}
	if !strings.HasPrefix(extracted.Location, "Global") {
		t.Errorf("Expected location 'Global', got: %s", extracted.Location)
	}
	if !strings.Contains(extracted.Requirements, "master's degree") {
		t.Errorf("Expected requirements to mention the degree, got: %s", extracted.Requirements)
	}
	if !strings.Contains(extracted.ApplyInfo, "online form") {
		t.Errorf("Expected apply info to mention the form, got: %s", extracted.ApplyInfo)
	}
	if strings.Contains(extracted.Content, "var x = 1") {
		t.Errorf("Script content should be stripped from text")
	}
}

func TestFieldExtractor_Run_FirstPatternWins(t *testing.T) {
	text := `<html><head><title>Grant</title></head><body>
<p>Deadline: June 30, 2025. Due: July 15, 2025.</p>
<p>` + strings.Repeat("Long enough body text for plain extraction. ", 10) + `</p>
</body></html>`

	extractor := NewFieldExtractor()
	extracted, err := extractor.Run(text, "https://example.org/grant")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.HasPrefix(extracted.Deadline, "June 30, 2025") {
		t.Errorf("First deadline pattern should win, got: %s", extracted.Deadline)
	}
}

func TestFieldExtractor_Run_TitleFallsBackToH1(t *testing.T) {
	rawHTML := `<html><body><h1>Fellowship <em>Programme</em></h1>
<p>` + strings.Repeat("Body content describing the fellowship in detail. ", 10) + `</p>
</body></html>`

	extractor := NewFieldExtractor()
	extracted, err := extractor.Run(rawHTML, "https://example.org/fellowship")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if extracted.Title != "Fellowship Programme" {
		t.Errorf("Expected h1 fallback title 'Fellowship Programme', got: %s", extracted.Title)
	}
}

func TestFieldExtractor_Run_EmptyPage(t *testing.T) {
	extractor := NewFieldExtractor()

	_, err := extractor.Run("<html><body></body></html>", "https://example.org/empty")

	if !errors.Is(err, ErrExtractionEmpty) {
		t.Errorf("Expected ErrExtractionEmpty, got: %v", err)
	}
}

func TestFieldExtractor_Run_Deterministic(t *testing.T) {
	rawHTML := `<html><head><title>Award</title></head><body>
<p>Deadline: May 1, 2025. ` + strings.Repeat("Stable content. ", 20) + `</p>
</body></html>`

	extractor := NewFieldExtractor()

	first, err := extractor.Run(rawHTML, "https://example.org/award")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := extractor.Run(rawHTML, "https://example.org/award")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first.Deadline != second.Deadline || first.Content != second.Content || first.Title != second.Title {
		t.Errorf("Extraction should be deterministic for identical input")
	}
}

func TestPlainText(t *testing.T) {
	extractor := NewFieldExtractor()

	text := extractor.PlainText(`<div><style>p{color:red}</style><p>Hello &amp; welcome</p><!-- note --></div>`)

	if text != "Hello & welcome" {
		t.Errorf("Expected 'Hello & welcome', got: %s", text)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd" {
		t.Errorf("Expected 'abcd', got: %s", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("Expected 'abc', got: %s", got)
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// "é" is two bytes; a 3-byte limit lands mid-rune.
	got := truncate("éé", 3)

	if !utf8.ValidString(got) {
		t.Errorf("Truncated string must stay valid UTF-8, got: %q", got)
	}
	if got != "é" {
		t.Errorf("Expected cut backed up to rune boundary, got: %q", got)
	}

	long := "a" + strings.Repeat("опыт", 2000)
	cut := truncate(long, maxContentLength)
	if !utf8.ValidString(cut) {
		t.Errorf("Content truncation split a rune at the %d byte limit", maxContentLength)
	}
	if len(cut) > maxContentLength {
		t.Errorf("Expected at most %d bytes, got: %d", maxContentLength, len(cut))
	}
}
