// Package extract turns raw OCR text into a best-effort structured resume
// record. Extraction is deterministic and does no I/O; absent matches yield
// empty strings and empty lists, never nulls, so merge logic downstream does
// not branch on missing fields.
package extract

import (
	"regexp"
	"strings"
)

// ParsedFields is the structured result of a text extraction pass.
type ParsedFields struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Sections []Section `json:"sections"`
}

// Section is a titled run of consecutive lines under a recognized heading.
type Section struct {
	Title   string   `json:"title"`
	Content []string `json:"content"`
}

var (
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-/().]{5,}\d`)
)

// sectionHeading maps heading keywords (matched case-insensitively as
// substrings) to the canonical section title. Checked in order; the first
// matching entry wins.
type sectionHeading struct {
	keywords []string
	title    string
}

var sectionHeadings = []sectionHeading{
	{[]string{"erfahrung", "experience", "werdegang"}, "Berufserfahrung"},
	{[]string{"ausbildung", "studium", "education"}, "Ausbildung"},
	{[]string{"kenntnisse", "skills", "kompetenzen"}, "Kenntnisse"},
	{[]string{"sprachen", "languages"}, "Sprachen"},
	{[]string{"zertifi", "certifi"}, "Zertifikate"},
	{[]string{"projekt", "project"}, "Projekte"},
	{[]string{"profil", "summary", "über mich"}, "Profil"},
}

// Extract parses raw OCR text into structured resume fields.
func Extract(rawText string) ParsedFields {
	parsed := ParsedFields{Sections: []Section{}}

	lines := make([]string, 0)
	for _, line := range strings.Split(rawText, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return parsed
	}

	parsed.Email = emailPattern.FindString(rawText)
	parsed.Phone = phonePattern.FindString(rawText)

	// The first line is taken as the candidate name unless it looks like a
	// contact line.
	first := lines[0]
	if !emailPattern.MatchString(first) && !phonePattern.MatchString(first) {
		parsed.Name = first
	}

	// Lines before the first recognized heading stay outside sectioning.
	var current *Section
	for _, line := range lines {
		if title, ok := headingFor(line); ok {
			parsed.Sections = append(parsed.Sections, Section{Title: title, Content: []string{}})
			current = &parsed.Sections[len(parsed.Sections)-1]
			continue
		}
		if current != nil {
			current.Content = append(current.Content, line)
		}
	}

	return parsed
}

// headingFor reports whether line is a section heading and returns the
// canonical title for it.
func headingFor(line string) (string, bool) {
	lower := strings.ToLower(line)
	for _, h := range sectionHeadings {
		for _, kw := range h.keywords {
			if strings.Contains(lower, kw) {
				return h.title, true
			}
		}
	}
	return "", false
}
