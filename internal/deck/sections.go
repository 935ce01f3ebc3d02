package deck

import (
	"regexp"
	"strings"
)

// SectionKind is the topic a heading-delimited section was classified into.
type SectionKind string

const (
	KindTechnology           SectionKind = "technology"
	KindGoToMarket           SectionKind = "go-to-market"
	KindBusinessModel        SectionKind = "business model"
	KindCompetitiveAdvantage SectionKind = "competitive advantage"
	KindTeam                 SectionKind = "team"
)

// Section is the body under one heading.
type Section struct {
	Heading string
	Kind    SectionKind
	Body    string
}

// sectionAliases lists heading phrases per kind. Order matters: the first kind whose alias
// appears in a heading wins.
var sectionAliases = []struct {
	kind    SectionKind
	aliases []string
}{
	{KindGoToMarket, []string{
		"go-to-market", "go to market", "gtm", "marketing", "sales", "distribution",
		"channels", "customer acquisition", "growth strategy", "launch plan",
	}},
	{KindBusinessModel, []string{
		"business model", "revenue model", "monetization", "monetisation", "pricing",
		"unit economics", "how we make money",
	}},
	{KindCompetitiveAdvantage, []string{
		"competitive advantage", "competition", "competitors", "competitive landscape",
		"moat", "differentiation", "why us", "why now", "unique value proposition", "usp",
	}},
	{KindTeam, []string{
		"team", "founders", "founding team", "management", "leadership", "advisors",
	}},
	{KindTechnology, []string{
		"technology", "tech", "tech stack", "product", "solution", "platform",
		"architecture", "how it works", "innovation", "r&d", "ip",
	}},
}

var (
	// slideMarker matches the "--- Slide N ---" lines the extractor emits.
	slideMarker = regexp.MustCompile(`^-{2,}\s*Slide\s+\d+\s*-{2,}\s*`)

	// headingLine matches a short line starting with a capital letter, optionally followed
	// by a colon and inline body text.
	headingLine = regexp.MustCompile(`^([A-Z][A-Za-z0-9&/'’\-]*(?:[ \t]+[A-Za-z0-9&/'’\-]+){0,5})[ \t]*(:[ \t]*(.*))?$`)

	bulletPrefix = regexp.MustCompile(`^(?:[-*•●▪◦‣·–—>]+\s*|\d{1,2}[.)]\s+)`)
)

// Classify returns the section kind of a heading, or "" when no alias matches.
func Classify(heading string) SectionKind {
	h := " " + normalizeHeading(heading) + " "
	for _, group := range sectionAliases {
		for _, alias := range group.aliases {
			if strings.Contains(h, " "+alias+" ") {
				return group.kind
			}
		}
	}
	return ""
}

// isAlias reports whether heading is exactly a known alias, ignoring a leading "our" or
// "the" and a trailing "strategy", "overview" or "plan".
func isAlias(heading string) bool {
	h := normalizeHeading(heading)
	h = strings.TrimPrefix(strings.TrimPrefix(h, "our "), "the ")
	candidates := []string{h}
	for _, suffix := range []string{" strategy", " overview", " plan"} {
		if strings.HasSuffix(h, suffix) {
			candidates = append(candidates, strings.TrimSuffix(h, suffix))
		}
	}
	for _, group := range sectionAliases {
		for _, alias := range group.aliases {
			for _, c := range candidates {
				if c == alias {
					return true
				}
			}
		}
	}
	return false
}

func normalizeHeading(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Trim(h, ":")
	return strings.Join(strings.Fields(h), " ")
}

// SplitSections cuts text into heading-delimited sections. A line is a heading when it
// matches the heading shape and either carries a colon, is the first line of a slide,
// or is exactly a known section name. A label with inline text after its colon only
// counts when it names a known section or opens a slide. A section runs until the next
// heading.
func SplitSections(text string) []Section {
	var (
		sections  []Section
		cur       *Section
		body      []string
		slideHead bool
	)
	flush := func() {
		if cur != nil {
			cur.Body = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *cur)
		}
		cur, body = nil, nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if loc := slideMarker.FindStringIndex(line); loc != nil {
			line = strings.TrimSpace(line[loc[1]:])
			slideHead = true
			if line == "" {
				continue
			}
		}
		if line == "" {
			continue
		}
		first := slideHead
		slideHead = false

		if heading, inline, ok := matchHeading(line, first); ok {
			flush()
			cur = &Section{Heading: strings.ToLower(heading), Kind: Classify(heading)}
			if inline != "" {
				body = append(body, inline)
			}
			continue
		}
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

func matchHeading(line string, firstOnSlide bool) (heading, inline string, ok bool) {
	m := headingLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	heading = strings.TrimSpace(m[1])
	inline = strings.TrimSpace(m[3])
	hasColon := m[2] != ""
	if !hasColon && !firstOnSlide && !isAlias(heading) {
		return "", "", false
	}
	// "Key features: sub-second picking" inside a section is body text, not a new heading.
	if inline != "" && !firstOnSlide && Classify(heading) == "" {
		return "", "", false
	}
	return heading, inline, true
}

// Details splits a section body into one entry per non-empty line with list bullets
// removed.
func Details(body string) []string {
	var out []string
	for _, ln := range strings.Split(body, "\n") {
		ln = strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(ln), ""))
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}
