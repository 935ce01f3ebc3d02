package deck

import (
	"regexp"
	"strings"
)

// Rule extracts one field from deck text. ok is false when nothing matched.
type Rule func(text string) (value string, ok bool)

const (
	num  = `\d[\d,]*(?:\.\d+)?`
	unit = `(?:k|m|mm|b|bn|thousand|million|billion|trillion)`
	cur  = `(?:usd|eur|gbp|dollars)`
)

// money matches an amount such as "$2.5M", "€300k", "1.2 billion" or "500,000 USD". A bare
// number without a currency or unit is not an amount.
const money = `(?:[$€£]\s?` + num + `(?:\s?` + unit + `)?(?:\s?` + cur + `)?` +
	`|` + num + `\s?` + unit + `(?:\s?` + cur + `)?` +
	`|` + num + `\s?` + cur + `)\b`

// count matches a head count such as "1,200", "10k+" or "3 million".
const count = `\d[\d,]*(?:\.\d+)?(?:\s?(?:k|m|thousand|million))?\+?`

var (
	fundingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:seeking|raising|to raise|looking for|asking for|investment of|funding (?:ask|requirement|round|need)(?: of)?|(?:the )?ask(?: is)?)[\s:\-]+(?:an?\s+|up to\s+)?(` + money + `)`),
		regexp.MustCompile(`(?i)(` + money + `)\s+(?:seed|series [a-d]|pre-seed|bridge)?\s*(?:round|raise|funding)\b`),
	}
	marketSizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:market size(?: of| is)?|market (?:worth|valued at|opportunity of)|total addressable market(?: of| is)?|tam(?: of| is)?|sam(?: of| is)?|som(?: of| is)?)[\s:\-]+(?:an?\s+|approximately\s+|over\s+)?(` + money + `)`),
		regexp.MustCompile(`(?i)(` + money + `)\s+(?:global\s+|total\s+|addressable\s+)?(?:market|tam)\b`),
	}
	revenuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:revenue(?: projections?| forecast| target| run[- ]rate)?|projected revenue|arr|mrr|annual recurring revenue|sales)(?: of| is| will reach| reaching)?[\s:\-]+(?:an?\s+|approximately\s+|over\s+)?(` + money + `(?:\s+(?:by|in)\s+(?:19|20)\d{2})?)`),
		regexp.MustCompile(`(?i)(` + money + `)\s+(?:in\s+)?(?:arr|mrr|revenue|in sales)\b`),
	}
	customerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(` + count + `)\s+(?:paying\s+|active\s+|enterprise\s+|pilot\s+|monthly\s+active\s+|registered\s+)?(?:customers|clients|users|subscribers|businesses|merchants)\b`),
		regexp.MustCompile(`(?i)\b(?:customers|clients|users|subscribers|customer base(?: of)?)[\s:\-]+(?:over\s+|more than\s+)?(` + count + `)`),
	}
	teamSizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:team of|team size(?: of| is)?)[\s:\-]*(\d+)\b`),
		regexp.MustCompile(`(?i)\b(\d+)\s+(?:full[- ]time\s+)?(?:employees|team members|engineers|people|founders|staff|ftes?)\b`),
	}
)

type fieldRule struct {
	name string
	rule Rule
}

// fieldRules is the ordered list of field extractors applied by Parse.
var fieldRules = []fieldRule{
	{"fundingRequirement", RegexRule(fundingPatterns...)},
	{"marketSize", RegexRule(marketSizePatterns...)},
	{"revenueProjections", RegexRule(revenuePatterns...)},
	{"customerBase", RegexRule(customerPatterns...)},
	{"teamSize", RegexRule(teamSizePatterns...)},
}

// RegexRule returns a Rule that collects the first capture group of every match of
// every pattern, drops case-insensitive duplicates and joins the rest with "; ".
func RegexRule(patterns ...*regexp.Regexp) Rule {
	return func(text string) (string, bool) {
		var out []string
		seen := map[string]bool{}
		for _, re := range patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if len(m) < 2 {
					continue
				}
				v := strings.Join(strings.Fields(m[1]), " ")
				key := strings.ToLower(v)
				if v == "" || seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			return "", false
		}
		return strings.Join(out, "; "), true
	}
}

// ExtractFields applies every field rule to text. Fields with no match are absent.
func ExtractFields(text string) map[string]string {
	out := make(map[string]string, len(fieldRules))
	for _, fr := range fieldRules {
		if v, ok := fr.rule(text); ok {
			out[fr.name] = v
		}
	}
	return out
}
