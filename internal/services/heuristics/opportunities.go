package heuristics

import (
	"regexp"
)

type keywordLabel struct {
	pattern *regexp.Regexp
	label   string
}

// wholeWord compiles a case-insensitive whole-word matcher for a regex fragment
func wholeWord(fragment string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + fragment + `\b`)
}

func literal(keyword, label string) keywordLabel {
	return keywordLabel{pattern: wholeWord(regexp.QuoteMeta(keyword)), label: label}
}

var growthIndicators = []keywordLabel{
	literal("growth", "Potential growth opportunity"),
	literal("expansion", "Company is expanding operations"),
	literal("market share", "Growing market share"),
	literal("new product", "New product launch"),
	literal("acquisition", "Recent or planned acquisitions"),
	literal("innovation", "Innovation in products/services"),
	literal("partnership", "Strategic partnerships formed"),
}

var strengthIndicators = []keywordLabel{
	literal("profit margin", "Healthy profit margins"),
	literal("cash flow", "Strong cash flow generation"),
	literal("dividend", "Consistent dividend payments"),
	literal("low debt", "Low debt levels"),
	literal("efficiency", "Operational efficiency improvements"),
}

// OpportunityLabels returns the full label vocabulary of ExtractOpportunities
func OpportunityLabels() []string {
	labels := make([]string, 0, len(growthIndicators)+len(strengthIndicators))
	for _, table := range [][]keywordLabel{growthIndicators, strengthIndicators} {
		for _, kl := range table {
			labels = append(labels, kl.label)
		}
	}
	return labels
}

// ExtractOpportunities returns the deduplicated growth and financial-strength labels
// activated by the text. Order carries no meaning.
func ExtractOpportunities(text string) []string {
	seen := make(map[string]bool)
	labels := make([]string, 0)
	for _, table := range [][]keywordLabel{growthIndicators, strengthIndicators} {
		for _, kl := range table {
			if seen[kl.label] || !kl.pattern.MatchString(text) {
				continue
			}
			seen[kl.label] = true
			labels = append(labels, kl.label)
		}
	}
	return labels
}
