package heuristics

import (
	"fmt"
	"strings"
)

const (
	NoTextForAnalysis       = "No text content provided for analysis."
	NoTextForRiskAssessment = "No text content provided for risk assessment."
)

// InvestmentReport renders metrics and opportunities as the investment tool's markdown output
func InvestmentReport(text string) string {
	if strings.TrimSpace(text) == "" {
		return NoTextForAnalysis
	}

	metrics := ExtractMetrics(text)
	opportunities := ExtractOpportunities(text)

	var b strings.Builder
	b.WriteString("# Investment Analysis Report\n\n")
	b.WriteString("## Key Financial Metrics\n")
	if len(metrics) == 0 {
		b.WriteString("No specific financial metrics found in the document.\n")
	}
	for _, name := range MetricNames() {
		if value, ok := metrics[name]; ok {
			fmt.Fprintf(&b, "- %s: %s\n", name, value)
		}
	}

	b.WriteString("\n## Investment Opportunities\n")
	if len(opportunities) == 0 {
		b.WriteString("No specific investment opportunities identified.\n")
	}
	for _, opp := range opportunities {
		fmt.Fprintf(&b, "- %s\n", opp)
	}

	return strings.TrimRight(b.String(), "\n")
}

// RiskReport renders a risk profile as the risk tool's markdown output
func RiskReport(text string) string {
	if strings.TrimSpace(text) == "" {
		return NoTextForRiskAssessment
	}

	profile := AssessRisk(text)

	var b strings.Builder
	b.WriteString("# Risk Assessment Report\n\n")
	writeRiskSection(&b, "Financial Risks", profile.Financial, "No significant financial risks identified.")
	writeRiskSection(&b, "Operational Risks", profile.Operational, "No significant operational risks identified.")
	writeRiskSection(&b, "Market Risks", profile.Market, "No significant market risks identified.")

	b.WriteString("## Overall Risk Assessment\n")
	fmt.Fprintf(&b, "**Risk Level:** %s\n", profile.Level)
	fmt.Fprintf(&b, "**Summary:** %s", profile.Summary)

	return b.String()
}

func writeRiskSection(b *strings.Builder, title string, risks []string, none string) {
	fmt.Fprintf(b, "## %s\n", title)
	if len(risks) == 0 {
		b.WriteString(none + "\n")
	}
	for _, risk := range risks {
		fmt.Fprintf(b, "- %s\n", risk)
	}
	b.WriteString("\n")
}
