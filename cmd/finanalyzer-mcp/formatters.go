package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/heuristics"
)

// formatMetrics lists found metrics in report order
func formatMetrics(metrics map[string]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Financial Metrics (%d found)\n\n", len(metrics)))

	if len(metrics) == 0 {
		sb.WriteString("No specific financial metrics found in the document.\n")
		return sb.String()
	}

	for _, name := range heuristics.MetricNames() {
		if value, ok := metrics[name]; ok {
			sb.WriteString(fmt.Sprintf("- **%s:** %s\n", name, value))
		}
	}
	return sb.String()
}

// formatOpportunities lists opportunity labels, one per line
func formatOpportunities(opportunities []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Investment Opportunities (%d found)\n\n", len(opportunities)))

	if len(opportunities) == 0 {
		sb.WriteString("No specific investment opportunities identified.\n")
		return sb.String()
	}

	for _, opp := range opportunities {
		sb.WriteString("- " + opp + "\n")
	}
	return sb.String()
}

// formatRiskScore appends the numeric score behind the risk level
func formatRiskScore(profile models.RiskProfile) string {
	return fmt.Sprintf("**Risk Score:** %.1f (%d financial, %d operational, %d market)",
		profile.Score, len(profile.Financial), len(profile.Operational), len(profile.Market))
}

// formatAnalysis renders a pipeline response as markdown
func formatAnalysis(resp *models.AnalysisResponse) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Financial Document Analysis: %s\n\n", resp.FileProcessed))
	sb.WriteString(resp.ExecutiveSummary)
	sb.WriteString("\n\n---\n\n")
	sb.WriteString(resp.Analysis)
	sb.WriteString("\n")
	return sb.String()
}
