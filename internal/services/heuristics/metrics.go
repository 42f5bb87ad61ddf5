// -----------------------------------------------------------------------
// Heuristic extraction - regex/keyword scans over extracted document text
// -----------------------------------------------------------------------

package heuristics

import (
	"regexp"
	"strings"
)

type metricPattern struct {
	name    string
	pattern *regexp.Regexp
}

// metricPatterns are matched case-insensitively; only the first match per metric is kept
var metricPatterns = []metricPattern{
	{"Revenue", regexp.MustCompile(`(?i)(?:revenue|sales)[\s:]*[\$\d.\s]+(?:million|billion|M|B)?`)},
	{"Net Income", regexp.MustCompile(`(?i)net income[\s:]*[\$\d.\s-]+(?:million|billion|M|B)?`)},
	{"EBITDA", regexp.MustCompile(`(?i)EBITDA[\s:]*[\$\d.\s-]+(?:million|billion|M|B)?`)},
	{"EPS", regexp.MustCompile(`(?i)EPS[\s:]*[\$\d.\s-]+`)},
	{"P/E Ratio", regexp.MustCompile(`(?i)P[/\s]?E[\s:]*[\d.]+`)},
	{"Dividend Yield", regexp.MustCompile(`(?i)dividend yield[\s:]*[\d.]+%?`)},
	{"ROE", regexp.MustCompile(`(?i)return on equity[\s:]*[\d.]+%?`)},
	{"Debt-to-Equity", regexp.MustCompile(`(?i)debt[\s-]to[\s-]equity[\s:]*[\d.]+`)},
}

// MetricNames lists every metric ExtractMetrics can report, in report order
func MetricNames() []string {
	names := make([]string, len(metricPatterns))
	for i, mp := range metricPatterns {
		names[i] = mp.name
	}
	return names
}

// ExtractMetrics returns metric name -> first matched snippet.
// Metrics with no match are omitted.
func ExtractMetrics(text string) map[string]string {
	metrics := make(map[string]string)
	for _, mp := range metricPatterns {
		if match := mp.pattern.FindString(text); match != "" {
			metrics[mp.name] = strings.TrimSpace(match)
		}
	}
	return metrics
}
