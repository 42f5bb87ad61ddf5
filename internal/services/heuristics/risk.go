package heuristics

import (
	"github.com/ternarybob/finanalyzer/internal/models"
)

// Risk fragments accept whitespace or a hyphen between words
var financialRiskIndicators = []keywordLabel{
	{wholeWord(`debt[\s-]to[\s-]equity`), "High debt-to-equity ratio"},
	{wholeWord(`interest[\s-]coverage`), "Low interest coverage ratio"},
	{wholeWord(`liquidity[\s-]crisis`), "Potential liquidity crisis"},
	{wholeWord(`going[\s-]concern`), "Going concern issues"},
	{wholeWord(`default`), "Risk of default on obligations"},
	{wholeWord(`credit[\s-]rating[\s-]downgrade`), "Credit rating downgrade risk"},
}

var operationalRiskIndicators = []keywordLabel{
	{wholeWord(`cyber[\s-]security`), "Cybersecurity vulnerabilities"},
	{wholeWord(`data[\s-]breach`), "Data breach risks"},
	{wholeWord(`supply[\s-]chain`), "Supply chain disruptions"},
	{wholeWord(`regulatory[\s-]compliance`), "Regulatory compliance issues"},
	{wholeWord(`key[\s-]person[\s-]risk`), "Key person risk"},
	{wholeWord(`operational[\s-]disruption`), "Operational disruption risks"},
}

var marketRiskIndicators = []keywordLabel{
	{wholeWord(`market[\s-]volatility`), "Market volatility"},
	{wholeWord(`economic[\s-]downturn`), "Economic downturn risks"},
	{wholeWord(`competition`), "Increased competition"},
	{wholeWord(`commodity[\s-]prices`), "Commodity price fluctuations"},
	{wholeWord(`foreign[\s-]exchange`), "Foreign exchange risk"},
	{wholeWord(`interest[\s-]rate`), "Interest rate risk"},
}

// Financial indicators weigh more than operational and market ones
const (
	financialRiskWeight   = 1.5
	operationalRiskWeight = 1.0
	marketRiskWeight      = 1.0
)

const (
	summaryNoRisk         = "No significant risks identified in the document."
	summaryLowToModerate  = "Some risks identified but appear manageable with proper controls."
	summaryModerateToHigh = "Several risks identified that warrant careful consideration and monitoring."
	summaryHigh           = "Significant risks identified across multiple categories that could materially impact the company's performance."
)

// findRisks returns the labels of matching indicators in table order
func findRisks(text string, indicators []keywordLabel) []string {
	risks := make([]string, 0)
	for _, kl := range indicators {
		if kl.pattern.MatchString(text) {
			risks = append(risks, kl.label)
		}
	}
	return risks
}

// RiskScore weighs category counts into a single score
func RiskScore(financial, operational, market int) float64 {
	return financialRiskWeight*float64(financial) +
		operationalRiskWeight*float64(operational) +
		marketRiskWeight*float64(market)
}

// ClassifyRisk maps a score to its band and fixed summary
func ClassifyRisk(score float64) (models.RiskLevel, string) {
	switch {
	case score >= 5:
		return models.RiskLevelHigh, summaryHigh
	case score >= 3:
		return models.RiskLevelModerateToHigh, summaryModerateToHigh
	case score >= 1:
		return models.RiskLevelLowToModerate, summaryLowToModerate
	default:
		return models.RiskLevelLow, summaryNoRisk
	}
}

// AssessRisk scans the text against the three risk tables and scores the result.
// Deterministic: identical text always yields an identical profile.
func AssessRisk(text string) models.RiskProfile {
	profile := models.RiskProfile{
		Financial:   findRisks(text, financialRiskIndicators),
		Operational: findRisks(text, operationalRiskIndicators),
		Market:      findRisks(text, marketRiskIndicators),
	}
	profile.Score = RiskScore(len(profile.Financial), len(profile.Operational), len(profile.Market))
	profile.Level, profile.Summary = ClassifyRisk(profile.Score)
	return profile
}
