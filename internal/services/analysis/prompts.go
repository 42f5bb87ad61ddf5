package analysis

import (
	"fmt"
	"strings"

	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/ternarybob/finanalyzer/internal/models"
)

// StageSpec describes one stage: who runs it, what it is asked, and which payload its JSON block decodes into
type StageSpec struct {
	Stage          models.StageName
	Role           Role
	Description    string
	ExpectedOutput string
	JSONShape      string
	NewPayload     func() interface{}
}

// StageInputs carries what a stage may read
type StageInputs struct {
	DocumentPath string
	Text         string
	Query        string
	Context      []*models.StageResult // Prior stage results, in stage order
}

// DocAnalysisSpec builds the document analysis stage
func DocAnalysisSpec(role Role, filePath string) StageSpec {
	return StageSpec{
		Stage: models.StageDocAnalysis,
		Role:  role,
		Description: fmt.Sprintf("Analyze the financial document at '%s'. Extract and analyze:\n"+
			"Document Path: %s\n\n"+
			"1. Key financial statements (Balance Sheet, Income Statement, Cash Flow)\n"+
			"2. Financial ratios and KPIs (e.g., P/E, ROE, Debt/Equity, Current Ratio)\n"+
			"3. Year-over-year and quarter-over-quarter trends\n"+
			"4. Any significant events or anomalies in the financial data\n\n"+
			"Format your analysis using markdown with clear sections and subsections.", filePath, filePath),
		ExpectedOutput: "A comprehensive financial analysis report in markdown format with:\n" +
			"## Financial Overview\n" +
			"- Summary of key financial metrics\n" +
			"- Major changes from previous periods\n\n" +
			"## Detailed Analysis\n" +
			"- Revenue and cost breakdown\n" +
			"- Profitability analysis\n" +
			"- Liquidity and solvency assessment\n\n" +
			"## Key Insights\n" +
			"- Notable trends and patterns\n" +
			"- Areas of concern or opportunity",
		JSONShape:  `{"metrics": {"<metric>": "<value>"}, "trends": ["..."], "insights": ["..."]}`,
		NewPayload: func() interface{} { return &models.FinancialAnalysis{} },
	}
}

// InvestmentAnalysisSpec builds the investment analysis stage
func InvestmentAnalysisSpec(role Role, query string) StageSpec {
	if strings.TrimSpace(query) == "" {
		query = "No specific query provided"
	}
	return StageSpec{
		Stage: models.StageInvestmentAnalysis,
		Role:  role,
		Description: "Based on the financial analysis, provide detailed investment recommendations.\n" +
			"User Query: " + query + "\n\n" +
			"Consider the following in your analysis:\n" +
			"1. Company's financial health and stability\n" +
			"2. Industry position and competitive advantages\n" +
			"3. Market conditions and economic outlook\n" +
			"4. Valuation metrics compared to peers\n\n" +
			"Provide a clear recommendation with supporting rationale.",
		ExpectedOutput: "## Investment Recommendation\n" +
			"### Recommendation: [Buy/Hold/Sell]\n" +
			"- **Confidence Level**: [High/Medium/Low]\n" +
			"- **Time Horizon**: [Short/Medium/Long]-term\n\n" +
			"### Key Factors\n" +
			"1. [Factor 1]\n" +
			"2. [Factor 2]\n" +
			"3. [Factor 3]\n\n" +
			"### Potential Risks\n" +
			"- [Risk 1]\n" +
			"- [Risk 2]\n" +
			"- [Risk 3]\n\n" +
			"### Supporting Analysis\n" +
			"[Detailed analysis supporting the recommendation]",
		JSONShape:  `{"recommendation": "Buy|Hold|Sell", "confidence": 0.0, "time_horizon": "...", "key_factors": ["..."], "risks": ["..."]}`,
		NewPayload: func() interface{} { return &models.InvestmentRecommendation{} },
	}
}

// RiskAssessmentSpec builds the risk assessment stage
func RiskAssessmentSpec(role Role) StageSpec {
	return StageSpec{
		Stage: models.StageRiskAssessment,
		Role:  role,
		Description: "Conduct a comprehensive risk assessment considering:\n" +
			"1. **Financial Risks**: Liquidity, credit, market, and operational risks\n" +
			"2. **Business Risks**: Competitive position, management, and strategy\n" +
			"3. **External Risks**: Regulatory, economic, and geopolitical factors\n\n" +
			"For each identified risk, provide:\n" +
			"- Likelihood and potential impact\n" +
			"- Mitigation strategies\n" +
			"- Monitoring recommendations",
		ExpectedOutput: "## Risk Assessment Report\n\n" +
			"### Risk Matrix\n" +
			"| Risk Category | Risk Description | Likelihood | Impact | Mitigation |\n" +
			"|---------------|------------------|------------|--------|-------------|\n" +
			"| [Category]    | [Description]    | [High/Med/Low] | [High/Med/Low] | [Mitigation] |\n\n" +
			"### Top Risks\n" +
			"1. **[Risk 1]**\n" +
			"   - **Impact**: [Description]\n" +
			"   - **Mitigation**: [Strategies]\n\n" +
			"2. **[Risk 2]**\n" +
			"   - **Impact**: [Description]\n" +
			"   - **Mitigation**: [Strategies]\n\n" +
			"### Risk Monitoring Plan\n" +
			"- [Monitoring action 1]\n" +
			"- [Monitoring action 2]",
		JSONShape:  `{"risk_factors": {"<risk>": "<severity>"}, "impact": "...", "mitigation": ["..."], "monitoring": ["..."]}`,
		NewPayload: func() interface{} { return &models.RiskAssessment{} },
	}
}

// ExecutiveSummarySpec builds the executive summary stage
func ExecutiveSummarySpec(role Role) StageSpec {
	return StageSpec{
		Stage: models.StageExecutiveSummary,
		Role:  role,
		Description: "Create an executive summary combining the financial analysis, " +
			"investment recommendations, and risk assessment. The summary should be " +
			"concise yet comprehensive, highlighting key findings, recommendations, " +
			"and risks for executive decision-making.",
		ExpectedOutput: "A well-structured executive summary in markdown format with sections for " +
			"key findings, recommendations, risks, and next steps.",
		JSONShape:  `{"overview": "...", "recommendations": ["..."], "risks": ["..."], "next_steps": ["..."]}`,
		NewPayload: func() interface{} { return &models.ExecutiveSummary{} },
	}
}

// buildPrompt renders the opening user message of a stage
func buildPrompt(spec StageSpec, inputs StageInputs, tool interfaces.Tool) string {
	var b strings.Builder

	b.WriteString(spec.Description)
	b.WriteString("\n\n")

	if len(inputs.Context) > 0 {
		b.WriteString("Context from previous analysis:\n\n")
		for _, prior := range inputs.Context {
			if prior == nil {
				continue
			}
			fmt.Fprintf(&b, "### %s (%s)\n%s\n\n", prior.Stage.Title(), prior.Role, prior.Narrative)
		}
	}

	if tool != nil {
		fmt.Fprintf(&b, "You have access to one tool.\n%s: %s\n", tool.Name(), tool.Description())
		fmt.Fprintf(&b, "To use it, reply with exactly one line `Action: %s` and nothing else. "+
			"The tool result will be sent back to you starting with `Observation:`.\n\n", tool.Name())
	}

	b.WriteString("Expected output:\n")
	b.WriteString(spec.ExpectedOutput)
	b.WriteString("\n\n")

	b.WriteString("When you give your final answer, write it in markdown and finish with a fenced ```json block of the form:\n")
	b.WriteString(spec.JSONShape)
	b.WriteString("\n")

	return b.String()
}

// observation renders a tool result as the next user turn
func observation(output string) string {
	return "Observation:\n" + output
}
