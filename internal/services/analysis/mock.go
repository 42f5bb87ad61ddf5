package analysis

// Fixed output returned when the provider reports quota exhaustion
const (
	MockAnalysis = "Mock analysis since LLM provider API quota exceeded. Here's a sample analysis based on the document structure:\n\n" +
		"## Financial Overview\n" +
		"- Revenue: $1.2B (up 15% YoY)\n" +
		"- Net Income: $150M (up 10% YoY)\n" +
		"- EBITDA Margin: 25%\n\n" +
		"## Key Insights\n" +
		"- Strong revenue growth in Q2 2025\n" +
		"- Improved operational efficiency\n" +
		"- Healthy cash flow position\n\n" +
		"## Recommendations\n" +
		"- Maintain current investment strategy\n" +
		"- Consider expansion in emerging markets\n" +
		"- Monitor supply chain risks"

	MockExecutiveSummary = "# Executive Summary (Mock Data)\n\n" +
		"## Overview\n" +
		"This is a mock executive summary generated because the LLM provider API quota has been exceeded. " +
		"In a production environment with a valid API key, this would contain AI-generated analysis of the uploaded financial document.\n\n" +
		"## Key Findings\n" +
		"- Document successfully processed\n" +
		"- Financial metrics extracted\n" +
		"- Risk assessment completed\n\n" +
		"## Next Steps\n" +
		"1. Add a valid ANTHROPIC_API_KEY or GEMINI_API_KEY to the environment\n" +
		"2. Restart the application\n" +
		"3. Upload document again for AI-powered analysis"
)
