package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func withDocumentInput(description string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("text",
			mcp.Description("Document text to analyze"),
		),
		mcp.WithString("path",
			mcp.Description("Local PDF or DOCX path; used when text is not given"),
		),
	}
}

// createReadDocumentTool returns the read_document tool definition
func createReadDocumentTool() mcp.Tool {
	return mcp.NewTool("read_document",
		mcp.WithDescription("Extract the plain text of a local PDF or DOCX financial document"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a .pdf or .docx file"),
		),
	)
}

// createExtractMetricsTool returns the extract_metrics tool definition
func createExtractMetricsTool() mcp.Tool {
	return mcp.NewTool("extract_metrics",
		withDocumentInput("Find revenue, profit, margin, EPS, ROE and similar figures mentioned in a document")...,
	)
}

// createInvestmentReportTool returns the investment_report tool definition
func createInvestmentReportTool() mcp.Tool {
	return mcp.NewTool("investment_report",
		withDocumentInput("Key financial metrics and investment opportunities found in a document")...,
	)
}

// createAssessRiskTool returns the assess_risk tool definition
func createAssessRiskTool() mcp.Tool {
	return mcp.NewTool("assess_risk",
		withDocumentInput("Financial, operational and market risks in a document with an overall risk level")...,
	)
}

// createIdentifyOpportunitiesTool returns the identify_opportunities tool definition
func createIdentifyOpportunitiesTool() mcp.Tool {
	return mcp.NewTool("identify_opportunities",
		withDocumentInput("Growth and financial-strength signals mentioned in a document")...,
	)
}

// createAnalyzeDocumentTool returns the analyze_document tool definition
func createAnalyzeDocumentTool() mcp.Tool {
	return mcp.NewTool("analyze_document",
		mcp.WithDescription("Run the full four-stage LLM analysis over a local PDF or DOCX document"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to a .pdf or .docx file"),
		),
		mcp.WithString("query",
			mcp.Description("Question to focus the investment analysis on"),
		),
	)
}
