package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/app"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
	"github.com/ternarybob/finanalyzer/internal/services/heuristics"
)

// lazyAnalyzer builds the application on first use so the heuristic tools
// work without LLM credentials. A failed build is retried on the next call.
type lazyAnalyzer struct {
	config *common.Config
	logger arbor.ILogger
	build  func(ctx context.Context, config *common.Config, logger arbor.ILogger) (*app.App, error)

	mu  sync.Mutex
	app *app.App
}

func newLazyAnalyzer(config *common.Config, logger arbor.ILogger) *lazyAnalyzer {
	return &lazyAnalyzer{config: config, logger: logger, build: app.New}
}

// get builds with a background context; a cancelled tool call must not poison later calls
func (l *lazyAnalyzer) get() (*app.App, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.app != nil {
		return l.app, nil
	}

	a, err := l.build(context.Background(), l.config, l.logger)
	if err != nil {
		l.logger.Warn().Err(err).Msg("Failed to initialize analyzer")
		return nil, err
	}
	l.app = a
	return a, nil
}

func (l *lazyAnalyzer) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.app != nil {
		l.app.Close()
		l.app = nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// documentText returns the "text" argument, or the extracted text of "path"
func documentText(ctx context.Context, request mcp.CallToolRequest, extractor interfaces.DocumentExtractor) (string, error) {
	if text := request.GetString("text", ""); strings.TrimSpace(text) != "" {
		return text, nil
	}

	path := request.GetString("path", "")
	if path == "" {
		return "", fmt.Errorf("either text or path is required")
	}

	doc, err := documents.DocumentFromPath(path)
	if err != nil {
		return "", err
	}
	if err := extractor.Validate(doc); err != nil {
		return "", err
	}
	return extractor.Extract(ctx, doc)
}

// handleReadDocument implements the read_document tool
func handleReadDocument(extractor interfaces.DocumentExtractor, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return textResult("Error: path parameter is required"), nil
		}

		output, err := documents.NewReaderTool(extractor).Run(ctx, path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Document read failed")
			return textResult(fmt.Sprintf("Error reading document: %v", err)), nil
		}
		return textResult(output), nil
	}
}

// handleExtractMetrics implements the extract_metrics tool
func handleExtractMetrics(extractor interfaces.DocumentExtractor, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := documentText(ctx, request, extractor)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(formatMetrics(heuristics.ExtractMetrics(text))), nil
	}
}

// handleInvestmentReport implements the investment_report tool
func handleInvestmentReport(extractor interfaces.DocumentExtractor, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := documentText(ctx, request, extractor)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		output, err := heuristics.InvestmentTool{}.Run(ctx, text)
		if err != nil {
			logger.Error().Err(err).Msg("Investment report failed")
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(output), nil
	}
}

// handleAssessRisk implements the assess_risk tool
func handleAssessRisk(extractor interfaces.DocumentExtractor, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := documentText(ctx, request, extractor)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		output, err := heuristics.RiskTool{}.Run(ctx, text)
		if err != nil {
			logger.Error().Err(err).Msg("Risk report failed")
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(output + "\n\n" + formatRiskScore(heuristics.AssessRisk(text))), nil
	}
}

// handleIdentifyOpportunities implements the identify_opportunities tool
func handleIdentifyOpportunities(extractor interfaces.DocumentExtractor, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := documentText(ctx, request, extractor)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}
		return textResult(formatOpportunities(heuristics.ExtractOpportunities(text))), nil
	}
}

// handleAnalyzeDocument implements the analyze_document tool
func handleAnalyzeDocument(analyzer *lazyAnalyzer, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return textResult("Error: path parameter is required"), nil
		}
		query := request.GetString("query", "")

		application, err := analyzer.get()
		if err != nil {
			return textResult(fmt.Sprintf("Error: analysis unavailable: %v", err)), nil
		}

		doc, err := documents.DocumentFromPath(path)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		run, err := application.Pipeline.Run(ctx, doc, query)
		if err != nil {
			application.Assembler.Cleanup(run)
			logger.Error().Err(err).Str("path", path).Msg("Analysis failed")
			return textResult(fmt.Sprintf("Error processing financial document: %v", err)), nil
		}

		response, err := application.Assembler.Assemble(run, filepath.Base(path))
		if err != nil {
			return textResult(fmt.Sprintf("Error processing financial document: %v", err)), nil
		}
		return textResult(formatAnalysis(response)), nil
	}
}
