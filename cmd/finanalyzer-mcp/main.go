package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
)

func main() {
	configPath := os.Getenv("FINANALYZER_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("finanalyzer.toml"); err == nil {
			configPath = "finanalyzer.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	extractor := documents.NewExtractor(config.Documents.MaxSizeBytes, logger)
	analyzer := newLazyAnalyzer(config, logger)
	defer analyzer.Close()

	mcpServer := server.NewMCPServer(
		"finanalyzer",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Heuristic tools (no LLM provider required)
	mcpServer.AddTool(createReadDocumentTool(), handleReadDocument(extractor, logger))
	mcpServer.AddTool(createExtractMetricsTool(), handleExtractMetrics(extractor, logger))
	mcpServer.AddTool(createInvestmentReportTool(), handleInvestmentReport(extractor, logger))
	mcpServer.AddTool(createIdentifyOpportunitiesTool(), handleIdentifyOpportunities(extractor, logger))
	mcpServer.AddTool(createAssessRiskTool(), handleAssessRisk(extractor, logger))

	// Full pipeline
	mcpServer.AddTool(createAnalyzeDocumentTool(), handleAnalyzeDocument(analyzer, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
