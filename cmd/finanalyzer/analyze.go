package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ternarybob/finanalyzer/internal/app"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a local PDF or DOCX document",
	Long:  `Runs the analysis pipeline over a local document and prints the result as JSON. The source file is left untouched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var (
	analyzeQuery string
	analyzePDF   string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeQuery, "query", "q", "", "Question to focus the investment analysis on")
	analyzeCmd.Flags().StringVar(&analyzePDF, "pdf", "", "Also render the result as a PDF report at this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	doc, err := documents.DocumentFromPath(args[0])
	if err != nil {
		return err
	}

	application, err := app.New(cmd.Context(), config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	run, err := application.Pipeline.Run(cmd.Context(), doc, analyzeQuery)
	if err != nil {
		application.Assembler.Cleanup(run)
		return err
	}

	response, err := application.Assembler.Assemble(run, filepath.Base(doc.Path))
	if err != nil {
		return err
	}

	if analyzePDF != "" {
		data, err := application.Renderer.RenderResponse(response)
		if err != nil {
			return fmt.Errorf("failed to render PDF report: %w", err)
		}
		if err := os.WriteFile(analyzePDF, data, 0644); err != nil {
			return fmt.Errorf("failed to write PDF report: %w", err)
		}
		logger.Info().Str("path", analyzePDF).Msg("PDF report written")
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}
