package analysis

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/models"
)

// Assembler turns a finished run into the API response
type Assembler struct {
	logger arbor.ILogger
}

// NewAssembler creates an assembler
func NewAssembler(logger arbor.ILogger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble builds the response for a completed run and deletes the run's artifact.
// The artifact is read at most once.
func (a *Assembler) Assemble(run *PipelineRun, fileName string) (*models.AnalysisResponse, error) {
	defer a.Cleanup(run)

	if run == nil {
		return nil, fmt.Errorf("nil pipeline run")
	}

	if run.Mocked {
		return &models.AnalysisResponse{
			Status:           models.StatusSuccess,
			Analysis:         MockAnalysis,
			ExecutiveSummary: MockExecutiveSummary,
			FileProcessed:    fileName,
		}, nil
	}

	summary, err := a.readArtifact(run)
	if err != nil {
		return nil, err
	}

	return &models.AnalysisResponse{
		Status:           models.StatusSuccess,
		Analysis:         CombinedAnalysis(run.Context),
		ExecutiveSummary: summary,
		FileProcessed:    fileName,
	}, nil
}

// Cleanup removes the run's artifact if it exists. Safe to call more than once.
func (a *Assembler) Cleanup(run *PipelineRun) {
	if run == nil || run.ArtifactPath == "" {
		return
	}
	if err := os.Remove(run.ArtifactPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn().
			Str("run_id", run.ID).
			Str("path", run.ArtifactPath).
			Err(err).
			Msg("Failed to remove executive summary artifact")
	}
}

func (a *Assembler) readArtifact(run *PipelineRun) (string, error) {
	if run.ArtifactPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(run.ArtifactPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read executive summary artifact: %w", err)
	}
	return string(data), nil
}

// CombinedAnalysis joins the three analyst narratives under stage headings
func CombinedAnalysis(analysisContext *AnalysisContext) string {
	if analysisContext == nil {
		return ""
	}

	results := analysisContext.Collect(
		models.StageDocAnalysis,
		models.StageInvestmentAnalysis,
		models.StageRiskAssessment,
	)

	parts := make([]string, 0, len(results))
	for _, result := range results {
		parts = append(parts, "# "+result.Stage.Title()+"\n\n"+result.Narrative)
	}
	return strings.Join(parts, "\n\n")
}
