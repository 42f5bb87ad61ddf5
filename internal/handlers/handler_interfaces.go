package handlers

import (
	"context"

	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/analysis"
)

// DocumentAnalyzer runs the analysis pipeline for one stored document.
type DocumentAnalyzer interface {
	Run(ctx context.Context, doc models.Document, query string) (*analysis.PipelineRun, error)
}

// ResultAssembler builds the response for a run and disposes of its artifacts.
type ResultAssembler interface {
	Assemble(run *analysis.PipelineRun, fileName string) (*models.AnalysisResponse, error)
	Cleanup(run *analysis.PipelineRun)
}
