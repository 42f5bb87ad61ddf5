package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/llm"
	"golang.org/x/sync/errgroup"
)

// PipelineRun is the state of one request's pass through the pipeline.
// Nothing in it is shared with other runs.
type PipelineRun struct {
	ID           string
	Document     models.Document
	Query        string
	Context      *AnalysisContext
	ArtifactPath string // Executive summary artifact; empty until stage four writes it
	Mocked       bool   // True when a quota signal replaced the output with the fixed mock
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Pipeline runs the four fixed stages:
// doc analysis, then investment analysis and risk assessment concurrently, then the executive summary.
type Pipeline struct {
	executor  *Executor
	extractor interfaces.DocumentExtractor
	reader    interfaces.Tool
	roles     Roles
	dataDir   string
	query     string // used when a run is given a blank query
	logger    arbor.ILogger
}

// NewPipeline creates a pipeline.
// reader is the (possibly cached) financial_document_reader tool, used to extract text before stage one.
// defaultQuery replaces blank queries; empty means common.DefaultQuery.
func NewPipeline(
	executor *Executor,
	extractor interfaces.DocumentExtractor,
	reader interfaces.Tool,
	roles Roles,
	dataDir string,
	defaultQuery string,
	logger arbor.ILogger,
) *Pipeline {
	return &Pipeline{
		executor:  executor,
		extractor: extractor,
		reader:    reader,
		roles:     roles,
		dataDir:   dataDir,
		query:     common.ResolveQuery(defaultQuery, ""),
		logger:    logger,
	}
}

// Run executes the pipeline for one document.
//
// The returned run is non-nil even on error so the caller can clean up its artifact.
// Document validation and extraction errors are returned as-is. A quota signal from any stage
// aborts the remaining stages and yields a run with Mocked set and a nil error. Any other stage
// failure is a *PipelineError.
func (p *Pipeline) Run(ctx context.Context, doc models.Document, query string) (*PipelineRun, error) {
	query = common.ResolveQuery(query, p.query)

	run := &PipelineRun{
		ID:        common.NewRunID(),
		Document:  doc,
		Query:     query,
		Context:   NewAnalysisContext(),
		StartedAt: time.Now(),
	}

	p.logger.Info().
		Str("run_id", run.ID).
		Str("document", doc.Path).
		Str("format", string(doc.Format)).
		Msg("Pipeline run started")

	if err := p.extractor.Validate(doc); err != nil {
		return run, err
	}

	text, err := p.reader.Run(ctx, doc.Path)
	if err != nil {
		return run, err
	}

	inputs := StageInputs{
		DocumentPath: doc.Path,
		Text:         text,
		Query:        query,
	}

	// Stage 1
	if err := p.runStage(ctx, run, DocAnalysisSpec(p.roles.FinancialAnalyst, doc.Path), inputs); err != nil {
		return p.finish(run, err)
	}

	// Stages 2 and 3 read stage 1 only and run concurrently
	docContext := run.Context.Collect(models.StageDocAnalysis)
	investInputs := inputs
	investInputs.Context = docContext
	riskInputs := inputs
	riskInputs.Context = docContext

	var investErr, riskErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() { investErr = err }()
		defer common.RecoverAsError(p.logger, string(models.StageInvestmentAnalysis), &err)
		return p.runStage(gctx, run, InvestmentAnalysisSpec(p.roles.InvestmentAdvisor, query), investInputs)
	})
	g.Go(func() (err error) {
		defer func() { riskErr = err }()
		defer common.RecoverAsError(p.logger, string(models.StageRiskAssessment), &err)
		return p.runStage(gctx, run, RiskAssessmentSpec(p.roles.RiskAssessor), riskInputs)
	})
	firstErr := g.Wait()

	switch {
	case errors.Is(investErr, llm.ErrQuotaExceeded):
		return p.finish(run, investErr)
	case errors.Is(riskErr, llm.ErrQuotaExceeded):
		return p.finish(run, riskErr)
	case firstErr != nil:
		return p.finish(run, firstErr)
	}

	// Stage 4
	summaryInputs := inputs
	summaryInputs.Context = run.Context.Collect(
		models.StageDocAnalysis,
		models.StageInvestmentAnalysis,
		models.StageRiskAssessment,
	)
	if err := p.runStage(ctx, run, ExecutiveSummarySpec(p.roles.FinancialAnalyst), summaryInputs); err != nil {
		return p.finish(run, err)
	}

	if err := p.writeArtifact(run); err != nil {
		return p.finish(run, &PipelineError{Stage: models.StageExecutiveSummary, Err: err})
	}

	return p.finish(run, nil)
}

// runStage executes and records one stage, wrapping failures with the stage name
func (p *Pipeline) runStage(ctx context.Context, run *PipelineRun, spec StageSpec, inputs StageInputs) error {
	result, err := p.executor.RunStage(ctx, spec, inputs)
	if err != nil {
		return &PipelineError{Stage: spec.Stage, Err: err}
	}
	if err := run.Context.Record(result); err != nil {
		return &PipelineError{Stage: spec.Stage, Err: err}
	}
	return nil
}

// finish applies the failure policy: quota becomes the mock, anything else is surfaced
func (p *Pipeline) finish(run *PipelineRun, err error) (*PipelineRun, error) {
	run.CompletedAt = time.Now()
	duration := run.CompletedAt.Sub(run.StartedAt)

	if err == nil {
		p.logger.Info().
			Str("run_id", run.ID).
			Dur("duration", duration).
			Msg("Pipeline run completed")
		return run, nil
	}

	if errors.Is(err, llm.ErrQuotaExceeded) {
		run.Mocked = true
		p.logger.Warn().
			Str("run_id", run.ID).
			Err(err).
			Msg("Provider quota exhausted; substituting mock analysis")
		return run, nil
	}

	p.logger.Error().
		Str("run_id", run.ID).
		Err(err).
		Dur("duration", duration).
		Msg("Pipeline run failed")
	return run, err
}

// writeArtifact writes the executive summary narrative to a run-scoped file
func (p *Pipeline) writeArtifact(run *PipelineRun) error {
	summary := run.Context.Get(models.StageExecutiveSummary)
	if summary == nil {
		return fmt.Errorf("executive summary missing from context")
	}

	if err := os.MkdirAll(p.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Set before writing so a partial file is still cleaned up
	run.ArtifactPath = ArtifactPath(p.dataDir, run.ID)
	if err := os.WriteFile(run.ArtifactPath, []byte(summary.Narrative), 0644); err != nil {
		return fmt.Errorf("failed to write executive summary artifact: %w", err)
	}
	return nil
}

// ArtifactPath is the executive summary file of one run
func ArtifactPath(dataDir, runID string) string {
	return filepath.Join(dataDir, "executive_summary_"+runID+".md")
}
