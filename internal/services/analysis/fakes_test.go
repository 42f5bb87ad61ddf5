package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/documents"
	"github.com/ternarybob/finanalyzer/internal/services/llm"
)

const (
	docAnswer = "## Financial Overview\nRevenue grew 15% year over year.\n\n## Key Insights\n- Margin expansion\n\n" +
		"```json\n{\"metrics\": {\"Revenue\": \"$1.2B\"}, \"trends\": [\"revenue growth\"], \"insights\": [\"margins expanding\"]}\n```\n"

	investAnswer = "## Investment Recommendation\n### Recommendation: Buy\n- **Confidence Level**: High\n\n" +
		"```json\n{\"recommendation\": \"Buy\", \"confidence\": 0.8, \"time_horizon\": \"Long-term\", \"key_factors\": [\"growth\"], \"risks\": [\"competition\"]}\n```\n"

	riskAnswer = "## Risk Assessment Report\n### Top Risks\n1. **Competition**\n\n" +
		"```json\n{\"risk_factors\": {\"competition\": \"Medium\"}, \"impact\": \"Moderate\", \"mitigation\": [\"diversify\"], \"monitoring\": [\"track share\"]}\n```\n"

	summaryAnswer = "# Executive Summary\n\n## Key Findings\nSolid growth.\n\n" +
		"```json\n{\"overview\": \"Healthy\", \"recommendations\": [\"Buy\"], \"risks\": [\"competition\"], \"next_steps\": [\"review Q3\"]}\n```\n"
)

// stageOf identifies the stage from the opening prompt
func stageOf(req *llm.ContentRequest) models.StageName {
	prompt := req.Messages[0].Content
	switch {
	case strings.HasPrefix(prompt, "Analyze the financial document"):
		return models.StageDocAnalysis
	case strings.HasPrefix(prompt, "Based on the financial analysis"):
		return models.StageInvestmentAnalysis
	case strings.HasPrefix(prompt, "Conduct a comprehensive risk assessment"):
		return models.StageRiskAssessment
	default:
		return models.StageExecutiveSummary
	}
}

type fakeProvider struct {
	mu       sync.Mutex
	respond  func(req *llm.ContentRequest) (string, error)
	requests []*llm.ContentRequest
}

func newFakeProvider(respond func(req *llm.ContentRequest) (string, error)) *fakeProvider {
	return &fakeProvider{respond: respond}
}

// newStageProvider answers each stage with its canned final answer, overridden per stage
func newStageProvider(overrides map[models.StageName]func(req *llm.ContentRequest) (string, error)) *fakeProvider {
	answers := map[models.StageName]string{
		models.StageDocAnalysis:        docAnswer,
		models.StageInvestmentAnalysis: investAnswer,
		models.StageRiskAssessment:     riskAnswer,
		models.StageExecutiveSummary:   summaryAnswer,
	}
	return newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		stage := stageOf(req)
		if override, ok := overrides[stage]; ok {
			return override(req)
		}
		return answers[stage], nil
	})
}

func (f *fakeProvider) GenerateContent(ctx context.Context, req *llm.ContentRequest) (*llm.ContentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	text, err := f.respond(req)
	if err != nil {
		return nil, err
	}
	return &llm.ContentResponse{Text: text, Provider: llm.ProviderClaude, Model: "fake"}, nil
}

func (f *fakeProvider) GetProviderType() llm.ProviderType { return llm.ProviderClaude }

func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeProvider) requestsFor(stage models.StageName) []*llm.ContentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*llm.ContentRequest
	for _, req := range f.requests {
		if stageOf(req) == stage {
			out = append(out, req)
		}
	}
	return out
}

type fakeExtractor struct {
	validateErr error
}

func (f *fakeExtractor) Validate(doc models.Document) error { return f.validateErr }

func (f *fakeExtractor) Extract(ctx context.Context, doc models.Document) (string, error) {
	return "", nil
}

// fakeTool returns a fixed output and counts invocations
type fakeTool struct {
	mu     sync.Mutex
	name   string
	output string
	err    error
	inputs []string
}

func (t *fakeTool) Name() string        { return t.name }
func (t *fakeTool) Description() string { return "test tool" }

func (t *fakeTool) Run(ctx context.Context, input string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputs = append(t.inputs, input)
	if t.err != nil {
		return "", t.err
	}
	return t.output, nil
}

func (t *fakeTool) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inputs)
}

func newFakeReader(text string) *fakeTool {
	return &fakeTool{name: documents.ReaderToolName, output: text}
}

// unlimitedRoles keeps the built-in personas without rate limits so tests do not wait
func unlimitedRoles() Roles {
	roles := NewRoles(nil)
	roles.FinancialAnalyst.MaxRPM = 0
	roles.InvestmentAdvisor.MaxRPM = 0
	roles.RiskAssessor.MaxRPM = 0
	return roles
}
