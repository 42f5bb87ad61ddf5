package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/heuristics"
	"github.com/ternarybob/finanalyzer/internal/services/llm"
)

const sampleText = "Revenue: $5.2 million. The company faces default risk and competition."

func newTestExecutor(provider llm.Provider, tools ...interfaces.Tool) *Executor {
	return NewExecutor(provider, tools, arbor.NewLogger())
}

func TestRunStage_FinalAnswerWithoutTool(t *testing.T) {
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return investAnswer, nil
	})
	executor := newTestExecutor(provider)
	spec := InvestmentAnalysisSpec(unlimitedRoles().InvestmentAdvisor, "Is it a buy?")

	result, err := executor.RunStage(context.Background(), spec, StageInputs{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, models.StageInvestmentAnalysis, result.Stage)
	assert.Equal(t, "Senior Investment Advisor", result.Role)
	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, result.SchemaError)
	require.True(t, result.HasStructured())

	rec, ok := result.Structured.(*models.InvestmentRecommendation)
	require.True(t, ok)
	assert.Equal(t, "Buy", rec.Recommendation)
	assert.InDelta(t, 0.8, rec.Confidence, 1e-9)

	assert.NotContains(t, result.Narrative, "```")
	assert.Contains(t, result.Narrative, "### Recommendation: Buy")

	require.Len(t, provider.requests, 1)
	assert.Contains(t, provider.requests[0].SystemInstruction, "Senior Investment Advisor")
	assert.Contains(t, provider.requests[0].Messages[0].Content, "User Query: Is it a buy?")
}

func TestRunStage_BlankQueryPlaceholder(t *testing.T) {
	spec := InvestmentAnalysisSpec(unlimitedRoles().InvestmentAdvisor, "  ")
	assert.Contains(t, spec.Description, "User Query: No specific query provided")
}

func TestRunStage_ToolCallThenAnswer(t *testing.T) {
	calls := 0
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		calls++
		if calls == 1 {
			return "\nAction: risk_assessment\n", nil
		}
		return riskAnswer, nil
	})
	executor := newTestExecutor(provider, heuristics.RiskTool{})
	spec := RiskAssessmentSpec(unlimitedRoles().RiskAssessor)

	result, err := executor.RunStage(context.Background(), spec, StageInputs{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, []string{heuristics.RiskToolName}, result.ToolCalls)

	second := provider.requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, interfaces.RoleAssistant, second[1].Role)
	assert.True(t, strings.HasPrefix(second[2].Content, "Observation:\n# Risk Assessment Report"))
	assert.Contains(t, second[2].Content, "Risk of default on obligations")
}

func TestRunStage_ToolReceivesPathForReaderRole(t *testing.T) {
	reader := newFakeReader("document text")
	calls := 0
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		calls++
		if calls == 1 {
			return "Action: financial_document_reader", nil
		}
		return docAnswer, nil
	})
	executor := newTestExecutor(provider, reader)
	spec := DocAnalysisSpec(unlimitedRoles().FinancialAnalyst, "/tmp/report.pdf")

	_, err := executor.RunStage(context.Background(), spec, StageInputs{DocumentPath: "/tmp/report.pdf", Text: "document text"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/report.pdf"}, reader.inputs)
}

func TestRunStage_UnboundToolFails(t *testing.T) {
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return "Action: investment_analysis", nil
	})
	executor := newTestExecutor(provider, heuristics.InvestmentTool{}, heuristics.RiskTool{})
	spec := RiskAssessmentSpec(unlimitedRoles().RiskAssessor)

	_, err := executor.RunStage(context.Background(), spec, StageInputs{Text: sampleText})
	require.Error(t, err)

	var toolErr *ToolExecutionError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, heuristics.InvestmentToolName, toolErr.Tool)
	assert.ErrorIs(t, err, ErrToolNotBound)
}

func TestRunStage_ToolErrorFailsStage(t *testing.T) {
	broken := &fakeTool{name: heuristics.RiskToolName, err: errors.New("disk gone")}
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return "Action: risk_assessment", nil
	})
	executor := newTestExecutor(provider, broken)
	spec := RiskAssessmentSpec(unlimitedRoles().RiskAssessor)

	_, err := executor.RunStage(context.Background(), spec, StageInputs{Text: sampleText})

	var toolErr *ToolExecutionError
	require.True(t, errors.As(err, &toolErr))
	assert.Contains(t, err.Error(), "disk gone")
}

func TestRunStage_IterationLimit(t *testing.T) {
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return "Action: risk_assessment", nil
	})
	executor := newTestExecutor(provider, heuristics.RiskTool{})
	role := unlimitedRoles().RiskAssessor
	role.MaxIter = 3

	_, err := executor.RunStage(context.Background(), RiskAssessmentSpec(role), StageInputs{Text: sampleText})
	require.ErrorIs(t, err, ErrIterationLimit)
	assert.Equal(t, 3, provider.callCount())
}

func TestRunStage_SchemaFailureKeepsNarrative(t *testing.T) {
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return "## Investment Recommendation\nUnclear.\n\n```json\n{\"recommendation\": \"Maybe\", \"confidence\": 2}\n```\n", nil
	})
	executor := newTestExecutor(provider)
	spec := InvestmentAnalysisSpec(unlimitedRoles().InvestmentAdvisor, "")

	result, err := executor.RunStage(context.Background(), spec, StageInputs{Text: sampleText})
	require.NoError(t, err)

	assert.False(t, result.HasStructured())
	assert.NotEmpty(t, result.SchemaError)
	assert.Contains(t, result.Narrative, "Unclear.")
	assert.Equal(t, "Unclear.", result.Sections["Investment Recommendation"])
}

func TestRunStage_MissingJSONBlock(t *testing.T) {
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return "## Risk Assessment Report\nNo major risks.", nil
	})
	executor := newTestExecutor(provider)

	result, err := executor.RunStage(context.Background(), RiskAssessmentSpec(unlimitedRoles().RiskAssessor), StageInputs{})
	require.NoError(t, err)
	assert.Contains(t, result.SchemaError, ErrNoJSONBlock.Error())
	assert.Equal(t, "## Risk Assessment Report\nNo major risks.", result.Narrative)
}

func TestRunStage_ProviderErrorReturnedUnwrapped(t *testing.T) {
	quota := errors.Join(llm.ErrQuotaExceeded, errors.New("claude: 429"))
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return "", quota
	})
	executor := newTestExecutor(provider)

	_, err := executor.RunStage(context.Background(), DocAnalysisSpec(unlimitedRoles().FinancialAnalyst, "x.pdf"), StageInputs{})
	assert.ErrorIs(t, err, llm.ErrQuotaExceeded)
}

func TestRunStage_CancelledContext(t *testing.T) {
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return docAnswer, nil
	})
	executor := newTestExecutor(provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.RunStage(ctx, DocAnalysisSpec(NewRoles(nil).FinancialAnalyst, "x.pdf"), StageInputs{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.callCount())
}

func TestLimiterSharedPerRole(t *testing.T) {
	executor := newTestExecutor(newFakeProvider(nil))
	roles := NewRoles(nil)

	a := executor.limiterFor(roles.RiskAssessor)
	b := executor.limiterFor(roles.RiskAssessor)
	c := executor.limiterFor(roles.InvestmentAdvisor)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 1, a.Burst())
	assert.InDelta(t, 0.1, float64(a.Limit()), 1e-9, "6 requests per minute")
}

func TestParseAction(t *testing.T) {
	tool, ok := parseAction("  Action: risk_assessment\n")
	assert.True(t, ok)
	assert.Equal(t, "risk_assessment", tool)

	tool, ok = parseAction("Action: `investment_analysis`")
	assert.True(t, ok)
	assert.Equal(t, "investment_analysis", tool)

	_, ok = parseAction("Final answer\n```json\n{}\n```\nAction: risk_assessment")
	assert.False(t, ok)

	_, ok = parseAction("No further action needed.")
	assert.False(t, ok)

	_, ok = parseAction("Thinking...\nAction: risk_assessment")
	assert.False(t, ok)

	_, ok = parseAction("## Investment Recommendation\nAction: Hold\nRevisit after Q3 results.")
	assert.False(t, ok)
}

func TestRunStage_ActionLineInsideAnswerIsFinal(t *testing.T) {
	answer := "## Investment Recommendation\n### Recommendation\nAction: Hold\n\nMargins are stable."
	provider := newFakeProvider(func(req *llm.ContentRequest) (string, error) {
		return answer, nil
	})
	executor := newTestExecutor(provider, heuristics.InvestmentTool{})
	spec := InvestmentAnalysisSpec(unlimitedRoles().InvestmentAdvisor, "Should I buy?")

	result, err := executor.RunStage(context.Background(), spec, StageInputs{Text: sampleText})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.ToolCalls)
	assert.Contains(t, result.Narrative, "Action: Hold")
}
