package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/common"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
)

func newTestFactory(defaultProvider common.LLMProvider) *ProviderFactory {
	cfg := common.NewDefaultConfig()
	cfg.LLM.DefaultProvider = defaultProvider
	return NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, arbor.NewLogger())
}

func TestDetectProvider(t *testing.T) {
	f := newTestFactory(common.LLMProviderClaude)

	assert.Equal(t, ProviderClaude, f.DetectProvider(""))
	assert.Equal(t, ProviderClaude, f.DetectProvider("claude-sonnet-4-20250514"))
	assert.Equal(t, ProviderClaude, f.DetectProvider("anthropic/claude-3-haiku"))
	assert.Equal(t, ProviderGemini, f.DetectProvider("gemini-2.5-flash"))
	assert.Equal(t, ProviderGemini, f.DetectProvider("google/gemini-2.5-pro"))
	assert.Equal(t, ProviderClaude, f.DetectProvider("something-else"))

	g := newTestFactory(common.LLMProviderGemini)
	assert.Equal(t, ProviderGemini, g.DetectProvider(""))
	assert.Equal(t, ProviderGemini, g.GetProviderType())
}

func TestNormalizeModel(t *testing.T) {
	f := newTestFactory(common.LLMProviderClaude)

	assert.Equal(t, "claude-3-haiku", f.NormalizeModel("anthropic/claude-3-haiku"))
	assert.Equal(t, "gemini-2.5-flash", f.NormalizeModel("Gemini/gemini-2.5-flash"))
	assert.Equal(t, "claude-sonnet-4-20250514", f.NormalizeModel("claude-sonnet-4-20250514"))
}

func TestValidate_MissingKeyFailsFast(t *testing.T) {
	t.Setenv("FINANALYZER_CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	f := newTestFactory(common.LLMProviderClaude)
	err := f.Validate(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Anthropic API key")
}

func TestValidate_KeyFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	f := newTestFactory(common.LLMProviderClaude)
	require.NoError(t, f.Validate(t.Context()))
	require.NoError(t, f.Close())
}

func TestConvertMessagesToClaude(t *testing.T) {
	msgs, system, err := convertMessagesToClaude([]interfaces.Message{
		{Role: interfaces.RoleSystem, Content: "persona"},
		{Role: interfaces.RoleUser, Content: "task"},
		{Role: interfaces.RoleAssistant, Content: "Action: risk_assessment"},
		{Role: interfaces.RoleUser, Content: "Observation: ..."},
	})
	require.NoError(t, err)
	assert.Equal(t, "persona", system)
	assert.Len(t, msgs, 3)

	_, _, err = convertMessagesToClaude([]interfaces.Message{{Role: interfaces.RoleAssistant, Content: "x"}})
	assert.Error(t, err)
}

func TestConvertMessagesToGemini(t *testing.T) {
	contents, system, err := convertMessagesToGemini([]interfaces.Message{
		{Role: interfaces.RoleUser, Content: "task"},
		{Role: interfaces.RoleAssistant, Content: "answer"},
	})
	require.NoError(t, err)
	assert.Empty(t, system)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)

	_, _, err = convertMessagesToGemini(nil)
	assert.Error(t, err)
}
