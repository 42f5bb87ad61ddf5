package llm

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"google.golang.org/genai"
)

// hasUserMessage reports whether any message has role "user"
func hasUserMessage(messages []interfaces.Message) bool {
	for _, msg := range messages {
		if msg.Role == interfaces.RoleUser {
			return true
		}
	}
	return false
}

// convertMessagesToClaude converts []interfaces.Message to Claude MessageParam format.
// The first system message is returned separately for the System parameter.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}
	if !hasUserMessage(messages) {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		switch msg.Role {
		case interfaces.RoleSystem:
			if systemText == "" {
				systemText = msg.Content
			}
		case interfaces.RoleAssistant:
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return claudeMessages, systemText, nil
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content format.
// The first system message is returned separately for SystemInstruction.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}
	if !hasUserMessage(messages) {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == interfaces.RoleSystem {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		geminiRole := string(genai.RoleUser)
		if msg.Role == interfaces.RoleAssistant {
			geminiRole = string(genai.RoleModel)
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}
