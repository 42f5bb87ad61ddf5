package analysis

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/finanalyzer/internal/interfaces"
	"github.com/ternarybob/finanalyzer/internal/models"
	"github.com/ternarybob/finanalyzer/internal/services/llm"
	"golang.org/x/time/rate"
)

var actionPattern = regexp.MustCompile(`^Action:\s*` + "`?" + `([A-Za-z0-9_\-]+)` + "`?" + `$`)

// Executor runs single stages against the inference provider.
// Rate limiters are per role and shared by every run that uses the executor.
type Executor struct {
	provider llm.Provider
	tools    map[string]interfaces.Tool
	logger   arbor.ILogger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewExecutor creates an executor with the tools roles may bind to
func NewExecutor(provider llm.Provider, tools []interfaces.Tool, logger arbor.ILogger) *Executor {
	registry := make(map[string]interfaces.Tool, len(tools))
	for _, tool := range tools {
		registry[tool.Name()] = tool
	}
	return &Executor{
		provider: provider,
		tools:    registry,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the role's limiter, creating it on first use
func (e *Executor) limiterFor(role Role) *rate.Limiter {
	e.mu.Lock()
	defer e.mu.Unlock()

	if limiter, ok := e.limiters[role.Key]; ok {
		return limiter
	}

	limit := rate.Inf
	if role.MaxRPM > 0 {
		limit = rate.Every(time.Minute / time.Duration(role.MaxRPM))
	}
	limiter := rate.NewLimiter(limit, 1)
	e.limiters[role.Key] = limiter
	return limiter
}

// RunStage drives one stage to a final answer.
//
// Each provider call waits on the role's limiter. A reply containing an "Action: <tool>" line
// runs the role's bound tool and feeds the result back as an observation; any other reply is the
// final answer. More than Role.MaxIter provider calls fails with ErrIterationLimit.
//
// Provider errors are returned unwrapped so quota signals stay visible to errors.Is.
// A final answer whose json block is missing or invalid still succeeds, with SchemaError set.
func (e *Executor) RunStage(ctx context.Context, spec StageSpec, inputs StageInputs) (*models.StageResult, error) {
	role := spec.Role
	result := &models.StageResult{
		Stage:     spec.Stage,
		Role:      role.Name,
		StartedAt: time.Now(),
	}

	tool := e.tools[role.Tool]

	messages := []interfaces.Message{
		{Role: interfaces.RoleUser, Content: buildPrompt(spec, inputs, tool)},
	}
	limiter := e.limiterFor(role)

	e.logger.Debug().
		Str("stage", string(spec.Stage)).
		Str("role", role.Name).
		Int("max_iter", role.MaxIter).
		Msg("Starting stage")

	var answer string
	for iteration := 1; ; iteration++ {
		if role.MaxIter > 0 && iteration > role.MaxIter {
			return nil, fmt.Errorf("%w: %s made %d provider calls", ErrIterationLimit, role.Name, role.MaxIter)
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait cancelled: %w", err)
		}

		response, err := e.provider.GenerateContent(ctx, &llm.ContentRequest{
			Messages:          messages,
			SystemInstruction: role.Persona(),
		})
		if err != nil {
			return nil, err
		}
		result.Iterations = iteration

		action, isAction := parseAction(response.Text)
		if !isAction {
			answer = response.Text
			break
		}

		if tool == nil || action != role.Tool {
			return nil, &ToolExecutionError{Tool: action, Err: ErrToolNotBound}
		}

		input := inputs.Text
		if role.ToolInput == ToolInputPath {
			input = inputs.DocumentPath
		}

		output, err := tool.Run(ctx, input)
		if err != nil {
			return nil, &ToolExecutionError{Tool: action, Err: err}
		}
		result.ToolCalls = append(result.ToolCalls, action)

		e.logger.Debug().
			Str("stage", string(spec.Stage)).
			Str("tool", action).
			Int("output_len", len(output)).
			Msg("Tool executed")

		messages = append(messages,
			interfaces.Message{Role: interfaces.RoleAssistant, Content: response.Text},
			interfaces.Message{Role: interfaces.RoleUser, Content: observation(output)},
		)
	}

	parsed := parseAnswer(answer)
	result.Narrative = parsed.Narrative
	result.Sections = parsed.Sections

	payload, err := decodePayload(spec, parsed.JSON)
	if err != nil {
		schemaErr := &SchemaValidationError{Stage: spec.Stage, Err: err}
		result.SchemaError = schemaErr.Error()
		e.logger.Warn().
			Str("stage", string(spec.Stage)).
			Err(err).
			Msg("Structured output failed validation; keeping narrative only")
	} else {
		result.Structured = payload
	}

	result.CompletedAt = time.Now()

	e.logger.Info().
		Str("stage", string(spec.Stage)).
		Str("role", role.Name).
		Int("iterations", result.Iterations).
		Int("tool_calls", len(result.ToolCalls)).
		Bool("structured", result.HasStructured()).
		Dur("duration", result.CompletedAt.Sub(result.StartedAt)).
		Msg("Stage completed")

	return result, nil
}

// parseAction reports the tool a reply asks for.
// Only a reply consisting of the single Action line is a tool call; anything else is a final answer.
func parseAction(reply string) (string, bool) {
	match := actionPattern.FindStringSubmatch(strings.TrimSpace(reply))
	if match == nil {
		return "", false
	}
	return match[1], true
}
