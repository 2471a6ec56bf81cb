// internal/workers/bi-agent/classify-intent/handler.go
package classifyintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"founder-bi-agent/internal/common/llm"
	"founder-bi-agent/internal/common/validation"
	"founder-bi-agent/internal/models"
)

const (
	TaskType = "classify-intent"
)

var (
	ErrIntentParsingFailed = errors.New("INTENT_PARSING_FAILED")
	ErrIntentAPITimeout    = errors.New("INTENT_API_TIMEOUT")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Completer is the language model call the classifier needs.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (string, error)
}

type Handler struct {
	config    *Config
	llm       Completer
	validator *validation.Validator
	logger    Logger
}

func NewHandler(config *Config, completer Completer, log Logger) *Handler {
	return &Handler{
		config:    config,
		llm:       completer,
		validator: validation.MustValidator(validation.IntentDecisionSchema),
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute asks the model which domains the query needs. A reply that is not a
// valid decision fails with ErrIntentParsingFailed and is never retried.
func (h *Handler) Execute(ctx context.Context, input *Input) (*models.IntentDecision, error) {
	content, err := h.llm.Complete(ctx, llm.ChatRequest{
		System: h.config.SystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: BuildUserContent(input)},
		},
		JSONMode: true,
	})
	if err != nil {
		if errors.Is(err, llm.ErrLLMTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrIntentAPITimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, err)
	}

	decision, err := h.parse(content)
	if err != nil {
		h.logger.Warn("classifier reply rejected", map[string]interface{}{
			"error":  err.Error(),
			"length": len(content),
		})
		return nil, err
	}

	h.logger.Info("intent classified", map[string]interface{}{
		"needsDeals":            decision.NeedsDeals,
		"needsWorkOrders":       decision.NeedsWorkOrders,
		"requiresClarification": decision.RequiresClarification,
	})
	return decision, nil
}

func (h *Handler) parse(content string) (*models.IntentDecision, error) {
	doc := []byte(stripCodeFence(content))

	result, err := h.validator.ValidateBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentParsingFailed, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrIntentParsingFailed, result.Summary())
	}

	var decision models.IntentDecision
	if err := json.Unmarshal(doc, &decision); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrIntentParsingFailed, err)
	}
	return &decision, nil
}

// BuildUserContent renders the recent history and the query for the model.
func BuildUserContent(input *Input) string {
	return fmt.Sprintf("History:\n%s\n\nQuery: %s", input.History, input.Query)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
