// internal/workers/bi-agent/synthesize-response/handler.go
package synthesizeresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"founder-bi-agent/internal/common/llm"
)

const (
	TaskType = "synthesize-response"
)

var (
	ErrLLMTimeout         = errors.New("LLM_TIMEOUT")
	ErrLLMSynthesisFailed = errors.New("LLM_SYNTHESIS_FAILED")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Completer is the language model call the synthesizer needs.
type Completer interface {
	Complete(ctx context.Context, req llm.ChatRequest) (string, error)
}

type Handler struct {
	config *Config
	llm    Completer
	logger Logger
}

func NewHandler(config *Config, completer Completer, log Logger) *Handler {
	return &Handler{
		config: config,
		llm:    completer,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute narrates the analysis. The model's text is returned verbatim.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	content, err := BuildUserContent(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, err)
	}

	answer, err := h.llm.Complete(ctx, llm.ChatRequest{
		System:   h.config.Persona,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: content}},
	})
	if err != nil {
		if errors.Is(err, llm.ErrLLMTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrLLMTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrLLMSynthesisFailed, err)
	}

	h.logger.Info("LLM synthesis completed", map[string]interface{}{
		"answerLength": len(answer),
		"noteCount":    len(input.Notes),
	})
	return &Output{Answer: answer}, nil
}

// BuildUserContent renders the query, the analysis as JSON and the notes.
func BuildUserContent(input *Input) (string, error) {
	data, err := json.Marshal(input.Analysis)
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}

	notes := "None"
	if len(input.Notes) > 0 {
		notes = "\n- " + strings.Join(input.Notes, "\n- ")
	}

	return fmt.Sprintf("User Query: %s\n\nProcessed Data: %s\n\nData Quality Notes: %s", input.Query, data, notes), nil
}
