// internal/workers/bi-agent/answer-query/handler.go
package answerquery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "founder-bi-agent/internal/common/errors"
	"founder-bi-agent/internal/common/metrics"
	"founder-bi-agent/internal/common/validation"
	"founder-bi-agent/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "answer-founder-query"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Answerer runs one query end to end.
type Answerer interface {
	Answer(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
}

type Handler struct {
	config    *Config
	answerer  Answerer
	validator *validation.Validator
	errors    *apperrors.ErrorHandler
	logger    Logger
}

func NewHandler(config *Config, answerer Answerer, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:    config,
		answerer:  answerer,
		validator: validation.MustValidator(validation.QueryRequestSchema),
		errors:    apperrors.NewErrorHandler(l),
		logger:    l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	active := metrics.WorkerJobsActive.WithLabelValues(TaskType)
	active.Inc()
	defer active.Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := DecodeInput(job.Variables)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// DecodeInput reads the job variables.
func DecodeInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := models.QueryRequest{Query: input.Query, SessionID: input.SessionID}

	result, err := h.validator.ValidateInput(req)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidRequestError(result.Summary())
	}

	started := time.Now()
	resp, err := h.answerer.Answer(ctx, req)
	if err != nil {
		return nil, err
	}

	h.logger.Info("query answered", map[string]interface{}{
		"sessionId":  input.SessionID,
		"durationMs": time.Since(started).Milliseconds(),
	})
	return &Output{
		Answer:           resp.Answer,
		ToolCalls:        resp.ToolCalls,
		DataQualityNotes: resp.DataQualityNotes,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)

	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.CodeOf(err))).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}
