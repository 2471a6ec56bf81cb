// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type Logger interface {
	Info(msg string, fields map[string]interface{})
}

type WorkerConfig struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker worker.JobWorker
	config WorkerConfig
	logger Logger
}

// NewWorker opens a job worker for one task type.
func NewWorker(client zbc.Client, config WorkerConfig, handler JobHandler, logger Logger) *CamundaWorker {
	if config.MaxJobsActive <= 0 {
		config.MaxJobsActive = 1
	}

	step := client.NewJobWorker().
		JobType(config.TaskType).
		Handler(handler.Handle).
		MaxJobsActive(config.MaxJobsActive)
	if config.Timeout > 0 {
		step = step.Timeout(config.Timeout)
	}

	w := &CamundaWorker{
		worker: step.Open(),
		config: config,
		logger: logger,
	}
	logger.Info("worker started", map[string]interface{}{
		"taskType":      config.TaskType,
		"maxJobsActive": config.MaxJobsActive,
		"timeoutMs":     config.Timeout.Milliseconds(),
	})
	return w
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{
		"taskType": w.config.TaskType,
	})
	w.worker.Close()
	w.worker.AwaitClose()
}
