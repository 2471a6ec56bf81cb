// Package orchestrator sequences one founder query through classification,
// source routing, analytics and synthesis.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"founder-bi-agent/internal/analytics"
	apperrors "founder-bi-agent/internal/common/errors"
	"founder-bi-agent/internal/common/metrics"
	"founder-bi-agent/internal/common/observability"
	"founder-bi-agent/internal/models"
	"founder-bi-agent/internal/session"
	classifyintent "founder-bi-agent/internal/workers/bi-agent/classify-intent"
	routesources "founder-bi-agent/internal/workers/bi-agent/route-sources"
	synthesizeresponse "founder-bi-agent/internal/workers/bi-agent/synthesize-response"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MisconfiguredAnswer is returned when no language model credential is set.
	MisconfiguredAnswer = "OpenAI API key is missing. Please set OPENAI_API_KEY or llm.api_key in the configuration."
	MisconfiguredNote   = "System misconfiguration: No LLM available."

	QuarterFilterTrace = "Applied 'Current Quarter' filter to deals"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Classifier interface {
	Execute(ctx context.Context, input *classifyintent.Input) (*models.IntentDecision, error)
}

type Router interface {
	Execute(ctx context.Context, input *routesources.Input) (*routesources.Output, error)
}

type Synthesizer interface {
	Execute(ctx context.Context, input *synthesizeresponse.Input) (*synthesizeresponse.Output, error)
}

type Config struct {
	// LLMConfigured is false when the model credential is absent.
	LLMConfigured bool
	HistoryWindow int
}

type Orchestrator struct {
	config      Config
	memory      session.Store
	classifier  Classifier
	router      Router
	synthesizer Synthesizer
	obs         *observability.Observability
	logger      Logger
	now         func() time.Time
}

func New(config Config, memory session.Store, classifier Classifier, router Router, synthesizer Synthesizer, obs *observability.Observability, log Logger) *Orchestrator {
	if config.HistoryWindow <= 0 {
		config.HistoryWindow = session.DefaultWindow
	}
	return &Orchestrator{
		config:      config,
		memory:      memory,
		classifier:  classifier,
		router:      router,
		synthesizer: synthesizer,
		obs:         obs,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for the current-quarter filter.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// run carries the state of one query.
type run struct {
	state     State
	query     string
	sessionID string
	trace     []string
	notes     []string
}

func (r *run) moveTo(to State) {
	if !CanTransition(r.state, to) {
		panic(fmt.Sprintf("orchestrator: illegal transition %s -> %s", r.state, to))
	}
	r.state = to
}

// Answer runs the pipeline for one query. Only classification and synthesis
// failures are returned as errors; source problems surface as notes.
func (o *Orchestrator) Answer(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	started := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "bi.answer_query", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
	))
	defer span.End()

	resp, outcome, err := o.answer(ctx, req)

	metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	metrics.QueryDuration.Observe(time.Since(started).Seconds())
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		o.logger.Error("query failed", map[string]interface{}{
			"sessionId": req.SessionID,
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})
		return nil, err
	}

	o.logger.Info("query answered", map[string]interface{}{
		"sessionId":  req.SessionID,
		"outcome":    outcome,
		"traceCount": len(resp.ToolCalls),
		"noteCount":  len(resp.DataQualityNotes),
		"durationMs": time.Since(started).Milliseconds(),
	})
	return resp, nil
}

func (o *Orchestrator) answer(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, string, error) {
	r := &run{state: StateStart, query: req.Query, sessionID: req.SessionID}

	if !o.config.LLMConfigured {
		r.moveTo(StateDone)
		o.logger.Warn("language model not configured, returning degraded answer", nil)
		return models.NewQueryResponse(MisconfiguredAnswer, nil, []string{MisconfiguredNote}), "misconfigured", nil
	}

	r.moveTo(StateClassifying)
	decision, err := o.classify(ctx, r)
	if err != nil {
		return nil, "classification_failed", err
	}

	if decision.RequiresClarification {
		if decision.ClarificationMessage == nil || *decision.ClarificationMessage == "" {
			return nil, "classification_failed", apperrors.NewIntentParsingFailedError(errors.New("clarification requested without a message"))
		}
		r.moveTo(StateClarifying)
		answer := *decision.ClarificationMessage
		o.memory.Append(r.sessionID, "User: "+r.query, "Agent: "+answer)
		r.moveTo(StateDone)
		return models.NewQueryResponse(answer, nil, nil), "clarification", nil
	}

	r.moveTo(StateFetching)
	fetched, err := o.fetch(ctx, r, decision)
	if err != nil {
		return nil, "fetch_failed", err
	}

	r.moveTo(StateAnalyzing)
	result := o.analyze(r, decision, fetched)

	r.moveTo(StateSynthesizing)
	answer, err := o.synthesize(ctx, r, result)
	if err != nil {
		return nil, "synthesis_failed", err
	}

	o.memory.Append(r.sessionID, "User: "+r.query, "Agent: "+answer)
	r.moveTo(StateDone)
	return models.NewQueryResponse(answer, r.trace, r.notes), "answered", nil
}

func (o *Orchestrator) classify(ctx context.Context, r *run) (*models.IntentDecision, error) {
	ctx, span := observability.Tracer().Start(ctx, "bi.classify_intent")
	defer span.End()
	started := time.Now()

	history := strings.Join(o.memory.Recent(r.sessionID, o.config.HistoryWindow), "\n")
	decision, err := o.classifier.Execute(ctx, &classifyintent.Input{Query: r.query, History: history})

	status := llmStatus(err)
	metrics.LLMCalls.WithLabelValues("classify", status).Inc()
	o.obs.RecordStage(ctx, "classify", time.Since(started), status)

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, classifyintent.ErrIntentAPITimeout) {
			return nil, apperrors.NewIntentAPITimeoutError(err)
		}
		return nil, apperrors.NewIntentParsingFailedError(err)
	}
	span.SetAttributes(
		attribute.Bool("needs_deals", decision.NeedsDeals),
		attribute.Bool("needs_work_orders", decision.NeedsWorkOrders),
		attribute.Bool("requires_clarification", decision.RequiresClarification),
	)
	return decision, nil
}

func (o *Orchestrator) fetch(ctx context.Context, r *run, decision *models.IntentDecision) (*routesources.Output, error) {
	domains := decision.Domains()
	if len(domains) == 0 {
		return &routesources.Output{}, nil
	}

	ctx, span := observability.Tracer().Start(ctx, "bi.route_sources")
	defer span.End()
	started := time.Now()

	out, err := o.router.Execute(ctx, &routesources.Input{Domains: domains})
	if err != nil {
		span.RecordError(err)
		o.obs.RecordStage(ctx, "fetch", time.Since(started), "error")
		return nil, apperrors.NewInternalError(err)
	}
	o.obs.RecordStage(ctx, "fetch", time.Since(started), "ok")

	for _, s := range out.Sources {
		o.obs.RecordRecords(ctx, string(s.Domain), s.Kind, s.Records)
		span.AddEvent("source", trace.WithAttributes(
			attribute.String("domain", string(s.Domain)),
			attribute.String("kind", s.Kind),
			attribute.Int("records", s.Records),
			attribute.Bool("failed", s.Failed),
			attribute.String("error_code", s.ErrorCode),
		))
	}

	r.trace = append(r.trace, out.Trace...)
	r.notes = append(r.notes, out.Notes...)
	return out, nil
}

func (o *Orchestrator) analyze(r *run, decision *models.IntentDecision, fetched *routesources.Output) models.AnalysisResult {
	deals := fetched.Deals
	if decision.NeedsDeals && analytics.WantsCurrentQuarter(r.query) {
		deals = analytics.FilterCurrentQuarter(deals, o.now())
		r.trace = append(r.trace, QuarterFilterTrace)
	}
	return analytics.Analyze(deals, fetched.WorkOrders)
}

func (o *Orchestrator) synthesize(ctx context.Context, r *run, result models.AnalysisResult) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "bi.synthesize_response")
	defer span.End()
	started := time.Now()

	out, err := o.synthesizer.Execute(ctx, &synthesizeresponse.Input{
		Query:    r.query,
		Analysis: result,
		Notes:    r.notes,
	})

	status := llmStatus(err)
	metrics.LLMCalls.WithLabelValues("synthesize", status).Inc()
	o.obs.RecordStage(ctx, "synthesize", time.Since(started), status)

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, synthesizeresponse.ErrLLMTimeout) {
			return "", apperrors.NewLLMTimeoutError(err)
		}
		return "", apperrors.NewLLMSynthesisFailedError(err)
	}
	return out.Answer, nil
}

func llmStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
