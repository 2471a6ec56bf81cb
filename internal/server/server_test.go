package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "founder-bi-agent/internal/common/errors"
	"founder-bi-agent/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO: %s %v", msg, fields) }
func (l *TestLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN: %s %v", msg, fields) }
func (l *TestLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR: %s %v", msg, fields) }

type fakeAnswerer struct {
	resp *models.QueryResponse
	err  error
	reqs []models.QueryRequest
}

func (f *fakeAnswerer) Answer(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestServer(t *testing.T, answerer Answerer, checks map[string]ReadinessCheck) http.Handler {
	return New(Options{Address: ":0", Checks: checks}, answerer, &TestLogger{t: t}).Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ==========================
// POST /query
// ==========================

func TestQuery_Success(t *testing.T) {
	answerer := &fakeAnswerer{resp: models.NewQueryResponse(
		"Energy leads the pipeline.",
		[]string{"Fetched 2 Deals records from board 7 via live API"},
		nil,
	)}
	h := newTestServer(t, answerer, nil)

	rec := do(h, http.MethodPost, "/query", `{"query":"Pipeline by sector?","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Energy leads the pipeline.", body["answer"])
	assert.Equal(t, []interface{}{"Fetched 2 Deals records from board 7 via live API"}, body["tool_calls"])
	assert.Equal(t, []interface{}{}, body["data_quality_notes"])

	require.Len(t, answerer.reqs, 1)
	assert.Equal(t, models.QueryRequest{Query: "Pipeline by sector?", SessionID: "s1"}, answerer.reqs[0])
}

func TestQuery_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `query=pipeline`},
		{"missing session", `{"query":"Pipeline?"}`},
		{"missing query", `{"session_id":"s1"}`},
		{"empty query", `{"query":"","session_id":"s1"}`},
		{"wrong type", `{"query":42,"session_id":"s1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answerer := &fakeAnswerer{resp: models.NewQueryResponse("unused", nil, nil)}
			h := newTestServer(t, answerer, nil)

			rec := do(h, http.MethodPost, "/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), string(apperrors.ErrCodeInvalidRequest))
			assert.Empty(t, answerer.reqs)
		})
	}
}

func TestQuery_PipelineErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{
			name:       "intent parse failure",
			err:        apperrors.NewIntentParsingFailedError(errors.New("bad json")),
			wantStatus: http.StatusBadGateway,
			wantCode:   apperrors.ErrCodeIntentParsingFailed,
		},
		{
			name:       "intent timeout",
			err:        apperrors.NewIntentAPITimeoutError(errors.New("deadline")),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   apperrors.ErrCodeIntentAPITimeout,
		},
		{
			name:       "synthesis failure",
			err:        apperrors.NewLLMSynthesisFailedError(errors.New("status 500")),
			wantStatus: http.StatusBadGateway,
			wantCode:   apperrors.ErrCodeLLMSynthesisFailed,
		},
		{
			name:       "plain error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   apperrors.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeAnswerer{err: tt.err}, nil)

			rec := do(h, http.MethodPost, "/query", `{"query":"Pipeline?","session_id":"s1"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.wantCode), body.Error.Code)
		})
	}
}

func TestQuery_WrongMethod(t *testing.T) {
	h := newTestServer(t, &fakeAnswerer{}, nil)
	rec := do(h, http.MethodGet, "/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================
// Status endpoints
// ==========================

func TestRoot(t *testing.T) {
	h := newTestServer(t, &fakeAnswerer{}, nil)
	rec := do(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"running"}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeAnswerer{}, nil)
	rec := do(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]ReadinessCheck
		wantStatus int
		wantState  string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name: "all passing",
			checks: map[string]ReadinessCheck{
				"redis": func(ctx context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name: "one failing",
			checks: map[string]ReadinessCheck{
				"redis": func(ctx context.Context) error { return errors.New("connection refused") },
				"zeebe": func(ctx context.Context) error { return nil },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeAnswerer{}, tt.checks)
			rec := do(h, http.MethodGet, "/ready", "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
			assert.Len(t, body.Checks, len(tt.checks))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeAnswerer{}, nil)
	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// ==========================
// Middleware
// ==========================

func TestMiddleware_RequestID(t *testing.T) {
	h := newTestServer(t, &fakeAnswerer{}, nil)

	rec := do(h, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "given-id", rec.Header().Get(RequestIDHeader))
}

func TestMiddleware_CORS(t *testing.T) {
	h := newTestServer(t, &fakeAnswerer{}, nil)

	rec := do(h, http.MethodOptions, "/query", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(h, http.MethodGet, "/", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
