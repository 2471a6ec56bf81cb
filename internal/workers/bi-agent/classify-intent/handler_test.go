// internal/workers/bi-agent/classify-intent/handler_test.go
package classifyintent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"founder-bi-agent/internal/common/llm"

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
func (l *TestLogger) With(fields map[string]interface{}) Logger       { return l }

// ==========================
// Test Helper Functions
// ==========================

type fakeCompleter struct {
	reply    string
	err      error
	requests []llm.ChatRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func createTestHandler(t *testing.T, completer Completer) *Handler {
	return NewHandler(LoadConfig(), completer, &TestLogger{t: t})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{
			name:  "deals only",
			reply: `{"needs_deals": true, "needs_work_orders": false, "requires_clarification": false, "clarification_message": null, "analysis_plan": "pipeline by sector"}`,
		},
		{
			name:  "fenced reply",
			reply: "```json\n{\"needs_deals\": true, \"needs_work_orders\": false, \"requires_clarification\": false, \"analysis_plan\": \"pipeline by sector\"}\n```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{reply: tt.reply}
			decision, err := createTestHandler(t, completer).Execute(context.Background(), &Input{
				Query:   "How is our energy pipeline?",
				History: "User: hi\nAgent: hello",
			})

			require.NoError(t, err)
			assert.True(t, decision.NeedsDeals)
			assert.False(t, decision.NeedsWorkOrders)
			assert.False(t, decision.RequiresClarification)
			assert.Equal(t, "pipeline by sector", decision.AnalysisPlan)

			require.Len(t, completer.requests, 1)
			req := completer.requests[0]
			assert.True(t, req.JSONMode)
			assert.Equal(t, DefaultSystemPrompt, req.System)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "History:\nUser: hi\nAgent: hello\n\nQuery: How is our energy pipeline?", req.Messages[0].Content)
		})
	}
}

func TestHandler_Execute_Clarification(t *testing.T) {
	completer := &fakeCompleter{
		reply: `{"needs_deals": false, "needs_work_orders": false, "requires_clarification": true, "clarification_message": "Which quarter do you mean?", "analysis_plan": ""}`,
	}

	decision, err := createTestHandler(t, completer).Execute(context.Background(), &Input{Query: "numbers?"})
	require.NoError(t, err)
	assert.True(t, decision.RequiresClarification)
	require.NotNil(t, decision.ClarificationMessage)
	assert.Equal(t, "Which quarter do you mean?", *decision.ClarificationMessage)
	assert.Empty(t, decision.Domains())
}

func TestHandler_Execute_ParseFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "Sure! You need the deals board."},
		{"truncated json", `{"needs_deals": true`},
		{"missing fields", `{"needs_deals": true}`},
		{"clarification without message", `{"needs_deals": false, "needs_work_orders": false, "requires_clarification": true, "analysis_plan": ""}`},
		{"wrong types", `{"needs_deals": 1, "needs_work_orders": false, "requires_clarification": false, "analysis_plan": "x"}`},
		{"array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createTestHandler(t, &fakeCompleter{reply: tt.reply}).Execute(context.Background(), &Input{Query: "q"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIntentParsingFailed), err.Error())
		})
	}
}

func TestHandler_Execute_CallFailures(t *testing.T) {
	_, err := createTestHandler(t, &fakeCompleter{err: fmt.Errorf("%w: deadline", llm.ErrLLMTimeout)}).
		Execute(context.Background(), &Input{Query: "q"})
	assert.True(t, errors.Is(err, ErrIntentAPITimeout))

	_, err = createTestHandler(t, &fakeCompleter{err: fmt.Errorf("%w: status 500", llm.ErrLLMRequestFailed)}).
		Execute(context.Background(), &Input{Query: "q"})
	assert.True(t, errors.Is(err, ErrIntentParsingFailed))
}

// ==========================
// Integration With LLM Client
// ==========================

func TestHandler_Execute_WithLLMClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]interface{}{"type": "json_object"}, req["response_format"])

		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message": map[string]string{
					"role":    "assistant",
					"content": `{"needs_deals": true, "needs_work_orders": true, "requires_clarification": false, "clarification_message": null, "analysis_plan": "both"}`,
				},
			}},
		})
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := llm.NewClient(llm.Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o", Timeout: time.Second})
	decision, err := createTestHandler(t, client).Execute(context.Background(), &Input{Query: "overview"})

	require.NoError(t, err)
	assert.Len(t, decision.Domains(), 2)
}
