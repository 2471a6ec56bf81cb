package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"founder-bi-agent/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// ==========================
// Fixtures
// ==========================

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	require.NoError(t, f.SaveAs(path))
}

// fakeModel answers classification calls with a fixed decision and
// synthesis calls with a fixed narrative, recording every user message.
type fakeModel struct {
	mu       sync.Mutex
	decision string
	answer   string
	prompts  []string
}

func (m *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, req.Messages[len(req.Messages)-1].Content)
	m.mu.Unlock()

	content := m.answer
	if req.ResponseFormat != nil {
		content = m.decision
	}
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func writeConfig(t *testing.T, dir, llmURL string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
server:
  address: ":0"
llm:
  api_key: sk-test
  base_url: %s
  timeout: 5000
sources:
  deals:
    fallback_path: %s
  work_orders:
    fallback_path: %s
logging:
  level: error
  format: json
`, llmURL, filepath.Join(dir, "deals.xlsx"), filepath.Join(dir, "orders.xlsx"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func postQuery(t *testing.T, h http.Handler, query, sessionID string) (int, map[string]interface{}) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query, "session_id": sessionID})
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(string(payload)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

// ==========================
// End to end
// ==========================

func TestApp_FallbackQueryEndToEnd(t *testing.T) {
	for _, key := range []string{"OPENAI_API_KEY", "MONDAY_API_TOKEN", "BOARD_ID_DEALS", "BOARD_ID_WORK_ORDERS"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "deals.xlsx"), [][]interface{}{
		{"Deal Name", "Sector/service", "Masked Deal value", "Close Date (A)"},
		{"Acme", " Energy ", 1000, "2026-11-02"},
		{"Globex", "Mining", "", ""},
		{"Initech", "energy", 500, "2025-01-15"},
	})
	writeWorkbook(t, filepath.Join(dir, "orders.xlsx"), [][]interface{}{
		{"Work Order Tracker"},
		{"Deal name masked", "Execution Status", "Customer Name Code"},
		{"WO-1", "Completed", "C1"},
		{"WO-2", "Ongoing", "C2"},
		{"WO-3", "Completed", ""},
	})

	model := &fakeModel{
		decision: `{"needs_deals":true,"needs_work_orders":true,"requires_clarification":false,"clarification_message":null,"analysis_plan":"Summarize pipeline and execution"}`,
		answer:   "Energy leads with 1,500 in pipeline; two of three work orders are complete.",
	}
	llmServer := httptest.NewServer(model)
	defer llmServer.Close()

	a, err := newApp(writeConfig(t, dir, llmServer.URL))
	require.NoError(t, err)
	defer a.close()

	h := server.New(server.Options{Address: ":0"}, a.orchestrator, a.log).Handler()

	code, body := postQuery(t, h, "How do deals and work orders look?", "founder-1")
	require.Equal(t, http.StatusOK, code, body)

	assert.Equal(t, model.answer, body["answer"])
	assert.Equal(t, []interface{}{
		fmt.Sprintf("Board ID for Deals not configured; loaded 3 records from fallback file '%s'", filepath.Join(dir, "deals.xlsx")),
		fmt.Sprintf("Board ID for Work Orders not configured; loaded 3 records from fallback file '%s'", filepath.Join(dir, "orders.xlsx")),
	}, body["tool_calls"])
	assert.Equal(t, []interface{}{"Deal 'Globex' missing amount; treated as 0."}, body["data_quality_notes"])

	// classify, then synthesize
	require.Len(t, model.prompts, 2)
	assert.Equal(t, "History:\n\n\nQuery: How do deals and work orders look?", model.prompts[0])
	assert.Contains(t, model.prompts[1], `"pipeline_by_sector"`)
	assert.Contains(t, model.prompts[1], `"energy":1500`)
	assert.Contains(t, model.prompts[1], "Deal 'Globex' missing amount; treated as 0.")

	// the next turn sees the first exchange as history
	code, _ = postQuery(t, h, "And by customer?", "founder-1")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, model.prompts, 4)
	assert.Contains(t, model.prompts[2], "User: How do deals and work orders look?\nAgent: "+model.answer)

	// malformed classifier output surfaces as a gateway error
	model.decision = `{"needs_deals":"yes"}`
	code, body = postQuery(t, h, "Pipeline?", "founder-2")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "INTENT_PARSING_FAILED", body["error"].(map[string]interface{})["code"])
}
