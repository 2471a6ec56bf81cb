// internal/models/query.go
package models

// QueryRequest is the caller's input to the orchestrator.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// QueryResponse is the terminal output of every query, degraded or not.
type QueryResponse struct {
	Answer           string   `json:"answer"`
	ToolCalls        []string `json:"tool_calls"`
	DataQualityNotes []string `json:"data_quality_notes"`
}

// NewQueryResponse builds a response whose slices always encode as JSON arrays.
func NewQueryResponse(answer string, trace, notes []string) *QueryResponse {
	if trace == nil {
		trace = []string{}
	}
	if notes == nil {
		notes = []string{}
	}
	return &QueryResponse{
		Answer:           answer,
		ToolCalls:        trace,
		DataQualityNotes: notes,
	}
}
