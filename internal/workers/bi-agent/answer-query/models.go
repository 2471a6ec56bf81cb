// internal/workers/bi-agent/answer-query/models.go
package answerquery

type Input struct {
	Query     string `json:"query"`
	SessionID string `json:"sessionId"`
}

type Output struct {
	Answer           string   `json:"answer"`
	ToolCalls        []string `json:"toolCalls"`
	DataQualityNotes []string `json:"dataQualityNotes"`
}
