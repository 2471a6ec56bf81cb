// internal/workers/bi-agent/classify-intent/models.go
package classifyintent

type Input struct {
	Query   string `json:"query"`
	History string `json:"history"`
}
