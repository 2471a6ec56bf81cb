// internal/workers/bi-agent/synthesize-response/models.go
package synthesizeresponse

import "founder-bi-agent/internal/models"

type Input struct {
	Query    string                `json:"query"`
	Analysis models.AnalysisResult `json:"analysis"`
	Notes    []string              `json:"notes"`
}

type Output struct {
	Answer string `json:"answer"`
}
