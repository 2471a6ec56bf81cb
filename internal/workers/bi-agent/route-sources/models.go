// internal/workers/bi-agent/route-sources/models.go
package routesources

import (
	"encoding/json"

	"founder-bi-agent/internal/models"
)

type Input struct {
	Domains []models.Domain `json:"domains"`
}

// Output holds canonical records of every requested domain, with trace
// entries and notes in domain order.
type Output struct {
	Deals      []models.Deal      `json:"deals"`
	WorkOrders []models.WorkOrder `json:"workOrders"`
	Trace      []string           `json:"trace"`
	Notes      []string           `json:"notes"`
	Sources    []SourceSummary    `json:"sources"`
}

// SourceSummary records which source served a domain.
type SourceSummary struct {
	Domain    models.Domain `json:"domain"`
	Kind      string        `json:"kind"`
	Records   int           `json:"records"`
	Failed    bool          `json:"failed"`
	ErrorCode string        `json:"errorCode,omitempty"`
}

type domainResult struct {
	summary    SourceSummary
	deals      []models.Deal
	workOrders []models.WorkOrder
	trace      string
	notes      []string
}

// boardResponse mirrors the board items query. Pointers and nil slices mark
// keys that were absent from the payload.
type boardResponse struct {
	Data *struct {
		Boards []struct {
			ItemsPage *struct {
				Items []boardItem `json:"items"`
			} `json:"items_page"`
		} `json:"boards"`
	} `json:"data"`
}

type boardItem struct {
	ID           string        `json:"id"`
	Name         *string       `json:"name"`
	ColumnValues []columnValue `json:"column_values"`
}

type columnValue struct {
	ID    string          `json:"id"`
	Text  *string         `json:"text"`
	Value json.RawMessage `json:"value"`
}
