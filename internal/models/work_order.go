package models

// NotAvailable is the default for work order fields missing in the source.
const NotAvailable = "N/A"

// WorkOrder is the canonical operations record regardless of source.
type WorkOrder struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Customer string `json:"customer"`
}
