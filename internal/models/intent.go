// internal/models/intent.go
package models

// IntentDecision is the structured classification returned by the language model.
// ClarificationMessage is required whenever RequiresClarification is set.
type IntentDecision struct {
	NeedsDeals            bool    `json:"needs_deals"`
	NeedsWorkOrders       bool    `json:"needs_work_orders"`
	RequiresClarification bool    `json:"requires_clarification"`
	ClarificationMessage  *string `json:"clarification_message"`
	AnalysisPlan          string  `json:"analysis_plan"`
}

// Domains returns the domains the decision asks to fetch, in reporting order.
func (d *IntentDecision) Domains() []Domain {
	var out []Domain
	if d.NeedsDeals {
		out = append(out, DomainDeals)
	}
	if d.NeedsWorkOrders {
		out = append(out, DomainWorkOrders)
	}
	return out
}
