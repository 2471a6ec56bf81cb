package models

import "time"

// UnknownSector is the bucket for deals without a usable sector.
const UnknownSector = "unknown"

// Deal is the canonical pipeline record regardless of source.
// Sector is always trimmed and lowercase; Amount is always finite and >= 0.
type Deal struct {
	Name      string     `json:"name"`
	Sector    string     `json:"sector"`
	Amount    float64    `json:"amount"`
	CloseDate *time.Time `json:"close_date,omitempty"`
}

// HasCloseDate reports whether the deal carries a usable close date.
func (d Deal) HasCloseDate() bool {
	return d.CloseDate != nil && !d.CloseDate.IsZero()
}
