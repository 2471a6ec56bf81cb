// internal/models/domain.go
package models

// Domain identifies one of the data categories a query can draw on.
type Domain string

const (
	DomainDeals      Domain = "deals"
	DomainWorkOrders Domain = "work_orders"
)

// Domains lists every domain in the order results are reported.
var Domains = []Domain{DomainDeals, DomainWorkOrders}

// Label returns the human-readable name used in traces and notes.
func (d Domain) Label() string {
	switch d {
	case DomainDeals:
		return "Deals"
	case DomainWorkOrders:
		return "Work Orders"
	default:
		return string(d)
	}
}
