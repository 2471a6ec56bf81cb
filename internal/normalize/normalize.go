// Package normalize turns loosely-typed source rows into canonical records.
package normalize

import (
	"fmt"

	"founder-bi-agent/internal/models"
)

// Canonical field names used as keys of a ColumnMap.
const (
	FieldName      = "name"
	FieldSector    = "sector"
	FieldAmount    = "amount"
	FieldCloseDate = "close_date"
	FieldStatus    = "status"
	FieldCustomer  = "customer"
)

// RawRecord is one row as a source delivered it.
type RawRecord map[string]interface{}

// ColumnMap maps a canonical field to the key the source uses for it.
// Fields without an entry are looked up under their canonical name.
type ColumnMap map[string]string

// Normalizer canonicalizes records of one source shape.
// Every deal whose amount field is absent or falsy gets one note.
type Normalizer struct {
	Columns ColumnMap
}

func New(columns ColumnMap) *Normalizer {
	return &Normalizer{Columns: columns}
}

func (n *Normalizer) value(raw RawRecord, field string) interface{} {
	key := field
	if mapped, ok := n.Columns[field]; ok && mapped != "" {
		key = mapped
	}
	return raw[key]
}

// Deal canonicalizes a single deal. The returned note is empty unless the
// amount was absent.
func (n *Normalizer) Deal(raw RawRecord) (models.Deal, string) {
	name, _ := textValue(n.value(raw, FieldName))
	sector, _ := textValue(n.value(raw, FieldSector))
	rawAmount := n.value(raw, FieldAmount)

	deal := models.Deal{
		Name:      name,
		Sector:    NormalizeSector(sector),
		Amount:    ParseNumber(rawAmount),
		CloseDate: ParseDate(n.value(raw, FieldCloseDate)),
	}

	var note string
	if isMissing(rawAmount) {
		note = fmt.Sprintf("Deal '%s' missing amount; treated as 0.", displayName(name))
	}
	return deal, note
}

// Deals canonicalizes a batch, collecting at most one note per deal.
func (n *Normalizer) Deals(raws []RawRecord) ([]models.Deal, []string) {
	deals := make([]models.Deal, 0, len(raws))
	var notes []string
	for _, raw := range raws {
		deal, note := n.Deal(raw)
		deals = append(deals, deal)
		if note != "" {
			notes = append(notes, note)
		}
	}
	return deals, notes
}

// WorkOrder canonicalizes a single work order. Missing fields default to "N/A".
func (n *Normalizer) WorkOrder(raw RawRecord) models.WorkOrder {
	name, _ := textValue(n.value(raw, FieldName))
	return models.WorkOrder{
		Name:     name,
		Status:   orNotAvailable(n.value(raw, FieldStatus)),
		Customer: orNotAvailable(n.value(raw, FieldCustomer)),
	}
}

// WorkOrders canonicalizes a batch of work orders.
func (n *Normalizer) WorkOrders(raws []RawRecord) []models.WorkOrder {
	out := make([]models.WorkOrder, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.WorkOrder(raw))
	}
	return out
}

func orNotAvailable(raw interface{}) string {
	if s, ok := textValue(raw); ok {
		return s
	}
	return models.NotAvailable
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}
