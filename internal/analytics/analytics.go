// Package analytics aggregates canonical records. Every function is pure.
package analytics

import (
	"strings"
	"time"

	"founder-bi-agent/internal/models"
)

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// FilterCurrentQuarter keeps deals that close in the same year and quarter as ref.
// Deals without a close date are dropped.
func FilterCurrentQuarter(deals []models.Deal, ref time.Time) []models.Deal {
	year, quarter := ref.Year(), Quarter(ref)

	filtered := make([]models.Deal, 0, len(deals))
	for _, d := range deals {
		if !d.HasCloseDate() {
			continue
		}
		if d.CloseDate.Year() == year && Quarter(*d.CloseDate) == quarter {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// PipelineBySector sums deal amounts per sector.
func PipelineBySector(deals []models.Deal) map[string]float64 {
	result := make(map[string]float64)
	for _, d := range deals {
		sector := d.Sector
		if sector == "" {
			sector = models.UnknownSector
		}
		result[sector] += d.Amount
	}
	return result
}

// AverageDealSize is the mean amount, or 0 for no deals.
func AverageDealSize(deals []models.Deal) float64 {
	if len(deals) == 0 {
		return 0
	}
	var total float64
	for _, d := range deals {
		total += d.Amount
	}
	return total / float64(len(deals))
}

// StatusDistribution counts work orders per status; blank statuses land in "N/A".
func StatusDistribution(workOrders []models.WorkOrder) map[string]int {
	result := make(map[string]int)
	for _, wo := range workOrders {
		status := strings.TrimSpace(wo.Status)
		if status == "" {
			status = models.NotAvailable
		}
		result[status]++
	}
	return result
}

// Analyze builds the full aggregate for the synthesizer.
func Analyze(deals []models.Deal, workOrders []models.WorkOrder) models.AnalysisResult {
	return models.AnalysisResult{
		PipelineBySector:            PipelineBySector(deals),
		AverageDealSize:             AverageDealSize(deals),
		TotalDealsCount:             len(deals),
		WorkOrdersCount:             len(workOrders),
		WorkOrderStatusDistribution: StatusDistribution(workOrders),
	}
}

// WantsCurrentQuarter reports whether a question is scoped to the current quarter.
func WantsCurrentQuarter(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "quarter") || strings.Contains(q, "current")
}
