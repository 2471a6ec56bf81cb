package models

// AnalysisResult is the aggregate handed to the response synthesizer.
type AnalysisResult struct {
	PipelineBySector            map[string]float64 `json:"pipeline_by_sector"`
	AverageDealSize             float64            `json:"average_deal_size"`
	TotalDealsCount             int                `json:"total_deals_count"`
	WorkOrdersCount             int                `json:"work_orders_count"`
	WorkOrderStatusDistribution map[string]int     `json:"work_order_status_distribution"`
}
