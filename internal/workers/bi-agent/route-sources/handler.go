// internal/workers/bi-agent/route-sources/handler.go
package routesources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	apperrors "founder-bi-agent/internal/common/errors"
	"founder-bi-agent/internal/common/metrics"
	"founder-bi-agent/internal/common/spreadsheet"
	"founder-bi-agent/internal/models"
	"founder-bi-agent/internal/normalize"
	"founder-bi-agent/pkg/registry"
)

const (
	TaskType = "route-sources"
)

var (
	ErrUnknownDomain  = errors.New("UNKNOWN_DOMAIN")
	ErrBoardStructure = errors.New("SOURCE_PARSE_FAILED")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// LiveSource returns the raw board items payload for a board.
type LiveSource interface {
	BoardItems(ctx context.Context, boardID string) ([]byte, error)
}

// SpreadsheetSource returns the rows below a header row of a local file.
type SpreadsheetSource interface {
	ReadRows(path, sheet string, headerRow int) ([]spreadsheet.Row, error)
}

type Handler struct {
	config *Config
	live   LiveSource
	sheets SpreadsheetSource
	logger Logger
}

func NewHandler(config *Config, live LiveSource, sheets SpreadsheetSource, log Logger) *Handler {
	return &Handler{
		config: config,
		live:   live,
		sheets: sheets,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute loads every requested domain concurrently. Source failures never
// fail the call; they yield zero records and a note.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	for _, domain := range input.Domains {
		if _, ok := h.config.Descriptors[domain]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
		}
	}

	results := make([]domainResult, len(input.Domains))
	var wg sync.WaitGroup
	for i, domain := range input.Domains {
		wg.Add(1)
		go func(i int, d Descriptor) {
			defer wg.Done()
			results[i] = h.load(ctx, d)
		}(i, h.config.Descriptors[domain])
	}
	wg.Wait()

	output := &Output{
		Deals:      []models.Deal{},
		WorkOrders: []models.WorkOrder{},
		Trace:      []string{},
		Notes:      []string{},
		Sources:    make([]SourceSummary, 0, len(results)),
	}
	for _, r := range results {
		output.Deals = append(output.Deals, r.deals...)
		output.WorkOrders = append(output.WorkOrders, r.workOrders...)
		output.Trace = append(output.Trace, r.trace)
		output.Notes = append(output.Notes, r.notes...)
		output.Sources = append(output.Sources, r.summary)
	}
	return output, nil
}

func (h *Handler) load(ctx context.Context, d Descriptor) domainResult {
	var (
		raws []normalize.RawRecord
		err  error
	)
	if d.Kind == registry.KindLive {
		raws, err = h.fetchBoard(ctx, d)
	} else {
		raws, err = h.readFallback(d)
	}

	label := d.Domain.Label()
	if err != nil {
		stdErr := sourceError(d, err)
		h.logger.Warn("source unavailable, continuing without records", map[string]interface{}{
			"domain":    string(d.Domain),
			"kind":      d.Kind,
			"errorCode": string(stdErr.Code),
			"error":     err.Error(),
		})
		metrics.SourceFetches.WithLabelValues(string(d.Domain), d.Kind, "failed").Inc()
		metrics.DataQualityNotes.WithLabelValues(string(d.Domain)).Inc()
		return domainResult{
			summary: SourceSummary{
				Domain:    d.Domain,
				Kind:      d.Kind,
				Failed:    true,
				ErrorCode: string(stdErr.Code),
			},
			trace: failureTrace(d, label),
			notes: []string{failureNote(d, label, stdErr)},
		}
	}

	result := domainResult{}
	count := 0
	n := normalize.New(d.Columns)
	switch d.Domain {
	case models.DomainDeals:
		result.deals, result.notes = n.Deals(raws)
		count = len(result.deals)
	case models.DomainWorkOrders:
		result.workOrders = n.WorkOrders(raws)
		count = len(result.workOrders)
	}
	result.trace = successTrace(d, label, count)
	result.summary = SourceSummary{Domain: d.Domain, Kind: d.Kind, Records: count}

	metrics.SourceFetches.WithLabelValues(string(d.Domain), d.Kind, "ok").Inc()
	if len(result.notes) > 0 {
		metrics.DataQualityNotes.WithLabelValues(string(d.Domain)).Add(float64(len(result.notes)))
	}

	h.logger.Info("source loaded", map[string]interface{}{
		"domain":  string(d.Domain),
		"kind":    d.Kind,
		"records": count,
		"notes":   len(result.notes),
	})
	return result
}

func (h *Handler) fetchBoard(ctx context.Context, d Descriptor) ([]normalize.RawRecord, error) {
	if h.live == nil {
		return nil, fmt.Errorf("no live source client configured")
	}
	body, err := h.live.BoardItems(ctx, d.BoardID)
	if err != nil {
		return nil, err
	}
	return DecodeBoard(body)
}

// DecodeBoard flattens a board items payload into records keyed by column
// identifier, plus "name". Any deviation from the expected nesting is an
// ErrBoardStructure.
func DecodeBoard(body []byte) ([]normalize.RawRecord, error) {
	var resp boardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBoardStructure, err)
	}
	if resp.Data == nil || len(resp.Data.Boards) == 0 {
		return nil, fmt.Errorf("%w: no boards in response", ErrBoardStructure)
	}
	page := resp.Data.Boards[0].ItemsPage
	if page == nil || page.Items == nil {
		return nil, fmt.Errorf("%w: board has no items page", ErrBoardStructure)
	}

	records := make([]normalize.RawRecord, 0, len(page.Items))
	for i, item := range page.Items {
		if item.Name == nil {
			return nil, fmt.Errorf("%w: item %d has no name", ErrBoardStructure, i)
		}
		record := normalize.RawRecord{normalize.FieldName: *item.Name}
		for _, col := range item.ColumnValues {
			if col.Text == nil {
				record[col.ID] = nil
				continue
			}
			record[col.ID] = *col.Text
		}
		records = append(records, record)
	}
	return records, nil
}

func (h *Handler) readFallback(d Descriptor) ([]normalize.RawRecord, error) {
	rows, err := h.sheets.ReadRows(d.Path, d.Sheet, d.HeaderRow)
	if err != nil {
		return nil, err
	}
	records := make([]normalize.RawRecord, 0, len(rows))
	for _, row := range rows {
		record := make(normalize.RawRecord, len(row))
		for k, v := range row {
			record[k] = v
		}
		records = append(records, record)
	}
	return records, nil
}

func successTrace(d Descriptor, label string, count int) string {
	if d.Kind == registry.KindLive {
		return fmt.Sprintf("Fetched %d %s records from board %s via live API", count, label, d.BoardID)
	}
	return fmt.Sprintf("Board ID for %s not configured; loaded %d records from fallback file '%s'", label, count, d.Path)
}

func failureTrace(d Descriptor, label string) string {
	if d.Kind == registry.KindLive {
		return fmt.Sprintf("Live fetch of %s board %s returned no usable data; 0 records", label, d.BoardID)
	}
	return fmt.Sprintf("Board ID for %s not configured; fallback file '%s' unavailable; 0 records", label, d.Path)
}

// sourceError classifies a per-domain load failure.
func sourceError(d Descriptor, err error) *apperrors.StandardError {
	switch {
	case d.Kind == registry.KindLive && errors.Is(err, ErrBoardStructure):
		return apperrors.NewSourceParseFailedError(d.BoardID, err)
	case d.Kind == registry.KindLive:
		return apperrors.NewLiveSourceFailedError(d.BoardID, err)
	case errors.Is(err, spreadsheet.ErrFileNotFound):
		return apperrors.NewFallbackFileMissingError(d.Path)
	default:
		return apperrors.NewFallbackFileUnreadableError(d.Path, err)
	}
}

func failureNote(d Descriptor, label string, err *apperrors.StandardError) string {
	switch err.Code {
	case apperrors.ErrCodeSourceParseFailed:
		return fmt.Sprintf("Failed to parse %s board structure (board %s); no %s records available.", label, d.BoardID, label)
	case apperrors.ErrCodeLiveSourceFailed:
		return fmt.Sprintf("Failed to fetch %s board %s (%s); no %s records available.", label, d.BoardID, err.Details, label)
	case apperrors.ErrCodeFallbackFileMissing:
		return fmt.Sprintf("Fallback file '%s' for %s not found; no %s records available.", d.Path, label, label)
	default:
		return fmt.Sprintf("Fallback file '%s' for %s could not be read; no %s records available.", d.Path, label, label)
	}
}
