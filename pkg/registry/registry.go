// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LoadRegistry reads a registry file and overlays it on the built-in shapes.
// Shapes in the file replace built-ins with the same domain and kind.
func LoadRegistry(path string) (*SourceRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg SourceRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	for _, s := range reg.Shapes {
		if s.Domain == "" || (s.Kind != KindLive && s.Kind != KindFallback) {
			return nil, fmt.Errorf("registry %s: shape %q needs a domain and a kind of %q or %q", path, s.ID, KindLive, KindFallback)
		}
	}

	merged := Default()
	for _, s := range reg.Shapes {
		merged.put(s)
	}
	if reg.Version != "" {
		merged.Version = reg.Version
	}
	merged.LastUpdated = reg.LastUpdated
	return merged, nil
}

// SaveRegistry writes reg as indented JSON, stamping LastUpdated.
func SaveRegistry(reg *SourceRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Validate checks that shape IDs are unique, that each (domain, kind) pair
// appears once and that every shape maps the name field.
func (r *SourceRegistry) Validate() error {
	if len(r.Shapes) == 0 {
		return fmt.Errorf("registry contains no shapes")
	}
	ids := make(map[string]bool)
	pairs := make(map[string]bool)
	for _, s := range r.Shapes {
		if s.ID == "" {
			return fmt.Errorf("shape for %s/%s missing required field: id", s.Domain, s.Kind)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate shape id: %s", s.ID)
		}
		ids[s.ID] = true

		pair := s.Domain + "/" + s.Kind
		if pairs[pair] {
			return fmt.Errorf("more than one shape for %s", pair)
		}
		pairs[pair] = true

		if s.Columns["name"] == "" {
			return fmt.Errorf("shape %s does not map the name field", s.ID)
		}
		if s.HeaderRow < 0 {
			return fmt.Errorf("shape %s has a negative header row", s.ID)
		}
	}
	return nil
}

// Lookup returns the shape registered for a domain and kind.
func (r *SourceRegistry) Lookup(domain, kind string) (SourceShape, bool) {
	for _, s := range r.Shapes {
		if s.Domain == domain && s.Kind == kind {
			return s, true
		}
	}
	return SourceShape{}, false
}

func (r *SourceRegistry) put(shape SourceShape) {
	for i, s := range r.Shapes {
		if s.Domain == shape.Domain && s.Kind == shape.Kind {
			r.Shapes[i] = shape
			return
		}
	}
	r.Shapes = append(r.Shapes, shape)
}

// Default returns the shapes of the production boards and tracker spreadsheets.
func Default() *SourceRegistry {
	return &SourceRegistry{
		Version: "1",
		Shapes: []SourceShape{
			{
				ID:          "monday-deals",
				Domain:      "deals",
				Kind:        KindLive,
				Description: "Deals board column identifiers",
				Columns: map[string]string{
					"name":       "name",
					"sector":     "sector",
					"amount":     "amount",
					"close_date": "close_date",
				},
			},
			{
				ID:          "monday-work-orders",
				Domain:      "work_orders",
				Kind:        KindLive,
				Description: "Work orders board column identifiers",
				Columns: map[string]string{
					"name":     "name",
					"status":   "status",
					"customer": "customer",
				},
			},
			{
				ID:          "excel-deal-funnel",
				Domain:      "deals",
				Kind:        KindFallback,
				Description: "Deal funnel spreadsheet, header on the first row",
				HeaderRow:   1,
				Columns: map[string]string{
					"name":       "Deal Name",
					"sector":     "Sector/service",
					"amount":     "Masked Deal value",
					"close_date": "Close Date (A)",
				},
			},
			{
				ID:          "excel-work-order-tracker",
				Domain:      "work_orders",
				Kind:        KindFallback,
				Description: "Work order tracker spreadsheet, header on the second row",
				HeaderRow:   2,
				Columns: map[string]string{
					"name":     "Deal name masked",
					"status":   "Execution Status",
					"customer": "Customer Name Code",
				},
			},
		},
	}
}
