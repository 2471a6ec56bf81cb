// pkg/registry/schema.go
package registry

const (
	KindLive     = "live"
	KindFallback = "fallback"
)

// SourceRegistry describes how each source lays out its columns.
type SourceRegistry struct {
	Version     string        `json:"version"`
	LastUpdated string        `json:"lastUpdated"`
	Shapes      []SourceShape `json:"shapes"`
}

// SourceShape maps canonical field names to the keys a source exposes.
// Live boards expose column identifiers; spreadsheets expose header text.
type SourceShape struct {
	ID          string            `json:"id"`
	Domain      string            `json:"domain"`
	Kind        string            `json:"kind"`
	Description string            `json:"description,omitempty"`
	HeaderRow   int               `json:"headerRow,omitempty"`
	Columns     map[string]string `json:"columns"`
}
