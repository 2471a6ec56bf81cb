// internal/workers/bi-agent/route-sources/config.go
package routesources

import (
	"fmt"

	"founder-bi-agent/internal/common/config"
	"founder-bi-agent/internal/models"
	"founder-bi-agent/internal/normalize"
	"founder-bi-agent/pkg/registry"
)

// Descriptor is where one domain's records come from, resolved once at startup.
type Descriptor struct {
	Domain    models.Domain
	Kind      string // registry.KindLive or registry.KindFallback
	BoardID   string
	Path      string
	Sheet     string
	HeaderRow int
	Columns   normalize.ColumnMap
}

type Config struct {
	Descriptors map[models.Domain]Descriptor
}

// Resolve picks the live board for every domain with a board ID and the
// fallback file for the rest, with column maps from the registry.
func Resolve(sources config.SourcesConfig, reg *registry.SourceRegistry) (*Config, error) {
	if reg == nil {
		reg = registry.Default()
	}

	perDomain := map[models.Domain]config.SourceConfig{
		models.DomainDeals:      sources.Deals,
		models.DomainWorkOrders: sources.WorkOrders,
	}

	cfg := &Config{Descriptors: make(map[models.Domain]Descriptor, len(perDomain))}
	for domain, src := range perDomain {
		kind := registry.KindFallback
		if src.BoardID != "" {
			kind = registry.KindLive
		}

		shape, ok := reg.Lookup(string(domain), kind)
		if !ok {
			return nil, fmt.Errorf("no %s source shape registered for domain %s", kind, domain)
		}

		d := Descriptor{
			Domain:  domain,
			Kind:    kind,
			Columns: normalize.ColumnMap(shape.Columns),
		}
		if kind == registry.KindLive {
			d.BoardID = src.BoardID
		} else {
			d.Path = src.FallbackPath
			d.Sheet = src.Sheet
			d.HeaderRow = src.HeaderRow
			if d.HeaderRow == 0 {
				d.HeaderRow = shape.HeaderRow
			}
			if d.HeaderRow == 0 {
				d.HeaderRow = 1
			}
		}
		cfg.Descriptors[domain] = d
	}
	return cfg, nil
}
