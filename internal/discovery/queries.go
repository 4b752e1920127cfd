package discovery

import (
	"fmt"
	"strings"

	"github.com/austral-labs/enrich-cli/internal/model"
	"github.com/austral-labs/enrich-cli/internal/scorer"
)

// maxQueriesPerRecord caps the query list. Ordering encodes a
// precision-first, recall-last strategy.
const maxQueriesPerRecord = 8

// BuildQueries returns the ordered search queries for a record: the
// exact-quoted name restricted to the country commercial domain first,
// then name+location contact queries, then broad queries, then a
// name-only fallback.
func BuildQueries(record model.Record, kw scorer.Keywords) []string {
	name := scorer.CleanBusinessName(record.Name)
	if name == "" {
		return nil
	}
	location := strings.TrimSpace(record.Location)

	var queries []string
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		for _, existing := range queries {
			if existing == q {
				return
			}
		}
		queries = append(queries, q)
	}

	add(fmt.Sprintf("%q site:*.%s", name, kw.CountryCommercialTLD))
	add(fmt.Sprintf("%q site:*.%s OR site:*.com", name, kw.CountryCommercialTLD))

	if location != "" {
		add(fmt.Sprintf("%s %s contacto", name, location))
		add(fmt.Sprintf("%q %s", name, location))
	}
	if record.LegalName != "" && record.LegalName != record.Name {
		add(fmt.Sprintf("%q sitio oficial", scorer.CleanBusinessName(record.LegalName)))
	}

	add(fmt.Sprintf("%s empresa argentina", name))
	add(fmt.Sprintf("%s contacto", name))
	add(name)

	if len(queries) > maxQueriesPerRecord {
		queries = queries[:maxQueriesPerRecord]
	}
	return queries
}
