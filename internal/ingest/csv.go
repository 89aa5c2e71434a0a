// Package ingest reads the wine reviews corpus CSV that feeds the offline
// index build.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Wine is one corpus row worth indexing.
type Wine struct {
	Title       string
	Description string
	Country     string
	Province    string
	Variety     string
	Winery      string
}

// requiredColumns are the corpus columns the index build consumes. The
// winemag reviews export carries more; extras are ignored.
var requiredColumns = []string{"title", "description", "country", "province", "variety", "winery"}

// ReadWines reads corpus rows from a CSV export. Rows without a title or a
// description cannot be indexed and are skipped.
func ReadWines(r io.Reader) ([]Wine, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	get := func(rec []string, col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var wines []Wine
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return wines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		w := Wine{
			Title:       get(rec, "title"),
			Description: get(rec, "description"),
			Country:     get(rec, "country"),
			Province:    get(rec, "province"),
			Variety:     get(rec, "variety"),
			Winery:      get(rec, "winery"),
		}
		if w.Title == "" || w.Description == "" {
			continue
		}
		wines = append(wines, w)
	}
}
