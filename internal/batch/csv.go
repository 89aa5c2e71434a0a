package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vintry/sommelier/pkg/somm/pipeline"
)

// FlavorSeparator joins multiple flavors inside one CSV cell.
const FlavorSeparator = "; "

var inputColumns = []string{"taste", "experience", "wine_color", "flavors", "pairing", "complement"}

// ReadPreferencesCSV reads preference rows from an input CSV. Extra columns
// are ignored; the six preference columns must exist. Flavors are split on
// ";" within their cell.
func ReadPreferencesCSV(r io.Reader) ([]pipeline.Preferences, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range inputColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	get := func(rec []string, col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var prefs []pipeline.Preferences
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return prefs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		prefs = append(prefs, pipeline.Preferences{
			Taste:      get(rec, "taste"),
			Experience: get(rec, "experience"),
			WineColor:  get(rec, "wine_color"),
			Flavors:    splitFlavors(get(rec, "flavors")),
			Pairing:    get(rec, "pairing"),
			Complement: get(rec, "complement"),
		})
	}
}

func splitFlavors(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WriteCSV writes rows as a CSV with the stable Header() ordering.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Taste,
			r.Experience,
			r.WineColor,
			r.Flavors,
			r.Pairing,
			r.Complement,
			r.Query,
			r.Recommendation,
			r.Explanation,
			r.Country,
			r.Province,
			r.Variety,
			r.Winery,
			r.Status,
			r.Error,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
