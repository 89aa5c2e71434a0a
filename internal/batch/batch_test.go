package batch_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/vintry/sommelier/internal/batch"
	"github.com/vintry/sommelier/pkg/somm/pipeline"
)

// testRunner recommends the wine named by the pairing, or fails on demand.
type testRunner struct{}

func (testRunner) Run(_ context.Context, prefs pipeline.Preferences) (pipeline.Recommendation, error) {
	if prefs.Complement == "fail" {
		return pipeline.Recommendation{}, errors.New("test runner: forced error")
	}
	rec := pipeline.Recommendation{
		Query:        "query for " + prefs.Pairing,
		RawSelection: "Cabernet B",
		Explanation:  "pairs well",
	}
	if prefs.Complement != "unmatched" {
		rec.Selected = &pipeline.Candidate{
			Name:    "Cabernet B",
			Country: "Argentina",
			Variety: "Cabernet Sauvignon",
			Winery:  "Bodega B",
		}
	}
	return rec, nil
}

func validPrefs(complement string) pipeline.Preferences {
	return pipeline.Preferences{
		Taste:      "Dry",
		Experience: "Novice (just starting)",
		WineColor:  "Prefer red",
		Flavors:    []string{"Earthy", "Spicy"},
		Pairing:    "Red meat dish",
		Complement: complement,
	}
}

func TestRecommendAll(t *testing.T) {
	t.Parallel()

	prefs := []pipeline.Preferences{
		validPrefs(""),
		validPrefs("fail"),
		validPrefs("unmatched"),
	}

	rows, err := batch.RecommendAll(context.Background(), prefs, testRunner{}, batch.Options{Workers: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	if rows[0].Status != "ok" || rows[0].Recommendation != "Cabernet B" || rows[0].Country != "Argentina" {
		t.Fatalf("unexpected row[0]: %#v", rows[0])
	}
	if rows[0].Flavors != "Earthy; Spicy" {
		t.Fatalf("unexpected flavors cell: %q", rows[0].Flavors)
	}

	if rows[1].Status != "error" || !strings.Contains(rows[1].Error, "forced error") {
		t.Fatalf("unexpected row[1]: %#v", rows[1])
	}

	// Unreconciled runs keep the recommendation text but no metadata.
	if rows[2].Status != "ok" || rows[2].Recommendation != "Cabernet B" || rows[2].Country != "" {
		t.Fatalf("unexpected row[2]: %#v", rows[2])
	}
}

func TestRecommendAllValidatesPreferences(t *testing.T) {
	t.Parallel()

	bad := validPrefs("")
	bad.Taste = "Crisp"

	rows, err := batch.RecommendAll(context.Background(), []pipeline.Preferences{bad}, testRunner{}, batch.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Status != "error" || !strings.Contains(rows[0].Error, "invalid taste") {
		t.Fatalf("unexpected row: %#v", rows[0])
	}
}

func TestReadPreferencesCSV(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"taste,experience,wine_color,flavors,pairing,complement,notes",
		`Dry,Novice (just starting),Prefer red,"Earthy; Spicy",Red meat dish,,ignored`,
		`Sweet,Casual drinker (have tried a few),Prefer white,,Dessert,with friends,ignored`,
		"",
	}, "\n")

	prefs, err := batch.ReadPreferencesCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prefs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(prefs))
	}
	if prefs[0].Taste != "Dry" || len(prefs[0].Flavors) != 2 || prefs[0].Flavors[1] != "Spicy" {
		t.Fatalf("unexpected prefs[0]: %#v", prefs[0])
	}
	if prefs[1].Flavors != nil || prefs[1].Complement != "with friends" {
		t.Fatalf("unexpected prefs[1]: %#v", prefs[1])
	}
}

func TestReadPreferencesCSVMissingColumn(t *testing.T) {
	t.Parallel()

	in := "taste,experience,wine_color,pairing,complement\nDry,x,y,z,\n"
	_, err := batch.ReadPreferencesCSV(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), `"flavors"`) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := batch.WriteCSV(&buf, []batch.Row{{
		Taste:          "Dry",
		Recommendation: "Cabernet B",
		Status:         "ok",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cr := csv.NewReader(bytes.NewReader(buf.Bytes()))
	records, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}

	wantHeader := batch.Header()
	if len(records[0]) != len(wantHeader) {
		t.Fatalf("unexpected header len: got %d want %d", len(records[0]), len(wantHeader))
	}
	for i := range wantHeader {
		if records[0][i] != wantHeader[i] {
			t.Fatalf("header[%d]: want %q got %q", i, wantHeader[i], records[0][i])
		}
	}
	if records[1][0] != "Dry" || records[1][7] != "Cabernet B" || records[1][13] != "ok" {
		t.Fatalf("unexpected row: %#v", records[1])
	}
}
