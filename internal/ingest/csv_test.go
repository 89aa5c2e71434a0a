package ingest_test

import (
	"strings"
	"testing"

	"github.com/vintry/sommelier/internal/ingest"
)

func TestReadWines(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		",country,description,designation,points,price,province,region_1,title,variety,winery",
		`0,Argentina,"Ripe and earthy, with spice.",Reserva,90,25,Mendoza,Uco Valley,Bodega X Malbec 2019,Malbec,Bodega X`,
		`1,Italy,,,88,18,Tuscany,,Nameless Red,Sangiovese,Someone`,
		`2,France,"Crisp citrus and brioche.",,92,40,Champagne,,,Chardonnay,Maison Y`,
		`3,Portugal,"Dense dark fruit.",,89,15,Douro,,Quinta Z Tinto 2020,Touriga Nacional,Quinta Z`,
		"",
	}, "\n")

	wines, err := ingest.ReadWines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rows without a description or title are skipped.
	if len(wines) != 2 {
		t.Fatalf("expected 2 wines, got %d: %#v", len(wines), wines)
	}
	if wines[0].Title != "Bodega X Malbec 2019" || wines[0].Province != "Mendoza" || wines[0].Winery != "Bodega X" {
		t.Fatalf("unexpected wines[0]: %#v", wines[0])
	}
	if wines[1].Title != "Quinta Z Tinto 2020" || wines[1].Country != "Portugal" {
		t.Fatalf("unexpected wines[1]: %#v", wines[1])
	}
}

func TestReadWinesMissingColumn(t *testing.T) {
	t.Parallel()

	in := "country,description,province,variety,winery\nArgentina,desc,Mendoza,Malbec,Bodega\n"
	_, err := ingest.ReadWines(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), `"title"`) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}
