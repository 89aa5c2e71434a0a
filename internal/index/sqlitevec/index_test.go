package sqlitevec

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/vintry/sommelier/pkg/somm/pipeline"
)

// fixedEmbedder maps texts to canned vectors, keyed on exact content.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (e *fixedEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no canned vector for %q", text)
	}
	return v, nil
}

func (e *fixedEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no canned vector for %q", text)
		}
		out[i] = v
	}
	return out, nil
}

// openTestIndex builds an in-memory index holding three wines whose
// embeddings sit at known cosine distances from the "dry earthy red" query
// vector: Malbec A at 0, Cabernet B at 0.2, Floral C at 1. Insertion order
// deliberately differs from similarity order.
func openTestIndex(t *testing.T) *Index {
	t.Helper()

	emb := &fixedEmbedder{vectors: map[string][]float32{
		"dry earthy red":               {1, 0, 0},
		"Firm tannins and dark fruit.": {1, 0, 0},
		"Bold with a smoky finish.":    {0.8, 0.6, 0},
		"Bright, floral and delicate.": {0, 1, 0},
	}}
	// A file under t.TempDir() rather than ":memory:": the connection pool
	// would give each pooled connection its own empty in-memory database.
	idx, err := Open(filepath.Join(t.TempDir(), "wines.db"), emb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() {
		_ = idx.Close()
	})

	records := []Record{
		{Name: "Floral C", Description: "Bright, floral and delicate.", Country: "France", Province: "Alsace", Variety: "Riesling", Winery: "Domaine C"},
		{Name: "Malbec A", Description: "Firm tannins and dark fruit.", Country: "Argentina", Province: "Mendoza", Variety: "Malbec", Winery: "Bodega A"},
		{Name: "Cabernet B", Description: "Bold with a smoky finish.", Country: "Chile", Province: "Maipo", Variety: "Cabernet Sauvignon", Winery: "Vina B"},
	}
	if err := idx.Add(context.Background(), records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return idx
}

func TestIndexSimilaritySearchBestFirst(t *testing.T) {
	t.Parallel()

	idx := openTestIndex(t)
	ctx := context.Background()

	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 indexed wines, got %d", n)
	}

	docs, err := idx.SimilaritySearch(ctx, "dry earthy red", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantOrder := []string{"Malbec A", "Cabernet B", "Floral C"}
	if len(docs) != len(wantOrder) {
		t.Fatalf("expected %d documents, got %d", len(wantOrder), len(docs))
	}
	for i, want := range wantOrder {
		if got := docs[i].Metadata[pipeline.MetaName]; got != want {
			t.Fatalf("position %d: want %q got %q", i, want, got)
		}
	}

	best := docs[0]
	if best.Content != "Firm tannins and dark fruit." {
		t.Fatalf("unexpected content: %q", best.Content)
	}
	if best.Metadata[pipeline.MetaCountry] != "Argentina" ||
		best.Metadata[pipeline.MetaProvince] != "Mendoza" ||
		best.Metadata[pipeline.MetaVariety] != "Malbec" ||
		best.Metadata[pipeline.MetaWinery] != "Bodega A" {
		t.Fatalf("unexpected metadata: %#v", best.Metadata)
	}
}

func TestIndexSimilaritySearchHonorsK(t *testing.T) {
	t.Parallel()

	idx := openTestIndex(t)
	ctx := context.Background()

	docs, err := idx.SimilaritySearch(ctx, "dry earthy red", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Metadata[pipeline.MetaName] != "Malbec A" || docs[1].Metadata[pipeline.MetaName] != "Cabernet B" {
		t.Fatalf("unexpected order: %q, %q", docs[0].Metadata[pipeline.MetaName], docs[1].Metadata[pipeline.MetaName])
	}

	for _, k := range []int{0, -1} {
		docs, err := idx.SimilaritySearch(ctx, "dry earthy red", k)
		if err != nil {
			t.Fatalf("k=%d: unexpected error: %v", k, err)
		}
		if docs != nil {
			t.Fatalf("k=%d: expected nil, got %d documents", k, len(docs))
		}
	}
}

func TestEncodeVectorLittleEndian(t *testing.T) {
	t.Parallel()

	in := []float32{1.5, -2.25, 0}
	blob := encodeVector(in)
	if len(blob) != 4*len(in) {
		t.Fatalf("expected %d bytes, got %d", 4*len(in), len(blob))
	}
	for i, want := range in {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		if got := math.Float32frombits(bits); got != want {
			t.Fatalf("value %d: want %v got %v", i, want, got)
		}
	}
}

func TestEncodeVectorEmpty(t *testing.T) {
	t.Parallel()

	if blob := encodeVector(nil); len(blob) != 0 {
		t.Fatalf("expected empty blob, got %d bytes", len(blob))
	}
}
