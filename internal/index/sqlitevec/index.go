// Package sqlitevec implements the wine vector index on SQLite with the
// sqlite-vec extension. The offline ingestion job writes it; the pipeline
// only reads it through SimilaritySearch.
package sqlitevec

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vintry/sommelier/internal/embedding"
	"github.com/vintry/sommelier/pkg/somm/pipeline"
)

func init() {
	// Register the sqlite-vec extension with the mattn/go-sqlite3 driver.
	vec.Auto()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS wines (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	description TEXT NOT NULL,
	country   TEXT NOT NULL DEFAULT '',
	province  TEXT NOT NULL DEFAULT '',
	variety   TEXT NOT NULL DEFAULT '',
	winery    TEXT NOT NULL DEFAULT '',
	embedding BLOB NOT NULL
);
`

// Record is one wine to index.
type Record struct {
	Name        string
	Description string
	Country     string
	Province    string
	Variety     string
	Winery      string
}

// Index is a sqlite-vec backed pipeline.VectorIndex.
type Index struct {
	db       *sql.DB
	embedder embedding.Embedder
}

// Open opens (creating if needed) the index database at path.
func Open(path string, embedder embedding.Embedder) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("sqlitevec: embedder is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index %q: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create index schema: %w", err)
	}
	return &Index{db: db, embedder: embedder}, nil
}

func (x *Index) Close() error {
	return x.db.Close()
}

// Count returns the number of indexed wines.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wines`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// embedBatchSize bounds one EmbedDocuments call during ingestion.
const embedBatchSize = 32

// Add embeds the records' descriptions and inserts them.
func (x *Index) Add(ctx context.Context, records []Record) error {
	for start := 0; start < len(records); start += embedBatchSize {
		end := min(start+embedBatchSize, len(records))
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Description
		}
		vecs, err := x.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch starting at %d: %w", start, err)
		}

		tx, err := x.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for i, r := range batch {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO wines (name, description, country, province, variety, winery, embedding)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				r.Name, r.Description, r.Country, r.Province, r.Variety, r.Winery,
				encodeVector(vecs[i]),
			)
			if err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("insert %q: %w", r.Name, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// SimilaritySearch embeds the query and returns the k nearest wines by
// cosine distance, best first.
func (x *Index) SimilaritySearch(ctx context.Context, query string, k int) ([]pipeline.Document, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVec, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT name, description, country, province, variety, winery,
		       vec_distance_cosine(embedding, ?) AS distance
		FROM wines
		ORDER BY distance ASC
		LIMIT ?`,
		encodeVector(queryVec), k,
	)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var docs []pipeline.Document
	for rows.Next() {
		var name, description, country, province, variety, winery string
		var distance float64
		if err := rows.Scan(&name, &description, &country, &province, &variety, &winery, &distance); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		docs = append(docs, pipeline.Document{
			Content: description,
			Metadata: map[string]string{
				pipeline.MetaName:     name,
				pipeline.MetaCountry:  country,
				pipeline.MetaProvince: province,
				pipeline.MetaVariety:  variety,
				pipeline.MetaWinery:   winery,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// encodeVector encodes a float32 slice as the little-endian blob sqlite-vec
// expects.
func encodeVector(v []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		// Cannot happen with bytes.Buffer.
		return nil
	}
	return buf.Bytes()
}
