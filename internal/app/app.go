// Package app wires the collaborators (generation provider, embedding
// client, vector index) into pipeline runs and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vintry/sommelier/internal/batch"
	"github.com/vintry/sommelier/internal/config"
	"github.com/vintry/sommelier/internal/embedding"
	"github.com/vintry/sommelier/internal/index/sqlitevec"
	"github.com/vintry/sommelier/internal/ingest"
	"github.com/vintry/sommelier/internal/llm/gemini"
	"github.com/vintry/sommelier/pkg/somm/pipeline"
)

// App runs the CLI-facing flows.
type App struct {
	cfg    config.Config
	logger *log.Logger
	out    io.Writer
}

func New(cfg config.Config, logger *log.Logger, out io.Writer) *App {
	return &App{cfg: cfg, logger: logger, out: out}
}

// openIndex builds the embedding client and opens the vector index.
func (a *App) openIndex(ctx context.Context) (*sqlitevec.Index, error) {
	embedder, err := embedding.NewGemini(ctx, embedding.GeminiConfig{
		APIKey: a.cfg.Gemini.APIKey,
		Model:  a.cfg.Gemini.EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}
	return sqlitevec.Open(a.cfg.Index.Path, embedder)
}

// buildPipeline constructs one pipeline with traced generation calls and
// state-transition logging under runID.
func (a *App) buildPipeline(ctx context.Context, runID string, idx pipeline.VectorIndex) (*pipeline.Pipeline, error) {
	gen, err := gemini.New(ctx, gemini.Config{
		APIKey:  a.cfg.Gemini.APIKey,
		Model:   a.cfg.Gemini.Model,
		BaseURL: a.cfg.Gemini.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		Generator: newTracedGenerator(gen, a.logger, runID),
		Index:     idx,
		TopK:      a.cfg.Pipeline.TopK,
		Logger:    a.logger,
		OnTransition: func(s pipeline.State) {
			a.logger.Printf("run=%s state=%s", runID, s)
		},
	})
}

// Recommend runs one pipeline and prints the recommendation. When
// reconciliation found no matching candidate, the degraded view (name and
// explanation, no structured metadata) is printed instead of failing.
func (a *App) Recommend(ctx context.Context, prefs pipeline.Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}

	runID := uuid.NewString()
	idx, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = idx.Close()
	}()

	p, err := a.buildPipeline(ctx, runID, idx)
	if err != nil {
		return err
	}

	start := time.Now()
	rec, err := p.Run(ctx, prefs)
	if err != nil {
		return err
	}
	a.logger.Printf("run=%s complete: duration=%s matched=%t", runID, time.Since(start).Round(time.Millisecond), rec.Selected != nil)

	fmt.Fprintf(a.out, "Recommended wine: %s\n", rec.RawSelection)
	if rec.Selected != nil {
		fmt.Fprintf(a.out, "Country:  %s\n", rec.Selected.Country)
		fmt.Fprintf(a.out, "Province: %s\n", rec.Selected.Province)
		fmt.Fprintf(a.out, "Variety:  %s\n", rec.Selected.Variety)
		fmt.Fprintf(a.out, "Winery:   %s\n", rec.Selected.Winery)
	} else {
		fmt.Fprintln(a.out, "(the recommended name matched no indexed wine; details unavailable)")
	}
	fmt.Fprintf(a.out, "Explanation: %s\n", rec.Explanation)
	return nil
}

// Batch reads preference rows from inputPath, runs the pipeline over them
// concurrently, and writes the output CSV to outputPath.
func (a *App) Batch(ctx context.Context, inputPath, outputPath string) error {
	batchID := uuid.NewString()

	inF, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = inF.Close()
	}()

	prefs, err := batch.ReadPreferencesCSV(inF)
	if err != nil {
		return err
	}
	a.logger.Printf("run=%s batch start: rows=%d workers=%d maxRetries=%d timeout=%s rateLimitRPS=%g failFast=%t",
		batchID, len(prefs), a.cfg.Batch.Workers, a.cfg.Batch.MaxRetries,
		a.cfg.Batch.RequestTimeout.Std(), a.cfg.Batch.RateLimitRPS, a.cfg.Batch.FailFast)

	idx, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = idx.Close()
	}()

	p, err := a.buildPipeline(ctx, batchID, idx)
	if err != nil {
		return err
	}

	start := time.Now()
	rows, err := batch.RecommendAll(ctx, prefs, p, batch.Options{
		Workers:        a.cfg.Batch.Workers,
		MaxRetries:     a.cfg.Batch.MaxRetries,
		RequestTimeout: a.cfg.Batch.RequestTimeout.Std(),
		RateLimitRPS:   a.cfg.Batch.RateLimitRPS,
		FailFast:       a.cfg.Batch.FailFast,
	})
	if err != nil {
		return err
	}

	okRows := 0
	for _, row := range rows {
		if row.Status == "ok" {
			okRows++
		}
	}
	a.logger.Printf("run=%s batch complete: produced=%d ok=%d error=%d duration=%s",
		batchID, len(rows), okRows, len(rows)-okRows, time.Since(start).Round(time.Millisecond))

	outF, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = outF.Close()
	}()

	if err := batch.WriteCSV(outF, rows); err != nil {
		return err
	}
	return outF.Close()
}

// BuildIndex ingests the corpus CSV at corpusPath into the vector index.
// limit > 0 caps the number of indexed rows.
func (a *App) BuildIndex(ctx context.Context, corpusPath string, limit int) error {
	runID := uuid.NewString()

	f, err := os.Open(corpusPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	wines, err := ingest.ReadWines(f)
	if err != nil {
		return err
	}
	if limit > 0 && len(wines) > limit {
		wines = wines[:limit]
	}
	a.logger.Printf("run=%s index build start: corpus=%s rows=%d", runID, corpusPath, len(wines))

	idx, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = idx.Close()
	}()

	records := make([]sqlitevec.Record, len(wines))
	for i, w := range wines {
		records[i] = sqlitevec.Record{
			Name:        w.Title,
			Description: w.Description,
			Country:     w.Country,
			Province:    w.Province,
			Variety:     w.Variety,
			Winery:      w.Winery,
		}
	}

	start := time.Now()
	if err := idx.Add(ctx, records); err != nil {
		return err
	}
	total, err := idx.Count(ctx)
	if err != nil {
		return err
	}
	a.logger.Printf("run=%s index build complete: added=%d indexed=%d duration=%s",
		runID, len(records), total, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(a.out, "Indexed %d wines into %s (%d total)\n", len(records), a.cfg.Index.Path, total)
	return nil
}
