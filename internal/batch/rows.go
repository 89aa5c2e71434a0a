// Package batch runs the recommendation pipeline over a CSV of preference
// rows concurrently and writes a stable output CSV.
package batch

import (
	"context"
	"strings"
	"time"

	"github.com/vintry/sommelier/pkg/somm/pipeline"
	"github.com/vintry/sommelier/pkg/somm/redact"
	"github.com/vintry/sommelier/pkg/somm/worker"
)

// Runner is the per-row unit of work. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, prefs pipeline.Preferences) (pipeline.Recommendation, error)
}

// Row is the stable output schema contract for one batch entry.
type Row struct {
	Taste      string
	Experience string
	WineColor  string
	Flavors    string
	Pairing    string
	Complement string

	Query          string
	Recommendation string
	Explanation    string
	Country        string
	Province       string
	Variety        string
	Winery         string
	Status         string
	Error          string
}

type Options struct {
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64
	FailFast       bool
}

// Header returns the stable CSV header for Row.
func Header() []string {
	return []string{
		"taste",
		"experience",
		"wine_color",
		"flavors",
		"pairing",
		"complement",
		"query",
		"recommendation",
		"explanation",
		"country",
		"province",
		"variety",
		"winery",
		"status",
		"error",
	}
}

// RecommendAll runs the pipeline over all preference rows. Each run stays
// internally sequential; concurrency, per-run timeouts, and transient-error
// retries happen here at the caller level.
//
// Run failures are recorded per-row and do not fail the batch unless
// FailFast is set.
func RecommendAll(ctx context.Context, prefs []pipeline.Preferences, runner Runner, opts Options) ([]Row, error) {
	policy := worker.FailurePolicyPartialOutput
	if opts.FailFast {
		policy = worker.FailurePolicyFailFast
	}

	processor := func(reqCtx context.Context, p pipeline.Preferences) (pipeline.Recommendation, error) {
		if err := p.Validate(); err != nil {
			return pipeline.Recommendation{}, err
		}
		return runner.Run(reqCtx, p)
	}

	out, err := worker.ProcessAll(ctx, prefs, processor, worker.Options{
		Workers:        opts.Workers,
		MaxRetries:     opts.MaxRetries,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
		FailurePolicy:  policy,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(out))
	for _, item := range out {
		row := Row{
			Taste:      item.Input.Taste,
			Experience: item.Input.Experience,
			WineColor:  item.Input.WineColor,
			Flavors:    strings.Join(item.Input.Flavors, FlavorSeparator),
			Pairing:    item.Input.Pairing,
			Complement: item.Input.Complement,
		}

		if item.Err != nil {
			row.Status = "error"
			row.Error = redact.Secrets(item.Err.Error())
			rows = append(rows, row)
			continue
		}

		rec := item.Output
		row.Query = rec.Query
		row.Recommendation = rec.RawSelection
		row.Explanation = rec.Explanation
		row.Status = "ok"
		if rec.Selected != nil {
			row.Country = rec.Selected.Country
			row.Province = rec.Selected.Province
			row.Variety = rec.Selected.Variety
			row.Winery = rec.Selected.Winery
		}
		rows = append(rows, row)
	}
	return rows, nil
}
