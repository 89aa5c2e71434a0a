package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vintry/sommelier/internal/app"
	"github.com/vintry/sommelier/internal/config"
	"github.com/vintry/sommelier/internal/version"
	"github.com/vintry/sommelier/pkg/somm/pipeline"
	"github.com/vintry/sommelier/pkg/somm/redact"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "--version":
		fmt.Println(version.Current)
		return
	case "recommend":
		os.Exit(runRecommend(ctx, os.Args[2:]))
	case "batch":
		os.Exit(runBatch(ctx, os.Args[2:]))
	case "index":
		os.Exit(runIndex(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runRecommend(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Optional YAML config file path")
	taste := fs.String("taste", "", "Preferred taste profile: "+strings.Join(pipeline.TasteOptions, " | "))
	experience := fs.String("experience", "", "Wine experience: "+strings.Join(pipeline.ExperienceOptions, " | "))
	wineColor := fs.String("wine-color", "", "Color preference: "+strings.Join(pipeline.WineColorOptions, " | "))
	flavors := fs.String("flavors", "", "Favorite flavors, ';' separated: "+strings.Join(pipeline.FlavorOptions, " | "))
	pairing := fs.String("pairing", "", "Pairing intent: "+strings.Join(pipeline.PairingOptions, " | "))
	complement := fs.String("complement", "", "Free-text complement to the answers above")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	prefs := pipeline.Preferences{
		Taste:      *taste,
		Experience: *experience,
		WineColor:  *wineColor,
		Flavors:    splitList(*flavors),
		Pairing:    *pairing,
		Complement: *complement,
	}

	a := app.New(cfg, newLogger(), os.Stdout)
	if err := a.Recommend(ctx, prefs); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "recommend failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

func runBatch(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Optional YAML config file path")
	inputPath := fs.String("input", "", "Input CSV of preference rows")
	outputPath := fs.String("output", "", "Output CSV file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *inputPath == "" || *outputPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "batch requires --input and --output")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	a := app.New(cfg, newLogger(), os.Stdout)
	if err := a.Batch(ctx, *inputPath, *outputPath); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "batch run failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

func runIndex(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Optional YAML config file path")
	corpusPath := fs.String("corpus", "", "Wine reviews corpus CSV to ingest")
	limit := fs.Int("limit", 0, "Cap the number of indexed rows, 0 means all")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *corpusPath == "" {
		_, _ = fmt.Fprintln(os.Stderr, "index requires --corpus")
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", redact.Secrets(err.Error()))
		return 2
	}

	a := app.New(cfg, newLogger(), os.Stdout)
	if err := a.BuildIndex(ctx, *corpusPath, *limit); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "index build failed: %s\n", redact.Secrets(err.Error()))
		return 1
	}
	return 0
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `sommelier: wine recommendation pipeline (query formulation + retrieval + selection)

Usage:
  sommelier <command> [flags]

Commands:
  recommend  Recommend one wine from preference flags
  batch      Run the pipeline over a CSV of preference rows
  index      Ingest a wine reviews corpus CSV into the vector index
  version    Print the sommelier version

Examples:
  sommelier index --corpus winemag-data-130k-v2.csv --limit 500
  sommelier recommend --taste "Dry" --experience "Novice (just starting)" \
    --wine-color "Prefer red" --flavors "Earthy; Spicy" --pairing "Red meat dish"
  sommelier batch --input preferences.csv --output recommendations.csv

Environment:
  GEMINI_API_KEY          Gemini API key (required)
  GEMINI_MODEL            Generation model name
  GEMINI_EMBEDDING_MODEL  Embedding model name
  GEMINI_BASE_URL         Optional base URL override (proxies/testing)
  SOMMELIER_INDEX_PATH    Vector index database path
  SOMMELIER_TOP_K         Retrieval fan-out (at least 3)
  WORKERS, MAX_RETRIES, REQUEST_TIMEOUT, RATE_LIMIT_RPS, FAIL_FAST
                          Batch worker settings

`)
}
