// Package gemini implements the text-generation provider on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/vintry/sommelier/pkg/somm/core"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Generator calls the Gemini API once per Generate invocation. Prompts carry
// their own format instructions, so responses are requested as plain text.
type Generator struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client: client,
		model:  strings.TrimSpace(cfg.Model),
	}, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.model
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			CandidateCount: 1,
		},
	)
	if err != nil {
		return "", classifyErr(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &core.ProviderError{Err: errors.New("empty completion")}
	}
	return text, nil
}

// classifyErr wraps every transport failure as a ProviderError and marks
// rate-limit and server-side failures transient so a caller-level worker
// pool may retry the whole run. The pipeline itself never retries these.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		perr := &core.ProviderError{Err: err, StatusCode: apiErr.Code}
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &core.TransientError{Err: perr}
		}
		return perr
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &core.TransientError{Err: &core.ProviderError{Err: err}}
	}
	return &core.ProviderError{Err: err}
}
