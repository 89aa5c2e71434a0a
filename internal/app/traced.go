package app

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/vintry/sommelier/pkg/somm/core"
	"github.com/vintry/sommelier/pkg/somm/redact"
)

// tracedGenerator logs every generation call with the run ID, call ordinal,
// sizes, and timing. Prompt and completion text stay out of the logs; only
// redacted error strings are emitted.
type tracedGenerator struct {
	next   core.Generator
	logger *log.Logger
	runID  string
	calls  atomic.Int64
}

func newTracedGenerator(next core.Generator, logger *log.Logger, runID string) *tracedGenerator {
	return &tracedGenerator{next: next, logger: logger, runID: runID}
}

func (t *tracedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	call := t.calls.Add(1)

	deadlineIn := "none"
	if d, ok := ctx.Deadline(); ok {
		deadlineIn = time.Until(d).Round(time.Millisecond).String()
	}
	t.logger.Printf(
		"run=%s generate request: call=%d promptChars=%d deadlineIn=%s",
		t.runID, call, len(prompt), deadlineIn,
	)

	start := time.Now()
	out, err := t.next.Generate(ctx, prompt)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		t.logger.Printf(
			"run=%s generate response: call=%d duration=%s status=error error=%q",
			t.runID, call, elapsed, redact.Secrets(err.Error()),
		)
		return out, err
	}

	t.logger.Printf(
		"run=%s generate response: call=%d duration=%s status=ok responseChars=%d",
		t.runID, call, elapsed, len(out),
	)
	return out, nil
}
