// Package prompt implements a single request/response unit against a text
// generation provider: render a template, invoke the provider, parse the
// response against an output schema with one bounded repair attempt.
package prompt

import (
	"context"
	"errors"
	"strings"

	"github.com/vintry/sommelier/pkg/somm/core"
	"github.com/vintry/sommelier/pkg/somm/schema"
)

// FormatInstructionsInput is the reserved input name a stage fills with the
// rendered format instructions of its schema.
const FormatInstructionsInput = "format_instructions"

// Stage renders a template, calls the generator, and parses the response.
//
// A stage invocation makes exactly one generator call on success and exactly
// two when one repair attempt is made. Schema-validation failure after the
// repair attempt propagates *schema.MalformedOutputError; provider failures
// propagate unchanged and are never retried here.
type Stage struct {
	Name      string
	Template  Template
	Schema    schema.OutputSchema
	Generator core.Generator
}

// Run renders the template from inputs plus the schema's format
// instructions and returns the schema-validated result.
func (s *Stage) Run(ctx context.Context, inputs map[string]string) (map[string]string, error) {
	all := make(map[string]string, len(inputs)+1)
	for k, v := range inputs {
		all[k] = v
	}
	all[FormatInstructionsInput] = s.Schema.FormatInstructions()

	rendered, err := s.Template.Render(all)
	if err != nil {
		var miss *MissingInputError
		if errors.As(err, &miss) {
			miss.Stage = s.Name
		}
		return nil, err
	}

	raw, err := s.Generator.Generate(ctx, rendered)
	if err != nil {
		return nil, err
	}

	out, err := s.Schema.Parse(raw)
	if err == nil {
		return out, nil
	}
	var malformed *schema.MalformedOutputError
	if !errors.As(err, &malformed) {
		return nil, err
	}

	// One repair attempt: quote the defective completion and the validation
	// defect back to the provider and ask for a corrected response. A second
	// malformed response propagates to the caller.
	raw, genErr := s.Generator.Generate(ctx, repairPrompt(rendered, malformed))
	if genErr != nil {
		return nil, genErr
	}
	return s.Schema.Parse(raw)
}

func repairPrompt(original string, malformed *schema.MalformedOutputError) string {
	var b strings.Builder
	b.WriteString("Prompt:\n")
	b.WriteString(original)
	b.WriteString("\nCompletion:\n")
	b.WriteString(malformed.Raw)
	b.WriteString("\n\nAbove, the Completion did not satisfy the constraints given in the Prompt.\nDetails: ")
	b.WriteString(malformed.Defect.Error())
	b.WriteString("\nPlease try again:")
	return b.String()
}
