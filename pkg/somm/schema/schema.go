// Package schema declares the named-field output shape a generation step
// must satisfy, renders the matching format instructions, and validates raw
// model text against the declared shape.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one declared output field.
type Field struct {
	Name        string
	Description string
}

// OutputSchema is a named, ordered set of output fields. Order is part of
// the contract: format instructions render fields in declaration order.
type OutputSchema struct {
	Name   string
	Fields []Field
}

// New constructs a schema. At least one field is required.
func New(name string, fields ...Field) (OutputSchema, error) {
	if len(fields) == 0 {
		return OutputSchema{}, fmt.Errorf("schema %q declares no fields", name)
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return OutputSchema{}, fmt.Errorf("schema %q declares a field with an empty name", name)
		}
		if _, dup := seen[f.Name]; dup {
			return OutputSchema{}, fmt.Errorf("schema %q declares field %q twice", name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return OutputSchema{Name: name, Fields: fields}, nil
}

// FormatInstructions renders a deterministic, provider-agnostic instruction
// block describing the required output shape. The same schema always renders
// the same text.
func (s OutputSchema) FormatInstructions() string {
	var b strings.Builder
	b.WriteString("The output should be a markdown code snippet formatted in the following schema, ")
	b.WriteString("including the leading and trailing \"```json\" and \"```\":\n\n")
	b.WriteString("```json\n{\n")
	for i, f := range s.Fields {
		b.WriteString("\t\"")
		b.WriteString(f.Name)
		b.WriteString("\": string")
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		if strings.TrimSpace(f.Description) != "" {
			b.WriteString("  // ")
			b.WriteString(strings.TrimSpace(f.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n```")
	return b.String()
}

// Parse extracts a value for every declared field from raw model text.
//
// The text may wrap the JSON object in a ```json fence or emit it bare;
// unknown extra keys are ignored. A missing field, a non-string value, or
// undecodable JSON fails with *MalformedOutputError carrying the raw text.
func (s OutputSchema) Parse(raw string) (map[string]string, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, &MalformedOutputError{Schema: s.Name, Raw: raw, Defect: err}
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return nil, &MalformedOutputError{Schema: s.Name, Raw: raw, Defect: fmt.Errorf("decode object: %w", err)}
	}

	out := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		rv, ok := decoded[f.Name]
		if !ok {
			return nil, &MalformedOutputError{Schema: s.Name, Raw: raw, Defect: fmt.Errorf("missing required field %q", f.Name)}
		}
		var v string
		if err := json.Unmarshal(rv, &v); err != nil {
			return nil, &MalformedOutputError{Schema: s.Name, Raw: raw, Defect: fmt.Errorf("field %q is not a string", f.Name)}
		}
		out[f.Name] = v
	}
	return out, nil
}

// extractJSONObject returns the JSON object body from raw text, preferring a
// ```json fenced block and falling back to the outermost braces.
func extractJSONObject(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j]), nil
		}
		// Unterminated fence: models sometimes drop the trailing marker.
		return strings.TrimSpace(rest), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found")
	}
	return text[start : end+1], nil
}

// MalformedOutputError reports model output that failed schema validation.
// Raw carries the offending text so a repair prompt can quote it back.
type MalformedOutputError struct {
	Schema string
	Raw    string
	Defect error
}

func (e *MalformedOutputError) Error() string {
	if e == nil {
		return "malformed output"
	}
	return fmt.Sprintf("malformed output for schema %q: %v", e.Schema, e.Defect)
}

func (e *MalformedOutputError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Defect
}
