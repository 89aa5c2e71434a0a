package prompt

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is prompt text with {name} placeholders.
type Template string

// Placeholders returns the distinct placeholder names in declaration order.
func (t Template) Placeholders() []string {
	matches := placeholderRe.FindAllStringSubmatch(string(t), -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// Render substitutes every placeholder from inputs. Substituted values are
// not re-scanned, so values may themselves contain braces.
func (t Template) Render(inputs map[string]string) (string, error) {
	var missing string
	rendered := placeholderRe.ReplaceAllStringFunc(string(t), func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := inputs[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return m
		}
		return v
	})
	if missing != "" {
		return "", &MissingInputError{Placeholder: missing}
	}
	return rendered, nil
}

// MissingInputError reports a template placeholder with no corresponding
// input value. This is a programmer error and is never retried.
type MissingInputError struct {
	Stage       string
	Placeholder string
}

func (e *MissingInputError) Error() string {
	if e == nil {
		return "missing input"
	}
	if e.Stage != "" {
		return fmt.Sprintf("stage %q: no input for placeholder %q", e.Stage, e.Placeholder)
	}
	return fmt.Sprintf("no input for placeholder %q", e.Placeholder)
}
