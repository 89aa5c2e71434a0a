package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

// Preferences is the per-run user input. Constructed once from external
// input and never mutated by the pipeline.
type Preferences struct {
	Taste      string
	Experience string
	WineColor  string
	Flavors    []string
	Pairing    string
	Complement string
}

// Selectable option sets for the enum-valued preference fields.
var (
	TasteOptions = []string{"Very sweet", "Sweet", "Neutral", "Dry", "Very dry"}

	ExperienceOptions = []string{
		"Novice (just starting)",
		"Casual drinker (have tried a few)",
		"Enthusiast (drink regularly)",
		"Connoisseur (very knowledgeable)",
	}

	WineColorOptions = []string{"Prefer red", "Prefer white", "Like both equally", "No preference"}

	FlavorOptions = []string{
		"Fruity", "Earthy", "Floral", "Spicy", "Oaky/Woody", "Citrusy", "Buttery", "Herbal",
	}

	PairingOptions = []string{
		"Casual drinking",
		"Romantic dinner",
		"Seafood meal",
		"Red meat dish",
		"Poultry dish",
		"Vegetarian meal",
		"Dessert",
		"No specific pairing",
	}
)

// Validate checks the enum-valued fields against their option sets.
// Complement is free text and Flavors may be empty.
func (p Preferences) Validate() error {
	checks := []struct {
		field   string
		value   string
		options []string
	}{
		{"taste", p.Taste, TasteOptions},
		{"experience", p.Experience, ExperienceOptions},
		{"wine_color", p.WineColor, WineColorOptions},
		{"pairing", p.Pairing, PairingOptions},
	}
	for _, c := range checks {
		if !slices.Contains(c.options, c.value) {
			return fmt.Errorf("invalid %s %q (options: %s)", c.field, c.value, strings.Join(c.options, ", "))
		}
	}
	for _, f := range p.Flavors {
		if !slices.Contains(FlavorOptions, f) {
			return fmt.Errorf("invalid flavor %q (options: %s)", f, strings.Join(FlavorOptions, ", "))
		}
	}
	return nil
}

// inputs returns the six preference fields as prompt template inputs.
func (p Preferences) inputs() map[string]string {
	return map[string]string{
		"taste":      p.Taste,
		"experience": p.Experience,
		"wine_color": p.WineColor,
		"flavor":     strings.Join(p.Flavors, ", "),
		"pairing":    p.Pairing,
		"complement": p.Complement,
	}
}
