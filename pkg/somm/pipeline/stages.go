package pipeline

import (
	"fmt"

	"github.com/vintry/sommelier/pkg/somm/core"
	"github.com/vintry/sommelier/pkg/somm/prompt"
	"github.com/vintry/sommelier/pkg/somm/schema"
)

// Schema field names the two stages contract on.
const (
	FieldQueryString    = "query_string"
	FieldRecommendation = "recommendation"
	FieldExplanation    = "explanation"
)

// OptionCount is the number of candidates the selection stage compares.
const OptionCount = 3

const queryTemplate prompt.Template = `You are an expert wine sommelier. Your goal is to select a wine from the database to recommend to the user.
Take a breath and understand the following user preferences:
taste: {taste}
experience level: {experience}
wine color: {wine_color}
flavor: {flavor}
pairing: {pairing}
complement: {complement}

Now create a string that will be used to do a similarity search on a vector database containing wine descriptions.
To build better queries for similarity search, ensure they are specific, utilize relevant features or descriptors.
{format_instructions}`

const recommendTemplate prompt.Template = `You are an expert wine sommelier. Your goal is to select a wine from the options below to recommend to the user.
Take a breath and understand the following user preferences:
taste: {taste}
experience level: {experience}
wine color: {wine_color}
flavor: {flavor}
pairing: {pairing}
complement: {complement}

Now take a breath and understand the wine options:
Option 1:
{option_1}
Option 2:
{option_2}
Option 3:
{option_3}

Now select the best wine to recommend to this user. The recommendation must be the selected wine's name, copied verbatim from its option.

{format_instructions}`

func newQueryStage(gen core.Generator) (*prompt.Stage, error) {
	s, err := schema.New("query_formulation", schema.Field{
		Name:        FieldQueryString,
		Description: "The string used to query the vector database for wine options.",
	})
	if err != nil {
		return nil, err
	}
	return &prompt.Stage{
		Name:      "query_formulation",
		Template:  queryTemplate,
		Schema:    s,
		Generator: gen,
	}, nil
}

func newRecommendStage(gen core.Generator) (*prompt.Stage, error) {
	s, err := schema.New("recommendation",
		schema.Field{
			Name:        FieldRecommendation,
			Description: "The recommended wine name.",
		},
		schema.Field{
			Name:        FieldExplanation,
			Description: "The explanation of the selected recommendation.",
		},
	)
	if err != nil {
		return nil, err
	}
	return &prompt.Stage{
		Name:      "recommendation",
		Template:  recommendTemplate,
		Schema:    s,
		Generator: gen,
	}, nil
}

// optionInputs labels the candidates positionally for the selection prompt.
func optionInputs(base map[string]string, candidates []Candidate) map[string]string {
	out := make(map[string]string, len(base)+len(candidates))
	for k, v := range base {
		out[k] = v
	}
	for i, c := range candidates {
		out[fmt.Sprintf("option_%d", i+1)] = c.summary()
	}
	return out
}
