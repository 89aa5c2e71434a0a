// Package pipeline composes query formulation, retrieval, and selection into
// the end-to-end wine recommendation flow and reconciles the model's textual
// selection back to a concrete retrieved candidate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/vintry/sommelier/pkg/somm/core"
	"github.com/vintry/sommelier/pkg/somm/prompt"
)

// State is one step of the strictly sequential run state machine.
type State string

const (
	StateFormulatingQuery State = "FORMULATING_QUERY"
	StateRetrieving       State = "RETRIEVING"
	StateSelecting        State = "SELECTING"
	StateReconciling      State = "RECONCILING"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
)

// Recommendation is the terminal artifact of a run. Selected is nil when the
// model's selection matched no retrieved candidate; callers must then fall
// back to RawSelection and Explanation without structured metadata.
type Recommendation struct {
	Query        string
	Selected     *Candidate
	RawSelection string
	Explanation  string
}

// Config wires a pipeline. Generator and Index are required; their lifecycle
// is owned by the caller.
type Config struct {
	Generator core.Generator
	Index     VectorIndex

	// TopK is the retrieval fan-out. It must be at least OptionCount;
	// zero means DefaultTopK.
	TopK int

	// Logger receives data-integrity warnings. Nil means log.Default(), so
	// the warnings are never dropped.
	Logger *log.Logger

	// OnTransition observes every state transition. Optional.
	OnTransition func(State)
}

// DefaultTopK matches the original retrieval fan-out: fetch one extra
// candidate beyond the three the selection stage compares.
const DefaultTopK = 4

// Pipeline is the caller-facing entry point. Runs are independent of each
// other; a Pipeline is safe for concurrent use.
type Pipeline struct {
	query        *prompt.Stage
	recommend    *prompt.Stage
	retriever    *Retriever
	topK         int
	logger       *log.Logger
	onTransition func(State)
}

// New builds a pipeline from explicit collaborators.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Generator == nil {
		return nil, errors.New("pipeline: generator is required")
	}
	if cfg.Index == nil {
		return nil, errors.New("pipeline: vector index is required")
	}
	topK := cfg.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < OptionCount {
		return nil, fmt.Errorf("pipeline: topK %d is below the %d selection options", topK, OptionCount)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	queryStage, err := newQueryStage(cfg.Generator)
	if err != nil {
		return nil, err
	}
	recommendStage, err := newRecommendStage(cfg.Generator)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		query:        queryStage,
		recommend:    recommendStage,
		retriever:    &Retriever{Index: cfg.Index},
		topK:         topK,
		logger:       logger,
		onTransition: cfg.OnTransition,
	}, nil
}

// Run executes one recommendation flow. Stages run strictly sequentially;
// the first stage failure aborts the run with no partial result. Cancel via
// ctx: a caller-level timeout around the whole run is the intended
// integration point.
func (p *Pipeline) Run(ctx context.Context, prefs Preferences) (Recommendation, error) {
	p.transition(StateFormulatingQuery)
	base := prefs.inputs()
	out, err := p.query.Run(ctx, base)
	if err != nil {
		return p.fail(err)
	}
	query := strings.TrimSpace(out[FieldQueryString])
	if query == "" {
		return p.fail(fmt.Errorf("stage %q returned an empty %s", p.query.Name, FieldQueryString))
	}

	p.transition(StateRetrieving)
	candidates, err := p.retriever.Search(ctx, query, p.topK)
	if err != nil {
		return p.fail(err)
	}
	if len(candidates) < OptionCount {
		return p.fail(&InsufficientCandidatesError{Got: len(candidates), Want: OptionCount})
	}
	candidates = candidates[:OptionCount]

	p.transition(StateSelecting)
	out, err = p.recommend.Run(ctx, optionInputs(base, candidates))
	if err != nil {
		return p.fail(err)
	}

	p.transition(StateReconciling)
	selection := out[FieldRecommendation]
	selected, matches := Reconcile(selection, candidates)
	if matches > 1 {
		// Candidate names must be unique within one retrieval result set;
		// observing this means the index holds inconsistent data.
		p.logger.Printf("data-integrity warning: selection %q matched %d candidates, using the first", selection, matches)
	}

	p.transition(StateDone)
	return Recommendation{
		Query:        query,
		Selected:     selected,
		RawSelection: selection,
		Explanation:  out[FieldExplanation],
	}, nil
}

// Reconcile matches a selection string against the candidate set by exact,
// case-sensitive identifier comparison. It returns the first match (nil when
// none) and the total match count. Deterministic and idempotent.
func Reconcile(selection string, candidates []Candidate) (*Candidate, int) {
	var first *Candidate
	matches := 0
	for i := range candidates {
		if candidates[i].Name == selection {
			if first == nil {
				c := candidates[i]
				first = &c
			}
			matches++
		}
	}
	return first, matches
}

func (p *Pipeline) transition(s State) {
	if p.onTransition != nil {
		p.onTransition(s)
	}
}

func (p *Pipeline) fail(err error) (Recommendation, error) {
	p.transition(StateFailed)
	return Recommendation{}, err
}
