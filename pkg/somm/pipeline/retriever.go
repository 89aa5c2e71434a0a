package pipeline

import (
	"context"
	"fmt"
	"strings"
)

// Document is one indexed item as returned by the vector index collaborator.
type Document struct {
	Content  string
	Metadata map[string]string
}

// Metadata keys the offline ingestion job writes for every indexed wine.
const (
	MetaName     = "name"
	MetaCountry  = "country"
	MetaProvince = "province"
	MetaVariety  = "variety"
	MetaWinery   = "winery"
)

// VectorIndex is the read-only similarity search collaborator. Results come
// back best first under the index's own similarity metric; the pipeline
// treats that ordering as opaque.
type VectorIndex interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error)
}

// Candidate is one retrieved wine eligible for recommendation. Its identity
// is Name, which must be unique within a single retrieval result set.
type Candidate struct {
	Name        string
	Description string
	Country     string
	Province    string
	Variety     string
	Winery      string
}

// summary renders the candidate's name and metadata (not the descriptive
// text) for positional presentation in the selection prompt.
func (c Candidate) summary() string {
	return strings.Join([]string{
		"name: " + c.Name,
		"country: " + c.Country,
		"province: " + c.Province,
		"variety: " + c.Variety,
		"winery: " + c.Winery,
	}, "\n")
}

// Retriever maps vector index documents to candidates.
type Retriever struct {
	Index VectorIndex
}

// Search runs a fresh similarity query and returns at most k candidates,
// best first. No caching: corpus freshness outweighs latency here.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]Candidate, error) {
	docs, err := r.Index.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, &RetrievalError{Err: err}
	}
	if len(docs) > k {
		docs = docs[:k]
	}

	out := make([]Candidate, 0, len(docs))
	for i, doc := range docs {
		name := strings.TrimSpace(doc.Metadata[MetaName])
		if name == "" {
			return nil, &RetrievalError{Err: fmt.Errorf("document %d has no %q metadata", i, MetaName)}
		}
		out = append(out, Candidate{
			Name:        name,
			Description: doc.Content,
			Country:     doc.Metadata[MetaCountry],
			Province:    doc.Metadata[MetaProvince],
			Variety:     doc.Metadata[MetaVariety],
			Winery:      doc.Metadata[MetaWinery],
		})
	}
	return out, nil
}

// RetrievalError reports an unreachable index or a malformed index response.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	if e == nil || e.Err == nil {
		return "retrieval error"
	}
	return "retrieval error: " + e.Err.Error()
}

func (e *RetrievalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InsufficientCandidatesError reports a retrieval result too small for the
// selection stage, which compares exactly OptionCount options.
type InsufficientCandidatesError struct {
	Got  int
	Want int
}

func (e *InsufficientCandidatesError) Error() string {
	if e == nil {
		return "insufficient candidates"
	}
	return fmt.Sprintf("retrieved %d candidates, selection needs %d", e.Got, e.Want)
}
