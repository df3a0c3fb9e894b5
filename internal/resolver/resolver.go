package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"LF-DOCGEN/internal/models"
	"LF-DOCGEN/internal/store"
)

var (
	// ErrNoMatch means no active template matched the query or filters.
	ErrNoMatch = errors.New("no template matched the request")
	// ErrAmbiguous means a single-result resolution found several templates
	// with the same top score.
	ErrAmbiguous = errors.New("multiple templates matched equally well")
)

// AmbiguousMatchError carries the tied candidates so callers can present a
// disambiguation choice instead of a bare failure.
type AmbiguousMatchError struct {
	Candidates []Match
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, m := range e.Candidates {
		names[i] = m.Template.Name
	}
	return fmt.Sprintf("multiple templates matched equally well: %s", strings.Join(names, ", "))
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguous }

// Match is a scored resolution candidate.
type Match struct {
	Template models.Template
	Score    int
	// Fallback marks a name-substring hit returned after lexical scoring
	// produced nothing.
	Fallback bool
}

// Request is one resolution call. Filters are hard constraints; the query
// is soft evidence ranked by token overlap.
type Request struct {
	FirmID  string
	Query   string
	Filters store.TemplateFilters
	Limit   int
}

const (
	defaultLimit  = 10
	fallbackLimit = 5
)

// Resolver ranks a firm's active templates against free-text requests.
// Filtering happens in SQL, scoring in Go, so MySQL and the SQLite test
// harness rank identically.
type Resolver struct {
	store    store.TemplateStore
	synonyms *SynonymTable
	log      *logrus.Logger
}

func New(st store.TemplateStore, synonyms *SynonymTable, log *logrus.Logger) *Resolver {
	if synonyms == nil {
		synonyms = NewSynonymTable()
	}
	return &Resolver{store: st, synonyms: synonyms, log: log}
}

// Resolve returns scored candidates ordered best first. When no token
// scores, it falls back to a case-insensitive name-substring search. An
// empty result is ErrNoMatch.
func (r *Resolver) Resolve(ctx context.Context, req Request) ([]Match, error) {
	if req.FirmID == "" {
		return nil, errors.New("firm id is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	tokens := r.queryTokens(req.Query)
	candidates, err := r.store.ListTemplates(ctx, req.FirmID, req.Filters, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	var matches []Match
	for _, tmpl := range candidates {
		score := scoreTemplate(tmpl, tokens)
		if score > 0 {
			matches = append(matches, Match{Template: tmpl, Score: score})
		}
	}

	if len(matches) == 0 {
		return r.fallback(ctx, req)
	}

	// Higher score wins; equal scores break on recency. ListTemplates
	// already orders by updated_at DESC and SliceStable keeps that order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	r.log.WithFields(logrus.Fields{
		"firm_id": req.FirmID,
		"query":   req.Query,
		"tokens":  tokens,
		"matches": len(matches),
	}).Debug("resolved template query")
	return matches, nil
}

// ResolveOne returns the single best match. A tie at the top score is an
// *AmbiguousMatchError rather than an arbitrary pick.
func (r *Resolver) ResolveOne(ctx context.Context, req Request) (*models.Template, error) {
	matches, err := r.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(matches) > 1 && matches[1].Score == matches[0].Score && !matches[0].Fallback {
		tied := []Match{matches[0]}
		for _, m := range matches[1:] {
			if m.Score != matches[0].Score {
				break
			}
			tied = append(tied, m)
		}
		return nil, &AmbiguousMatchError{Candidates: tied}
	}
	if len(matches) > 1 && matches[0].Fallback {
		return nil, &AmbiguousMatchError{Candidates: matches}
	}
	return &matches[0].Template, nil
}

func (r *Resolver) fallback(ctx context.Context, req Request) ([]Match, error) {
	needle := strings.TrimSpace(req.Query)
	if needle == "" {
		return nil, ErrNoMatch
	}
	templates, err := r.store.SearchTemplatesByName(ctx, req.FirmID, needle, fallbackLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search templates by name: %w", err)
	}
	if len(templates) == 0 {
		return nil, ErrNoMatch
	}
	matches := make([]Match, len(templates))
	for i, tmpl := range templates {
		matches[i] = Match{Template: tmpl, Fallback: true}
	}
	return matches, nil
}

// queryTokens expands synonyms, then tokenizes and drops stop words.
// Duplicates collapse so a repeated word cannot inflate scores. When the
// query is made entirely of stop words, the unfiltered tokens are used
// instead: the resolver never searches on zero terms.
func (r *Resolver) queryTokens(query string) []string {
	expanded := r.synonyms.Expand(query)
	seen := make(map[string]bool)
	var all, kept []string
	for _, tok := range strings.FieldsFunc(expanded, func(c rune) bool {
		return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_')
	}) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		all = append(all, tok)
		if !stopWords[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return all
	}
	return kept
}

// scoreTemplate counts distinct query tokens present in the template's
// searchable text. Adding a filler word to a query can therefore never
// lower an existing candidate's score.
func scoreTemplate(tmpl models.Template, tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	haystack := tmpl.SearchableText
	if haystack == "" {
		haystack = strings.ToLower(tmpl.Name)
	}
	score := 0
	for _, tok := range tokens {
		if containsPhrase(haystack, tok) {
			score++
		}
	}
	return score
}
