// Package query normalizes raw user queries into weighted multi-term
// searches. It owns the stop-word and boost-word handling and the
// pattern-based retrieval path used when the index backend has no native
// full-text operator.
package query

import (
	"strings"

	"github.com/coralcms/sitesearch/pkg/config"
)

const boostWeight = 2.0

// Term is a surviving query token with its boost weight.
type Term struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// ProcessedQuery is the normalized form of a raw user query.
type ProcessedQuery struct {
	OriginalQuery string `json:"original_query"`
	Terms         []Term `json:"terms"`
	FilteredQuery string `json:"filtered_query"`
	HasBoostTerms bool   `json:"has_boost_terms"`
}

// Processor tokenizes raw queries against injected stop and boost word
// sets. Both sets are fixed at construction; there is no ambient state.
type Processor struct {
	stopWords     map[string]struct{}
	boostWords    map[string]struct{}
	minWordLength int
	punctuation   config.PunctuationPolicy
}

func NewProcessor(cfg config.QueryConfig) *Processor {
	p := &Processor{
		stopWords:     make(map[string]struct{}, len(cfg.StopWords)),
		boostWords:    make(map[string]struct{}, len(cfg.BoostWords)),
		minWordLength: cfg.MinWordLength,
		punctuation:   cfg.Punctuation,
	}
	for _, w := range cfg.StopWords {
		p.stopWords[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range cfg.BoostWords {
		p.boostWords[strings.ToLower(w)] = struct{}{}
	}
	return p
}

// Process lowercases and splits the raw query, drops stop words, and tags
// each surviving term with its boost weight. HasBoostTerms is computed
// over the full token list before stop-word removal, so a boost word that
// is also a stop word still flags the query.
func (p *Processor) Process(rawQuery string) ProcessedQuery {
	result := ProcessedQuery{OriginalQuery: rawQuery}

	raw := strings.Fields(strings.ToLower(rawQuery))
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		tokens = append(tokens, p.normalizeToken(token)...)
	}

	surviving := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if _, boosted := p.boostWords[token]; boosted {
			result.HasBoostTerms = true
		}
		if _, stop := p.stopWords[token]; stop {
			continue
		}
		if len(token) < p.minWordLength {
			continue
		}
		weight := 1.0
		if _, boosted := p.boostWords[token]; boosted {
			weight = boostWeight
		}
		result.Terms = append(result.Terms, Term{Text: token, Weight: weight})
		surviving = append(surviving, token)
	}
	result.FilteredQuery = strings.Join(surviving, " ")
	return result
}

// normalizeToken applies the configured punctuation policy to a single
// lowercased token. Policy "keep" leaves hyphens, quotes, ampersands and
// decimal points in place; "remove" strips them so "don't" becomes
// "dont"; "space" treats them as separators so "full-text" becomes two
// tokens.
func (p *Processor) normalizeToken(token string) []string {
	switch p.punctuation {
	case config.PunctuationKeep:
		return []string{token}
	case config.PunctuationToSpace:
		return strings.FieldsFunc(token, isPunct)
	default:
		return []string{strings.Map(func(r rune) rune {
			if isPunct(r) {
				return -1
			}
			return r
		}, token)}
	}
}

func isPunct(r rune) bool {
	switch r {
	case '-', '\'', '"', '‘', '’', '“', '”', '&', '.':
		return true
	}
	return false
}
