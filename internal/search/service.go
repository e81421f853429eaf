package search

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/plc-assistant/backend/internal/device"
	"github.com/plc-assistant/backend/internal/models"
)

const (
	DefaultMaxResults = 5
	MaxResultsLimit   = 20

	// FuzzyThreshold is a hard gate: similarities below it add nothing.
	FuzzyThreshold = 0.75
	FuzzyWeight    = 2.5

	asciiTokenWeight    = 1.0
	nonASCIITokenWeight = 1.5
	priorityWeight      = 0.5
	mentionBonus        = 5.0
)

// CommentSource provides the device comments to rank.
type CommentSource interface {
	Comments() map[string]string
}

// CommentSearchService ranks stored (device, comment) pairs against a free-form
// question. It only reads from its source and is safe for concurrent use.
type CommentSearchService struct {
	source CommentSource
	metric *metrics.JaroWinkler
}

// NewCommentSearchService creates a search service over src.
func NewCommentSearchService(src CommentSource) *CommentSearchService {
	return &CommentSearchService{source: src, metric: metrics.NewJaroWinkler()}
}

type query struct {
	normalized string
	tokens     []Token
	mentions   []string
}

func newQuery(question string) query {
	q := query{normalized: Normalize(question)}
	q.tokens = Tokenize(q.normalized)
	q.mentions = device.UniqueMentions(q.normalized)
	return q
}

// Search returns at most maxResults comments ranked by score (highest first,
// ties by device name). maxResults is clamped to [1, MaxResultsLimit].
func (s *CommentSearchService) Search(question string, maxResults int) []models.CommentSearchResult {
	maxResults = min(max(maxResults, 1), MaxResultsLimit)

	q := newQuery(question)
	if q.normalized == "" {
		return []models.CommentSearchResult{}
	}

	var results []models.CommentSearchResult
	for dev, comment := range s.source.Comments() {
		score, terms := s.score(q, dev, Normalize(comment))
		if score <= 0 {
			continue
		}
		results = append(results, models.CommentSearchResult{
			Device:       dev,
			Comment:      comment,
			Score:        score,
			MatchedTerms: terms,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Device < results[j].Device
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	if results == nil {
		results = []models.CommentSearchResult{}
	}
	return results
}

func (s *CommentSearchService) score(q query, dev, comment string) (float64, []string) {
	var score float64
	terms := []string{}
	tokenCount := len(q.tokens)

	if comment != "" && strings.Contains(comment, q.normalized) {
		score += float64(max(2, tokenCount))
		terms = append(terms, q.normalized)
	}

	for i, tok := range q.tokens {
		if !strings.Contains(comment, tok.Text) {
			continue
		}
		weight := nonASCIITokenWeight
		if tok.ASCII {
			weight = asciiTokenWeight
		}
		score += weight + float64(tokenCount-i)*priorityWeight
		if tok.Text != q.normalized {
			terms = append(terms, tok.Text)
		}
	}

	if best := s.bestSimilarity(q, comment); best >= FuzzyThreshold {
		score += FuzzyWeight * best
	}

	// Keys are compared as stored; "T3" and "TS3" are different keys.
	for _, m := range q.mentions {
		if strings.EqualFold(dev, m) {
			score += mentionBonus
			terms = append(terms, m)
		}
	}
	return score, terms
}

func (s *CommentSearchService) bestSimilarity(q query, comment string) float64 {
	if comment == "" {
		return 0
	}
	best := strutil.Similarity(comment, q.normalized, s.metric)
	for _, tok := range q.tokens {
		if sim := strutil.Similarity(comment, tok.Text, s.metric); sim > best {
			best = sim
		}
	}
	return best
}
