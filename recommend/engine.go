// Package recommend implements the breakfast recommendation engine.
//
// Scoring is deterministic for fixed inputs; only the final pick among
// the top-ranked candidates is randomized, so repeat requests stay varied.
package recommend

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/robertmeta/morning-cli/model"
)

const (
	// Prep-time limits in minutes. The holiday limit is effectively
	// unbounded for a typical breakfast catalog.
	commuteTimeLimit = 15
	holidayTimeLimit = 100

	// Each like on an item sharing the tag is worth two points; a
	// weather match is a flat five-point bonus. Likes are a repeatable
	// signal, weather a one-off coincidence, so likes compound.
	tagWeightFactor = 2
	weatherBonus    = 5

	// The final pick is drawn uniformly from this many top-ranked
	// candidates to avoid always serving the single highest scorer.
	topWindow = 10
)

// FeedbackSource supplies a user's aggregated feedback history.
// *store.Store satisfies it.
type FeedbackSource interface {
	DislikedItems(userID string) (map[string]bool, error)
	LikeWeightByTag(userID string, items []model.MenuItem) (map[string]int, error)
}

// Engine ranks catalog items for a user and context and picks one.
// Safe for concurrent use; one engine may serve many requests.
type Engine struct {
	feedback FeedbackSource

	// rng is not safe for concurrent use, so every draw goes through mu.
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an Engine. A nil rng gets a time-seeded source; tests
// pass a fixed seed for deterministic picks.
func New(feedback FeedbackSource, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{feedback: feedback, rng: rng}
}

// Request is the input to one recommendation pass.
// An empty UserID selects the anonymous path: a uniform random pick
// over the full catalog with no filtering or scoring.
type Request struct {
	UserID    string     `json:"user_id,omitempty"`
	Condition string     `json:"condition"`
	Mode      model.Mode `json:"mode"`
}

// Candidate is a catalog item with its computed score.
type Candidate struct {
	Item  model.MenuItem `json:"item"`
	Score int            `json:"score"`
}

// Recommendation is the engine's output: the selected item, and on the
// identified path its score and the ranked candidate window it was
// drawn from.
type Recommendation struct {
	Item         model.MenuItem `json:"item"`
	Score        int            `json:"score"`
	Personalized bool           `json:"personalized"`
	Candidates   []Candidate    `json:"candidates,omitempty"`
}

// Recommend produces one menu item for the request. It never returns an
// empty result for a non-empty catalog: when filtering leaves nothing,
// it falls back to a uniform pick over the entire unfiltered catalog.
func (e *Engine) Recommend(req Request, items []model.MenuItem) (Recommendation, error) {
	if len(items) == 0 {
		return Recommendation{}, errors.New("catalog is empty")
	}

	if req.UserID == "" {
		return Recommendation{Item: e.pick(items)}, nil
	}

	excluded, err := e.feedback.DislikedItems(req.UserID)
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to load dislikes: %w", err)
	}

	weights, err := e.feedback.LikeWeightByTag(req.UserID, items)
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to load tag weights: %w", err)
	}

	eligible := e.rank(req, items, excluded, weights)
	if len(eligible) == 0 {
		// Every item was disliked or too slow. The fallback draws from
		// the whole catalog, dislikes included, rather than return
		// nothing.
		return Recommendation{Item: e.pick(items), Personalized: true}, nil
	}

	chosen := eligible[e.intn(len(eligible))]
	return Recommendation{
		Item:         chosen.Item,
		Score:        chosen.Score,
		Personalized: true,
		Candidates:   eligible,
	}, nil
}

// rank filters the catalog by dislikes and prep time, scores what
// remains, and returns the top candidates ordered by score descending.
func (e *Engine) rank(req Request, items []model.MenuItem, excluded map[string]bool, weights map[string]int) []Candidate {
	limit := TimeLimit(req.Mode)

	var eligible []Candidate
	for _, item := range items {
		if excluded[item.Name] || item.Time > limit {
			continue
		}

		score := weights[item.Tag] * tagWeightFactor
		if ConditionMatches(item.WeatherMatch, req.Condition) {
			score += weatherBonus
		}
		eligible = append(eligible, Candidate{Item: item, Score: score})
	}

	// Secondary sort on name keeps the top window deterministic when
	// scores tie across the cut.
	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].Score != eligible[j].Score {
			return eligible[i].Score > eligible[j].Score
		}
		return eligible[i].Item.Name < eligible[j].Item.Name
	})

	if len(eligible) > topWindow {
		eligible = eligible[:topWindow]
	}
	return eligible
}

func (e *Engine) pick(items []model.MenuItem) model.MenuItem {
	return items[e.intn(len(items))]
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// TimeLimit returns the prep-time budget in minutes for a mode.
func TimeLimit(mode model.Mode) int {
	if mode == model.ModeCommute {
		return commuteTimeLimit
	}
	return holidayTimeLimit
}

// ConditionMatches reports whether an item's weather-match letters cover
// the current condition. The comparison is deliberately coarse: only the
// first rune of the condition label is tested, case-insensitively, so
// condition families sharing an initial bucket together. Swap this
// function for an exact comparison to tighten matching without touching
// the scoring algorithm.
func ConditionMatches(weatherMatch, condition string) bool {
	if weatherMatch == "" || condition == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(condition)
	return strings.ContainsRune(strings.ToLower(weatherMatch), unicode.ToLower(first))
}
