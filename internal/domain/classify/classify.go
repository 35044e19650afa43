// Package classify maps free-text event descriptions onto a fixed topic
// taxonomy via keyword density scoring. Classification is a pure function
// of its input and the taxonomy tables in this package.
package classify

import (
	"math"
	"strings"
)

// Category names produced by the classifier.
const (
	CategorySports        = "sports"
	CategoryPolitics      = "politics"
	CategoryEntertainment = "entertainment"
	CategoryCrypto        = "crypto"
	CategoryWeather       = "weather"
	CategoryEconomics     = "economics"
	CategoryTechnology    = "technology"
	CategoryGeneral       = "general"
)

// Time sensitivity levels.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// Objectivity levels.
const (
	ObjectivityObjective  = "objective"
	ObjectivitySubjective = "subjective"
	ObjectivityMixed      = "mixed"
)

// Recommended actions.
const (
	ActionAutoProcess = "auto_process"
	ActionHumanReview = "human_review"
)

// confidenceAmplifier compensates for the small per-category keyword lists:
// matching half a category's keywords is already a strong signal.
const confidenceAmplifier = 1.5

// Action thresholds.
const (
	autoProcessThreshold     = 0.95
	trustedCategoryThreshold = 0.70
)

// Result is the classification of one event description.
type Result struct {
	PrimaryCategory   string  `json:"primaryCategory"`
	Subcategory       string  `json:"subcategory"`
	Confidence        float64 `json:"confidence"`
	TimeSensitivity   string  `json:"timeSensitivity"`
	Objectivity       string  `json:"objectivity"`
	RecommendedAction string  `json:"recommendedAction"`
}

// Classify scores the description against every category's keyword list and
// returns the classification for the best-scoring category. Ties resolve to
// the first declared category. Descriptions matching no keywords get the
// default classification.
func Classify(description string) Result {
	lower := strings.ToLower(description)

	best := ""
	bestScore := 0.0
	for _, c := range categories {
		hits := 0
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		score := float64(hits) / float64(len(c.keywords))
		if score > bestScore {
			best = c.name
			bestScore = score
		}
	}

	if best == "" {
		return defaultResult()
	}

	confidence := math.Min(bestScore*confidenceAmplifier, 1.0)

	return Result{
		PrimaryCategory:   best,
		Subcategory:       classifySubcategory(best, lower),
		Confidence:        confidence,
		TimeSensitivity:   timeSensitivity(best),
		Objectivity:       objectivity(best),
		RecommendedAction: recommendAction(confidence, best),
	}
}

// classifySubcategory scans the winning category's subcategory lists in
// declared order; the first textual match wins.
func classifySubcategory(cat, lower string) string {
	for _, sub := range subcategories[cat] {
		for _, kw := range sub.keywords {
			if strings.Contains(lower, kw) {
				return sub.name
			}
		}
	}
	return "general"
}

// recommendAction picks the routing action. Sports and weather outcomes are
// objective and verifiable, so they auto-process at a lower confidence bar.
func recommendAction(confidence float64, cat string) string {
	if confidence >= autoProcessThreshold {
		return ActionAutoProcess
	}
	if confidence >= trustedCategoryThreshold && (cat == CategorySports || cat == CategoryWeather) {
		return ActionAutoProcess
	}
	return ActionHumanReview
}

func timeSensitivity(cat string) string {
	switch {
	case highSensitivity[cat]:
		return SensitivityHigh
	case mediumSensitivity[cat]:
		return SensitivityMedium
	default:
		return SensitivityLow
	}
}

func objectivity(cat string) string {
	switch {
	case objectiveCategories[cat]:
		return ObjectivityObjective
	case subjectiveCategories[cat]:
		return ObjectivitySubjective
	default:
		return ObjectivityMixed
	}
}

// defaultResult is returned when no category keyword matches.
func defaultResult() Result {
	return Result{
		PrimaryCategory:   CategoryGeneral,
		Subcategory:       "unknown",
		Confidence:        0.5,
		TimeSensitivity:   SensitivityLow,
		Objectivity:       ObjectivityMixed,
		RecommendedAction: ActionHumanReview,
	}
}
