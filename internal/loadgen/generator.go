// Package loadgen generates synthetic analysis traffic for exercising a
// running service.
package loadgen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/predictlink/verdict/internal/domain/model"
)

// Description templates per category, matching the classifier's keyword
// vocabulary so generated traffic spreads across categories.
var descriptions = []string{
	"The championship game ended in a stunning win for the home team",
	"Senate vote on the new legislation passed after a long debate",
	"The artist announced a surprise album release at the awards show",
	"Bitcoin price crossed a new high as trading volume surged",
	"A severe storm with heavy rain and flooding hit the coast",
	"The central bank raised interest rates amid inflation concerns",
	"The company launched new AI software for cloud computing",
	"An unexpected announcement with no obvious subject matter",
}

var sourceTypes = []string{"news", "api", "social", "official", "blog"}

// Generator produces randomized analysis requests.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded from the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Request builds one synthetic analysis request with a unique event id.
func (g *Generator) Request() model.AnalysisRequest {
	numSources := 1 + g.rng.Intn(5)
	sources := make([]model.Source, numSources)

	// Most sources agree on one outcome; a minority dissent.
	outcome := fmt.Sprintf("outcome_%d", g.rng.Intn(3))
	dissent := fmt.Sprintf("outcome_%d", g.rng.Intn(3))

	now := float64(time.Now().Unix())
	for i := range sources {
		cred := 0.3 + g.rng.Float64()*0.7
		value := 50 + g.rng.Float64()*10
		reported := outcome
		if g.rng.Float64() < 0.2 {
			reported = dissent
		}
		sources[i] = model.Source{
			Type:        sourceTypes[g.rng.Intn(len(sourceTypes))],
			Credibility: &cred,
			Timestamp:   now - g.rng.Float64()*86400,
			Data: model.SourceData{
				Outcome: reported,
				Value:   &value,
			},
		}
	}

	return model.AnalysisRequest{
		EventID:     uuid.New().String(),
		Description: descriptions[g.rng.Intn(len(descriptions))],
		Sources:     sources,
		Metadata: map[string]float64{
			"historical_accuracy": 0.6 + g.rng.Float64()*0.4,
			"social_sentiment":    g.rng.Float64(),
			"proposer_reputation": 0.3 + g.rng.Float64()*0.7,
		},
	}
}

// Batch builds n synthetic requests.
func (g *Generator) Batch(n int) []model.AnalysisRequest {
	reqs := make([]model.AnalysisRequest, n)
	for i := range reqs {
		reqs[i] = g.Request()
	}
	return reqs
}
