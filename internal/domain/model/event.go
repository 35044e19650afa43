// Package model contains domain models passed between layers.
package model

// SourceData carries the optional structured payload of a source.
type SourceData struct {
	// Outcome is the outcome this source reports, if any. A nil value
	// means the source does not report an outcome.
	Outcome any `json:"outcome,omitempty"`

	// Value is an optional numeric observation, e.g. a reported figure.
	Value *float64 `json:"value,omitempty"`
}

// Source is one piece of third-party evidence about an event.
// Fields mirror the wire schema for analysis requests.
type Source struct {
	// Type identifies the source kind, e.g. "news", "api", "social".
	Type string `json:"type"`

	// Credibility in [0,1]. Nil means unknown; consumers apply a
	// neutral 0.5 prior.
	Credibility *float64 `json:"credibility,omitempty"`

	// Timestamp is the unix time (seconds) the source observed the
	// event. Zero means unknown.
	Timestamp float64 `json:"timestamp,omitempty"`

	// Data holds optional structured evidence.
	Data SourceData `json:"data,omitempty"`
}

// AnalysisRequest is a claimed real-world event submitted for evaluation.
type AnalysisRequest struct {
	EventID     string   `json:"event_id"`
	Description string   `json:"description"`
	Sources     []Source `json:"sources"`

	// Metadata carries optional numeric overrides such as
	// historical_accuracy, social_sentiment, proposer_reputation,
	// timing_anomaly and pattern_similarity.
	Metadata map[string]float64 `json:"metadata,omitempty"`
}

// MetadataValue returns the named metadata override, or nil when absent.
func (r AnalysisRequest) MetadataValue(key string) *float64 {
	if r.Metadata == nil {
		return nil
	}
	if v, ok := r.Metadata[key]; ok {
		return &v
	}
	return nil
}
