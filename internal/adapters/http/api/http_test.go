package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	api "github.com/predictlink/verdict/internal/adapters/http/api"
	features "github.com/predictlink/verdict/internal/domain/features"
	fraud "github.com/predictlink/verdict/internal/domain/fraud"
	inference "github.com/predictlink/verdict/internal/domain/inference"
	"github.com/predictlink/verdict/internal/domain/model"
	scoring "github.com/predictlink/verdict/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps implements api.Dependencies and api.StatsProvider for handler
// tests.
type mockDeps struct {
	analyzeErr error
}

func (m *mockDeps) Analyze(ctx context.Context, req model.AnalysisRequest) (inference.Result, error) {
	if m.analyzeErr != nil {
		return inference.Result{}, m.analyzeErr
	}
	return inference.Result{
		EventID:        req.EventID,
		Confidence:     scoring.Result{ConfidenceScore: 0.9, Recommendation: "approve"},
		FraudDetection: fraud.Assessment{RiskLevel: fraud.RiskLow, Recommendation: fraud.RecommendApprove},
	}, nil
}

func (m *mockDeps) AnalyzeBatch(ctx context.Context, reqs []model.AnalysisRequest) (inference.BatchResult, error) {
	items := make([]inference.BatchItem, len(reqs))
	successful := 0
	for i, req := range reqs {
		result, err := m.Analyze(ctx, req)
		if err != nil || req.Description == "" {
			items[i] = inference.BatchItem{EventID: req.EventID, Err: fmt.Errorf("event %s: missing description", req.EventID)}
			continue
		}
		items[i] = inference.BatchItem{EventID: req.EventID, Result: &result}
		successful++
	}
	return inference.BatchResult{Items: items, Total: len(reqs), Successful: successful}, nil
}

func (m *mockDeps) Classify(ctx context.Context, req model.AnalysisRequest) inference.ClassificationReport {
	return inference.ClassificationReport{EventID: req.EventID, SourceCount: len(req.Sources)}
}

func (m *mockDeps) Confidence(ctx context.Context, f features.Set) (scoring.Result, error) {
	return scoring.Result{ConfidenceScore: 0.75, Recommendation: "manual_review"}, nil
}

func (m *mockDeps) AssessFraud(ctx context.Context, p fraud.Proposal) fraud.Assessment {
	return fraud.Assessment{RiskLevel: fraud.RiskMinimal, Recommendation: fraud.RecommendApprove, RiskFactors: []string{}}
}

func (m *mockDeps) ModelStatus() scoring.ModelStatus {
	return scoring.ModelStatus{XGBLoaded: true, NNLoaded: false, Device: "cpu"}
}

func (m *mockDeps) MaxBatchSize() int { return 2 }

func (m *mockDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func newTestServer(deps *mockDeps) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := &mockDeps{}
		ts := newTestServer(deps)
		defer ts.Close()

		Convey("When posting a valid analyze request", func() {
			resp := postJSON(t, ts.URL+"/api/v1/analyze", map[string]any{
				"event_id":    "evt-1",
				"description": "something happened",
			})

			Convey("Then it should return the decision", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var result map[string]any
				decodeBody(t, resp, &result)
				So(result["event_id"], ShouldEqual, "evt-1")
			})
		})

		Convey("When posting malformed JSON", func() {
			resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json", bytes.NewReader([]byte("{not json")))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the event id is missing", func() {
			resp := postJSON(t, ts.URL+"/api/v1/analyze", map[string]any{"description": "x"})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the description is missing", func() {
			resp := postJSON(t, ts.URL+"/api/v1/analyze", map[string]any{"event_id": "evt-1"})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service reports backpressure", func() {
			deps.analyzeErr = fmt.Errorf("event evt-1: %w", inference.ErrBackpressure)
			resp := postJSON(t, ts.URL+"/api/v1/analyze", map[string]any{
				"event_id":    "evt-1",
				"description": "something happened",
			})
			defer resp.Body.Close()

			Convey("Then it should return 429", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			})
		})

		Convey("When the service fails internally", func() {
			deps.analyzeErr = fmt.Errorf("event evt-1: confidence scoring failed: model offline")
			resp := postJSON(t, ts.URL+"/api/v1/analyze", map[string]any{
				"event_id":    "evt-1",
				"description": "something happened",
			})
			defer resp.Body.Close()

			Convey("Then it should return 500", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When using the wrong method", func() {
			resp, err := http.Get(ts.URL + "/api/v1/analyze")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestBatchEndpoint(t *testing.T) {
	Convey("Given the API server with a batch limit of 2", t, func() {
		ts := newTestServer(&mockDeps{})
		defer ts.Close()

		Convey("When posting a mixed-validity batch", func() {
			resp := postJSON(t, ts.URL+"/api/v1/batch-analyze", []map[string]any{
				{"event_id": "a", "description": "ok"},
				{"event_id": "b", "description": ""},
			})

			Convey("Then totals and per-item outcomes are reported", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				var body struct {
					Results    []json.RawMessage `json:"results"`
					Total      int               `json:"total"`
					Successful int               `json:"successful"`
				}
				decodeBody(t, resp, &body)
				So(body.Total, ShouldEqual, 2)
				So(body.Successful, ShouldEqual, 1)
				So(body.Results, ShouldHaveLength, 2)

				var failed struct {
					EventID string `json:"event_id"`
					Error   string `json:"error"`
				}
				So(json.Unmarshal(body.Results[1], &failed), ShouldBeNil)
				So(failed.EventID, ShouldEqual, "b")
				So(failed.Error, ShouldContainSubstring, "missing description")
			})
		})

		Convey("When the batch exceeds the limit", func() {
			resp := postJSON(t, ts.URL+"/api/v1/batch-analyze", []map[string]any{
				{"event_id": "a", "description": "x"},
				{"event_id": "b", "description": "x"},
				{"event_id": "c", "description": "x"},
			})
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestClassifyAndConfidenceEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts := newTestServer(&mockDeps{})
		defer ts.Close()

		Convey("When posting a classify request", func() {
			resp := postJSON(t, ts.URL+"/api/v1/classify", map[string]any{
				"event_id":    "evt-1",
				"description": "the game",
				"sources":     []map[string]any{{"type": "news"}},
			})

			Convey("Then the report is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var report map[string]any
				decodeBody(t, resp, &report)
				So(report["event_id"], ShouldEqual, "evt-1")
				So(report["source_count"], ShouldEqual, 1)
			})
		})

		Convey("When posting a complete confidence request", func() {
			resp := postJSON(t, ts.URL+"/api/v1/confidence", map[string]any{
				"event_id":               "evt-7",
				"source_count":           3,
				"avg_credibility":        0.8,
				"source_diversity":       2,
				"consensus_percentage":   0.9,
				"conflict_count":         0,
				"time_since_event_hours": 4,
				"category_confidence":    0.7,
				"historical_accuracy":    0.85,
				"data_consistency_score": 0.9,
				"social_sentiment":       0.6,
			})

			Convey("Then a score comes back with the event id echoed", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var result map[string]any
				decodeBody(t, resp, &result)
				So(result["event_id"], ShouldEqual, "evt-7")
				So(result["confidence_score"], ShouldEqual, 0.75)
				So(result["recommendation"], ShouldEqual, "manual_review")
			})
		})

		Convey("When a confidence field is missing", func() {
			resp := postJSON(t, ts.URL+"/api/v1/confidence", map[string]any{
				"event_id":     "evt-7",
				"source_count": 3,
			})
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the confidence event id is missing", func() {
			resp := postJSON(t, ts.URL+"/api/v1/confidence", map[string]any{
				"source_count":           3,
				"avg_credibility":        0.8,
				"source_diversity":       2,
				"consensus_percentage":   0.9,
				"conflict_count":         0,
				"time_since_event_hours": 4,
				"category_confidence":    0.7,
				"historical_accuracy":    0.85,
				"data_consistency_score": 0.9,
				"social_sentiment":       0.6,
			})
			defer resp.Body.Close()

			Convey("Then it should reject with 400", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestFraudAndStatusEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts := newTestServer(&mockDeps{})
		defer ts.Close()

		Convey("When posting a fraud assessment request", func() {
			resp := postJSON(t, ts.URL+"/api/v1/fraud", map[string]any{
				"confidence_score": 0.8,
				"source_count":     4,
			})

			Convey("Then an assessment is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var assessment map[string]any
				decodeBody(t, resp, &assessment)
				So(assessment["risk_level"], ShouldEqual, fraud.RiskMinimal)
			})
		})

		Convey("When fetching model status", func() {
			resp, err := http.Get(ts.URL + "/api/v1/models/status")
			So(err, ShouldBeNil)

			Convey("Then artifact states are reported", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var status map[string]any
				decodeBody(t, resp, &status)
				So(status["xgb_model"], ShouldEqual, "loaded")
				So(status["nn_model"], ShouldEqual, "not_loaded")
				So(status["fraud_detection"], ShouldEqual, "active")
				So(status["device"], ShouldEqual, "cpu")
				So(status["status"], ShouldEqual, "healthy")
			})
		})
	})
}

func TestInfoEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		ts := newTestServer(&mockDeps{})
		defer ts.Close()

		Convey("When fetching the health endpoint", func() {
			resp, err := http.Get(ts.URL + "/health")
			So(err, ShouldBeNil)

			Convey("Then the service reports healthy", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var health map[string]string
				decodeBody(t, resp, &health)
				So(health["status"], ShouldEqual, "healthy")
			})
		})

		Convey("When fetching the service root", func() {
			resp, err := http.Get(ts.URL + "/")
			So(err, ShouldBeNil)

			Convey("Then the service info is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var info map[string]string
				decodeBody(t, resp, &info)
				So(info["service"], ShouldEqual, "verdict")
			})
		})

		Convey("When fetching an unknown path", func() {
			resp, err := http.Get(ts.URL + "/nope")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When fetching stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)

			Convey("Then the stats document is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var stats map[string]any
				decodeBody(t, resp, &stats)
				So(stats["started"], ShouldEqual, true)
			})
		})

		Convey("When fetching metrics", func() {
			resp, err := http.Get(ts.URL + "/metrics")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the Prometheus exposition is served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}
