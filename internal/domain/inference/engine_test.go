package inference_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	repository "github.com/predictlink/verdict/internal/adapters/repository"
	classify "github.com/predictlink/verdict/internal/domain/classify"
	features "github.com/predictlink/verdict/internal/domain/features"
	fraud "github.com/predictlink/verdict/internal/domain/fraud"
	inference "github.com/predictlink/verdict/internal/domain/inference"
	"github.com/predictlink/verdict/internal/domain/model"
	scoring "github.com/predictlink/verdict/internal/domain/scoring"
	"github.com/predictlink/verdict/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// countingScorer records how many times it is invoked.
type countingScorer struct {
	mu     sync.Mutex
	calls  int
	result scoring.Result
	err    error
}

func (s *countingScorer) Score(ctx context.Context, f features.Set) (scoring.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return scoring.Result{}, s.err
	}
	return s.result, nil
}

func (s *countingScorer) Ready() bool { return true }

func (s *countingScorer) Status() scoring.ModelStatus {
	return scoring.ModelStatus{XGBLoaded: true, NNLoaded: true, Device: "cpu"}
}

func (s *countingScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func sportsRequest(id string) model.AnalysisRequest {
	cred := 0.8
	return model.AnalysisRequest{
		EventID:     id,
		Description: "The championship game ended in a stunning win for the home team",
		Sources: []model.Source{
			{Type: "news", Credibility: &cred, Data: model.SourceData{Outcome: "home"}},
			{Type: "api", Data: model.SourceData{Outcome: "home"}},
		},
	}
}

func newStartedEngine(scorer scoring.Scorer, opts ...inference.Option) (*inference.Engine, func()) {
	engine := inference.New(scorer, fraud.New(), opts...)
	ctx := context.Background()
	engine.Start(ctx)
	return engine, func() { engine.Stop(ctx) }
}

func TestEngine_Evaluate(t *testing.T) {
	Convey("Given a started engine", t, func() {
		scorer := &countingScorer{result: scoring.Result{ConfidenceScore: 0.9, Recommendation: "approve"}}
		engine, stop := newStartedEngine(scorer)
		defer stop()
		ctx := context.Background()

		Convey("When evaluating a request", func() {
			result, err := engine.Evaluate(ctx, sportsRequest("evt-1"))

			Convey("Then the result merges every pipeline stage", func() {
				So(err, ShouldBeNil)
				So(result.EventID, ShouldEqual, "evt-1")
				So(result.Classification.PrimaryCategory, ShouldEqual, classify.CategorySports)
				So(result.Confidence.ConfidenceScore, ShouldEqual, 0.9)
				So(result.FraudDetection.RiskLevel, ShouldNotBeEmpty)
				So(result.Timestamp.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When evaluating the same request twice", func() {
			first, err1 := engine.Evaluate(ctx, sportsRequest("evt-2"))
			second, err2 := engine.Evaluate(ctx, sportsRequest("evt-2"))

			Convey("Then the pipeline runs once and the cache serves the repeat", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(scorer.callCount(), ShouldEqual, 1)
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the description is empty", func() {
			_, err := engine.Evaluate(ctx, model.AnalysisRequest{EventID: "evt-3", Description: "   "})

			Convey("Then the evaluation fails with the validation error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, inference.ErrEmptyDescription), ShouldBeTrue)
			})
		})

		Convey("When the scorer fails", func() {
			failing := &countingScorer{err: errors.New("model offline")}
			failEngine, failStop := newStartedEngine(failing)
			defer failStop()

			_, err := failEngine.Evaluate(ctx, sportsRequest("evt-4"))

			Convey("Then the error names the event and the failing stage", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "evt-4")
				So(err.Error(), ShouldContainSubstring, "confidence scoring failed")
			})

			Convey("And the failure is not cached", func() {
				_, _ = failEngine.Evaluate(ctx, sportsRequest("evt-4"))
				So(failing.callCount(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an engine that was never started", t, func() {
		scorer := &countingScorer{}
		engine := inference.New(scorer, fraud.New())

		Convey("Then evaluation is refused", func() {
			_, err := engine.Evaluate(context.Background(), sportsRequest("evt-5"))
			So(err, ShouldEqual, inference.ErrNotStarted)
		})
	})
}

func TestEngine_EvaluateBatch(t *testing.T) {
	Convey("Given a started engine", t, func() {
		scorer := &countingScorer{result: scoring.Result{ConfidenceScore: 0.7, Recommendation: "manual_review"}}
		engine, stop := newStartedEngine(scorer, inference.WithWorkerCount(2))
		defer stop()
		ctx := context.Background()

		Convey("When evaluating a batch with one invalid item", func() {
			reqs := []model.AnalysisRequest{
				sportsRequest("evt-a"),
				{EventID: "evt-b", Description: ""},
				sportsRequest("evt-c"),
			}
			batch := engine.EvaluateBatch(ctx, reqs)

			Convey("Then totals reflect the partial failure", func() {
				So(batch.Total, ShouldEqual, 3)
				So(batch.Successful, ShouldEqual, 2)
			})

			Convey("And items come back in submission order", func() {
				So(batch.Items[0].EventID, ShouldEqual, "evt-a")
				So(batch.Items[1].EventID, ShouldEqual, "evt-b")
				So(batch.Items[2].EventID, ShouldEqual, "evt-c")
			})

			Convey("And the failed item carries its error without a result", func() {
				So(batch.Items[1].Err, ShouldNotBeNil)
				So(batch.Items[1].Result, ShouldBeNil)
				So(batch.Items[0].Err, ShouldBeNil)
				So(batch.Items[0].Result, ShouldNotBeNil)
			})
		})

		Convey("When evaluating an empty batch", func() {
			batch := engine.EvaluateBatch(ctx, nil)

			Convey("Then the result is empty but well-formed", func() {
				So(batch.Total, ShouldEqual, 0)
				So(batch.Successful, ShouldEqual, 0)
				So(batch.Items, ShouldBeEmpty)
			})
		})
	})
}

func TestEngine_History(t *testing.T) {
	Convey("Given an engine with a population window", t, func() {
		scorer := &countingScorer{result: scoring.Result{ConfidenceScore: 0.8, Recommendation: "approve"}}
		window := repository.NewRingStore(repository.WithCapacity(16))
		engine, stop := newStartedEngine(scorer, inference.WithHistory(window))
		defer stop()
		ctx := context.Background()

		Convey("When evaluating requests", func() {
			_, err1 := engine.Evaluate(ctx, sportsRequest("evt-1"))
			_, err2 := engine.Evaluate(ctx, sportsRequest("evt-2"))

			Convey("Then each evaluation records one observed sample", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(window.Count(ctx), ShouldEqual, 2)
			})

			Convey("And the samples are 8-dimensional vectors", func() {
				So(window.Samples(ctx)[0], ShouldHaveLength, 8)
			})
		})
	})
}

func TestEngine_CacheKey(t *testing.T) {
	Convey("Given analysis requests", t, func() {
		Convey("When the description is short", func() {
			key := inference.CacheKey(model.AnalysisRequest{
				EventID:     "e1",
				Description: "short",
				Sources:     make([]model.Source, 2),
			})

			Convey("Then the key is id, description and source count", func() {
				So(key, ShouldEqual, "e1_short_2")
			})
		})

		Convey("When the description is long", func() {
			long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
			key := inference.CacheKey(model.AnalysisRequest{EventID: "e2", Description: long})

			Convey("Then only the first 50 characters contribute", func() {
				So(key, ShouldEqual, "e2_"+long[:50]+"_0")
			})
		})

		Convey("When two requests differ only beyond the prefix", func() {
			long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"
			a := inference.CacheKey(model.AnalysisRequest{EventID: "e", Description: long + "-one"})
			b := inference.CacheKey(model.AnalysisRequest{EventID: "e", Description: long + "-two"})

			Convey("Then their keys collide by construction", func() {
				So(a, ShouldEqual, b)
			})
		})
	})
}

func TestEngine_Stats(t *testing.T) {
	Convey("Given a started engine", t, func() {
		scorer := &countingScorer{result: scoring.Result{ConfidenceScore: 0.8, Recommendation: "approve"}}
		engine, stop := newStartedEngine(scorer, inference.WithWorkerCount(3))
		defer stop()
		ctx := context.Background()

		Convey("Then pool and queue introspection work", func() {
			So(engine.PoolSize(), ShouldEqual, 3)
			So(engine.QueueLen(ctx), ShouldEqual, 0)
			So(engine.CacheLen(), ShouldEqual, 0)
		})

		Convey("When an evaluation completes", func() {
			_, err := engine.Evaluate(ctx, sportsRequest("evt-1"))
			So(err, ShouldBeNil)

			Convey("Then the cache holds one entry", func() {
				So(engine.CacheLen(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an unstarted engine", t, func() {
		engine := inference.New(&countingScorer{}, fraud.New())

		Convey("Then introspection reports zeros", func() {
			So(engine.PoolSize(), ShouldEqual, 0)
			So(engine.QueueLen(context.Background()), ShouldEqual, 0)
		})
	})
}
