package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	queue "github.com/predictlink/verdict/internal/adapters/mq/queue"
	worker "github.com/predictlink/verdict/internal/adapters/mq/worker"
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

func TestInMemoryWorker_ProcessTask(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewInMemoryWorker(q, worker.WithName("test-worker"))
		ctx := context.Background()
		go w.Run(ctx)
		defer func() { _ = w.Shutdown(context.Background()) }()

		Convey("When a task succeeds", func() {
			reply := make(chan queue.Outcome, 1)
			q.Enqueue(ctx, queue.Task{
				Index:   3,
				EventID: "e1",
				Execute: func(ctx context.Context) (any, error) { return 42, nil },
				Reply:   reply,
			})

			Convey("Then the outcome carries the value and index", func() {
				outcome := <-reply
				So(outcome.Index, ShouldEqual, 3)
				So(outcome.Value, ShouldEqual, 42)
				So(outcome.Err, ShouldBeNil)
			})
		})

		Convey("When a task fails", func() {
			boom := errors.New("boom")
			reply := make(chan queue.Outcome, 1)
			q.Enqueue(ctx, queue.Task{
				EventID: "e2",
				Execute: func(ctx context.Context) (any, error) { return nil, boom },
				Reply:   reply,
			})

			Convey("Then the outcome is still delivered, carrying the error", func() {
				outcome := <-reply
				So(outcome.Err, ShouldEqual, boom)
				So(outcome.Value, ShouldBeNil)
			})
		})
	})
}

func TestPool_Processing(t *testing.T) {
	Convey("Given a started pool", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		pool := worker.NewPool(3, q)
		ctx := context.Background()
		pool.Start(ctx)

		Convey("Then it reports its size", func() {
			So(pool.Size(), ShouldEqual, 3)
			_ = pool.Shutdown(ctx)
		})

		Convey("When submitting many tasks", func() {
			reply := make(chan queue.Outcome, 8)
			for i := 0; i < 8; i++ {
				ok := q.Enqueue(ctx, queue.Task{
					Index:   i,
					Execute: func(ctx context.Context) (any, error) { return "done", nil },
					Reply:   reply,
				})
				So(ok, ShouldBeTrue)
			}

			Convey("Then every task produces an outcome", func() {
				seen := make(map[int]bool)
				for i := 0; i < 8; i++ {
					outcome := <-reply
					So(outcome.Err, ShouldBeNil)
					seen[outcome.Index] = true
				}
				So(len(seen), ShouldEqual, 8)
				_ = pool.Shutdown(ctx)
			})
		})

		Convey("When shutting down", func() {
			err := pool.Shutdown(ctx)

			Convey("Then the queue is closed with it", func() {
				So(err, ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, queue.Task{EventID: "late"}), ShouldBeFalse)
			})
		})
	})
}

func TestPool_MinimumSize(t *testing.T) {
	Convey("Given a pool requested with zero workers", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q)

		Convey("Then it still runs one worker", func() {
			So(pool.Size(), ShouldEqual, 1)
		})
	})
}

func TestWorker_Shutdown(t *testing.T) {
	Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		w := worker.NewInMemoryWorker(q)
		go w.Run(context.Background())

		Convey("When shutting it down", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err := w.Shutdown(ctx)

			Convey("Then it stops promptly", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}
