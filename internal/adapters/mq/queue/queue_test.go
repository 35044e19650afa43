package queue_test

import (
	"context"
	"testing"
	"time"

	queue "github.com/predictlink/verdict/internal/adapters/mq/queue"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue_EnqueueDequeue(t *testing.T) {
	Convey("Given an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		ctx := context.Background()

		Convey("When enqueueing a task", func() {
			ok := q.Enqueue(ctx, queue.Task{EventID: "e1"})

			Convey("Then the enqueue succeeds", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})

			Convey("And the task comes back out on dequeue", func() {
				task := <-q.Dequeue(ctx)
				So(task.EventID, ShouldEqual, "e1")
			})
		})

		Convey("When enqueueing multiple tasks", func() {
			for _, id := range []string{"a", "b", "c"} {
				So(q.Enqueue(ctx, queue.Task{EventID: id}), ShouldBeTrue)
			}

			Convey("Then they dequeue in order", func() {
				out := q.Dequeue(ctx)
				So((<-out).EventID, ShouldEqual, "a")
				So((<-out).EventID, ShouldEqual, "b")
				So((<-out).EventID, ShouldEqual, "c")
			})
		})
	})
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	Convey("Given a full queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		ctx := context.Background()
		So(q.Enqueue(ctx, queue.Task{EventID: "fill"}), ShouldBeTrue)

		Convey("When enqueueing with a deadline", func() {
			deadlineCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			ok := q.Enqueue(deadlineCtx, queue.Task{EventID: "blocked"})

			Convey("Then the enqueue gives up when the context expires", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a consumer frees space", func() {
			go func() {
				time.Sleep(10 * time.Millisecond)
				<-q.Dequeue(ctx)
			}()

			ok := q.Enqueue(ctx, queue.Task{EventID: "waited"})

			Convey("Then the blocked enqueue completes", func() {
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestInMemoryQueue_Close(t *testing.T) {
	Convey("Given an open queue with a buffered task", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		ctx := context.Background()
		So(q.Enqueue(ctx, queue.Task{EventID: "pending"}), ShouldBeTrue)

		Convey("When closing it", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then it reports closed", func() {
				So(q.IsClosed(), ShouldBeTrue)
			})

			Convey("And further enqueues are rejected", func() {
				So(q.Enqueue(ctx, queue.Task{EventID: "late"}), ShouldBeFalse)
			})

			Convey("And the dequeue channel drains then closes", func() {
				out := q.Dequeue(ctx)
				task, ok := <-out
				So(ok, ShouldBeTrue)
				So(task.EventID, ShouldEqual, "pending")

				_, ok = <-out
				So(ok, ShouldBeFalse)
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}
