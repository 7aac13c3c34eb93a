package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/ranks/internal/adapters/mq/queue"
	"github.com/okian/ranks/internal/adapters/mq/worker"
	"github.com/smartystreets/goconvey/convey"
)

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		w := worker.New(q, worker.WithName("test"))
		ctx := context.Background()
		go w.Run(ctx)

		convey.Convey("When tasks are enqueued", func() {
			var mu sync.Mutex
			var order []int
			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				i := i
				wg.Add(1)
				err := q.Enqueue(ctx, queue.Task{Name: "append", Run: func(context.Context) {
					defer wg.Done()
					mu.Lock()
					order = append(order, i)
					mu.Unlock()
				}})
				convey.So(err, convey.ShouldBeNil)
			}
			wg.Wait()

			convey.Convey("Then they run in submission order", func() {
				convey.So(order, convey.ShouldResemble, []int{0, 1, 2, 3, 4})
			})
		})

		convey.Convey("When a task panics", func() {
			ran := make(chan struct{})
			_ = q.Enqueue(ctx, queue.Task{Name: "boom", Run: func(context.Context) { panic("boom") }})
			_ = q.Enqueue(ctx, queue.Task{Name: "after", Run: func(context.Context) { close(ran) }})

			convey.Convey("Then the loop survives and runs the next task", func() {
				select {
				case <-ran:
				case <-time.After(2 * time.Second):
					t.Fatal("task after panic never ran")
				}
				convey.So(w.Panics(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the queue is closed", func() {
			ran := 0
			for i := 0; i < 3; i++ {
				_ = q.Enqueue(ctx, queue.Task{Name: "count", Run: func(context.Context) { ran++ }})
			}
			_ = q.Close()
			sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			err := w.Shutdown(sctx)

			convey.Convey("Then pending tasks drain before shutdown returns", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ran, convey.ShouldEqual, 3)
				convey.So(w.Processed(), convey.ShouldEqual, 3)
			})
		})

		convey.Reset(func() { _ = q.Close() })
	})

	convey.Convey("Given a worker that never stops", t, func() {
		w := worker.New(queue.NewInMemoryQueue())

		convey.Convey("When shutdown times out", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			convey.Convey("Then an error is returned", func() {
				convey.So(w.Shutdown(ctx), convey.ShouldNotBeNil)
			})
		})
	})
}
