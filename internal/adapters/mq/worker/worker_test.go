package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/duel/internal/adapters/mq/queue"
	worker "github.com/okian/duel/internal/adapters/mq/worker"
	model "github.com/okian/duel/internal/domain/model"
	logging "github.com/okian/duel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	reports chan queue.Report
}

func newMockQueue() *mockQueue {
	return &mockQueue{reports: make(chan queue.Report, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Report {
	return mq.reports
}

func (mq *mockQueue) Close() error {
	close(mq.reports)
	return nil
}

type mockRecorder struct {
	mu      sync.Mutex
	rounds  []int
	failFor map[int]error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{failFor: map[int]error{}}
}

func (m *mockRecorder) Record(ctx context.Context, r worker.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[r.Round]; ok {
		return err
	}
	m.rounds = append(m.rounds, r.Round)
	return nil
}

func (m *mockRecorder) recorded() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.rounds...)
}

type mockPublisher struct {
	mu     sync.Mutex
	rounds []int
}

func (m *mockPublisher) Publish(ctx context.Context, r worker.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds = append(m.rounds, r.Round)
}

func (m *mockPublisher) published() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.rounds...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newMockRecorder()
		pub := &mockPublisher{}

		convey.Convey("When created with a name and logger", func() {
			w := worker.NewInMemoryWorker(q, rec, pub, worker.WithName("test-worker"), worker.WithLogger(logging.Get()))
			convey.So(w, convey.ShouldNotBeNil)
		})

		convey.Convey("When running", func() {
			w := worker.NewInMemoryWorker(q, rec, pub)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And a report arrives", func() {
				q.reports <- model.RoundReport{MatchID: "m", Round: 1}

				convey.Convey("Then it is recorded and published", func() {
					convey.So(waitFor(func() bool { return len(pub.published()) == 1 }), convey.ShouldBeTrue)
					convey.So(rec.recorded(), convey.ShouldResemble, []int{1})
				})
			})

			convey.Convey("And recording fails", func() {
				rec.failFor[2] = errors.New("disk full")
				q.reports <- model.RoundReport{MatchID: "m", Round: 2}
				q.reports <- model.RoundReport{MatchID: "m", Round: 3}

				convey.Convey("Then the failed report is not published and the worker goes on", func() {
					convey.So(waitFor(func() bool { return len(pub.published()) == 1 }), convey.ShouldBeTrue)
					convey.So(pub.published(), convey.ShouldResemble, []int{3})
				})
			})

			convey.Convey("And it is shut down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := w.Shutdown(shutdownCtx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue closes", func() {
			w := worker.NewInMemoryWorker(q, rec, nil)
			go w.Run(context.Background())
			_ = q.Close()

			convey.Convey("Then the worker stops on its own", func() {
				select {
				case <-w.Done():
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16), queue.WithName("pool-test"))
		rec := newMockRecorder()
		pub := &mockPublisher{}
		pool := worker.NewPool(0, q, rec, pub)

		convey.So(pool.Size(), convey.ShouldEqual, 1)

		ctx := context.Background()
		pool.Start(ctx)
		for i := 1; i <= 5; i++ {
			convey.So(q.Enqueue(ctx, model.RoundReport{MatchID: "m", Round: i}), convey.ShouldBeTrue)
		}

		convey.Convey("When the pool shuts down", func() {
			err := pool.Shutdown(ctx)

			convey.Convey("Then every queued report was drained in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.recorded(), convey.ShouldResemble, []int{1, 2, 3, 4, 5})
				convey.So(pub.published(), convey.ShouldResemble, []int{1, 2, 3, 4, 5})
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
