package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/attrition/internal/adapters/mq/queue"
	worker "github.com/okian/attrition/internal/adapters/mq/worker"
	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/prediction"
	logging "github.com/okian/attrition/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	entries chan queue.Entry
	once    sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{entries: make(chan queue.Entry, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Entry {
	return mq.entries
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.entries) })
	return nil
}

func (mq *mockQueue) add(e queue.Entry) { //nolint:gocritic // hugeParam
	mq.entries <- e
}

type mockSaver struct {
	mu     sync.Mutex
	saved  map[string]repository.Prediction
	errors map[string]error
}

func newMockSaver() *mockSaver {
	return &mockSaver{
		saved:  make(map[string]repository.Prediction),
		errors: make(map[string]error),
	}
}

func (ms *mockSaver) SaveAssessment(ctx context.Context, emp employee.Profile, pred repository.Prediction) (employee.Profile, repository.Prediction, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err, ok := ms.errors[emp.Poste]; ok {
		return employee.Profile{}, repository.Prediction{}, err
	}
	pred.ID = int64(len(ms.saved) + 1)
	ms.saved[emp.Poste] = pred
	return emp, pred, nil
}

func (ms *mockSaver) setError(poste string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errors[poste] = err
}

func (ms *mockSaver) get(poste string) (repository.Prediction, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	p, ok := ms.saved[poste]
	return p, ok
}

func (ms *mockSaver) count() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.saved)
}

func entry(id, poste string, class int, proba float64) queue.Entry {
	return queue.Entry{
		RequestID: id,
		Profile: employee.Profile{
			Age:         35,
			Genre:       "F",
			Poste:       poste,
			Departement: "Consulting",
		},
		Result: prediction.Result{
			Class:       class,
			Probability: proba,
			Label:       prediction.LabelFor(class),
		},
		At: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
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
		saver := newMockSaver()

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewInMemoryWorker(q, saver,
				worker.WithName("test-worker"),
				worker.WithWriteTimeout(time.Second),
				worker.WithLogger(logging.Named("custom")),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
				convey.So(w.Written(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(q, saver)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And an entry is queued", func() {
				q.add(entry("req-1", "Consultant", 1, 0.91))

				convey.Convey("Then the prediction is stored with the default model version", func() {
					convey.So(waitFor(func() bool { return w.Written() == 1 }), convey.ShouldBeTrue)
					pred, ok := saver.get("Consultant")
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(pred.Class, convey.ShouldEqual, 1)
					convey.So(pred.Probability, convey.ShouldEqual, 0.91)
					convey.So(pred.Label, convey.ShouldEqual, prediction.LabelAtRisk)
					convey.So(pred.ModelVersion, convey.ShouldEqual, repository.DefaultModelVersion)
					convey.So(pred.PredictedAt.Year(), convey.ShouldEqual, 2024)
				})
			})

			convey.Convey("And the store rejects an entry", func() {
				saver.setError("Manager", errors.New("db down"))
				q.add(entry("req-2", "Manager", 0, 0.1))
				q.add(entry("req-3", "Consultant", 0, 0.2))

				convey.Convey("Then the worker keeps going", func() {
					convey.So(waitFor(func() bool { return w.Written() == 1 && w.Failed() == 1 }), convey.ShouldBeTrue)
					_, ok := saver.get("Manager")
					convey.So(ok, convey.ShouldBeFalse)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue channel is closed", func() {
			w := worker.NewInMemoryWorker(q, saver)
			go w.Run(context.Background())
			_ = q.Close()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When the context is cancelled", func() {
			w := worker.NewInMemoryWorker(q, saver)
			ctx, cancel := context.WithCancel(context.Background())
			go w.Run(ctx)
			cancel()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, newMockQueue(), newMockSaver())

			convey.Convey("Then it uses one worker per CPU", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When entries are queued and the pool is shut down", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(500))
			saver := newMockSaver()
			pool := worker.NewPool(4, q, saver)
			pool.Start(context.Background())

			ctx := context.Background()
			for i := 0; i < 200; i++ {
				convey.So(q.Enqueue(ctx, entry(fmt.Sprintf("req-%d", i), fmt.Sprintf("poste-%d", i), i%2, 0.5)), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then every pending entry is written before it returns", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(saver.count(), convey.ShouldEqual, 200)
				convey.So(pool.Written(), convey.ShouldEqual, 200)
				convey.So(pool.Failed(), convey.ShouldEqual, 0)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerWithMemoryStore(t *testing.T) {
	convey.Convey("Given a pool writing to the memory store", t, func() {
		_ = logging.Init()

		store := repository.NewMemoryStore()
		defer store.Close()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		pool := worker.NewPool(2, q, store)
		pool.Start(context.Background())

		ctx := context.Background()
		e := entry("req-1", "Consultant", 1, 0.8)
		e.ModelVersion = "2.0.0"
		convey.So(q.Enqueue(ctx, e), convey.ShouldBeTrue)
		convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

		convey.Convey("Then the assessment is readable from the store", func() {
			stats, err := store.Statistics(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(stats.TotalPredictions, convey.ShouldEqual, 1)
			convey.So(stats.AtRisk, convey.ShouldEqual, 1)

			preds, err := store.ListPredictions(ctx, repository.Page{Limit: 10})
			convey.So(err, convey.ShouldBeNil)
			convey.So(preds, convey.ShouldHaveLength, 1)
			convey.So(preds[0].ModelVersion, convey.ShouldEqual, "2.0.0")
		})
	})
}
