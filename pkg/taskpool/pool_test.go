package taskpool_test

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/kubev2v/inkcore/pkg/errors"
	"github.com/kubev2v/inkcore/pkg/log"
	"github.com/kubev2v/inkcore/pkg/taskpool"
)

var _ = Describe("Pool", func() {
	var p *taskpool.Pool

	AfterEach(func() {
		if p != nil {
			p.Close()
		}
	})

	Describe("Submit", func() {
		It("should return a future holding the result", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			add := func(a, b int) taskpool.Work[int] {
				return func(ctx context.Context) (int, error) {
					return a + b, nil
				}
			}

			future, err := taskpool.Submit(p, add(3, 4))
			Expect(err).NotTo(HaveOccurred())

			v, err := future.Get(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(7))
		})

		It("should deliver the work error through the future", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))
			boom := errors.New("boom")

			future, err := p.Submit(func(ctx context.Context) (any, error) {
				return nil, boom
			})
			Expect(err).NotTo(HaveOccurred())

			Eventually(future.Done(), time.Second).Should(BeClosed())
			Expect(future.Result().Err).To(MatchError(boom))
		})

		It("should capture panics without killing the worker", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			future, err := p.Submit(func(ctx context.Context) (any, error) {
				panic("kaboom")
			})
			Expect(err).NotTo(HaveOccurred())

			res := future.Result()
			Expect(srvErrors.IsTaskPanickedError(res.Err)).To(BeTrue())
			Expect(res.Err.Error()).To(ContainSubstring("kaboom"))

			// the single worker is still alive
			next, err := taskpool.Submit(p, func(ctx context.Context) (string, error) {
				return "alive", nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(next.Result().Data).To(Equal("alive"))
		})

		It("should dequeue in submission order", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			var (
				mu    sync.Mutex
				order []int
			)
			for i := range 50 {
				_, err := p.Submit(func(ctx context.Context) (any, error) {
					mu.Lock()
					order = append(order, i)
					mu.Unlock()
					return nil, nil
				})
				Expect(err).NotTo(HaveOccurred())
			}
			p.Wait()

			Expect(order).To(HaveLen(50))
			for i, v := range order {
				Expect(v).To(Equal(i))
			}
		})

		// Given 10k tasks submitted concurrently to 8 workers
		// When the pool has drained
		// Then every task body has run exactly once
		It("should execute every task exactly once under concurrent submission", func() {
			p = taskpool.New(8, taskpool.WithLogger(log.Nop()))

			const total = 10000
			counts := make([]atomic.Int32, total)

			var wg sync.WaitGroup
			for g := range 10 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					for i := g; i < total; i += 10 {
						_, err := p.Submit(func(ctx context.Context) (any, error) {
							counts[i].Add(1)
							return nil, nil
						})
						Expect(err).NotTo(HaveOccurred())
					}
				}()
			}
			wg.Wait()
			p.Wait()

			for i := range counts {
				Expect(counts[i].Load()).To(Equal(int32(1)), "task %d", i)
			}
		})
	})

	Describe("Wait", func() {
		It("should return immediately on an idle pool", func() {
			p = taskpool.New(2, taskpool.WithLogger(log.Nop()))

			done := make(chan struct{})
			go func() {
				p.Wait()
				close(done)
			}()
			Eventually(done, 100*time.Millisecond).Should(BeClosed())
		})

		It("should block until all queued and running tasks complete", func() {
			p = taskpool.New(3, taskpool.WithLogger(log.Nop()))

			var completed atomic.Int32
			for range 12 {
				_, err := p.Submit(func(ctx context.Context) (any, error) {
					time.Sleep(20 * time.Millisecond)
					completed.Add(1)
					return nil, nil
				})
				Expect(err).NotTo(HaveOccurred())
			}

			p.Wait()
			Expect(completed.Load()).To(Equal(int32(12)))
			Expect(p.ActiveWorkers()).To(BeZero())
			Expect(p.Stats().Queued).To(BeZero())
			Expect(p.Stats().Pending).To(BeZero())
		})

		It("should support several concurrent waiters", func() {
			p = taskpool.New(2, taskpool.WithLogger(log.Nop()))

			unblock := make(chan struct{})
			_, err := p.Submit(func(ctx context.Context) (any, error) {
				<-unblock
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())

			var wg sync.WaitGroup
			for range 3 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					p.Wait()
				}()
			}
			allDone := make(chan struct{})
			go func() {
				wg.Wait()
				close(allDone)
			}()

			Consistently(allDone, 100*time.Millisecond).ShouldNot(BeClosed())
			close(unblock)
			Eventually(allDone, time.Second).Should(BeClosed())
		})
	})

	Describe("Future.Stop", func() {
		It("should skip work cancelled before a worker picked it up", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			unblock := make(chan struct{})
			_, err := p.Submit(func(ctx context.Context) (any, error) {
				<-unblock
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())

			var ran atomic.Bool
			queued, err := p.Submit(func(ctx context.Context) (any, error) {
				ran.Store(true)
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())

			queued.Stop()
			close(unblock)

			Expect(queued.Result().Err).To(MatchError(context.Canceled))
			Expect(ran.Load()).To(BeFalse())
		})

		It("should cancel the context of running work", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			started := make(chan struct{})
			future, err := p.Submit(func(ctx context.Context) (any, error) {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			})
			Expect(err).NotTo(HaveOccurred())

			Eventually(started, time.Second).Should(BeClosed())
			future.Stop()
			Eventually(future.Done(), time.Second).Should(BeClosed())
			Expect(future.Result().Err).To(MatchError(context.Canceled))
		})
	})

	Describe("Future.Get", func() {
		It("should give up when its context is done", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			unblock := make(chan struct{})
			defer close(unblock)
			future, err := p.Submit(func(ctx context.Context) (any, error) {
				<-unblock
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err = future.Get(ctx)
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	Describe("Shutdown", func() {
		// Given queued work behind a busy worker
		// When the pool is shut down
		// Then queued work still runs and new work is rejected
		It("should drain queued tasks and then reject new ones", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			unblock := make(chan struct{})
			_, err := p.Submit(func(ctx context.Context) (any, error) {
				<-unblock
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())

			var futures []*taskpool.Future[int]
			for i := range 5 {
				f, err := taskpool.Submit(p, func(ctx context.Context) (int, error) {
					return i, nil
				})
				Expect(err).NotTo(HaveOccurred())
				futures = append(futures, f)
			}

			shutdownDone := make(chan struct{})
			go func() {
				p.Shutdown()
				close(shutdownDone)
			}()

			Eventually(func() bool { return p.Stats().Stopping }, time.Second).Should(BeTrue())
			_, err = p.Submit(func(ctx context.Context) (any, error) { return nil, nil })
			Expect(srvErrors.IsPoolStoppedError(err)).To(BeTrue())

			close(unblock)
			Eventually(shutdownDone, time.Second).Should(BeClosed())

			for i, f := range futures {
				res := f.Result()
				Expect(res.Err).NotTo(HaveOccurred())
				Expect(res.Data).To(Equal(i))
			}
		})

		It("should be idempotent", func() {
			p = taskpool.New(2, taskpool.WithLogger(log.Nop()))
			p.Shutdown()
			p.Shutdown()
			p.Close()
		})
	})

	Describe("Close", func() {
		It("should drop queued tasks and let running ones finish", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))

			started := make(chan struct{})
			unblock := make(chan struct{})
			running, err := taskpool.Submit(p, func(ctx context.Context) (string, error) {
				close(started)
				<-unblock
				return "finished", nil
			})
			Expect(err).NotTo(HaveOccurred())
			Eventually(started, time.Second).Should(BeClosed())

			var ran atomic.Bool
			queued, err := p.Submit(func(ctx context.Context) (any, error) {
				ran.Store(true)
				return nil, nil
			})
			Expect(err).NotTo(HaveOccurred())

			closeDone := make(chan struct{})
			go func() {
				p.Close()
				close(closeDone)
			}()

			Eventually(queued.Done(), time.Second).Should(BeClosed())
			Expect(srvErrors.IsPoolDestroyedError(queued.Result().Err)).To(BeTrue())

			Consistently(closeDone, 100*time.Millisecond).ShouldNot(BeClosed())
			close(unblock)
			Eventually(closeDone, time.Second).Should(BeClosed())

			Expect(running.Result().Data).To(Equal("finished"))
			Expect(ran.Load()).To(BeFalse())
			p = nil
		})

		It("should reject submissions after close", func() {
			p = taskpool.New(1, taskpool.WithLogger(log.Nop()))
			p.Close()

			future, err := p.Submit(func(ctx context.Context) (any, error) { return nil, nil })
			Expect(future).To(BeNil())
			Expect(err).To(HaveOccurred())
			Expect(srvErrors.IsPoolStoppedError(err)).To(BeTrue())
		})

		It("should drop everything queued on a pool without workers", func() {
			p = taskpool.New(0, taskpool.WithLogger(log.Nop()))

			future, err := p.Submit(func(ctx context.Context) (any, error) { return nil, nil })
			Expect(err).NotTo(HaveOccurred())
			Consistently(future.Done(), 50*time.Millisecond).ShouldNot(BeClosed())

			p.Close()
			Expect(srvErrors.IsPoolDestroyedError(future.Result().Err)).To(BeTrue())

			// nothing pending any more
			done := make(chan struct{})
			go func() {
				p.Wait()
				close(done)
			}()
			Eventually(done, time.Second).Should(BeClosed())
		})

		It("should not leak goroutines", func() {
			base := runtime.NumGoroutine()
			p = taskpool.New(8, taskpool.WithLogger(log.Nop()))
			for range 200 {
				_, err := p.Submit(func(ctx context.Context) (any, error) { return nil, nil })
				Expect(err).NotTo(HaveOccurred())
			}
			p.Close()
			p = nil

			Eventually(func() int {
				return runtime.NumGoroutine()
			}, 5*time.Second, 100*time.Millisecond).Should(BeNumerically("<=", base+5))
		})
	})
})
