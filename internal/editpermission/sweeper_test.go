package editpermission_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/project-ledger/internal/editpermission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingExpirer struct {
	calls int32
	err   error
}

func (e *countingExpirer) ExpireSweep(ctx context.Context) (int64, error) {
	atomic.AddInt32(&e.calls, 1)
	return 0, e.err
}

// blockingExpirer holds every sweep open until its context ends.
type blockingExpirer struct {
	started chan struct{}
	err     chan error
}

func (e *blockingExpirer) ExpireSweep(ctx context.Context) (int64, error) {
	close(e.started)
	<-ctx.Done()
	e.err <- ctx.Err()
	return 0, ctx.Err()
}

var _ = Describe("Sweeper", func() {
	var slogger *slog.Logger

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	It("rejects invalid schedules", func() {
		_, err := editpermission.NewSweeper(&countingExpirer{}, "every now and then", slogger)
		Expect(err).To(HaveOccurred())
	})

	It("sweeps at start and on schedule until cancelled", func() {
		expirer := &countingExpirer{}
		sweeper, err := editpermission.NewSweeper(expirer, "@every 1s", slogger)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- sweeper.Run(ctx) }()

		Eventually(func() int32 { return atomic.LoadInt32(&expirer.calls) }, 3*time.Second, 50*time.Millisecond).
			Should(BeNumerically(">=", 2))

		cancel()
		Eventually(done, 2*time.Second).Should(Receive(BeNil()))
	})

	It("aborts a sweep in flight when cancelled", func() {
		expirer := &blockingExpirer{started: make(chan struct{}), err: make(chan error, 1)}
		sweeper, err := editpermission.NewSweeper(expirer, "@every 1h", slogger)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- sweeper.Run(ctx) }()

		Eventually(expirer.started, 2*time.Second).Should(BeClosed())
		cancel()

		Eventually(expirer.err, 2*time.Second).Should(Receive(MatchError(context.Canceled)))
		Eventually(done, 2*time.Second).Should(Receive(BeNil()))
	})

	It("reports the error from a one-off sweep", func() {
		expirer := &countingExpirer{err: errors.New("db down")}
		sweeper, err := editpermission.NewSweeper(expirer, "@every 1h", slogger)
		Expect(err).NotTo(HaveOccurred())

		_, err = sweeper.RunOnce(context.Background())
		Expect(err).To(HaveOccurred())
		Expect(atomic.LoadInt32(&expirer.calls)).To(Equal(int32(1)))
	})
})
