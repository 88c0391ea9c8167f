package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultJobTimeout bounds one run of a polling job.
const DefaultJobTimeout = time.Minute

// Poller starts cron-driven polling loops. Each loop is owned through the
// PollHandle it returns; there is no package-level timer state.
type Poller struct {
	logger     *logrus.Entry
	location   *time.Location
	jobTimeout time.Duration
}

func NewPoller(logger *logrus.Entry) *Poller {
	return &Poller{
		logger:     logger,
		location:   time.Local, // Dose times are local wall-clock times
		jobTimeout: DefaultJobTimeout,
	}
}

// PollHandle is one active polling loop.
type PollHandle struct {
	name       string
	engine     *cron.Cron
	logger     *logrus.Entry
	stopOnce   sync.Once
	jobTimeout time.Duration
}

// StartPolling runs job on the given cron spec (e.g. "@every 30s") until the
// returned handle is stopped. Overlapping runs are skipped, not queued.
func (p *Poller) StartPolling(name, spec string, job func(ctx context.Context)) (*PollHandle, error) {
	logCtx := p.logger.WithField("poll", name)
	engine := cron.New(
		cron.WithLocation(p.location),
		cron.WithLogger(cron.PrintfLogger(logCtx)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(logCtx)), cron.SkipIfStillRunning(cron.PrintfLogger(logCtx))),
	)

	h := &PollHandle{name: name, engine: engine, logger: logCtx, jobTimeout: p.jobTimeout}
	if _, err := engine.AddFunc(spec, func() { h.run(job) }); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q for %s: %w", spec, name, err)
	}

	engine.Start()
	logCtx.Infof("Polling started with spec %q", spec)
	return h, nil
}

// RunNow executes the job once on the caller's goroutine, outside the cron cadence.
func (h *PollHandle) RunNow(job func(ctx context.Context)) {
	h.run(job)
}

func (h *PollHandle) run(job func(ctx context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), h.jobTimeout)
	defer cancel()
	job(ctx)
}

// Stop stops the loop and waits for a running job to finish. Safe to call twice.
func (h *PollHandle) Stop() {
	h.stopOnce.Do(func() {
		h.logger.Info("Stopping polling...")
		ctx := h.engine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
		<-ctx.Done()
		h.logger.Info("Polling stopped.")
	})
}
