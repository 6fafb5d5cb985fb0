package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Poller runs a function on a standard five-field cron schedule.
type Poller struct {
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger
}

// NewPoller validates schedule and registers fn. fn runs on the cron goroutine;
// overlapping runs are skipped.
func NewPoller(schedule string, fn func(), logger *zap.Logger) (*Poller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, fn); err != nil {
		return nil, fmt.Errorf("register schedule %q: %w", schedule, err)
	}
	return &Poller{cron: c, schedule: schedule, logger: logger}, nil
}

// Start begins firing in the background.
func (p *Poller) Start() {
	p.cron.Start()
	p.logger.Sugar().Infow("poller started", "schedule", p.schedule)
}

// Stop prevents further runs and waits for a running one, or for ctx.
func (p *Poller) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	p.logger.Sugar().Infow("poller stopped", "schedule", p.schedule)
}
