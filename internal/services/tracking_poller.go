package services

import (
	"context"
	"time"

	"honeymart/pkg/logger"
)

// TrackingPoller periodically reconciles delivery state with the carrier for
// every undelivered shipment. It is the safety net behind the webhook: a
// missed webhook is picked up on the next pass, and because updates go
// through the monotonic advance path, overlap between the two is harmless.
type TrackingPoller struct {
	shipping ShippingService
	interval time.Duration
	logger   *logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

func NewTrackingPoller(shippingService ShippingService, interval time.Duration, log *logger.Logger) *TrackingPoller {
	return &TrackingPoller{
		shipping: shippingService,
		interval: interval,
		logger:   log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called. The first pass runs
// immediately so a restart does not wait a full interval to catch up.
func (p *TrackingPoller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *TrackingPoller) run(ctx context.Context) {
	defer close(p.done)

	p.logger.WithField("interval", p.interval.String()).Info("tracking poller started")

	p.pass(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.pass(ctx)
		case <-p.stop:
			p.logger.Info("tracking poller stopped")
			return
		case <-ctx.Done():
			p.logger.Info("tracking poller context cancelled")
			return
		}
	}
}

func (p *TrackingPoller) pass(ctx context.Context) {
	if err := p.shipping.SyncUndelivered(ctx); err != nil {
		p.logger.WithError(err).Warn("tracking poll pass finished with errors")
	}
}

// Stop signals the loop to exit and waits for the in-flight pass to finish.
func (p *TrackingPoller) Stop() {
	close(p.stop)
	<-p.done
}
