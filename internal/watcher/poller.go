package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stokhub/internal/model"
	"stokhub/internal/relay"
	"stokhub/internal/repository"
)

// RecordSource is the read-only incremental query over the movement
// table.
type RecordSource interface {
	SelectChanged(
		ctx context.Context,
		ext repository.RepoExtension,
		lastID int64,
		lastChange time.Time,
		batchSize int,
	) ([]model.StokHareket, error)
}

// EventPublisher hands a classified change to the relay.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event model.StokHareketEvent) error
}

type Config struct {
	BatchSize   int
	WarmUpDelay time.Duration
}

// Poller drives change detection: one strictly sequential loop that
// queries past the watermark, classifies each row, publishes, and backs
// off adaptively. The inter-cycle delay is the only backpressure toward
// the database.
type Poller struct {
	log       *zap.Logger
	cfg       Config
	tracker   *Tracker
	source    RecordSource
	publisher EventPublisher
}

func NewPoller(
	log *zap.Logger,
	cfg Config,
	tracker *Tracker,
	source RecordSource,
	publisher EventPublisher,
) *Poller {
	return &Poller{
		log:       log,
		cfg:       cfg,
		tracker:   tracker,
		source:    source,
		publisher: publisher,
	}
}

// Run blocks until ctx is cancelled. A cycle error never stops the
// loop; it only pushes the next poll out to the maximum interval. On
// cancellation the in-flight cycle finishes before Run returns.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("Change detection starting",
		zap.Int64("last_id", p.tracker.LastID()),
		zap.Time("last_change", p.tracker.LastChange()),
	)

	// Give the database and broker a moment to finish initializing.
	select {
	case <-ctx.Done():
		return
	case <-time.After(p.cfg.WarmUpDelay):
	}

	for {
		hadResults, err := p.cycle(ctx)

		var delay time.Duration

		if err != nil {
			p.log.Error("Change detection cycle failed", zap.Error(err))

			delay = p.tracker.Penalize()
		} else {
			delay = p.tracker.NextInterval(hadResults)
		}

		select {
		case <-ctx.Done():
			p.log.Info("Change detection stopped",
				zap.Int64("last_id", p.tracker.LastID()),
				zap.Time("last_change", p.tracker.LastChange()),
			)

			return
		case <-time.After(delay):
		}
	}
}

func (p *Poller) cycle(ctx context.Context) (bool, error) {
	// The watermark captured before the batch is what classification is
	// judged against; advancing it per row would turn the second new row
	// of a batch into a bogus update.
	batchID := p.tracker.LastID()
	batchChange := p.tracker.LastChange()

	records, err := p.source.SelectChanged(ctx, nil, batchID, batchChange, p.cfg.BatchSize)
	if err != nil {
		return false, err
	}

	if len(records) == 0 {
		if p.tracker.EmptyPolls() > 0 && p.tracker.EmptyPolls()%10 == 0 {
			p.log.Debug("No changes detected",
				zap.Int64("last_id", batchID),
				zap.Duration("interval", p.tracker.Interval()),
			)
		}

		return false, nil
	}

	p.log.Info("Detected changes",
		zap.Int("count", len(records)),
		zap.Int64("first_id", records[0].ID),
		zap.Int64("last_id", records[len(records)-1].ID),
	)

	for i := range records {
		rec := &records[i]

		routingKey := relay.RoutingKeyUpdated
		if classifyCreated(rec, batchID) {
			routingKey = relay.RoutingKeyCreated
		}

		event := model.NewStokHareketEvent(rec, time.Now().UTC())

		// Publish, then advance, then move on. A failed publish still
		// advances the watermark: delivery is at-least-once with a known
		// skip window, not guaranteed-once.
		if err := p.publisher.Publish(ctx, routingKey, event); err != nil {
			p.log.Error("Failed to publish change event",
				zap.Int64("id", rec.ID),
				zap.String("routing_key", routingKey),
				zap.Error(err),
			)
		}

		var change time.Time
		if rec.ChangeDate != nil {
			change = *rec.ChangeDate
		}

		p.tracker.Advance(rec.ID, change)
	}

	p.log.Info("Processed changes",
		zap.Int("count", len(records)),
		zap.Int64("last_id", p.tracker.LastID()),
		zap.Time("last_change", p.tracker.LastChange()),
	)

	return true, nil
}

// classifyCreated decides Created vs Updated against the pre-batch
// watermark: a row above it whose change_date is unset or equals its
// create_date has never been touched since insert.
func classifyCreated(rec *model.StokHareket, batchID int64) bool {
	if rec.ID <= batchID {
		return false
	}

	return rec.ChangeDate == nil || rec.ChangeDate.Equal(rec.CreateDate)
}
