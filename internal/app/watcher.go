package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"stokhub/internal/apperrors"
	"stokhub/internal/config"
	"stokhub/internal/relay"
	"stokhub/internal/repository"
	"stokhub/internal/watcher"
	"stokhub/pkg/postgres"
	"stokhub/pkg/rabbitmq"
)

// WatcherApp wires the change-detection side: the poller reads past the
// watermark and hands classified events to the relay publisher.
type WatcherApp struct {
	Cfg    *config.Config
	Log    *zap.Logger
	DB     postgres.Postgres
	Relay  *rabbitmq.Conn
	Poller *watcher.Poller
}

func NewWatcher(cfg *config.Config, log *zap.Logger) (*WatcherApp, error) {
	db, err := initDB(&cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	relayConn, err := initRelay(log, &cfg.Relay)
	if err != nil {
		log.Error("Failed to initialize relay", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize relay: %w", err)
	}

	publisher := relay.NewPublisher(log, relayConn)
	log.Debug("Relay publisher initialized")

	stokRepo := repository.NewStokHareketRepository(db.Pool())
	log.Debug("Stok hareket repository initialized")

	tracker := watcher.NewTracker(watcher.TrackerConfig{
		MinInterval:   cfg.Watcher.MinInterval,
		MaxInterval:   cfg.Watcher.MaxInterval,
		Step:          cfg.Watcher.Step,
		IdleThreshold: cfg.Watcher.IdleThreshold,
	}, cfg.Watcher.StartFromID, cfg.Watcher.StartFromDate)

	poller := watcher.NewPoller(log, watcher.Config{
		BatchSize:   cfg.Watcher.BatchSize,
		WarmUpDelay: cfg.Watcher.WarmUpDelay,
	}, tracker, stokRepo, publisher)

	return &WatcherApp{
		Cfg:    cfg,
		Log:    log,
		DB:     db,
		Relay:  relayConn,
		Poller: poller,
	}, nil
}

func MustNewWatcher(cfg *config.Config, log *zap.Logger) *WatcherApp {
	app, err := NewWatcher(cfg, log)
	if err != nil {
		panic(err)
	}

	return app
}

// Run blocks until ctx is cancelled.
func (a *WatcherApp) Run(ctx context.Context) error {
	a.Poller.Run(ctx)

	return nil
}

func (a *WatcherApp) Shutdown() error {
	a.DB.Close()
	a.Log.Debug("Database closed")

	err := apperrors.ErrShutdown

	if relayErr := a.Relay.Close(); relayErr != nil {
		err = fmt.Errorf("%w, failed to close relay: %w", err, relayErr)
	}

	a.Log.Debug("Relay closed")

	if !errors.Is(err, apperrors.ErrShutdown) {
		return err
	}

	return nil
}
