package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stokhub/internal/model"
	"stokhub/internal/repository"
	"stokhub/internal/watcher"
)

type idleSource struct{}

func (idleSource) SelectChanged(
	_ context.Context,
	_ repository.RepoExtension,
	_ int64,
	_ time.Time,
	_ int,
) ([]model.StokHareket, error) {
	return nil, nil
}

type discardPublisher struct{}

func (discardPublisher) Publish(_ context.Context, _ string, _ model.StokHareketEvent) error {
	return nil
}

func newTestWatcherApp() *WatcherApp {
	tracker := watcher.NewTracker(watcher.TrackerConfig{
		MinInterval:   time.Millisecond,
		MaxInterval:   10 * time.Millisecond,
		Step:          time.Millisecond,
		IdleThreshold: 3,
	}, 0, time.Time{})

	poller := watcher.NewPoller(zap.NewNop(), watcher.Config{
		BatchSize:   10,
		WarmUpDelay: 0,
	}, tracker, idleSource{}, discardPublisher{})

	return &WatcherApp{
		Log:    zap.NewNop(),
		Poller: poller,
	}
}

func TestWatcherApp_RunReturnsOnCancel(t *testing.T) {
	application := newTestWatcherApp()

	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)

	go func() { errs <- application.Run(ctx) }()

	cancel()

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// The result channel keeps one buffered slot so the run goroutine can
// finish its send after the receiver has taken the ctx.Done branch and
// stopped listening.
func TestWatcherApp_RunResultSendDoesNotBlock(t *testing.T) {
	application := newTestWatcherApp()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := make(chan error, 1)
	done := make(chan struct{})

	go func() {
		errs <- application.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run goroutine stayed blocked on its result send")
	}

	assert.NoError(t, <-errs)
}
