package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrackerConfig() TrackerConfig {
	return TrackerConfig{
		MinInterval:   1 * time.Second,
		MaxInterval:   10 * time.Second,
		Step:          1 * time.Second,
		IdleThreshold: 3,
	}
}

func TestTracker_BackoffSequence(t *testing.T) {
	tr := NewTracker(testTrackerConfig(), 0, time.Time{})

	require.Equal(t, 1*time.Second, tr.Interval())

	got := []time.Duration{
		tr.NextInterval(true),
		tr.NextInterval(false),
		tr.NextInterval(false),
		tr.NextInterval(false),
		tr.NextInterval(false),
	}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		3 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}

	assert.Equal(t, want, got)
}

func TestTracker_HitResetsToMin(t *testing.T) {
	tr := NewTracker(testTrackerConfig(), 0, time.Time{})

	tr.NextInterval(false)
	tr.NextInterval(false)
	require.Equal(t, 2, tr.EmptyPolls())

	assert.Equal(t, 1*time.Second, tr.NextInterval(true))
	assert.Equal(t, 0, tr.EmptyPolls())
}

func TestTracker_StepNeverExceedsMax(t *testing.T) {
	cfg := testTrackerConfig()
	cfg.Step = 7 * time.Second
	cfg.IdleThreshold = 100

	tr := NewTracker(cfg, 0, time.Time{})

	assert.Equal(t, 8*time.Second, tr.NextInterval(false))
	assert.Equal(t, 10*time.Second, tr.NextInterval(false))
	assert.Equal(t, 10*time.Second, tr.NextInterval(false))
}

func TestTracker_PenalizeLeavesCounterAlone(t *testing.T) {
	tr := NewTracker(testTrackerConfig(), 0, time.Time{})

	tr.NextInterval(false)
	require.Equal(t, 1, tr.EmptyPolls())

	assert.Equal(t, 10*time.Second, tr.Penalize())
	assert.Equal(t, 1, tr.EmptyPolls())

	// The next hit still snaps back to the floor.
	assert.Equal(t, 1*time.Second, tr.NextInterval(true))
}

func TestTracker_AdvanceIsMonotonic(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(testTrackerConfig(), 100, start)

	tr.Advance(150, start.Add(time.Hour))
	assert.Equal(t, int64(150), tr.LastID())
	assert.Equal(t, start.Add(time.Hour), tr.LastChange())

	// Stale observations never move the watermark backwards.
	tr.Advance(120, start.Add(-time.Hour))
	assert.Equal(t, int64(150), tr.LastID())
	assert.Equal(t, start.Add(time.Hour), tr.LastChange())

	// The two fields advance independently.
	tr.Advance(151, time.Time{})
	assert.Equal(t, int64(151), tr.LastID())
	assert.Equal(t, start.Add(time.Hour), tr.LastChange())
}
