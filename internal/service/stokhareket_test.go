package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stokhub/internal/model"
	"stokhub/internal/repository"
)

type fakeStokRepo struct {
	lastCount   int
	lastSubeIDs []int64
}

func (r *fakeStokRepo) SelectByID(context.Context, repository.RepoExtension, int64) (*model.StokHareket, error) {
	return &model.StokHareket{ID: 101, CreateDate: time.Now()}, nil
}

func (r *fakeStokRepo) SelectRecent(_ context.Context, _ repository.RepoExtension, count int, subeIDs []int64) ([]model.StokHareket, error) {
	r.lastCount = count
	r.lastSubeIDs = subeIDs

	return []model.StokHareket{}, nil
}

func TestStokHareketService_RecentClampsCount(t *testing.T) {
	repo := &fakeStokRepo{}
	svc := NewStokHareketService(zap.NewNop(), repo)

	_, err := svc.Recent(context.Background(), 0, true, "")
	require.NoError(t, err)
	assert.Equal(t, defaultRecentCount, repo.lastCount)

	_, err = svc.Recent(context.Background(), 10_000, true, "")
	require.NoError(t, err)
	assert.Equal(t, maxRecentCount, repo.lastCount)

	_, err = svc.Recent(context.Background(), 20, true, "")
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastCount)
}

func TestStokHareketService_RecentScopesNonAdmins(t *testing.T) {
	repo := &fakeStokRepo{}
	svc := NewStokHareketService(zap.NewNop(), repo)

	_, err := svc.Recent(context.Background(), 20, false, "5,7")
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7}, repo.lastSubeIDs)

	// Admins see everything; a nil scope list lifts the filter.
	_, err = svc.Recent(context.Background(), 20, true, "5,7")
	require.NoError(t, err)
	assert.Nil(t, repo.lastSubeIDs)
}

// A caller without branch scopes still queries with an empty list, so
// the rows without a cost center stay visible to them, matching what
// the push side broadcasts to every connection.
func TestStokHareketService_RecentWithoutScopesKeepsBroadcastRows(t *testing.T) {
	repo := &fakeStokRepo{lastCount: -1}
	svc := NewStokHareketService(zap.NewNop(), repo)

	_, err := svc.Recent(context.Background(), 20, false, "")
	require.NoError(t, err)

	require.NotNil(t, repo.lastSubeIDs, "empty scopes must not lift the filter")
	assert.Empty(t, repo.lastSubeIDs)
	assert.Equal(t, 20, repo.lastCount)
}
