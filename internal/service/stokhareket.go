package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stokhub/internal/model"
	"stokhub/internal/repository"
)

const (
	defaultRecentCount = 50
	maxRecentCount     = 500
)

type StokHareketRepository interface {
	SelectByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.StokHareket, error)
	SelectRecent(ctx context.Context, ext repository.RepoExtension, count int, subeIDs []int64) ([]model.StokHareket, error)
}

type StokHareketService struct {
	log  *zap.Logger
	repo StokHareketRepository
}

func NewStokHareketService(log *zap.Logger, repo StokHareketRepository) *StokHareketService {
	return &StokHareketService{
		log:  log,
		repo: repo,
	}
}

func (s *StokHareketService) GetByID(ctx context.Context, id int64) (*model.StokHareket, error) {
	rec, err := s.repo.SelectByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select movement: %w", err)
	}

	return rec, nil
}

// Recent returns the latest movements visible to the caller. Admins see
// every branch; everyone else is scoped to the branches of their
// subeIds claim plus the rows without a cost center, which the push
// side broadcasts to every connection.
func (s *StokHareketService) Recent(ctx context.Context, count int, admin bool, rawSubeIDs string) ([]model.StokHareket, error) {
	if count <= 0 {
		count = defaultRecentCount
	}
	if count > maxRecentCount {
		count = maxRecentCount
	}

	// nil lifts the scope filter entirely; an empty list does not.
	var subeIDs []int64
	if !admin {
		subeIDs = model.ParseSubeIDs(rawSubeIDs)
	}

	recs, err := s.repo.SelectRecent(ctx, nil, count, subeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to select recent movements: %w", err)
	}

	return recs, nil
}
