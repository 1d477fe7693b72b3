package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RelayHealth interface {
	Healthy() bool
}

type HealthService struct {
	log   *zap.Logger
	db    Pinger
	relay RelayHealth
}

func NewHealthService(log *zap.Logger, db Pinger, relay RelayHealth) *HealthService {
	return &HealthService{
		log:   log,
		db:    db,
		relay: relay,
	}
}

type HealthReport struct {
	Database string `json:"database"`
	Relay    string `json:"relay"`
	Healthy  bool   `json:"healthy"`
}

func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Database: "ok",
		Relay:    "ok",
		Healthy:  true,
	}

	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("Database health check failed", zap.Error(err))
		report.Database = fmt.Sprintf("unavailable: %v", err)
		report.Healthy = false
	}

	if s.relay != nil && !s.relay.Healthy() {
		report.Relay = "disconnected"
		report.Healthy = false
	}

	return report
}
