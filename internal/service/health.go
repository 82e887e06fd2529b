package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/evijayan2/smsmonitor/internal/repository"
)

type HealthRepository interface {
	Ping(ctx context.Context) error
	CountUnread(ctx context.Context, ext repository.RepoExtension) (int64, error)
}

type HealthStatus struct {
	Database string `json:"database"`
	Unread   int64  `json:"unread"`
}

type HealthService struct {
	log        *zap.Logger
	healthRepo HealthRepository
}

func NewHealthService(log *zap.Logger, healthRepo HealthRepository) *HealthService {
	return &HealthService{
		log:        log,
		healthRepo: healthRepo,
	}
}

func (s *HealthService) Check(ctx context.Context) (*HealthStatus, error) {
	if err := s.healthRepo.Ping(ctx); err != nil {
		s.log.Warn("Health check failed", zap.Error(err))
		return nil, err
	}

	unread, err := s.healthRepo.CountUnread(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &HealthStatus{Database: "ok", Unread: unread}, nil
}
