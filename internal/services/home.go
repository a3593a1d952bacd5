package services

import (
	"context"

	"github.com/yungbote/patternlab/internal/domain"
	"github.com/yungbote/patternlab/internal/platform/logger"
)

type HomeService struct {
	api     API
	session Session
	log     *logger.Logger
}

func NewHomeService(api API, session Session, baseLog *logger.Logger) *HomeService {
	return &HomeService{api: api, session: session, log: baseLog.With("service", "HomeService")}
}

// Statistics returns the dashboard numbers. On failure the zero value is
// returned together with the error so the page can still render.
func (s *HomeService) Statistics(ctx context.Context) (domain.UserStatistics, error) {
	userID, ok := s.session.UserID()
	if !ok {
		return domain.UserStatistics{}, ErrNotAuthenticated
	}
	epoch := s.session.Epoch()
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()

	stats, err := s.api.UserStatistics(bctx, userID)
	if !s.session.Active(epoch) {
		return domain.UserStatistics{}, ErrStale
	}
	if err != nil {
		s.log.Warn("load statistics failed", "error", err)
		return domain.UserStatistics{}, err
	}
	return stats, nil
}
