package services

import (
	"context"

	"github.com/yungbote/patternlab/internal/domain"
	"github.com/yungbote/patternlab/internal/platform/logger"
)

// HistoryPageSize is the number of challenges per history page.
const HistoryPageSize = 15

type HistoryService struct {
	api     API
	session Session
	log     *logger.Logger
}

func NewHistoryService(api API, session Session, baseLog *logger.Logger) *HistoryService {
	return &HistoryService{api: api, session: session, log: baseLog.With("service", "HistoryService")}
}

// Page returns page n (zero-based) of the user's challenges. A page past the
// end is clamped to the last one.
func (s *HistoryService) Page(ctx context.Context, n int) (domain.Page[domain.Challenge], error) {
	userID, ok := s.session.UserID()
	if !ok {
		return domain.Page[domain.Challenge]{}, ErrNotAuthenticated
	}
	if n < 0 {
		n = 0
	}
	epoch := s.session.Epoch()
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()

	page, err := s.api.UserChallenges(bctx, userID, n, HistoryPageSize)
	if err == nil && page.TotalPages > 0 && n >= page.TotalPages {
		last := page.TotalPages - 1
		s.log.Debug("history page out of range", "requested", n, "clamped", last)
		page, err = s.api.UserChallenges(bctx, userID, last, HistoryPageSize)
	}
	if !s.session.Active(epoch) {
		return domain.Page[domain.Challenge]{}, ErrStale
	}
	return page, err
}

// LatestSubmission returns the user's most recent submission for a challenge.
func (s *HistoryService) LatestSubmission(ctx context.Context, challengeID string) (domain.Submission, error) {
	userID, ok := s.session.UserID()
	if !ok {
		return domain.Submission{}, ErrNotAuthenticated
	}
	epoch := s.session.Epoch()
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()

	subs, err := s.api.ChallengeSubmissions(bctx, userID, challengeID)
	if !s.session.Active(epoch) {
		return domain.Submission{}, ErrStale
	}
	if err != nil {
		return domain.Submission{}, err
	}
	last, ok := domain.Last(subs)
	if !ok {
		return domain.Submission{}, ErrNoSubmission
	}
	return last, nil
}
