package services

import (
	"context"
	"errors"

	"github.com/yungbote/patternlab/internal/domain"
)

var (
	ErrUnsubmittedChallenge = errors.New("submit the current challenge before generating a new one")
	ErrNoActiveChallenge    = errors.New("no active challenge to submit")
	ErrNotAuthenticated     = errors.New("user not authenticated")
	ErrPatternNotFound      = errors.New("pattern not found")
	ErrAlreadySubmitted     = errors.New("challenge already submitted")
	ErrNoSubmission         = errors.New("no submission found")
	ErrUnknownLanguage      = errors.New("unsupported language")
	ErrBusy                 = errors.New("another request for this page is in progress")
	// ErrStale reports a response that arrived after its session ended.
	ErrStale = errors.New("session changed while the request was in flight")
)

// API is the slice of the remote client the page flows use.
type API interface {
	ListPatterns(ctx context.Context) ([]domain.PatternRef, error)
	GenerateChallenge(ctx context.Context) (domain.Challenge, error)
	DailyChallenge(ctx context.Context) (domain.Challenge, error)
	SubmitSolution(ctx context.Context, req domain.SubmitRequest) (domain.Submission, error)
	ChallengeSubmissions(ctx context.Context, userID, challengeID string) ([]domain.Submission, error)
	UserChallenges(ctx context.Context, userID string, page, pageSize int) (domain.Page[domain.Challenge], error)
	UserStatistics(ctx context.Context, userID string) (domain.UserStatistics, error)
}

// Session is what the page flows need from the session manager.
type Session interface {
	UserID() (string, bool)
	Epoch() uint64
	Active(epoch uint64) bool
	Bind(ctx context.Context) (context.Context, context.CancelFunc)
}

// Templates supplies editor starter code.
type Templates interface {
	Template(patternName string, lang domain.Language) string
}
