package services

import (
	"context"
	"errors"
	"sync"

	"github.com/yungbote/patternlab/internal/domain"
)

var errBackend = errors.New("Failed to reach backend")

type fakeSession struct {
	mu     sync.Mutex
	userID string
	epoch  uint64
	active bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{userID: "u-1", epoch: 1, active: true}
}

func (s *fakeSession) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.active && s.userID != ""
}

func (s *fakeSession) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *fakeSession) Active(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.epoch == epoch
}

func (s *fakeSession) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(ctx)
}

// relogin ends the current session and starts the next one.
func (s *fakeSession) relogin() {
	s.mu.Lock()
	s.epoch++
	s.active = true
	s.mu.Unlock()
}

func (s *fakeSession) expire() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

type fakeAPI struct {
	mu sync.Mutex

	patterns    []domain.PatternRef
	patternsErr error
	challenges  []domain.Challenge
	generateErr error
	daily       domain.Challenge
	dailyErr    error
	submitErr   error
	subs        map[string][]domain.Submission
	subsErr     error
	pages       map[int]domain.Page[domain.Challenge]
	totalPages  int
	stats       domain.UserStatistics
	statsErr    error

	// onSubmit runs inside SubmitSolution before it returns.
	onSubmit func()

	generated    int
	submitted    []domain.SubmitRequest
	pageRequests []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		patterns: []domain.PatternRef{
			{ID: "p-singleton", Name: "Singleton"},
			{ID: "p-observer", Name: "Observer"},
			{ID: "p-strategy", Name: "Strategy"},
		},
		challenges: []domain.Challenge{
			{ID: "c-1", Title: "Notify subscribers", ExpectedPatternID: "p-observer"},
			{ID: "c-2", Title: "Swap algorithms", ExpectedPatternID: "p-strategy"},
		},
		daily: domain.Challenge{ID: "d-1", Title: "Daily", IsDaily: true, ExpectedPatternID: "p-strategy"},
		subs:  map[string][]domain.Submission{},
	}
}

func (a *fakeAPI) ListPatterns(context.Context) ([]domain.PatternRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.PatternRef(nil), a.patterns...), a.patternsErr
}

func (a *fakeAPI) GenerateChallenge(context.Context) (domain.Challenge, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.generateErr != nil {
		return domain.Challenge{}, a.generateErr
	}
	ch := a.challenges[a.generated%len(a.challenges)]
	a.generated++
	return ch, nil
}

func (a *fakeAPI) DailyChallenge(context.Context) (domain.Challenge, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.daily, a.dailyErr
}

func (a *fakeAPI) SubmitSolution(_ context.Context, req domain.SubmitRequest) (domain.Submission, error) {
	if a.onSubmit != nil {
		a.onSubmit()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitErr != nil {
		return domain.Submission{}, a.submitErr
	}
	a.submitted = append(a.submitted, req)
	sub := domain.Submission{
		ID:          "s-" + req.ChallengeID,
		UserID:      req.UserID,
		ChallengeID: req.ChallengeID,
		PatternID:   req.PatternID,
		Code:        req.Code,
		Language:    req.Language,
		Evaluation:  &domain.Evaluation{Score: 82},
	}
	a.subs[req.ChallengeID] = append(a.subs[req.ChallengeID], sub)
	return sub, nil
}

func (a *fakeAPI) ChallengeSubmissions(_ context.Context, _, challengeID string) ([]domain.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.subsErr != nil {
		return nil, a.subsErr
	}
	return append([]domain.Submission(nil), a.subs[challengeID]...), nil
}

func (a *fakeAPI) UserChallenges(_ context.Context, _ string, page, pageSize int) (domain.Page[domain.Challenge], error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pageRequests = append(a.pageRequests, page)
	if p, ok := a.pages[page]; ok {
		return p, nil
	}
	return domain.Page[domain.Challenge]{TotalPages: a.totalPages, Size: pageSize, Number: page}, nil
}

func (a *fakeAPI) UserStatistics(context.Context, string) (domain.UserStatistics, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats, a.statsErr
}

type fakeTemplates struct{}

func (fakeTemplates) Template(patternName string, lang domain.Language) string {
	return "// " + patternName + " in " + string(lang)
}
