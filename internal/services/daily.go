package services

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/patternlab/internal/domain"
	"github.com/yungbote/patternlab/internal/platform/logger"
)

// DailyService drives the daily challenge page. Nothing is persisted locally;
// an earlier attempt is recovered from the backend's submission list.
type DailyService struct {
	api       API
	session   Session
	templates Templates
	log       *logger.Logger

	mu     sync.Mutex
	epoch  uint64
	opened bool
	busy   bool
	ed     Editor
}

func NewDailyService(api API, session Session, templates Templates, baseLog *logger.Logger) *DailyService {
	return &DailyService{
		api:       api,
		session:   session,
		templates: templates,
		log:       baseLog.With("service", "DailyService"),
	}
}

// Open is a page load: the patterns, today's challenge and the user's earlier
// submissions are fetched fresh. Edits made in this session survive while the
// backend keeps serving the same daily challenge.
func (s *DailyService) Open(ctx context.Context) (Editor, error) {
	epoch := s.session.Epoch()
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()

	var (
		patterns []domain.PatternRef
		ch       domain.Challenge
	)
	g, gctx := errgroup.WithContext(bctx)
	g.Go(func() error {
		var err error
		patterns, err = s.api.ListPatterns(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ch, err = s.api.DailyChallenge(gctx)
		return err
	})
	err := g.Wait()
	if !s.session.Active(epoch) {
		return Editor{}, ErrStale
	}
	if err != nil {
		return Editor{}, err
	}

	var earlier *domain.Submission
	if userID, ok := s.session.UserID(); ok {
		subs, err := s.api.ChallengeSubmissions(bctx, userID, ch.ID)
		if err != nil {
			s.log.Warn("check daily submission failed", "error", err, "challenge_id", ch.ID)
		} else if last, ok := domain.Last(subs); ok {
			earlier = &last
		}
	}
	if !s.session.Active(epoch) {
		return Editor{}, ErrStale
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	same := s.opened && s.epoch == epoch && s.ed.Challenge != nil && s.ed.Challenge.ID == ch.ID
	ed := Editor{Patterns: patterns, Challenge: &ch, Language: domain.DefaultLanguage}
	if same {
		ed.Language = s.ed.Language
		ed.Code = s.ed.Code
		ed.SelectedPatternName = s.ed.SelectedPatternName
		ed.Submitted = s.ed.Submitted
		ed.Result = s.ed.Result
	}
	if !s.opened || s.epoch != epoch {
		s.busy = false
	}
	if _, ok := domain.FindPatternRef(patterns, ed.SelectedPatternName); !ok {
		ed.SelectedPatternName = preselect(patterns, ch.ExpectedPatternID)
		ed.Code = s.templates.Template(ed.SelectedPatternName, ed.Language)
	}
	if earlier != nil {
		ed.Submitted = true
		ed.Result = earlier
	}
	s.epoch = epoch
	s.opened = true
	s.ed = ed
	return s.ed.clone(), nil
}

// Current returns the loaded editor of the live session without refetching,
// opening the page when nothing is loaded yet.
func (s *DailyService) Current(ctx context.Context) (Editor, error) {
	epoch := s.session.Epoch()
	s.mu.Lock()
	if s.opened && s.epoch == epoch {
		out := s.ed.clone()
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()
	return s.Open(ctx)
}

func preselect(patterns []domain.PatternRef, expectedID string) string {
	if expectedID != "" {
		for _, p := range patterns {
			if p.ID == expectedID {
				return p.Name
			}
		}
	}
	if len(patterns) > 0 {
		return patterns[0].Name
	}
	return ""
}

func (s *DailyService) mutate(ctx context.Context, fn func(*Editor) error) (Editor, error) {
	if _, err := s.Current(ctx); err != nil {
		return Editor{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Active(s.epoch) {
		return s.ed.clone(), ErrStale
	}
	if err := fn(&s.ed); err != nil {
		return s.ed.clone(), err
	}
	return s.ed.clone(), nil
}

func (s *DailyService) SelectPattern(ctx context.Context, name string) (Editor, error) {
	return s.mutate(ctx, func(ed *Editor) error {
		if _, ok := domain.FindPatternRef(ed.Patterns, name); !ok {
			return ErrPatternNotFound
		}
		ed.SelectedPatternName = name
		ed.Code = s.templates.Template(name, ed.Language)
		return nil
	})
}

func (s *DailyService) SelectLanguage(ctx context.Context, lang domain.Language) (Editor, error) {
	return s.mutate(ctx, func(ed *Editor) error {
		if !lang.Valid() {
			return ErrUnknownLanguage
		}
		ed.Language = lang
		ed.Code = s.templates.Template(ed.SelectedPatternName, lang)
		return nil
	})
}

func (s *DailyService) EditCode(ctx context.Context, code string) (Editor, error) {
	return s.mutate(ctx, func(ed *Editor) error {
		ed.Code = code
		return nil
	})
}

// Submit sends today's solution. A challenge already answered is refused.
func (s *DailyService) Submit(ctx context.Context) (Editor, error) {
	if _, err := s.Current(ctx); err != nil {
		return Editor{}, err
	}
	s.mu.Lock()
	if s.busy {
		out := s.ed.clone()
		s.mu.Unlock()
		return out, ErrBusy
	}
	req, err := s.requestLocked()
	if err != nil {
		out := s.ed.clone()
		s.mu.Unlock()
		return out, err
	}
	epoch := s.epoch
	s.busy = true
	s.mu.Unlock()

	bctx, cancel := s.session.Bind(ctx)
	defer cancel()
	sub, err := s.api.SubmitSolution(bctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || !s.session.Active(epoch) {
		return Editor{}, ErrStale
	}
	s.busy = false
	if err != nil {
		return s.ed.clone(), err
	}
	if s.ed.Challenge == nil || s.ed.Challenge.ID != req.ChallengeID {
		s.log.Info("daily challenge changed during submit", "challenge_id", req.ChallengeID, "submission_id", sub.ID)
		return s.ed.clone(), nil
	}
	s.ed.Submitted = true
	s.ed.Result = &sub
	s.log.Info("daily solution submitted", "challenge_id", req.ChallengeID, "submission_id", sub.ID)
	return s.ed.clone(), nil
}

func (s *DailyService) requestLocked() (domain.SubmitRequest, error) {
	ed := s.ed
	if ed.Challenge == nil {
		return domain.SubmitRequest{}, ErrNoActiveChallenge
	}
	if ed.Submitted {
		return domain.SubmitRequest{}, ErrAlreadySubmitted
	}
	userID, ok := s.session.UserID()
	if !ok {
		return domain.SubmitRequest{}, ErrNotAuthenticated
	}
	p, ok := domain.FindPatternRef(ed.Patterns, ed.SelectedPatternName)
	if !ok {
		return domain.SubmitRequest{}, ErrPatternNotFound
	}
	return domain.SubmitRequest{
		UserID:      userID,
		ChallengeID: ed.Challenge.ID,
		PatternID:   p.ID,
		Code:        ed.Code,
		Language:    string(ed.Language),
	}, nil
}

// Results returns the stored result of today's submission.
func (s *DailyService) Results(ctx context.Context) (domain.Submission, error) {
	ed, err := s.Current(ctx)
	if err != nil {
		return domain.Submission{}, err
	}
	if ed.Result == nil {
		return domain.Submission{}, ErrNoSubmission
	}
	return *ed.Result, nil
}
