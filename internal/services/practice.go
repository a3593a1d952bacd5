package services

import (
	"context"
	"sync"

	"github.com/yungbote/patternlab/internal/domain"
	"github.com/yungbote/patternlab/internal/draft"
	"github.com/yungbote/patternlab/internal/platform/logger"
)

// Editor is the shared state of a challenge page.
type Editor struct {
	Patterns            []domain.PatternRef
	Challenge           *domain.Challenge
	Code                string
	Language            domain.Language
	SelectedPatternName string
	Submitted           bool
	Result              *domain.Submission
}

func (e Editor) clone() Editor {
	out := e
	out.Patterns = append([]domain.PatternRef(nil), e.Patterns...)
	if e.Challenge != nil {
		ch := *e.Challenge
		out.Challenge = &ch
	}
	if e.Result != nil {
		r := *e.Result
		out.Result = &r
	}
	return out
}

// PracticeService drives the practice page: generate, edit, submit, and
// persist the draft so a reload resumes the challenge.
type PracticeService struct {
	api       API
	session   Session
	drafts    *draft.Repo
	templates Templates
	log       *logger.Logger

	mu     sync.Mutex
	epoch  uint64
	opened bool
	busy   bool
	ed     Editor
}

func NewPracticeService(api API, session Session, drafts *draft.Repo, templates Templates, baseLog *logger.Logger) *PracticeService {
	return &PracticeService{
		api:       api,
		session:   session,
		drafts:    drafts,
		templates: templates,
		log:       baseLog.With("service", "PracticeService"),
	}
}

// Open is a page load. Backend patterns are fetched every time; the editor
// itself comes from the stored draft on the first load of a session and from
// memory afterwards.
func (s *PracticeService) Open(ctx context.Context) (Editor, error) {
	epoch := s.session.Epoch()
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()

	patterns, err := s.api.ListPatterns(bctx)
	if !s.session.Active(epoch) {
		return Editor{}, ErrStale
	}
	if err != nil {
		return Editor{}, err
	}

	s.mu.Lock()
	if s.opened && s.epoch == epoch {
		s.ed.Patterns = patterns
		out := s.ed.clone()
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	ed := Editor{Patterns: patterns, Language: domain.DefaultLanguage}
	d, ok, err := s.drafts.Load(ctx)
	if err != nil {
		s.log.Warn("load practice draft failed", "error", err)
	}
	if ok {
		ch := d.Challenge
		ed.Challenge = &ch
		ed.Code = d.Code
		ed.Language = d.Language
		ed.SelectedPatternName = d.SelectedPatternName
		ed.Submitted = d.Submitted
		if d.Submitted {
			ed.Result = s.lastSubmission(bctx, ch.ID)
		}
	} else if len(patterns) > 0 {
		ed.SelectedPatternName = patterns[0].Name
		ed.Code = s.templates.Template(ed.SelectedPatternName, ed.Language)
	}
	if !s.session.Active(epoch) {
		return Editor{}, ErrStale
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch = epoch
	s.opened = true
	s.busy = false
	s.ed = ed
	return s.ed.clone(), nil
}

// Current returns the loaded editor of the live session without refetching,
// opening the page when nothing is loaded yet.
func (s *PracticeService) Current(ctx context.Context) (Editor, error) {
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

// lastSubmission is best effort; a failure leaves the result unloaded.
func (s *PracticeService) lastSubmission(ctx context.Context, challengeID string) *domain.Submission {
	userID, ok := s.session.UserID()
	if !ok {
		return nil
	}
	subs, err := s.api.ChallengeSubmissions(ctx, userID, challengeID)
	if err != nil {
		s.log.Warn("fetch previous submission failed", "error", err, "challenge_id", challengeID)
		return nil
	}
	last, ok := domain.Last(subs)
	if !ok {
		return nil
	}
	return &last
}

// mutate applies fn to the opened editor of the live session and persists
// the draft afterwards.
func (s *PracticeService) mutate(ctx context.Context, fn func(*Editor) error) (Editor, error) {
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
	s.persistLocked(ctx)
	return s.ed.clone(), nil
}

func (s *PracticeService) persistLocked(ctx context.Context) {
	if s.ed.Challenge == nil || s.ed.SelectedPatternName == "" {
		return
	}
	err := s.drafts.Save(ctx, draft.Draft{
		Challenge:           *s.ed.Challenge,
		Code:                s.ed.Code,
		Language:            s.ed.Language,
		SelectedPatternName: s.ed.SelectedPatternName,
		Submitted:           s.ed.Submitted,
	})
	if err != nil {
		s.log.Warn("save practice draft failed", "error", err)
	}
}

// SelectPattern switches pattern and resets the code to its template.
func (s *PracticeService) SelectPattern(ctx context.Context, name string) (Editor, error) {
	return s.mutate(ctx, func(ed *Editor) error {
		if _, ok := domain.FindPatternRef(ed.Patterns, name); !ok {
			return ErrPatternNotFound
		}
		ed.SelectedPatternName = name
		ed.Code = s.templates.Template(name, ed.Language)
		return nil
	})
}

// SelectLanguage switches language and resets the code to the template.
func (s *PracticeService) SelectLanguage(ctx context.Context, lang domain.Language) (Editor, error) {
	return s.mutate(ctx, func(ed *Editor) error {
		if !lang.Valid() {
			return ErrUnknownLanguage
		}
		ed.Language = lang
		ed.Code = s.templates.Template(ed.SelectedPatternName, lang)
		return nil
	})
}

func (s *PracticeService) EditCode(ctx context.Context, code string) (Editor, error) {
	return s.mutate(ctx, func(ed *Editor) error {
		ed.Code = code
		return nil
	})
}

// begin marks a network action in flight after check passes.
func (s *PracticeService) begin(ctx context.Context, check func(Editor) error) (Editor, uint64, error) {
	if _, err := s.Current(ctx); err != nil {
		return Editor{}, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.ed.clone(), 0, ErrBusy
	}
	if err := check(s.ed); err != nil {
		return s.ed.clone(), 0, err
	}
	s.busy = true
	return s.ed.clone(), s.epoch, nil
}

// finish applies fn if the session that started the action is still live.
func (s *PracticeService) finish(ctx context.Context, epoch uint64, fn func(*Editor)) (Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || !s.session.Active(epoch) {
		return Editor{}, ErrStale
	}
	s.busy = false
	if fn != nil {
		fn(&s.ed)
	}
	return s.ed.clone(), nil
}

// Generate fetches a new challenge. It is refused while the current one is
// unsubmitted.
func (s *PracticeService) Generate(ctx context.Context) (Editor, error) {
	cur, epoch, err := s.begin(ctx, func(ed Editor) error {
		if ed.Challenge != nil && !ed.Submitted {
			return ErrUnsubmittedChallenge
		}
		return nil
	})
	if err != nil {
		return cur, err
	}
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()

	ch, err := s.api.GenerateChallenge(bctx)
	if err != nil {
		if view, ferr := s.finish(ctx, epoch, nil); ferr != nil {
			return view, ferr
		}
		return s.view(), err
	}
	view, err := s.finish(ctx, epoch, func(ed *Editor) {
		ed.Challenge = &ch
		ed.Submitted = false
		ed.Result = nil
		ed.Code = s.templates.Template(ed.SelectedPatternName, ed.Language)
		s.persistLocked(ctx)
	})
	if err == nil {
		s.log.Info("practice challenge generated", "challenge_id", ch.ID)
	}
	return view, err
}

// Submit sends the editor contents for evaluation. On success the draft is
// removed and the result kept for the results panel.
func (s *PracticeService) Submit(ctx context.Context) (Editor, error) {
	var req domain.SubmitRequest
	cur, epoch, err := s.begin(ctx, func(ed Editor) error {
		if ed.Challenge == nil {
			return ErrNoActiveChallenge
		}
		if ed.Submitted {
			return ErrAlreadySubmitted
		}
		userID, ok := s.session.UserID()
		if !ok {
			return ErrNotAuthenticated
		}
		p, ok := domain.FindPatternRef(ed.Patterns, ed.SelectedPatternName)
		if !ok {
			return ErrPatternNotFound
		}
		req = domain.SubmitRequest{
			UserID:      userID,
			ChallengeID: ed.Challenge.ID,
			PatternID:   p.ID,
			Code:        ed.Code,
			Language:    string(ed.Language),
		}
		return nil
	})
	if err != nil {
		return cur, err
	}
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()

	sub, err := s.api.SubmitSolution(bctx, req)
	if err != nil {
		if view, ferr := s.finish(ctx, epoch, nil); ferr != nil {
			return view, ferr
		}
		return s.view(), err
	}
	view, err := s.finish(ctx, epoch, func(ed *Editor) {
		ed.Submitted = true
		ed.Result = &sub
		if cerr := s.drafts.Clear(ctx); cerr != nil {
			s.log.Warn("clear practice draft failed", "error", cerr)
		}
	})
	if err == nil {
		s.log.Info("practice solution submitted", "challenge_id", req.ChallengeID, "submission_id", sub.ID)
	}
	return view, err
}

// Results returns the submission shown on the results panel, fetching the
// latest one when it has not been loaded yet.
func (s *PracticeService) Results(ctx context.Context) (domain.Submission, error) {
	ed, err := s.Current(ctx)
	if err != nil {
		return domain.Submission{}, err
	}
	if ed.Result != nil {
		return *ed.Result, nil
	}
	if ed.Challenge == nil || !ed.Submitted {
		return domain.Submission{}, ErrNoSubmission
	}
	userID, ok := s.session.UserID()
	if !ok {
		return domain.Submission{}, ErrNotAuthenticated
	}
	epoch := s.session.Epoch()
	bctx, cancel := s.session.Bind(ctx)
	defer cancel()
	subs, err := s.api.ChallengeSubmissions(bctx, userID, ed.Challenge.ID)
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
	s.mu.Lock()
	if s.epoch == epoch && s.ed.Challenge != nil && s.ed.Challenge.ID == last.ChallengeID {
		s.ed.Result = &last
	}
	s.mu.Unlock()
	return last, nil
}

func (s *PracticeService) view() Editor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ed.clone()
}
