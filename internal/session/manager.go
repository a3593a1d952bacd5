package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/store"
)

type State int

const (
	Anonymous State = iota
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	default:
		return "anonymous"
	}
}

var (
	ErrNoAuthenticator = errors.New("session has no authenticator")
	ErrUnusableToken   = errors.New("backend returned an unusable token")
)

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, username, email, password string) (string, error)
}

// Session is the in-memory view of the signed-in user.
type Session struct {
	Email     string
	Token     string
	UserID    string
	ExpiresAt time.Time
	Epoch     uint64
}

type Options struct {
	Store store.Store
	Auth  Authenticator
	Log   *logger.Logger
	Now   func() time.Time
}

// Manager owns the session state machine, the persisted token and user, and
// the expiry notification fan-out. All methods are safe for concurrent use.
type Manager struct {
	store store.Store
	auth  Authenticator
	log   *logger.Logger
	now   func() time.Time

	mu      sync.Mutex
	state   State
	current Session
	epoch   uint64
	notice  *Notice
	ended   context.Context
	end     context.CancelFunc

	listeners listeners
}

func NewManager(opts Options) *Manager {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	st := opts.Store
	if st == nil {
		st = store.NewMemory()
	}
	ended, end := context.WithCancel(context.Background())
	end()
	return &Manager{
		store: st,
		auth:  opts.Auth,
		log:   log.With("service", "SessionManager"),
		now:   now,
		ended: ended,
		end:   end,
	}
}

// Restore loads a persisted session at startup. A stored token that is
// already expired, or carries no identity, is removed together with the
// stored user.
func (m *Manager) Restore(ctx context.Context) error {
	token, hasToken, err := m.store.Get(ctx, store.KeyToken)
	if err != nil {
		return fmt.Errorf("read stored token: %w", err)
	}
	email, hasUser, err := m.store.Get(ctx, store.KeyUser)
	if err != nil {
		return fmt.Errorf("read stored user: %w", err)
	}
	if !hasToken || !hasUser || token == "" || email == "" {
		return nil
	}
	claims, perr := ParseToken(token)
	if perr != nil || !claims.Usable(m.now()) {
		m.log.Info("stored session unusable, clearing", "reason", errString(perr), "has_user", claims.UserID != "")
		return m.store.Remove(ctx, store.KeyUser, store.KeyToken)
	}
	m.mu.Lock()
	m.establishLocked(email, token, claims)
	m.mu.Unlock()
	m.log.Info("session restored", "user_id", claims.UserID, "expires_at", claims.ExpiresAt)
	return nil
}

func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	if m.auth == nil {
		return Session{}, ErrNoAuthenticator
	}
	token, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return m.Establish(ctx, email, token)
}

func (m *Manager) Signup(ctx context.Context, username, email, password string) (Session, error) {
	if m.auth == nil {
		return Session{}, ErrNoAuthenticator
	}
	token, err := m.auth.Signup(ctx, username, email, password)
	if err != nil {
		return Session{}, err
	}
	return m.Establish(ctx, email, token)
}

// Establish installs a freshly issued token as the current session.
func (m *Manager) Establish(ctx context.Context, email, token string) (Session, error) {
	email = strings.TrimSpace(email)
	claims, err := ParseToken(token)
	if err != nil || !claims.Usable(m.now()) {
		return Session{}, ErrUnusableToken
	}
	if err := m.store.Set(ctx, store.KeyUser, email); err != nil {
		return Session{}, fmt.Errorf("persist user: %w", err)
	}
	if err := m.store.Set(ctx, store.KeyToken, token); err != nil {
		return Session{}, fmt.Errorf("persist token: %w", err)
	}
	m.mu.Lock()
	if m.state == Authenticated {
		m.end()
	}
	sess := m.establishLocked(email, token, claims)
	m.mu.Unlock()
	m.log.Info("session established", "user_id", claims.UserID, "epoch", sess.Epoch)
	return sess, nil
}

func (m *Manager) establishLocked(email, token string, claims Claims) Session {
	m.epoch++
	m.state = Authenticated
	m.notice = nil
	m.ended, m.end = context.WithCancel(context.Background())
	m.current = Session{
		Email:     email,
		Token:     token,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt,
		Epoch:     m.epoch,
	}
	return m.current
}

// Logout ends the session and clears token, user and practice draft.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	was := m.state
	m.state = Anonymous
	m.current = Session{}
	m.notice = nil
	m.end()
	m.mu.Unlock()
	if err := m.store.Remove(ctx, store.SessionKeys...); err != nil {
		return fmt.Errorf("clear session storage: %w", err)
	}
	if was == Authenticated {
		m.log.Info("logged out")
	}
	return nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the live session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated {
		return Session{}, false
	}
	return m.current, true
}

func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// Active reports whether the session identified by epoch is still live.
func (m *Manager) Active(epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Authenticated && m.epoch == epoch
}

// Token returns the bearer token for outgoing calls. A token found expired
// at call time ends the session and is never handed out.
func (m *Manager) Token(ctx context.Context) (string, bool) {
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return "", false
	}
	cur := m.current
	m.mu.Unlock()

	if !cur.ExpiresAt.After(m.now()) {
		m.expire(ctx, cur.Epoch, ReasonExpired)
		return "", false
	}
	return cur.Token, true
}

// UserID returns the identity claim of the live session.
func (m *Manager) UserID() (string, bool) {
	s, ok := m.Current()
	if !ok || s.UserID == "" {
		return "", false
	}
	return s.UserID, true
}

// Check performs the periodic local expiry test and reports whether the
// session ended because of it.
func (m *Manager) Check(ctx context.Context) bool {
	m.mu.Lock()
	if m.state != Authenticated {
		m.mu.Unlock()
		return false
	}
	cur := m.current
	m.mu.Unlock()
	if cur.ExpiresAt.After(m.now()) {
		return false
	}
	return m.expire(ctx, cur.Epoch, ReasonExpired)
}

// Watch runs Check every interval until ctx is done.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	m.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Check(ctx)
		}
	}
}

// Expire ends the session that ctx is bound to (or the live one) for reason.
func (m *Manager) Expire(ctx context.Context, reason Reason) bool {
	epoch, ok := epochFrom(ctx)
	if !ok {
		epoch = m.Epoch()
	}
	return m.expire(ctx, epoch, reason)
}

// HandleForbidden is the API client's 403 hook.
func (m *Manager) HandleForbidden(ctx context.Context) {
	m.Expire(ctx, ReasonForbidden)
}

// expire transitions epoch to Expired once. Later calls for the same epoch,
// from any detection path, are no-ops.
func (m *Manager) expire(ctx context.Context, epoch uint64, reason Reason) bool {
	m.mu.Lock()
	if m.state != Authenticated || m.epoch != epoch {
		m.mu.Unlock()
		return false
	}
	m.state = Expired
	m.current = Session{}
	n := Notice{Epoch: epoch, Reason: reason, At: m.now()}
	m.notice = &n
	m.end()
	m.mu.Unlock()

	// The request that observed the expiry may already be canceled.
	if err := m.store.Remove(context.WithoutCancel(ctx), store.SessionKeys...); err != nil {
		m.log.Warn("clear expired session storage failed", "error", err)
	}
	m.log.Info("session expired", "reason", string(reason), "epoch", epoch)
	for _, fn := range m.listeners.snapshot() {
		fn(n)
	}
	return true
}

// PendingNotice returns the notice of an expired, unacknowledged session.
func (m *Manager) PendingNotice() (Notice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Expired || m.notice == nil {
		return Notice{}, false
	}
	return *m.notice, true
}

// AcknowledgeExpiry moves Expired to Anonymous once the user has been shown
// the login screen.
func (m *Manager) AcknowledgeExpiry() (Notice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Expired || m.notice == nil {
		return Notice{}, false
	}
	n := *m.notice
	m.state = Anonymous
	m.notice = nil
	return n, true
}

// Subscribe registers fn for expiry notices. fn runs outside any manager
// lock and may call back into the manager.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	return m.listeners.add(fn)
}

type epochKey struct{}

// Bind scopes ctx to the live session: it carries the session epoch and is
// canceled when that session ends.
func (m *Manager) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	m.mu.Lock()
	epoch := m.epoch
	ended := m.ended
	m.mu.Unlock()

	ctx, cancel := context.WithCancel(context.WithValue(ctx, epochKey{}, epoch))
	stop := context.AfterFunc(ended, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func epochFrom(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	e, ok := ctx.Value(epochKey{}).(uint64)
	return e, ok
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
