package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/client"
	"github.com/yungbote/patternlab/internal/domain"
	"github.com/yungbote/patternlab/internal/errmsg"
	"github.com/yungbote/patternlab/internal/platform/apierr"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/services"
	"github.com/yungbote/patternlab/internal/session"
)

// LoginPath is where a page goes once its session is gone.
const LoginPath = "/login"

// page is the data every template renders from.
type page struct {
	Title         string
	Nav           string
	Authenticated bool
	User          string
	Notice        string
	Alert         string
	AlertCode     string

	Form      map[string]string
	FormError string

	Stats       domain.UserStatistics
	Editor      services.Editor
	BaseURL     string
	CanGenerate bool
	Languages   []domain.Language
	Pattern     *domain.Pattern
	Result      *domain.Submission
	BackURL     string
	History     domain.Page[domain.Challenge]
}

// Renderer fills the shared parts of a page and turns failures into alerts.
type Renderer struct {
	log      *logger.Logger
	msgs     *errmsg.Formatter
	sessions *session.Manager
}

func NewRenderer(log *logger.Logger, msgs *errmsg.Formatter, sessions *session.Manager) *Renderer {
	return &Renderer{log: log.With("handler", "Renderer"), msgs: msgs, sessions: sessions}
}

func (r *Renderer) base(title, nav string) page {
	p := page{Title: title, Nav: nav}
	if cur, ok := r.sessions.Current(); ok {
		p.Authenticated = true
		p.User = cur.Email
	}
	return p
}

func (r *Renderer) html(c *gin.Context, status int, name string, p page) {
	c.HTML(status, name, p)
}

// fail renders name with an alert for err. Failures that mean the session is
// gone redirect to the login form instead; the expiry notice is shown there.
func (r *Renderer) fail(c *gin.Context, err error, name string, p page) {
	if sessionGone(err) {
		c.Redirect(http.StatusSeeOther, LoginPath)
		return
	}
	errmsg.LogDetails(r.log, c.FullPath(), err)
	_ = c.Error(err)
	ae := classify(err)
	if ae.Key != "" {
		p.Alert = r.msgs.Text(ae.Key)
	} else {
		p.Alert = r.msgs.Format(err)
	}
	p.AlertCode = ae.Code
	r.html(c, ae.Status, name, p)
}

func sessionGone(err error) bool {
	return errors.Is(err, client.ErrSessionExpired) ||
		errors.Is(err, services.ErrStale) ||
		errors.Is(err, services.ErrNotAuthenticated)
}

var pageErrors = []struct {
	err error
	ae  *apierr.Error
}{
	{services.ErrUnsubmittedChallenge, &apierr.Error{Status: http.StatusConflict, Code: "unsubmitted_challenge", Key: "page.unsubmitted_challenge"}},
	{services.ErrNoActiveChallenge, &apierr.Error{Status: http.StatusConflict, Code: "no_active_challenge", Key: "page.no_active_challenge"}},
	{services.ErrAlreadySubmitted, &apierr.Error{Status: http.StatusConflict, Code: "already_submitted", Key: "page.already_submitted"}},
	{services.ErrBusy, &apierr.Error{Status: http.StatusConflict, Code: "busy", Key: "page.busy"}},
	{services.ErrPatternNotFound, &apierr.Error{Status: http.StatusBadRequest, Code: "pattern_not_found", Key: "page.pattern_not_found"}},
	{services.ErrUnknownLanguage, &apierr.Error{Status: http.StatusBadRequest, Code: "unknown_language", Key: "page.unknown_language"}},
	{services.ErrNoSubmission, &apierr.Error{Status: http.StatusNotFound, Code: "no_submission", Key: "page.no_submission"}},
}

// classify picks the status, alert code and catalog key for a page failure.
func classify(err error) *apierr.Error {
	for _, pe := range pageErrors {
		if errors.Is(err, pe.err) {
			out := *pe.ae
			out.Err = err
			return &out
		}
	}
	if client.StatusCode(err) != 0 {
		return apierr.New(http.StatusBadGateway, "backend", err)
	}
	return apierr.As(err)
}
