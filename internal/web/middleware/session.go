package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/platform/ctxutil"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/session"
)

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

type SessionGuard struct {
	log      *logger.Logger
	sessions *session.Manager
}

func NewSessionGuard(log *logger.Logger, sessions *session.Manager) *SessionGuard {
	return &SessionGuard{log: log.With("middleware", "SessionGuard"), sessions: sessions}
}

// RequireSession admits a request only while the session is authenticated
// and its token is unexpired. Pages are redirected to the login form; event
// streams get 401 so EventSource stops reconnecting into a redirect.
func (g *SessionGuard) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if _, ok := g.sessions.Token(ctx); !ok {
			g.log.Debug("request outside a session", "path", c.Request.URL.Path, "state", g.sessions.State().String())
			if wantsEventStream(c.Request) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		cur, _ := g.sessions.Current()
		c.Request = c.Request.WithContext(ctxutil.WithSessionData(ctx, &ctxutil.SessionData{
			UserID: cur.UserID,
			Epoch:  cur.Epoch,
		}))
		c.Next()
	}
}

// RedirectIfAuthenticated keeps a signed-in user off the login and signup
// forms.
func (g *SessionGuard) RedirectIfAuthenticated(to string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			if _, ok := g.sessions.Token(c.Request.Context()); ok {
				c.Redirect(http.StatusFound, to)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func wantsEventStream(r *http.Request) bool {
	return r.URL.Path == "/events" || strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
