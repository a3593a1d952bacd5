package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/patternlab/internal/errmsg"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/realtime"
	"github.com/yungbote/patternlab/internal/services"
	"github.com/yungbote/patternlab/internal/session"
)

// HomePath is where a successful login or signup lands.
const HomePath = "/"

type AuthHandler struct {
	log      *logger.Logger
	render   *Renderer
	msgs     *errmsg.Formatter
	sessions *session.Manager
	hub      *realtime.Hub
}

func NewAuthHandler(log *logger.Logger, render *Renderer, msgs *errmsg.Formatter, sessions *session.Manager, hub *realtime.Hub) *AuthHandler {
	return &AuthHandler{
		log:      log.With("handler", "AuthHandler"),
		render:   render,
		msgs:     msgs,
		sessions: sessions,
		hub:      hub,
	}
}

// LoginForm shows the login form. A pending expiry notice is shown once and
// acknowledged, which returns the session to anonymous.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	p := h.render.base("Login", "login")
	if _, ok := h.sessions.AcknowledgeExpiry(); ok {
		p.Notice = h.msgs.Text(errmsg.KeyExpiredNotice)
	}
	h.render.html(c, http.StatusOK, "login.html", p)
}

func (h *AuthHandler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if _, err := h.sessions.Login(c.Request.Context(), email, password); err != nil {
		errmsg.LogDetails(h.log, "login", err)
		p := h.render.base("Login", "login")
		p.Form = map[string]string{"email": email}
		p.FormError = h.authMessage(err)
		h.render.html(c, http.StatusUnauthorized, "login.html", p)
		return
	}
	c.Redirect(http.StatusSeeOther, HomePath)
}

func (h *AuthHandler) SignupForm(c *gin.Context) {
	h.render.html(c, http.StatusOK, "signup.html", h.render.base("Cadastro", "signup"))
}

func (h *AuthHandler) Signup(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	p := h.render.base("Cadastro", "signup")
	p.Form = map[string]string{"username": username, "email": email}

	if err := services.ValidateSignup(password, c.PostForm("confirm")); err != nil {
		key := errmsg.KeyPasswordLength
		if errors.Is(err, services.ErrPasswordMismatch) {
			key = errmsg.KeyPasswordMismatch
		}
		p.FormError = h.msgs.Text(key)
		h.render.html(c, http.StatusUnprocessableEntity, "signup.html", p)
		return
	}
	if _, err := h.sessions.Signup(c.Request.Context(), username, email, password); err != nil {
		errmsg.LogDetails(h.log, "signup", err)
		p.FormError = h.authMessage(err)
		h.render.html(c, http.StatusBadRequest, "signup.html", p)
		return
	}
	c.Redirect(http.StatusSeeOther, HomePath)
}

// Logout ends the session and tells every open page to leave.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c.Request.Context()); err != nil {
		h.log.Warn("logout cleanup failed", "error", err)
	}
	h.hub.Broadcast(realtime.Message{Event: realtime.EventSessionEnded, Redirect: LoginPath})
	c.Redirect(http.StatusSeeOther, LoginPath)
}

func (h *AuthHandler) authMessage(err error) string {
	if errors.Is(err, session.ErrUnusableToken) {
		return h.msgs.Text(errmsg.KeyGeneric)
	}
	return h.msgs.FormatAuth(err)
}
