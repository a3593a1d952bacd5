package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/yungbote/patternlab/internal/domain"
)

// DefaultPageSize is the history page size used by the challenges screen.
const DefaultPageSize = 15

type authRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

var errEmptyToken = errors.New("authentication response carried no token")

func (c *Client) Signup(ctx context.Context, username, email, password string) (string, error) {
	var resp authResponse
	err := c.do(ctx, call{
		op:       "signup",
		method:   http.MethodPost,
		path:     "/api/auth/signup",
		body:     authRequest{Username: username, Email: email, Password: password},
		fallback: "Falha ao criar conta",
	}, &resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", errEmptyToken
	}
	return resp.Token, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp authResponse
	err := c.do(ctx, call{
		op:       "login",
		method:   http.MethodPost,
		path:     "/api/auth/login",
		body:     authRequest{Email: email, Password: password},
		fallback: "Falha ao fazer login",
	}, &resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", errEmptyToken
	}
	return resp.Token, nil
}

func (c *Client) ListPatterns(ctx context.Context) ([]domain.PatternRef, error) {
	var out []domain.PatternRef
	err := c.do(ctx, call{
		op:       "list_patterns",
		method:   http.MethodGet,
		path:     "/v1/patterns",
		authed:   true,
		fallback: "Falha ao buscar padrões",
	}, &out)
	return out, err
}

func (c *Client) GenerateChallenge(ctx context.Context) (domain.Challenge, error) {
	var out domain.Challenge
	err := c.do(ctx, call{
		op:       "generate_challenge",
		method:   http.MethodPost,
		path:     "/v1/challenges",
		authed:   true,
		fallback: "Falha ao gerar desafio",
	}, &out)
	return out, err
}

func (c *Client) DailyChallenge(ctx context.Context) (domain.Challenge, error) {
	var out domain.Challenge
	err := c.do(ctx, call{
		op:       "daily_challenge",
		method:   http.MethodGet,
		path:     "/v1/challenges/daily",
		authed:   true,
		fallback: "Falha ao buscar desafio diário",
	}, &out)
	return out, err
}

func (c *Client) SubmitSolution(ctx context.Context, req domain.SubmitRequest) (domain.Submission, error) {
	var out domain.Submission
	err := c.do(ctx, call{
		op:       "submit_solution",
		method:   http.MethodPost,
		path:     "/v1/submissions",
		body:     req,
		authed:   true,
		fallback: "Falha ao enviar solução",
	}, &out)
	return out, err
}

func (c *Client) ChallengeSubmissions(ctx context.Context, userID, challengeID string) ([]domain.Submission, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	var out []domain.Submission
	err := c.do(ctx, call{
		op:       "challenge_submissions",
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/users/%s/challenges/%s/submissions", url.PathEscape(userID), url.PathEscape(challengeID)),
		authed:   true,
		fallback: "Falha ao buscar submissões",
	}, &out)
	return out, err
}

// UserChallenges lists the user's challenges, newest page first. Negative
// page and non-positive pageSize fall back to 0 and DefaultPageSize.
func (c *Client) UserChallenges(ctx context.Context, userID string, page, pageSize int) (domain.Page[domain.Challenge], error) {
	var out domain.Page[domain.Challenge]
	if userID == "" {
		return out, ErrMissingUserID
	}
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	err := c.do(ctx, call{
		op:       "user_challenges",
		method:   http.MethodGet,
		path:     "/v1/users/" + url.PathEscape(userID) + "/challenges?" + q.Encode(),
		authed:   true,
		fallback: "Falha ao buscar desafios do usuário",
	}, &out)
	return out, err
}

func (c *Client) UserStatistics(ctx context.Context, userID string) (domain.UserStatistics, error) {
	var out domain.UserStatistics
	if userID == "" {
		return out, ErrMissingUserID
	}
	err := c.do(ctx, call{
		op:       "user_statistics",
		method:   http.MethodGet,
		path:     "/v1/users/" + url.PathEscape(userID) + "/statistics",
		authed:   true,
		fallback: "Falha ao buscar estatísticas do usuário",
	}, &out)
	return out, err
}
