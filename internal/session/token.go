package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformedToken = errors.New("malformed token")

// segmentParser only decodes; signatures are the backend's concern.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Claims is the decoded token payload.
type Claims struct {
	raw       jwt.MapClaims
	ExpiresAt time.Time
	UserID    string
}

// ParseToken decodes the payload segment of a compact token without
// verifying its signature. Standard and URL-safe alphabets are both accepted.
func ParseToken(token string) (Claims, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[1] == "" {
		return Claims{}, ErrMalformedToken
	}
	seg := strings.NewReplacer("+", "-", "/", "_").Replace(parts[1])
	payload, err := segmentParser.DecodeSegment(seg)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var mc jwt.MapClaims
	if err := json.Unmarshal(payload, &mc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	c := Claims{raw: mc}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.UserID = identityOf(mc)
	return c, nil
}

func identityOf(mc jwt.MapClaims) string {
	switch v := mc["userId"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	sub, err := mc.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// Expired reports whether the token is unusable at now. A missing or zero
// exp counts as expired.
func (c Claims) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() || c.ExpiresAt.Unix() == 0 {
		return true
	}
	return !now.Before(c.ExpiresAt)
}

// Usable reports whether the token can back a session at now: it must carry
// an identity and must not be expired.
func (c Claims) Usable(now time.Time) bool {
	return c.UserID != "" && !c.Expired(now)
}

// Claim exposes a raw claim value.
func (c Claims) Claim(name string) (interface{}, bool) {
	v, ok := c.raw[name]
	return v, ok
}

// IsExpired fails closed: any token that cannot be decoded is expired.
func IsExpired(token string, now time.Time) bool {
	c, err := ParseToken(token)
	if err != nil {
		return true
	}
	return c.Expired(now)
}

// Identity returns the userId (else sub) claim, or "" when unavailable.
func Identity(token string) string {
	c, err := ParseToken(token)
	if err != nil {
		return ""
	}
	return c.UserID
}
