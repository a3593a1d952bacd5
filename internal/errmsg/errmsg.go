// Package errmsg turns raw failures (backend bodies, transport errors) into
// short messages safe to show on a form or alert.
package errmsg

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yungbote/patternlab/internal/platform/logger"
)

// Message keys shared with the embedded locale catalogs.
const (
	KeyInvalidCredentials = "invalid_credentials"
	KeyEmailTaken         = "email_taken"
	KeyUnknown            = "unknown"
	KeyGeneric            = "generic"
	KeyCredentialsHint    = "auth.credentials_hint"
	KeyEmailTakenHint     = "auth.email_taken_hint"
	KeyPasswordMismatch   = "signup.password_mismatch"
	KeyPasswordLength     = "signup.password_length"
	KeyExpiredNotice      = "session.expired_notice"
)

type rule struct {
	key string
	re  *regexp.Regexp
}

// rules are tried in order; the first match wins.
var rules = []rule{
	{KeyInvalidCredentials, regexp.MustCompile(`(?i)invalid credentials|wrong password|incorrect password`)},
	{"user_not_found", regexp.MustCompile(`(?i)user not found|email not found`)},
	{KeyEmailTaken, regexp.MustCompile(`(?i)email already exists|email.*already.*registered`)},
	{"username_taken", regexp.MustCompile(`(?i)username already exists|username.*already.*taken`)},
	{"invalid_email", regexp.MustCompile(`(?i)invalid email`)},
	{"password_too_short", regexp.MustCompile(`(?i)password.*too short|password.*minimum`)},
	{"password_too_weak", regexp.MustCompile(`(?i)password.*too weak`)},

	{"network", regexp.MustCompile(`(?i)network error|failed to fetch`)},
	{"timeout", regexp.MustCompile(`(?i)timeout`)},
	{"server", regexp.MustCompile(`(?i)server error|internal server error|500`)},

	{"required_field", regexp.MustCompile(`(?i)required field|field is required`)},
	{"invalid_format", regexp.MustCompile(`(?i)invalid format`)},

	{"session_expired", regexp.MustCompile(`(?i)session expired|token expired`)},
	{"unauthorized", regexp.MustCompile(`(?i)unauthorized|not authorized`)},

	{"rate_limited", regexp.MustCompile(`(?i)too many requests|rate limit`)},
}

var (
	reErrorPrefix = regexp.MustCompile(`(?i)^Error:\s*`)
	reBraces      = regexp.MustCompile(`\{.*\}`)
	reBrackets    = regexp.MustCompile(`\[.*\]`)
	reConstant    = regexp.MustCompile(`^[A-Z_]+$`)
)

const (
	minCleanLen = 3
	maxCleanLen = 200
)

// Response is a structured backend error body.
type Response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status,omitempty"`
}

type Formatter struct {
	p   *message.Printer
	tag language.Tag
}

// New returns a formatter for locale, which may be a single tag or an
// Accept-Language header. Unsupported locales fall back to pt-BR.
func New(locale string) (*Formatter, error) {
	b, err := defaultBundle()
	if err != nil {
		return nil, err
	}
	p, tag := b.Printer(locale)
	return &Formatter{p: p, tag: tag}, nil
}

// MustNew panics if the embedded catalogs are malformed.
func MustNew(locale string) *Formatter {
	f, err := New(locale)
	if err != nil {
		panic(fmt.Sprintf("errmsg: %v", err))
	}
	return f
}

func (f *Formatter) Locale() language.Tag { return f.tag }

// Text looks a catalog key up directly.
func (f *Formatter) Text(key string) string {
	return f.p.Sprintf(key)
}

// Format maps err to a user-facing message.
func (f *Formatter) Format(err any) string {
	msg, _ := f.format(err)
	return msg
}

// FormatAuth is Format plus a follow-up hint for the two auth failures a
// user can act on.
func (f *Formatter) FormatAuth(err any) string {
	msg, key := f.format(err)
	switch key {
	case KeyInvalidCredentials:
		return msg + f.Text(KeyCredentialsHint)
	case KeyEmailTaken:
		return msg + f.Text(KeyEmailTakenHint)
	}
	return msg
}

func (f *Formatter) format(err any) (string, string) {
	raw, ok := extract(err)
	if !ok {
		raw = f.Text(KeyUnknown)
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "{") {
		var parsed map[string]any
		if json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed) == nil {
			if inner, ok := extract(parsed); ok {
				raw = inner
			} else {
				raw = f.Text(KeyUnknown)
			}
		}
	}
	for _, r := range rules {
		if r.re.MatchString(raw) {
			return f.Text(r.key), r.key
		}
	}
	cleaned := clean(raw)
	n := utf8.RuneCountInString(cleaned)
	if n < minCleanLen || n > maxCleanLen || reConstant.MatchString(cleaned) {
		return f.Text(KeyGeneric), KeyGeneric
	}
	return cleaned, ""
}

func clean(raw string) string {
	s := reErrorPrefix.ReplaceAllString(raw, "")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = reBraces.ReplaceAllString(s, "")
	s = reBrackets.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func extract(err any) (string, bool) {
	switch v := err.(type) {
	case nil:
		return "", false
	case error:
		return v.Error(), true
	case string:
		return v, true
	case Response:
		return firstNonEmpty(v.Message, v.Error, v.Details)
	case *Response:
		if v == nil {
			return "", false
		}
		return firstNonEmpty(v.Message, v.Error, v.Details)
	case map[string]any:
		return firstNonEmpty(str(v["message"]), str(v["error"]), str(v["details"]))
	case map[string]string:
		return firstNonEmpty(v["message"], v["error"], v["details"])
	}
	return "", false
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func firstNonEmpty(vals ...string) (string, bool) {
	for _, v := range vals {
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// LogDetails records the raw failure behind a formatted message.
func LogDetails(log *logger.Logger, context string, err any) {
	if log == nil || err == nil {
		return
	}
	log.Debug("error details", "context", context, "error", fmt.Sprintf("%v", err))
}
