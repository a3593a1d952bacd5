package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryCreational Category = "Creational"
	CategoryStructural Category = "Structural"
	CategoryBehavioral Category = "Behavioral"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCreational, CategoryStructural, CategoryBehavioral:
		return true
	}
	return false
}

type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCpp        Language = "cpp"
	LanguageTypeScript Language = "typescript"

	DefaultLanguage = LanguageJavaScript
)

// Languages is the editor's language list in display order.
var Languages = []Language{
	LanguageJavaScript,
	LanguagePython,
	LanguageJava,
	LanguageCpp,
	LanguageTypeScript,
}

func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

func (l Language) DisplayName() string {
	switch l {
	case LanguageJavaScript:
		return "JavaScript"
	case LanguagePython:
		return "Python"
	case LanguageJava:
		return "Java"
	case LanguageCpp:
		return "C++"
	case LanguageTypeScript:
		return "TypeScript"
	}
	return string(l)
}

// PatternRef is the backend's projection of a pattern.
type PatternRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pattern is a catalog entry with per-language starter code.
type Pattern struct {
	ID          string              `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	Category    Category            `json:"category" yaml:"category"`
	Description string              `json:"description" yaml:"description"`
	Templates   map[Language]string `json:"templates,omitempty" yaml:"-"`
}

func (p Pattern) Ref() PatternRef {
	return PatternRef{ID: p.ID, Name: p.Name}
}

type Challenge struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	IsDaily           bool   `json:"isDaily"`
	PublishedAt       string `json:"publishedAt"`
	ExpectedPatternID string `json:"expectedPatternId"`
}

// PublishedTime parses PublishedAt, accepting RFC 3339 or a bare date.
func (c Challenge) PublishedTime() (time.Time, bool) {
	s := strings.TrimSpace(c.PublishedAt)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type Feedback struct {
	KeyPoints    []string `json:"keyPoints"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// GoodScore is the lowest score rendered as a passing result.
const GoodScore = 70

type Evaluation struct {
	Score    int      `json:"score"`
	Feedback Feedback `json:"feedback"`
}

func (e Evaluation) Good() bool { return e.Score >= GoodScore }

type Submission struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"userId"`
	ChallengeID         string      `json:"challengeId"`
	PatternID           string      `json:"patternId"`
	Code                string      `json:"code"`
	Language            string      `json:"language"`
	SubmittedAt         string      `json:"submittedAt"`
	Evaluation          *Evaluation `json:"evaluation"`
	SelectedPatternName string      `json:"selectedPatternName,omitempty"`
	ExpectedPatternName string      `json:"expectedPatternName,omitempty"`
}

func (s Submission) Evaluated() bool { return s.Evaluation != nil }

// PatternVerdictKnown reports whether both pattern names are available.
func (s Submission) PatternVerdictKnown() bool {
	return s.SelectedPatternName != "" && s.ExpectedPatternName != ""
}

func (s Submission) CorrectPattern() bool {
	return s.PatternVerdictKnown() && s.SelectedPatternName == s.ExpectedPatternName
}

type SubmitRequest struct {
	UserID      string `json:"userId"`
	ChallengeID string `json:"challengeId"`
	PatternID   string `json:"patternId"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}

type Page[T any] struct {
	Content       []T `json:"content"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
	Size          int `json:"size"`
	Number        int `json:"number"`
}

func (p Page[T]) HasPrev() bool { return p.Number > 0 }
func (p Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages }

type UserStatistics struct {
	CompletedChallenges int     `json:"completedChallenges"`
	Percentage          float64 `json:"percentage"`
	CurrentStreak       int     `json:"currentStreak"`
	LongestStreak       int     `json:"longestStreak"`
}

// Last returns the most recent submission in backend order.
func Last(subs []Submission) (Submission, bool) {
	if len(subs) == 0 {
		return Submission{}, false
	}
	return subs[len(subs)-1], true
}

// FindPatternRef looks a backend pattern up by display name.
func FindPatternRef(refs []PatternRef, name string) (PatternRef, bool) {
	for _, r := range refs {
		if r.Name == name {
			return r, true
		}
	}
	return PatternRef{}, false
}
