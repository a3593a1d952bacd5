// Package draft persists the in-progress practice challenge so a reload
// resumes where the user left off.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/patternlab/internal/domain"
	"github.com/yungbote/patternlab/internal/platform/logger"
	"github.com/yungbote/patternlab/internal/store"
)

// SchemaVersion is bumped whenever Draft changes incompatibly. Stored drafts
// with any other version are discarded on load.
const SchemaVersion = 1

type Draft struct {
	Version             int              `json:"version"`
	Challenge           domain.Challenge `json:"challenge"`
	Code                string           `json:"code"`
	Language            domain.Language  `json:"language"`
	SelectedPatternName string           `json:"selectedPatternName"`
	Submitted           bool             `json:"submitted"`
	SavedAt             time.Time        `json:"savedAt"`
}

var errInvalid = errors.New("invalid draft")

func (d Draft) validate() error {
	switch {
	case d.Version != SchemaVersion:
		return fmt.Errorf("%w: version %d", errInvalid, d.Version)
	case strings.TrimSpace(d.Challenge.ID) == "":
		return fmt.Errorf("%w: missing challenge id", errInvalid)
	case !d.Language.Valid():
		return fmt.Errorf("%w: language %q", errInvalid, d.Language)
	case strings.TrimSpace(d.SelectedPatternName) == "":
		return fmt.Errorf("%w: missing pattern", errInvalid)
	}
	return nil
}

type Repo struct {
	store store.Store
	log   *logger.Logger
	now   func() time.Time
}

func NewRepo(st store.Store, baseLog *logger.Logger) *Repo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Repo{store: st, log: baseLog.With("repo", "PracticeDraftRepo"), now: time.Now}
}

// Load returns the stored draft. Corrupt or incompatible data is removed and
// reported as no draft.
func (r *Repo) Load(ctx context.Context) (Draft, bool, error) {
	raw, ok, err := r.store.Get(ctx, store.KeyPracticeDraft)
	if err != nil {
		return Draft{}, false, fmt.Errorf("read draft: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return Draft{}, false, nil
	}
	var d Draft
	err = json.Unmarshal([]byte(raw), &d)
	if err == nil {
		err = d.validate()
	}
	if err != nil {
		r.discard(ctx, err)
		return Draft{}, false, nil
	}
	return d, true, nil
}

func (r *Repo) discard(ctx context.Context, cause error) {
	r.log.Warn("discarding unreadable practice draft", "error", cause)
	if err := r.store.Remove(ctx, store.KeyPracticeDraft); err != nil {
		r.log.Warn("remove practice draft failed", "error", err)
	}
}

// Save overwrites the stored draft. Version and SavedAt are always set here.
func (r *Repo) Save(ctx context.Context, d Draft) error {
	d.Version = SchemaVersion
	d.SavedAt = r.now().UTC()
	if err := d.validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return r.store.Set(ctx, store.KeyPracticeDraft, string(raw))
}

func (r *Repo) Clear(ctx context.Context) error {
	return r.store.Remove(ctx, store.KeyPracticeDraft)
}
