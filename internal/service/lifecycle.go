package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
	pkgerrors "github.com/DRegan-dev/downward/pkg/errors"
)

// Clock source of "now" for lifecycle timestamps
type Clock func() time.Time

// SystemClock wall-clock time in UTC
func SystemClock() time.Time { return time.Now().UTC() }

// lifecycleEngine applies lifecycle events to sessions and persists them.
// Shared by the session and entry services.
type lifecycleEngine struct {
	now    Clock
	logger *zap.Logger
}

func newLifecycleEngine(now Clock, logger *zap.Logger) *lifecycleEngine {
	if now == nil {
		now = SystemClock
	}
	return &lifecycleEngine{now: now, logger: logger}
}

// apply runs ev on sess and writes the result through txRepo. An event on a
// finished session is not an error: it returns a warning and leaves the row
// untouched.
func (e *lifecycleEngine) apply(ctx context.Context, txRepo *repository.Repository, sess *model.DescentSession, ev model.Event) (warning string, err error) {
	changed, err := sess.Apply(ev, e.now())
	if errors.Is(err, model.ErrAlreadyTerminal) {
		e.logger.Info("lifecycle event ignored",
			zap.String("session_id", sess.SessionID),
			zap.Stringer("event", ev),
			zap.String("status", string(sess.Status)))
		return alreadyTerminalWarning(sess.Status), nil
	}
	if err != nil {
		e.logger.Error("apply lifecycle event failed",
			zap.String("session_id", sess.SessionID),
			zap.Stringer("event", ev),
			zap.Error(err))
		return "", err
	}
	if !changed {
		return "", nil
	}

	if err := txRepo.Session.Update(ctx, sess); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return "", ErrConcurrentModification
		}
		e.logger.Error("update session failed", zap.String("session_id", sess.SessionID), zap.Error(err))
		return "", err
	}
	return "", nil
}

// duration see model.Duration; active sessions report elapsed time so far
func (e *lifecycleEngine) duration(sess *model.DescentSession) time.Duration {
	return sess.Duration(e.now())
}

// lockOwned loads and row-locks the session, then checks ownership
func lockOwned(ctx context.Context, txRepo *repository.Repository, actor Actor, sessionID string) (*model.DescentSession, error) {
	if !isUUID(sessionID) {
		return nil, ErrSessionNotFound
	}
	sess, err := txRepo.Session.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !sess.OwnedBy(actor.UserID) {
		return nil, ErrPermissionDenied
	}
	return sess, nil
}

// isUUID ids that cannot be UUIDs cannot exist; checked before they reach postgres
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ── journal ──

// journal validates and stores entries. Callers hold the parent session lock.
type journal struct {
	bounds model.EmotionRange
	engine *lifecycleEngine
}

// validate checks an entry payload and returns the normalized fields
func (j *journal) validate(in *dto.EntryInput) (content, reflection string, level int, err error) {
	verr := &ValidationError{}

	content = strings.TrimSpace(in.Content)
	if content == "" {
		verr.Add("content", "content is required")
	}

	switch {
	case in.EmotionLevel == nil:
		verr.Add("emotion_level", "emotion level is required")
	case !j.bounds.Contains(*in.EmotionLevel):
		verr.Add("emotion_level", emotionRangeMessage(j.bounds))
	default:
		level = *in.EmotionLevel
	}

	return content, strings.TrimSpace(in.Reflection), level, verr.OrNil()
}

// add stores a new entry on sess. A STARTED session moves to IN_PROGRESS.
func (j *journal) add(ctx context.Context, txRepo *repository.Repository, sess *model.DescentSession, in *dto.EntryInput) (*model.Entry, error) {
	content, reflection, level, err := j.validate(in)
	if err != nil {
		return nil, err
	}

	entry := &model.Entry{
		SessionID:    sess.SessionID,
		Content:      content,
		EmotionLevel: level,
		Reflection:   reflection,
		CreatedAt:    j.engine.now(),
	}
	entry.UpdatedAt = entry.CreatedAt
	if err := txRepo.Entry.Create(ctx, entry); err != nil {
		j.engine.logger.Error("create entry failed", zap.String("session_id", sess.SessionID), zap.Error(err))
		return nil, err
	}

	if sess.Status == model.StatusStarted {
		if _, err := j.engine.apply(ctx, txRepo, sess, model.EventBeginWork); err != nil {
			return nil, err
		}
	}
	return entry, nil
}
