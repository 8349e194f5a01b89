package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
	pkgerrors "github.com/DRegan-dev/downward/pkg/errors"
)

// ── session module errors ──

var (
	ErrSessionNotFound = errors.New("session not found")
)

// MaxNotesLength notes limit, in characters
const MaxNotesLength = 5000

// SessionService descent session lifecycle.
//
// Every mutating call and every read of a single session checks that the actor
// owns the session; superusers get no exception. Complete and Abandon on a
// finished session succeed with a warning and change nothing.
type SessionService interface {
	Start(ctx context.Context, actor Actor, req *dto.StartSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, actor Actor, id string) (*dto.SessionResponse, error)
	UpdateNotes(ctx context.Context, actor Actor, id string, req *dto.UpdateNotesRequest) (*dto.SessionResponse, error)
	Continue(ctx context.Context, actor Actor, id string, req *dto.ContinueSessionRequest) (*dto.ContinueResponse, error)
	Complete(ctx context.Context, actor Actor, id string) (*dto.SessionResult, error)
	Abandon(ctx context.Context, actor Actor, id string) (*dto.SessionResult, error)
	Delete(ctx context.Context, actor Actor, id string) error
	History(ctx context.Context, actor Actor, req *dto.PaginationRequest) ([]dto.SessionResponse, int64, error)
}

type sessionService struct {
	repo     *repository.Repository
	engine   *lifecycleEngine
	journal  *journal
	pageSize int
	logger   *zap.Logger
}

// NewSessionService creates a SessionService. bounds is the accepted emotion
// level range for entries written through Continue; pageSize the default
// history page size.
func NewSessionService(repo *repository.Repository, bounds model.EmotionRange, pageSize int, clock Clock, logger *zap.Logger) SessionService {
	engine := newLifecycleEngine(clock, logger)
	return &sessionService{
		repo:     repo,
		engine:   engine,
		journal:  &journal{bounds: bounds, engine: engine},
		pageSize: pageSize,
		logger:   logger,
	}
}

// ────────────────────── Start ──────────────────────

func (s *sessionService) Start(ctx context.Context, actor Actor, req *dto.StartSessionRequest) (*dto.SessionResponse, error) {
	verr := &ValidationError{}
	if req.DescentTypeID == "" {
		verr.Add("descent_type_id", "select a descent type")
	}
	validateNotes(verr, req.Notes)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if !isUUID(req.DescentTypeID) {
		return nil, ErrInvalidReference
	}

	dt, err := s.repo.DescentType.GetByID(ctx, req.DescentTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidReference
		}
		s.logger.Error("load descent type failed", zap.String("id", req.DescentTypeID), zap.Error(err))
		return nil, err
	}
	if !dt.Selectable() {
		return nil, ErrInvalidReference
	}

	sess := model.NewDescentSession(actor.UserID, dt.DescentTypeID, req.Notes, s.engine.now())
	if err := s.repo.Session.Create(ctx, sess); err != nil {
		s.logger.Error("create session failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	sess.DescentType = dt

	s.logger.Info("session started",
		zap.String("session_id", sess.SessionID),
		zap.String("user_id", actor.UserID),
		zap.String("descent_type", dt.Name))

	return toSessionResponse(sess, s.engine.duration(sess)), nil
}

// ────────────────────── Get ──────────────────────

func (s *sessionService) Get(ctx context.Context, actor Actor, id string) (*dto.SessionResponse, error) {
	sess, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.Entry.ListBySession(ctx, sess.SessionID)
	if err != nil {
		s.logger.Error("list entries failed", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}

	resp := toSessionResponse(sess, s.engine.duration(sess))
	resp.Entries = toEntryResponses(entries)
	count := len(entries)
	resp.EntryCount = &count
	return resp, nil
}

// ────────────────────── UpdateNotes ──────────────────────

func (s *sessionService) UpdateNotes(ctx context.Context, actor Actor, id string, req *dto.UpdateNotesRequest) (*dto.SessionResponse, error) {
	verr := &ValidationError{}
	validateNotes(verr, req.Notes)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var sess *model.DescentSession
	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		sess, err = lockOwned(ctx, txRepo, actor, id)
		if err != nil {
			return err
		}
		sess.Notes = req.Notes
		return s.update(ctx, txRepo, sess)
	})
	if err != nil {
		return nil, err
	}
	return toSessionResponse(sess, s.engine.duration(sess)), nil
}

// ────────────────────── Continue ──────────────────────

// Continue adds an entry and then applies the requested action in the same
// transaction: save keeps the session as is, save_and_continue keeps the
// journaling form open, complete finishes the session.
func (s *sessionService) Continue(ctx context.Context, actor Actor, id string, req *dto.ContinueSessionRequest) (*dto.ContinueResponse, error) {
	action := req.Action
	if action == "" {
		action = dto.ActionSave
	}

	var next string
	switch action {
	case dto.ActionSave:
		next = dto.NextSession
	case dto.ActionSaveAndContinue:
		next = dto.NextContinue
	case dto.ActionComplete:
		next = dto.NextHistory
	default:
		verr := &ValidationError{}
		verr.Add("action", "action must be one of save, save_and_continue, complete")
		return nil, verr
	}

	var (
		sess     *model.DescentSession
		entry    *model.Entry
		warnings []string
	)
	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		sess, err = lockOwned(ctx, txRepo, actor, id)
		if err != nil {
			return err
		}

		entry, err = s.journal.add(ctx, txRepo, sess, &req.EntryInput)
		if err != nil {
			return err
		}

		if action == dto.ActionComplete {
			warning, err := s.engine.apply(ctx, txRepo, sess, model.EventComplete)
			if err != nil {
				return err
			}
			if warning != "" {
				warnings = append(warnings, warning)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.ContinueResponse{
		Session:  toSessionResponse(sess, s.engine.duration(sess)),
		Entry:    toEntryResponse(entry),
		Next:     next,
		Warnings: warnings,
	}, nil
}

// ────────────────────── Complete / Abandon ──────────────────────

func (s *sessionService) Complete(ctx context.Context, actor Actor, id string) (*dto.SessionResult, error) {
	return s.finish(ctx, actor, id, model.EventComplete)
}

func (s *sessionService) Abandon(ctx context.Context, actor Actor, id string) (*dto.SessionResult, error) {
	return s.finish(ctx, actor, id, model.EventAbandon)
}

func (s *sessionService) finish(ctx context.Context, actor Actor, id string, ev model.Event) (*dto.SessionResult, error) {
	var (
		sess     *model.DescentSession
		warnings []string
	)
	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		sess, err = lockOwned(ctx, txRepo, actor, id)
		if err != nil {
			return err
		}
		warning, err := s.engine.apply(ctx, txRepo, sess, ev)
		if err != nil {
			return err
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.SessionResult{
		Session:  toSessionResponse(sess, s.engine.duration(sess)),
		Warnings: warnings,
	}, nil
}

// ────────────────────── Delete ──────────────────────

func (s *sessionService) Delete(ctx context.Context, actor Actor, id string) error {
	return inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		sess, err := lockOwned(ctx, txRepo, actor, id)
		if err != nil {
			return err
		}

		removed, err := txRepo.Entry.DeleteBySession(ctx, sess.SessionID)
		if err != nil {
			s.logger.Error("delete entries failed", zap.String("session_id", id), zap.Error(err))
			return err
		}
		if err := txRepo.Session.Delete(ctx, sess.SessionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			s.logger.Error("delete session failed", zap.String("session_id", id), zap.Error(err))
			return err
		}

		s.logger.Info("session deleted",
			zap.String("session_id", id),
			zap.String("user_id", actor.UserID),
			zap.Int64("entries", removed))
		return nil
	})
}

// ────────────────────── History ──────────────────────

func (s *sessionService) History(ctx context.Context, actor Actor, req *dto.PaginationRequest) ([]dto.SessionResponse, int64, error) {
	sessions, total, err := s.repo.Session.ListByUser(ctx, actor.UserID, req.GetOffset(s.pageSize), req.GetPageSize(s.pageSize))
	if err != nil {
		s.logger.Error("list sessions failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, 0, err
	}

	ids := make([]string, 0, len(sessions))
	for i := range sessions {
		ids = append(ids, sessions[i].SessionID)
	}
	counts, err := s.repo.Entry.CountBySessions(ctx, ids)
	if err != nil {
		s.logger.Error("count entries failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp := toSessionResponse(&sessions[i], s.engine.duration(&sessions[i]))
		n := int(counts[sessions[i].SessionID])
		resp.EntryCount = &n
		result = append(result, *resp)
	}
	return result, total, nil
}

// ── helpers ──

func validateNotes(verr *ValidationError, notes string) {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		verr.Add("notes", fmt.Sprintf("notes must be at most %d characters", MaxNotesLength))
	}
}

func (s *sessionService) loadOwned(ctx context.Context, actor Actor, id string) (*model.DescentSession, error) {
	if !isUUID(id) {
		return nil, ErrSessionNotFound
	}
	sess, err := s.repo.Session.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("load session failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !sess.OwnedBy(actor.UserID) {
		return nil, ErrPermissionDenied
	}
	return sess, nil
}

func (s *sessionService) update(ctx context.Context, txRepo *repository.Repository, sess *model.DescentSession) error {
	if err := txRepo.Session.Update(ctx, sess); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrConcurrentModification
		}
		s.logger.Error("update session failed", zap.String("session_id", sess.SessionID), zap.Error(err))
		return err
	}
	return nil
}
