package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
)

// ── entry module errors ──

var (
	ErrEntryNotFound = errors.New("entry not found")
)

// EntryService journal entries. Ownership is always that of the parent session.
type EntryService interface {
	Add(ctx context.Context, actor Actor, sessionID string, in *dto.EntryInput) (*dto.EntryResponse, error)
	Edit(ctx context.Context, actor Actor, entryID string, in *dto.EntryInput) (*dto.EntryResponse, error)
	Delete(ctx context.Context, actor Actor, entryID string) error
	// List returns entries oldest first
	List(ctx context.Context, actor Actor, sessionID string) ([]dto.EntryResponse, error)
}

type entryService struct {
	repo    *repository.Repository
	journal *journal
	logger  *zap.Logger
}

// NewEntryService creates an EntryService accepting emotion levels within bounds
func NewEntryService(repo *repository.Repository, bounds model.EmotionRange, clock Clock, logger *zap.Logger) EntryService {
	return &entryService{
		repo:    repo,
		journal: &journal{bounds: bounds, engine: newLifecycleEngine(clock, logger)},
		logger:  logger,
	}
}

func emotionRangeMessage(r model.EmotionRange) string {
	return fmt.Sprintf("emotion level must be between %d and %d", r.Min, r.Max)
}

// ────────────────────── Add ──────────────────────

func (s *entryService) Add(ctx context.Context, actor Actor, sessionID string, in *dto.EntryInput) (*dto.EntryResponse, error) {
	var entry *model.Entry
	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		sess, err := lockOwned(ctx, txRepo, actor, sessionID)
		if err != nil {
			return err
		}
		entry, err = s.journal.add(ctx, txRepo, sess, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toEntryResponse(entry), nil
}

// ────────────────────── Edit ──────────────────────

func (s *entryService) Edit(ctx context.Context, actor Actor, entryID string, in *dto.EntryInput) (*dto.EntryResponse, error) {
	var entry *model.Entry
	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		var err error
		entry, err = s.lockEntry(ctx, txRepo, actor, entryID)
		if err != nil {
			return err
		}

		content, reflection, level, err := s.journal.validate(in)
		if err != nil {
			return err
		}
		entry.Content = content
		entry.EmotionLevel = level
		entry.Reflection = reflection
		entry.UpdatedAt = s.journal.engine.now()

		if err := txRepo.Entry.Update(ctx, entry); err != nil {
			s.logger.Error("update entry failed", zap.String("id", entryID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toEntryResponse(entry), nil
}

// ────────────────────── Delete ──────────────────────

func (s *entryService) Delete(ctx context.Context, actor Actor, entryID string) error {
	return inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if _, err := s.lockEntry(ctx, txRepo, actor, entryID); err != nil {
			return err
		}
		if err := txRepo.Entry.Delete(ctx, entryID); err != nil {
			s.logger.Error("delete entry failed", zap.String("id", entryID), zap.Error(err))
			return err
		}
		return nil
	})
}

// ────────────────────── List ──────────────────────

func (s *entryService) List(ctx context.Context, actor Actor, sessionID string) ([]dto.EntryResponse, error) {
	if !isUUID(sessionID) {
		return nil, ErrSessionNotFound
	}
	sess, err := s.repo.Session.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("load session failed", zap.String("id", sessionID), zap.Error(err))
		return nil, err
	}
	if !sess.OwnedBy(actor.UserID) {
		return nil, ErrPermissionDenied
	}

	entries, err := s.repo.Entry.ListBySession(ctx, sessionID)
	if err != nil {
		s.logger.Error("list entries failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, err
	}
	return toEntryResponses(entries), nil
}

// lockEntry loads the entry and row-locks its parent session for actor
func (s *entryService) lockEntry(ctx context.Context, txRepo *repository.Repository, actor Actor, entryID string) (*model.Entry, error) {
	if !isUUID(entryID) {
		return nil, ErrEntryNotFound
	}
	entry, err := txRepo.Entry.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		s.logger.Error("load entry failed", zap.String("id", entryID), zap.Error(err))
		return nil, err
	}
	if _, err := lockOwned(ctx, txRepo, actor, entry.SessionID); err != nil {
		return nil, err
	}
	return entry, nil
}
