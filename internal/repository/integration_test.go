//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
	"github.com/DRegan-dev/downward/pkg/database"
	pkgerrors "github.com/DRegan-dev/downward/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=downward password=downward dbname=downward_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect test database: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sql.DB: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupSession creates a user and a STARTED session on a fresh descent type
func setupSession(t *testing.T) (user *model.User, dt *model.DescentType, s *model.DescentSession, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	user = &model.User{
		Username:     fmt.Sprintf("diver%d", suffix),
		Email:        fmt.Sprintf("diver%d@example.com", suffix),
		PasswordHash: "$2a$10$placeholder",
	}
	if err := testDB.WithContext(ctx).Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	dt = &model.DescentType{
		Name:     fmt.Sprintf("Test Descent %d", suffix),
		Category: model.CategoryEmotional,
		IsActive: true,
	}
	if err := testDB.WithContext(ctx).Create(dt).Error; err != nil {
		t.Fatalf("create descent type: %v", err)
	}

	s = model.NewDescentSession(user.UserID, dt.DescentTypeID, "", time.Now().UTC().Truncate(time.Microsecond))
	if err := testDB.WithContext(ctx).Create(s).Error; err != nil {
		t.Fatalf("create session: %v", err)
	}

	cleanup = func() {
		testDB.Where("user_id = ?", user.UserID).Delete(&model.User{})
		testDB.Unscoped().Where("descent_type_id = ?", dt.DescentTypeID).Delete(&model.DescentType{})
	}
	return
}

// ═══════════════════════════════════════════════════════════
// Test: Transactions
// ═══════════════════════════════════════════════════════════

func TestTransaction_RollbackDiscardsEntry(t *testing.T) {
	_, _, s, cleanup := setupSession(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	txRepo := repo.WithTx(tx)

	if err := txRepo.Entry.Create(ctx, &model.Entry{SessionID: s.SessionID, Content: "x", EmotionLevel: 3, CreatedAt: time.Now()}); err != nil {
		tx.Rollback()
		t.Fatalf("create entry: %v", err)
	}
	tx.Rollback()

	entries, err := repo.Entry.ListBySession(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("want no entries after rollback, got %d", len(entries))
	}
}

func TestDeleteSession_RemovesEntries(t *testing.T) {
	_, _, s, cleanup := setupSession(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := &model.Entry{SessionID: s.SessionID, Content: fmt.Sprintf("entry %d", i), EmotionLevel: 2, CreatedAt: time.Now()}
		if err := repo.Entry.Create(ctx, e); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	txRepo := repo.WithTx(tx)
	if _, err := txRepo.Session.GetByIDForUpdate(ctx, s.SessionID); err != nil {
		tx.Rollback()
		t.Fatalf("lock: %v", err)
	}
	if _, err := txRepo.Entry.DeleteBySession(ctx, s.SessionID); err != nil {
		tx.Rollback()
		t.Fatalf("DeleteBySession: %v", err)
	}
	if err := txRepo.Session.Delete(ctx, s.SessionID); err != nil {
		tx.Rollback()
		t.Fatalf("Delete: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit: %v", err)
	}

	entries, _ := repo.Entry.ListBySession(ctx, s.SessionID)
	if len(entries) != 0 {
		t.Errorf("want entries gone, got %d", len(entries))
	}
	if _, err := repo.Session.GetByID(ctx, s.SessionID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("want session gone, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Lifecycle constraints
// ═══════════════════════════════════════════════════════════

func TestOptimisticLock_SessionConflictDetected(t *testing.T) {
	_, _, s, cleanup := setupSession(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	a, _ := repo.Session.GetByID(ctx, s.SessionID)
	b, _ := repo.Session.GetByID(ctx, s.SessionID)

	now := time.Now().UTC()
	if _, err := a.Apply(model.EventComplete, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := repo.Session.Update(ctx, a); err != nil {
		t.Fatalf("first update: %v", err)
	}

	if _, err := b.Apply(model.EventAbandon, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := repo.Session.Update(ctx, b); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("want ErrOptimisticLock, got %v", err)
	}
}

func TestSchema_RejectsStatusWithoutTimestamp(t *testing.T) {
	_, _, s, cleanup := setupSession(t)
	defer cleanup()

	err := testDB.Exec("UPDATE descent_sessions SET status = 'COMPLETED' WHERE session_id = ?", s.SessionID).Error
	if err == nil {
		t.Fatal("want check constraint violation for COMPLETED without completed_at")
	}
}

func TestEntries_OrderedByCreation(t *testing.T) {
	_, _, s, cleanup := setupSession(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	// inserted out of chronological order
	for _, off := range []int{2, 0, 1} {
		e := &model.Entry{SessionID: s.SessionID, Content: fmt.Sprintf("t+%d", off), EmotionLevel: 1, CreatedAt: base.Add(time.Duration(off) * time.Minute)}
		if err := repo.Entry.Create(ctx, e); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	entries, err := repo.Entry.ListBySession(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.Before(entries[i-1].CreatedAt) {
			t.Fatalf("entries out of order at %d: %v before %v", i, entries[i].CreatedAt, entries[i-1].CreatedAt)
		}
	}
}
