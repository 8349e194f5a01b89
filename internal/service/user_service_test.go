package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DRegan-dev/downward/internal/dto"
)

// ── helpers ──

func setupTestUserService() (UserService, *mockRepos, Actor) {
	m := newMockRepos()
	admin := m.addUser("root", true)
	return NewUserService(m.repo, NewSuperuserPolicy(), 20, zap.NewNop()), m, admin
}

// ── List ──

func TestUserService_List_KeywordAndOrder(t *testing.T) {
	svc, m, admin := setupTestUserService()
	m.addUser("carol", false)
	m.addUser("alice", false)
	m.addUser("bob", false)

	all, total, err := svc.List(context.Background(), admin, &dto.UserListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 4 || all[0].Username != "alice" || all[3].Username != "root" {
		t.Errorf("expected 4 users ordered by username, got %d %+v", total, all)
	}

	filtered, total, err := svc.List(context.Background(), admin, &dto.UserListRequest{Keyword: " AL "})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || filtered[0].Username != "alice" {
		t.Errorf("expected only alice, got %+v", filtered)
	}
}

func TestUserService_NonSuperuserDenied(t *testing.T) {
	svc, m, _ := setupTestUserService()
	alice := m.addUser("alice", false)
	ctx := context.Background()

	if _, _, err := svc.List(ctx, alice, &dto.UserListRequest{}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("list: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.Update(ctx, alice, alice.UserID, &dto.UpdateUserRequest{IsSuperuser: boolPtr(true)}); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("update: expected ErrPermissionDenied, got %v", err)
	}
	if err := svc.Delete(ctx, alice, alice.UserID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("delete: expected ErrPermissionDenied, got %v", err)
	}
	if _, err := svc.ResetPassword(ctx, alice, alice.UserID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("reset: expected ErrPermissionDenied, got %v", err)
	}
	if m.users.users[alice.UserID].IsSuperuser {
		t.Error("denied update must not promote")
	}
}

// ── Get ──

func TestUserService_Get_NotFound(t *testing.T) {
	svc, _, admin := setupTestUserService()

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		if _, err := svc.Get(context.Background(), admin, id); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("id %q: expected ErrUserNotFound, got %v", id, err)
		}
	}
}

// ── Update ──

func TestUserService_Update_Fields(t *testing.T) {
	svc, m, admin := setupTestUserService()
	alice := m.addUser("alice", false)

	resp, err := svc.Update(context.Background(), admin, alice.UserID, &dto.UpdateUserRequest{
		Username: strPtr("  alicia "),
		Email:    strPtr("Alicia@Example.com"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.Username != "alicia" || resp.Email != "alicia@example.com" {
		t.Errorf("fields not normalized: %+v", resp)
	}
	stored := m.users.users[alice.UserID]
	if stored.Username != "alicia" || stored.IsSuperuser {
		t.Errorf("unexpected stored user: %+v", stored)
	}
}

func TestUserService_Update_Duplicates(t *testing.T) {
	tests := []struct {
		name    string
		req     *dto.UpdateUserRequest
		wantErr error
	}{
		{"username", &dto.UpdateUserRequest{Username: strPtr("bob")}, ErrUsernameTaken},
		{"email", &dto.UpdateUserRequest{Email: strPtr("bob@example.com")}, ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, admin := setupTestUserService()
			alice := m.addUser("alice", false)
			m.addUser("bob", false)

			if _, err := svc.Update(context.Background(), admin, alice.UserID, tt.req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if m.users.users[alice.UserID].Username != "alice" {
				t.Error("rejected update changed the user")
			}
		})
	}
}

func TestUserService_Update_KeepingOwnNameIsNotDuplicate(t *testing.T) {
	svc, m, admin := setupTestUserService()
	alice := m.addUser("alice", false)

	if _, err := svc.Update(context.Background(), admin, alice.UserID, &dto.UpdateUserRequest{
		Username: strPtr("alice"),
		Email:    strPtr("alice@example.com"),
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestUserService_Update_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   *dto.UpdateUserRequest
		field string
	}{
		{"short username", &dto.UpdateUserRequest{Username: strPtr(" ab ")}, "username"},
		{"long username", &dto.UpdateUserRequest{Username: strPtr(strings.Repeat("a", 151))}, "username"},
		{"bad email", &dto.UpdateUserRequest{Email: strPtr("not-an-email")}, "email"},
		{"short password", &dto.UpdateUserRequest{Password: strPtr("short")}, "password"},
		{"long password", &dto.UpdateUserRequest{Password: strPtr(strings.Repeat("p", 73))}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m, admin := setupTestUserService()
			alice := m.addUser("alice", false)

			_, err := svc.Update(context.Background(), admin, alice.UserID, tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected %s field error, got %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestUserService_Update_ChangesPassword(t *testing.T) {
	svc, m, admin := setupTestUserService()
	alice := m.addUser("alice", false)

	if _, err := svc.Update(context.Background(), admin, alice.UserID, &dto.UpdateUserRequest{Password: strPtr("new-password-1")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	hash := m.users.users[alice.UserID].PasswordHash
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-password-1")); err != nil {
		t.Errorf("stored hash does not match the new password: %v", err)
	}
}

func TestUserService_Update_Demote(t *testing.T) {
	t.Run("last superuser", func(t *testing.T) {
		svc, m, admin := setupTestUserService()

		_, err := svc.Update(context.Background(), admin, admin.UserID, &dto.UpdateUserRequest{IsSuperuser: boolPtr(false)})
		if !errors.Is(err, ErrLastSuperuser) {
			t.Fatalf("expected ErrLastSuperuser, got %v", err)
		}
		if !m.users.users[admin.UserID].IsSuperuser {
			t.Error("last superuser was demoted")
		}
	})

	t.Run("another superuser remains", func(t *testing.T) {
		svc, m, admin := setupTestUserService()
		other := m.addUser("deputy", true)

		if _, err := svc.Update(context.Background(), admin, other.UserID, &dto.UpdateUserRequest{IsSuperuser: boolPtr(false)}); err != nil {
			t.Fatalf("demote: %v", err)
		}
		if m.users.users[other.UserID].IsSuperuser {
			t.Error("expected deputy demoted")
		}
	})

	t.Run("promote", func(t *testing.T) {
		svc, m, admin := setupTestUserService()
		alice := m.addUser("alice", false)

		if _, err := svc.Update(context.Background(), admin, alice.UserID, &dto.UpdateUserRequest{IsSuperuser: boolPtr(true)}); err != nil {
			t.Fatalf("promote: %v", err)
		}
		if !m.users.users[alice.UserID].IsSuperuser {
			t.Error("expected alice promoted")
		}
	})
}

// ── Delete ──

func TestUserService_Delete(t *testing.T) {
	svc, m, admin := setupTestUserService()
	alice := m.addUser("alice", false)

	if err := svc.Delete(context.Background(), admin, alice.UserID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := m.users.users[alice.UserID]; ok {
		t.Error("user still stored")
	}
	if err := svc.Delete(context.Background(), admin, alice.UserID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second delete: expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_Delete_SelfRejected(t *testing.T) {
	svc, m, admin := setupTestUserService()
	m.addUser("deputy", true)

	if err := svc.Delete(context.Background(), admin, admin.UserID); !errors.Is(err, ErrUserSelfDelete) {
		t.Fatalf("expected ErrUserSelfDelete, got %v", err)
	}
	if _, ok := m.users.users[admin.UserID]; !ok {
		t.Error("caller was deleted")
	}
}

func TestUserService_Delete_LastSuperuser(t *testing.T) {
	svc, m, admin := setupTestUserService()
	deputy := m.addUser("deputy", true)

	// deputy removes root; deputy is now the only superuser
	if err := svc.Delete(context.Background(), deputy, admin.UserID); err != nil {
		t.Fatalf("delete root: %v", err)
	}

	// a superuser actor that no longer has a row cannot remove the last one
	err := svc.Delete(context.Background(), admin, deputy.UserID)
	if !errors.Is(err, ErrLastSuperuser) {
		t.Fatalf("expected ErrLastSuperuser, got %v", err)
	}
	if _, ok := m.users.users[deputy.UserID]; !ok {
		t.Error("last superuser was deleted")
	}
}

// ── ResetPassword ──

func TestUserService_ResetPassword(t *testing.T) {
	svc, m, admin := setupTestUserService()
	alice := m.addUser("alice", false)

	resp, err := svc.ResetPassword(context.Background(), admin, alice.UserID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(resp.TempPassword) != 8 {
		t.Errorf("expected 8 characters, got %q", resp.TempPassword)
	}
	hash := m.users.users[alice.UserID].PasswordHash
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(resp.TempPassword)); err != nil {
		t.Errorf("stored hash does not match the temp password: %v", err)
	}

	if _, err := svc.ResetPassword(context.Background(), admin, uuid.NewString()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGenerateTempPassword_LetterAndDigit(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw, err := generateTempPassword(8)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		var letter, digit bool
		for _, r := range pw {
			switch {
			case unicode.IsLetter(r):
				letter = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		if len(pw) != 8 || !letter || !digit {
			t.Fatalf("bad temp password %q", pw)
		}
		if strings.ContainsAny(pw, "lIoO01") {
			t.Fatalf("temp password %q has look-alike characters", pw)
		}
	}
}
