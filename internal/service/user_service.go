package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
)

// ── user administration errors ──

var (
	// ErrLastSuperuser the change would leave no superuser
	ErrLastSuperuser  = errors.New("cannot remove the last superuser")
	ErrUserSelfDelete = errors.New("cannot delete your own account")
)

// same bounds the register endpoint binds
const (
	usernameMinLen = 3
	usernameMaxLen = 150
	emailMaxLen    = 255
	passwordMinLen = 8
	passwordMaxLen = 72 // bcrypt ignores anything longer
)

const tempPasswordLen = 8

var fieldValidator = validator.New()

// UserService account administration. Every method requires CapUserAdmin.
type UserService interface {
	List(ctx context.Context, actor Actor, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Get(ctx context.Context, actor Actor, id string) (*dto.UserResponse, error)
	// Update applies the non-nil fields. Demoting the only superuser fails with ErrLastSuperuser.
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	// Delete removes the account with its sessions and entries
	Delete(ctx context.Context, actor Actor, id string) error
	ResetPassword(ctx context.Context, actor Actor, id string) (*dto.ResetPasswordResponse, error)
}

type userService struct {
	repo     *repository.Repository
	authz    Authorizer
	pageSize int
	logger   *zap.Logger
}

// NewUserService creates a UserService gated by authz
func NewUserService(repo *repository.Repository, authz Authorizer, pageSize int, logger *zap.Logger) UserService {
	return &userService{repo: repo, authz: authz, pageSize: pageSize, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, actor Actor, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	if err := s.authz.Require(actor, CapUserAdmin); err != nil {
		return nil, 0, err
	}

	users, total, err := s.repo.User.List(ctx, strings.TrimSpace(req.Keyword), req.GetOffset(s.pageSize), req.GetPageSize(s.pageSize))
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Get ──────────────────────

func (s *userService) Get(ctx context.Context, actor Actor, id string) (*dto.UserResponse, error) {
	if err := s.authz.Require(actor, CapUserAdmin); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.authz.Require(actor, CapUserAdmin); err != nil {
		return nil, err
	}

	var username, email string
	verr := &ValidationError{}
	if req.Username != nil {
		username = strings.TrimSpace(*req.Username)
		if n := utf8.RuneCountInString(username); n < usernameMinLen || n > usernameMaxLen {
			verr.Add("username", "username must be 3 to 150 characters")
		}
	}
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
		if len(email) > emailMaxLen || fieldValidator.Var(email, "required,email") != nil {
			verr.Add("email", "enter a valid email address")
		}
	}
	if req.Password != nil {
		if n := len(*req.Password); n < passwordMinLen || n > passwordMaxLen {
			verr.Add("password", "password must be 8 to 72 characters")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var updated *model.User
	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		user, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}

		if req.Username != nil && username != user.Username {
			if err := s.ensureUnique(txRepo.User.GetByUsername(ctx, username)); err != nil {
				if errors.Is(err, errTaken) {
					return ErrUsernameTaken
				}
				return err
			}
			user.Username = username
		}
		if req.Email != nil && email != user.Email {
			if err := s.ensureUnique(txRepo.User.GetByEmail(ctx, email)); err != nil {
				if errors.Is(err, errTaken) {
					return ErrEmailTaken
				}
				return err
			}
			user.Email = email
		}
		if req.IsSuperuser != nil && *req.IsSuperuser != user.IsSuperuser {
			if !*req.IsSuperuser {
				if err := s.ensureOtherSuperuser(ctx, txRepo, user.UserID); err != nil {
					return err
				}
			}
			user.IsSuperuser = *req.IsSuperuser
		}
		if req.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				s.logger.Error("hash password failed", zap.Error(err))
				return err
			}
			user.PasswordHash = string(hash)
		}

		if err := txRepo.User.Update(ctx, user); err != nil {
			s.logger.Error("update user failed", zap.String("user_id", id), zap.Error(err))
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated",
		zap.String("user_id", id),
		zap.String("by", actor.UserID),
		zap.Bool("password_changed", req.Password != nil),
	)
	resp := toUserResponse(updated)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := s.authz.Require(actor, CapUserAdmin); err != nil {
		return err
	}
	if id == actor.UserID {
		return ErrUserSelfDelete
	}

	err := inTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		user, err := s.load(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if user.IsSuperuser {
			if err := s.ensureOtherSuperuser(ctx, txRepo, user.UserID); err != nil {
				return err
			}
		}

		if err := txRepo.User.Delete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			s.logger.Error("delete user failed", zap.String("user_id", id), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actor.UserID))
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, actor Actor, id string) (*dto.ResetPasswordResponse, error) {
	if err := s.authz.Require(actor, CapUserAdmin); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	tempPassword, err := generateTempPassword(tempPasswordLen)
	if err != nil {
		s.logger.Error("generate temp password failed", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = string(hash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("reset password failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("password reset", zap.String("user_id", id), zap.String("by", actor.UserID))
	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── helpers ──────────────────────

var errTaken = errors.New("taken")

func (s *userService) load(ctx context.Context, repo *repository.Repository, id string) (*model.User, error) {
	if !isUUID(id) {
		return nil, ErrUserNotFound
	}
	user, err := repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ensureUnique maps the result of a lookup by a unique column: a hit is errTaken
func (s *userService) ensureUnique(_ *model.User, err error) error {
	if err == nil {
		return errTaken
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	s.logger.Error("uniqueness lookup failed", zap.Error(err))
	return err
}

// ensureOtherSuperuser locks the superuser rows and fails when userID is the only one
func (s *userService) ensureOtherSuperuser(ctx context.Context, repo *repository.Repository, userID string) error {
	ids, err := repo.User.LockSuperusers(ctx)
	if err != nil {
		s.logger.Error("lock superusers failed", zap.Error(err))
		return err
	}
	for _, id := range ids {
		if id != userID {
			return nil
		}
	}
	return ErrLastSuperuser
}

// generateTempPassword random password with at least one letter and one digit.
// Look-alike characters (l, o, I, O, 0, 1) are left out.
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = tempPasswordLen
	}

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}
