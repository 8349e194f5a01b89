package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DRegan-dev/downward/config"
	"github.com/DRegan-dev/downward/internal/dto"
	"github.com/DRegan-dev/downward/internal/model"
	"github.com/DRegan-dev/downward/internal/repository"
	"github.com/DRegan-dev/downward/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrInvalidToken       = errors.New("invalid token")
)

// TokenBlacklist revoked token ids
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService identity provider
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout revokes the access token jti until it would have expired anyway
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	// EnsureSuperuser creates the bootstrap superuser, or promotes an existing
	// account with that username
	EnsureSuperuser(ctx context.Context, admin config.BootstrapAdmin) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist // nil when Redis is unavailable
	logger    *zap.Logger
}

// NewAuthService creates an AuthService. blacklist may be nil.
func NewAuthService(repo *repository.Repository, jwtMgr *jwt.Manager, blacklist TokenBlacklist, logger *zap.Logger) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lookup username failed", zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("lookup email failed", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.UserID), zap.String("username", username))
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user, req.RememberMe)
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("blacklist lookup failed", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, err
	}

	resp, err := s.issueTokens(user, claims.RememberMe)
	if err != nil {
		return nil, err
	}

	// rotate: the presented refresh token cannot be used twice
	if s.blacklist != nil && claims.ExpiresAt != nil {
		if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Warn("revoke refresh token failed", zap.Error(err))
		}
	}
	return resp, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("revoke access token failed", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── EnsureSuperuser ──────────────────────

func (s *authService) EnsureSuperuser(ctx context.Context, admin config.BootstrapAdmin) error {
	if !admin.Enabled() {
		return nil
	}

	user, err := s.repo.User.GetByUsername(ctx, admin.Username)
	switch {
	case err == nil:
		if user.IsSuperuser {
			return nil
		}
		user.IsSuperuser = true
		if err := s.repo.User.Update(ctx, user); err != nil {
			s.logger.Error("promote superuser failed", zap.Error(err))
			return err
		}
		s.logger.Info("existing user promoted to superuser", zap.String("username", admin.Username))
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("lookup bootstrap user failed", zap.Error(err))
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	email := admin.Email
	if email == "" {
		email = admin.Username + "@localhost"
	}
	user = &model.User{
		Username:     admin.Username,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		IsSuperuser:  true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("create superuser failed", zap.Error(err))
		return err
	}
	s.logger.Info("bootstrap superuser created", zap.String("username", admin.Username))
	return nil
}

// ── helpers ──

func (s *authService) issueTokens(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	id := jwt.Identity{
		UserID:      user.UserID,
		Username:    user.Username,
		IsSuperuser: user.IsSuperuser,
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(id)
	if err != nil {
		s.logger.Error("sign access token failed", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(id, rememberMe)
	if err != nil {
		s.logger.Error("sign refresh token failed", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}
