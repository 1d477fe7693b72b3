package service

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"stokhub/internal/apperrors"
	"stokhub/internal/model"
	"stokhub/internal/repository"
	"stokhub/pkg/jwt"
	"stokhub/pkg/redis"
)

const refreshKeyPrefix = "refresh:"

type UserRepository interface {
	SelectUserByCode(ctx context.Context, ext repository.RepoExtension, userCode string) (*model.User, error)
	SelectUserByID(ctx context.Context, ext repository.RepoExtension, id int64) (*model.User, error)
}

// AuthService issues the identity tokens the push gateway trusts. The
// subeIds claim it encodes is the sole source of tenant-group
// membership at connect time.
type AuthService struct {
	log             *zap.Logger
	publicKey       *ecdsa.PublicKey
	privateKey      *ecdsa.PrivateKey
	userRepo        UserRepository
	rdb             redis.Redis
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

func NewAuthService(
	log *zap.Logger,
	publicKey *ecdsa.PublicKey,
	privateKey *ecdsa.PrivateKey,
	userRepo UserRepository,
	rdb redis.Redis,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) *AuthService {
	return &AuthService{
		log:             log,
		publicKey:       publicKey,
		privateKey:      privateKey,
		userRepo:        userRepo,
		rdb:             rdb,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

func (s *AuthService) Login(ctx context.Context, userCode, password string) (*model.LoginResponse, error) {
	user, err := s.userRepo.SelectUserByCode(ctx, nil, userCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserDoesNotExist) {
			return nil, apperrors.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to select user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.Aktif {
		return nil, apperrors.ErrUserIsInactive
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the refresh token: the presented one is consumed and
// a fresh pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.LoginResponse, error) {
	key := refreshKeyPrefix + refreshToken

	rawID, err := s.rdb.Client().Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, apperrors.ErrRefreshTokenExpired
		}

		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if err := s.rdb.Client().Del(ctx, key).Err(); err != nil {
		return nil, fmt.Errorf("failed to delete refresh token: %w", err)
	}

	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored user id: %w", err)
	}

	user, err := s.userRepo.SelectUserByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}

	if !user.Aktif {
		return nil, apperrors.ErrUserIsInactive
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.SelectUserByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}

	return user, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *model.User) (*model.LoginResponse, error) {
	expiresAt := time.Now().UTC().Add(s.accessTokenTTL)

	accessToken, err := jwt.NewToken(s.privateKey, s.accessTokenTTL,
		jwt.WithClaim(model.UserIDKey, strconv.FormatInt(user.ID, 10)),
		jwt.WithClaim(model.UserCodeKey, user.UserCode),
		jwt.WithClaim(model.UserNameKey, user.Description),
		jwt.WithClaim(model.UserAdminKey, user.Admin),
		jwt.WithClaim(model.UserSubeIDsKey, user.SubeIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken := uuid.NewString()

	if err := s.rdb.Client().Set(
		ctx,
		refreshKeyPrefix+refreshToken,
		strconv.FormatInt(user.ID, 10),
		s.refreshTokenTTL,
	).Err(); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.log.Info("User logged in",
		zap.String("user_code", user.UserCode),
		zap.Int64("user_id", user.ID),
	)

	return &model.LoginResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
