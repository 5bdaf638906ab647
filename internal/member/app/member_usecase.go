package app

import (
	"context"
	"errors"
	"time"

	"course_chat_service/internal/member/domain"
	"course_chat_service/internal/member/repository"
	"course_chat_service/pkg/database"
	errprocess "course_chat_service/pkg/err"
	"course_chat_service/pkg/logger"
	"course_chat_service/pkg/observability"
	token "course_chat_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	// Login returns the signed session token
	Login(ctx context.Context, username, password string) (string, *domain.MemberSession, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolve a token to a live session
	Authenticate(ctx context.Context, token string) (*domain.MemberSession, error)
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	sessionTTL time.Duration
	redisRepo  database.RedisRepository[domain.MemberSession]
	issuer     string
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	redisRepo database.RedisRepository[domain.MemberSession],
	issuer string,
) MemberUseCase {
	if sessionTTL <= 0 {
		sessionTTL = time.Hour
	}
	return &memberUseCase{
		memberRepo: memberRepo,
		sessionTTL: sessionTTL,
		redisRepo:  redisRepo,
		issuer:     issuer,
	}
}

// Login
func (m *memberUseCase) Login(ctx context.Context, username, password string) (string, *domain.MemberSession, error) {
	if username == "" || password == "" {
		return "", nil, errprocess.Validation("Username and password are required")
	}

	member, err := m.memberRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if member == nil || member.IsPasswordMatch(password) != nil {
		observability.IncLogin("failure")
		logger.Log.Info("login rejected", zap.String("username", username))
		return "", nil, errprocess.Unauthorized("Invalid credentials")
	}

	sessionID := uuid.New().String()
	t, err := token.GenerateJWTFunc(member.ID, string(token.RoleMember), sessionID, m.issuer, m.sessionTTL)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	session := domain.MemberSession{
		SessionID:    sessionID,
		MemberID:     member.ID,
		Username:     member.Username,
		DisplayName:  member.DisplayName,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}
	if err := m.redisRepo.Set(ctx, sessionID, session, m.sessionTTL); err != nil {
		logger.Log.Error("store session", zap.String("member", member.ID), zap.Error(err))
		return "", nil, err
	}

	observability.IncLogin("success")
	logger.Log.Info("login", zap.String("member", member.ID))
	return t, &session, nil
}

// Logout 刪除 session, 已失效的 token 視為成功
func (m *memberUseCase) Logout(ctx context.Context, t string) error {
	claims, err := token.ParseJWTFunc(t)
	if err != nil {
		logger.Log.Debug("logout with invalid token", zap.Error(err))
		return nil
	}
	if err := m.redisRepo.Del(ctx, claims.ID); err != nil {
		logger.Log.Error("logout", zap.String("member", claims.MemberID), zap.Error(err))
		return err
	}
	return nil
}

// Authenticate
func (m *memberUseCase) Authenticate(ctx context.Context, t string) (*domain.MemberSession, error) {
	if t == "" {
		return nil, errprocess.Unauthorized("Not authenticated")
	}
	claims, err := token.ParseJWTFunc(t)
	if err != nil {
		return nil, errprocess.Unauthorized("Not authenticated")
	}

	session, err := m.redisRepo.Get(ctx, claims.ID)
	if err != nil {
		if !errors.Is(err, database.ErrKeyNotFound) {
			logger.Log.Error("load session", zap.String("member", claims.MemberID), zap.Error(err))
		}
		return nil, errprocess.Unauthorized("Not authenticated")
	}
	if session.MemberID != claims.MemberID || session.IsExpired() {
		return nil, errprocess.Unauthorized("Not authenticated")
	}
	return &session, nil
}
