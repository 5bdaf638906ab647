package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"course_chat_service/internal/member/domain"
	"course_chat_service/internal/member/repository"
	"course_chat_service/pkg/database"
	errprocess "course_chat_service/pkg/err"
	"course_chat_service/pkg/logger"
	token "course_chat_service/pkg/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisRepo 針對 MemberSession 的 Mock
type MockRedisRepo struct {
	mock.Mock
}

func (m *MockRedisRepo) Set(ctx context.Context, key string, value domain.MemberSession, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockRedisRepo) Get(ctx context.Context, key string) (domain.MemberSession, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(domain.MemberSession), args.Error(1)
	}
	return domain.MemberSession{}, args.Error(1)
}

func (m *MockRedisRepo) Del(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockRedisRepo) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	return m.Called(ctx, key, ttl).Error(0)
}

func (m *MockRedisRepo) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func testMembers(t *testing.T) repository.MemberRepository {
	t.Helper()
	repo, err := repository.NewMemberRepository([]domain.Member{
		{ID: "user1", Username: "user1", Password: "password1", DisplayName: "User One"},
	})
	require.NoError(t, err)
	return repo
}

func newRedisSessions(t *testing.T) (*miniredis.Miniredis, database.RedisRepository[domain.MemberSession]) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := database.NewRedisClient(context.Background(), database.RedisConnection{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, database.NewRedisRepository[domain.MemberSession](client, "session:")
}

func TestMemberUseCase_LoginAuthenticateLogout(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	mr, sessions := newRedisSessions(t)

	uc := NewMemberUseCase(testMembers(t), 30*time.Minute, sessions, "chat_service")

	tok, session, err := uc.Login(ctx, "user1", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	assert.Equal(t, "User One", session.DisplayName)
	assert.True(t, mr.Exists("session:"+session.SessionID))
	assert.Equal(t, 30*time.Minute, mr.TTL("session:"+session.SessionID))

	got, err := uc.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "user1", got.MemberID)

	require.NoError(t, uc.Logout(ctx, tok))
	_, err = uc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, errprocess.ErrUnauthorized)
}

func TestMemberUseCase_LoginRejected(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	_, sessions := newRedisSessions(t)
	uc := NewMemberUseCase(testMembers(t), time.Hour, sessions, "chat_service")

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := uc.Login(ctx, "user1", "nope")
		assert.ErrorIs(t, err, errprocess.ErrUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := uc.Login(ctx, "ghost", "password1")
		assert.ErrorIs(t, err, errprocess.ErrUnauthorized)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, _, err := uc.Login(ctx, "", "")
		assert.ErrorIs(t, err, errprocess.ErrValidation)
	})
}

func TestMemberUseCase_SessionExpiry(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	mr, sessions := newRedisSessions(t)
	uc := NewMemberUseCase(testMembers(t), time.Minute, sessions, "chat_service")

	tok, _, err := uc.Login(ctx, "user1", "password1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = uc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, errprocess.ErrUnauthorized)
}

func TestMemberUseCase_RedisFailure(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()
	mockRedis := new(MockRedisRepo)
	uc := NewMemberUseCase(testMembers(t), time.Hour, mockRedis, "chat_service")

	mockRedis.On("Set", ctx, mock.Anything, mock.Anything, time.Hour).Return(errors.New("redis down")).Once()
	_, _, err := uc.Login(ctx, "user1", "password1")
	assert.Error(t, err)

	tok, err := token.GenerateJWT("user1", string(token.RoleMember), "sid", "chat_service", time.Hour)
	require.NoError(t, err)
	mockRedis.On("Get", ctx, "sid").Return(nil, errors.New("redis down")).Once()
	_, err = uc.Authenticate(ctx, tok)
	assert.ErrorIs(t, err, errprocess.ErrUnauthorized)

	mockRedis.AssertExpectations(t)
}

func TestMemberUseCase_LogoutInvalidToken(t *testing.T) {
	logger.SetNewNop()
	mockRedis := new(MockRedisRepo)
	uc := NewMemberUseCase(testMembers(t), time.Hour, mockRedis, "chat_service")

	assert.NoError(t, uc.Logout(context.Background(), "garbage"))
	mockRedis.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
}
