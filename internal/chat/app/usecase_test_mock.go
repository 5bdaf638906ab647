package app

import (
	"context"

	"course_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// FindByCourse mock find messages of a course
func (m *MockMessageRepository) FindByCourse(ctx context.Context, courseID string) ([]domain.Message, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID mock find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// Save mock save message
func (m *MockMessageRepository) Save(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockPreferenceRepository Mock PreferenceRepository
type MockPreferenceRepository struct {
	mock.Mock
}

// FindByUser mock find preference
func (m *MockPreferenceRepository) FindByUser(ctx context.Context, userID string) (*domain.Preference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Preference), args.Error(1)
	}
	return nil, args.Error(1)
}

// Upsert mock upsert preference
func (m *MockPreferenceRepository) Upsert(ctx context.Context, pref domain.Preference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

// MockEventPublisher Mock EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// Publish mock publish event
func (m *MockEventPublisher) Publish(ctx context.Context, event domain.MessageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// Close mock close
func (m *MockEventPublisher) Close() error {
	return m.Called().Error(0)
}
