package app

import (
	"context"
	"sync"

	"course_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockAPI Mock API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListMessages(ctx context.Context, courseID string) ([]domain.Message, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPI) CreateMessage(ctx context.Context, courseID, text string) (domain.Message, error) {
	args := m.Called(ctx, courseID, text)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockAPI) UpdateMessage(ctx context.Context, messageID string, patch domain.MessagePatch) (domain.Message, error) {
	args := m.Called(ctx, messageID, patch)
	return args.Get(0).(domain.Message), args.Error(1)
}

func (m *MockAPI) DeleteMessage(ctx context.Context, messageID string) error {
	return m.Called(ctx, messageID).Error(0)
}

func (m *MockAPI) GetPreference(ctx context.Context) (domain.Preference, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Preference), args.Error(1)
}

func (m *MockAPI) SetPreference(ctx context.Context, course string) error {
	return m.Called(ctx, course).Error(0)
}

// fakeView records what the CourseView asked it to do
type fakeView struct {
	mu            sync.Mutex
	frames        []Frame
	scroll        Scroll
	scrollTops    []int
	bottomScrolls int
	notices       []string
	confirm       bool
	cleared       int
	loading       []bool
}

func (f *fakeView) Render(fr Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
}

func (f *fakeView) Scroll() Scroll {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scroll
}

func (f *fakeView) SetScrollTop(top int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrollTops = append(f.scrollTops, top)
}

func (f *fakeView) ScrollToBottom() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bottomScrolls++
}

func (f *fakeView) SetLoading(loading bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = append(f.loading, loading)
}

func (f *fakeView) Notify(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, msg)
}

func (f *fakeView) Confirm(string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirm
}

func (f *fakeView) ClearInput() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeView) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeView) lastFrame() Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return Frame{}
	}
	return f.frames[len(f.frames)-1]
}
