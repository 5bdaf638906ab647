package app

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"course_chat_service/internal/chat/domain"
	errprocess "course_chat_service/pkg/err"
	"course_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

var (
	since   = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	user1   = domain.Author{ID: "user1", DisplayName: "User One"}
	user2   = domain.Author{ID: "user2", DisplayName: "User Two"}
	errDown = errprocess.StoreUnavailable("find", errors.New("server selection timeout"))
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

type gatewayFixture struct {
	msgRepo  *MockMessageRepository
	prefRepo *MockPreferenceRepository
	pub      *MockEventPublisher
	gw       *messageGateway
}

func newFixture(cfg GatewayConfig) *gatewayFixture {
	f := &gatewayFixture{
		msgRepo:  new(MockMessageRepository),
		prefRepo: new(MockPreferenceRepository),
		pub:      new(MockEventPublisher),
	}
	gw := NewMessageGateway(f.msgRepo, f.prefRepo, f.pub, NewFallbackPolicy(since, cfg.DefaultCourse), cfg, nil).(*messageGateway)
	gw.newID = func() string { return "generated-id" }
	f.gw = gw
	return f
}

func defaultConfig() GatewayConfig {
	return GatewayConfig{RequireAuth: true, IdentityMode: IdentitySession, PersistPreferences: true}
}

func TestListMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted ascending", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByCourse", ctx, "mathematik").Return([]domain.Message{
			{ID: "b", Timestamp: since.Add(time.Minute)},
			{ID: "a", Timestamp: since},
		}, nil).Once()

		got, err := f.gw.ListMessages(ctx, "mathematik")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].ID)
		assert.Equal(t, "b", got[1].ID)
	})

	t.Run("store unavailable returns welcome message", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByCourse", ctx, "betriebssysteme").Return(nil, errDown).Twice()

		first, err := f.gw.ListMessages(ctx, "betriebssysteme")
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, "Welcome to the chat for betriebssysteme", first[0].Text)
		assert.Equal(t, domain.SystemID, first[0].AuthorID)
		assert.Equal(t, domain.SystemName, first[0].AuthorDisplayName)
		assert.False(t, first[0].IsDeleted)

		second, err := f.gw.ListMessages(ctx, "betriebssysteme")
		require.NoError(t, err)
		assert.Equal(t, first, second, "fallback is deterministic")
	})

	t.Run("empty course", func(t *testing.T) {
		f := newFixture(defaultConfig())
		_, err := f.gw.ListMessages(ctx, "")
		assert.ErrorIs(t, err, errprocess.ErrValidation)
	})
}

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		f := newFixture(defaultConfig())
		_, err := f.gw.CreateMessage(ctx, "mathematik", "   ", user1)
		assert.ErrorIs(t, err, errprocess.ErrValidation)
		assert.EqualError(t, err, "CourseId and text are required")

		_, err = f.gw.CreateMessage(ctx, "", "Hello", user1)
		assert.ErrorIs(t, err, errprocess.ErrValidation)
		f.msgRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("persisted and published", func(t *testing.T) {
		f := newFixture(defaultConfig())
		before := time.Now().UTC()
		f.msgRepo.On("Insert", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Once()
		f.pub.On("Publish", ctx, mock.MatchedBy(func(e domain.MessageEvent) bool {
			return e.Type == domain.EventMessageCreated && e.Message.ID == "generated-id" && e.ActorID == "user1"
		})).Return(nil).Once()

		msg, err := f.gw.CreateMessage(ctx, "mathematik", "Hello", user1)
		require.NoError(t, err)
		assert.Equal(t, "generated-id", msg.ID)
		assert.Equal(t, "mathematik", msg.CourseID)
		assert.Equal(t, "Hello", msg.Text)
		assert.Equal(t, "user1", msg.AuthorID)
		assert.Equal(t, "User One", msg.AuthorDisplayName)
		assert.False(t, msg.IsDeleted)
		assert.Nil(t, msg.OriginalText)
		assert.False(t, msg.Timestamp.Before(before))

		f.msgRepo.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})

	t.Run("store failure still acknowledged", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("Insert", ctx, mock.Anything).Return(errDown).Once()

		msg, err := f.gw.CreateMessage(ctx, "mathematik", "Hello", user1)
		require.NoError(t, err)
		assert.Equal(t, "Hello", msg.Text)
		f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure ignored", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("Insert", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("Publish", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		_, err := f.gw.CreateMessage(ctx, "mathematik", "Hello", user1)
		assert.NoError(t, err)
	})

	t.Run("no author means anonymous", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("Insert", ctx, mock.Anything).Return(nil).Once()
		f.pub.On("Publish", ctx, mock.Anything).Return(nil).Once()

		msg, err := f.gw.CreateMessage(ctx, "mathematik", "Hello", domain.Author{})
		require.NoError(t, err)
		assert.Equal(t, domain.AnonymousID, msg.AuthorID)
	})
}

func storedMessage() *domain.Message {
	return &domain.Message{
		ID:                "m1",
		CourseID:          "mathematik",
		Text:              "Hello",
		AuthorID:          "user1",
		AuthorDisplayName: "User One",
		Timestamp:         since,
	}
}

func TestUpdateMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("owner edits text", func(t *testing.T) {
		f := newFixture(defaultConfig())
		after := storedMessage()
		after.Text = "Hello, edited"

		f.msgRepo.On("FindByID", ctx, "m1").Return(storedMessage(), nil).Once()
		f.msgRepo.On("Save", ctx, mock.MatchedBy(func(m *domain.Message) bool {
			return m.Text == "Hello, edited" && !m.IsDeleted
		})).Return(nil).Once()
		f.msgRepo.On("FindByID", ctx, "m1").Return(after, nil).Once()
		f.pub.On("Publish", ctx, mock.MatchedBy(func(e domain.MessageEvent) bool {
			return e.Type == domain.EventMessageUpdated
		})).Return(nil).Once()

		got, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{Text: strPtr("Hello, edited")}, user1)
		require.NoError(t, err)
		assert.Equal(t, "Hello, edited", got.Text)
		assert.Equal(t, since, got.Timestamp)
		f.msgRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "missing").Return(nil, nil).Once()

		_, err := f.gw.UpdateMessage(ctx, "missing", domain.MessagePatch{Text: strPtr("x")}, user1)
		assert.ErrorIs(t, err, errprocess.ErrNotFound)
	})

	t.Run("forbidden", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "m1").Return(storedMessage(), nil).Once()

		_, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{Text: strPtr("x")}, user2)
		assert.ErrorIs(t, err, errprocess.ErrForbidden)
		assert.EqualError(t, err, "You can only edit your own messages")
		f.msgRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("store unreachable synthesizes stand-in", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "m1").Return(nil, errDown).Once()

		got, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{Text: strPtr("new text")}, user2)
		require.NoError(t, err)
		assert.Equal(t, "m1", got.ID)
		assert.Equal(t, "user2", got.AuthorID)
		assert.Equal(t, "new text", got.Text)
	})

	t.Run("write failure returns reconstruction", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "m1").Return(storedMessage(), nil).Once()
		f.msgRepo.On("Save", ctx, mock.Anything).Return(errprocess.StoreUnavailable("update", errors.New("timeout"))).Once()

		got, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{Text: strPtr("patched")}, user1)
		require.NoError(t, err)
		assert.Equal(t, "patched", got.Text)
		assert.Equal(t, "mathematik", got.CourseID)
		f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("deleted message cannot be edited or restored", func(t *testing.T) {
		f := newFixture(defaultConfig())
		deleted := storedMessage()
		deleted.SoftDelete()
		f.msgRepo.On("FindByID", ctx, "m1").Return(deleted, nil).Twice()

		_, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{Text: strPtr("again")}, user1)
		assert.ErrorIs(t, err, errprocess.ErrValidation)

		_, err = f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{IsDeleted: boolPtr(false)}, user1)
		assert.ErrorIs(t, err, errprocess.ErrValidation)
	})

	t.Run("originalText only patch is rejected", func(t *testing.T) {
		f := newFixture(defaultConfig())

		_, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{OriginalText: strPtr("forged")}, user1)
		assert.ErrorIs(t, err, errprocess.ErrValidation)
		f.msgRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

		f.msgRepo.On("FindByID", ctx, "m1").Return(storedMessage(), nil).Once()
		f.msgRepo.On("Save", ctx, mock.MatchedBy(func(m *domain.Message) bool {
			return m.IsDeleted && *m.OriginalText == "Hello"
		})).Return(nil).Once()
		f.pub.On("Publish", ctx, mock.Anything).Return(nil).Once()

		require.NoError(t, f.gw.DeleteMessage(ctx, "m1", user1))
		f.msgRepo.AssertExpectations(t)
	})

	t.Run("deleting patch keeps the stored text as original", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "m1").Return(storedMessage(), nil).Once()
		f.msgRepo.On("Save", ctx, mock.MatchedBy(func(m *domain.Message) bool {
			return m.IsDeleted && m.Text == domain.DeletedText && *m.OriginalText == "Hello"
		})).Return(nil).Once()
		f.msgRepo.On("FindByID", ctx, "m1").Return(nil, nil).Once()
		f.pub.On("Publish", ctx, mock.MatchedBy(func(e domain.MessageEvent) bool {
			return e.Type == domain.EventMessageDeleted
		})).Return(nil).Once()

		got, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{IsDeleted: boolPtr(true), OriginalText: strPtr("forged")}, user1)
		require.NoError(t, err)
		require.NotNil(t, got.OriginalText)
		assert.Equal(t, "Hello", *got.OriginalText)
		f.msgRepo.AssertExpectations(t)
	})

	t.Run("empty patch or text", func(t *testing.T) {
		f := newFixture(defaultConfig())
		_, err := f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{}, user1)
		assert.ErrorIs(t, err, errprocess.ErrValidation)

		_, err = f.gw.UpdateMessage(ctx, "m1", domain.MessagePatch{Text: strPtr("  ")}, user1)
		assert.ErrorIs(t, err, errprocess.ErrValidation)
	})
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("soft delete keeps original text", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "m1").Return(storedMessage(), nil).Once()
		f.msgRepo.On("Save", ctx, mock.MatchedBy(func(m *domain.Message) bool {
			return m.IsDeleted && m.Text == domain.DeletedText && m.OriginalText != nil && *m.OriginalText == "Hello"
		})).Return(nil).Once()
		f.pub.On("Publish", ctx, mock.MatchedBy(func(e domain.MessageEvent) bool {
			return e.Type == domain.EventMessageDeleted
		})).Return(nil).Once()

		require.NoError(t, f.gw.DeleteMessage(ctx, "m1", user1))
		f.msgRepo.AssertExpectations(t)
		f.pub.AssertExpectations(t)
	})

	t.Run("second delete is idempotent", func(t *testing.T) {
		f := newFixture(defaultConfig())
		deleted := storedMessage()
		deleted.SoftDelete()
		f.msgRepo.On("FindByID", ctx, "m1").Return(deleted, nil).Once()
		f.msgRepo.On("Save", ctx, mock.MatchedBy(func(m *domain.Message) bool {
			return *m.OriginalText == "Hello" && m.Text == domain.DeletedText
		})).Return(nil).Once()

		require.NoError(t, f.gw.DeleteMessage(ctx, "m1", user1))
		f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("forbidden", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "m1").Return(storedMessage(), nil).Once()

		err := f.gw.DeleteMessage(ctx, "m1", user2)
		assert.ErrorIs(t, err, errprocess.ErrForbidden)
		assert.EqualError(t, err, "You can only delete your own messages")
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "missing").Return(nil, nil).Once()

		assert.ErrorIs(t, f.gw.DeleteMessage(ctx, "missing", user1), errprocess.ErrNotFound)
	})

	t.Run("store unreachable acknowledged", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.msgRepo.On("FindByID", ctx, "m1").Return(nil, errDown).Once()

		assert.NoError(t, f.gw.DeleteMessage(ctx, "m1", user2))
		f.msgRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()

	t.Run("stored preference", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.prefRepo.On("FindByUser", ctx, "user1").Return(&domain.Preference{UserID: "user1", SelectedCourse: "betriebssysteme"}, nil).Once()

		assert.Equal(t, "betriebssysteme", f.gw.GetPreference(ctx, "user1").SelectedCourse)
	})

	t.Run("absent or unreachable gives default", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.prefRepo.On("FindByUser", ctx, "user1").Return(nil, nil).Once()
		f.prefRepo.On("FindByUser", ctx, "user2").Return(nil, errDown).Once()

		assert.Equal(t, domain.DefaultCourse, f.gw.GetPreference(ctx, "user1").SelectedCourse)
		assert.Equal(t, domain.DefaultCourse, f.gw.GetPreference(ctx, "user2").SelectedCourse)
	})

	t.Run("set upserts", func(t *testing.T) {
		f := newFixture(defaultConfig())
		f.prefRepo.On("Upsert", ctx, domain.Preference{UserID: "user1", SelectedCourse: "betriebssysteme"}).Return(nil).Once()

		require.NoError(t, f.gw.SetPreference(ctx, "user1", "betriebssysteme"))
		f.prefRepo.AssertExpectations(t)
	})

	t.Run("set validation and store failure", func(t *testing.T) {
		f := newFixture(defaultConfig())
		err := f.gw.SetPreference(ctx, "user1", "")
		assert.ErrorIs(t, err, errprocess.ErrValidation)
		assert.EqualError(t, err, "selectedCourse is required")

		f.prefRepo.On("Upsert", ctx, mock.Anything).Return(errDown).Once()
		assert.NoError(t, f.gw.SetPreference(ctx, "user1", "mathematik"))
	})

	t.Run("persistence disabled", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.PersistPreferences = false
		cfg.DefaultCourse = "betriebssysteme"
		f := newFixture(cfg)

		assert.NoError(t, f.gw.SetPreference(ctx, "user1", "mathematik"))
		assert.Equal(t, "betriebssysteme", f.gw.GetPreference(ctx, "user1").SelectedCourse)
		f.prefRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		f.prefRepo.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
	})
}

func TestGatewayConfigNormalize(t *testing.T) {
	f := newFixture(GatewayConfig{IdentityMode: "bogus"})
	cfg := f.gw.Config()
	assert.Equal(t, IdentitySession, cfg.IdentityMode)
	assert.Equal(t, domain.DefaultCourse, cfg.DefaultCourse)
	assert.Len(t, f.gw.Courses(), 3)
}
