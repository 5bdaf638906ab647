package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"course_chat_service/internal/chat/domain"
	"course_chat_service/internal/chat/repository"
	errprocess "course_chat_service/pkg/err"
	"course_chat_service/pkg/logger"
	"course_chat_service/pkg/observability"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// IdentityMode how the author of a request is determined
type IdentityMode string

const (
	// IdentitySession the logged-in member
	IdentitySession IdentityMode = "session"
	// IdentityShared whatever the caller supplies, anonymous when absent
	IdentityShared IdentityMode = "shared"
	// IdentityAnonymous everyone is anonymous
	IdentityAnonymous IdentityMode = "anonymous"
)

// GatewayConfig gateway behaviour switches
type GatewayConfig struct {
	RequireAuth        bool
	IdentityMode       IdentityMode
	PersistPreferences bool
	DefaultCourse      string
}

func (c GatewayConfig) normalize() GatewayConfig {
	switch c.IdentityMode {
	case IdentitySession, IdentityShared, IdentityAnonymous:
	default:
		c.IdentityMode = IdentitySession
	}
	if c.DefaultCourse == "" {
		c.DefaultCourse = domain.DefaultCourse
	}
	return c
}

// MessageGateway course message and preference operations. Store outages
// never surface as errors; the FallbackPolicy answers instead.
type MessageGateway interface {
	ListMessages(ctx context.Context, courseID string) ([]domain.Message, error)
	CreateMessage(ctx context.Context, courseID, text string, author domain.Author) (domain.Message, error)
	UpdateMessage(ctx context.Context, messageID string, patch domain.MessagePatch, caller domain.Author) (domain.Message, error)
	DeleteMessage(ctx context.Context, messageID string, caller domain.Author) error
	GetPreference(ctx context.Context, userID string) domain.Preference
	SetPreference(ctx context.Context, userID, course string) error
	Courses() []domain.Course
	Config() GatewayConfig
}

type messageGateway struct {
	msgRepo   repository.MessageRepository
	prefRepo  repository.PreferenceRepository
	publisher repository.EventPublisher
	policy    FallbackPolicy
	cfg       GatewayConfig
	courses   []domain.Course
	now       func() time.Time
	newID     func() string
}

// NewMessageGateway 建立 MessageGateway, publisher/policy/courses 可為 nil
func NewMessageGateway(
	msgRepo repository.MessageRepository,
	prefRepo repository.PreferenceRepository,
	publisher repository.EventPublisher,
	policy FallbackPolicy,
	cfg GatewayConfig,
	courses []domain.Course,
) MessageGateway {
	cfg = cfg.normalize()
	if publisher == nil {
		publisher = repository.NewNoopPublisher()
	}
	if policy == nil {
		policy = NewFallbackPolicy(time.Now(), cfg.DefaultCourse)
	}
	if len(courses) == 0 {
		courses = domain.DefaultCourses()
	}
	return &messageGateway{
		msgRepo:   msgRepo,
		prefRepo:  prefRepo,
		publisher: publisher,
		policy:    policy,
		cfg:       cfg,
		courses:   courses,
		now:       time.Now,
		newID:     func() string { return primitive.NewObjectID().Hex() },
	}
}

func (g *messageGateway) Config() GatewayConfig {
	return g.cfg
}

func (g *messageGateway) Courses() []domain.Course {
	out := make([]domain.Course, len(g.courses))
	copy(out, g.courses)
	return out
}

// ListMessages 取得課程訊息, store 不可用時回傳歡迎訊息
func (g *messageGateway) ListMessages(ctx context.Context, courseID string) ([]domain.Message, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, errprocess.Validation("CourseId is required")
	}

	msgs, err := g.msgRepo.FindByCourse(ctx, courseID)
	if err != nil {
		g.fallback("list", err, zap.String("courseId", courseID))
		return g.policy.Messages(courseID), nil
	}

	domain.SortByTimestamp(msgs)
	return msgs, nil
}

// CreateMessage 新增訊息; 寫入失敗仍回傳已建立的訊息
func (g *messageGateway) CreateMessage(ctx context.Context, courseID, text string, author domain.Author) (domain.Message, error) {
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(text) == "" {
		return domain.Message{}, errprocess.Validation("CourseId and text are required")
	}
	if author.ID == "" {
		author = domain.Anonymous()
	}

	msg := domain.Message{
		ID:                g.newID(),
		CourseID:          courseID,
		Text:              text,
		AuthorID:          author.ID,
		AuthorDisplayName: author.DisplayName,
		Timestamp:         g.now().UTC(),
	}

	if err := g.msgRepo.Insert(ctx, &msg); err != nil {
		g.fallback("create", err, zap.String("messageId", msg.ID))
		return msg, nil
	}

	g.publish(ctx, domain.EventMessageCreated, msg, author.ID)
	return msg, nil
}

// UpdateMessage 只有作者可以修改
func (g *messageGateway) UpdateMessage(ctx context.Context, messageID string, patch domain.MessagePatch, caller domain.Author) (domain.Message, error) {
	if messageID == "" {
		return domain.Message{}, errprocess.Validation("Message id is required")
	}
	if patch.Empty() {
		return domain.Message{}, errprocess.Validation("Nothing to update")
	}
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return domain.Message{}, errprocess.Validation("Text must not be empty")
	}

	existing, err := g.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		g.fallback("update", err, zap.String("messageId", messageID))
		text := "Original text"
		if patch.Text != nil {
			text = *patch.Text
		}
		return g.policy.StandIn(messageID, caller, text).Apply(patch), nil
	}
	if existing == nil {
		return domain.Message{}, errprocess.NotFound("Message not found")
	}
	if !existing.OwnedBy(caller.ID) {
		return domain.Message{}, errprocess.Forbidden("You can only edit your own messages")
	}
	if existing.IsDeleted {
		if patch.IsDeleted != nil && !*patch.IsDeleted {
			return domain.Message{}, errprocess.Validation("Deleted messages cannot be restored")
		}
		if patch.Text != nil {
			return domain.Message{}, errprocess.Validation("Deleted messages cannot be edited")
		}
	}

	updated := existing.Apply(patch)
	if err := g.msgRepo.Save(ctx, &updated); err != nil {
		if errors.Is(err, errprocess.ErrNotFound) {
			return domain.Message{}, err
		}
		g.fallback("update", err, zap.String("messageId", messageID))
		return updated, nil
	}

	event := domain.EventMessageUpdated
	if updated.IsDeleted && !existing.IsDeleted {
		event = domain.EventMessageDeleted
	}

	stored, err := g.msgRepo.FindByID(ctx, messageID)
	if err != nil || stored == nil {
		if err != nil {
			g.fallback("update_reread", err, zap.String("messageId", messageID))
		}
		g.publish(ctx, event, updated, caller.ID)
		return updated, nil
	}

	g.publish(ctx, event, *stored, caller.ID)
	return *stored, nil
}

// DeleteMessage soft delete, 只有作者可以刪除
func (g *messageGateway) DeleteMessage(ctx context.Context, messageID string, caller domain.Author) error {
	if messageID == "" {
		return errprocess.Validation("Message id is required")
	}

	existing, err := g.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		g.fallback("delete", err, zap.String("messageId", messageID))
		// the stand-in is owned by caller, so the ownership check passes
		standIn := g.policy.StandIn(messageID, caller, "Message to delete")
		standIn.SoftDelete()
		logger.Log.Debug("delete acknowledged on stand-in", zap.String("messageId", standIn.ID))
		return nil
	}
	if existing == nil {
		return errprocess.NotFound("Message not found")
	}
	if !existing.OwnedBy(caller.ID) {
		return errprocess.Forbidden("You can only delete your own messages")
	}

	wasDeleted := existing.IsDeleted
	existing.SoftDelete()
	if err := g.msgRepo.Save(ctx, existing); err != nil {
		if errors.Is(err, errprocess.ErrNotFound) {
			return err
		}
		g.fallback("delete", err, zap.String("messageId", messageID))
		return nil
	}

	if !wasDeleted {
		g.publish(ctx, domain.EventMessageDeleted, *existing, caller.ID)
	}
	return nil
}

// GetPreference never fails, default course when none is stored
func (g *messageGateway) GetPreference(ctx context.Context, userID string) domain.Preference {
	if !g.cfg.PersistPreferences || g.prefRepo == nil {
		return g.policy.Preference(userID)
	}

	pref, err := g.prefRepo.FindByUser(ctx, userID)
	if err != nil {
		g.fallback("get_preference", err, zap.String("userId", userID))
		return g.policy.Preference(userID)
	}
	if pref == nil || pref.SelectedCourse == "" {
		return g.policy.Preference(userID)
	}
	return *pref
}

// SetPreference upsert, store failures are logged only
func (g *messageGateway) SetPreference(ctx context.Context, userID, course string) error {
	if strings.TrimSpace(course) == "" {
		return errprocess.Validation("selectedCourse is required")
	}
	if userID == "" {
		return errprocess.Validation("userId is required")
	}
	if !g.cfg.PersistPreferences || g.prefRepo == nil {
		return nil
	}

	if err := g.prefRepo.Upsert(ctx, domain.Preference{UserID: userID, SelectedCourse: course}); err != nil {
		g.fallback("set_preference", err, zap.String("userId", userID))
	}
	return nil
}

func (g *messageGateway) fallback(op string, err error, fields ...zap.Field) {
	observability.IncStoreFallback(op)
	logger.Log.Error("store unavailable, using fallback",
		append(fields, zap.String("operation", op), zap.Error(err))...)
}

func (g *messageGateway) publish(ctx context.Context, t domain.EventType, msg domain.Message, actorID string) {
	event := domain.MessageEvent{
		Type:       t,
		Message:    msg,
		ActorID:    actorID,
		OccurredAt: g.now().UTC(),
	}
	if err := g.publisher.Publish(ctx, event); err != nil {
		observability.IncEventPublishError(string(t))
		logger.Log.Warn("publish message event", zap.String("type", string(t)), zap.String("messageId", msg.ID), zap.Error(err))
	}
}
