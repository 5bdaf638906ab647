package handlers

import (
	"course_chat_service/internal/chat/app"
	"course_chat_service/internal/chat/domain"
	"course_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler 課程訊息與偏好設定的 HTTP 入口
type ChatHandler struct {
	gateway app.MessageGateway
}

// NewChatHandler 建構 ChatHandler
func NewChatHandler(gateway app.MessageGateway) *ChatHandler {
	return &ChatHandler{gateway: gateway}
}

// CreateMessageRequest body of POST /api/messages. UserID/DisplayName are
// only honoured in shared identity mode.
type CreateMessageRequest struct {
	CourseID    string `json:"courseId"`
	Text        string `json:"text"`
	UserID      string `json:"userId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// UpdateMessageRequest body of PUT /api/messages/:messageId
type UpdateMessageRequest struct {
	domain.MessagePatch
	UserID string `json:"userId,omitempty"`
}

// PreferenceRequest body of POST /api/preferences
type PreferenceRequest struct {
	SelectedCourse string `json:"selectedCourse"`
	UserID         string `json:"userId,omitempty"`
}

// author 依 identity mode 決定呼叫者
func (h *ChatHandler) author(c *fiber.Ctx, supplied domain.Author) domain.Author {
	switch h.gateway.Config().IdentityMode {
	case app.IdentityAnonymous:
		return domain.Anonymous()
	case app.IdentityShared:
		if supplied.ID != "" {
			if supplied.DisplayName == "" {
				supplied.DisplayName = supplied.ID
			}
			return supplied
		}
	}
	if id, ok := middlewares.CurrentIdentity(c); ok {
		return domain.Author{ID: id.MemberID, DisplayName: id.DisplayName}
	}
	return domain.Anonymous()
}

// ListMessages
// @Summary List course messages
// @Description Messages of a course, oldest first. A welcome message is returned while the store is unreachable.
// @Tags Messages
// @Produce json
// @Param courseId path string true "Course id"
// @Success 200 {array} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/messages/{courseId} [get]
func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	msgs, err := h.gateway.ListMessages(c.UserContext(), c.Params("courseId"))
	if err != nil {
		return respondError(c, err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return c.JSON(msgs)
}

// CreateMessage
// @Summary Post a message
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body CreateMessageRequest true "message"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/messages [post]
func (h *ChatHandler) CreateMessage(c *fiber.Ctx) error {
	var req CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	author := h.author(c, domain.Author{ID: req.UserID, DisplayName: req.DisplayName})
	msg, err := h.gateway.CreateMessage(c.UserContext(), req.CourseID, req.Text, author)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// UpdateMessage
// @Summary Edit or soft delete an own message
// @Tags Messages
// @Accept json
// @Produce json
// @Param messageId path string true "Message id"
// @Param request body UpdateMessageRequest true "patch"
// @Success 200 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/messages/{messageId} [put]
func (h *ChatHandler) UpdateMessage(c *fiber.Ctx) error {
	var req UpdateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	caller := h.author(c, domain.Author{ID: req.UserID})
	msg, err := h.gateway.UpdateMessage(c.UserContext(), c.Params("messageId"), req.MessagePatch, caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}

// DeleteMessage
// @Summary Soft delete an own message
// @Tags Messages
// @Produce json
// @Param messageId path string true "Message id"
// @Param userId query string false "Caller (shared identity mode)"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/messages/{messageId} [delete]
func (h *ChatHandler) DeleteMessage(c *fiber.Ctx) error {
	caller := h.author(c, domain.Author{ID: c.Query("userId")})
	if err := h.gateway.DeleteMessage(c.UserContext(), c.Params("messageId"), caller); err != nil {
		return respondError(c, err)
	}
	return c.JSON(SuccessResponse{Success: true})
}

// GetPreference
// @Summary Selected course of a user
// @Tags Preferences
// @Produce json
// @Param userId path string false "User id (shared identity mode)"
// @Success 200 {object} domain.Preference
// @Failure 401 {object} ErrorResponse
// @Router /api/preferences/{userId} [get]
func (h *ChatHandler) GetPreference(c *fiber.Ctx) error {
	user := h.author(c, domain.Author{ID: c.Params("userId")})
	return c.JSON(h.gateway.GetPreference(c.UserContext(), user.ID))
}

// SetPreference
// @Summary Store the selected course
// @Tags Preferences
// @Accept json
// @Produce json
// @Param request body PreferenceRequest true "preference"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/preferences [post]
func (h *ChatHandler) SetPreference(c *fiber.Ctx) error {
	var req PreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	user := h.author(c, domain.Author{ID: req.UserID})
	if err := h.gateway.SetPreference(c.UserContext(), user.ID, req.SelectedCourse); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(SuccessResponse{Success: true})
}

// Courses
// @Summary Course catalog
// @Tags Courses
// @Produce json
// @Success 200 {array} domain.Course
// @Router /api/courses [get]
func (h *ChatHandler) Courses(c *fiber.Ctx) error {
	return c.JSON(h.gateway.Courses())
}
