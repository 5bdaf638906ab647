package handlers

import (
	"context"
	"time"

	"course_chat_service/internal/member/app"
	"course_chat_service/internal/member/domain"
	"course_chat_service/pkg/logger"
	"course_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler 处理用户相关的 HTTP 请求
type MemberHandler struct {
	memberUC     app.MemberUseCase
	secureCookie bool
}

// NewMemberHandler 创建新的 MemberHandler
func NewMemberHandler(memberUC app.MemberUseCase, secureCookie bool) *MemberHandler {
	return &MemberHandler{memberUC: memberUC, secureCookie: secureCookie}
}

// LoginRequest body of POST /api/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse body of a successful login
type LoginResponse struct {
	Success bool           `json:"success"`
	User    domain.Profile `json:"user"`
}

// Authenticate adapt the member use case for the session middleware
func (h *MemberHandler) Authenticate() middlewares.AuthFunc {
	return func(ctx context.Context, token string) (middlewares.Identity, error) {
		session, err := h.memberUC.Authenticate(ctx, token)
		if err != nil {
			return middlewares.Identity{}, err
		}
		return middlewares.Identity{MemberID: session.MemberID, DisplayName: session.DisplayName}, nil
	}
}

// Login 用户登录
// @Summary 用户登录
// @Description 用户名和密码登录, 成功后设置 auth_token cookie
// @Tags Members
// @Accept json
// @Produce json
// @Param request body LoginRequest true "用户登录信息"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/login [post]
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	token, session, err := h.memberUC.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiredAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(LoginResponse{Success: true, User: session.Profile()})
}

// Logout 用户登出
// @Summary 用户登出
// @Description 注销用户会话并清除 cookie
// @Tags Members
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/logout [post]
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	if token := middlewares.TokenFromRequest(c); token != "" {
		if err := h.memberUC.Logout(c.UserContext(), token); err != nil {
			return respondError(c, err)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookie,
	})
	return c.JSON(SuccessResponse{Success: true})
}

// CurrentUser 目前登入的用户
// @Summary 目前登入的用户
// @Tags Members
// @Produce json
// @Success 200 {object} domain.Profile
// @Failure 401 {object} ErrorResponse
// @Router /api/user [get]
func (h *MemberHandler) CurrentUser(c *fiber.Ctx) error {
	session, err := h.memberUC.Authenticate(c.UserContext(), middlewares.TokenFromRequest(c))
	if err != nil {
		logger.Log.Debug("current user", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Error: "Not authenticated"})
	}
	return c.JSON(session.Profile())
}
