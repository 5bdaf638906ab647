package router

import (
	"course_chat_service/internal/api/handlers"
	"course_chat_service/pkg/middlewares"
	"course_chat_service/pkg/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Options route level switches
type Options struct {
	// RequireAuth reject chat and preference requests without a session
	RequireAuth bool
	// StaticDir serve client assets from here when set
	StaticDir string
}

// RegisterRoutes 注册路由
// @title Course Chat Service API
// @version 1.0
// @description Course chat messages, preferences and sessions
// @host localhost:3000
// @BasePath /
func RegisterRoutes(app *fiber.App, chatHandler *handlers.ChatHandler, memberHandler *handlers.MemberHandler, opts Options) {
	app.Use(observability.HTTPMetricsMiddleware())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/health", handlers.ConnectCheck)
	app.Post("/debug", handlers.DebugLogFlag)
	app.Get("/metrics", observability.Handler())

	api := app.Group("/api")
	api.Post("/login", memberHandler.Login)
	api.Post("/logout", memberHandler.Logout)
	api.Get("/user", memberHandler.CurrentUser)
	api.Get("/courses", chatHandler.Courses)

	api.Use(middlewares.SessionMiddleware(memberHandler.Authenticate(), opts.RequireAuth))
	api.Get("/messages/:courseId", chatHandler.ListMessages)
	api.Post("/messages", chatHandler.CreateMessage)
	api.Put("/messages/:messageId", chatHandler.UpdateMessage)
	api.Delete("/messages/:messageId", chatHandler.DeleteMessage)
	api.Get("/preferences", chatHandler.GetPreference)
	api.Get("/preferences/:userId", chatHandler.GetPreference)
	api.Post("/preferences", chatHandler.SetPreference)

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}
}
