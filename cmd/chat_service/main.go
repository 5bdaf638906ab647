package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "course_chat_service/cmd/chat_service/docs" // 引入生成的 Swagger 文档
	"course_chat_service/internal/api/handlers"
	"course_chat_service/internal/api/router"
	chatapp "course_chat_service/internal/chat/app"
	chatrepo "course_chat_service/internal/chat/repository"
	memberapp "course_chat_service/internal/member/app"
	memberdomain "course_chat_service/internal/member/domain"
	memberrepo "course_chat_service/internal/member/repository"
	"course_chat_service/pkg/config"
	"course_chat_service/pkg/database"
	"course_chat_service/pkg/logger"
	"course_chat_service/pkg/observability"
	"course_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()
	if config.IsLocal() {
		logger.Log.SetDebugMode(true)
	}
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath, config.ChatDefaults)
	startedAt := time.Now().UTC()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Mongo (訊息與偏好設定), 連不上時仍啟動並回傳 fallback
	uri := mongoURI(cfg.MongoSQL)
	mongoConn := database.Connection{
		ConnectStr:    uri,
		RetryCount:    cfg.MongoSQL.RetryCount,
		RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval) * time.Second,
		Timeout:       time.Duration(cfg.MongoSQL.TimeoutMS) * time.Millisecond,
	}
	mongo, err := database.NewMongoDB(ctx, mongoConn, cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Error("mongoDB unreachable, serving fallback data until it is back",
			zap.String("address", redactURI(uri)),
			zap.Error(err))
		mongo, err = database.NewLazyMongoDB(mongoConn, cfg.MongoSQL.Database)
		if err != nil {
			logger.Log.Fatal("invalid mongoDB settings", zap.Error(err))
		}
	} else {
		if err := chatrepo.EnsureMessageIndexes(ctx, mongo.Database); err != nil {
			logger.Log.Warn("create message indexes", zap.Error(err))
		}
		if err := chatrepo.EnsurePreferenceIndexes(ctx, mongo.Database); err != nil {
			logger.Log.Warn("create preference indexes", zap.Error(err))
		}
	}
	defer mongo.Close(context.Background())

	// 2. Redis (session)
	redisClient, err := database.NewRedisClient(ctx, database.RedisConnection{
		Addr:          cfg.Redis.Addr,
		MasterName:    cfg.Redis.MasterName,
		SentinelAddrs: cfg.Redis.SentinelAddrs,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.RedisDB,
	})
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	defer redisClient.Close()

	// 3. member
	token.SetSecret(cfg.JWTSecret)
	members, err := memberrepo.NewFileMemberRepository(cfg.UsersFile)
	if err != nil {
		logger.Log.Fatal("load users file", zap.String("path", cfg.UsersFile), zap.Error(err))
	}
	sessions := database.NewRedisRepository[memberdomain.MemberSession](redisClient, "session:")
	memberUC := memberapp.NewMemberUseCase(members, cfg.SessionTTL, sessions, config.EnvConfig.ChatService)

	// 4. message events
	publisher, err := newEventPublisher(ctx, cfg.Events, redisClient)
	if err != nil {
		logger.Log.Fatal("connect event sink", zap.String("driver", cfg.Events.Driver), zap.Error(err))
	}
	defer publisher.Close()

	// 5. gateway
	gwCfg := gatewayConfig(cfg.Gateway)
	gateway := chatapp.NewMessageGateway(
		chatrepo.NewMongoMessageRepository(mongo.Database),
		chatrepo.NewMongoPreferenceRepository(mongo.Database),
		publisher,
		chatapp.NewFallbackPolicy(startedAt, gwCfg.DefaultCourse),
		gwCfg,
		courses(cfg.Courses),
	)

	// 6. Fiber
	r := fiber.New(fiber.Config{AppName: config.EnvConfig.ChatService})
	if err := os.MkdirAll(config.EnvConfig.ChatServiceLogPath, 0755); err != nil {
		log.Fatalf("Failed to create log dir: %v", err)
	}
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	router.RegisterRoutes(r,
		handlers.NewChatHandler(gateway),
		handlers.NewMemberHandler(memberUC, config.IsProduction()),
		router.Options{RequireAuth: gwCfg.RequireAuth, StaticDir: cfg.StaticDir},
	)

	observability.StartPprof(cfg.PprofAddr)

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down")
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Log.Info("Chat Service listening",
		zap.String("port", cfg.Port),
		zap.String("identity_mode", string(gwCfg.IdentityMode)),
		zap.Bool("require_auth", gwCfg.RequireAuth),
		zap.String("events", cfg.Events.Driver))
	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
