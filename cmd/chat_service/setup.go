package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	chatapp "course_chat_service/internal/chat/app"
	chatdomain "course_chat_service/internal/chat/domain"
	chatrepo "course_chat_service/internal/chat/repository"
	"course_chat_service/pkg/config"
	"course_chat_service/pkg/database"
	"course_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// mongoURI uri wins, otherwise built from host/port/credentials
func mongoURI(c config.DatabaseConfig) string {
	if c.URI != "" {
		return c.URI
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 27017
	}
	if c.User == "" {
		return fmt.Sprintf("mongodb://%s:%d", host, port)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%d",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), host, port)
}

// redactURI hide the password before logging
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "[invalid uri]"
	}
	return u.Redacted()
}

func gatewayConfig(c config.GatewayConfig) chatapp.GatewayConfig {
	return chatapp.GatewayConfig{
		RequireAuth:        c.RequireAuth,
		IdentityMode:       chatapp.IdentityMode(strings.ToLower(c.IdentityMode)),
		PersistPreferences: c.PersistPreferences,
		DefaultCourse:      c.DefaultCourse,
	}
}

// courses configured catalog, built-in one when empty
func courses(cs []config.CourseConfig) []chatdomain.Course {
	if len(cs) == 0 {
		return chatdomain.DefaultCourses()
	}
	out := make([]chatdomain.Course, 0, len(cs))
	for _, c := range cs {
		if c.ID == "" {
			continue
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		out = append(out, chatdomain.Course{
			ID:   c.ID,
			Name: name,
			Lecturer: chatdomain.Lecturer{
				Name:        c.Lecturer,
				Email:       c.Email,
				Phone:       c.Phone,
				OfficeHours: c.OfficeHours,
			},
		})
	}
	return out
}

// newEventPublisher message event sink selected by driver
func newEventPublisher(ctx context.Context, c config.EventsConfig, redisClient redis.UniversalClient) (chatrepo.EventPublisher, error) {
	retryInterval := time.Duration(c.RetryInterval) * time.Second

	switch strings.ToLower(c.Driver) {
	case "", "none":
		return chatrepo.NewNoopPublisher(), nil
	case "redis":
		return chatrepo.NewRedisPubSub(redisClient), nil
	case "amqp", "rabbitmq":
		conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
			ConnectStr:    c.URL,
			RetryCount:    c.RetryCount,
			RetryInterval: retryInterval,
		})
		if err != nil {
			return nil, err
		}
		ch, err := database.OpenExchange(conn, c.Exchange)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return chatrepo.NewAMQPPublisher(database.NewRabbitRepository(conn, ch), c.Exchange), nil
	case "kafka":
		writer, err := database.NewKafkaWriterWithRetry(ctx, database.KafkaConnection{
			Brokers:       c.Brokers,
			Topic:         c.Topic,
			RetryCount:    c.RetryCount,
			RetryInterval: retryInterval,
		})
		if err != nil {
			return nil, err
		}
		return chatrepo.NewKafkaPublisher(writer), nil
	default:
		logger.Log.Warn("unknown events driver, events disabled", zap.String("driver", c.Driver))
		return chatrepo.NewNoopPublisher(), nil
	}
}
