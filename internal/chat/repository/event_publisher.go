package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"course_chat_service/internal/chat/domain"
	"course_chat_service/pkg/database"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

// EventPublisher message lifecycle event sink
type EventPublisher interface {
	Publish(ctx context.Context, event domain.MessageEvent) error
	Close() error
}

// CourseChannel redis channel of one course's events
func CourseChannel(courseID string) string {
	return "chat:course:" + courseID
}

type noopPublisher struct{}

// NewNoopPublisher publisher used when no sink is configured
func NewNoopPublisher() EventPublisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, domain.MessageEvent) error { return nil }
func (noopPublisher) Close() error                                      { return nil }

type amqpPublisher struct {
	rabbit   database.RabbitRepo
	exchange string
}

// NewAMQPPublisher publish to a topic exchange, routing key is the event type
func NewAMQPPublisher(rabbit database.RabbitRepo, exchange string) EventPublisher {
	return &amqpPublisher{rabbit: rabbit, exchange: exchange}
}

func (p *amqpPublisher) Publish(_ context.Context, event domain.MessageEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rabbit.Publish(p.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	})
}

func (p *amqpPublisher) Close() error { return p.rabbit.Close() }

// KafkaWriter the subset of *kafka.Writer used here
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer KafkaWriter
}

// NewKafkaPublisher publish keyed by course id so a course stays ordered in one partition
func NewKafkaPublisher(writer KafkaWriter) EventPublisher {
	return &kafkaPublisher{writer: writer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event domain.MessageEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Message.CourseID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	})
}

func (p *kafkaPublisher) Close() error { return p.writer.Close() }

// RedisPubSub publish events on CourseChannel
type RedisPubSub struct {
	client redis.UniversalClient
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client redis.UniversalClient) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish 將 event 序列化後，發布到課程 channel
func (r *RedisPubSub) Publish(ctx context.Context, event domain.MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, CourseChannel(event.Message.CourseID), data).Err()
}

// Close the client is shared with the session store and closed by its owner
func (r *RedisPubSub) Close() error { return nil }
