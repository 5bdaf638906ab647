package repository

import (
	"context"
	"errors"

	"course_chat_service/internal/chat/domain"
	errprocess "course_chat_service/pkg/err"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessagesCollection collection holding course messages
const MessagesCollection = "messages"

// MessageRepository definition course message storage
type MessageRepository interface {
	// FindByCourse all messages of a course, oldest first
	FindByCourse(ctx context.Context, courseID string) ([]domain.Message, error)
	// FindByID nil, nil when absent
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	Insert(ctx context.Context, msg *domain.Message) error
	// Save write back the mutable fields (text, isDeleted, originalText)
	Save(ctx context.Context, msg *domain.Message) error
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection(MessagesCollection),
	}
}

// EnsureMessageIndexes create the lookup indexes, safe to call on every start
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(MessagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "courseId", Value: 1}, {Key: "timestamp", Value: 1}}},
	})
	return err
}

func (r *messageRepository) FindByCourse(ctx context.Context, courseID string) ([]domain.Message, error) {
	// _id 由 driver 依插入順序產生, 作為同一 timestamp 的排序
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"courseId": courseID}, opts)
	if err != nil {
		return nil, errprocess.StoreUnavailable("find messages", err)
	}

	msgs := make([]domain.Message, 0)
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errprocess.StoreUnavailable("decode messages", err)
	}
	return msgs, nil
}

func (r *messageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errprocess.StoreUnavailable("find message", err)
	}
	return &msg, nil
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return errprocess.StoreUnavailable("insert message", err)
	}
	return nil
}

func (r *messageRepository) Save(ctx context.Context, msg *domain.Message) error {
	set := bson.M{
		"text":      msg.Text,
		"isDeleted": msg.IsDeleted,
	}
	if msg.OriginalText != nil {
		set["originalText"] = *msg.OriginalText
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": msg.ID}, bson.M{"$set": set})
	if err != nil {
		return errprocess.StoreUnavailable("update message", err)
	}
	if res.MatchedCount == 0 {
		return errprocess.NotFound("Message not found")
	}
	return nil
}
