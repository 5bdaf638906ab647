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

// PreferencesCollection collection holding one preference per user
const PreferencesCollection = "user_preferences"

// PreferenceRepository definition user preference storage
type PreferenceRepository interface {
	// FindByUser nil, nil when the user has none
	FindByUser(ctx context.Context, userID string) (*domain.Preference, error)
	Upsert(ctx context.Context, pref domain.Preference) error
}

type preferenceRepository struct {
	coll *mongo.Collection
}

// NewMongoPreferenceRepository create a PreferenceRepository
func NewMongoPreferenceRepository(db *mongo.Database) PreferenceRepository {
	return &preferenceRepository{
		coll: db.Collection(PreferencesCollection),
	}
}

// EnsurePreferenceIndexes one document per user
func EnsurePreferenceIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(PreferencesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *preferenceRepository) FindByUser(ctx context.Context, userID string) (*domain.Preference, error) {
	var pref domain.Preference
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&pref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errprocess.StoreUnavailable("find preference", err)
	}
	return &pref, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, pref domain.Preference) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": pref.UserID},
		bson.M{"$set": bson.M{"selectedCourse": pref.SelectedCourse}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errprocess.StoreUnavailable("upsert preference", err)
	}
	return nil
}
