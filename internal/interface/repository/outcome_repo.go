package repository

import (
	"context"
	"errors"
	"time"

	"hotel-booking-client/internal/domain/entity"
	"hotel-booking-client/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const outcomeCollection = "booking_outcomes"

// MongoOutcomeRepository implements OutcomeRepository
type MongoOutcomeRepository struct {
	collection *mongo.Collection
}

// NewMongoOutcomeRepository creates a new outcome journal repository
func NewMongoOutcomeRepository(db *mongo.Database) repository.OutcomeRepository {
	collection := db.Collection(outcomeCollection)

	// One outcome per booking
	ctx := context.Background()
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"bookingId": 1},
		Options: options.Index().SetUnique(true),
	})

	// Recent outcomes per user
	collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "resolvedAt", Value: -1}},
	})

	return &MongoOutcomeRepository{
		collection: collection,
	}
}

// Record upserts the outcome of a booking flow. A later outcome for the
// same booking (PAID after CONFIRMED) replaces the earlier one.
func (r *MongoOutcomeRepository) Record(ctx context.Context, outcome *entity.FlowOutcome) error {
	now := time.Now()
	outcome.UpdatedAt = now
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = now
	}

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"bookingId": outcome.BookingID},
		outcomeUpdate(outcome),
		options.Update().SetUpsert(true),
	)
	return err
}

// FindByBookingID returns the recorded outcome, or nil when none exists
func (r *MongoOutcomeRepository) FindByBookingID(ctx context.Context, bookingID string) (*entity.FlowOutcome, error) {
	var outcome entity.FlowOutcome
	err := r.collection.FindOne(ctx, bson.M{"bookingId": bookingID}).Decode(&outcome)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &outcome, nil
}

// FindRecentByUser returns the latest outcomes of a user, newest first
func (r *MongoOutcomeRepository) FindRecentByUser(ctx context.Context, userID string, limit int) ([]*entity.FlowOutcome, error) {
	opts := options.Find().SetSort(bson.D{{Key: "resolvedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var outcomes []*entity.FlowOutcome
	if err := cursor.All(ctx, &outcomes); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func outcomeUpdate(outcome *entity.FlowOutcome) bson.M {
	set := bson.M{
		"bookingId":          outcome.BookingID,
		"userId":             outcome.UserID,
		"hotelId":            outcome.HotelID,
		"outcome":            outcome.Outcome,
		"resolvedBy":         outcome.ResolvedBy,
		"discountPercentage": outcome.DiscountPercentage,
		"submittedAt":        outcome.SubmittedAt,
		"resolvedAt":         outcome.ResolvedAt,
		"updatedAt":          outcome.UpdatedAt,
	}
	if outcome.FinalPrice != nil {
		set["finalPrice"] = *outcome.FinalPrice
	}
	if len(outcome.Recommendations) > 0 {
		set["recommendations"] = outcome.Recommendations
	}
	if outcome.Reason != "" {
		set["reason"] = outcome.Reason
	}

	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": outcome.CreatedAt},
	}
}
