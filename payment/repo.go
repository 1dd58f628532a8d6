package payment

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("payment not found")

type Repository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *Repository {
	return &Repository{col: col}
}

func (r *Repository) Get(ctx context.Context, id string) (Payment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Payment{}, ErrNotFound
	}

	var p Payment
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Payment{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Payment, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"userId": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *Repository) Create(ctx context.Context, p *Payment) error {
	now := time.Now()
	p.Status = StatusPending
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// MarkCompleted records a successful gateway charge.
func (r *Repository) MarkCompleted(ctx context.Context, id, transactionID string) error {
	now := time.Now()
	return r.mark(ctx, id, bson.M{
		"status":        StatusCompleted,
		"transactionId": transactionID,
		"paymentTime":   now,
		"updatedAt":     now,
	})
}

// MarkFailed records a declined or errored charge.
func (r *Repository) MarkFailed(ctx context.Context, id string) error {
	return r.mark(ctx, id, bson.M{
		"status":    StatusFailed,
		"updatedAt": time.Now(),
	})
}

func (r *Repository) mark(ctx context.Context, id string, set bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
