package penalty

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound   = errors.New("penalty not found")
	ErrNotPending = errors.New("penalty is not in pending status")
)

type Repository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *Repository {
	return &Repository{col: col}
}

func (r *Repository) Get(ctx context.Context, id string) (Penalty, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Penalty{}, ErrNotFound
	}

	var p Penalty
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Penalty{}, ErrNotFound
	}
	return p, err
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Penalty, error) {
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

	var penalties []Penalty
	if err := cursor.All(ctx, &penalties); err != nil {
		return nil, err
	}
	return penalties, nil
}

func (r *Repository) Create(ctx context.Context, p *Penalty) error {
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

// RecordInvalidParking creates a pending invalid-parking penalty. This is
// the hook the ride lifecycle calls on completion.
func (r *Repository) RecordInvalidParking(ctx context.Context, userID, rideID string, amount float64, description string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	rid, err := primitive.ObjectIDFromHex(rideID)
	if err != nil {
		return ErrNotFound
	}

	return r.Create(ctx, &Penalty{
		UserID:      uid,
		RideID:      rid,
		Type:        TypeInvalidParking,
		Amount:      amount,
		Description: description,
	})
}

// Pay marks a pending penalty paid and links the settling payment.
func (r *Repository) Pay(ctx context.Context, id, paymentID string) (Penalty, error) {
	return r.fromPending(ctx, id, bson.M{
		"status":    StatusPaid,
		"paymentId": paymentID,
	})
}

// Dispute marks a pending penalty disputed.
func (r *Repository) Dispute(ctx context.Context, id, reason string) (Penalty, error) {
	return r.fromPending(ctx, id, bson.M{
		"status":        StatusDisputed,
		"disputeReason": reason,
	})
}

// Reopen returns a paid penalty to pending and detaches the settling payment.
// Called when the charge behind a Pay fails, so the rider can retry.
func (r *Repository) Reopen(ctx context.Context, id string) (Penalty, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Penalty{}, ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Penalty
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": StatusPaid},
		bson.M{
			"$set":   bson.M{"status": StatusPending, "updatedAt": time.Now()},
			"$unset": bson.M{"paymentId": ""},
		}, opts,
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Penalty{}, ErrNotFound
	}
	return p, err
}

// Waive cancels a pending penalty.
func (r *Repository) Waive(ctx context.Context, id string) (Penalty, error) {
	return r.fromPending(ctx, id, bson.M{"status": StatusWaived})
}

// fromPending applies a status change that is only legal from pending.
func (r *Repository) fromPending(ctx context.Context, id string, set bson.M) (Penalty, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Penalty{}, ErrNotFound
	}
	set["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Penalty
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": StatusPending},
		bson.M{"$set": set}, opts,
	).Decode(&p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Penalty{}, err
	}

	// Distinguish a missing penalty from one in the wrong status.
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return Penalty{}, getErr
	}
	return Penalty{}, ErrNotPending
}
