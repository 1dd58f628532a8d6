package ride

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voltride/voltride-backend/bike"
	"github.com/voltride/voltride-backend/internal/store"
)

// Repository is the Mongo-backed ride store. It also holds the bikes
// collection so ride completion can release the bike in the same transaction.
type Repository struct {
	client *mongo.Client
	rides  *mongo.Collection
	bikes  *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		client: db.Client(),
		rides:  db.Collection(store.Rides),
		bikes:  db.Collection(store.Bikes),
	}
}

func (r *Repository) Get(ctx context.Context, id string) (Ride, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Ride{}, ErrNotFound
	}

	var ride Ride
	err = r.rides.FindOne(ctx, bson.M{"_id": oid}).Decode(&ride)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Ride{}, ErrNotFound
	}
	return ride, err
}

// ListByUser returns the user's rides, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Ride, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.rides.Find(ctx, bson.M{"user": uid}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rides []Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

func (r *Repository) Insert(ctx context.Context, ride *Ride) error {
	res, err := r.rides.InsertOne(ctx, ride)
	if err != nil {
		return err
	}
	ride.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Start stamps the start time on a booked ride. The status guard is part of
// the update filter, so a concurrent start loses the race here even if it
// passed the lifecycle's guard read.
func (r *Repository) Start(ctx context.Context, id string, startTime time.Time, startImage string) (Ride, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Ride{}, ErrNotFound
	}

	set := bson.M{
		"status":    StatusActive,
		"startTime": startTime,
		"updatedAt": startTime,
	}
	if startImage != "" {
		set["startImage"] = startImage
	}

	return r.guardedUpdate(ctx, oid, StatusBooked, "started", bson.M{"$set": set})
}

// Complete persists the ride's terminal fields and the bike release in a
// single multi-document transaction, so a completed ride is never observed
// with its bike still in use.
func (r *Repository) Complete(ctx context.Context, c Completion) (Ride, error) {
	rideOID, err := primitive.ObjectIDFromHex(c.RideID)
	if err != nil {
		return Ride{}, ErrNotFound
	}
	bikeOID, err := primitive.ObjectIDFromHex(c.BikeID)
	if err != nil {
		return Ride{}, bike.ErrNotFound
	}

	session, err := r.client.StartSession()
	if err != nil {
		return Ride{}, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		set := bson.M{
			"status":     StatusCompleted,
			"endTime":    c.EndTime,
			"distance":   c.DistanceKm,
			"duration":   c.Duration,
			"fare":       c.Fare,
			"hasPenalty": c.HasPenalty,
			"updatedAt":  c.EndTime,
		}
		if c.EndImage != "" {
			set["endImage"] = c.EndImage
		}

		ride, err := r.guardedUpdate(sc, rideOID, StatusActive, "ended", bson.M{"$set": set})
		if err != nil {
			return nil, err
		}

		_, err = r.bikes.UpdateOne(sc,
			bson.M{"_id": bikeOID},
			bson.M{"$set": bson.M{
				"status":       bike.StatusAvailable,
				"lastUsed":     c.EndTime,
				"batteryLevel": c.BatteryLevel,
				"updatedAt":    c.EndTime,
			}},
		)
		if err != nil {
			return nil, err
		}
		return ride, nil
	})
	if err != nil {
		return Ride{}, err
	}
	return result.(Ride), nil
}

func (r *Repository) Rate(ctx context.Context, id string, rating int, review string) (Ride, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Ride{}, ErrNotFound
	}

	set := bson.M{"rating": rating, "updatedAt": time.Now()}
	if review != "" {
		set["review"] = review
	}

	return r.guardedUpdate(ctx, oid, StatusCompleted, "rated", bson.M{"$set": set})
}

func (r *Repository) Cancel(ctx context.Context, id string) (Ride, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Ride{}, ErrNotFound
	}

	set := bson.M{"status": StatusCancelled, "updatedAt": time.Now()}
	return r.guardedUpdate(ctx, oid, StatusBooked, "cancelled", bson.M{"$set": set})
}

// UpdatePayment writes the payment sub-record of a ride. Called by the
// payment flow, not by lifecycle transitions.
func (r *Repository) UpdatePayment(ctx context.Context, id string, p PaymentInfo) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.rides.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"payment": p, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindActiveByBike returns the active ride referencing a bike, if any.
// Used by the telemetry alarm handler to attribute incidents.
func (r *Repository) FindActiveByBike(ctx context.Context, bikeID string) (*Ride, error) {
	oid, err := primitive.ObjectIDFromHex(bikeID)
	if err != nil {
		return nil, bike.ErrNotFound
	}

	var ride Ride
	err = r.rides.FindOne(ctx, bson.M{"bike": oid, "status": StatusActive}).Decode(&ride)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// CountByStatus aggregates ride counts per status for the admin overview.
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	cursor, err := r.rides.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status Status `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// guardedUpdate updates a ride only when it is in the expected status and
// returns the updated document. When the guard fails it distinguishes a
// missing ride from a ride in the wrong status.
func (r *Repository) guardedUpdate(ctx context.Context, oid primitive.ObjectID, expect Status, op string, update bson.M) (Ride, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ride Ride
	err := r.rides.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": expect}, update, opts).Decode(&ride)
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Ride{}, err
	}

	var current Ride
	err = r.rides.FindOne(ctx, bson.M{"_id": oid}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Ride{}, ErrNotFound
	}
	if err != nil {
		return Ride{}, err
	}
	return Ride{}, &StateError{Op: op, Status: current.Status}
}
