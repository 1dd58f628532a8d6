package bike

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/voltride/voltride-backend/internal/query"
)

var (
	ErrNotFound      = errors.New("bike not found")
	ErrNotAvailable  = errors.New("bike not available")
	ErrInvalidStatus = errors.New("invalid bike status")
)

// Earth radius used to convert a distance to radians for $centerSphere.
const (
	earthRadiusKm = 6378
	earthRadiusMi = 3963
)

// Radius converts a distance in the given unit ("km" or "mi") to radians.
func Radius(distance float64, unit string) float64 {
	if unit == "mi" {
		return distance / earthRadiusMi
	}
	return distance / earthRadiusKm
}

type Repository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *Repository {
	return &Repository{col: col}
}

// List runs a filtered, sorted, paginated fleet query and returns the
// matching bikes plus the total match count.
func (r *Repository) List(ctx context.Context, p query.Params) ([]Bike, int64, error) {
	total, err := r.col.CountDocuments(ctx, p.Filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(p.Sort).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cursor, err := r.col.Find(ctx, p.Filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var bikes []Bike
	if err := cursor.All(ctx, &bikes); err != nil {
		return nil, 0, err
	}
	return bikes, total, nil
}

// FindNearby returns available bikes within a spherical cap of the given
// radius around (lng, lat).
func (r *Repository) FindNearby(ctx context.Context, lat, lng, distance float64, unit string) ([]Bike, error) {
	filter := bson.M{
		"status": StatusAvailable,
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{bson.A{lng, lat}, Radius(distance, unit)},
			},
		},
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bikes []Bike
	if err := cursor.All(ctx, &bikes); err != nil {
		return nil, err
	}
	return bikes, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Bike, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Bike{}, ErrNotFound
	}

	var b Bike
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Bike{}, ErrNotFound
	}
	return b, err
}

func (r *Repository) Insert(ctx context.Context, b *Bike) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = StatusAvailable
	}

	res, err := r.col.InsertOne(ctx, b)
	if err != nil {
		return err
	}
	b.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// updateSet builds the $set document for Update from the mutable fields.
// Identity and audit fields (_id, createdAt, lastUsed) stay untouched.
func updateSet(b Bike) bson.M {
	set := bson.M{
		"bikeNumber":     b.BikeNumber,
		"model":          b.Model,
		"description":    b.Description,
		"batteryLevel":   b.BatteryLevel,
		"range":          b.Range,
		"status":         b.Status,
		"pricePerMinute": b.PricePerMinute,
		"pricePerKm":     b.PricePerKm,
		"baseFare":       b.BaseFare,
		"imageUrl":       b.ImageURL,
		"location":       b.Location,
		"updatedAt":      time.Now(),
	}
	if b.LastMaintenance != nil {
		set["lastMaintenance"] = b.LastMaintenance
	}
	return set
}

// Update replaces the mutable fields of a bike record.
func (r *Repository) Update(ctx context.Context, id string, b Bike) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": updateSet(b)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkInUse locks a bike for a booked ride. The status guard is part of the
// update filter so two concurrent bookings cannot both take the same bike.
func (r *Repository) MarkInUse(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "status": StatusAvailable},
		bson.M{"$set": bson.M{"status": StatusInUse, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotAvailable
	}
	return nil
}

// MarkAvailable releases a bike without touching battery or usage fields.
// Used when a booked ride is cancelled before it starts.
func (r *Repository) MarkAvailable(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": StatusAvailable, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTelemetry applies a reported position and battery level. Telemetry
// arrives over MQTT, outside any request.
func (r *Repository) UpdateTelemetry(ctx context.Context, id string, lat, lng, batteryLevel float64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	set := bson.M{
		"location.type":        "Point",
		"location.coordinates": bson.A{lng, lat},
		"updatedAt":            time.Now(),
	}
	if batteryLevel >= 0 {
		set["batteryLevel"] = batteryLevel
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

// CountByStatus aggregates fleet counts per status for the admin overview.
func (r *Repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	cursor, err := r.col.Aggregate(ctx, mongo.Pipeline{
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
