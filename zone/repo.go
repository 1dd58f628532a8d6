package zone

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("parking zone not found")

type Repository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *Repository {
	return &Repository{col: col}
}

func (r *Repository) List(ctx context.Context) ([]Zone, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var zones []Zone
	if err := cursor.All(ctx, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (r *Repository) Get(ctx context.Context, id string) (Zone, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Zone{}, ErrNotFound
	}

	var z Zone
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&z)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Zone{}, ErrNotFound
	}
	return z, err
}

func (r *Repository) Insert(ctx context.Context, z *Zone) error {
	z.CreatedAt = time.Now()

	res, err := r.col.InsertOne(ctx, z)
	if err != nil {
		return err
	}
	z.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Service answers parking validity questions over the zone repository. It
// implements the ride lifecycle's ParkingValidator.
type Service struct {
	zones interface {
		List(ctx context.Context) ([]Zone, error)
	}
}

func NewService(zones *Repository) *Service {
	return &Service{zones: zones}
}

// ValidParking reports whether the point lies inside any parking zone. With
// no zones configured every location is a valid drop-off.
func (s *Service) ValidParking(ctx context.Context, lat, lng float64) (bool, error) {
	zones, err := s.zones.List(ctx)
	if err != nil {
		return false, err
	}
	if len(zones) == 0 {
		return true, nil
	}

	for _, z := range zones {
		if z.Contains(lat, lng) {
			return true, nil
		}
	}
	return false, nil
}
