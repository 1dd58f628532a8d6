package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/voltride/voltride-backend/internal/geo"
	"github.com/voltride/voltride-backend/internal/store"
	"github.com/voltride/voltride-backend/ride"
)

// Incident is an alarm event tied to the ride that was active when it fired.
type Incident struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BikeID      primitive.ObjectID `bson:"bike" json:"bikeId"`
	RideID      primitive.ObjectID `bson:"ride" json:"rideId"`
	UserID      primitive.ObjectID `bson:"user" json:"userId"`
	Type        string             `bson:"incidentType" json:"incidentType"`
	Description string             `bson:"description" json:"description"`
	Location    geo.Point          `bson:"location" json:"location"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

func NewIncident(bikeID string, active *ride.Ride, event AlarmEvent) Incident {
	oid, _ := primitive.ObjectIDFromHex(bikeID)

	typ := event.Type
	if typ == "" {
		typ = "unknown"
	}
	desc := event.Description
	if desc == "" {
		desc = "Alarm triggered"
	}

	return Incident{
		BikeID:      oid,
		RideID:      active.ID,
		UserID:      active.UserID,
		Type:        typ,
		Description: desc,
		Location:    geo.NewPoint(event.Latitude, event.Longitude),
		CreatedAt:   time.Now().UTC(),
	}
}

// IncidentRepository persists incidents to MongoDB.
type IncidentRepository struct {
	coll *mongo.Collection
}

func NewIncidentRepository(db *mongo.Database) *IncidentRepository {
	return &IncidentRepository{coll: db.Collection(store.Incidents)}
}

func (r *IncidentRepository) Record(ctx context.Context, inc Incident) error {
	if _, err := r.coll.InsertOne(ctx, inc); err != nil {
		return fmt.Errorf("inserting incident: %w", err)
	}
	return nil
}
