// Package zone holds designated parking areas and the geofencing check used
// when a ride ends.
package zone

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/voltride/voltride-backend/internal/geo"
)

// Zone is a designated parking area.
type Zone struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	City     string             `json:"city,omitempty" bson:"city,omitempty"`
	Geometry geo.Polygon        `json:"geometry" bson:"geometry"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Contains reports whether (lat, lng) falls inside the zone.
func (z Zone) Contains(lat, lng float64) bool {
	return z.Geometry.Contains(lat, lng)
}
