// Package bike holds the bike registry: the fleet records the ride lifecycle
// reads and conditionally mutates.
package bike

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/voltride/voltride-backend/internal/geo"
)

// Status is the operational state of a bike.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusInUse       Status = "in-use"
	StatusMaintenance Status = "maintenance"
	StatusCharging    Status = "charging"
	StatusDisabled    Status = "disabled"
)

// Valid reports whether s is one of the known bike statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusCharging, StatusDisabled:
		return true
	}
	return false
}

// Bike represents a rentable electric bike.
type Bike struct {
	ID primitive.ObjectID `json:"id" bson:"_id,omitempty"`

	// BikeNumber is the physical label on the frame (e.g. "VOLT-0042").
	// It is unique across the fleet.
	BikeNumber  string `json:"bikeNumber" bson:"bikeNumber"`
	Model       string `json:"model" bson:"model"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`

	// BatteryLevel is a percentage in [0, 100].
	BatteryLevel float64 `json:"batteryLevel" bson:"batteryLevel"`
	// Range is the estimated remaining range in km.
	Range float64 `json:"range" bson:"range"`

	Status Status `json:"status" bson:"status"`

	PricePerMinute float64 `json:"pricePerMinute" bson:"pricePerMinute"`
	PricePerKm     float64 `json:"pricePerKm" bson:"pricePerKm"`
	BaseFare       float64 `json:"baseFare" bson:"baseFare"`

	ImageURL string    `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	Location geo.Point `json:"location" bson:"location"`

	LastUsed        *time.Time `json:"lastUsed,omitempty" bson:"lastUsed,omitempty"`
	LastMaintenance *time.Time `json:"lastMaintenance,omitempty" bson:"lastMaintenance,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Active derives whether the bike is usable right now: enough battery and a
// status that permits pickup.
func (b Bike) Active() bool {
	return b.BatteryLevel > 10 && (b.Status == StatusAvailable || b.Status == StatusCharging)
}

// Pricing is the subset of bike attributes the fare calculator needs.
type Pricing struct {
	BaseFare       float64
	PricePerMinute float64
	PricePerKm     float64
}

// Pricing extracts the bike's fare inputs.
func (b Bike) Pricing() Pricing {
	return Pricing{
		BaseFare:       b.BaseFare,
		PricePerMinute: b.PricePerMinute,
		PricePerKm:     b.PricePerKm,
	}
}
