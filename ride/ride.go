// Package ride implements the ride lifecycle: booking a bike, starting and
// ending the ride, fare calculation and rating.
package ride

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/voltride/voltride-backend/internal/geo"
)

var (
	ErrNotFound      = errors.New("ride not found")
	ErrNotOwner      = errors.New("user is not authorized for this ride")
	ErrMissingRating = errors.New("please provide a rating")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrUserNotVerified rejects bookings from users whose identity
	// documents have not been verified yet.
	ErrUserNotVerified = errors.New("user documents need to be verified before booking a ride")
)

// Status is the lifecycle state of a ride. Transitions are strictly forward:
// booked -> active -> completed. A booked ride may instead move to cancelled.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// StateError reports an operation attempted against a ride in the wrong
// status. Op is the past-tense verb of the attempted operation.
type StateError struct {
	Op     string
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("ride cannot be %s as it is in %s status", e.Op, e.Status)
}

// PaymentStatus is the state of the ride's payment sub-record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentInfo is the payment sub-record embedded in a ride. It is written by
// the payment flow, not by the lifecycle operations.
type PaymentInfo struct {
	Status        PaymentStatus `json:"status" bson:"status"`
	Method        string        `json:"method" bson:"method"`
	TransactionID string        `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
}

// Fare is the itemized fare breakdown of a completed ride.
// TotalFare == BaseFare + DistanceCharge + TimeCharge + Taxes.
type Fare struct {
	BaseFare       float64 `json:"baseFare" bson:"baseFare"`
	DistanceCharge float64 `json:"distanceCharge" bson:"distanceCharge"`
	TimeCharge     float64 `json:"timeCharge" bson:"timeCharge"`
	Taxes          float64 `json:"taxes" bson:"taxes"`
	TotalFare      float64 `json:"totalFare" bson:"totalFare"`
}

// Ride is a single rental of a bike by a user.
type Ride struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID primitive.ObjectID `json:"user" bson:"user"`
	BikeID primitive.ObjectID `json:"bike" bson:"bike"`

	Source      geo.Point `json:"source" bson:"source"`
	Destination geo.Point `json:"destination" bson:"destination"`

	StartTime *time.Time `json:"startTime,omitempty" bson:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty" bson:"endTime,omitempty"`

	// Distance in km and Duration in minutes, derived on completion.
	Distance float64 `json:"distance" bson:"distance"`
	Duration int     `json:"duration" bson:"duration"`

	Status  Status      `json:"status" bson:"status"`
	Fare    Fare        `json:"fare" bson:"fare"`
	Payment PaymentInfo `json:"payment" bson:"payment"`

	// StartImage and EndImage are opaque media store references.
	StartImage string `json:"startImage,omitempty" bson:"startImage,omitempty"`
	EndImage   string `json:"endImage,omitempty" bson:"endImage,omitempty"`

	Rating     *int   `json:"rating,omitempty" bson:"rating,omitempty"`
	Review     string `json:"review,omitempty" bson:"review,omitempty"`
	HasPenalty bool   `json:"hasPenalty" bson:"hasPenalty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// OwnedBy reports whether the ride belongs to the acting user.
func (r Ride) OwnedBy(userID string) bool {
	return r.UserID.Hex() == userID
}

// setRefs parses the acting user and bike identifiers into object references.
func (r *Ride) setRefs(userID, bikeID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	bid, err := primitive.ObjectIDFromHex(bikeID)
	if err != nil {
		return fmt.Errorf("invalid bike id %q: %w", bikeID, err)
	}
	r.UserID = uid
	r.BikeID = bid
	return nil
}
