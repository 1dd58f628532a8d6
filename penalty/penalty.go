// Package penalty records charges levied against riders for rule violations.
package penalty

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Type string

const (
	TypeInvalidParking Type = "invalid_parking"
	TypeDamage         Type = "damage"
	TypeLateReturn     Type = "late_return"
	TypeAccident       Type = "accident"
	TypeOther          Type = "other"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusDisputed Status = "disputed"
	StatusWaived   Status = "waived"
)

// Penalty is a charge against a user for a specific ride. Only pending
// penalties can be paid, disputed or waived.
type Penalty struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID primitive.ObjectID `json:"userId" bson:"userId"`
	RideID primitive.ObjectID `json:"rideId" bson:"rideId"`

	Type        Type    `json:"penaltyType" bson:"penaltyType"`
	Amount      float64 `json:"amount" bson:"amount"`
	Description string  `json:"description" bson:"description"`

	Status        Status `json:"status" bson:"status"`
	PaymentID     string `json:"paymentId,omitempty" bson:"paymentId,omitempty"`
	DisputeReason string `json:"disputeReason,omitempty" bson:"disputeReason,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
