// Package payment records fare and penalty payments and charges them through
// a pluggable payment processor.
package payment

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Method string

const (
	MethodCard   Method = "card"
	MethodUPI    Method = "upi"
	MethodCash   Method = "cash"
	MethodWallet Method = "wallet"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is a charge for a completed ride (or a penalty settlement).
type Payment struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID primitive.ObjectID `json:"rideId" bson:"rideId"`
	UserID primitive.ObjectID `json:"userId" bson:"userId"`

	Amount      float64 `json:"amount" bson:"amount"`
	Method      Method  `json:"method" bson:"method"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`

	Status        Status     `json:"status" bson:"status"`
	TransactionID string     `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	PaymentTime   *time.Time `json:"paymentTime,omitempty" bson:"paymentTime,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Processor charges a payment through an external gateway and returns the
// gateway's transaction reference.
type Processor interface {
	Charge(ctx context.Context, p Payment) (transactionID string, err error)
}
