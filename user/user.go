// Package user holds rider accounts and their identity documents.
package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role gates access to the admin surface.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Document is an identity document submitted for verification.
type Document struct {
	DocType          string     `json:"docType" bson:"docType"`
	DocID            string     `json:"docId" bson:"docId"`
	Verified         bool       `json:"verified" bson:"verified"`
	VerificationDate *time.Time `json:"verificationDate,omitempty" bson:"verificationDate,omitempty"`
}

// User is a rider account. PasswordHash is a bcrypt hash and is never
// serialized into responses.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	Phone        string             `json:"phone" bson:"phone"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
	Role         Role               `json:"role" bson:"role"`

	Documents []Document `json:"documents" bson:"documents"`
	// IsDocumentVerified gates ride creation: a user may only book once
	// their identity documents have been verified.
	IsDocumentVerified bool `json:"isDocumentVerified" bson:"isDocumentVerified"`

	AgreedToTerms bool `json:"agreedToTerms" bson:"agreedToTerms"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
