package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storefront user account
type User struct {
	Id             primitive.ObjectID `bson:"_id" json:"_id"`
	Email          string             `bson:"email" json:"email"`
	Name           string             `bson:"name" json:"name"`
	PasswordDigest string             `bson:"passwordDigest" json:"-"`
	IsAdmin        bool               `bson:"isAdmin" json:"isAdmin"`
	LoginCounts    int                `bson:"loginCounts" json:"-"`
	LastLogin      time.Time          `bson:"lastLogin,omitempty" json:"lastLogin"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

type CreateUserRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Name     string `form:"name" json:"name" validate:"max=80"`
	Password string `form:"password" json:"password" validate:"required,min=8,max=72"`
	Invite   string `form:"invite" json:"invite" validate:"max=128"`
}

type UserAuthRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
