package models

import "time"

// Role names used on user profiles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the profile document stored next to the credentials.
type User struct {
	ID           string    `bson:"_id" json:"uid"`
	Email        string    `bson:"email" json:"email"`
	DisplayName  string    `bson:"displayName" json:"displayName"`
	Role         string    `bson:"role" json:"role"`
	Farms        []string  `bson:"farms" json:"farms"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`

	ResetTokenHash string     `bson:"resetTokenHash,omitempty" json:"-"`
	ResetExpiresAt *time.Time `bson:"resetExpiresAt,omitempty" json:"-"`
}
