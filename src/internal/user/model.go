package user

import (
	"time"
)

// User is the athlete record as stored in MongoDB. The id is the platform
// athlete identifier, which arrives as owner_id on webhook events.
type User struct {
	ID                        string      `json:"id" bson:"_id"`
	DisplayName               string      `json:"displayName" bson:"display_name"`
	Email                     string      `json:"email,omitempty" bson:"email,omitempty"`
	Status                    string      `json:"status" bson:"status"`
	AccessToken               string      `json:"-" bson:"access_token,omitempty"`
	RefreshToken              string      `json:"-" bson:"refresh_token,omitempty"`
	TokenExpiresAt            *time.Time  `json:"-" bson:"token_expires_at,omitempty"`
	Preferences               Preferences `json:"preferences" bson:"preferences"`
	DateLastActivity          *time.Time  `json:"dateLastActivity,omitempty" bson:"date_last_activity,omitempty"`
	DateLastProcessedActivity *time.Time  `json:"dateLastProcessedActivity,omitempty" bson:"date_last_processed_activity,omitempty"`
	CreatedAt                 time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt                 time.Time   `json:"updatedAt" bson:"updated_at"`
	DeletedAt                 *time.Time  `json:"deletedAt,omitempty" bson:"deleted_at,omitempty"`
}

type Preferences struct {
	DelayedProcessing bool `json:"delayedProcessing" bson:"delayed_processing"`
}

// Status constants
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// IsSuspended checks if user is suspended
func (u *User) IsSuspended() bool {
	return u.Status == StatusSuspended
}

// HasCredentials checks if user still holds platform OAuth credentials
func (u *User) HasCredentials() bool {
	return u.AccessToken != "" && u.RefreshToken != ""
}
