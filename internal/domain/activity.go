package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity types recorded for identities.
const (
	ActivitySignIn = "signin"
)

// Activity is an entry in a user's activity log.
type Activity struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Type      string    `json:"activityType"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewActivity creates an Activity stamped with the current time.
func NewActivity(userID uuid.UUID, activityType, details string) *Activity {
	return &Activity{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      activityType,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
}
