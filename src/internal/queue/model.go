package queue

import "time"

// Entry is one unit of deferred work: process this activity for this user.
// Uniqueness is per (user_id, activity_id); redelivered webhook events map
// onto the same entry.
type Entry struct {
	UserID     string    `json:"userId" bson:"user_id"`
	ActivityID int64     `json:"activityId" bson:"activity_id"`
	EnqueuedAt time.Time `json:"enqueuedAt" bson:"enqueued_at"`
}

// Summary reports the outcome of one drain sweep.
type Summary struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Stats describes the current queue backlog for the admin surface.
type Stats struct {
	Depth          int64            `json:"depth"`
	OldestEntryAge *float64         `json:"oldestEntryAgeSeconds,omitempty"`
	PerUser        map[string]int64 `json:"perUser,omitempty"`
}
