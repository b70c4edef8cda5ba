package models

import "time"

// DeauthorizationMessage is published when an athlete revokes platform access.
type DeauthorizationMessage struct {
	UserID      string    `json:"user_id"`
	ServiceName string    `json:"service_name"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActivityProcessedMessage is published after an activity has been processed.
type ActivityProcessedMessage struct {
	UserID     string    `json:"user_id"`
	ActivityID int64     `json:"activity_id"`
	Deferred   bool      `json:"deferred"`
	Timestamp  time.Time `json:"timestamp"`
}

// Service name constants
const (
	ServiceWebhookReceiver = "webhook.handler.receiver"
	ServiceWebhookRelay    = "webhook.handler.relay"
	ServiceQueueDrainer    = "webhook.queue.drainer"
)
