package webhook

import (
	"crypto/subtle"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/models"
)

// EventPayload is the raw wire shape of a webhook event. Pointer fields make
// missing-vs-zero distinguishable for validation.
type EventPayload struct {
	AspectType     *string           `json:"aspect_type"`
	ObjectType     *string           `json:"object_type"`
	ObjectID       *int64            `json:"object_id"`
	OwnerID        string            `json:"owner_id"`
	SubscriptionID int64             `json:"subscription_id"`
	EventTime      *int64            `json:"event_time"`
	Updates        map[string]string `json:"updates"`
}

// Validator checks webhook tokens and event payload shape. It has no side
// effects beyond inspection.
type Validator struct {
	urlToken    string
	verifyToken string
}

func NewValidator(cfg *config.WebhookConfig) *Validator {
	return &Validator{
		urlToken:    cfg.UrlToken,
		verifyToken: cfg.VerifyToken,
	}
}

// ValidateURLToken checks the secret path segment both endpoints share.
func (v *Validator) ValidateURLToken(token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.urlToken)) != 1 {
		return models.ErrUnauthorizedToken
	}
	return nil
}

// ValidateChallenge checks a subscription handshake request.
func (v *Validator) ValidateChallenge(challenge, verifyToken string) error {
	if challenge == "" {
		return models.ErrMissingChallenge
	}
	if subtle.ConstantTimeCompare([]byte(verifyToken), []byte(v.verifyToken)) != 1 {
		return models.ErrUnauthorizedToken
	}
	return nil
}

// ValidateEvent checks that a body-bearing request carries all required
// fields and returns the validated event.
func (v *Validator) ValidateEvent(payload *EventPayload) (*InboundEvent, error) {
	if payload.AspectType == nil || payload.ObjectType == nil ||
		payload.ObjectID == nil || payload.EventTime == nil {
		return nil, models.ErrInvalidEvent
	}

	return &InboundEvent{
		AspectType:     *payload.AspectType,
		ObjectType:     *payload.ObjectType,
		ObjectID:       *payload.ObjectID,
		OwnerID:        payload.OwnerID,
		SubscriptionID: payload.SubscriptionID,
		EventTime:      *payload.EventTime,
		Updates:        payload.Updates,
	}, nil
}
