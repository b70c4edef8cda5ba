package webhook

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/models"
	"stridehub-webhook-svc/src/internal/registry"
	"stridehub-webhook-svc/src/internal/user"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DeauthNotifier is the external deauthorization hook.
type DeauthNotifier interface {
	PublishDeauthorization(userID string) error
}

type Handler interface {
	Handshake(c *gin.Context)
	ReceiveEvent(c *gin.Context)
	ProcessEvent(c *gin.Context)
	DrainQueue(c *gin.Context)
}

type handler struct {
	config     *config.Configuration
	validator  *Validator
	registry   *registry.Registry
	users      user.Service
	dispatcher *Dispatcher
	drainer    DrainRunner
	relay      Relay
	deauth     DeauthNotifier
}

func NewHandler(cfg *config.Configuration, validator *Validator, reg *registry.Registry,
	users user.Service, dispatcher *Dispatcher, drainer DrainRunner, relay Relay, deauth DeauthNotifier) Handler {
	return &handler{
		config:     cfg,
		validator:  validator,
		registry:   reg,
		users:      users,
		dispatcher: dispatcher,
		drainer:    drainer,
		relay:      relay,
		deauth:     deauth,
	}
}

// Handshake answers the platform's subscription challenge.
func (h *handler) Handshake(c *gin.Context) {
	if err := h.validator.ValidateURLToken(c.Param("urlToken")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	challenge := c.Query("hub.challenge")
	if err := h.validator.ValidateChallenge(challenge, c.Query("hub.verify_token")); err != nil {
		logrus.WithError(err).Warn("Webhook handshake rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	logrus.Info("Webhook subscription handshake accepted")
	c.JSON(http.StatusOK, gin.H{"hub.challenge": challenge})
}

// ReceiveEvent is the public event receiver. It acknowledges well-formed
// events with a 200 before any slow work starts; processing happens through
// the relay follow-up call. Internal failures are masked behind ok:false
// bodies so the sender never retries events that were received fine.
func (h *handler) ReceiveEvent(c *gin.Context) {
	if err := h.validator.ValidateURLToken(c.Param("urlToken")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var payload EventPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event body"})
		return
	}

	event, err := h.validator.ValidateEvent(&payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := Classify(event)
	logrus.WithFields(logrus.Fields{
		"kind":        kind.String(),
		"aspect_type": event.AspectType,
		"object_type": event.ObjectType,
		"object_id":   event.ObjectID,
		"owner_id":    event.OwnerID,
	}).Info("Webhook event received")

	switch kind {
	case KindDeauthorization:
		h.handleDeauthorization(c, event)
	case KindActivityCreate:
		h.handleActivityCreate(c, event)
	default:
		// Updates, deletes and other object types are acknowledged and
		// dropped so the sender stops redelivering them.
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (h *handler) handleDeauthorization(c *gin.Context, event *InboundEvent) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.registry.Add(ctx, event.OwnerID); err != nil {
		// Masked: the in-memory membership still short-circuits further
		// events from this user.
		logrus.WithError(err).WithField("user_id", event.OwnerID).Error("Failed to persist ignored user")
	}

	if h.deauth != nil {
		if err := h.deauth.PublishDeauthorization(event.OwnerID); err != nil {
			logrus.WithError(err).WithField("user_id", event.OwnerID).Error("Deauthorization hook failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"authorized": false})
}

func (h *handler) handleActivityCreate(c *gin.Context, event *InboundEvent) {
	if h.registry.Contains(event.OwnerID) {
		logrus.WithField("user_id", event.OwnerID).Debug("Event for ignored user dropped")
		c.JSON(http.StatusOK, gin.H{"ok": false})
		return
	}

	// Ack first; the relay call is never awaited.
	c.JSON(http.StatusOK, gin.H{"ok": true})
	h.relay.Send(event.OwnerID, event.ObjectID)
}

// ProcessEvent is the internal relay target that performs the actual
// dispatch. It is only ever called by the service itself.
func (h *handler) ProcessEvent(c *gin.Context) {
	if err := h.validator.ValidateURLToken(c.Param("urlToken")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	userID := c.Param("userId")
	activityID, err := strconv.ParseInt(c.Param("activityId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activity id"})
		return
	}

	if h.registry.Contains(userID) {
		c.JSON(http.StatusOK, gin.H{"ok": false, "message": "user ignored"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	u, err := h.users.Resolve(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to resolve user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve user"})
		return
	}

	if !u.HasCredentials() {
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrMissingCredentials.Error()})
		return
	}

	outcome, err := h.dispatcher.Dispatch(ctx, u, activityID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"activity_id": activityID,
		}).Error("Activity dispatch failed")

		if errors.Is(err, models.ErrActivityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if outcome.Suspended {
		c.JSON(http.StatusOK, gin.H{"ok": false, "message": "user suspended"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// DrainQueue triggers one drain sweep on demand.
func (h *handler) DrainQueue(c *gin.Context) {
	if err := h.validator.ValidateURLToken(c.Param("urlToken")); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	summary, err := h.drainer.Run(ctx)
	if err != nil {
		logrus.WithError(err).Error("Queue drain failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	})
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}
