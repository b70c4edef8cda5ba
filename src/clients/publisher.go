package clients

import (
	"encoding/json"
	"fmt"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/models"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// PlatformPublisher pushes pipeline notifications to the platform exchange.
type PlatformPublisher struct {
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
}

func NewPlatformPublisher(cfg *config.Configuration, channel *amqp.Channel) *PlatformPublisher {
	return &PlatformPublisher{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
	}
}

// PublishDeauthorization notifies downstream services that a user revoked access.
func (p *PlatformPublisher) PublishDeauthorization(userID string) error {
	message := models.DeauthorizationMessage{
		UserID:      userID,
		ServiceName: models.ServiceWebhookReceiver,
		Timestamp:   time.Now(),
	}

	if err := p.publish(p.cfg.DeauthRoutingKey, message); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to publish deauthorization message")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     userID,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.DeauthRoutingKey,
	}).Debug("Deauthorization message published")

	return nil
}

// PublishActivityProcessed notifies downstream services about a processed activity.
func (p *PlatformPublisher) PublishActivityProcessed(userID string, activityID int64, deferred bool) error {
	message := models.ActivityProcessedMessage{
		UserID:     userID,
		ActivityID: activityID,
		Deferred:   deferred,
		Timestamp:  time.Now(),
	}

	if err := p.publish(p.cfg.ProcessRoutingKey, message); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"activity_id": activityID,
		}).Error("Failed to publish activity processed message")
		return err
	}

	return nil
}

func (p *PlatformPublisher) publish(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
