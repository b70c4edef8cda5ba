package queue

import (
	"context"
	"stridehub-webhook-svc/src/internal/user"
	"time"

	"github.com/sirupsen/logrus"
)

// ActivityProcessor is the external processing collaborator. It is expected
// to be idempotent per activity id.
type ActivityProcessor interface {
	ProcessActivity(ctx context.Context, userID string, activityID int64) error
}

// Notifier publishes pipeline notifications. May be nil.
type Notifier interface {
	PublishActivityProcessed(userID string, activityID int64, deferred bool) error
}

// Drainer sweeps the deferred queue and feeds due entries back into
// immediate processing. A failing entry never aborts the sweep; it stays in
// the queue for a later run.
type Drainer struct {
	repository  Repository
	userService user.Service
	processor   ActivityProcessor
	notifier    Notifier
}

func NewDrainer(repository Repository, userService user.Service, processor ActivityProcessor, notifier Notifier) *Drainer {
	return &Drainer{
		repository:  repository,
		userService: userService,
		processor:   processor,
		notifier:    notifier,
	}
}

// Run drains the current backlog snapshot. Safe to call concurrently with
// itself and with new enqueues; entries added mid-sweep wait for the next one.
func (d *Drainer) Run(ctx context.Context) (*Summary, error) {
	entries, err := d.repository.FetchDue(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Attempted: len(entries)}
	if len(entries) == 0 {
		logrus.Debug("Activity queue empty, nothing to drain")
		return summary, nil
	}

	logrus.WithField("entries", len(entries)).Info("Draining activity queue")

	for _, entry := range entries {
		if err := d.drainEntry(ctx, entry); err != nil {
			summary.Failed++
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id":     entry.UserID,
				"activity_id": entry.ActivityID,
				"enqueued_at": entry.EnqueuedAt,
			}).Error("Failed to drain queue entry, leaving it for the next sweep")
			continue
		}
		summary.Succeeded++
	}

	logrus.WithFields(logrus.Fields{
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("Activity queue drain finished")

	return summary, nil
}

func (d *Drainer) drainEntry(ctx context.Context, entry *Entry) error {
	u, err := d.userService.Resolve(ctx, entry.UserID)
	if err != nil {
		return err
	}

	// The entry already passed the delayed-preference decision at dispatch
	// time, so the processor is invoked directly here.
	if err := d.processor.ProcessActivity(ctx, u.ID, entry.ActivityID); err != nil {
		return err
	}

	if err := d.repository.Remove(ctx, entry.UserID, entry.ActivityID); err != nil {
		return err
	}

	if err := d.userService.TrackProcessed(ctx, entry.UserID, time.Now().UTC()); err != nil {
		logrus.WithError(err).WithField("user_id", entry.UserID).Warn("Failed to record processed timestamp")
	}

	if d.notifier != nil {
		if err := d.notifier.PublishActivityProcessed(entry.UserID, entry.ActivityID, true); err != nil {
			logrus.WithError(err).Warn("Failed to publish processed notification")
		}
	}

	return nil
}
