package webhook

import (
	"context"
	"stridehub-webhook-svc/src/internal/queue"
	"stridehub-webhook-svc/src/internal/user"
	"time"

	"github.com/sirupsen/logrus"
)

// Outcome is the result of dispatching one activity-create event.
type Outcome struct {
	OK        bool `json:"ok"`
	Suspended bool `json:"suspended,omitempty"`
	Deferred  bool `json:"deferred,omitempty"`
}

// DrainRunner runs one sweep over the deferred queue.
type DrainRunner interface {
	Run(ctx context.Context) (*queue.Summary, error)
}

// DrainLatch suppresses redundant opportunistic drain triggers. May be nil.
type DrainLatch interface {
	TryAcquireDrainLatch(ctx context.Context) (bool, error)
	ReleaseDrainLatch(ctx context.Context) error
}

// Dispatcher routes a validated activity-create event to immediate
// processing or the deferred queue, per the recipient's stored preference.
type Dispatcher struct {
	users        user.Service
	queue        queue.Repository
	processor    queue.ActivityProcessor
	notifier     queue.Notifier
	drainer      DrainRunner
	latch        DrainLatch
	drainTimeout time.Duration
}

func NewDispatcher(users user.Service, queueRepo queue.Repository, processor queue.ActivityProcessor,
	notifier queue.Notifier, drainer DrainRunner, latch DrainLatch) *Dispatcher {
	return &Dispatcher{
		users:        users,
		queue:        queueRepo,
		processor:    processor,
		notifier:     notifier,
		drainer:      drainer,
		latch:        latch,
		drainTimeout: 5 * time.Minute,
	}
}

// Dispatch processes or defers one activity for the given user.
//
// Suspended users are a no-op: the queue and the activity timestamps stay
// untouched. For delayed-processing users the activity is enqueued and only
// date_last_activity advances. Otherwise the processor runs synchronously;
// success advances both timestamps, failure only date_last_activity, and the
// error is surfaced to the caller as part of the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, u *user.User, activityID int64) (*Outcome, error) {
	if u.IsSuspended() {
		logrus.WithField("user_id", u.ID).Info("User suspended, skipping activity dispatch")
		return &Outcome{OK: false, Suspended: true}, nil
	}

	now := time.Now().UTC()

	if u.Preferences.DelayedProcessing {
		if err := d.queue.Enqueue(ctx, u.ID, activityID); err != nil {
			return &Outcome{OK: false}, err
		}
		if err := d.users.TrackActivity(ctx, u.ID, now); err != nil {
			logrus.WithError(err).WithField("user_id", u.ID).Warn("Failed to record activity timestamp")
		}

		logrus.WithFields(logrus.Fields{
			"user_id":     u.ID,
			"activity_id": activityID,
		}).Info("Activity deferred for delayed processing")

		d.triggerDrain()
		return &Outcome{OK: true, Deferred: true}, nil
	}

	if err := d.processor.ProcessActivity(ctx, u.ID, activityID); err != nil {
		if trackErr := d.users.TrackActivity(ctx, u.ID, now); trackErr != nil {
			logrus.WithError(trackErr).WithField("user_id", u.ID).Warn("Failed to record activity timestamp")
		}
		d.triggerDrain()
		return &Outcome{OK: false}, err
	}

	if err := d.users.TrackProcessed(ctx, u.ID, now); err != nil {
		logrus.WithError(err).WithField("user_id", u.ID).Warn("Failed to record processed timestamp")
	}

	if d.notifier != nil {
		if err := d.notifier.PublishActivityProcessed(u.ID, activityID, false); err != nil {
			logrus.WithError(err).Warn("Failed to publish processed notification")
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     u.ID,
		"activity_id": activityID,
	}).Info("Activity processed immediately")

	d.triggerDrain()
	return &Outcome{OK: true}, nil
}

// triggerDrain gives other due queue items a chance to make progress. Fire
// and forget; the periodic/on-demand drain endpoint is the guaranteed path.
func (d *Dispatcher) triggerDrain() {
	if d.drainer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.drainTimeout)
		defer cancel()

		if d.latch != nil {
			acquired, err := d.latch.TryAcquireDrainLatch(ctx)
			if err != nil || !acquired {
				return
			}
			defer func() {
				if err := d.latch.ReleaseDrainLatch(ctx); err != nil {
					logrus.WithError(err).Warn("Failed to release drain latch")
				}
			}()
		}

		if _, err := d.drainer.Run(ctx); err != nil {
			logrus.WithError(err).Warn("Opportunistic queue drain failed")
		}
	}()
}
