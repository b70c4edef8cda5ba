package webhook

import (
	"fmt"
	"io"
	"net/http"
	"stridehub-webhook-svc/src/internal/config"
	"time"

	"github.com/sirupsen/logrus"
)

// Relay issues the internal follow-up call that decouples the sender's
// two-second acknowledgement deadline from actual processing latency.
type Relay interface {
	Send(ownerID string, activityID int64)
}

type httpRelay struct {
	baseURL    string
	urlToken   string
	httpClient *http.Client
}

func NewRelay(cfg *config.Configuration) Relay {
	return &httpRelay{
		baseURL:  cfg.App.HostLink,
		urlToken: cfg.Webhook.UrlToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Webhook.RelayTimeout) * time.Second,
		},
	}
}

// Send fires the follow-up request on its own goroutine and never blocks the
// caller. Transport failures are logged only: the acknowledgement has already
// gone out, so there is nobody left to surface the error to.
func (r *httpRelay) Send(ownerID string, activityID int64) {
	url := fmt.Sprintf("%s/webhook/%s/%s/%d", r.baseURL, r.urlToken, ownerID, activityID)

	go func() {
		resp, err := r.httpClient.Get(url)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"user_id":     ownerID,
				"activity_id": activityID,
			}).Error("Relay call failed")
			return
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			logrus.WithFields(logrus.Fields{
				"user_id":     ownerID,
				"activity_id": activityID,
				"status":      resp.StatusCode,
			}).Warn("Relay call returned non-OK status")
		}
	}()
}
