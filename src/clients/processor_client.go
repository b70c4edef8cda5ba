package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/models"
	"time"
)

// ProcessorClient handles communication with the activity processing service.
// The processor is expected to be idempotent per activity id.
type ProcessorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewProcessorClient creates new activity processor client
func NewProcessorClient(cfg *config.Configuration) *ProcessorClient {
	return &ProcessorClient{
		baseURL: cfg.Processor.Url,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Processor.Timeout) * time.Second,
		},
	}
}

type processRequest struct {
	UserID     string `json:"user_id"`
	ActivityID int64  `json:"activity_id"`
}

type processResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ProcessActivity asks the processing service to transform and annotate one activity.
func (c *ProcessorClient) ProcessActivity(ctx context.Context, userID string, activityID int64) error {
	url := fmt.Sprintf("%s/process", c.baseURL)

	body, err := json.Marshal(processRequest{UserID: userID, ActivityID: activityID})
	if err != nil {
		return fmt.Errorf("failed to marshal process request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call activity processor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrActivityNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("activity processor returned status: %d", resp.StatusCode)
	}

	var response processResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode processor response: %w", err)
	}

	if response.Error != "" {
		return fmt.Errorf("%w: %s", models.ErrProcessingFailed, response.Error)
	}

	return nil
}
