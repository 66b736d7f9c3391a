package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pultar/gamepass-service/internal/catalog"
)

// MetadataNotifier posts collected game stubs to the downstream metadata
// service. Delivery is fire-and-forget: any 2xx counts as success and
// the caller is expected to log, not propagate, failures.
type MetadataNotifier struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewMetadataNotifier constructs a MetadataNotifier. An empty url
// disables notification.
func NewMetadataNotifier(url string, timeout time.Duration, logger *zap.Logger) *MetadataNotifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &MetadataNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type notifyPayload struct {
	Games []catalog.GameStub `json:"games"`
}

// Notify posts the stub list as JSON to the configured endpoint.
func (n *MetadataNotifier) Notify(ctx context.Context, stubs []catalog.GameStub) error {
	if n.url == "" || len(stubs) == 0 {
		return nil
	}

	body, err := json.Marshal(notifyPayload{Games: stubs})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification rejected with status %d", resp.StatusCode)
	}
	n.logger.Info("metadata crawl triggered", zap.Int("games", len(stubs)))
	return nil
}
