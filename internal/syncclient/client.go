// Package syncclient implements the fire-and-forget outbound senders used
// by the tracking loops. Each sender issues a single POST per sample;
// failures are logged and swallowed, never retried - a dropped sample is
// superseded by the next scheduled tick.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// requestTimeout bounds every outbound sync request. The original
// behavior specified no timeout; 15s is the documented choice, finite and
// well above the one-shot location fix bound.
const requestTimeout = 15 * time.Second

// httpClient is shared by both senders.
func httpClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// postJSON marshals payload and POSTs it with the given headers. Any
// failure (marshal, transport, non-2xx) is logged and swallowed.
func postJSON(ctx context.Context, client *http.Client, logger *zap.Logger, url string, headers map[string]string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal sync payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("failed to build sync request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("sync request failed", zap.String("url", url), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("sync response not OK",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
		return
	}

	logger.Debug("sync OK", zap.String("url", url))
}
