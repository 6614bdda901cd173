package syncclient

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

// LocationClient posts location samples to the location sync endpoint
// with bearer-token and api-key headers.
type LocationClient struct {
	client *http.Client
	url    string
	apiKey string
	logger *zap.Logger
}

// NewLocationClient creates a location sender for the given endpoint.
func NewLocationClient(url, apiKey string, logger *zap.Logger) *LocationClient {
	return &LocationClient{
		client: httpClient(),
		url:    url,
		apiKey: apiKey,
		logger: logger,
	}
}

type locationPayload struct {
	ChildID  int     `json:"childId"`
	DeviceID string  `json:"deviceId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// SendLocation forwards one sample. The caller never observes the
// outcome.
func (c *LocationClient) SendLocation(ctx context.Context, id domain.DeviceIdentity, pos domain.Position) {
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"apikey":        c.apiKey,
	}
	postJSON(ctx, c.client, c.logger, c.url, headers, locationPayload{
		ChildID:  id.ChildID,
		DeviceID: id.DeviceID,
		Lat:      pos.Lat,
		Lng:      pos.Lng,
	})
}

var _ domain.LocationSyncClient = (*LocationClient)(nil)
