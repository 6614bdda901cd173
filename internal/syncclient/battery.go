package syncclient

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/kidcan/agent/internal/domain"
)

// BatteryClient posts battery samples to the device-status endpoint with
// an api-key header.
type BatteryClient struct {
	client *http.Client
	url    string
	apiKey string
	logger *zap.Logger
}

// NewBatteryClient creates a battery sender for the given endpoint.
func NewBatteryClient(url, apiKey string, logger *zap.Logger) *BatteryClient {
	return &BatteryClient{
		client: httpClient(),
		url:    url,
		apiKey: apiKey,
		logger: logger,
	}
}

type batteryPayload struct {
	ChildID        int    `json:"_child_id"`
	DeviceID       string `json:"_device_id"`
	BatteryPercent int    `json:"_battery_percent"`
}

// SendBattery forwards one sample. The caller never observes the outcome.
func (c *BatteryClient) SendBattery(ctx context.Context, id domain.DeviceIdentity, percent int) {
	headers := map[string]string{"apikey": c.apiKey}
	postJSON(ctx, c.client, c.logger, c.url, headers, batteryPayload{
		ChildID:        id.ChildID,
		DeviceID:       id.DeviceID,
		BatteryPercent: percent,
	})
}

var _ domain.BatterySyncClient = (*BatteryClient)(nil)
