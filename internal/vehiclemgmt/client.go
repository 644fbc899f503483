// Package vehiclemgmt is a hand-written client for the Vehicle Management
// API. It wraps a retryablehttp.Client with the handful of endpoints the
// gateway depends on.
package vehiclemgmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/vp-kuljetus/telematics-gateway/internal/buildinfo"
)

// TrackableType is the kind of entity a device's IMEI resolves to.
type TrackableType string

const (
	TrackableTruck   TrackableType = "Truck"
	TrackableTowable TrackableType = "Towable"
)

// Trackable is the server-side identity a device's telemetry belongs to.
type Trackable struct {
	ID   string        `json:"id"`
	IMEI string        `json:"imei"`
	Type TrackableType `json:"trackableType"`
}

// Client talks to the Vehicle Management API.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
}

// New builds a Client. insecureSkipVerify disables TLS certificate
// verification, useful against self-signed staging endpoints.
func New(baseURL, apiKey string, insecureSkipVerify bool) *Client {
	return &Client{
		http:    NewHTTPClient(insecureSkipVerify),
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*retryablehttp.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("vehicle management: encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("vehicle management: build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", buildinfo.UserAgent("vehiclemgmt-client"))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(req *retryablehttp.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vehicle management: %w", err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// GetTrackable resolves imei to a Trackable. A 404 or other 4xx returns
// (nil, nil): "we don't yet know what this IMEI represents" is a
// non-error condition the caller handles by continuing to cache events.
func (c *Client) GetTrackable(ctx context.Context, imei string) (*Trackable, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/trackables/"+imei, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var t Trackable
		if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
			return nil, fmt.Errorf("vehicle management: decode trackable: %w", err)
		}
		return &t, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, nil
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Op: "GetTrackable"}
	}
}

// postEvent POSTs body to path and treats any of okStatuses (in addition to
// the general 2xx range) as success. It is the shared plumbing for every
// create-style handler send.
func (c *Client) postEvent(ctx context.Context, path string, body any, okStatuses ...int) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	return classify(resp.StatusCode, "POST "+path, okStatuses...)
}

func classify(status int, op string, okStatuses ...int) error {
	if status >= 200 && status < 300 {
		return nil
	}
	for _, ok := range okStatuses {
		if status == ok {
			return nil
		}
	}
	return &APIError{StatusCode: status, Op: op}
}

// PostLocation sends a TruckLocation reading.
func (c *Client) PostLocation(ctx context.Context, truckID string, loc LocationPayload) error {
	return c.postEvent(ctx, fmt.Sprintf("/v1/trucks/%s/locations", truckID), loc)
}

// PostSpeed sends a TruckSpeed reading.
func (c *Client) PostSpeed(ctx context.Context, truckID string, speed SpeedPayload) error {
	return c.postEvent(ctx, fmt.Sprintf("/v1/trucks/%s/speeds", truckID), speed)
}

// PostDriveState sends a TruckDriveState reading.
func (c *Client) PostDriveState(ctx context.Context, truckID string, ds DriveStatePayload) error {
	return c.postEvent(ctx, fmt.Sprintf("/v1/trucks/%s/driveStates", truckID), ds)
}

// CreateDriverCard inserts a driver card. 409 (already present) is treated
// as success.
func (c *Client) CreateDriverCard(ctx context.Context, truckID string, card DriverCardCreatePayload) error {
	return c.postEvent(ctx, fmt.Sprintf("/v1/trucks/%s/driverCards", truckID), card, http.StatusConflict)
}

// DeleteDriverCard removes the current driver card for a truck. 404 (no
// card present) is treated as success. The removal time travels as a
// header, not a body.
func (c *Client) DeleteDriverCard(ctx context.Context, truckID, cardID string, removedAt time.Time) error {
	path := fmt.Sprintf("/v1/trucks/%s/driverCards/%s", truckID, cardID)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Driver-Card-Removed-At", removedAt.Format(time.RFC3339))

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	return classify(resp.StatusCode, "DELETE "+path, http.StatusNotFound)
}

// PostOdometerReading sends a TruckOdometerReading.
func (c *Client) PostOdometerReading(ctx context.Context, truckID string, o OdometerPayload) error {
	return c.postEvent(ctx, fmt.Sprintf("/v1/trucks/%s/odometerReadings", truckID), o)
}

// PostTemperatureReading sends a single TemperatureReading. The endpoint is
// not truck-scoped: it carries its own source imei/type.
func (c *Client) PostTemperatureReading(ctx context.Context, t TemperaturePayload) error {
	return c.postEvent(ctx, "/v1/temperatureReadings", t)
}
