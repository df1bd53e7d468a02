package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/houseplants-app/plants-api/api"
	"github.com/houseplants-app/plants-api/interfaces"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("plants API returned %d", e.Status)
	}
	return fmt.Sprintf("plants API returned %d: %s", e.Status, e.Message)
}

// PlantsClient talks to the plants API over HTTP.
type PlantsClient struct {
	// ServerAddr is the base URL, e.g. http://127.0.0.1:8080/api/v1
	ServerAddr string

	// Token is sent as a bearer credential.
	Token string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

var _ api.PlantsAPI = (*PlantsClient)(nil)

func (c *PlantsClient) Me(ctx context.Context) (*interfaces.UserProfile, error) {
	var profile interfaces.UserProfile
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *PlantsClient) CreatePlant(ctx context.Context, in *interfaces.PlantInput) (string, error) {
	return c.doID(ctx, http.MethodPost, "/plants", in)
}

func (c *PlantsClient) ListPlants(ctx context.Context) ([]api.PlantItem, error) {
	var items []api.PlantItem
	if err := c.do(ctx, http.MethodGet, "/plants", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *PlantsClient) UpdatePlant(ctx context.Context, plantID string, patch interfaces.PlantPatch) (string, error) {
	return c.doID(ctx, http.MethodPut, "/plants/"+url.PathEscape(plantID), patch)
}

func (c *PlantsClient) DeletePlant(ctx context.Context, plantID string) error {
	return c.do(ctx, http.MethodDelete, "/plants/"+url.PathEscape(plantID), nil, nil)
}

func (c *PlantsClient) CreateRoom(ctx context.Context, in *interfaces.RoomInput) (string, error) {
	return c.doID(ctx, http.MethodPost, "/rooms", in)
}

func (c *PlantsClient) ListRooms(ctx context.Context) ([]api.RoomItem, error) {
	var items []api.RoomItem
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *PlantsClient) UpdateRoom(ctx context.Context, roomID string, in *interfaces.RoomInput) (string, error) {
	return c.doID(ctx, http.MethodPut, "/rooms/"+url.PathEscape(roomID), in)
}

func (c *PlantsClient) DeleteRoom(ctx context.Context, roomID string) error {
	return c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(roomID), nil, nil)
}

func (c *PlantsClient) AddWatering(ctx context.Context, plantID string, in *interfaces.WateringInput) (string, error) {
	return c.doID(ctx, http.MethodPost, wateringsPath(plantID), in)
}

func (c *PlantsClient) ListWaterings(ctx context.Context, plantID string) ([]interfaces.WateringRecord, error) {
	var records []interfaces.WateringRecord
	if err := c.do(ctx, http.MethodGet, wateringsPath(plantID), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *PlantsClient) UpdateWatering(ctx context.Context, plantID, wateringID string, patch interfaces.WateringPatch) (string, error) {
	return c.doID(ctx, http.MethodPut, wateringsPath(plantID)+"/"+url.PathEscape(wateringID), patch)
}

func (c *PlantsClient) DeleteWatering(ctx context.Context, plantID, wateringID string) error {
	return c.do(ctx, http.MethodDelete, wateringsPath(plantID)+"/"+url.PathEscape(wateringID), nil, nil)
}

func wateringsPath(plantID string) string {
	return "/plants/" + url.PathEscape(plantID) + "/waterings"
}

func (c *PlantsClient) doID(ctx context.Context, method, path string, body any) (string, error) {
	var resp api.IDResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// do sends one request and decodes the envelope's data into out when out is non-nil.
func (c *PlantsClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ServerAddr+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	var env struct {
		Status  int             `json:"status"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(raw))}
		}
		return fmt.Errorf("could not parse response envelope: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("could not parse response data: %w", err)
	}
	return nil
}
