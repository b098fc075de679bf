package ambulance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gateway talks to the regional ambulance provider's REST API. It runs in
// parallel with responder dispatch; a failed call never blocks the
// broadcast path.
type Gateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type DispatchRequest struct {
	EmergencyID   string  `json:"emergency_id"`
	EmergencyType string  `json:"emergency_type"`
	Priority      string  `json:"priority"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	PatientName   string  `json:"patient_name,omitempty"`
	PatientPhone  string  `json:"patient_phone,omitempty"`
	Description   string  `json:"description,omitempty"`
}

type DispatchResponse struct {
	DispatchID   string `json:"dispatch_id"`
	Status       string `json:"status"`
	ETAMinutes   int    `json:"eta_minutes"`
	UnitCallsign string `json:"unit_callsign,omitempty"`
}

type StatusResponse struct {
	DispatchID string  `json:"dispatch_id"`
	Status     string  `json:"status"`
	ETAMinutes int     `json:"eta_minutes"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
}

type AvailabilityResponse struct {
	AvailableUnits int  `json:"available_units"`
	Accepting      bool `json:"accepting"`
}

func NewGateway(config *Config) *Gateway {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Gateway{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether a provider endpoint is set. Deployments
// without an ambulance contract run with the gateway disabled.
func (g *Gateway) Configured() bool {
	return g.baseURL != ""
}

func (g *Gateway) RequestDispatch(ctx context.Context, request *DispatchRequest) (*DispatchResponse, error) {
	var response DispatchResponse
	if err := g.post(ctx, "/v1/dispatches", request, &response); err != nil {
		return nil, fmt.Errorf("ambulance dispatch request failed: %w", err)
	}

	return &response, nil
}

func (g *Gateway) GetDispatchStatus(ctx context.Context, dispatchID string) (*StatusResponse, error) {
	var response StatusResponse
	if err := g.get(ctx, "/v1/dispatches/"+dispatchID, &response); err != nil {
		return nil, fmt.Errorf("ambulance status request failed: %w", err)
	}

	return &response, nil
}

func (g *Gateway) CancelDispatch(ctx context.Context, dispatchID string, reason string) error {
	payload := map[string]string{"reason": reason}
	if err := g.post(ctx, "/v1/dispatches/"+dispatchID+"/cancel", payload, nil); err != nil {
		return fmt.Errorf("ambulance cancel request failed: %w", err)
	}

	return nil
}

func (g *Gateway) CheckAvailability(ctx context.Context) (*AvailabilityResponse, error) {
	var response AvailabilityResponse
	if err := g.get(ctx, "/v1/availability", &response); err != nil {
		return nil, fmt.Errorf("ambulance availability request failed: %w", err)
	}

	return &response, nil
}

func (g *Gateway) post(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	return g.do(req, dest)
}

func (g *Gateway) get(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return err
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	return g.do(req, dest)
}

func (g *Gateway) do(req *http.Request, dest interface{}) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if dest == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}
