package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/config"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
)

// HTTPProvider talks to the broadcast platform's management API.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(cfg config.ProviderConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type createChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// CreateChannel provisions a broadcast channel and returns the ingest
// and playback endpoints.
func (p *HTTPProvider) CreateChannel(ctx context.Context, stream *domain.LiveStream) (*Channel, error) {
	body := createChannelRequest{
		Name:        stream.Title,
		Description: stream.Description,
	}

	var channel Channel
	if err := p.do(ctx, http.MethodPost, "/v1/channels", body, &channel); err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	return &channel, nil
}

// NotifyStatus tells the provider the stream's lifecycle changed.
func (p *HTTPProvider) NotifyStatus(ctx context.Context, externalID string, status domain.StreamStatus) error {
	path := fmt.Sprintf("/v1/channels/%s/status", externalID)
	if err := p.do(ctx, http.MethodPut, path, statusRequest{Status: string(status)}, nil); err != nil {
		return fmt.Errorf("notify status: %w", err)
	}
	return nil
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
