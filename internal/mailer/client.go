package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaiac/backend/internal/config"
)

// Client talks to the external mail-provisioning API. Provisioning is
// idempotent on the domain name, so queue redeliveries are safe.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.MailAPIURL,
		apiKey:  cfg.MailAPIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type provisionRequest struct {
	Domain string `json:"domain"`
}

type provisionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProvisionDomain creates the domain on the mail platform
func (c *Client) ProvisionDomain(ctx context.Context, domain string) error {
	body, err := json.Marshal(provisionRequest{Domain: domain})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/domains", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create provision request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail API unreachable: %w", err)
	}
	defer resp.Body.Close()

	// The mail platform answers 409 when the domain already exists, which is
	// success for a redelivered message
	if resp.StatusCode == http.StatusConflict {
		return nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var parsed provisionResponse
		if json.Unmarshal(data, &parsed) == nil && parsed.Message != "" {
			return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, parsed.Message)
		}
		return fmt.Errorf("mail API returned %d", resp.StatusCode)
	}

	return nil
}
