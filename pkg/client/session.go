package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/latsic/idbridge/internal/api"
)

// Session resolves a session token to its descriptor. Useful for debugging
// issued sessions.
func (c *Client) Session(ctx context.Context, sessionToken string) (*api.SessionResponse, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url().
		setPath(api.SessionRoute).
		build(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("connection failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, correlationFromResponse(resp), parseErrorResponse(resp)
	}

	var session api.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, correlationFromResponse(resp), fmt.Errorf("failed to decode response: %w", err)
	}
	return &session, correlationFromResponse(resp), nil
}
