package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type graphErrorPayload struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
}

type graphResponse struct {
	ID          string             `json:"id"`
	PostID      string             `json:"post_id"`
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresIn   int64              `json:"expires_in"`
	Error       *graphErrorPayload `json:"error"`
}

// postGraph POSTs a JSON payload to a Graph API endpoint and decodes the
// response. A platform error payload wins over the HTTP status so the exact
// platform message survives into the post's error field.
func postGraph(ctx context.Context, platform, url string, payload map[string]interface{}) (*graphResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	return decodeGraph(platform, resp)
}

// getGraph issues a GET against a Graph API endpoint, used by the token flows.
func getGraph(ctx context.Context, platform, url string) (*graphResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	if resp.Body != nil {
		defer resp.Body.Close()
	}

	return decodeGraph(platform, resp)
}

func decodeGraph(platform string, resp *http.Response) (*graphResponse, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var result graphResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	if result.Error != nil {
		return nil, &PlatformAPIError{
			Platform: platform,
			Code:     result.Error.Code,
			Message:  result.Error.Message,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from %s: %d", platform, resp.StatusCode)
	}

	return &result, nil
}
