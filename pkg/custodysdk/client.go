package custodysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the custody HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token is the gateway bearer token. Empty sends no Authorization header.
	Token string
}

// NewClient returns a client with a 10 second timeout.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Token:      token,
	}
}

// EnrollMessage forwards a raw "<password> <private key>" chat message.
func (c *Client) EnrollMessage(ctx context.Context, userID, message string) (*ProfileResponse, error) {
	return c.enroll(ctx, EnrollmentRequest{UserID: userID, Message: message})
}

// Enroll sends the password and key as separate fields.
func (c *Client) Enroll(ctx context.Context, userID, password, privateKey string) (*ProfileResponse, error) {
	return c.enroll(ctx, EnrollmentRequest{UserID: userID, Password: password, PrivateKey: privateKey})
}

func (c *Client) enroll(ctx context.Context, req EnrollmentRequest) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodPost, "/v1/enrollments", req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the public address of an enrolled user.
func (c *Client) Profile(ctx context.Context, userID string) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IsEnrolled reports whether userID has a record.
func (c *Client) IsEnrolled(ctx context.Context, userID string) (bool, error) {
	_, err := c.Profile(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotEnrolled):
		return false, nil
	default:
		return false, err
	}
}

// VerifyPassword checks password against the stored secret without revealing it.
func (c *Client) VerifyPassword(ctx context.Context, userID, password string) (*VerifyResponse, error) {
	var out VerifyResponse
	path := "/v1/users/" + url.PathEscape(userID) + "/verify"
	if err := c.do(ctx, http.MethodPost, path, VerifyRequest{Password: password}, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready calls /readyz.
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		apiErr.Code = body.Error
		apiErr.Description = body.ErrorDescription
	}
	if apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
