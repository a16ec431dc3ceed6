// Package authapi is the client for the organizer backend's auth and profile
// endpoints.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client defines the interface for interacting with the organizer API.
type Client interface {
	SendOTP(ctx context.Context, mobileNumber string) (*SendOTPResponse, error)
	VerifyOTP(ctx context.Context, mobileNumber, otp string) (*VerifyOTPResponse, error)
	SignUp(ctx context.Context, token string, req SignUpRequest) (*SignUpResponse, error)
	Profile(ctx context.Context, token string) (*Organizer, error)
}

type clientImpl struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient creates a new organizer API client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) Client {
	return &clientImpl{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (c *clientImpl) SendOTP(ctx context.Context, mobileNumber string) (*SendOTPResponse, error) {
	payload := map[string]string{"mobileNumber": mobileNumber}

	var resp SendOTPResponse
	status, body, err := c.do(ctx, http.MethodPost, "auth/send-otp", "", payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, newAPIError(status, body)
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		if status/100 != 2 {
			return nil, newAPIError(status, body)
		}
		return nil, fmt.Errorf("error parsing send-otp response: %w", err)
	}
	// A still-cooling-down dispatch comes back non-2xx with a structured
	// body; that is an outcome for the caller, not a transport failure.
	if status/100 != 2 {
		if !resp.ShouldRedirect && resp.Error == "" && resp.Message == "" {
			return nil, newAPIError(status, body)
		}
		resp.Success = false
	}

	c.log.Debug("send-otp answered",
		zap.Int("status", status),
		zap.Bool("success", resp.Success),
		zap.Bool("should_redirect", resp.ShouldRedirect))
	return &resp, nil
}

func (c *clientImpl) VerifyOTP(ctx context.Context, mobileNumber, otp string) (*VerifyOTPResponse, error) {
	payload := map[string]string{"mobileNumber": mobileNumber, "otp": otp}

	status, body, err := c.do(ctx, http.MethodPost, "auth/verify-otp", "", payload)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, newAPIError(status, body)
	}

	var resp VerifyOTPResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error parsing verify-otp response: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("error from organizer API: verify-otp returned no token")
	}
	return &resp, nil
}

func (c *clientImpl) SignUp(ctx context.Context, token string, req SignUpRequest) (*SignUpResponse, error) {
	status, body, err := c.do(ctx, http.MethodPost, "auth/sign-up", token, req)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, newAPIError(status, body)
	}

	var resp SignUpResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if status/100 != 2 {
			return nil, newAPIError(status, body)
		}
		return nil, fmt.Errorf("error parsing sign-up response: %w", err)
	}
	if status/100 != 2 {
		resp.Success = false
	}
	return &resp, nil
}

func (c *clientImpl) Profile(ctx context.Context, token string) (*Organizer, error) {
	status, body, err := c.do(ctx, http.MethodGet, "organizer/profile", token, nil)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		return nil, newAPIError(status, body)
	}

	var resp Organizer
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error parsing profile response: %w", err)
	}
	return &resp, nil
}

func (c *clientImpl) do(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return 0, nil, fmt.Errorf("error building URL for %s: %w", path, err)
	}

	var reqBody io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("error creating payload: %w", err)
		}
		reqBody = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("organizer API request failed", zap.String("path", path), zap.Error(err))
		return 0, nil, fmt.Errorf("error calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("error reading response: %w", err)
	}

	c.log.Debug("organizer API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))
	return resp.StatusCode, body, nil
}

func newAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		msg = envelope.Message
		if envelope.Error != "" {
			msg = envelope.Error
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}
