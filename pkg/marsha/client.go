// Package marsha is a client for the Marsha API endpoints called back by the
// media pipeline to report upload and live states.
package marsha

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/openfun/marsha-lambdas/pkg/build"
	"github.com/openfun/marsha-lambdas/pkg/types"
)

// SignatureHeader carries the HMAC of the request body
const SignatureHeader = "X-Marsha-Signature"

const updateStatePath = "/api/update-state"

// StatusError is returned when the API answers with a non 2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func errFromResponse(res *http.Response) *StatusError {
	err := &StatusError{StatusCode: res.StatusCode}

	message, merr := io.ReadAll(res.Body)
	if merr != nil {
		err.Body = merr.Error()
	} else {
		err.Body = string(message)
	}
	return err
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http request failed, status: %d %s, message: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// ExtraParameters are state specific details sent along a state update.
type ExtraParameters struct {
	Resolutions []int `json:"resolutions,omitempty"`
}

// LiveStateUpdate is the body of an update-live-state call. LogGroupName and
// RequestID identify the reporting lambda invocation.
type LiveStateUpdate struct {
	LogGroupName    string           `json:"logGroupName"`
	RequestID       string           `json:"requestId"`
	State           types.LiveState  `json:"state"`
	ExtraParameters *ExtraParameters `json:"extraParameters,omitempty"`
}

// StateUpdate is the body of an update-state call for an uploaded object.
type StateUpdate struct {
	Key             string            `json:"key"`
	State           types.UploadState `json:"state"`
	ExtraParameters *ExtraParameters  `json:"extraParameters,omitempty"`
}

// ComputeSignature returns the hex encoded HMAC-SHA256 of body keyed with the
// secret shared with the Marsha backend.
func ComputeSignature(secret []byte, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Client sends signed state updates to a Marsha instance.
type Client struct {
	baseURL    url.URL
	secret     []byte
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient configures the HTTP client used to send updates.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a client for the Marsha instance at baseURL.
func New(baseURL string, secret string, options ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing marsha URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("marsha URL must be absolute: %q", baseURL)
	}
	c := Client{
		baseURL:    *u,
		secret:     []byte(secret),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(&c)
	}
	return &c, nil
}

// UpdateLiveState reports a new live state for the video.
func (c *Client) UpdateLiveState(ctx context.Context, videoID string, update LiveStateUpdate) error {
	endpoint := c.baseURL.JoinPath("api", "videos", videoID, "update-live-state/")
	return c.send(ctx, http.MethodPatch, endpoint.String(), update)
}

// UpdateState reports a new upload state for the object behind update.Key.
func (c *Client) UpdateState(ctx context.Context, update StateUpdate) error {
	return c.send(ctx, http.MethodPost, c.baseURL.JoinPath(updateStatePath).String(), update)
}

func (c *Client) send(ctx context.Context, method string, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializing request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", build.UserAgent)
	req.Header.Set(SignatureHeader, ComputeSignature(c.secret, body))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending %s %s: %w", method, endpoint, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errFromResponse(res)
	}
	return nil
}
