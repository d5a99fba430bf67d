package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "exhub-store-bot/internal/common/errors"
)

// Participant is an entrant or winner as the backend reports it.
type Participant struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
}

// CreateResult is the backend's acknowledgement of a registered giveaway.
type CreateResult struct {
	GiveawayID string `json:"giveawayId"`
	SummaryURL string `json:"summaryUrl,omitempty"`
}

// JoinResult carries the backend's authoritative participant count.
type JoinResult struct {
	ParticipantsCount int `json:"participantsCount"`
}

// EndResult is the backend's view of a finished giveaway. Winners may be
// empty when the backend leaves selection to the caller.
type EndResult struct {
	Winners      []Participant `json:"winners,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	SummaryURL   string        `json:"summaryUrl,omitempty"`
}

// CreateRequest registers a giveaway with the backend.
type CreateRequest struct {
	GuildID      string `json:"guildId"`
	ChannelID    string `json:"channelId"`
	MessageID    string `json:"messageId"`
	Prize        string `json:"prize"`
	Description  string `json:"description,omitempty"`
	WinnersCount int    `json:"winnersCount"`
	HostID       string `json:"hostId"`
	EndAt        int64  `json:"endAt"`
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client talks to the giveaway web backend. All methods return a
// REMOTE_CALL_FAILURE AppError on transport errors, non-2xx statuses and
// success=false envelopes; callers treat those as best-effort failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		token:   token,
	}
}

// Enabled reports whether a backend base URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Create registers a new giveaway and returns its remote id and summary
// page URL.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	var res CreateResult
	if err := c.do(ctx, http.MethodPost, "/api/giveaways", req, &res); err != nil {
		return nil, err
	}
	if res.GiveawayID == "" {
		return nil, apperrors.NewRemoteCallError("backend returned no giveaway id", nil)
	}
	return &res, nil
}

// Join mirrors a participant into a remote giveaway and returns the
// authoritative participant count.
func (c *Client) Join(ctx context.Context, remoteID string, p Participant) (*JoinResult, error) {
	var res JoinResult
	path := fmt.Sprintf("/api/giveaways/%s/join", remoteID)
	if err := c.do(ctx, http.MethodPost, path, p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// End finishes a remote giveaway. The backend may pick the winners
// itself; when it does they are returned verbatim.
func (c *Client) End(ctx context.Context, remoteID string) (*EndResult, error) {
	var res EndResult
	path := fmt.Sprintf("/api/giveaways/%s/end", remoteID)
	if err := c.do(ctx, http.MethodPost, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewRemoteCallError("failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewRemoteCallError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewRemoteCallError("backend request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewRemoteCallError("failed to read backend response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewRemoteCallError(
			fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperrors.NewRemoteCallError("failed to decode backend response", err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return apperrors.NewRemoteCallError(msg, nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return apperrors.NewRemoteCallError("failed to decode backend payload", err)
		}
	}
	return nil
}
