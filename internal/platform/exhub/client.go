package exhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "exhub-store-bot/internal/common/errors"
)

// KeyInfo is the canonical key record the API stores.
type KeyInfo struct {
	Token          string `json:"token"`
	CreatedAt      int64  `json:"createdAt"`
	ByIP           string `json:"byIp,omitempty"`
	ExpiresAfter   int64  `json:"expiresAfter"`
	Type           string `json:"type,omitempty"`
	OwnerDiscordID string `json:"ownerDiscordId,omitempty"`
}

// ValidateResult is the validate endpoint's response. Valid means the
// key has been redeemed; a fresh unredeemed key is valid=false.
type ValidateResult struct {
	Valid   bool     `json:"valid"`
	Deleted bool     `json:"deleted"`
	Expired bool     `json:"expired"`
	Info    *KeyInfo `json:"info"`
}

// UpsertPayload creates or updates a key record.
type UpsertPayload struct {
	Valid   bool    `json:"valid"`
	Deleted bool    `json:"deleted"`
	Expired bool    `json:"expired"`
	Info    KeyInfo `json:"info"`
}

// RawKey is one entry of the user-info key list. The API has grown
// several field spellings over time, so every known alias is mapped and
// normalization happens in the keys service.
type RawKey struct {
	Token    string `json:"token,omitempty"`
	Key      string `json:"key,omitempty"`
	KeyToken string `json:"keyToken,omitempty"`

	Provider string `json:"provider,omitempty"`
	Source   string `json:"source,omitempty"`
	Tier     string `json:"tier,omitempty"`
	Type     string `json:"type,omitempty"`
	Free     bool   `json:"free,omitempty"`

	OwnerDiscordID string          `json:"ownerDiscordId,omitempty"`
	CreatedAt      json.RawMessage `json:"createdAt,omitempty"`
	ExpiresAfter   json.RawMessage `json:"expiresAfter,omitempty"`
	ExpiresAtMs    json.RawMessage `json:"expiresAtMs,omitempty"`
	ExpiresAt      json.RawMessage `json:"expiresAt,omitempty"`

	Valid   *bool `json:"valid,omitempty"`
	Deleted bool  `json:"deleted,omitempty"`
	Expired bool  `json:"expired,omitempty"`

	Info *RawKey `json:"info,omitempty"`
}

// ResolveToken returns the first non-empty token alias, descending into
// the nested info record.
func (k *RawKey) ResolveToken() string {
	for _, t := range []string{k.Token, k.Key, k.KeyToken} {
		if t != "" {
			return t
		}
	}
	if k.Info != nil {
		return k.Info.ResolveToken()
	}
	return ""
}

// Client calls the ExHub paid-key API.
type Client struct {
	httpClient   *http.Client
	validateBase string
	createURL    string
	userInfoURL  string
}

func NewClient(validateBase, createURL, userInfoURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		validateBase: strings.TrimRight(validateBase, "/"),
		createURL:    createURL,
		userInfoURL:  userInfoURL,
	}
}

// Validate looks a key up. A missing Info means the key does not exist.
func (c *Client) Validate(ctx context.Context, key string) (*ValidateResult, error) {
	endpoint := c.validateBase + "/" + url.PathEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewRemoteCallError("failed to build validate request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewRemoteCallError("key validate request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewRemoteCallError(
			fmt.Sprintf("key validate returned status %d", resp.StatusCode), nil)
	}

	var res ValidateResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, apperrors.NewRemoteCallError("failed to decode validate response", err)
	}
	return &res, nil
}

// Upsert creates or updates a key record.
func (c *Client) Upsert(ctx context.Context, payload UpsertPayload) error {
	if c.createURL == "" {
		return apperrors.NewRemoteCallError("key create URL is not configured", nil)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewRemoteCallError("failed to encode key payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.createURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewRemoteCallError("failed to build key upsert request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewRemoteCallError("key upsert request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return apperrors.NewRemoteCallError(
			fmt.Sprintf("key upsert returned status %d: %s", resp.StatusCode, raw), nil)
	}
	return nil
}

// UserKeys lists every key the API holds for a Discord user. A response
// without a keys array is treated as an empty list.
func (c *Client) UserKeys(ctx context.Context, discordID, discordTag string) ([]RawKey, error) {
	if c.userInfoURL == "" {
		return nil, apperrors.NewRemoteCallError("user-info URL is not configured", nil)
	}

	body, err := json.Marshal(map[string]string{
		"discordId":  discordID,
		"discordTag": discordTag,
	})
	if err != nil {
		return nil, apperrors.NewRemoteCallError("failed to encode user-info request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.userInfoURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewRemoteCallError("failed to build user-info request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewRemoteCallError("user-info request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewRemoteCallError(
			fmt.Sprintf("user-info returned status %d", resp.StatusCode), nil)
	}

	var res struct {
		Keys []RawKey `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, apperrors.NewRemoteCallError("failed to decode user-info response", err)
	}
	return res.Keys, nil
}

// MsValue converts a createdAt/expiresAfter field that may arrive as a
// JSON number or a numeric string.
func MsValue(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var parsed int64
		if _, err := fmt.Sscanf(s, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}
