package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "exhub-store-bot/internal/common/errors"
)

const usersEndpoint = "https://users.roblox.com/v1/usernames/users"

// User is a resolved Roblox account.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Client resolves Roblox usernames.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoint: usersEndpoint,
	}
}

// LookupUser resolves an exact username, excluding banned accounts.
// Returns nil when no account matches.
func (c *Client) LookupUser(ctx context.Context, username string) (*User, error) {
	body, err := json.Marshal(map[string]interface{}{
		"usernames":          []string{username},
		"excludeBannedUsers": true,
	})
	if err != nil {
		return nil, apperrors.NewRemoteCallError("failed to encode username lookup", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewRemoteCallError("failed to build username lookup", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewRemoteCallError("username lookup request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewRemoteCallError(
			fmt.Sprintf("username lookup returned status %d", resp.StatusCode), nil)
	}

	var res struct {
		Data []User `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, apperrors.NewRemoteCallError("failed to decode username lookup response", err)
	}
	if len(res.Data) == 0 {
		return nil, nil
	}
	return &res.Data[0], nil
}

// AvatarURL returns the headshot thumbnail URL for a user.
func AvatarURL(userID int64) string {
	return fmt.Sprintf(
		"https://www.roblox.com/headshot-thumbnail/image?userId=%d&width=150&height=150&format=png",
		userID)
}
