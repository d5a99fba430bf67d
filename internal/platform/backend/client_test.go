package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "exhub-store-bot/internal/common/errors"
)

func TestCreateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/giveaways", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req CreateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "msg-1", req.MessageID)
		assert.Equal(t, 3, req.WinnersCount)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]string{
				"giveawayId": "remote-1",
				"summaryUrl": "https://gw.example/remote-1",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	res, err := c.Create(context.Background(), CreateRequest{
		MessageID:    "msg-1",
		Prize:        "Key",
		WinnersCount: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "remote-1", res.GiveawayID)
	assert.Equal(t, "https://gw.example/remote-1", res.SummaryURL)
}

func TestCreateMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": map[string]string{}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Create(context.Background(), CreateRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRemoteCall))
}

func TestJoinReturnsCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/giveaways/remote-1/join", r.URL.Path)

		var p Participant
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, "alice", p.ID)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]int{"participantsCount": 7},
		})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "").Join(context.Background(), "remote-1",
		Participant{ID: "alice", Username: "alice#1"})
	require.NoError(t, err)
	assert.Equal(t, 7, res.ParticipantsCount)
}

func TestEndReturnsWinners(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/giveaways/remote-1/end", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"winners":    []map[string]string{{"id": "bob", "username": "bob#2"}},
				"summaryUrl": "https://gw.example/remote-1/summary",
			},
		})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "").End(context.Background(), "remote-1")
	require.NoError(t, err)
	require.Len(t, res.Winners, 1)
	assert.Equal(t, "bob", res.Winners[0].ID)
	assert.Equal(t, "https://gw.example/remote-1/summary", res.SummaryURL)
}

func TestNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").End(context.Background(), "remote-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRemoteCall))
}

func TestSuccessFalseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "giveaway closed"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Join(context.Background(), "remote-1", Participant{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giveaway closed")
}

func TestTransportErrorIsError(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", "").End(context.Background(), "remote-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRemoteCall))
}

func TestEnabled(t *testing.T) {
	assert.False(t, (*Client)(nil).Enabled())
	assert.False(t, NewClient("", "").Enabled())
	assert.True(t, NewClient("http://x", "").Enabled())
}
