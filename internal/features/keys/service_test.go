package keys

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exhub-store-bot/internal/platform/exhub"
)

type fakeAPI struct {
	validateRes *exhub.ValidateResult
	validateErr error
	upserts     []exhub.UpsertPayload
	upsertErr   error
	userKeys    []exhub.RawKey
	userKeysErr error
}

func (f *fakeAPI) Validate(_ context.Context, _ string) (*exhub.ValidateResult, error) {
	return f.validateRes, f.validateErr
}

func (f *fakeAPI) Upsert(_ context.Context, payload exhub.UpsertPayload) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, payload)
	return nil
}

func (f *fakeAPI) UserKeys(_ context.Context, _, _ string) ([]exhub.RawKey, error) {
	return f.userKeys, f.userKeysErr
}

func fixedNow(s *Service, t time.Time) {
	s.now = func() time.Time { return t }
}

func TestNormalizeType(t *testing.T) {
	tests := map[string]string{
		"month":        TypeMonth,
		"Monthly":      TypeMonth,
		"sebulan":      TypeMonth,
		"1bulan":       TypeMonth,
		"30d":          TypeMonth,
		"LIFETIME":     TypeLifetime,
		"life":         TypeLifetime,
		"selamanya":    TypeLifetime,
		"permanentkey": TypeLifetime,
		"":             "",
		"Custom":       "custom",
	}
	for raw, want := range tests {
		assert.Equal(t, want, NormalizeType(raw), "raw=%q", raw)
	}
}

func TestGenerateMonthKey(t *testing.T) {
	api := &fakeAPI{}
	s := NewService(api)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedNow(s, now)

	key, err := s.Generate(context.Background(), "month", "owner-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key.Token, "EXHUBPAID-"))
	assert.Len(t, strings.TrimPrefix(key.Token, "EXHUBPAID-"), 8)
	assert.Equal(t, key.Token, strings.ToUpper(key.Token))
	assert.Equal(t, TypeMonth, key.Type)
	assert.Equal(t, now.UnixMilli()+int64(30*24*time.Hour/time.Millisecond), key.ExpiresAfter)

	require.Len(t, api.upserts, 1)
	p := api.upserts[0]
	assert.False(t, p.Valid, "a fresh key starts unredeemed")
	assert.Equal(t, "owner-1", p.Info.OwnerDiscordID)
	assert.Equal(t, TypeMonth, p.Info.Type)
	assert.Equal(t, now.UnixMilli(), p.Info.CreatedAt)
	assert.Equal(t, key.ExpiresAfter, p.Info.ExpiresAfter)
}

func TestGenerateLifetimeKeyLastsAYear(t *testing.T) {
	api := &fakeAPI{}
	s := NewService(api)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fixedNow(s, now)

	key, err := s.Generate(context.Background(), "lifetime", "owner-1")
	require.NoError(t, err)

	require.Len(t, api.upserts, 1)
	want := now.UnixMilli() + int64(365*24*time.Hour/time.Millisecond)
	assert.Equal(t, want, key.ExpiresAfter)
	assert.Equal(t, want, api.upserts[0].Info.ExpiresAfter)
}

func TestGenerateRejectsUnknownType(t *testing.T) {
	s := NewService(&fakeAPI{})
	_, err := s.Generate(context.Background(), "weekly", "owner-1")
	assert.ErrorIs(t, err, ErrKeyUntyped)
}

func validKey(keyType, owner string) *exhub.ValidateResult {
	return &exhub.ValidateResult{
		Info: &exhub.KeyInfo{
			Token:          "EXHUBPAID-AABBCCDD",
			CreatedAt:      1000,
			ExpiresAfter:   2000,
			Type:           keyType,
			OwnerDiscordID: owner,
		},
	}
}

func TestRedeemSuccess(t *testing.T) {
	api := &fakeAPI{validateRes: validKey("month", "")}
	s := NewService(api)

	err := s.Redeem(context.Background(), "exhubpaid-aabbccdd", "month", "user-1")
	require.NoError(t, err)

	require.Len(t, api.upserts, 1)
	p := api.upserts[0]
	assert.True(t, p.Valid)
	assert.Equal(t, "EXHUBPAID-AABBCCDD", p.Info.Token, "key is uppercased before lookup")
	assert.Equal(t, "user-1", p.Info.OwnerDiscordID, "unbound key binds to the redeemer")
	assert.Equal(t, int64(1000), p.Info.CreatedAt, "original timestamps are preserved")
	assert.Equal(t, int64(2000), p.Info.ExpiresAfter)
}

func TestRedeemChecks(t *testing.T) {
	tests := []struct {
		name string
		res  *exhub.ValidateResult
		want error
	}{
		{"not found", &exhub.ValidateResult{}, ErrKeyNotFound},
		{"deleted", &exhub.ValidateResult{Deleted: true, Info: &exhub.KeyInfo{Type: "month"}}, ErrKeyDeleted},
		{"expired", &exhub.ValidateResult{Expired: true, Info: &exhub.KeyInfo{Type: "month"}}, ErrKeyExpired},
		{"already redeemed", &exhub.ValidateResult{Valid: true, Info: &exhub.KeyInfo{Type: "month"}}, ErrKeyAlreadyRedeemed},
		{"untyped", &exhub.ValidateResult{Info: &exhub.KeyInfo{}}, ErrKeyUntyped},
		{"wrong type", validKey("lifetime", ""), ErrKeyTypeMismatch},
		{"bound to someone else", validKey("month", "user-2"), ErrKeyOwnerMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{validateRes: tt.res}
			s := NewService(api)
			err := s.Redeem(context.Background(), "EXHUBPAID-AABBCCDD", "month", "user-1")
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, api.upserts, "a failed redeem must not write")
		})
	}
}

func TestRedeemKeepsExistingOwner(t *testing.T) {
	api := &fakeAPI{validateRes: validKey("month", "user-1")}
	s := NewService(api)

	require.NoError(t, s.Redeem(context.Background(), "EXHUBPAID-AABBCCDD", "month", "user-1"))
	require.Len(t, api.upserts, 1)
	assert.Equal(t, "user-1", api.upserts[0].Info.OwnerDiscordID)
}

func ms(v int64) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func TestUserKeysFiltersAndDerivesStatus(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	api := &fakeAPI{userKeys: []exhub.RawKey{
		{Token: "K-ACTIVE", Type: "month", Valid: boolPtr(true),
			CreatedAt: ms(100), ExpiresAfter: ms(now.Add(time.Hour).UnixMilli())},
		{Token: "K-ACTIVE", Type: "month"}, // duplicate token dropped
		{Token: "K-FREE", Type: "free"},
		{Token: "K-WORKINK", Provider: "work.ink", Type: "month"},
		{Token: "K-OTHER", Type: "month", OwnerDiscordID: "someone-else"},
		{Token: "K-DELETED", Type: "lifetime", Deleted: true, CreatedAt: ms(50)},
		{Token: "K-EXPIRED", Type: "month", Valid: boolPtr(true),
			CreatedAt: ms(75), ExpiresAfter: ms(now.Add(-time.Hour).UnixMilli())},
		{Token: "K-FRESH", Type: "month", Valid: boolPtr(false), CreatedAt: ms(25)},
		{Info: &exhub.RawKey{Key: "K-NESTED", Type: "lifetime", Valid: boolPtr(true)}, CreatedAt: ms(10)},
		{}, // no token at all
	}}
	s := NewService(api)
	fixedNow(s, now)

	got := s.UserKeys(context.Background(), "user-1", "user#1")
	require.Len(t, got, 5)

	byToken := map[string]PaidKey{}
	for _, k := range got {
		byToken[k.Token] = k
	}

	assert.Equal(t, "Active", byToken["K-ACTIVE"].Status)
	assert.Equal(t, "Deleted", byToken["K-DELETED"].Status)
	assert.Equal(t, "Expired", byToken["K-EXPIRED"].Status)
	assert.Equal(t, "Not Redeemed", byToken["K-FRESH"].Status)
	assert.Equal(t, "Active", byToken["K-NESTED"].Status)
	assert.Equal(t, TypeLifetime, byToken["K-NESTED"].Type)

	assert.NotContains(t, byToken, "K-FREE")
	assert.NotContains(t, byToken, "K-WORKINK")
	assert.NotContains(t, byToken, "K-OTHER")

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].CreatedAt, got[i].CreatedAt, "sorted by creation time")
	}
}

func TestUserKeysRemoteFailureIsEmpty(t *testing.T) {
	api := &fakeAPI{userKeysErr: assert.AnError}
	s := NewService(api)
	assert.Empty(t, s.UserKeys(context.Background(), "user-1", "user#1"))
}
