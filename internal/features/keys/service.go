package keys

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"exhub-store-bot/internal/common/logger"
	"exhub-store-bot/internal/platform/exhub"
	"exhub-store-bot/internal/utils/random"
)

// Key types the store sells.
const (
	TypeMonth    = "month"
	TypeLifetime = "lifetime"
)

const (
	monthDuration    = 30 * 24 * time.Hour
	lifetimeDuration = 365 * 24 * time.Hour
)

// Redeem failure reasons, surfaced to the user verbatim by the command
// layer.
var (
	ErrKeyNotFound        = errors.New("key not found")
	ErrKeyDeleted         = errors.New("key has been deleted or blocked")
	ErrKeyExpired         = errors.New("key has expired")
	ErrKeyAlreadyRedeemed = errors.New("key has already been redeemed")
	ErrKeyUntyped         = errors.New("key has no package type on record")
	ErrKeyTypeMismatch    = errors.New("key is a different package type")
	ErrKeyOwnerMismatch   = errors.New("key is bound to a different account")
)

// API is the slice of the ExHub client the key flows need.
type API interface {
	Validate(ctx context.Context, key string) (*exhub.ValidateResult, error)
	Upsert(ctx context.Context, payload exhub.UpsertPayload) error
	UserKeys(ctx context.Context, discordID, discordTag string) ([]exhub.RawKey, error)
}

// PaidKey is a user-facing key summary.
type PaidKey struct {
	Token        string
	Type         string
	CreatedAt    int64
	ExpiresAfter int64
	Status       string
}

// Service implements generate, redeem and listing for paid keys.
type Service struct {
	api API
	now func() time.Time
}

func NewService(api API) *Service {
	return &Service{api: api, now: time.Now}
}

// NormalizeType folds the type spellings the API has accumulated into
// the two canonical package types. Unknown types pass through
// lowercased.
func NormalizeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch t {
	case "month", "monthly", "sebulan", "1bulan", "30d", "30days":
		return TypeMonth
	case "lifetime", "life", "selamanya", "permanent", "permanentkey":
		return TypeLifetime
	}
	return t
}

// GeneratedKey is a freshly minted key plus its expiry.
type GeneratedKey struct {
	Token        string
	Type         string
	ExpiresAfter int64
}

// Generate mints a fresh unredeemed key bound to ownerDiscordID and
// registers it with the API. Month keys are valid 30 days, lifetime
// keys 365 days from creation.
func (s *Service) Generate(ctx context.Context, keyType, ownerDiscordID string) (*GeneratedKey, error) {
	keyType = NormalizeType(keyType)
	if keyType != TypeMonth && keyType != TypeLifetime {
		return nil, ErrKeyUntyped
	}

	segment, err := random.Hex(4)
	if err != nil {
		return nil, err
	}
	token := "EXHUBPAID-" + segment

	createdAt := s.now().UnixMilli()
	duration := monthDuration
	if keyType == TypeLifetime {
		duration = lifetimeDuration
	}
	expiresAfter := createdAt + duration.Milliseconds()

	payload := exhub.UpsertPayload{
		Info: exhub.KeyInfo{
			Token:          token,
			CreatedAt:      createdAt,
			ByIP:           "discord-bot-generate-" + keyType,
			ExpiresAfter:   expiresAfter,
			Type:           keyType,
			OwnerDiscordID: ownerDiscordID,
		},
	}
	if err := s.api.Upsert(ctx, payload); err != nil {
		return nil, err
	}

	logger.Info().
		Str("key_type", keyType).
		Str("owner_id", ownerDiscordID).
		Msg("Generated paid key")
	return &GeneratedKey{Token: token, Type: keyType, ExpiresAfter: expiresAfter}, nil
}

// Redeem activates an unredeemed key of the expected type for userID.
// The key must exist, be neither deleted nor expired nor already
// redeemed, match wantType, and either be unbound or bound to userID.
func (s *Service) Redeem(ctx context.Context, rawKey, wantType, userID string) error {
	key := strings.ToUpper(strings.TrimSpace(rawKey))
	if key == "" {
		return ErrKeyNotFound
	}

	res, err := s.api.Validate(ctx, key)
	if err != nil {
		return err
	}
	if res.Info == nil {
		return ErrKeyNotFound
	}
	if res.Deleted {
		return ErrKeyDeleted
	}
	if res.Expired {
		return ErrKeyExpired
	}
	if res.Valid {
		return ErrKeyAlreadyRedeemed
	}

	keyType := NormalizeType(res.Info.Type)
	if keyType == "" {
		return ErrKeyUntyped
	}
	if keyType != NormalizeType(wantType) {
		return ErrKeyTypeMismatch
	}

	if res.Info.OwnerDiscordID != "" && res.Info.OwnerDiscordID != userID {
		return ErrKeyOwnerMismatch
	}

	owner := res.Info.OwnerDiscordID
	if owner == "" {
		owner = userID
	}

	payload := exhub.UpsertPayload{
		Valid: true,
		Info: exhub.KeyInfo{
			Token:          key,
			CreatedAt:      res.Info.CreatedAt,
			ByIP:           "discord-bot-redeem-" + keyType,
			ExpiresAfter:   res.Info.ExpiresAfter,
			Type:           keyType,
			OwnerDiscordID: owner,
		},
	}
	if err := s.api.Upsert(ctx, payload); err != nil {
		return err
	}

	logger.Info().
		Str("key_type", keyType).
		Str("user_id", userID).
		Msg("Redeemed paid key")
	return nil
}

// UserKeys lists the paid keys held for a user, deduplicated by token,
// with free-provider entries dropped and a status derived per key.
// Remote failures surface as an empty list so the command still answers.
func (s *Service) UserKeys(ctx context.Context, discordID, discordTag string) []PaidKey {
	raw, err := s.api.UserKeys(ctx, discordID, discordTag)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", discordID).Msg("Failed to fetch user keys")
		return nil
	}

	now := s.now().UnixMilli()
	seen := make(map[string]struct{}, len(raw))
	out := make([]PaidKey, 0, len(raw))

	for i := range raw {
		k := &raw[i]
		token := k.ResolveToken()
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}

		if isFreeKey(k) {
			continue
		}

		owner := k.OwnerDiscordID
		if owner == "" && k.Info != nil {
			owner = k.Info.OwnerDiscordID
		}
		if owner != "" && owner != discordID {
			continue
		}

		createdAt := exhub.MsValue(k.CreatedAt)
		if createdAt == 0 && k.Info != nil {
			createdAt = exhub.MsValue(k.Info.CreatedAt)
		}

		expiresAfter := firstMs(k.ExpiresAfter, k.ExpiresAtMs, k.ExpiresAt)
		if expiresAfter == 0 && k.Info != nil {
			expiresAfter = exhub.MsValue(k.Info.ExpiresAfter)
		}

		keyType := k.Tier
		if keyType == "" {
			keyType = k.Type
		}
		if keyType == "" && k.Info != nil {
			if k.Info.Tier != "" {
				keyType = k.Info.Tier
			} else {
				keyType = k.Info.Type
			}
		}
		typeNorm := NormalizeType(keyType)
		if typeNorm == "" {
			typeNorm = "paid"
		}

		out = append(out, PaidKey{
			Token:        token,
			Type:         typeNorm,
			CreatedAt:    createdAt,
			ExpiresAfter: expiresAfter,
			Status:       deriveStatus(k, expiresAfter, now),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

func isFreeKey(k *exhub.RawKey) bool {
	provider := strings.ToLower(k.Provider)
	if provider == "" {
		provider = strings.ToLower(k.Source)
	}

	tier := k.Tier
	if tier == "" {
		tier = k.Type
	}
	if tier == "" && k.Info != nil {
		if k.Info.Tier != "" {
			tier = k.Info.Tier
		} else {
			tier = k.Info.Type
		}
	}

	return NormalizeType(tier) == "free" ||
		provider == "work.ink" ||
		provider == "workink" ||
		strings.Contains(provider, "linkvertise") ||
		k.Free
}

func deriveStatus(k *exhub.RawKey, expiresAfter, now int64) string {
	deleted := k.Deleted || (k.Info != nil && k.Info.Deleted)

	valid := true
	if k.Valid != nil {
		valid = *k.Valid
	} else if k.Info != nil && k.Info.Valid != nil {
		valid = *k.Info.Valid
	}

	expired := k.Expired
	if expiresAfter > 0 {
		expired = now > expiresAfter
	}

	switch {
	case deleted:
		return "Deleted"
	case expired:
		return "Expired"
	case !valid:
		return "Not Redeemed"
	default:
		return "Active"
	}
}

func firstMs(raws ...[]byte) int64 {
	for _, raw := range raws {
		if v := exhub.MsValue(raw); v != 0 {
			return v
		}
	}
	return 0
}
