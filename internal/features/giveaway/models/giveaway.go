package models

import (
	"time"
)

// EntrantDetail is a resolved display identity for an entrant. Snapshot
// only: populated at end time and never recomputed.
type EntrantDetail struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// Giveaway is the persisted giveaway record. The ID is the Discord
// message id of the announcement and never changes.
type Giveaway struct {
	ID           string `json:"id"`
	GuildID      string `json:"guild_id"`
	ChannelID    string `json:"channel_id"`
	Prize        string `json:"prize"`
	Description  string `json:"description,omitempty"`
	WinnersCount int    `json:"winners_count"`
	HostID       string `json:"host_id"`

	// Milliseconds since epoch. EndAt is fixed at creation and never
	// rescheduled.
	CreatedAt int64 `json:"created_at"`
	EndAt     int64 `json:"end_at"`

	Ended   bool   `json:"ended"`
	EndedAt int64  `json:"ended_at,omitempty"`
	EndedBy string `json:"ended_by,omitempty"`

	Entrants []string `json:"entrants"`

	// Populated exactly once by the end transition.
	Winners        []EntrantDetail `json:"winners,omitempty"`
	EntrantsDetail []EntrantDetail `json:"entrants_detail,omitempty"`

	// Set asynchronously when backend registration succeeds; empty
	// means the giveaway is local-only.
	RemoteGiveawayID string `json:"remote_giveaway_id,omitempty"`
	RemoteSummaryURL string `json:"remote_summary_url,omitempty"`
}

// EndsAt returns the scheduled end as a time.Time.
func (g *Giveaway) EndsAt() time.Time {
	return time.UnixMilli(g.EndAt)
}

// Clone returns a deep copy whose slices share no backing arrays with
// the original. Safe to read while the original keeps mutating under
// its owner's lock.
func (g *Giveaway) Clone() *Giveaway {
	c := *g
	c.Entrants = append([]string(nil), g.Entrants...)
	c.Winners = append([]EntrantDetail(nil), g.Winners...)
	c.EntrantsDetail = append([]EntrantDetail(nil), g.EntrantsDetail...)
	return &c
}

// HasEntrant reports whether the participant is already entered.
func (g *Giveaway) HasEntrant(userID string) bool {
	for _, id := range g.Entrants {
		if id == userID {
			return true
		}
	}
	return false
}

// AddEntrant appends the participant if absent and reports whether the
// set changed.
func (g *Giveaway) AddEntrant(userID string) bool {
	if g.HasEntrant(userID) {
		return false
	}
	g.Entrants = append(g.Entrants, userID)
	return true
}

// RemoveEntrant drops the participant if present and reports whether
// the set changed.
func (g *Giveaway) RemoveEntrant(userID string) bool {
	for i, id := range g.Entrants {
		if id == userID {
			g.Entrants = append(g.Entrants[:i], g.Entrants[i+1:]...)
			return true
		}
	}
	return false
}

// DistinctEntrants returns the entrant set deduplicated in first-seen
// order. Stored data may predate the dedup-on-write guarantee.
func (g *Giveaway) DistinctEntrants() []string {
	seen := make(map[string]struct{}, len(g.Entrants))
	out := make([]string, 0, len(g.Entrants))
	for _, id := range g.Entrants {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// GiveawayCreate carries the create request from the command layer.
type GiveawayCreate struct {
	GuildID      string
	ChannelID    string
	HostID       string
	Prize        string
	Description  string
	WinnersCount int
	DurationText string
}

// MinDuration is the shortest giveaway the bot accepts.
const MinDuration = time.Minute
