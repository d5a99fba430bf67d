package reactionrole

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"exhub-store-bot/internal/common/logger"
)

// Pair binds one reaction emoji to one role on a message.
type Pair struct {
	Emoji  string
	RoleID string
}

var (
	linePattern        = regexp.MustCompile(`^(\S+)\s*(?:[,;|]\s*|\s+)(.+)$`)
	roleMentionPattern = regexp.MustCompile(`<@&(\d+)>`)
	snowflakePattern   = regexp.MustCompile(`^\d{17,20}$`)
	chanMentionPattern = regexp.MustCompile(`<#(\d+)>`)
)

// RoleResolver turns role text (mention, raw id or name) into a role id.
type RoleResolver func(text string) (roleID string, ok bool)

// GuildRoleResolver resolves against a guild's role list, matching
// mention, id, then case-insensitive name.
func GuildRoleResolver(roles []*discordgo.Role) RoleResolver {
	return func(text string) (string, bool) {
		raw := strings.TrimSpace(text)

		if m := roleMentionPattern.FindStringSubmatch(raw); m != nil {
			for _, r := range roles {
				if r.ID == m[1] {
					return r.ID, true
				}
			}
			return "", false
		}

		if snowflakePattern.MatchString(raw) {
			for _, r := range roles {
				if r.ID == raw {
					return r.ID, true
				}
			}
		}

		lower := strings.ToLower(raw)
		for _, r := range roles {
			if strings.ToLower(r.Name) == lower {
				return r.ID, true
			}
		}
		return "", false
	}
}

// ParseConfig parses the multi-line "emoji ; role" config. Lines that
// fail to parse or resolve are reported, not fatal.
func ParseConfig(raw string, resolve RoleResolver) ([]Pair, []string) {
	var pairs []Pair
	var errs []string

	lineNo := 0
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		lineNo++

		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			errs = append(errs, fmt.Sprintf("line %d: unrecognized format (%q), use \"emoji ; role\"", lineNo, line))
			continue
		}

		roleID, ok := resolve(m[2])
		if !ok {
			errs = append(errs, fmt.Sprintf("line %d: role %q not found in this server", lineNo, m[2]))
			continue
		}

		pairs = append(pairs, Pair{Emoji: m[1], RoleID: roleID})
	}
	return pairs, errs
}

// ParseTargetChannels extracts channel ids from a string of mentions
// and raw ids. Order follows first appearance; duplicates collapse.
func ParseTargetChannels(raw string) []string {
	var ids []string
	seen := make(map[string]struct{})

	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, m := range chanMentionPattern.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
	for _, tok := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		if snowflakePattern.MatchString(tok) {
			add(tok)
		}
	}
	return ids
}

// Manager holds the live reaction-role bindings keyed by message id and
// applies them on reaction events.
type Manager struct {
	mu       sync.RWMutex
	messages map[string][]Pair
}

func NewManager() *Manager {
	return &Manager{messages: make(map[string][]Pair)}
}

// Bind registers the pairs for a posted reaction-role message.
func (m *Manager) Bind(messageID string, pairs []Pair) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[messageID] = pairs
}

// Lookup returns the role bound to an emoji on a message.
func (m *Manager) Lookup(messageID, emoji string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.messages[messageID] {
		if p.Emoji == emoji {
			return p.RoleID, true
		}
	}
	return "", false
}

// emojiString renders a reaction emoji the way it appears in config
// text: custom emojis as <:name:id>, unicode as-is.
func emojiString(e *discordgo.Emoji) string {
	if e.ID == "" {
		return e.Name
	}
	if e.Animated {
		return "<a:" + e.Name + ":" + e.ID + ">"
	}
	return "<:" + e.Name + ":" + e.ID + ">"
}

// HandleReactionAdd grants the bound role.
func (m *Manager) HandleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	roleID, ok := m.Lookup(r.MessageID, emojiString(&r.Emoji))
	if !ok {
		return
	}
	if err := s.GuildMemberRoleAdd(r.GuildID, r.UserID, roleID); err != nil {
		logger.Warn().Err(err).Str("role_id", roleID).Str("user_id", r.UserID).Msg("Failed to grant reaction role")
	}
}

// HandleReactionRemove revokes the bound role.
func (m *Manager) HandleReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	if r.UserID == s.State.User.ID {
		return
	}
	roleID, ok := m.Lookup(r.MessageID, emojiString(&r.Emoji))
	if !ok {
		return
	}
	if err := s.GuildMemberRoleRemove(r.GuildID, r.UserID, roleID); err != nil {
		logger.Warn().Err(err).Str("role_id", roleID).Str("user_id", r.UserID).Msg("Failed to revoke reaction role")
	}
}

// Publish posts the reaction-role embed to each target channel, seeds
// the reactions and binds the pairs. Returns one status line per
// channel.
func (m *Manager) Publish(s *discordgo.Session, title string, pairs []Pair, channelIDs []string) []string {
	var listText strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&listText, "%s → <@&%s>\n", p.Emoji, p.RoleID)
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: "React with the emojis below to get or remove a role:\n\n" + listText.String(),
		Color:       0x5865F2,
	}

	results := make([]string, 0, len(channelIDs))
	for _, channelID := range channelIDs {
		msg, err := s.ChannelMessageSendEmbed(channelID, embed)
		if err != nil {
			logger.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to post reaction-role message")
			results = append(results, "❌ Failed to post in <#"+channelID+">")
			continue
		}

		for _, p := range pairs {
			if err := s.MessageReactionAdd(channelID, msg.ID, reactionID(p.Emoji)); err != nil {
				logger.Warn().Err(err).Str("emoji", p.Emoji).Msg("Failed to seed reaction")
			}
		}

		m.Bind(msg.ID, pairs)
		results = append(results, "✅ Posted reaction-role message in <#"+channelID+">")
	}
	return results
}

// reactionID converts a config emoji to the API reaction form: custom
// emojis become name:id, unicode stays as-is.
var customEmojiPattern = regexp.MustCompile(`^<a?:([^:]+):(\d+)>$`)

func reactionID(emoji string) string {
	if m := customEmojiPattern.FindStringSubmatch(emoji); m != nil {
		return m[1] + ":" + m[2]
	}
	return emoji
}
