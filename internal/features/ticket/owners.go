package ticket

import (
	"regexp"
	"sync"
)

// The owner id is encoded in the channel topic so ownership survives a
// bot restart; the in-memory map is just the fast path.
var topicOwnerPattern = regexp.MustCompile(`OwnerID:(\d{5,})`)

// Topic builds the ticket channel topic for a creator.
func Topic(userTag, userID string) string {
	return "Ticket order by " + userTag + " | OwnerID:" + userID
}

// OwnerIDFromTopic extracts the creator id from a channel topic.
func OwnerIDFromTopic(topic string) string {
	m := topicOwnerPattern.FindStringSubmatch(topic)
	if m == nil {
		return ""
	}
	return m[1]
}

// Registry maps ticket channels to their creators.
type Registry struct {
	mu        sync.RWMutex
	byChannel map[string]string
}

func NewRegistry() *Registry {
	return &Registry{byChannel: make(map[string]string)}
}

// Set records the creator of a ticket channel.
func (r *Registry) Set(channelID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChannel[channelID] = userID
}

// Remove forgets a deleted ticket channel.
func (r *Registry) Remove(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byChannel, channelID)
}

// OwnerID returns the ticket creator, preferring the registry and
// falling back to the topic encoding.
func (r *Registry) OwnerID(channelID, topic string) string {
	r.mu.RLock()
	id, ok := r.byChannel[channelID]
	r.mu.RUnlock()
	if ok {
		return id
	}
	return OwnerIDFromTopic(topic)
}
