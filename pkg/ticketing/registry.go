package ticketing

import "sync"

// Registry holds the open sessions of the process, keyed by the backing
// channel ID. Sessions are not persisted: a restart drops open rosters.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// Register adds a session under its channel ID.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ChannelID] = s
}

// Get returns the session for a channel, or nil.
func (r *Registry) Get(channelID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[channelID]
}

// Remove deregisters the session for a channel.
func (r *Registry) Remove(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, channelID)
}

// HasOpenCategory reports whether any registered session exists for the
// given guild and category.
func (r *Registry) HasOpenCategory(guildID, category string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.GuildID == guildID && s.Category == category {
			return true
		}
	}
	return false
}

// ForGuild returns every registered session of a guild.
func (r *Registry) ForGuild(guildID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Session
	for _, s := range r.sessions {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
