package ticketing

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is the lifecycle state of a ticket session.
type State int

const (
	// StateOpen accepts roster mutations; only admins may close.
	StateOpen State = iota

	// StateClosing means a close is in progress: the roster is frozen and
	// all further mutation attempts are rejected.
	StateClosing

	// StateClosed is terminal; the backing channel is destroyed.
	StateClosed
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("unknown_state_(%d)", int(s))
}

// Session is one open help-request ticket: the requester, the service they
// asked for, and a bounded roster of helpers.
//
// The identity fields are set once, before the session is registered, and
// are safe to read without the lock. The roster and state are only touched
// by the Engine, which holds mu across every read-modify-present sequence.
type Session struct {
	// GuildID is the guild the ticket belongs to.
	GuildID string

	// ChannelID is the backing ticket channel.
	ChannelID string

	// MessageID is the pinned ticket message the roster is rendered into.
	MessageID string

	// Owner is the requester that opened the ticket.
	Owner Actor

	// Category is the requested service name.
	Category string

	// Number is the per-(guild, category) ticket sequence number.
	Number int

	// Capacity is the helper slot count, snapshotted from the catalog at
	// creation. Later catalog edits do not affect this session.
	Capacity int

	// Reward is the point value per helper, snapshotted at creation.
	Reward int

	// Intake is the request form content.
	Intake Intake

	// CreatedAt is when the ticket was opened.
	CreatedAt time.Time

	mu sync.Mutex

	// slots is the positional helper roster. A nil entry is an empty
	// slot. Joins fill the first empty slot; leaves clear the exact slot
	// the helper occupied.
	slots []*Actor

	state   State
	settled bool

	closedBy Actor
	closedAt time.Time
}

// NewSession creates an open session with an empty roster of the given
// capacity.
func NewSession(guildID string, owner Actor, category string, capacity, reward, number int, intake Intake) *Session {
	if capacity < 1 {
		capacity = 1
	}
	return &Session{
		GuildID:   guildID,
		Owner:     owner,
		Category:  category,
		Number:    number,
		Capacity:  capacity,
		Reward:    reward,
		Intake:    intake,
		CreatedAt: time.Now().UTC(),
		slots:     make([]*Actor, capacity),
	}
}

// ChannelName returns the channel name for the ticket, e.g.
// "grim-express-4".
func (s *Session) ChannelName() string {
	slug := strings.ToLower(s.Category)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "'", "")
	return fmt.Sprintf("%s-%d", slug, s.Number)
}

// Snapshot returns a consistent copy of the session for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Helpers returns the current occupants in slot order.
func (s *Session) Helpers() []Actor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupantsLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	lines := make([]string, len(s.slots))
	for i, occ := range s.slots {
		if occ == nil {
			lines[i] = fmt.Sprintf("%d. [Empty]", i+1)
		} else {
			lines[i] = fmt.Sprintf("%d. %s", i+1, occ.Mention())
		}
	}

	return Snapshot{
		GuildID:     s.GuildID,
		ChannelID:   s.ChannelID,
		MessageID:   s.MessageID,
		ChannelName: s.ChannelName(),
		Owner:       s.Owner,
		Category:    s.Category,
		Number:      s.Number,
		Capacity:    s.Capacity,
		Reward:      s.Reward,
		Intake:      s.Intake,
		CreatedAt:   s.CreatedAt,
		State:       s.state,
		Helpers:     s.occupantsLocked(),
		RosterLines: lines,
		ClosedBy:    s.closedBy,
		ClosedAt:    s.closedAt,
	}
}

func (s *Session) occupantsLocked() []Actor {
	out := make([]Actor, 0, len(s.slots))
	for _, occ := range s.slots {
		if occ != nil {
			out = append(out, *occ)
		}
	}
	return out
}

func (s *Session) slotOfLocked(userID string) int {
	for i, occ := range s.slots {
		if occ != nil && occ.ID == userID {
			return i
		}
	}
	return -1
}

func (s *Session) firstEmptyLocked() int {
	for i, occ := range s.slots {
		if occ == nil {
			return i
		}
	}
	return -1
}

// Snapshot is an immutable view of a session, built under the session lock
// so display updates are a pure projection of consistent state.
type Snapshot struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	ChannelName string
	Owner       Actor
	Category    string
	Number      int
	Capacity    int
	Reward      int
	Intake      Intake
	CreatedAt   time.Time
	State       State
	Helpers     []Actor
	RosterLines []string
	ClosedBy    Actor
	ClosedAt    time.Time
}
