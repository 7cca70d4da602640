package ticketing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vaspitac/helperbot/pkg/catalog"
	"github.com/vaspitac/helperbot/pkg/entities"
	"github.com/vaspitac/helperbot/pkg/logging"
)

// CloseGraceDelay is how long a closed ticket channel stays visible after
// transcript and award processing, so users can see the final messages.
const CloseGraceDelay = 3 * time.Second

// ConfigStore reads per-guild configuration.
type ConfigStore interface {
	// GetConfig returns the guild configuration, or nil when none is
	// stored.
	GetConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error)

	// GetAdminRoles returns the guild's admin role IDs.
	GetAdminRoles(ctx context.Context, guildID string) ([]string, error)
}

// CatalogStore reads the per-guild service catalog.
type CatalogStore interface {
	// GetPointValues returns the stored point values, empty when none.
	GetPointValues(ctx context.Context, guildID string) (map[string]int, error)

	// GetHelperSlots returns the stored slot overrides, empty when none.
	GetHelperSlots(ctx context.Context, guildID string) (map[string]int, error)
}

// CounterStore issues and resets per-(guild, category) ticket numbers.
type CounterStore interface {
	// NextNumber atomically increments and returns the counter. No two
	// calls for the same (guild, category) observe the same number.
	NextNumber(ctx context.Context, guildID, category string) (int, error)

	// ResetNumber sets the counter back to zero unconditionally.
	ResetNumber(ctx context.Context, guildID, category string) error
}

// PointsStore credits the points ledger.
type PointsStore interface {
	// AddPoints atomically adds to a user's balance.
	AddPoints(ctx context.Context, guildID, userID string, amount int) error
}

// Presenter re-renders the ticket display after a roster change. It is
// invoked under the session lock, so updates land in mutation order.
type Presenter interface {
	UpdateRoster(ctx context.Context, snap Snapshot) error
}

// Engine owns the ticket session lifecycle: creation, roster mutation,
// close, settlement and teardown.
type Engine struct {
	l *slog.Logger

	cfg      ConfigStore
	catalog  CatalogStore
	counters CounterStore
	points   PointsStore

	caps      *Capabilities
	registry  *Registry
	presenter Presenter
}

// NewEngine creates the ticket engine. The presenter may be nil, in which
// case roster changes produce no display update.
func NewEngine(l *slog.Logger, cfg ConfigStore, cat CatalogStore, counters CounterStore, points PointsStore, presenter Presenter) *Engine {
	return &Engine{
		l:         l,
		cfg:       cfg,
		catalog:   cat,
		counters:  counters,
		points:    points,
		caps:      NewCapabilities(cfg),
		registry:  NewRegistry(),
		presenter: presenter,
	}
}

// Registry returns the engine's session registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Capabilities returns the engine's capability checker.
func (e *Engine) Capabilities() *Capabilities {
	return e.caps
}

// Create builds a new session for a requester. It requires a resolved
// configuration with a ticket category and rejects blocked requesters
// before the counter is touched, so a denied create never consumes a
// ticket number.
func (e *Engine) Create(ctx context.Context, guildID string, requester Actor, category string, intake Intake) (*Session, error) {
	cfg, err := e.cfg.GetConfig(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting guild configuration: %w", err)
	}
	if cfg == nil || cfg.TicketCategoryID == "" {
		return nil, ErrConfigurationMissing
	}

	if cfg.BlockedRoleID != "" && requester.HasRole(cfg.BlockedRoleID) {
		return nil, ErrPermissionDenied
	}

	storedValues, err := e.catalog.GetPointValues(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting point values: %w", err)
	}
	storedSlots, err := e.catalog.GetHelperSlots(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("error getting helper slots: %w", err)
	}

	// Capacity and reward are snapshots: later catalog edits do not
	// affect this session.
	capacity := catalog.Slots(catalog.HelperSlots(storedSlots), category)
	reward := catalog.Points(catalog.PointValues(storedValues), category)

	number, err := e.counters.NextNumber(ctx, guildID, category)
	if err != nil {
		return nil, fmt.Errorf("error allocating ticket number: %w", err)
	}

	return NewSession(guildID, requester, category, capacity, reward, number, intake), nil
}

// Register binds a created session to its backing channel and pinned
// message and makes it visible to the roster actions.
func (e *Engine) Register(s *Session, channelID, messageID string) {
	s.ChannelID = channelID
	s.MessageID = messageID
	e.registry.Register(s)

	e.l.Info("Ticket session opened",
		slog.String(logging.KeyGuild, s.GuildID),
		slog.String(logging.KeyChannel, channelID),
		slog.String("category", s.Category),
		slog.Int("number", s.Number),
	)
}

// Join adds the actor to the first empty helper slot. Duplicate joins, full
// rosters and actors without the configured helper role are rejected with
// no state change.
func (e *Engine) Join(ctx context.Context, channelID string, actor Actor) error {
	s := e.registry.Get(channelID)
	if s == nil {
		return ErrNoSession
	}

	cfg, err := e.cfg.GetConfig(ctx, s.GuildID)
	if err != nil {
		return fmt.Errorf("error getting guild configuration: %w", err)
	}
	helperRole := ""
	if cfg != nil {
		helperRole = cfg.HelperRoleID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return ErrSessionClosed
	}
	if s.slotOfLocked(actor.ID) >= 0 {
		return ErrAlreadyJoined
	}
	idx := s.firstEmptyLocked()
	if idx < 0 {
		return ErrRosterFull
	}
	if helperRole != "" && !actor.HasRole(helperRole) {
		return ErrPermissionDenied
	}

	a := actor
	s.slots[idx] = &a
	return e.present(ctx, s.snapshotLocked())
}

// Leave removes the actor from the slot they occupy; later slots keep
// their positions.
func (e *Engine) Leave(ctx context.Context, channelID string, actorID string) error {
	s := e.registry.Get(channelID)
	if s == nil {
		return ErrNoSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return ErrSessionClosed
	}
	idx := s.slotOfLocked(actorID)
	if idx < 0 {
		return ErrNotJoined
	}

	s.slots[idx] = nil
	return e.present(ctx, s.snapshotLocked())
}

// Remove lets an admin take a helper out of the roster. A missing target
// leaves the roster unchanged.
func (e *Engine) Remove(ctx context.Context, channelID string, actor Actor, targetID string) error {
	s := e.registry.Get(channelID)
	if s == nil {
		return ErrNoSession
	}

	if err := e.requireAdmin(ctx, s.GuildID, actor); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return ErrSessionClosed
	}
	idx := s.slotOfLocked(targetID)
	if idx < 0 {
		return ErrHelperNotFound
	}

	s.slots[idx] = nil
	return e.present(ctx, s.snapshotLocked())
}

// RemoveEverywhere takes a user out of every open session of a guild and
// returns the affected channel IDs.
func (e *Engine) RemoveEverywhere(ctx context.Context, guildID string, actor Actor, targetID string) ([]string, error) {
	if err := e.requireAdmin(ctx, guildID, actor); err != nil {
		return nil, err
	}

	var affected []string
	for _, s := range e.registry.ForGuild(guildID) {
		s.mu.Lock()
		if s.state == StateOpen {
			if idx := s.slotOfLocked(targetID); idx >= 0 {
				s.slots[idx] = nil
				if err := e.present(ctx, s.snapshotLocked()); err != nil {
					e.l.Error("Error updating roster display",
						slog.String(logging.KeyChannel, s.ChannelID),
						slog.String(logging.KeyError, err.Error()),
					)
				}
				affected = append(affected, s.ChannelID)
			}
		}
		s.mu.Unlock()
	}
	return affected, nil
}

// BeginClose transitions the session to closing. From this point every
// roster mutation is rejected. Only admins may close.
func (e *Engine) BeginClose(ctx context.Context, channelID string, closer Actor) (*Session, error) {
	s := e.registry.Get(channelID)
	if s == nil {
		return nil, ErrNoSession
	}

	if err := e.requireAdmin(ctx, s.GuildID, closer); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return nil, ErrSessionClosed
	}
	s.state = StateClosing
	s.closedBy = closer
	s.closedAt = time.Now().UTC()
	return s, nil
}

// Settle credits the session's reward once to every helper in the roster at
// close time. A second call is a no-op, so a retried close cannot
// double-award.
func (e *Engine) Settle(ctx context.Context, s *Session) error {
	s.mu.Lock()
	if s.settled {
		s.mu.Unlock()
		return nil
	}
	s.settled = true
	helpers := s.occupantsLocked()
	reward := s.Reward
	s.mu.Unlock()

	if reward <= 0 || len(helpers) == 0 {
		return nil
	}

	for _, h := range helpers {
		if err := e.points.AddPoints(ctx, s.GuildID, h.ID, reward); err != nil {
			return fmt.Errorf("error awarding points to %s: %w", h.ID, err)
		}
		e.l.Info("Awarded helper points",
			slog.String(logging.KeyGuild, s.GuildID),
			slog.String(logging.KeyUser, h.ID),
			slog.Int("points", reward),
		)
	}
	return nil
}

// Finalize marks the session closed, deregisters it, and resets the
// category counter when no open ticket remains for the category. The scan
// and the reset are not one critical section; a ticket created in between
// simply keeps its higher number.
func (e *Engine) Finalize(ctx context.Context, s *Session) {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	e.registry.Remove(s.ChannelID)

	if !e.registry.HasOpenCategory(s.GuildID, s.Category) {
		if err := e.counters.ResetNumber(ctx, s.GuildID, s.Category); err != nil {
			e.l.Error("Error resetting ticket counter",
				slog.String(logging.KeyGuild, s.GuildID),
				slog.String("category", s.Category),
				slog.String(logging.KeyError, err.Error()),
			)
			return
		}
		e.l.Info("Reset ticket counter",
			slog.String(logging.KeyGuild, s.GuildID),
			slog.String("category", s.Category),
		)
	}
}

func (e *Engine) requireAdmin(ctx context.Context, guildID string, actor Actor) error {
	ok, err := e.caps.IsAdmin(ctx, guildID, actor)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

func (e *Engine) present(ctx context.Context, snap Snapshot) error {
	if e.presenter == nil {
		return nil
	}
	if err := e.presenter.UpdateRoster(ctx, snap); err != nil {
		return fmt.Errorf("error updating roster display: %w", err)
	}
	return nil
}
