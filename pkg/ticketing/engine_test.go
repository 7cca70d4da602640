package ticketing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaspitac/helperbot/pkg/entities"
	"github.com/vaspitac/helperbot/pkg/logging"
)

// memStores backs every engine dependency with in-memory state so the
// lifecycle can be exercised without a database.
type memStores struct {
	mu          sync.Mutex
	cfg         *entities.GuildConfig
	adminRoles  []string
	pointValues map[string]int
	helperSlots map[string]int
	counters    map[string]int
	balances    map[string]int
}

func (m *memStores) GetConfig(_ context.Context, _ string) (*entities.GuildConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg, nil
}

func (m *memStores) GetAdminRoles(_ context.Context, _ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adminRoles, nil
}

func (m *memStores) GetPointValues(_ context.Context, _ string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pointValues, nil
}

func (m *memStores) GetHelperSlots(_ context.Context, _ string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.helperSlots, nil
}

func (m *memStores) NextNumber(_ context.Context, guildID, category string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	key := guildID + "/" + category
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memStores) ResetNumber(_ context.Context, guildID, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	m.counters[guildID+"/"+category] = 0
	return nil
}

func (m *memStores) AddPoints(_ context.Context, guildID, userID string, amount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances == nil {
		m.balances = make(map[string]int)
	}
	m.balances[guildID+"/"+userID] += amount
	return nil
}

func (m *memStores) balance(guildID, userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[guildID+"/"+userID]
}

func (m *memStores) counter(guildID, category string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[guildID+"/"+category]
}

// recordingPresenter captures every roster projection in order.
type recordingPresenter struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (p *recordingPresenter) UpdateRoster(_ context.Context, snap Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, snap)
	return nil
}

func (p *recordingPresenter) last(t *testing.T) Snapshot {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.snaps)
	return p.snaps[len(p.snaps)-1]
}

const (
	testGuild      = "guild-1"
	helperRoleID   = "role-helper"
	adminRoleID    = "role-admin"
	blockedRoleID  = "role-blocked"
	ticketCategory = "category-tickets"
)

func newTestStores() *memStores {
	return &memStores{
		cfg: &entities.GuildConfig{
			GuildID:          testGuild,
			HelperRoleID:     helperRoleID,
			BlockedRoleID:    blockedRoleID,
			TicketCategoryID: ticketCategory,
		},
		adminRoles: []string{adminRoleID},
	}
}

func newTestEngine(t *testing.T, stores *memStores, p Presenter) *Engine {
	t.Helper()
	l, err := logging.CommonLogger(logging.NewConfig(`tests`))
	require.NoError(t, err)
	return NewEngine(l, stores, stores, stores, stores, p)
}

func helper(id string) Actor {
	return Actor{ID: id, Name: "user-" + id, Roles: []string{helperRoleID}}
}

func admin(id string) Actor {
	return Actor{ID: id, Name: "admin-" + id, Roles: []string{helperRoleID, adminRoleID}}
}

func openSession(t *testing.T, e *Engine, category string) *Session {
	t.Helper()
	requester := Actor{ID: "owner", Name: "owner"}
	s, err := e.Create(context.Background(), testGuild, requester, category, Intake{
		IGN:    "Wolfie",
		Server: "Twilly",
		Room:   "grim-9999",
	})
	require.NoError(t, err)
	e.Register(s, "chan-"+s.ChannelName(), "msg-1")
	return s
}

func TestCreateUsesCatalogSnapshot(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)

	s := openSession(t, e, "Grim Express")
	require.Equal(t, 6, s.Capacity)
	require.Equal(t, 10, s.Reward)
	require.Equal(t, 1, s.Number)
	require.Equal(t, "grim-express-1", s.ChannelName())

	// Catalog edits after creation do not touch the open session.
	stores.mu.Lock()
	stores.pointValues = map[string]int{"Grim Express": 1}
	stores.helperSlots = map[string]int{"Grim Express": 1}
	stores.mu.Unlock()
	require.Equal(t, 6, s.Capacity)
	require.Equal(t, 10, s.Reward)
}

func TestCreateRejections(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*memStores)
		requester Actor
		wantErr   error
	}{
		{
			name:      "NoConfig",
			mutate:    func(m *memStores) { m.cfg = nil },
			requester: Actor{ID: "u1"},
			wantErr:   ErrConfigurationMissing,
		},
		{
			name:      "NoTicketCategory",
			mutate:    func(m *memStores) { m.cfg.TicketCategoryID = "" },
			requester: Actor{ID: "u1"},
			wantErr:   ErrConfigurationMissing,
		},
		{
			name:      "BlockedRole",
			mutate:    func(m *memStores) {},
			requester: Actor{ID: "u1", Roles: []string{blockedRoleID}},
			wantErr:   ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newTestStores()
			tt.mutate(stores)
			e := newTestEngine(t, stores, nil)

			_, err := e.Create(context.Background(), testGuild, tt.requester, "Grim Express", Intake{})
			require.ErrorIs(t, err, tt.wantErr)

			// A rejected create never consumes a ticket number.
			require.Equal(t, 0, stores.counter(testGuild, "Grim Express"))
		})
	}
}

func TestJoinLeaveInvariants(t *testing.T) {
	stores := newTestStores()
	p := new(recordingPresenter)
	e := newTestEngine(t, stores, p)
	ctx := context.Background()

	s := openSession(t, e, "Ultra Speaker Express") // capacity 3
	require.Equal(t, 3, s.Capacity)

	require.NoError(t, e.Join(ctx, s.ChannelID, helper("a")))
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("b")))
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("c")))

	// Roster full.
	require.ErrorIs(t, e.Join(ctx, s.ChannelID, helper("d")), ErrRosterFull)

	// Duplicate join is rejected and changes nothing.
	require.ErrorIs(t, e.Join(ctx, s.ChannelID, helper("a")), ErrAlreadyJoined)
	require.Len(t, s.Helpers(), 3)

	// Leaving frees the exact slot occupied, not the last one.
	require.NoError(t, e.Leave(ctx, s.ChannelID, "b"))
	snap := p.last(t)
	require.Equal(t, "2. [Empty]", snap.RosterLines[1])
	require.Equal(t, "3. <@c>", snap.RosterLines[2])

	// The next join fills the freed slot.
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("d")))
	snap = p.last(t)
	require.Equal(t, "2. <@d>", snap.RosterLines[1])

	// Leaving twice is rejected.
	require.ErrorIs(t, e.Leave(ctx, s.ChannelID, "b"), ErrNotJoined)

	// 4 joins accepted, 1 leave accepted.
	require.Len(t, s.Helpers(), 3)
}

func TestJoinRequiresHelperRole(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	s := openSession(t, e, "Grim Express")
	err := e.Join(ctx, s.ChannelID, Actor{ID: "nobody"})
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Empty(t, s.Helpers())

	// With no helper role configured anyone may join.
	stores.mu.Lock()
	stores.cfg.HelperRoleID = ""
	stores.mu.Unlock()
	require.NoError(t, e.Join(ctx, s.ChannelID, Actor{ID: "nobody"}))
}

func TestJoinUnknownChannel(t *testing.T) {
	e := newTestEngine(t, newTestStores(), nil)
	require.ErrorIs(t, e.Join(context.Background(), "no-such-channel", helper("a")), ErrNoSession)
}

func TestConcurrentJoins(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	s := openSession(t, e, "Ultra Speaker Express") // capacity 3

	const actors = 20
	errs := make(chan error, actors)
	var wg sync.WaitGroup
	for i := 0; i < actors; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- e.Join(ctx, s.ChannelID, helper(fmt.Sprintf("u%d", n)))
		}(i)
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, ErrRosterFull)
		}
	}
	require.Equal(t, 3, accepted)

	// No duplicates, size exactly at capacity.
	seen := make(map[string]bool)
	for _, h := range s.Helpers() {
		require.False(t, seen[h.ID])
		seen[h.ID] = true
	}
	require.Len(t, seen, 3)
}

func TestConcurrentTicketNumbers(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	const n = 25
	numbers := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := e.Create(ctx, testGuild, Actor{ID: "owner"}, "Daily Temple Express", Intake{})
			require.NoError(t, err)
			numbers <- s.Number
		}()
	}
	wg.Wait()
	close(numbers)

	// Exactly the sequence 1..n, no repeats or gaps.
	got := make(map[int]bool, n)
	for num := range numbers {
		require.False(t, got[num], "duplicate ticket number %d", num)
		got[num] = true
	}
	for i := 1; i <= n; i++ {
		require.True(t, got[i], "missing ticket number %d", i)
	}
}

func TestAdminRemove(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	s := openSession(t, e, "Grim Express")
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("a")))

	// Non-admins cannot remove helpers.
	require.ErrorIs(t, e.Remove(ctx, s.ChannelID, helper("b"), "a"), ErrPermissionDenied)
	require.Len(t, s.Helpers(), 1)

	// Removing an absent helper leaves the roster unchanged.
	require.ErrorIs(t, e.Remove(ctx, s.ChannelID, admin("mod"), "ghost"), ErrHelperNotFound)
	require.Len(t, s.Helpers(), 1)

	require.NoError(t, e.Remove(ctx, s.ChannelID, admin("mod"), "a"))
	require.Empty(t, s.Helpers())
}

func TestRemoveEverywhere(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	s1 := openSession(t, e, "Grim Express")
	s2 := openSession(t, e, "Daily Temple Express")
	require.NoError(t, e.Join(ctx, s1.ChannelID, helper("a")))
	require.NoError(t, e.Join(ctx, s2.ChannelID, helper("a")))
	require.NoError(t, e.Join(ctx, s2.ChannelID, helper("b")))

	affected, err := e.RemoveEverywhere(ctx, testGuild, admin("mod"), "a")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{s1.ChannelID, s2.ChannelID}, affected)
	require.Empty(t, s1.Helpers())
	require.Len(t, s2.Helpers(), 1)

	_, err = e.RemoveEverywhere(ctx, testGuild, helper("x"), "b")
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCloseFreezesRoster(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	s := openSession(t, e, "Grim Express")
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("a")))

	// Only admins may close.
	_, err := e.BeginClose(ctx, s.ChannelID, helper("a"))
	require.ErrorIs(t, err, ErrPermissionDenied)

	closed, err := e.BeginClose(ctx, s.ChannelID, admin("mod"))
	require.NoError(t, err)
	require.Equal(t, StateClosing, closed.State())

	// The roster is frozen from the moment the close begins.
	require.ErrorIs(t, e.Join(ctx, s.ChannelID, helper("b")), ErrSessionClosed)
	require.ErrorIs(t, e.Leave(ctx, s.ChannelID, "a"), ErrSessionClosed)
	require.ErrorIs(t, e.Remove(ctx, s.ChannelID, admin("mod"), "a"), ErrSessionClosed)

	// Closing twice is rejected.
	_, err = e.BeginClose(ctx, s.ChannelID, admin("mod"))
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestSettleExactlyOnce(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	// Grim Express pays 10 points.
	s := openSession(t, e, "Grim Express")
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("a")))
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("b")))
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("c")))
	require.NoError(t, e.Leave(ctx, s.ChannelID, "c"))

	_, err := e.BeginClose(ctx, s.ChannelID, admin("mod"))
	require.NoError(t, err)

	require.NoError(t, e.Settle(ctx, s))
	require.NoError(t, e.Settle(ctx, s))

	// Helpers present at close get the full value once; the helper who
	// left gets nothing.
	require.Equal(t, 10, stores.balance(testGuild, "a"))
	require.Equal(t, 10, stores.balance(testGuild, "b"))
	require.Equal(t, 0, stores.balance(testGuild, "c"))
}

func TestFinalizeResetsCounter(t *testing.T) {
	stores := newTestStores()
	e := newTestEngine(t, stores, nil)
	ctx := context.Background()

	var last *Session
	for i := 0; i < 4; i++ {
		last = openSession(t, e, "Daily Temple Express")
	}
	require.Equal(t, 4, last.Number)

	openSession(t, e, "Daily Temple Express")

	// Another ticket of the category is still open: no reset.
	_, err := e.BeginClose(ctx, last.ChannelID, admin("mod"))
	require.NoError(t, err)
	e.Finalize(ctx, last)
	require.Equal(t, 5, stores.counter(testGuild, "Daily Temple Express"))

	// The other sessions finalize too; the last one resets the counter.
	for _, s := range e.Registry().ForGuild(testGuild) {
		_, err := e.BeginClose(ctx, s.ChannelID, admin("mod"))
		require.NoError(t, err)
		e.Finalize(ctx, s)
	}
	require.Equal(t, 0, stores.counter(testGuild, "Daily Temple Express"))

	// After the reset the next ticket starts over at 1.
	fresh := openSession(t, e, "Daily Temple Express")
	require.Equal(t, 1, fresh.Number)
}

func TestRosterProjection(t *testing.T) {
	stores := newTestStores()
	p := new(recordingPresenter)
	e := newTestEngine(t, stores, p)
	ctx := context.Background()

	s := openSession(t, e, "Ultra Speaker Express")
	require.NoError(t, e.Join(ctx, s.ChannelID, helper("a")))

	snap := p.last(t)
	require.Equal(t, []string{"1. <@a>", "2. [Empty]", "3. [Empty]"}, snap.RosterLines)
	require.Equal(t, "Ultra Speaker Express", snap.Category)
	require.Equal(t, 8, snap.Reward)
	require.Equal(t, "Wolfie", snap.Intake.IGN)
}
