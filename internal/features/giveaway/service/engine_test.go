package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exhub-store-bot/internal/features/giveaway/models"
	"exhub-store-bot/internal/features/giveaway/store"
	"exhub-store-bot/internal/platform/backend"
)

type memStore struct {
	mu      sync.Mutex
	records map[string]*models.Giveaway
	saves   int
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*models.Giveaway)}
}

func (s *memStore) LoadAll() (map[string]*models.Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.Giveaway, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out, nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memStore) SaveAll(records map[string]*models.Giveaway) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.records = make(map[string]*models.Giveaway, len(records))
	for id, rec := range records {
		s.records[id] = rec
	}
	return nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	nextMessageID int
	publishErr    error
	refreshCounts []int
	results       []string
}

func (n *fakeNotifier) PublishAnnouncement(_ context.Context, _ *models.Giveaway) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.publishErr != nil {
		return "", n.publishErr
	}
	n.nextMessageID++
	return fmt.Sprintf("msg-%d", n.nextMessageID), nil
}

func (n *fakeNotifier) RefreshAnnouncement(_ context.Context, _ *models.Giveaway, count int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refreshCounts = append(n.refreshCounts, count)
	return nil
}

func (n *fakeNotifier) PublishResults(_ context.Context, g *models.Giveaway) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, g.ID)
	return nil
}

func (n *fakeNotifier) resultCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

type fakeRemote struct {
	mu sync.Mutex
	// When non-nil, Create blocks until the channel is closed.
	createGate chan struct{}
	enabled    bool
	createRes  *backend.CreateResult
	createErr  error
	joinRes    *backend.JoinResult
	joinErr    error
	endRes     *backend.EndResult
	endErr     error
	endCalls   int
}

func (r *fakeRemote) Enabled() bool { return r.enabled }

func (r *fakeRemote) Create(_ context.Context, _ backend.CreateRequest) (*backend.CreateResult, error) {
	if r.createGate != nil {
		<-r.createGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createRes, r.createErr
}

func (r *fakeRemote) Join(_ context.Context, _ string, _ backend.Participant) (*backend.JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joinRes, r.joinErr
}

func (r *fakeRemote) End(_ context.Context, _ string) (*backend.EndResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endCalls++
	return r.endRes, r.endErr
}

type fakeResolver struct{}

func (fakeResolver) ResolveMember(_ context.Context, _ string, userID string) (models.EntrantDetail, error) {
	return models.EntrantDetail{ID: userID, Username: "user-" + userID}, nil
}

func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeNotifier) {
	t.Helper()
	st := newMemStore()
	notifier := &fakeNotifier{}
	e := NewEngine(st, nil, notifier, fakeResolver{})
	t.Cleanup(e.sched.StopAll)
	return e, st, notifier
}

func validCreate() models.GiveawayCreate {
	return models.GiveawayCreate{
		GuildID:      "guild-1",
		ChannelID:    "channel-1",
		HostID:       "host-1",
		Prize:        "Lifetime Key",
		WinnersCount: 1,
		DurationText: "10 minutes",
	}
}

func TestCreateValidation(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.GiveawayCreate)
	}{
		{"empty prize", func(in *models.GiveawayCreate) { in.Prize = "   " }},
		{"zero winners", func(in *models.GiveawayCreate) { in.WinnersCount = 0 }},
		{"negative winners", func(in *models.GiveawayCreate) { in.WinnersCount = -3 }},
		{"unparseable duration", func(in *models.GiveawayCreate) { in.DurationText = "soon" }},
		{"sub-minute duration", func(in *models.GiveawayCreate) { in.DurationText = "0 minutes" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreate()
			tt.mutate(&in)
			_, err := e.Create(ctx, in)
			require.Error(t, err)
		})
	}

	assert.Equal(t, 0, st.saves)
}

func TestCreatePersistsAndArms(t *testing.T) {
	e, st, _ := newTestEngine(t)

	rec, err := e.Create(context.Background(), validCreate())
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	assert.False(t, rec.Ended)
	assert.Equal(t, "Lifetime Key", rec.Prize)
	assert.InDelta(t, rec.CreatedAt+int64(10*time.Minute/time.Millisecond), rec.EndAt, 1)
	assert.True(t, e.sched.Pending(rec.ID))

	saved, err := st.LoadAll()
	require.NoError(t, err)
	require.Contains(t, saved, rec.ID)
}

func TestJoinAndLeave(t *testing.T) {
	e, _, notifier := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)

	assert.Equal(t, 1, e.Join(ctx, rec.ID, "alice"))
	assert.Equal(t, 2, e.Join(ctx, rec.ID, "bob"))
	assert.Equal(t, 2, e.Join(ctx, rec.ID, "alice"), "duplicate join must not grow the set")

	assert.Equal(t, 1, e.Leave(ctx, rec.ID, "bob"))
	assert.Equal(t, 1, e.Leave(ctx, rec.ID, "bob"), "second leave is a no-op")

	got, err := e.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.Entrants)
	assert.Equal(t, []int{1, 2, 1}, notifier.refreshCounts)
}

func TestJoinUnknownOrEnded(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()

	assert.Equal(t, 0, e.Join(ctx, "missing", "alice"))

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)
	_, err = e.End(ctx, rec.ID, "host-1")
	require.NoError(t, err)

	savesBefore := st.saves
	assert.Equal(t, 0, e.Join(ctx, rec.ID, "alice"))
	assert.Equal(t, savesBefore, st.saves, "joining an ended giveaway must not write")
}

func TestSaveWritesDetachedCopies(t *testing.T) {
	e, st, _ := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)
	require.Equal(t, 1, e.Join(ctx, rec.ID, "alice"))

	saved, err := st.LoadAll()
	require.NoError(t, err)
	snapshot := saved[rec.ID]
	require.Len(t, snapshot.Entrants, 1)

	// The persisted record must not alias the live one.
	require.Equal(t, 2, e.Join(ctx, rec.ID, "bob"))
	assert.Equal(t, []string{"alice"}, snapshot.Entrants)
}

func TestConcurrentJoinsPersistCleanly(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "giveaways.json"))
	notifier := &fakeNotifier{}
	e := NewEngine(st, nil, notifier, fakeResolver{})
	t.Cleanup(e.sched.StopAll)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)

	const joiners = 32
	var wg sync.WaitGroup
	wg.Add(joiners)
	for i := 0; i < joiners; i++ {
		go func(n int) {
			defer wg.Done()
			e.Join(ctx, rec.ID, fmt.Sprintf("user-%d", n))
		}(i)
	}
	wg.Wait()

	live, err := e.Get(rec.ID)
	require.NoError(t, err)
	assert.Len(t, live.DistinctEntrants(), joiners)

	// Concurrent writers may finish out of order; the shutdown save is
	// the snapshot that has to be complete.
	e.Shutdown()

	saved, err := st.LoadAll()
	require.NoError(t, err)
	require.Contains(t, saved, rec.ID)
	assert.Len(t, saved[rec.ID].Entrants, joiners)
}

func TestLateRemoteRegistrationSkipsEnded(t *testing.T) {
	gate := make(chan struct{})
	remote := &fakeRemote{
		enabled:    true,
		createGate: gate,
		createRes:  &backend.CreateResult{GiveawayID: "remote-9", SummaryURL: "https://example.com/g/9"},
	}
	st := newMemStore()
	e := NewEngine(st, remote, &fakeNotifier{}, fakeResolver{})
	t.Cleanup(e.sched.StopAll)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)

	_, err = e.End(ctx, rec.ID, "host-1")
	require.NoError(t, err)
	savesAfterEnd := st.saveCount()

	// Let the registration round trip finish after the end transition
	// and wait for its save.
	close(gate)
	require.Eventually(t, func() bool {
		return st.saveCount() > savesAfterEnd
	}, time.Second, 5*time.Millisecond)

	got, err := e.Get(rec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RemoteGiveawayID)
	assert.Empty(t, got.RemoteSummaryURL)
}

func TestEndSelectsWinners(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Create(ctx, models.GiveawayCreate{
		GuildID: "g", ChannelID: "c", HostID: "h",
		Prize: "Key", WinnersCount: 2, DurationText: "5m",
	})
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c", "d"} {
		e.Join(ctx, rec.ID, id)
	}

	ended, err := e.End(ctx, rec.ID, "mod-1")
	require.NoError(t, err)

	assert.True(t, ended.Ended)
	assert.Equal(t, "mod-1", ended.EndedBy)
	assert.NotZero(t, ended.EndedAt)
	assert.Len(t, ended.Winners, 2)
	assert.Len(t, ended.EntrantsDetail, 4)
	assert.False(t, e.sched.Pending(rec.ID))

	seen := map[string]bool{}
	for _, w := range ended.Winners {
		assert.Contains(t, []string{"a", "b", "c", "d"}, w.ID)
		assert.False(t, seen[w.ID], "winner drawn twice")
		seen[w.ID] = true
	}
}

func TestEndFewerEntrantsThanWinners(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Create(ctx, models.GiveawayCreate{
		GuildID: "g", ChannelID: "c", HostID: "h",
		Prize: "Key", WinnersCount: 5, DurationText: "5m",
	})
	require.NoError(t, err)
	e.Join(ctx, rec.ID, "only")

	ended, err := e.End(ctx, rec.ID, "")
	require.NoError(t, err)
	require.Len(t, ended.Winners, 1)
	assert.Equal(t, "only", ended.Winners[0].ID)
}

func TestEndWithNoEntrants(t *testing.T) {
	e, _, _ := newTestEngine(t)

	rec, err := e.Create(context.Background(), validCreate())
	require.NoError(t, err)

	ended, err := e.End(context.Background(), rec.ID, "")
	require.NoError(t, err)
	assert.True(t, ended.Ended)
	assert.Empty(t, ended.Winners)
}

func TestEndIsIdempotent(t *testing.T) {
	e, _, notifier := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)
	e.Join(ctx, rec.ID, "alice")

	first, err := e.End(ctx, rec.ID, "mod-1")
	require.NoError(t, err)
	second, err := e.End(ctx, rec.ID, "mod-2")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "mod-1", second.EndedBy, "second end must not rewrite the outcome")
	assert.Equal(t, 1, notifier.resultCount())
}

func TestConcurrentEndRunsOnce(t *testing.T) {
	e, _, notifier := newTestEngine(t)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)
	e.Join(ctx, rec.ID, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := e.End(ctx, rec.ID, fmt.Sprintf("caller-%d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, notifier.resultCount())
	got, err := e.Get(rec.ID)
	require.NoError(t, err)
	assert.Len(t, got.Winners, 1)
}

func TestEndUnknownGiveaway(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.End(context.Background(), "missing", "mod-1")
	require.Error(t, err)
}

func TestEndUsesBackendWinners(t *testing.T) {
	st := newMemStore()
	notifier := &fakeNotifier{}
	remote := &fakeRemote{
		enabled:   true,
		createRes: &backend.CreateResult{GiveawayID: "remote-1", SummaryURL: "https://gw.example/1"},
		joinRes:   &backend.JoinResult{ParticipantsCount: 42},
		endRes: &backend.EndResult{
			Winners:    []backend.Participant{{ID: "alice", Username: "alice#1"}},
			SummaryURL: "https://gw.example/1/summary",
		},
	}
	e := NewEngine(st, remote, notifier, fakeResolver{})
	t.Cleanup(e.sched.StopAll)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := e.Get(rec.ID)
		return err == nil && got.RemoteGiveawayID == "remote-1"
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 42, e.Join(ctx, rec.ID, "alice"), "backend count wins over local")

	ended, err := e.End(ctx, rec.ID, "")
	require.NoError(t, err)
	require.Len(t, ended.Winners, 1)
	assert.Equal(t, "alice", ended.Winners[0].ID)
	assert.Equal(t, "alice#1", ended.Winners[0].Username)
	assert.Equal(t, "https://gw.example/1/summary", ended.RemoteSummaryURL)
	assert.Equal(t, 1, remote.endCalls)
}

func TestEndSurvivesBackendFailure(t *testing.T) {
	st := newMemStore()
	notifier := &fakeNotifier{}
	remote := &fakeRemote{
		enabled:   true,
		createRes: &backend.CreateResult{GiveawayID: "remote-1"},
		joinRes:   &backend.JoinResult{},
		endErr:    fmt.Errorf("backend down"),
	}
	e := NewEngine(st, remote, notifier, fakeResolver{})
	t.Cleanup(e.sched.StopAll)
	ctx := context.Background()

	rec, err := e.Create(ctx, validCreate())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, _ := e.Get(rec.ID)
		return got != nil && got.RemoteGiveawayID == "remote-1"
	}, time.Second, 10*time.Millisecond)

	e.Join(ctx, rec.ID, "alice")
	e.Join(ctx, rec.ID, "bob")

	ended, err := e.End(ctx, rec.ID, "")
	require.NoError(t, err)
	assert.True(t, ended.Ended)
	assert.NotEmpty(t, ended.Winners, "local selection must cover for the backend")
}

func TestRestoreArmsActiveOnly(t *testing.T) {
	st := newMemStore()
	future := time.Now().Add(time.Hour).UnixMilli()

	st.records["active"] = &models.Giveaway{
		ID: "active", Prize: "Key", WinnersCount: 1, EndAt: future,
	}
	st.records["done"] = &models.Giveaway{
		ID: "done", Prize: "Key", WinnersCount: 1, EndAt: future, Ended: true,
	}

	e := NewEngine(st, nil, &fakeNotifier{}, fakeResolver{})
	t.Cleanup(e.sched.StopAll)

	require.NoError(t, e.Restore())
	assert.True(t, e.sched.Pending("active"))
	assert.False(t, e.sched.Pending("done"))
}

func TestRestoreEndsOverdueAfterGrace(t *testing.T) {
	st := newMemStore()
	st.records["overdue"] = &models.Giveaway{
		ID: "overdue", GuildID: "g", ChannelID: "c",
		Prize: "Key", WinnersCount: 1,
		EndAt:    time.Now().Add(-time.Hour).UnixMilli(),
		Entrants: []string{"alice"},
	}

	notifier := &fakeNotifier{}
	e := NewEngine(st, nil, notifier, fakeResolver{})
	t.Cleanup(e.sched.StopAll)
	e.sched.grace = 20 * time.Millisecond

	require.NoError(t, e.Restore())

	require.Eventually(t, func() bool {
		got, err := e.Get("overdue")
		return err == nil && got.Ended
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, notifier.resultCount())
}
