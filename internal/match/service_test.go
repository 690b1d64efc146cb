// internal/match/service_test.go
package match

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekaustubh/matchpoint/internal/directory"
	"github.com/dekaustubh/matchpoint/internal/events"
	"github.com/dekaustubh/matchpoint/internal/models"
)

// fakeStore is an in-memory stand-in for the postgres store. It implements
// both the service's Store and the directory's Store.
type fakeStore struct {
	mu      sync.Mutex
	rooms   map[int64]*models.Room
	users   map[uuid.UUID]*models.User
	matches map[int64]*models.Match
	points  map[int64]map[uuid.UUID]int
	nextID  int64

	playerReads int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:   make(map[int64]*models.Room),
		users:   make(map[uuid.UUID]*models.User),
		matches: make(map[int64]*models.Match),
		points:  make(map[int64]map[uuid.UUID]int),
		nextID:  1,
	}
}

func (f *fakeStore) addUser(name string) uuid.UUID {
	id := uuid.New()
	f.users[id] = &models.User{ID: id, Name: name, Email: name + "@example.com"}
	return id
}

func (f *fakeStore) addRoom(creator uuid.UUID, members ...uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.rooms[id] = &models.Room{
		ID:            id,
		Name:          "room",
		LeaderboardID: id,
		CreatedBy:     creator,
		Members:       append([]uuid.UUID{creator}, members...),
	}
	return id
}

func (f *fakeStore) GetRoom(_ context.Context, roomID int64) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[roomID], nil
}

func (f *fakeStore) GetUser(_ context.Context, userID uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeStore) GetMatch(_ context.Context, matchID int64) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.Players = append([]uuid.UUID(nil), m.Players...)
	return &cp, nil
}

func (f *fakeStore) CreateMatch(_ context.Context, roomID int64, creator uuid.UUID, name string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	m := &models.Match{
		ID:        id,
		Name:      name,
		RoomID:    roomID,
		CreatedBy: creator,
		Players:   []uuid.UUID{creator},
		Status:    models.MatchWaiting,
	}
	f.matches[id] = m
	cp := *m
	cp.Players = append([]uuid.UUID(nil), m.Players...)
	return &cp, nil
}

func (f *fakeStore) UpdateMatch(_ context.Context, matchID int64, patch Patch) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[matchID]
	if !ok {
		return nil, nil
	}
	if patch.WinnerID != nil {
		m.WinnerID = *patch.WinnerID
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.Players != nil {
		m.Players = append([]uuid.UUID(nil), patch.Players...)
	}
	if patch.Points != nil {
		m.Points = *patch.Points
	}
	cp := *m
	cp.Players = append([]uuid.UUID(nil), m.Players...)
	return &cp, nil
}

func (f *fakeStore) AddLeaderboardPoints(_ context.Context, roomID int64, userID uuid.UUID, points int) (*models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.points[roomID] == nil {
		f.points[roomID] = make(map[uuid.UUID]int)
	}
	f.points[roomID][userID] += points
	return &models.LeaderboardEntry{RoomID: roomID, UserID: userID, Points: f.points[roomID][userID]}, nil
}

func (f *fakeStore) GetMatchPlayers(_ context.Context, matchID int64) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playerReads++
	m, ok := f.matches[matchID]
	if !ok {
		return nil, nil
	}
	return append([]uuid.UUID(nil), m.Players...), nil
}

func (f *fakeStore) GetRoomMembers(_ context.Context, roomID int64) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return append([]uuid.UUID(nil), r.Members...), nil
}

// recordingDispatcher captures every fan-out for inspection.
type recordingDispatcher struct {
	calls []dispatchCall
}

type dispatchCall struct {
	actor   uuid.UUID
	targets []uuid.UUID
	ev      events.Event
}

func (d *recordingDispatcher) Dispatch(actor uuid.UUID, targets []uuid.UUID, ev events.Event) {
	d.calls = append(d.calls, dispatchCall{actor: actor, targets: targets, ev: ev})
}

// recordingFeed captures published transition records.
type recordingFeed struct {
	records []FeedRecord
}

func (f *recordingFeed) Publish(_ context.Context, record FeedRecord) error {
	f.records = append(f.records, record)
	return nil
}

func newTestService(store *fakeStore) (*Service, *recordingDispatcher) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	disp := &recordingDispatcher{}
	return NewService(store, directory.New(store), disp, nil, logger), disp
}

func TestCreateStartsWaitingWithCreatorAsOnlyPlayer(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, disp := newTestService(store)

	m, err := svc.Create(context.Background(), roomID, alice, "friday night")
	require.NoError(t, err)
	assert.Equal(t, models.MatchWaiting, m.Status)
	assert.Equal(t, []uuid.UUID{alice}, m.Players)
	assert.Equal(t, alice, m.CreatedBy)

	require.Len(t, disp.calls, 1)
	call := disp.calls[0]
	assert.Equal(t, alice, call.actor)
	assert.Equal(t, []uuid.UUID{alice, bob}, call.targets)
	created, ok := call.ev.(events.MatchCreated)
	require.True(t, ok)
	assert.Equal(t, "alice", created.UserName)
	assert.Equal(t, m.ID, created.MatchID)
}

func TestCreateUnknownRoomFails(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")

	svc, disp := newTestService(store)

	_, err := svc.Create(context.Background(), 999, alice, "")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, disp.calls)
}

func TestCreateUnknownUserFails(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	roomID := store.addRoom(alice)

	svc, disp := newTestService(store)

	_, err := svc.Create(context.Background(), roomID, uuid.New(), "")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, disp.calls)
}

func TestJoinAppendsPlayerAndNotifies(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, disp := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)

	updated, err := svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice, bob}, updated.Players)

	require.Len(t, disp.calls, 2)
	call := disp.calls[1]
	assert.Equal(t, bob, call.actor)
	assert.Equal(t, []uuid.UUID{alice, bob}, call.targets)
	joined, ok := call.ev.(events.MatchJoined)
	require.True(t, ok)
	assert.Equal(t, "bob", joined.UserName)
}

func TestJoinRejectedOnceStarted(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, disp := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), m.ID, roomID, alice)
	require.NoError(t, err)

	before := len(disp.calls)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	assert.ErrorIs(t, err, ErrMatchClosed)
	// A rejected transition never produces an event.
	assert.Len(t, disp.calls, before)

	stored, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice}, stored.Players)
}

func TestJoinTwiceRejected(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, disp := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)

	before := len(disp.calls)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
	assert.Len(t, disp.calls, before)

	stored, err := svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice, bob}, stored.Players)
}

func TestCreatorCannotRejoinOwnMatch(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	roomID := store.addRoom(alice)

	svc, _ := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), m.ID, roomID, alice)
	assert.ErrorIs(t, err, ErrAlreadyJoined)
}

func TestStartHasNoMinimumPlayerCount(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	roomID := store.addRoom(alice)

	svc, _ := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)

	updated, err := svc.Start(context.Background(), m.ID, roomID, alice)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStarted, updated.Status)
}

func TestStartUnknownMatchFails(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	roomID := store.addRoom(alice)

	svc, _ := newTestService(store)
	_, err := svc.Start(context.Background(), 404, roomID, alice)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestTakeTurnResolvesNextHolder(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, disp := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), m.ID, roomID, alice)
	require.NoError(t, err)

	next, err := svc.TakeTurn(context.Background(), m.ID, roomID, alice, 42, alice)
	require.NoError(t, err)
	assert.Equal(t, bob, next.ID)
	assert.Equal(t, "bob", next.Name)

	call := disp.calls[len(disp.calls)-1]
	turn, ok := call.ev.(events.MatchTurn)
	require.True(t, ok)
	assert.Equal(t, 42, turn.Number)
	require.NotNil(t, turn.NextTurn)
	assert.Equal(t, bob, turn.NextTurn.ID)
}

func TestWinEndsMatchAndCreditsLeaderboard(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	carol := store.addUser("carol")
	roomID := store.addRoom(alice, bob, carol)

	svc, disp := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), m.ID, roomID, carol)
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), m.ID, roomID, alice)
	require.NoError(t, err)

	updated, err := svc.Win(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	assert.Equal(t, models.MatchEnded, updated.Status)
	assert.Equal(t, bob, updated.WinnerID)
	assert.Equal(t, 15, updated.Points) // 5 per seat, three seats

	assert.Equal(t, 15, store.points[roomID][bob])

	call := disp.calls[len(disp.calls)-1]
	assert.Equal(t, bob, call.actor)
	won, ok := call.ev.(events.MatchWon)
	require.True(t, ok)
	assert.Equal(t, 15, won.Points)
	assert.Equal(t, "bob", won.UserName)
}

// Winning an already-ended match is not rejected and credits the winner again.
// Pinned deliberately; see the Win doc comment.
func TestWinTwiceCreditsPointsTwice(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, _ := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)

	_, err = svc.Win(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	_, err = svc.Win(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)

	assert.Equal(t, 20, store.points[roomID][bob])
}

// Fan-out targets for match-scope events come from the stored player list read
// at dispatch time, not from whatever snapshot the operation happened to hold.
func TestFanOutTargetsReadCurrentStoredPlayers(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, disp := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, store.playerReads)
	assert.Equal(t, []uuid.UUID{alice, bob}, disp.calls[len(disp.calls)-1].targets)

	// Swap the player list out from under the match; the next fan-out must see
	// the replacement, not the list Join left behind.
	_, err = svc.Update(context.Background(), m.ID, Patch{Players: []uuid.UUID{alice}})
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), m.ID, roomID, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, store.playerReads)
	assert.Equal(t, []uuid.UUID{alice}, disp.calls[len(disp.calls)-1].targets)
}

func TestUpdateBypassesGuardsAndEmitsNothing(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	roomID := store.addRoom(alice)

	svc, disp := newTestService(store)
	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)

	before := len(disp.calls)
	status := models.MatchEnded
	updated, err := svc.Update(context.Background(), m.ID, Patch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.MatchEnded, updated.Status)
	assert.Len(t, disp.calls, before)
}

func TestFeedReceivesEveryTransition(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	feed := &recordingFeed{}
	svc := NewService(store, directory.New(store), &recordingDispatcher{}, feed, logger)

	m, err := svc.Create(context.Background(), roomID, alice, "")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), m.ID, roomID, alice)
	require.NoError(t, err)
	_, err = svc.Win(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)

	require.Len(t, feed.records, 4)
	assert.Equal(t, "MATCH_CREATE", feed.records[0].EventType)
	assert.Equal(t, "JOIN", feed.records[1].EventType)
	assert.Equal(t, "START", feed.records[2].EventType)
	assert.Equal(t, "WIN", feed.records[3].EventType)
	assert.Equal(t, 10, feed.records[3].Points)
	for _, rec := range feed.records {
		assert.NotZero(t, rec.Timestamp)
		assert.Equal(t, m.ID, rec.MatchID)
	}
}

// Full lifecycle: create, join, start, rotate turns, win. The winner collects
// five points per seat and the losers' totals are untouched.
func TestFullMatchLifecycle(t *testing.T) {
	store := newFakeStore()
	alice := store.addUser("alice")
	bob := store.addUser("bob")
	roomID := store.addRoom(alice, bob)

	svc, disp := newTestService(store)

	m, err := svc.Create(context.Background(), roomID, alice, "best of one")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), m.ID, roomID, alice)
	require.NoError(t, err)

	next, err := svc.TakeTurn(context.Background(), m.ID, roomID, alice, 1, alice)
	require.NoError(t, err)
	assert.Equal(t, bob, next.ID)

	updated, err := svc.Win(context.Background(), m.ID, roomID, bob)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Points)
	assert.Equal(t, 10, store.points[roomID][bob])
	assert.Zero(t, store.points[roomID][alice])

	var kinds []events.Type
	for _, call := range disp.calls {
		kinds = append(kinds, call.ev.Kind())
	}
	assert.Equal(t, []events.Type{
		events.TypeMatchCreate,
		events.TypeMatchJoin,
		events.TypeMatchStart,
		events.TypeTakeTurn,
		events.TypeWin,
	}, kinds)
}
