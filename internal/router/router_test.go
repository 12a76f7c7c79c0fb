package router

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/parlorgames/gridroom/internal/game"
)

// fakeSender records every frame routed through it.
type fakeSender struct {
	sent       map[string][]Envelope // conn id → frames
	broadcasts []Envelope
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(map[string][]Envelope)}
}

func (f *fakeSender) Send(connID string, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		panic(fmt.Sprintf("unparseable frame: %v", err))
	}
	f.sent[connID] = append(f.sent[connID], env)
}

func (f *fakeSender) Broadcast(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		panic(fmt.Sprintf("unparseable frame: %v", err))
	}
	f.broadcasts = append(f.broadcasts, env)
}

func (f *fakeSender) lastOfType(t *testing.T, connID, msgType string) Envelope {
	t.Helper()
	frames := f.sent[connID]
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type == msgType {
			return frames[i]
		}
	}
	t.Fatalf("no %q frame sent to %s (got %d frames)", msgType, connID, len(frames))
	return Envelope{}
}

func newTestRouter(t *testing.T) (*Router, *fakeSender) {
	coord := game.NewCoordinator(game.NewStore(), game.NewRegistry(), zaptest.NewLogger(t))
	r := New(coord, zaptest.NewLogger(t))
	s := newFakeSender()
	r.SetSender(s)
	return r, s
}

func send(t *testing.T, r *Router, connID, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	require.NoError(t, err)
	r.HandleMessage(connID, frame)
}

func TestConnectSendsDirectory(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")

	env := s.lastOfType(t, "c1", TypeRoomList)
	var list []game.Summary
	require.NoError(t, json.Unmarshal(env.Payload, &list))
	assert.Empty(t, list)
}

func TestCreateRoomRoutesToRequesterOnly(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	r.HandleConnect("c2")

	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "abc", PlayerName: "Alice"})

	env := s.lastOfType(t, "c1", TypeRoomCreated)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &snap))
	assert.Equal(t, "ABC", snap.Name)

	// c2 got no creation frame, but everyone got the refreshed directory.
	for _, f := range s.sent["c2"] {
		assert.NotEqual(t, TypeRoomCreated, f.Type)
	}
	require.NotEmpty(t, s.broadcasts)
	last := s.broadcasts[len(s.broadcasts)-1]
	assert.Equal(t, TypeRoomList, last.Type)
	var list []game.Summary
	require.NoError(t, json.Unmarshal(last.Payload, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ABC", list[0].Name)
}

func TestCreateRoomConflictVocabulary(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	r.HandleConnect("c2")

	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "abc", PlayerName: "Alice"})
	send(t, r, "c2", TypeCreateRoom, CreateRoomPayload{RoomName: "ABC", PlayerName: "Bob"})

	env := s.lastOfType(t, "c2", TypeError)
	var msg string
	require.NoError(t, json.Unmarshal(env.Payload, &msg))
	assert.Equal(t, "Room ID already exists", msg)
}

func TestErrorVocabulary(t *testing.T) {
	cases := []struct {
		err  error
		text string
	}{
		{game.ErrNameTaken, "Room ID already exists"},
		{game.ErrNotFound, "Room ID not found"},
		{game.ErrRoomFull, "Room is full"},
		{game.ErrIncorrectPassword, "Incorrect password"},
		{game.ErrPasswordRequired, "Password required"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.text, userMessage(tc.err))
	}
}

func TestJoinNotifiesAllMembers(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	r.HandleConnect("c2")
	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "abc", PlayerName: "Alice"})

	send(t, r, "c2", TypeJoinRoom, JoinRoomPayload{RoomID: "abc", PlayerName: "Bob"})

	for _, conn := range []string{"c1", "c2"} {
		env := s.lastOfType(t, conn, TypeRoomUpdated)
		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(env.Payload, &snap))
		assert.Equal(t, game.StatusActive, snap.Status)
		assert.Len(t, snap.Players, 2)
	}
}

func TestJoinFailureGoesToRequesterOnly(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	r.HandleConnect("c2")
	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "p1", PlayerName: "Alice", IsPrivate: true, Password: "pw"})

	send(t, r, "c2", TypeJoinRoom, JoinRoomPayload{RoomID: "p1", PlayerName: "Bob", Password: "nope"})

	env := s.lastOfType(t, "c2", TypeError)
	var msg string
	require.NoError(t, json.Unmarshal(env.Payload, &msg))
	assert.Equal(t, "Incorrect password", msg)

	for _, f := range s.sent["c1"] {
		assert.NotEqual(t, TypeError, f.Type)
	}
}

func TestInvalidMoveEmitsNothing(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "abc", PlayerName: "Alice"})

	before := len(s.sent["c1"]) + len(s.broadcasts)
	// Room is not active yet; the move is silently dropped.
	send(t, r, "c1", TypeMakeMove, MakeMovePayload{RoomID: "abc", Index: 0})
	assert.Equal(t, before, len(s.sent["c1"])+len(s.broadcasts))
}

func TestMoveBroadcastsToMembers(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	r.HandleConnect("c2")
	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "abc", PlayerName: "Alice"})
	send(t, r, "c2", TypeJoinRoom, JoinRoomPayload{RoomID: "abc", PlayerName: "Bob"})

	send(t, r, "c1", TypeMakeMove, MakeMovePayload{RoomID: "abc", Index: 4})

	for _, conn := range []string{"c1", "c2"} {
		env := s.lastOfType(t, conn, TypeRoomUpdated)
		var snap game.Snapshot
		require.NoError(t, json.Unmarshal(env.Payload, &snap))
		assert.Equal(t, game.SymbolX, snap.Board[4])
		assert.Equal(t, 1, snap.CurrentPlayerIndex)
	}
}

func TestResetGamePayloadIsBareRoomID(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	r.HandleConnect("c2")
	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "abc", PlayerName: "Alice"})
	send(t, r, "c2", TypeJoinRoom, JoinRoomPayload{RoomID: "abc", PlayerName: "Bob"})

	// Alice takes the top row.
	send(t, r, "c1", TypeMakeMove, MakeMovePayload{RoomID: "abc", Index: 0})
	send(t, r, "c2", TypeMakeMove, MakeMovePayload{RoomID: "abc", Index: 3})
	send(t, r, "c1", TypeMakeMove, MakeMovePayload{RoomID: "abc", Index: 1})
	send(t, r, "c2", TypeMakeMove, MakeMovePayload{RoomID: "abc", Index: 4})
	send(t, r, "c1", TypeMakeMove, MakeMovePayload{RoomID: "abc", Index: 2})

	send(t, r, "c1", TypeResetGame, "abc")
	env := s.lastOfType(t, "c2", TypeRoomUpdated)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &snap))
	assert.Equal(t, game.StatusConcluded, snap.Status)
	assert.Equal(t, []string{"c1"}, snap.ResetVotes)

	send(t, r, "c2", TypeResetGame, "abc")
	env = s.lastOfType(t, "c1", TypeRoomUpdated)
	require.NoError(t, json.Unmarshal(env.Payload, &snap))
	assert.Equal(t, game.StatusActive, snap.Status)
	assert.Empty(t, snap.ResetVotes)
}

func TestDisconnectNotifiesRemainderAndDirectory(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	r.HandleConnect("c2")
	send(t, r, "c1", TypeCreateRoom, CreateRoomPayload{RoomName: "abc", PlayerName: "Alice"})
	send(t, r, "c2", TypeJoinRoom, JoinRoomPayload{RoomID: "abc", PlayerName: "Bob"})

	broadcastsBefore := len(s.broadcasts)
	r.HandleDisconnect("c2")

	env := s.lastOfType(t, "c1", TypeRoomUpdated)
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(env.Payload, &snap))
	assert.Equal(t, game.StatusAwaiting, snap.Status)
	assert.Len(t, snap.Players, 1)

	assert.Greater(t, len(s.broadcasts), broadcastsBefore, "disconnect always refreshes the directory")
}

func TestDisconnectWithoutRoomsStillBroadcasts(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")

	before := len(s.broadcasts)
	r.HandleDisconnect("c1")
	assert.Equal(t, before+1, len(s.broadcasts))
}

func TestMalformedFramesAreDropped(t *testing.T) {
	r, s := newTestRouter(t)
	r.HandleConnect("c1")
	before := len(s.sent["c1"]) + len(s.broadcasts)

	r.HandleMessage("c1", []byte("not json"))
	r.HandleMessage("c1", []byte(`{"type":"create-room","payload":42}`))
	r.HandleMessage("c1", []byte(`{"type":"no-such-type"}`))

	assert.Equal(t, before, len(s.sent["c1"])+len(s.broadcasts))
}
