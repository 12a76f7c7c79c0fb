package router

import "encoding/json"

// Inbound message types (client → server).
const (
	TypeCreateRoom = "create-room"
	TypeJoinRoom   = "join-room"
	TypeMakeMove   = "make-move"
	TypeResetGame  = "reset-game"
)

// Outbound message types (server → client).
const (
	TypeRoomList    = "room-list"
	TypeRoomCreated = "room-created"
	TypeRoomUpdated = "room-updated"
	TypeError       = "error"
)

// Envelope is the frame shared by every message in both directions: a type
// tag plus a type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomPayload asks for a new room with the sender as first player.
type CreateRoomPayload struct {
	RoomName   string `json:"roomName"`
	PlayerName string `json:"playerName"`
	IsPrivate  bool   `json:"isPrivate"`
	Password   string `json:"password,omitempty"`
}

// JoinRoomPayload asks to be admitted into an existing room.
// IsLinkJoin marks a direct-link admission that skips the password check.
type JoinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Password   string `json:"password,omitempty"`
	IsLinkJoin bool   `json:"isLinkJoin"`
}

// MakeMovePayload plays one cell.
type MakeMovePayload struct {
	RoomID string `json:"roomId"`
	Index  int    `json:"index"`
}

// The reset-game payload is the bare room id string.
