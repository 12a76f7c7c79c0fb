// Package router binds inbound client messages to session engine
// operations and routes the resulting notifications back out.
package router

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/parlorgames/gridroom/internal/game"
)

// Sender delivers marshalled frames to connections. Implemented by the
// websocket hub; sends to unknown or dead connections are dropped.
type Sender interface {
	Send(connID string, msg []byte)
	Broadcast(msg []byte)
}

// Router dispatches client events into the Coordinator and fans the
// resulting updates out through the Sender.
type Router struct {
	coord  *game.Coordinator
	sender Sender
	logger *zap.Logger
}

// New creates a Router over the given coordinator. The Sender is attached
// separately because the hub and the router reference each other.
//
// Precondition: coord and logger must be non-nil.
func New(coord *game.Coordinator, logger *zap.Logger) *Router {
	return &Router{
		coord:  coord,
		logger: logger,
	}
}

// SetSender attaches the transport. Must be called before any traffic.
//
// Precondition: s must be non-nil.
func (r *Router) SetSender(s Sender) {
	r.sender = s
}

// HandleConnect registers a new connection and sends it the current
// directory so a fresh client can render the room list immediately.
func (r *Router) HandleConnect(connID string) {
	r.coord.Connect(connID)
	if msg, ok := r.encode(TypeRoomList, r.coord.ListRooms()); ok {
		r.sender.Send(connID, msg)
	}
}

// HandleMessage decodes one inbound frame and dispatches it. Malformed
// frames and unknown types are dropped: a well-behaved client never sends
// them, and an abnormal one gets no oracle.
func (r *Router) HandleMessage(connID string, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Debug("malformed frame", zap.String("conn_id", connID), zap.Error(err))
		return
	}

	switch env.Type {
	case TypeCreateRoom:
		var p CreateRoomPayload
		if !r.decode(connID, env.Payload, &p) {
			return
		}
		r.deliver(connID, r.coord.CreateRoom(connID, p.RoomName, p.PlayerName, p.IsPrivate, p.Password))

	case TypeJoinRoom:
		var p JoinRoomPayload
		if !r.decode(connID, env.Payload, &p) {
			return
		}
		r.deliver(connID, r.coord.Join(connID, p.RoomID, p.PlayerName, p.Password, p.IsLinkJoin))

	case TypeMakeMove:
		var p MakeMovePayload
		if !r.decode(connID, env.Payload, &p) {
			return
		}
		r.deliver(connID, r.coord.ApplyMove(connID, p.RoomID, p.Index))

	case TypeResetGame:
		var roomID string
		if !r.decode(connID, env.Payload, &roomID) {
			return
		}
		r.deliver(connID, r.coord.VoteReset(connID, roomID))

	default:
		r.logger.Debug("unknown message type",
			zap.String("conn_id", connID),
			zap.String("type", env.Type),
		)
	}
}

// HandleDisconnect departs the connection from every room it occupied and
// always re-broadcasts the directory, even when no room held it.
func (r *Router) HandleDisconnect(connID string) {
	for _, u := range r.coord.Disconnect(connID) {
		r.deliver(connID, u)
	}
	r.broadcastDirectory()
}

// Deliver fans out an update with no originating request, such as a
// reaper eviction.
func (r *Router) Deliver(u game.Update) {
	r.deliver("", u)
}

func (r *Router) deliver(requester string, u game.Update) {
	if u.Err != nil {
		if requester == "" {
			r.logger.Warn("update error with no requester", zap.Error(u.Err))
			return
		}
		if msg, ok := r.encode(TypeError, userMessage(u.Err)); ok {
			r.sender.Send(requester, msg)
		}
		return
	}

	if u.Notice != "" {
		if msg, ok := r.encode(TypeError, u.Notice); ok {
			for _, id := range u.Recipients {
				r.sender.Send(id, msg)
			}
		}
	}

	if u.Snapshot != nil {
		msgType := TypeRoomUpdated
		if u.Created {
			msgType = TypeRoomCreated
		}
		if msg, ok := r.encode(msgType, u.Snapshot); ok {
			for _, id := range u.Recipients {
				r.sender.Send(id, msg)
			}
		}
	}

	if u.Directory {
		r.broadcastDirectory()
	}
}

func (r *Router) broadcastDirectory() {
	if msg, ok := r.encode(TypeRoomList, r.coord.ListRooms()); ok {
		r.sender.Broadcast(msg)
	}
}

func (r *Router) decode(connID string, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		r.logger.Debug("malformed payload", zap.String("conn_id", connID), zap.Error(err))
		return false
	}
	return true
}

func (r *Router) encode(msgType string, payload any) ([]byte, bool) {
	raw, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("marshalling payload", zap.String("type", msgType), zap.Error(err))
		return nil, false
	}
	msg, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		r.logger.Error("marshalling envelope", zap.String("type", msgType), zap.Error(err))
		return nil, false
	}
	return msg, true
}

// userMessage maps engine errors to the client-facing vocabulary.
func userMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrNameTaken):
		return "Room ID already exists"
	case errors.Is(err, game.ErrNotFound):
		return "Room ID not found"
	case errors.Is(err, game.ErrRoomFull):
		return "Room is full"
	case errors.Is(err, game.ErrIncorrectPassword):
		return "Incorrect password"
	case errors.Is(err, game.ErrPasswordRequired):
		return "Password required"
	default:
		return "Something went wrong"
	}
}
