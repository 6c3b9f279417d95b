package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names a frame exchanged over the WebSocket
type EventType string

// Events sent by clients
const (
	EventJoinRoom         EventType = "joinRoom"
	EventChatMessage      EventType = "chatMessage"
	EventToggleReaction   EventType = "toggleReaction"
	EventTyping           EventType = "typing"
	EventStopTyping       EventType = "stopTyping"
	EventMessageDelivered EventType = "messageDelivered"
	EventMessageSeen      EventType = "messageSeen"
	EventDeleteMessage    EventType = "deleteMessage"
	EventEditMessage      EventType = "editMessage"
	EventKickUser         EventType = "kickUser"
	EventUpdateUserRole   EventType = "updateUserRole"
	EventLeaveRoom        EventType = "leaveRoom"
)

// Events sent by the server
const (
	EventUsernameError       EventType = "usernameError"
	EventMessage             EventType = "message"
	EventRoomUsers           EventType = "roomUsers"
	EventReactionsUpdated    EventType = "reactionsUpdated"
	EventDeleteMessageGlobal EventType = "deleteMessageGlobal"
	EventMessageEdited       EventType = "messageEdited"
	EventMessageReceipt      EventType = "messageReceipt"
)

// Receipt kinds carried by messageReceipt
const (
	ReceiptDelivered = "delivered"
	ReceiptSeen      = "seen"
)

// Envelope is the frame format in both directions
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode marshals an outbound frame
func Encode(t EventType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// ReplyTo references the message being answered
type ReplyTo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// FileInfo describes an uploaded chat file
type FileInfo struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Mimetype     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	UploadedBy   string    `json:"uploadedBy,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt,omitempty"`
}

// ChatMessage is the payload of the "message" event
type ChatMessage struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	Time        string    `json:"time"` // HH:MM, for display
	Timestamp   time.Time `json:"timestamp"`
	Room        string    `json:"room,omitempty"`
	ReplyTo     *ReplyTo  `json:"replyTo,omitempty"`
	FileInfo    *FileInfo `json:"fileInfo,omitempty"`
	MessageType string    `json:"messageType,omitempty"`
}

// NewChatMessage stamps a message with a fresh id and the current time
func NewChatMessage(username, text, room string) ChatMessage {
	now := time.Now()
	return ChatMessage{
		ID:        uuid.New().String(),
		Username:  username,
		Text:      text,
		Time:      now.Format("15:04"),
		Timestamp: now,
		Room:      room,
	}
}

// ==== Inbound payloads ====

// JoinRoomPayload is sent by joinRoom
type JoinRoomPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

// ChatPayload is the object form of chatMessage. Clients may also send a bare string.
type ChatPayload struct {
	Text     string    `json:"text"`
	Type     string    `json:"type,omitempty"` // "file" when FileInfo is attached
	ReplyTo  *ReplyTo  `json:"replyTo,omitempty"`
	FileInfo *FileInfo `json:"fileInfo,omitempty"`
}

// DecodeChatPayload accepts either a JSON string or a ChatPayload object
func DecodeChatPayload(raw json.RawMessage) (ChatPayload, error) {
	var p ChatPayload
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		err := json.Unmarshal(trimmed, &p.Text)
		return p, err
	}
	err := json.Unmarshal(trimmed, &p)
	return p, err
}

// ReactionPayload is sent by toggleReaction
type ReactionPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// ReceiptPayload is sent by messageDelivered and messageSeen
type ReceiptPayload struct {
	MessageID string `json:"messageId"`
}

// DeletePayload is sent by deleteMessage
type DeletePayload struct {
	ID string `json:"id"`
}

// EditPayload is sent by editMessage and relayed as messageEdited
type EditPayload struct {
	ID      string `json:"id"`
	NewText string `json:"newText"`
}

// DecodeKickTarget accepts either a bare username string or {"username": "..."}
func DecodeKickTarget(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var name string
		err := json.Unmarshal(trimmed, &name)
		return name, err
	}
	var obj struct {
		Username string `json:"username"`
	}
	err := json.Unmarshal(trimmed, &obj)
	return obj.Username, err
}

// RoleUpdatePayload is sent by updateUserRole
type RoleUpdatePayload struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// ==== Outbound payloads ====

// RoomUsersPayload lists the members of a room
type RoomUsersPayload struct {
	Room  string    `json:"room"`
	Users []Session `json:"users"`
}

// ReactionsUpdatedPayload carries the full reaction map of one message
type ReactionsUpdatedPayload struct {
	MessageID string              `json:"messageId"`
	Reactions map[string][]string `json:"reactions"`
}

// TypingPayload names the member who started or stopped typing
type TypingPayload struct {
	Username string `json:"username"`
}

// ReceiptEvent is the payload of messageReceipt
type ReceiptEvent struct {
	MessageID string `json:"messageId"`
	Type      string `json:"type"`
	By        string `json:"by"`
}
