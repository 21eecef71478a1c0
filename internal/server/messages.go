package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/leadstream/leadstream/internal/types"
)

// Event kinds dispatched to rooms or broadcast globally.
const (
	EventUserMessage    = "userMessage"
	EventAgentMessage   = "agentMessage"
	EventAgentJoined    = "agentJoined"
	EventAgentLeft      = "agentLeft"
	EventUserJoinedChat = "userJoinedChat"
	EventNewChatRequest = "newChatRequest"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the inbound wire format. Exactly one of the pointer
// fields is expected to be set; which one determines the handler.
type ClientMessage struct {
	BaseMessage
	Join         *Join         `json:"join,omitempty"`
	Leave        *Leave        `json:"leave,omitempty"`
	Publish      *Publish      `json:"publish,omitempty"`
	Availability *Availability `json:"availability,omitempty"`
	ChatMessage  *ChatMessage  `json:"chat_message,omitempty"`
	AgentJoin    *AgentJoin    `json:"agent_join,omitempty"`
	AgentMessage *AgentMessage `json:"agent_message,omitempty"`
	ChatLeave    *ChatLeave    `json:"chat_leave,omitempty"`
	client       *Client
}

type Join struct {
	Room string `json:"room"`
}

type Leave struct {
	Room string `json:"room"`
}

// Publish is a peer-to-peer room event (live field edits, typing
// indicators). Delivery excludes the originating connection.
type Publish struct {
	Room string         `json:"room"`
	Kind string         `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

type Availability struct {
	Status string `json:"status"`
}

type ChatMessage struct {
	SessionId string `json:"session_id"`
	Content   string `json:"content"`
}

type AgentJoin struct {
	SessionId string `json:"session_id"`
}

type AgentMessage struct {
	SessionId string `json:"session_id"`
	Content   string `json:"content"`
}

type ChatLeave struct {
	SessionId string `json:"session_id"`
}

// ServerMessage is the outbound wire format: a response to a client
// request, a room event, or a global notification.
type ServerMessage struct {
	BaseMessage
	Response     *Response     `json:"response,omitempty"`
	Event        *Event        `json:"event,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	SkipClient   *Client       `json:"-"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// Event carries a room- or session-scoped occurrence. The originating
// user identity is attached by the router, and the timestamp is stamped
// at dispatch time; neither is trusted from client input.
type Event struct {
	Kind      string                     `json:"kind"`
	Room      string                     `json:"room,omitempty"`
	SessionId string                     `json:"session_id,omitempty"`
	User      *types.User                `json:"user,omitempty"`
	Agent     *types.User                `json:"agent,omitempty"`
	Content   string                     `json:"content,omitempty"`
	Data      map[string]any             `json:"data,omitempty"`
	Context   []types.ChatContextMessage `json:"context,omitempty"`
}

// Notification is a global fan-out payload originating from the REST
// layer (entity created/updated/deleted, note added).
type Notification struct {
	Kind string         `json:"kind"`
	Data map[string]any `json:"data,omitempty"`
}

// Room naming conventions. The kind of a room is carried entirely by
// its name prefix.
func UserRoom(userId int) string {
	return "user:" + strconv.Itoa(userId)
}

func LeadRoom(leadId string) string {
	return "lead:" + leadId
}

func SessionRoom(sessionId string) string {
	return "chat:" + sessionId
}

// sessionIdFromRoom extracts the chat session id from a session room
// name, or returns false for any other room kind.
func sessionIdFromRoom(room string) (string, bool) {
	if rest, ok := strings.CutPrefix(room, "chat:"); ok && rest != "" {
		return rest, true
	}
	return "", false
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
