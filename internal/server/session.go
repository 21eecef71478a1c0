package server

import (
	"math/rand"
	"time"

	"github.com/leadstream/leadstream/internal/types"
)

type SessionMode string

const (
	ModeAutomated         SessionMode = "automated"
	ModeTransferRequested SessionMode = "transfer_requested"
	ModeLive              SessionMode = "live"
)

// contextWindow bounds the recent-message context carried on a transfer
// request broadcast.
const contextWindow = 5

// ChatSession tracks one support conversation's handoff state. The
// session id is client-generated and durable across reconnects; all
// state here is process-local and owned by the hub loop.
type ChatSession struct {
	Id        string
	Mode      SessionMode
	Agent     *types.User
	Requester types.User
	Context   []types.ChatContextMessage
}

func newChatSession(id string) *ChatSession {
	return &ChatSession{
		Id:   id,
		Mode: ModeAutomated,
	}
}

// appendContext records a message in the bounded recent-message window.
func (s *ChatSession) appendContext(m types.ChatContextMessage) {
	s.Context = append(s.Context, m)
	if len(s.Context) > contextWindow {
		s.Context = s.Context[len(s.Context)-contextWindow:]
	}
}

// requestTransfer moves an automated session to transfer_requested.
// It returns false when the session is already pending or live, making
// concurrent transfer requests idempotent.
func (s *ChatSession) requestTransfer(requester types.User) bool {
	if s.Mode != ModeAutomated {
		return false
	}

	s.Mode = ModeTransferRequested
	s.Requester = requester
	return true
}

// agentJoin records the agent and moves the session live. Only one
// agent may hold a session; a join against a live session is a no-op.
// Role checks happen in the hub, not here.
func (s *ChatSession) agentJoin(agent types.User) bool {
	if s.Mode == ModeLive {
		return false
	}

	s.Mode = ModeLive
	s.Agent = &agent
	return true
}

// agentLeave returns the session to automated, but only when the
// leaving user is the recorded agent. An ordinary participant leaving
// never toggles the session's mode, mirroring the join restriction.
// The session never transitions back to transfer_requested.
func (s *ChatSession) agentLeave(userId int) bool {
	if s.Mode != ModeLive || s.Agent == nil || s.Agent.Id != userId {
		return false
	}

	s.Mode = ModeAutomated
	s.Agent = nil
	return true
}

// AgentArbiter decides whether a live agent can take a transfer
// request, and if not, the estimated wait.
type AgentArbiter interface {
	Available(sessionId string) (bool, time.Duration)
}

const (
	defaultAvailability = 0.7
	defaultWaitEstimate = 300 * time.Second
)

// RandomArbiter simulates agent availability with a fixed probability.
// TODO: replace with a check against the agent queue once one exists.
type RandomArbiter struct {
	Availability float64
	Wait         time.Duration
}

func NewRandomArbiter() *RandomArbiter {
	return &RandomArbiter{
		Availability: defaultAvailability,
		Wait:         defaultWaitEstimate,
	}
}

func (a *RandomArbiter) Available(sessionId string) (bool, time.Duration) {
	if rand.Float64() < a.Availability {
		return true, 0
	}
	return false, a.Wait
}
