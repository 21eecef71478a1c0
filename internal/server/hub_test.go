package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leadstream/leadstream/internal/presence"
	"github.com/leadstream/leadstream/internal/stats"
	"github.com/leadstream/leadstream/internal/testutil"
	"github.com/leadstream/leadstream/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// fixedArbiter is a deterministic AgentArbiter for tests.
type fixedArbiter struct {
	available bool
	wait      time.Duration
}

func (a fixedArbiter) Available(sessionId string) (bool, time.Duration) {
	return a.available, a.wait
}

// newTestHub creates a Hub with permissive stats expectations and a
// deterministic always-available arbiter.
func newTestHub(t *testing.T, arbiter AgentArbiter) *Hub {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Return(nil).Times(4)
	su.On("Incr", mock.Anything).Return(nil).Maybe()
	su.On("Decr", mock.Anything).Return(nil).Maybe()

	tracker := presence.NewTracker(testutil.TestLogger(t), &presence.MockStore{})

	h, err := NewHub(testutil.TestLogger(t), tracker, arbiter, su)
	if err != nil {
		t.Fatalf("failed to create test Hub: %v", err)
	}
	return h
}

func newTestClient(h *Hub, user types.User) *Client {
	return &Client{
		id:   fmt.Sprintf("test-%d", user.Id),
		hub:  h,
		log:  h.log,
		user: user,
		send: make(chan *ServerMessage, 16),
		stop: make(chan struct{}),
	}
}

// drain collects everything currently queued for a client.
func drain(c *Client) []*ServerMessage {
	var msgs []*ServerMessage
	for {
		select {
		case m := <-c.send:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestNewHub(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", "NumClients").Once()
	su.On("RegisterMetric", "NumRooms").Once()
	su.On("RegisterMetric", "NumChatSessions").Once()
	su.On("RegisterMetric", "EventsDispatched").Once()

	logger := testutil.TestLogger(t)
	tracker := presence.NewTracker(logger, &presence.MockStore{})

	h, err := NewHub(logger, tracker, NewRandomArbiter(), su)
	assert.NoError(t, err, "expected no error creating Hub")
	assert.NotNil(t, h, "expected Hub to be non-nil")
	assert.Equal(t, logger, h.log, "expected logger to be set")
	assert.NotNil(t, h.clients, "expected clients map to be initialized")
	assert.NotNil(t, h.rooms, "expected rooms map to be initialized")
	assert.NotNil(t, h.sessions, "expected sessions map to be initialized")
	assert.NotNil(t, h.registerChan, "expected registerChan to be initialized")
	assert.NotNil(t, h.deregisterChan, "expected deregisterChan to be initialized")
	assert.NotNil(t, h.inboundChan, "expected inboundChan to be initialized")
	assert.NotNil(t, h.notifyChan, "expected notifyChan to be initialized")
	assert.NotNil(t, h.transferChan, "expected transferChan to be initialized")
	assert.NotNil(t, h.stop, "expected stop channel to be initialized")
}

func TestHubShutdown(t *testing.T) {
	t.Run("successful shutdown", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		go func() {
			select {
			case req := <-h.stop:
				assert.NotNil(t, req.done, "expected done channel in stop request")
				close(req.done)
			case <-time.After(100 * time.Millisecond):
				t.Error("expected signal on stop chan")
			}
		}()

		err := h.Shutdown(ctx)
		assert.NoError(t, err, "expected successful shutdown without error")
	})

	t.Run("fails with context deadline exceeded", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		go func() {
			select {
			case <-h.stop:
				// never close done to simulate a hang
			case <-time.After(time.Second):
				t.Error("expected signal on stop chan")
			}
		}()

		err := h.Shutdown(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "expected context deadline exceeded error, got %v", err)
	})
}

func TestHubShutdown_Integration(t *testing.T) {
	h := newTestHub(t, NewRandomArbiter())
	go h.Run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := h.Shutdown(ctx)
	assert.NoError(t, err, "expected successful shutdown without error")
}

func Test_addClient(t *testing.T) {
	h := newTestHub(t, NewRandomArbiter())
	c := newTestClient(h, types.User{Id: 1, Name: "alice"})

	h.addClient(c)

	assert.Contains(t, h.clients, c, "expected client to be registered")
	assert.Contains(t, h.rooms, UserRoom(1), "expected client's personal room to exist")
	assert.Contains(t, h.rooms[UserRoom(1)], c, "expected client to be a member of its personal room")
}

func Test_removeClient(t *testing.T) {
	t.Run("removes client from every room", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})
		other := newTestClient(h, types.User{Id: 2, Name: "bob"})
		h.addClient(c)
		h.addClient(other)
		h.joinRoom(c, LeadRoom("a1"))
		h.joinRoom(other, LeadRoom("a1"))

		h.removeClient(c)

		assert.NotContains(t, h.clients, c, "expected client to be deregistered")
		assert.NotContains(t, h.rooms, UserRoom(1), "expected empty personal room to be deleted")
		assert.NotContains(t, h.rooms[LeadRoom("a1")], c, "expected client to be removed from the lead room")
		assert.Contains(t, h.rooms[LeadRoom("a1")], other, "expected other member to remain")
	})

	t.Run("unknown client is a no-op", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})

		h.removeClient(c)

		assert.Empty(t, h.clients, "expected no clients registered")
	})
}

func Test_joinRoom(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	defer su.AssertExpectations(t)
	su.On("RegisterMetric", mock.Anything).Return(nil).Times(4)
	// room materializes exactly once despite the double join
	su.On("Incr", "NumRooms").Once()

	tracker := presence.NewTracker(testutil.TestLogger(t), &presence.MockStore{})
	h, err := NewHub(testutil.TestLogger(t), tracker, NewRandomArbiter(), su)
	assert.NoError(t, err)

	c := newTestClient(h, types.User{Id: 1, Name: "alice"})
	h.joinRoom(c, LeadRoom("a1"))
	h.joinRoom(c, LeadRoom("a1"))

	assert.Len(t, h.rooms[LeadRoom("a1")], 1, "expected join to be idempotent")
}

func Test_leaveRoom(t *testing.T) {
	t.Run("last member deletes the room", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})
		h.joinRoom(c, LeadRoom("a1"))

		h.leaveRoom(c, LeadRoom("a1"))

		assert.NotContains(t, h.rooms, LeadRoom("a1"), "expected empty room to be deleted")
	})

	t.Run("non-member leave is a no-op", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})
		other := newTestClient(h, types.User{Id: 2, Name: "bob"})
		h.joinRoom(other, LeadRoom("a1"))

		h.leaveRoom(c, LeadRoom("a1"))

		assert.Len(t, h.rooms[LeadRoom("a1")], 1, "expected room membership to be unchanged")
	})

	t.Run("emptied session room collects a non-live session", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})
		h.joinRoom(c, SessionRoom("sess-1"))
		h.lookupOrCreateSession("sess-1")

		h.leaveRoom(c, SessionRoom("sess-1"))

		assert.NotContains(t, h.sessions, "sess-1", "expected automated session to be collected with its room")
	})

	t.Run("live session survives an empty room", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})
		h.joinRoom(c, SessionRoom("sess-1"))
		s, _ := h.lookupOrCreateSession("sess-1")
		s.agentJoin(types.User{Id: 9, Name: "agent", Role: types.RoleManager})

		h.leaveRoom(c, SessionRoom("sess-1"))

		assert.Contains(t, h.sessions, "sess-1", "expected live session to survive its room emptying")
	})
}

func Test_lookupOrCreateSession(t *testing.T) {
	h := newTestHub(t, NewRandomArbiter())

	s, created := h.lookupOrCreateSession("sess-1")
	assert.True(t, created, "expected session to be created on first reference")
	assert.Equal(t, ModeAutomated, s.Mode, "expected new session to be automated")

	again, created := h.lookupOrCreateSession("sess-1")
	assert.False(t, created, "expected second lookup to find the existing session")
	assert.Same(t, s, again, "expected the same session instance")
}

func Test_dispatch(t *testing.T) {
	h := newTestHub(t, NewRandomArbiter())
	author := newTestClient(h, types.User{Id: 1, Name: "alice"})
	peer := newTestClient(h, types.User{Id: 2, Name: "bob"})
	outsider := newTestClient(h, types.User{Id: 3, Name: "carol"})
	h.joinRoom(author, LeadRoom("a1"))
	h.joinRoom(peer, LeadRoom("a1"))
	h.joinRoom(outsider, LeadRoom("b2"))

	h.dispatch(LeadRoom("a1"), &ServerMessage{
		Event:      &Event{Kind: "typing", Room: LeadRoom("a1")},
		SkipClient: author,
	})

	assert.Empty(t, drain(author), "expected skipped client to receive nothing")
	assert.Empty(t, drain(outsider), "expected member of another room to receive nothing")

	msgs := drain(peer)
	if assert.Len(t, msgs, 1, "expected room peer to receive the event") {
		assert.Equal(t, "typing", msgs[0].Event.Kind)
		assert.False(t, msgs[0].Timestamp.IsZero(), "expected timestamp to be stamped at dispatch")
	}
}

func Test_broadcastAgents(t *testing.T) {
	h := newTestHub(t, NewRandomArbiter())
	member := newTestClient(h, types.User{Id: 1, Name: "alice", Role: types.RoleMember})
	manager := newTestClient(h, types.User{Id: 2, Name: "bob", Role: types.RoleManager})
	admin := newTestClient(h, types.User{Id: 3, Name: "carol", Role: types.RoleAdmin})
	h.addClient(member)
	h.addClient(manager)
	h.addClient(admin)

	h.broadcastAgents(&ServerMessage{
		Event: &Event{Kind: EventNewChatRequest, SessionId: "sess-1"},
	})

	assert.Empty(t, drain(member), "expected plain member to receive nothing")
	assert.Len(t, drain(manager), 1, "expected manager to receive the event")
	assert.Len(t, drain(admin), 1, "expected admin to receive the event")
}

func Test_handleJoin(t *testing.T) {
	t.Run("empty room is dropped", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})

		h.handleJoin(&ClientMessage{
			BaseMessage: BaseMessage{Id: 1},
			Join:        &Join{},
			client:      c,
		})

		assert.Empty(t, drain(c), "expected no response for an empty room name")
	})

	t.Run("plain room join", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice"})
		h.addClient(c)
		drain(c)

		h.handleJoin(&ClientMessage{
			BaseMessage: BaseMessage{Id: 2},
			Join:        &Join{Room: LeadRoom("a1")},
			client:      c,
		})

		assert.Contains(t, h.rooms[LeadRoom("a1")], c, "expected client to be a room member")
		assert.Empty(t, h.sessions, "expected no session for a non-chat room")

		msgs := drain(c)
		if assert.Len(t, msgs, 1, "expected an acknowledgement") {
			assert.Equal(t, 2, msgs[0].Id, "expected ack to echo the request id")
			assert.Equal(t, 200, msgs[0].Response.ResponseCode)
		}
	})

	t.Run("chat room join creates session and announces", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		visitor := newTestClient(h, types.User{Id: 1, Name: "alice"})
		watcher := newTestClient(h, types.User{Id: 2, Name: "bob", Role: types.RoleManager})
		h.addClient(visitor)
		h.addClient(watcher)

		h.handleJoin(&ClientMessage{
			BaseMessage: BaseMessage{Id: 3},
			Join:        &Join{Room: SessionRoom("sess-1")},
			client:      visitor,
		})

		s, ok := h.sessions["sess-1"]
		if assert.True(t, ok, "expected session to be created") {
			assert.Equal(t, ModeAutomated, s.Mode, "expected new session to be automated")
		}

		// the joiner gets the ack plus the broadcast, the watcher only
		// the broadcast
		visitorMsgs := drain(visitor)
		assert.Len(t, visitorMsgs, 2, "expected ack and announcement for the joiner")

		watcherMsgs := drain(watcher)
		if assert.Len(t, watcherMsgs, 1, "expected announcement for every connected client") {
			assert.Equal(t, EventUserJoinedChat, watcherMsgs[0].Event.Kind)
			assert.Equal(t, "sess-1", watcherMsgs[0].Event.SessionId)
			assert.Equal(t, "alice", watcherMsgs[0].Event.User.Name)
		}
	})
}

func Test_handlePublish(t *testing.T) {
	t.Run("excludes the author", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		author := newTestClient(h, types.User{Id: 1, Name: "alice"})
		peer := newTestClient(h, types.User{Id: 2, Name: "bob"})
		h.joinRoom(author, LeadRoom("a1"))
		h.joinRoom(peer, LeadRoom("a1"))

		h.handlePublish(&ClientMessage{
			Publish: &Publish{
				Room: LeadRoom("a1"),
				Kind: "fieldEdit",
				Data: map[string]any{"field": "status"},
			},
			client: author,
		})

		assert.Empty(t, drain(author), "expected author to be excluded from delivery")

		msgs := drain(peer)
		if assert.Len(t, msgs, 1, "expected peer to receive the event") {
			assert.Equal(t, "fieldEdit", msgs[0].Event.Kind)
			assert.Equal(t, "alice", msgs[0].Event.User.Name, "expected author identity to be attached")
			assert.Equal(t, "status", msgs[0].Event.Data["field"])
		}
	})

	t.Run("missing kind is dropped", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		author := newTestClient(h, types.User{Id: 1, Name: "alice"})
		peer := newTestClient(h, types.User{Id: 2, Name: "bob"})
		h.joinRoom(author, LeadRoom("a1"))
		h.joinRoom(peer, LeadRoom("a1"))

		h.handlePublish(&ClientMessage{
			Publish: &Publish{Room: LeadRoom("a1")},
			client:  author,
		})

		assert.Empty(t, drain(peer), "expected malformed publish to be dropped")
	})
}

func Test_handleChatMessage(t *testing.T) {
	h := newTestHub(t, NewRandomArbiter())
	visitor := newTestClient(h, types.User{Id: 1, Name: "alice"})
	agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
	h.joinRoom(visitor, SessionRoom("sess-1"))
	h.joinRoom(agent, SessionRoom("sess-1"))

	h.handleChatMessage(&ClientMessage{
		ChatMessage: &ChatMessage{SessionId: "sess-1", Content: "hello?"},
		client:      visitor,
	})

	s := h.sessions["sess-1"]
	if assert.NotNil(t, s, "expected session to be created") {
		assert.Len(t, s.Context, 1, "expected message recorded in context")
		assert.Equal(t, "alice", s.Context[0].Sender)
	}

	assert.Empty(t, drain(visitor), "expected author to be excluded")

	msgs := drain(agent)
	if assert.Len(t, msgs, 1, "expected other participant to receive the message") {
		assert.Equal(t, EventUserMessage, msgs[0].Event.Kind)
		assert.Equal(t, "hello?", msgs[0].Event.Content)
	}
}

func Test_handleAgentJoin(t *testing.T) {
	t.Run("non-elevated join is silently ignored", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		c := newTestClient(h, types.User{Id: 1, Name: "alice", Role: types.RoleMember})

		h.handleAgentJoin(&ClientMessage{
			AgentJoin: &AgentJoin{SessionId: "sess-1"},
			client:    c,
		})

		assert.NotContains(t, h.rooms, SessionRoom("sess-1"), "expected no room membership change")
		assert.Empty(t, h.sessions, "expected no session state change")
		assert.Empty(t, drain(c), "expected no response of any kind")
	})

	t.Run("elevated join takes the session live", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		visitor := newTestClient(h, types.User{Id: 1, Name: "alice"})
		agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		h.joinRoom(visitor, SessionRoom("sess-1"))

		h.handleAgentJoin(&ClientMessage{
			AgentJoin: &AgentJoin{SessionId: "sess-1"},
			client:    agent,
		})

		s := h.sessions["sess-1"]
		if assert.NotNil(t, s, "expected session to exist") {
			assert.Equal(t, ModeLive, s.Mode, "expected session to be live")
			assert.Equal(t, 9, s.Agent.Id, "expected agent to be recorded")
		}
		assert.Contains(t, h.rooms[SessionRoom("sess-1")], agent, "expected agent to join the session room")

		// the announcement is inclusive: both the visitor and the agent
		// see it
		visitorMsgs := drain(visitor)
		if assert.Len(t, visitorMsgs, 1) {
			assert.Equal(t, EventAgentJoined, visitorMsgs[0].Event.Kind)
			assert.Equal(t, "sam", visitorMsgs[0].Event.Agent.Name)
		}
		agentMsgs := drain(agent)
		if assert.Len(t, agentMsgs, 1) {
			assert.Equal(t, EventAgentJoined, agentMsgs[0].Event.Kind)
		}
	})

	t.Run("second agent observes without displacing", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		first := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		second := newTestClient(h, types.User{Id: 10, Name: "dana", Role: types.RoleAdmin})

		h.handleAgentJoin(&ClientMessage{
			AgentJoin: &AgentJoin{SessionId: "sess-1"},
			client:    first,
		})
		drain(first)

		h.handleAgentJoin(&ClientMessage{
			BaseMessage: BaseMessage{Id: 5},
			AgentJoin:   &AgentJoin{SessionId: "sess-1"},
			client:      second,
		})

		s := h.sessions["sess-1"]
		assert.Equal(t, 9, s.Agent.Id, "expected first agent to remain recorded")
		assert.Contains(t, h.rooms[SessionRoom("sess-1")], second, "expected second agent to observe the room")

		msgs := drain(second)
		if assert.Len(t, msgs, 1, "expected a plain ack, no announcement") {
			assert.NotNil(t, msgs[0].Response, "expected a response message")
			assert.Equal(t, 5, msgs[0].Id)
		}
		assert.Empty(t, drain(first), "expected no announcement for the recorded agent")
	})
}

func Test_handleAgentMessage(t *testing.T) {
	t.Run("non-elevated sender is ignored", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		sender := newTestClient(h, types.User{Id: 1, Name: "alice", Role: types.RoleMember})
		peer := newTestClient(h, types.User{Id: 2, Name: "bob"})
		h.joinRoom(sender, SessionRoom("sess-1"))
		h.joinRoom(peer, SessionRoom("sess-1"))

		h.handleAgentMessage(&ClientMessage{
			AgentMessage: &AgentMessage{SessionId: "sess-1", Content: "hi"},
			client:       sender,
		})

		assert.Empty(t, drain(peer), "expected message from non-agent to be dropped")
	})

	t.Run("agent message is delivered inclusively", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		visitor := newTestClient(h, types.User{Id: 1, Name: "alice"})
		agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		h.joinRoom(visitor, SessionRoom("sess-1"))
		h.joinRoom(agent, SessionRoom("sess-1"))
		h.lookupOrCreateSession("sess-1")

		h.handleAgentMessage(&ClientMessage{
			AgentMessage: &AgentMessage{SessionId: "sess-1", Content: "how can I help?"},
			client:       agent,
		})

		assert.Len(t, h.sessions["sess-1"].Context, 1, "expected message recorded in context")

		visitorMsgs := drain(visitor)
		if assert.Len(t, visitorMsgs, 1) {
			assert.Equal(t, EventAgentMessage, visitorMsgs[0].Event.Kind)
			assert.Equal(t, "how can I help?", visitorMsgs[0].Event.Content)
		}
		assert.Len(t, drain(agent), 1, "expected the author to see its own message too")
	})
}

func Test_handleChatLeave(t *testing.T) {
	t.Run("agent leaving returns session to automated", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		visitor := newTestClient(h, types.User{Id: 1, Name: "alice"})
		agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		h.joinRoom(visitor, SessionRoom("sess-1"))
		h.joinRoom(agent, SessionRoom("sess-1"))
		s, _ := h.lookupOrCreateSession("sess-1")
		s.agentJoin(agent.user)

		h.handleChatLeave(&ClientMessage{
			BaseMessage: BaseMessage{Id: 7},
			ChatLeave:   &ChatLeave{SessionId: "sess-1"},
			client:      agent,
		})

		assert.Equal(t, ModeAutomated, s.Mode, "expected session back in automated mode")
		assert.NotContains(t, h.rooms[SessionRoom("sess-1")], agent, "expected agent to leave the room")

		msgs := drain(visitor)
		if assert.Len(t, msgs, 1, "expected remaining participant to be told") {
			assert.Equal(t, EventAgentLeft, msgs[0].Event.Kind)
			assert.Equal(t, "sam", msgs[0].Event.Agent.Name)
		}

		agentMsgs := drain(agent)
		if assert.Len(t, agentMsgs, 1, "expected an ack for the leaver") {
			assert.Equal(t, 7, agentMsgs[0].Id)
		}
	})

	t.Run("visitor leaving a live session changes nothing", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		visitor := newTestClient(h, types.User{Id: 1, Name: "alice"})
		agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		h.joinRoom(visitor, SessionRoom("sess-1"))
		h.joinRoom(agent, SessionRoom("sess-1"))
		s, _ := h.lookupOrCreateSession("sess-1")
		s.agentJoin(agent.user)

		h.handleChatLeave(&ClientMessage{
			ChatLeave: &ChatLeave{SessionId: "sess-1"},
			client:    visitor,
		})

		assert.Equal(t, ModeLive, s.Mode, "expected session to remain live")
		assert.Empty(t, drain(agent), "expected no announcement for a participant leave")
	})

	t.Run("leave via room name routes through handoff", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		h.joinRoom(agent, SessionRoom("sess-1"))
		s, _ := h.lookupOrCreateSession("sess-1")
		s.agentJoin(agent.user)

		h.handleLeave(&ClientMessage{
			Leave:  &Leave{Room: SessionRoom("sess-1")},
			client: agent,
		})

		assert.Equal(t, ModeAutomated, s.Mode, "expected agent leave semantics via leave message")
	})
}

func Test_handleTransfer(t *testing.T) {
	recent := []types.ChatContextMessage{
		{Sender: "alice", Content: "first"},
		{Sender: "bot", Content: "second"},
		{Sender: "alice", Content: "third"},
		{Sender: "bot", Content: "fourth"},
		{Sender: "alice", Content: "fifth"},
		{Sender: "bot", Content: "sixth"},
		{Sender: "alice", Content: "seventh"},
	}

	t.Run("accepted transfer notifies agents", func(t *testing.T) {
		h := newTestHub(t, fixedArbiter{available: true})
		member := newTestClient(h, types.User{Id: 2, Name: "bob", Role: types.RoleMember})
		agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		h.addClient(member)
		h.addClient(agent)

		req := &transferReq{
			sessionId: "sess-1",
			user:      types.User{Id: 1, Name: "alice"},
			recent:    recent,
			reply:     make(chan TransferResult, 1),
		}
		h.handleTransfer(req)

		res := <-req.reply
		assert.True(t, res.Accepted, "expected transfer to be accepted")

		s := h.sessions["sess-1"]
		if assert.NotNil(t, s, "expected session to exist") {
			assert.Equal(t, ModeTransferRequested, s.Mode, "expected session pending transfer")
			assert.Len(t, s.Context, contextWindow, "expected carried context to be bounded")
		}

		assert.Empty(t, drain(member), "expected plain member to receive nothing")

		msgs := drain(agent)
		if assert.Len(t, msgs, 1, "expected agent to receive the chat request") {
			assert.Equal(t, EventNewChatRequest, msgs[0].Event.Kind)
			assert.Equal(t, "alice", msgs[0].Event.User.Name)
			assert.Len(t, msgs[0].Event.Context, contextWindow, "expected broadcast context to be bounded")
			assert.Equal(t, "third", msgs[0].Event.Context[0].Content, "expected the oldest in-window message first")
		}
	})

	t.Run("declined transfer reports the wait estimate", func(t *testing.T) {
		h := newTestHub(t, fixedArbiter{available: false, wait: 300 * time.Second})
		agent := newTestClient(h, types.User{Id: 9, Name: "sam", Role: types.RoleManager})
		h.addClient(agent)

		req := &transferReq{
			sessionId: "sess-1",
			user:      types.User{Id: 1, Name: "alice"},
			reply:     make(chan TransferResult, 1),
		}
		h.handleTransfer(req)

		res := <-req.reply
		assert.False(t, res.Accepted, "expected transfer to be declined")
		assert.Equal(t, 300, res.EstimatedWait, "expected wait estimate in seconds")
		assert.Equal(t, ModeAutomated, h.sessions["sess-1"].Mode, "expected session to remain automated")
		assert.Empty(t, drain(agent), "expected no chat request broadcast")
	})

	t.Run("pending session replies accepted without re-arbitrating", func(t *testing.T) {
		// a declining arbiter proves the idempotent path never consults it
		h := newTestHub(t, fixedArbiter{available: false, wait: 300 * time.Second})
		s, _ := h.lookupOrCreateSession("sess-1")
		s.requestTransfer(types.User{Id: 1, Name: "alice"})

		req := &transferReq{
			sessionId: "sess-1",
			user:      types.User{Id: 1, Name: "alice"},
			reply:     make(chan TransferResult, 1),
		}
		h.handleTransfer(req)

		res := <-req.reply
		assert.True(t, res.Accepted, "expected repeat request to be accepted idempotently")
		assert.Equal(t, ModeTransferRequested, s.Mode, "expected mode to be unchanged")
	})

	t.Run("live session replies accepted", func(t *testing.T) {
		h := newTestHub(t, fixedArbiter{available: false})
		s, _ := h.lookupOrCreateSession("sess-1")
		s.agentJoin(types.User{Id: 9, Name: "sam", Role: types.RoleManager})

		req := &transferReq{
			sessionId: "sess-1",
			user:      types.User{Id: 1, Name: "alice"},
			reply:     make(chan TransferResult, 1),
		}
		h.handleTransfer(req)

		res := <-req.reply
		assert.True(t, res.Accepted, "expected request against live session to be accepted")
		assert.Equal(t, ModeLive, s.Mode, "expected session to remain live")
	})
}

func TestRequestTransfer_Integration(t *testing.T) {
	t.Run("round trip through the hub loop", func(t *testing.T) {
		h := newTestHub(t, fixedArbiter{available: true})
		go h.Run()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			h.Shutdown(ctx)
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		res, err := h.RequestTransfer(ctx, "sess-1", types.User{Id: 1, Name: "alice"}, nil)
		assert.NoError(t, err, "expected transfer round trip to succeed")
		assert.True(t, res.Accepted, "expected transfer to be accepted")
	})

	t.Run("expired context surfaces an error", func(t *testing.T) {
		// hub loop intentionally not running
		h := newTestHub(t, fixedArbiter{available: true})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := h.RequestTransfer(ctx, "sess-1", types.User{Id: 1, Name: "alice"}, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded, "expected context deadline exceeded error")
	})
}

func TestNotifyAll(t *testing.T) {
	t.Run("queues a notification", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())

		h.NotifyAll("newLead", map[string]any{"lead_id": 7})

		select {
		case msg := <-h.notifyChan:
			assert.Equal(t, "newLead", msg.Notification.Kind)
			assert.Equal(t, 7, msg.Notification.Data["lead_id"])
		default:
			t.Error("expected a queued notification")
		}
	})

	t.Run("drops when the channel is full", func(t *testing.T) {
		h := newTestHub(t, NewRandomArbiter())
		for i := 0; i < cap(h.notifyChan); i++ {
			h.notifyChan <- &ServerMessage{}
		}

		// must not block
		h.NotifyAll("newLead", nil)

		assert.Len(t, h.notifyChan, cap(h.notifyChan), "expected the overflow notification to be dropped")
	})
}

func TestNotifyAll_Delivery(t *testing.T) {
	h := newTestHub(t, NewRandomArbiter())
	a := newTestClient(h, types.User{Id: 1, Name: "alice"})
	b := newTestClient(h, types.User{Id: 2, Name: "bob", Role: types.RoleManager})
	h.addClient(a)
	h.addClient(b)

	h.broadcastAll(&ServerMessage{
		Notification: &Notification{Kind: "leadUpdated", Data: map[string]any{"lead_id": 7}},
	})

	for _, c := range []*Client{a, b} {
		msgs := drain(c)
		if assert.Len(t, msgs, 1, "expected notification for %q", c.user.Name) {
			assert.Equal(t, "leadUpdated", msgs[0].Notification.Kind)
		}
	}
}

func Test_lastN(t *testing.T) {
	msgs := []types.ChatContextMessage{
		{Content: "a"}, {Content: "b"}, {Content: "c"},
	}

	assert.Equal(t, msgs, lastN(msgs, 5), "expected short slice returned unchanged")
	assert.Equal(t, msgs[1:], lastN(msgs, 2), "expected the trailing n messages")
	assert.Empty(t, lastN(nil, 5), "expected nil input to stay empty")
}
