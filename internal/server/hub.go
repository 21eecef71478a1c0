package server

import (
	"context"
	"log"

	"github.com/gorilla/websocket"
	"github.com/leadstream/leadstream/internal/presence"
	"github.com/leadstream/leadstream/internal/stats"
	"github.com/leadstream/leadstream/internal/types"
)

// Realtime is the surface the REST layer consumes: connection intake,
// global fan-out, and live-agent transfer requests.
type Realtime interface {
	ServeConn(user types.User, conn *websocket.Conn)
	NotifyAll(kind string, data map[string]any)
	RequestTransfer(ctx context.Context, sessionId string, user types.User, recent []types.ChatContextMessage) (TransferResult, error)
}

type TransferResult struct {
	Accepted      bool `json:"accepted"`
	EstimatedWait int  `json:"estimated_wait_seconds"`
}

type transferReq struct {
	sessionId string
	user      types.User
	recent    []types.ChatContextMessage
	reply     chan TransferResult
}

type stopReq struct {
	done chan struct{}
}

// Hub is the single per-process owner of all realtime state: the
// connection set, room membership, and chat session state machines.
// Every mutation happens on the Run loop, so none of the maps need a
// lock and per-room dispatch order follows the order operations reach
// the loop.
type Hub struct {
	log      *log.Logger
	stats    stats.StatsProvider
	presence *presence.Tracker
	arbiter  AgentArbiter

	clients  map[*Client]struct{}
	rooms    map[string]map[*Client]struct{}
	sessions map[string]*ChatSession

	registerChan   chan *Client
	deregisterChan chan *Client
	inboundChan    chan *ClientMessage
	notifyChan     chan *ServerMessage
	transferChan   chan *transferReq
	stop           chan stopReq
}

func NewHub(logger *log.Logger, tracker *presence.Tracker, arbiter AgentArbiter, su stats.StatsProvider) (*Hub, error) {
	h := &Hub{
		log:            logger,
		stats:          su,
		presence:       tracker,
		arbiter:        arbiter,
		clients:        make(map[*Client]struct{}),
		rooms:          make(map[string]map[*Client]struct{}),
		sessions:       make(map[string]*ChatSession),
		registerChan:   make(chan *Client),
		deregisterChan: make(chan *Client),
		inboundChan:    make(chan *ClientMessage, 256),
		notifyChan:     make(chan *ServerMessage, 256),
		transferChan:   make(chan *transferReq),
		stop:           make(chan stopReq),
	}

	su.RegisterMetric("NumClients")
	su.RegisterMetric("NumRooms")
	su.RegisterMetric("NumChatSessions")
	su.RegisterMetric("EventsDispatched")

	return h, nil
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.registerChan:
			h.addClient(c)
		case c := <-h.deregisterChan:
			h.removeClient(c)
		case msg := <-h.inboundChan:
			if handler := route(msg); handler != nil {
				handler(h, msg)
			} else {
				h.log.Printf("warning: dropping message with no recognized operation from %q", msg.client.user.Name)
			}
		case msg := <-h.notifyChan:
			h.broadcastAll(msg)
		case req := <-h.transferChan:
			h.handleTransfer(req)
		case req := <-h.stop:
			h.log.Println("hub shutting down")
			for c := range h.clients {
				c.stopClient()
			}
			close(req.done)
			return
		}
	}
}

// route maps an inbound message to its handler based on which union
// field is set. Decoding is thereby kept separate from fan-out
// mechanics, and handlers are plain methods testable without a
// transport.
func route(msg *ClientMessage) func(*Hub, *ClientMessage) {
	switch {
	case msg.Join != nil:
		return (*Hub).handleJoin
	case msg.Leave != nil:
		return (*Hub).handleLeave
	case msg.Publish != nil:
		return (*Hub).handlePublish
	case msg.ChatMessage != nil:
		return (*Hub).handleChatMessage
	case msg.AgentJoin != nil:
		return (*Hub).handleAgentJoin
	case msg.AgentMessage != nil:
		return (*Hub).handleAgentMessage
	case msg.ChatLeave != nil:
		return (*Hub).handleChatLeave
	default:
		return nil
	}
}

// ServeConn attaches an authenticated connection to the hub and starts
// its pumps. Called from the HTTP upgrade handler.
func (h *Hub) ServeConn(user types.User, conn *websocket.Conn) {
	c := NewClient(user, conn, h, h.log)

	ctx, cancel := context.WithTimeout(context.Background(), presenceOpTimeout)
	h.presence.MarkOnline(ctx, user.Id)
	cancel()

	h.registerChan <- c
	go c.Write()
	go c.Read()
}

// NotifyAll queues a global notification for every connected client.
// Delivery is fire-and-forget; when the hub is saturated the event is
// dropped, since receivers reconcile via a full fetch anyway.
func (h *Hub) NotifyAll(kind string, data map[string]any) {
	msg := &ServerMessage{
		Notification: &Notification{
			Kind: kind,
			Data: data,
		},
	}

	select {
	case h.notifyChan <- msg:
	default:
		h.log.Printf("warning: notify channel full, dropping %q notification", kind)
	}
}

// RequestTransfer asks the hub to move a chat session toward live
// support. It blocks until the hub loop has arbitrated or ctx expires.
func (h *Hub) RequestTransfer(ctx context.Context, sessionId string, user types.User, recent []types.ChatContextMessage) (TransferResult, error) {
	req := &transferReq{
		sessionId: sessionId,
		user:      user,
		recent:    recent,
		reply:     make(chan TransferResult, 1),
	}

	select {
	case h.transferChan <- req:
	case <-ctx.Done():
		return TransferResult{}, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res, nil
	case <-ctx.Done():
		return TransferResult{}, ctx.Err()
	}
}

func (h *Hub) Shutdown(ctx context.Context) error {
	req := stopReq{done: make(chan struct{})}

	select {
	case h.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) addClient(c *Client) {
	h.log.Printf("adding connection %s from %q", c.id, c.user.Name)
	h.clients[c] = struct{}{}
	h.stats.Incr("NumClients")

	// every connection lives in its owner's personal room for private
	// delivery
	h.joinRoom(c, UserRoom(c.user.Id))
}

// removeClient detaches a connection from the hub and from every room
// it had joined. Mandatory cleanup: a departed connection must never
// remain a fan-out target.
func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	h.log.Printf("removing connection %s from %q", c.id, c.user.Name)
	delete(h.clients, c)
	h.stats.Decr("NumClients")

	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			h.leaveRoom(c, room)
		}
	}
}

// joinRoom adds the connection to a room, materializing the room on
// first member. Idempotent.
func (h *Hub) joinRoom(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
		h.stats.Incr("NumRooms")
	}

	members[c] = struct{}{}
}

// leaveRoom removes the connection from a room. A room with zero
// members does not exist, so the empty set is deleted. No-op when the
// connection is not a member.
func (h *Hub) leaveRoom(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}

	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
		h.stats.Decr("NumRooms")

		if sid, ok := sessionIdFromRoom(room); ok {
			h.collectSession(sid)
		}
	}
}

// collectSession drops a session whose room has emptied, unless it is
// live: a live session survives an empty room so a reconnecting
// participant sees a consistent mode.
func (h *Hub) collectSession(sessionId string) {
	s, ok := h.sessions[sessionId]
	if !ok || s.Mode == ModeLive {
		return
	}

	delete(h.sessions, sessionId)
	h.stats.Decr("NumChatSessions")
}

// lookupOrCreateSession returns the session for an id, creating it in
// automated mode on first reference.
func (h *Hub) lookupOrCreateSession(sessionId string) (*ChatSession, bool) {
	if s, ok := h.sessions[sessionId]; ok {
		return s, false
	}

	s := newChatSession(sessionId)
	h.sessions[sessionId] = s
	h.stats.Incr("NumChatSessions")
	return s, true
}

// dispatch delivers an event to every member of a room, excluding
// msg.SkipClient when set. The timestamp is stamped here, never taken
// from the client.
func (h *Hub) dispatch(room string, msg *ServerMessage) {
	msg.Timestamp = Now()

	for c := range h.rooms[room] {
		if c == msg.SkipClient {
			continue
		}

		c.queueMessage(msg)
	}

	h.stats.Incr("EventsDispatched")
}

// broadcastAll delivers a message to every connected client,
// unconditionally and inclusively.
func (h *Hub) broadcastAll(msg *ServerMessage) {
	msg.Timestamp = Now()

	for c := range h.clients {
		c.queueMessage(msg)
	}

	h.stats.Incr("EventsDispatched")
}

// broadcastAgents delivers a message to every connection whose user may
// act as a live agent.
func (h *Hub) broadcastAgents(msg *ServerMessage) {
	msg.Timestamp = Now()

	for c := range h.clients {
		if !types.CanActAsAgent(c.user.Role) {
			continue
		}

		c.queueMessage(msg)
	}

	h.stats.Incr("EventsDispatched")
}

func userSummary(u types.User) *types.User {
	return &types.User{
		Id:           u.Id,
		Name:         u.Name,
		EmailAddress: u.EmailAddress,
		Role:         u.Role,
	}
}

func (h *Hub) handleJoin(msg *ClientMessage) {
	c := msg.client
	room := msg.Join.Room
	if room == "" {
		h.log.Printf("warning: dropping join with empty room from %q", c.user.Name)
		return
	}

	h.joinRoom(c, room)
	c.queueMessage(NoErrOK(msg.Id, nil))

	// joining a chat session room announces the participant to all
	// connected clients so agents can see waiting users
	if sid, ok := sessionIdFromRoom(room); ok {
		h.lookupOrCreateSession(sid)
		h.broadcastAll(&ServerMessage{
			Event: &Event{
				Kind:      EventUserJoinedChat,
				SessionId: sid,
				User:      userSummary(c.user),
			},
		})
	}
}

func (h *Hub) handleLeave(msg *ClientMessage) {
	c := msg.client
	room := msg.Leave.Room
	if room == "" {
		h.log.Printf("warning: dropping leave with empty room from %q", c.user.Name)
		return
	}

	// leaving a session room routes through the handoff logic so an
	// agent backing out of a chat flips the session mode
	if sid, ok := sessionIdFromRoom(room); ok {
		h.leaveSession(c, sid, msg.Id)
		return
	}

	h.leaveRoom(c, room)
	c.queueMessage(NoErrOK(msg.Id, nil))
}

func (h *Hub) handlePublish(msg *ClientMessage) {
	c := msg.client
	pub := msg.Publish
	if pub.Room == "" || pub.Kind == "" {
		h.log.Printf("warning: dropping malformed publish from %q", c.user.Name)
		return
	}

	h.dispatch(pub.Room, &ServerMessage{
		Event: &Event{
			Kind: pub.Kind,
			Room: pub.Room,
			User: userSummary(c.user),
			Data: pub.Data,
		},
		SkipClient: c,
	})
}

// handleChatMessage routes a user-authored chat message to the other
// session participants. The author is excluded; their client already
// rendered the message locally.
func (h *Hub) handleChatMessage(msg *ClientMessage) {
	c := msg.client
	cm := msg.ChatMessage
	if cm.SessionId == "" || cm.Content == "" {
		h.log.Printf("warning: dropping malformed chat message from %q", c.user.Name)
		return
	}

	s, _ := h.lookupOrCreateSession(cm.SessionId)
	s.appendContext(types.ChatContextMessage{
		Sender:    c.user.Name,
		Content:   cm.Content,
		Timestamp: Now(),
	})

	h.dispatch(SessionRoom(cm.SessionId), &ServerMessage{
		Event: &Event{
			Kind:      EventUserMessage,
			SessionId: cm.SessionId,
			User:      userSummary(c.user),
			Content:   cm.Content,
		},
		SkipClient: c,
	})
}

// handleAgentJoin moves a session live when an elevated-role user joins
// it as the agent. A non-elevated attempt is silently ignored: no
// membership change, no mode change, no error surfaced.
func (h *Hub) handleAgentJoin(msg *ClientMessage) {
	c := msg.client
	aj := msg.AgentJoin
	if aj.SessionId == "" {
		h.log.Printf("warning: dropping malformed agent join from %q", c.user.Name)
		return
	}

	if !types.CanActAsAgent(c.user.Role) {
		h.log.Printf("ignoring agent join from non-agent %q on session %s", c.user.Name, aj.SessionId)
		return
	}

	h.joinRoom(c, SessionRoom(aj.SessionId))

	s, _ := h.lookupOrCreateSession(aj.SessionId)
	if !s.agentJoin(c.user) {
		// already live under another agent; the joiner observes as a
		// plain participant
		c.queueMessage(NoErrOK(msg.Id, nil))
		return
	}

	h.log.Printf("agent %q joined session %s", c.user.Name, aj.SessionId)

	// session-wide announcement: delivered inclusively so every
	// observer, the agent included, sees the same transcript
	h.dispatch(SessionRoom(aj.SessionId), &ServerMessage{
		Event: &Event{
			Kind:      EventAgentJoined,
			SessionId: aj.SessionId,
			Agent:     userSummary(c.user),
		},
	})
}

// handleAgentMessage broadcasts an agent-authored message inclusively
// to the whole session room so co-present agents and the author's own
// other connections see a consistent transcript.
func (h *Hub) handleAgentMessage(msg *ClientMessage) {
	c := msg.client
	am := msg.AgentMessage
	if am.SessionId == "" || am.Content == "" {
		h.log.Printf("warning: dropping malformed agent message from %q", c.user.Name)
		return
	}

	if !types.CanActAsAgent(c.user.Role) {
		h.log.Printf("ignoring agent message from non-agent %q on session %s", c.user.Name, am.SessionId)
		return
	}

	if s, ok := h.sessions[am.SessionId]; ok {
		s.appendContext(types.ChatContextMessage{
			Sender:    c.user.Name,
			Content:   am.Content,
			Timestamp: Now(),
		})
	}

	h.dispatch(SessionRoom(am.SessionId), &ServerMessage{
		Event: &Event{
			Kind:      EventAgentMessage,
			SessionId: am.SessionId,
			Agent:     userSummary(c.user),
			Content:   am.Content,
		},
	})
}

func (h *Hub) handleChatLeave(msg *ClientMessage) {
	cl := msg.ChatLeave
	if cl.SessionId == "" {
		h.log.Printf("warning: dropping malformed chat leave from %q", msg.client.user.Name)
		return
	}

	h.leaveSession(msg.client, cl.SessionId, msg.Id)
}

// leaveSession removes the connection from the session room and, when
// the leaver is the recorded agent of a live session, returns the
// session to automated mode and announces it.
func (h *Hub) leaveSession(c *Client, sessionId string, msgId int) {
	s := h.sessions[sessionId]
	agentLeft := s != nil && s.agentLeave(c.user.Id)

	h.leaveRoom(c, SessionRoom(sessionId))
	c.queueMessage(NoErrOK(msgId, nil))

	if agentLeft {
		h.log.Printf("agent %q left session %s", c.user.Name, sessionId)
		h.dispatch(SessionRoom(sessionId), &ServerMessage{
			Event: &Event{
				Kind:      EventAgentLeft,
				SessionId: sessionId,
				Agent:     userSummary(c.user),
			},
		})
	}
}

// handleTransfer arbitrates a live-agent transfer request. Accepted
// requests flag the session and announce it to every agent-capable
// connection with the requester's identity and recent context; declined
// requests leave the session automated and report the wait estimate.
// A request against an already pending or live session is idempotent.
func (h *Hub) handleTransfer(req *transferReq) {
	s, _ := h.lookupOrCreateSession(req.sessionId)

	if s.Mode != ModeAutomated {
		req.reply <- TransferResult{Accepted: true}
		return
	}

	available, wait := h.arbiter.Available(req.sessionId)
	if !available {
		h.log.Printf("no agent available for session %s", req.sessionId)
		req.reply <- TransferResult{
			Accepted:      false,
			EstimatedWait: int(wait.Seconds()),
		}
		return
	}

	s.requestTransfer(req.user)
	for _, m := range lastN(req.recent, contextWindow) {
		s.appendContext(m)
	}

	h.log.Printf("transfer requested for session %s by %q", req.sessionId, req.user.Name)
	h.broadcastAgents(&ServerMessage{
		Event: &Event{
			Kind:      EventNewChatRequest,
			SessionId: req.sessionId,
			User:      userSummary(req.user),
			Context:   lastN(req.recent, contextWindow),
		},
	})

	req.reply <- TransferResult{Accepted: true}
}

func lastN(msgs []types.ChatContextMessage, n int) []types.ChatContextMessage {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
