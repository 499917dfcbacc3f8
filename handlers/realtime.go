// handlers/realtime.go - Live query subscriptions over WebSocket
package handlers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"teamup/apperr"
	"teamup/models"
	"teamup/realtime"
	"teamup/services"
)

const (
	// WebSocket timeouts
	writeWait  = 10 * time.Second // Time allowed to write a message
	pongWait   = 60 * time.Second // Time allowed between pongs
	pingPeriod = 15 * time.Second // Send pings at this interval

	// Send channel buffer size
	sendBufferSize = 256
)

// ClientMessage is sent by the browser to manage subscriptions.
type ClientMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// ServerMessage carries one snapshot for a topic, or an error for it.
type ServerMessage struct {
	Topic string      `json:"topic"`
	Data  any         `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	Code  apperr.Code `json:"code,omitempty"`
}

type client struct {
	uid    string
	conn   *websocket.Conn
	send   chan ServerMessage
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	mu   sync.Mutex
	subs map[string]*realtime.Subscription
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Realtime serves /ws. Each subscribed topic pushes a full snapshot on
// subscribe and after every relevant change. Closing the socket cancels
// every subscription it holds.
func (h *Handler) Realtime() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, _ := conn.Locals("userId").(string)
		ctx, cancel := context.WithCancel(context.Background())
		cl := &client{
			uid:    uid,
			conn:   conn,
			send:   make(chan ServerMessage, sendBufferSize),
			ctx:    ctx,
			cancel: cancel,
			log:    h.log.With(zap.String("user_id", uid)),
			subs:   make(map[string]*realtime.Subscription),
		}
		cl.log.Debug("websocket connected")

		done := make(chan struct{})
		go func() {
			defer close(done)
			cl.writePump()
		}()
		cl.readPump(h)

		cancel()
		cl.unsubscribeAll()
		<-done
		cl.log.Debug("websocket closed")
	})
}

// readPump handles incoming messages until the connection fails.
func (cl *client) readPump(h *Handler) {
	cl.conn.SetReadLimit(4096)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cl.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		if cl.ctx.Err() != nil {
			return
		}

		switch msg.Action {
		case "subscribe":
			if err := h.subscribe(cl, msg.Topic); err != nil {
				cl.push(ServerMessage{Topic: msg.Topic, Error: apperr.MessageOf(err), Code: apperr.CodeOf(err)})
			}
		case "unsubscribe":
			cl.unsubscribe(msg.Topic)
		default:
			cl.push(ServerMessage{Topic: msg.Topic, Error: "unknown action", Code: apperr.CodeInvalidArgument})
		}
	}
}

// writePump owns every write to the connection, including pings.
func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case msg := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteJSON(msg); err != nil {
				cl.log.Debug("websocket write failed", zap.Error(err))
				cl.cancel()
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.cancel()
				return
			}
		case <-cl.ctx.Done():
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = cl.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// push queues msg without blocking. A client too slow to drain its queue
// is disconnected.
func (cl *client) push(msg ServerMessage) {
	select {
	case cl.send <- msg:
	default:
		cl.log.Warn("websocket send queue full, disconnecting")
		cl.cancel()
	}
}

func (cl *client) deliver(topic string) func(any) {
	return func(v any) {
		cl.push(ServerMessage{Topic: topic, Data: v})
	}
}

func (cl *client) unsubscribe(topic string) {
	cl.mu.Lock()
	sub, ok := cl.subs[topic]
	delete(cl.subs, topic)
	cl.mu.Unlock()
	if ok {
		sub.Cancel()
	}
}

func (cl *client) unsubscribeAll() {
	cl.mu.Lock()
	subs := cl.subs
	cl.subs = make(map[string]*realtime.Subscription)
	cl.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
	}
}

// subscribe opens the live query behind topic. Subscribing to a topic the
// client already holds is a no-op.
func (h *Handler) subscribe(cl *client, topic string) error {
	cl.mu.Lock()
	_, exists := cl.subs[topic]
	cl.mu.Unlock()
	if exists {
		return nil
	}

	sub, err := h.open(cl, topic)
	if err != nil {
		return err
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if _, raced := cl.subs[topic]; raced {
		go sub.Cancel()
		return nil
	}
	cl.subs[topic] = sub
	return nil
}

func (h *Handler) open(cl *client, topic string) (*realtime.Subscription, error) {
	push := cl.deliver(topic)
	name, teamID, scoped := strings.Cut(topic, ":")
	if scoped && teamID == "" {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "topic %q needs a team id", topic)
	}

	switch name {
	case "notifications":
		return h.svc.Notifications.Subscribe(cl.uid, func(v []models.Notification) { push(v) }), nil
	case "unread_count":
		return h.svc.Notifications.SubscribeUnreadCount(cl.uid, func(v int) { push(v) }), nil
	case "invitations":
		return h.svc.Membership.SubscribeInvitations(cl.uid, func(v services.InvitationSnapshot) { push(v) }), nil
	case "available_teams":
		return h.svc.Teams.SubscribeAvailable(func(v []models.Team) { push(v) }), nil
	case "my_team":
		return h.svc.Teams.SubscribeUserTeams(cl.uid, func(v []models.Team) { push(v) }), nil
	case "feed":
		return h.svc.Feed.SubscribeFeed(func(v []models.FeedPost) { push(v) }), nil
	case "my_posts":
		return h.svc.Feed.SubscribeUserPosts(cl.uid, func(v []models.FeedPost) { push(v) }), nil
	case "people":
		return h.svc.Profiles.SubscribeAvailable(cl.uid, func(v []models.Profile) { push(v) }), nil
	case "all_people":
		return h.svc.Profiles.SubscribeAll(cl.uid, func(v []models.Profile) { push(v) }), nil
	case "team_members":
		if scoped {
			return h.svc.Teams.SubscribeMembers(teamID, func(v []services.MemberProfile) { push(v) }), nil
		}
	case "join_requests":
		if scoped {
			if _, err := h.requireLeader(cl.ctx, teamID, cl.uid); err != nil {
				return nil, err
			}
			return h.svc.Membership.SubscribeJoinRequests(teamID, func(v []models.Invitation) { push(v) }), nil
		}
	case "workspace":
		if scoped {
			if err := h.requireMember(cl.ctx, teamID, cl.uid); err != nil {
				return nil, err
			}
			return h.svc.Workspace.Subscribe(teamID, func(v []models.WorkspaceLog) { push(v) }), nil
		}
	}
	return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown topic %q", topic)
}
