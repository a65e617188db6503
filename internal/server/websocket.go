package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"purple-sphinx/internal/config"
	"purple-sphinx/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type role string

const (
	roleNone      role = ""
	roleHost      role = "host"
	rolePlayer    role = "player"
	roleSpectator role = "spectator"
)

// gateway owns websocket connections and fans room events out to every
// connection joined to the room.
type gateway struct {
	rooms     *room.Registry
	questions QuestionSource
	cfg       config.Config
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	groups  map[string]map[*client]struct{}
}

type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	roomCode string
	playerID string
	role     role
}

func newGateway(questions QuestionSource, cfg config.Config) *gateway {
	return &gateway{
		questions: questions,
		cfg:       cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
		groups:  make(map[string]map[*client]struct{}),
	}
}

func (g *gateway) handleWebsocket(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Debug().Err(err).Str("remote", c.Request.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	cl := &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, g.cfg.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(g.cfg.EventsPerSecond), g.cfg.EventBurst),
		done:    make(chan struct{}),
	}
	g.mu.Lock()
	g.clients[cl] = struct{}{}
	g.mu.Unlock()
	log.Info().Str("conn_id", cl.id).Str("remote", c.Request.RemoteAddr).Msg("websocket connected")

	go g.writePump(cl)
	go g.readPump(cl)
}

func (g *gateway) readPump(cl *client) {
	defer g.unregister(cl)

	cl.conn.SetReadLimit(g.cfg.MaxMessageBytes)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn_id", cl.id).Msg("websocket read failed")
			}
			return
		}
		g.handleFrame(cl, data)
	}
}

func (g *gateway) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case data := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			_ = cl.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
	}
}

// unregister runs once the read loop ends: the connection leaves its room
// and every binding it held there is released.
func (g *gateway) unregister(cl *client) {
	cl.close()
	g.mu.Lock()
	delete(g.clients, cl)
	g.mu.Unlock()

	code, _, _ := cl.binding()
	if code != "" {
		g.leave(cl, code)
	}
	log.Info().Str("conn_id", cl.id).Str("room_code", code).Msg("websocket disconnected")
}

// Broadcast implements room.Broadcaster. Connections whose send buffer is
// full are dropped.
func (g *gateway) Broadcast(code string, event room.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("room_code", code).Str("event", event.Type).Msg("encode event failed")
		return
	}
	g.mu.Lock()
	group := g.groups[code]
	targets := make([]*client, 0, len(group))
	for cl := range group {
		targets = append(targets, cl)
	}
	g.mu.Unlock()

	for _, cl := range targets {
		if !cl.enqueue(data) {
			log.Warn().Str("conn_id", cl.id).Str("room_code", code).Msg("slow websocket dropped")
		}
	}
}

// attach adds cl to the group for code and reports whether it was already
// a member. Membership elsewhere is untouched until bind.
func (g *gateway) attach(cl *client, code string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	group := g.groups[code]
	if group == nil {
		group = make(map[*client]struct{})
		g.groups[code] = group
	}
	_, member := group[cl]
	group[cl] = struct{}{}
	return member
}

// bind records a successful room command: cl leaves the room it was bound to
// before, if any, and is bound to code in role.
func (g *gateway) bind(cl *client, code string, r role, playerID string) {
	previous, _, _ := cl.binding()
	if previous != "" && previous != code {
		g.leave(cl, previous)
	}
	cl.setBinding(code, r, playerID)
}

func (g *gateway) detach(cl *client, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	group := g.groups[code]
	if group == nil {
		return
	}
	delete(group, cl)
	if len(group) == 0 {
		delete(g.groups, code)
	}
}

func (g *gateway) leave(cl *client, code string) {
	g.detach(cl, code)
	cl.setBinding("", roleNone, "")
	rm, err := g.rooms.Lookup(code)
	if err != nil {
		return
	}
	ctx, cancel := commandContext()
	defer cancel()
	if err := rm.Disconnect(ctx, cl.id); err != nil && !room.IsNotFound(err) {
		log.Warn().Err(err).Str("room_code", code).Str("conn_id", cl.id).Msg("disconnect failed")
	}
}

// closeRoom evicts every connection from the room, tells them why, and then
// removes the room from the registry.
func (g *gateway) closeRoom(code string) error {
	code = room.NormalizeCode(code)
	if _, err := g.rooms.Lookup(code); err != nil {
		return err
	}
	g.mu.Lock()
	group := g.groups[code]
	delete(g.groups, code)
	g.mu.Unlock()

	data, err := json.Marshal(room.Event{
		Type:    room.EventRoomClosed,
		Payload: gin.H{"code": code},
	})
	if err != nil {
		return err
	}
	for cl := range group {
		if current, _, _ := cl.binding(); current == code {
			cl.setBinding("", roleNone, "")
		}
		cl.enqueue(data)
	}
	return g.rooms.Remove(code)
}

func (g *gateway) closeAll() {
	g.mu.Lock()
	clients := make([]*client, 0, len(g.clients))
	for cl := range g.clients {
		clients = append(clients, cl)
	}
	g.mu.Unlock()
	for _, cl := range clients {
		cl.close()
	}
}

func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.close()
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *client) binding() (string, role, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode, c.role, c.playerID
}

func (c *client) setBinding(code string, r role, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
	c.role = r
	c.playerID = playerID
}
