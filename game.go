// ito session server
//
// Players join a short-lived room by 4-character code, each receives a private
// random card from 1-100, and a shared theme names a scale (e.g. "freezing" to
// "scorching"). Players give free-text clues placing their card on that scale,
// collaboratively drag themselves into a guessed order, then reveal cards in
// that order.
//
// Features:
// - Single WebSocket endpoint at /ws; rooms are created and joined over it
// - Room codes are 4-char crypto-random, with server-side collision check
// - createRoom auto-joins the creator as the first player
// - Joins are rejected once the host has started the match
// - Cards are dealt without replacement from [1, 100] per round
// - Round themes come from a built-in catalog or host-supplied labels
// - Clues and proposed orders are broadcast to the whole room
// - confirmOrder reveals {name, card} pairs in the proposed order
// - newGame clears cards, clues, theme, and order but keeps the player list
// - Idle rooms auto-swept after a configurable timeout
// - In-browser QR button to share a room join link, backed by go-qrcode
//
// There is deliberately no host-privilege check: anyone who knows the room
// code can start the match, deal, or confirm the reveal. Disconnects never
// mutate room state; stale rooms are the reaper's problem.

package main

import (
	cryptorand "crypto/rand"
	"encoding/hex"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type       string   `json:"type"`                 // "createRoom", "joinRoom", "startGame", "startRound", "customTheme", "sendClue", "updateOrder", "confirmOrder", "newGame"
	RoomCode   string   `json:"roomCode,omitempty"`   // all but createRoom
	PlayerName string   `json:"playerName,omitempty"` // createRoom / joinRoom
	Clue       string   `json:"clue,omitempty"`       // sendClue
	Title      string   `json:"title,omitempty"`      // customTheme
	Low        string   `json:"low,omitempty"`        // customTheme
	High       string   `json:"high,omitempty"`       // customTheme
	NewOrder   []string `json:"newOrder,omitempty"`   // updateOrder
}

// Direct reply to the creator with the new room's code.
type RoomCreatedMessage struct {
	Type     string `json:"type"` // "roomCreated"
	RoomCode string `json:"roomCode"`
}

// Direct reply to a join attempt.
type JoinResultMessage struct {
	Type   string `json:"type"`   // "joinResult"
	Status string `json:"status"` // "ok", "notFound", or "alreadyStarted"
}

// RoomStateMessage carries a full room snapshot to every subscriber.
type RoomStateMessage struct {
	Type string `json:"type"` // "updateRoom"
	Room *Room  `json:"room"`
}

type GameStartedMessage struct {
	Type string `json:"type"` // "gameStarted"
}

// YourCardMessage is private: one recipient, one card.
type YourCardMessage struct {
	Type string `json:"type"` // "yourCard"
	Card int    `json:"card"`
}

type NewThemeMessage struct {
	Type  string `json:"type"` // "newTheme"
	Theme Theme  `json:"theme"`
}

type NewClueMessage struct {
	Type string `json:"type"` // "newClue"
	Name string `json:"name"`
	Clue string `json:"clue"`
}

type OrderUpdatedMessage struct {
	Type  string   `json:"type"` // "orderUpdated"
	Order []string `json:"order"`
}

type RevealedCard struct {
	Name string `json:"name"`
	Card int    `json:"card"`
}

// RevealResultMessage is the ordered reveal, one batch for the whole room.
type RevealResultMessage struct {
	Type     string         `json:"type"` // "revealResult"
	Revealed []RevealedCard `json:"revealed"`
}

type NewGameMessage struct {
	Type string `json:"type"` // "newGameStarted"
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	roomCode string // room this client is subscribed to, if any
}

type event struct {
	client *Client
	msg    ClientMessage
}

// Game is the session coordinator. A single run() goroutine consumes inbound
// events one at a time, so no two triggers for the same room ever interleave
// their read-modify-write.
type Game struct {
	cfg *Config
	reg *Registry
	rng *rand.Rand

	clients map[*Client]bool
	members map[string]map[*Client]bool // room code -> subscribed clients

	register chan *Client
	unreg    chan *Client
	events   chan event
	sweeps   chan []string
}

// newGame wires a coordinator around a registry. A nil rng means the shared
// math/rand source.
func newGame(cfg *Config, reg *Registry, rng *rand.Rand) *Game {
	return &Game{
		cfg:      cfg,
		reg:      reg,
		rng:      rng,
		clients:  make(map[*Client]bool),
		members:  make(map[string]map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan event),
		sweeps:   make(chan []string),
	}
}

func (g *Game) run() {
	for {
		select {
		case c := <-g.register:
			g.clients[c] = true

		case c := <-g.unreg:
			g.dropClient(c)

		case ev := <-g.events:
			g.dispatch(ev)

		case codes := <-g.sweeps:
			g.dropRooms(codes)
		}
	}
}

func (g *Game) dispatch(ev event) {
	switch ev.msg.Type {
	case "createRoom":
		g.handleCreateRoom(ev.client, ev.msg)
	case "joinRoom":
		g.handleJoinRoom(ev.client, ev.msg)
	case "startGame":
		g.handleStartGame(ev.msg)
	case "startRound":
		g.handleStartRound(ev.msg)
	case "customTheme":
		g.handleCustomTheme(ev.msg)
	case "sendClue":
		g.handleSendClue(ev.client, ev.msg)
	case "updateOrder":
		g.handleUpdateOrder(ev.msg)
	case "confirmOrder":
		g.handleConfirmOrder(ev.msg)
	case "newGame":
		g.handleNewGame(ev.msg)
	default:
		// ignore unknown types
	}
}

// dropClient removes a client from the coordinator. Room state is never
// touched here.
func (g *Game) dropClient(c *Client) {
	if _, ok := g.clients[c]; !ok {
		return
	}
	delete(g.clients, c)
	if c.roomCode != "" {
		delete(g.members[c.roomCode], c)
	}
	close(c.send)
}

// dropRooms evicts the subscribers of rooms the reaper removed and forgets
// their member sets.
func (g *Game) dropRooms(codes []string) {
	for _, code := range codes {
		for c := range g.members[code] {
			g.dropClient(c)
		}
		delete(g.members, code)
	}
}

// reaperLoop periodically sweeps rooms that have been idle longer than
// idleTimeout, then hands the removed codes to the event loop for subscriber
// cleanup.
func (g *Game) reaperLoop(idleTimeout time.Duration) {
	ticker := time.NewTicker(idleTimeout / 2)
	for range ticker.C {
		removed := g.reg.sweepIdle(time.Now().Add(-idleTimeout))
		if len(removed) == 0 {
			continue
		}
		for _, code := range removed {
			logf(g.cfg, "ROOMS: Swept idle room %s", code)
		}
		g.sweeps <- removed
	}
}

// subscribe moves a client onto a room's broadcast list.
func (g *Game) subscribe(c *Client, code string) {
	if c.roomCode != "" {
		delete(g.members[c.roomCode], c)
	}
	c.roomCode = code
	if g.members[code] == nil {
		g.members[code] = make(map[*Client]bool)
	}
	g.members[code][c] = true
}

// sendTo delivers one message to one client, evicting it if its send buffer
// is full.
func (g *Game) sendTo(c *Client, msg any) {
	if _, ok := g.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		g.dropClient(c)
	}
}

// broadcast delivers one message to every subscriber of a room.
func (g *Game) broadcast(code string, msg any) {
	for c := range g.members[code] {
		select {
		case c.send <- msg:
		default:
			g.dropClient(c)
		}
	}
}

// broadcastRoom queues a detached snapshot, never the live room: each
// client's write goroutine marshals the message while the event loop moves
// on to the next mutation.
func (g *Game) broadcastRoom(room *Room) {
	g.broadcast(room.Code, RoomStateMessage{
		Type: "updateRoom",
		Room: room.Snapshot(),
	})
}

func (g *Game) handleCreateRoom(c *Client, msg ClientMessage) {
	name := msg.PlayerName
	if name == "" {
		name = "Host"
	}

	room := g.reg.CreateRoom(c.playerID)
	g.reg.JoinRoom(room.Code, c.playerID, name)
	g.subscribe(c, room.Code)

	logf(g.cfg, "ROOMS: %q created room %s", name, room.Code)

	g.sendTo(c, RoomCreatedMessage{
		Type:     "roomCreated",
		RoomCode: room.Code,
	})
	g.broadcastRoom(room)
}

func (g *Game) handleJoinRoom(c *Client, msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok {
		g.sendTo(c, JoinResultMessage{
			Type:   "joinResult",
			Status: "notFound",
		})
		return
	}

	if room.Started {
		g.sendTo(c, JoinResultMessage{
			Type:   "joinResult",
			Status: "alreadyStarted",
		})
		return
	}

	name := msg.PlayerName
	if name == "" {
		name = "Player"
	}

	g.reg.JoinRoom(room.Code, c.playerID, name)
	g.subscribe(c, room.Code)

	logf(g.cfg, "ROOMS: %q joined room %s", name, room.Code)

	g.sendTo(c, JoinResultMessage{
		Type:   "joinResult",
		Status: "ok",
	})
	g.broadcastRoom(room)
}

func (g *Game) handleStartGame(msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok {
		return
	}

	room.Started = true
	g.reg.Touch(room)

	logf(g.cfg, "GAMES: Match started in room %s with %d players", room.Code, len(room.Players))

	g.broadcast(room.Code, GameStartedMessage{Type: "gameStarted"})
	g.broadcastRoom(room)
}

func (g *Game) handleStartRound(msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok {
		return
	}

	g.startRound(room, randomTheme(g.rng))
}

func (g *Game) handleCustomTheme(msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok {
		return
	}

	g.startRound(room, customTheme(msg.Title, msg.Low, msg.High))
}

// startRound deals a fresh hand and announces the theme. Clues and the
// proposed order are left alone; newGame is the only thing that clears them.
func (g *Game) startRound(room *Room, theme Theme) {
	ids := make([]string, 0, len(room.Players))
	for id := range room.Players {
		ids = append(ids, id)
	}

	cards, err := dealCards(ids, g.rng)
	if err != nil {
		logf(g.cfg, "GAMES: Skipped deal in room %s: %v", room.Code, err)
		return
	}

	for id, card := range cards {
		room.Players[id].Card = card
	}
	room.Theme = &theme
	g.reg.Touch(room)

	logf(g.cfg, "GAMES: Dealt %d cards in room %s, theme %q", len(cards), room.Code, theme.Title)

	for c := range g.members[room.Code] {
		card, ok := cards[c.playerID]
		if !ok {
			continue
		}
		g.sendTo(c, YourCardMessage{
			Type: "yourCard",
			Card: card,
		})
	}

	g.broadcast(room.Code, NewThemeMessage{
		Type:  "newTheme",
		Theme: theme,
	})
	g.broadcastRoom(room)
}

func (g *Game) handleSendClue(c *Client, msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok {
		return
	}

	player, ok := room.Players[c.playerID]
	if !ok {
		return
	}

	player.Clue = msg.Clue
	g.reg.Touch(room)

	// Names are defaulted at join time, so player.Name is always set here.
	g.broadcast(room.Code, NewClueMessage{
		Type: "newClue",
		Name: player.Name,
		Clue: msg.Clue,
	})
}

// handleUpdateOrder replaces the proposed order wholesale. Ids are not
// validated against the player list; confirmOrder copes with strays.
func (g *Game) handleUpdateOrder(msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok {
		return
	}

	order := msg.NewOrder
	if order == nil {
		order = []string{}
	}
	room.Order = order
	g.reg.Touch(room)

	g.broadcast(room.Code, OrderUpdatedMessage{
		Type:  "orderUpdated",
		Order: order,
	})
}

func (g *Game) handleConfirmOrder(msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok || len(room.Order) == 0 {
		return
	}

	revealed := make([]RevealedCard, 0, len(room.Order))
	for _, id := range room.Order {
		player, ok := room.Players[id]
		if !ok {
			continue
		}
		revealed = append(revealed, RevealedCard{
			Name: player.Name,
			Card: player.Card,
		})
	}
	g.reg.Touch(room)

	logf(g.cfg, "GAMES: Revealed %d cards in room %s", len(revealed), room.Code)

	g.broadcast(room.Code, RevealResultMessage{
		Type:     "revealResult",
		Revealed: revealed,
	})
}

func (g *Game) handleNewGame(msg ClientMessage) {
	room, ok := g.reg.GetRoom(msg.RoomCode)
	if !ok {
		return
	}

	room.Order = []string{}
	room.Theme = nil
	for _, player := range room.Players {
		player.Card = 0
		player.Clue = ""
	}
	g.reg.Touch(room)

	logf(g.cfg, "GAMES: Reset room %s", room.Code)

	g.broadcast(room.Code, NewGameMessage{Type: "newGameStarted"})
	g.broadcastRoom(room)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// newPlayerID generates the opaque per-connection participant id.
func newPlayerID() string {
	buf := make([]byte, 16)
	if _, err := cryptorand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	return hex.EncodeToString(buf)
}

// serveWS upgrades the connection and hands it to the coordinator.
func serveWS(g *Game) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		playerID := newPlayerID()
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 8),
			playerID: playerID,
		}

		g.register <- client

		go client.writePump()
		client.readPump(g)
	}
}

func (c *Client) readPump(g *Game) {
	defer func() {
		g.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		g.events <- event{
			client: c,
			msg:    msg,
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// qrHandler generates a PNG QR code for a room join link using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/?room=" + code

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerItoGame sets up the game's registry, coordinator, reaper, and
// routes:
//   - /ws              → WebSocket for all rooms
//   - /room/:code/qr   → PNG QR code linking to the client with :code filled in
func registerItoGame(cfg *Config, mux *httprouter.Router) {
	reg := newRegistry()
	g := newGame(cfg, reg, nil)
	go g.run()

	if cfg.roomTimeout > 0 {
		go g.reaperLoop(cfg.roomTimeout)
	}

	mux.GET(cfg.prefix+"/ws", serveWS(g))
	mux.GET(cfg.prefix+"/room/:code/qr", qrHandler(cfg))
}
