package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"signal-backend/internal/infrastructure/auth"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub    *Hub
	tokens *auth.Tokens
	log    zerolog.Logger
}

func NewHandler(hub *Hub, tokens *auth.Tokens, log zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		log:    log.With().Str("component", "ws").Logger(),
	}
}

// Browsers cannot set headers on a websocket handshake, so the token may also come as ?token=.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.Verify(bearerToken(r))
	if err != nil {
		http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
		return
	}
	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		http.Error(w, "Could not validate credentials", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer conn.Close()

	c := h.hub.subscribe(accountID)
	defer h.hub.unsubscribe(c)
	h.log.Info().Str("account_id", claims.AccountID).Msg("client connected")

	done := make(chan struct{})
	go h.readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			h.log.Info().Str("account_id", claims.AccountID).Msg("client disconnected")
			return
		}
	}
}

// readLoop drains client frames so pongs and close messages are processed.
func (h *Handler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
