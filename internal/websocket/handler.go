// Package websocket streams subscription status events to authenticated
// dashboard sessions. Events originate from the Redis pub/sub channel the
// subscription flows publish to.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzv1310/seo-doctor-sub000/internal/domain/services"
	"github.com/rzv1310/seo-doctor-sub000/internal/infrastructure/events"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Handler struct {
	events *events.RedisEvents
	auth   services.AuthService
	logger *slog.Logger

	mu          sync.RWMutex
	connections int
}

func NewHandler(ev *events.RedisEvents, auth services.AuthService, logger *slog.Logger) *Handler {
	return &Handler{
		events: ev,
		auth:   auth,
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "Authorization required", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.addConnection(1)
	defer h.addConnection(-1)

	h.logger.Info("subscription event stream opened", "user_id", claims.UserID)
	h.stream(conn, claims.UserID)
	h.logger.Info("subscription event stream closed", "user_id", claims.UserID)
}

func (h *Handler) stream(conn *websocket.Conn, userID int64) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.events.Subscribe(ctx, userID)
	defer sub.Close()

	// Read pump: the dashboard never sends payloads, but reading drives
	// close and pong handling.
	go func() {
		defer cancel()
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongTimeout))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("websocket read error", "user_id", userID, "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.logger.Warn("websocket write error", "user_id", userID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) addConnection(delta int) {
	h.mu.Lock()
	h.connections += delta
	h.mu.Unlock()
}

func (h *Handler) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.connections
}

// Status reports stream health for the dashboard.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"active_connections": h.ConnectionCount(),
		"timestamp":          time.Now(),
	})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != authHeader {
			return token
		}
		return ""
	}
	// Browsers cannot set headers on websocket dials; fall back to query.
	return r.URL.Query().Get("token")
}
