package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	server "minion-keep/server"
	"minion-keep/server/internal/store"
)

// HTTPHandlerConfig wires the optional collaborators into the handler.
type HTTPHandlerConfig struct {
	ClientDir    string
	Logger       *log.Logger
	Store        *store.Store
	Metrics      nethttp.Handler
	LoggingStats func() map[string]uint64
}

// NewHTTPHandler builds the full route table for one hub.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := server.DiagnosticsReport{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       hub.Tick(),
			TickRate:   server.TickRate(),
			Heartbeat:  server.HeartbeatInterval().Milliseconds(),
			Sessions:   hub.DiagnosticsSnapshot(),
			Telemetry:  hub.TelemetrySnapshot(),
		}
		if cfg.LoggingStats != nil {
			payload.Logging = cfg.LoggingStats()
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/projects", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if cfg.Store == nil {
			httpError(w, "store disabled", nethttp.StatusNotFound)
			return
		}
		projects, err := cfg.Store.Projects()
		if err != nil {
			logger.Printf("failed to list projects: %v", err)
			httpError(w, "failed to list projects", nethttp.StatusInternalServerError)
			return
		}
		data, err := json.Marshal(projects)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		join := hub.Join()
		data, err := json.Marshal(join)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		sessionID := r.URL.Query().Get("id")
		if sessionID == "" {
			httpError(w, "missing id", nethttp.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade failed for %s: %v", sessionID, err)
			return
		}

		sub, initial, ok := hub.Subscribe(sessionID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		if err := sub.WriteJSON(initial, server.WriteWait()); err != nil {
			logger.Printf("failed to send initial state to %s: %v", sessionID, err)
			hub.Disconnect(sessionID)
			return
		}

		readLoop(hub, logger, sessionID, sub, conn)
	})

	if cfg.ClientDir != "" {
		mux.Handle("/", nethttp.FileServer(nethttp.Dir(cfg.ClientDir)))
	}

	return mux
}

// readLoop pumps client messages into the hub until the connection drops.
func readLoop(hub *server.Hub, logger *log.Logger, sessionID string, sub *server.Subscriber, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			hub.Disconnect(sessionID)
			return
		}

		var msg server.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Printf("discarding malformed message from %s: %v", sessionID, err)
			continue
		}

		if msg.Type == "heartbeat" {
			now := time.Now()
			rtt, ok := hub.UpdateHeartbeat(sessionID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := server.HeartbeatMessage{
				Type:       "heartbeat",
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			if err := sub.WriteJSON(ack, server.WriteWait()); err != nil {
				hub.Disconnect(sessionID)
				return
			}
			continue
		}

		hub.HandleClientMessage(sessionID, msg)
	}
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
