package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"minion-keep/server/internal/geom"
)

// Hub owns the world and the set of connected viewer sessions. The world is
// only touched under the hub mutex; sessions feed it through the event inbox
// and read the per-tick snapshots.
type Hub struct {
	mu                   sync.Mutex
	world                *World
	sessions             map[string]*sessionState
	subscribersBySession map[string]*Subscriber
	telemetry            *Telemetry
	tick                 uint64
}

type sessionState struct {
	id            string
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// Subscriber serializes writes to one socket connection.
type Subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteJSON marshals and sends a message under the write lock.
func (s *Subscriber) WriteJSON(v any, deadline time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(deadline))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub wraps a world for network access.
func NewHub(world *World, telemetry *Telemetry) *Hub {
	world.SetTelemetry(telemetry)
	return &Hub{
		world:                world,
		sessions:             make(map[string]*sessionState),
		subscribersBySession: make(map[string]*Subscriber),
		telemetry:            telemetry,
	}
}

// World exposes the underlying simulation for setup code.
func (h *Hub) World() *World {
	return h.world
}

// Join registers a new viewer session and returns the current snapshot.
func (h *Hub) Join() JoinResponse {
	sessionID := uuid.NewString()
	now := time.Now()

	h.mu.Lock()
	h.sessions[sessionID] = &sessionState{id: sessionID, lastHeartbeat: now}
	entities, conversation, mode := h.world.Snapshot(now)
	wizardID := h.world.WizardID()
	radius := h.world.worldRadius
	h.mu.Unlock()

	return JoinResponse{
		ID:              sessionID,
		WizardID:        wizardID,
		ProtocolVersion: ProtocolVersion,
		TickRate:        tickRate,
		WorldRadius:     radius,
		Entities:        entities,
		Conversation:    conversation,
		Mode:            mode,
	}
}

// Subscribe associates a WebSocket connection with an existing session.
func (h *Hub) Subscribe(sessionID string, conn *websocket.Conn) (*Subscriber, StateMessage, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.sessions[sessionID]
	if !ok {
		return nil, StateMessage{}, false
	}
	state.lastHeartbeat = time.Now()

	if existing, ok := h.subscribersBySession[sessionID]; ok {
		existing.conn.Close()
	}
	sub := &Subscriber{conn: conn}
	h.subscribersBySession[sessionID] = sub

	return sub, h.stateMessageLocked(time.Now()), true
}

// Disconnect removes a session and closes its connection if any.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	sub, subOK := h.subscribersBySession[sessionID]
	if subOK {
		delete(h.subscribersBySession, sessionID)
	}
	delete(h.sessions, sessionID)
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
}

// UpdateHeartbeat records the most recent heartbeat time and RTT for a
// session.
func (h *Hub) UpdateHeartbeat(sessionID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.sessions[sessionID]
	if !ok {
		return 0, false
	}
	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}
	return state.lastRTT, true
}

// HandleClientMessage translates a socket message into a world event.
// Unknown types are logged and dropped.
func (h *Hub) HandleClientMessage(sessionID string, msg ClientMessage) {
	now := time.Now()
	event := Event{EntityID: msg.EntityID, IssuedAt: now}

	switch msg.Type {
	case "grab":
		event.Type = EventGrab
	case "suspend":
		event.Type = EventSuspend
	case "release":
		event.Type = EventRelease
	case "moveTo":
		event.Type = EventMoveTo
		event.MoveTo = &MoveToEvent{Position: geom.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}}
	case "throw":
		event.Type = EventThrow
		throw := &ThrowEvent{Velocity: geom.Vec3{X: msg.VX, Y: msg.VY, Z: msg.VZ}}
		if msg.HasPoint {
			throw.Position = &geom.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}
		}
		event.Throw = throw
	case "selectMinion":
		event.Type = EventSelectMinion
	case "endConversation":
		event.Type = EventEndConversation
	case "toggleMode":
		event.Type = EventToggleMode
	case "assignMinion":
		event.Type = EventAssignMinion
		event.Assign = &AssignEvent{BuildingID: msg.BuildingID}
	case "unassignMinion":
		event.Type = EventUnassignMinion
	case "input":
		event.Type = EventAvatarInput
		event.Input = &AvatarInputEvent{DX: msg.DX, DZ: msg.DZ}
	default:
		log.Printf("unknown message type %q from %s", msg.Type, sessionID)
		return
	}

	if !h.world.EnqueueEvent(event) {
		log.Printf("event inbox full, dropping %s from %s", event.Type, sessionID)
	}
}

// advance runs one simulation step and returns the broadcast snapshot plus
// stale subscribers to close.
func (h *Hub) advance(now time.Time, dt float64) (StateMessage, []*Subscriber) {
	h.mu.Lock()

	toClose := make([]*Subscriber, 0)
	for id, state := range h.sessions {
		if now.Sub(state.lastHeartbeat) > disconnectAfter {
			if sub, ok := h.subscribersBySession[id]; ok {
				toClose = append(toClose, sub)
				delete(h.subscribersBySession, id)
			}
			delete(h.sessions, id)
			log.Printf("disconnecting %s due to heartbeat timeout", id)
		}
	}

	h.tick++
	started := time.Now()
	h.world.Step(h.tick, now, dt)
	elapsed := time.Since(started)
	budget := time.Second / tickRate
	h.telemetry.ObserveTick(elapsed, elapsed > budget)
	if elapsed > budget {
		h.world.reportTickOverrun(elapsed, budget)
	}

	msg := h.stateMessageLocked(now)
	h.mu.Unlock()

	return msg, toClose
}

func (h *Hub) stateMessageLocked(now time.Time) StateMessage {
	entities, conversation, mode := h.world.Snapshot(now)
	return StateMessage{
		Type:         "state",
		Tick:         h.tick,
		Entities:     entities,
		Conversation: conversation,
		Mode:         mode,
		ServerTime:   now.UnixMilli(),
	}
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now

			msg, toClose := h.advance(now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcastState(msg)
		}
	}
}

// broadcastState sends the latest snapshot to every subscriber.
func (h *Hub) broadcastState(msg StateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal state message: %v", err)
		return
	}
	h.telemetry.ObserveBroadcast(len(data), len(msg.Entities))

	h.mu.Lock()
	subs := make(map[string]*Subscriber, len(h.subscribersBySession))
	for id, sub := range h.subscribersBySession {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			log.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}

// DiagnosticsSnapshot exposes session heartbeat data.
func (h *Hub) DiagnosticsSnapshot() []DiagnosticsSession {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := make([]DiagnosticsSession, 0, len(h.sessions))
	for _, state := range h.sessions {
		sessions = append(sessions, DiagnosticsSession{
			ID:            state.id,
			LastHeartbeat: state.lastHeartbeat.UnixMilli(),
			RTTMillis:     state.lastRTT.Milliseconds(),
		})
	}
	return sessions
}

// Tick returns the last completed tick number.
func (h *Hub) Tick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tick
}

// TelemetrySnapshot copies the loop health counters.
func (h *Hub) TelemetrySnapshot() TelemetrySnapshot {
	return h.telemetry.Snapshot()
}

// MetricsHandler serves the prometheus scrape endpoint.
func (h *Hub) MetricsHandler() http.Handler {
	return h.telemetry.MetricsHandler()
}

// TickRate reports the fixed simulation frequency in frames per second.
func TickRate() int {
	return tickRate
}

// HeartbeatInterval reports how often clients are expected to heartbeat.
func HeartbeatInterval() time.Duration {
	return heartbeatInterval
}

// WriteWait reports the per-message socket write deadline.
func WriteWait() time.Duration {
	return writeWait
}
