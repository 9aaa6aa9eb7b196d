package server

// Wire messages exchanged with rendering clients. Exported so the schema
// generator can reflect over them.

// JoinResponse answers a successful /join request.
type JoinResponse struct {
	ID              string               `json:"id"`
	WizardID        string               `json:"wizardId"`
	ProtocolVersion int                  `json:"protocolVersion"`
	TickRate        int                  `json:"tickRate"`
	WorldRadius     float64              `json:"worldRadius"`
	Entities        []Entity             `json:"entities"`
	Conversation    ConversationSnapshot `json:"conversation"`
	Mode            ModeSnapshot         `json:"mode"`
}

// StateMessage is the per-tick broadcast snapshot.
type StateMessage struct {
	Type         string               `json:"type"`
	Tick         uint64               `json:"tick"`
	Entities     []Entity             `json:"entities"`
	Conversation ConversationSnapshot `json:"conversation"`
	Mode         ModeSnapshot         `json:"mode"`
	ServerTime   int64                `json:"serverTime"`
}

// ClientMessage is the single envelope clients send over the socket. Type
// selects which fields are meaningful; unused fields are zero.
type ClientMessage struct {
	Type       string  `json:"type"`
	EntityID   string  `json:"entityId,omitempty"`
	BuildingID string  `json:"buildingId,omitempty"`
	DX         float64 `json:"dx,omitempty"`
	DZ         float64 `json:"dz,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Z          float64 `json:"z,omitempty"`
	VX         float64 `json:"vx,omitempty"`
	VY         float64 `json:"vy,omitempty"`
	VZ         float64 `json:"vz,omitempty"`
	HasPoint   bool    `json:"hasPoint,omitempty"`
	SentAt     int64   `json:"sentAt,omitempty"`
}

// HeartbeatMessage acknowledges a client heartbeat with timing data.
type HeartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// DiagnosticsSession exposes heartbeat data for one connected session.
type DiagnosticsSession struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
}

// DiagnosticsReport is the /diagnostics payload.
type DiagnosticsReport struct {
	Status     string               `json:"status"`
	ServerTime int64                `json:"serverTime"`
	Tick       uint64               `json:"tick"`
	TickRate   int                  `json:"tickRate"`
	Heartbeat  int64                `json:"heartbeatMillis"`
	Sessions   []DiagnosticsSession `json:"sessions"`
	Telemetry  TelemetrySnapshot    `json:"telemetry"`
	Logging    map[string]uint64    `json:"logging,omitempty"`
}
