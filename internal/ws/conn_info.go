package ws

import "time"

type ConnInfo struct {
	ConnID      string
	PlayerID    string
	SessionCode string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
