package models

import "time"

// AuditEvent is a best-effort trail record under audit/{id}.json. Writes
// are fire-and-forget; a lost event is logged, never surfaced to callers.
type AuditEvent struct {
	ID     string            `json:"id"`
	Action string            `json:"action"`
	Actor  string            `json:"actor,omitempty"`
	Detail map[string]string `json:"detail,omitempty"`
	At     time.Time         `json:"at"`
}
