package models

import "time"

// ScriptMeta is the sidecar record written next to a script body under
// metadata/{auth_key}.json. It may be transiently absent (the body is
// written first); readers must treat a missing sidecar as normal.
type ScriptMeta struct {
	AuthKey     string    `json:"auth_key"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UploadedBy  string    `json:"uploaded_by"`
}

// ScriptListing is one entry of the authenticated script listing: the
// store's object info joined with the metadata sidecar when present.
type ScriptListing struct {
	AuthKey    string      `json:"auth_key"`
	Size       int64       `json:"size"`
	UploadedAt time.Time   `json:"uploaded_at"`
	URL        string      `json:"url,omitempty"`
	Metadata   *ScriptMeta `json:"metadata,omitempty"`
}
