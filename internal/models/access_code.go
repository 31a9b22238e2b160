package models

import "time"

type AccessCodeStatus string

const (
	AccessCodeAvailable AccessCodeStatus = "Available"
	AccessCodeUsed      AccessCodeStatus = "Used"
)

// AccessCode is a single-use registration voucher persisted under
// access_codes/{code}.json. Used transitions false→true exactly once;
// the record is never deleted.
type AccessCode struct {
	Code      string     `json:"code"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	ValidDays int        `json:"valid_days"`
	Used      bool       `json:"used"`
	UsedBy    string     `json:"used_by,omitempty"`
	UsedByAt  *time.Time `json:"used_by_at,omitempty"`
	CreatedBy string     `json:"created_by"`
}

// Status derives the listing status from the used flag.
func (c AccessCode) Status() AccessCodeStatus {
	if c.Used {
		return AccessCodeUsed
	}
	return AccessCodeAvailable
}

// Expired reports whether the code can no longer be redeemed, regardless
// of the used flag.
func (c AccessCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
