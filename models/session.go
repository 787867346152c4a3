package models

import (
	"time"
)

// QRSession is one instructor-issued check-in window. Sessions are
// stateless: the descriptor is encoded whole into the QR payload and never
// persisted, so a session "exists" exactly as long as its QR does.
type QRSession struct {
	ClassID           string    `json:"class_id"`
	IssuedAt          time.Time `json:"issued_at"`
	ExpiresAt         time.Time `json:"expires_at"` // zero = legacy QR without expiry
	ClassroomLocation *LatLng   `json:"location,omitempty"`
	MaxDistanceMeters float64   `json:"max_distance"`
}

// HasExpiry reports whether the session carries an expiry at all. Legacy QR
// payloads without one always pass the expiry gate.
func (s QRSession) HasExpiry() bool {
	return !s.ExpiresAt.IsZero()
}

// CreateSessionRequest is the instructor-side QR issuance payload.
type CreateSessionRequest struct {
	ClassID     string  `json:"classId" binding:"required"`
	Location    *LatLng `json:"location" binding:"required"`
	MaxDistance float64 `json:"maxDistance"`
}
