package attendance

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"trustcampus-backend/models"
)

const (
	// SessionWindow is how long an issued QR stays scannable.
	SessionWindow = 5 * time.Minute

	// DefaultMaxDistanceMeters is the geofence radius used when the
	// instructor does not pick one.
	DefaultMaxDistanceMeters = 100
)

// IssueSession creates a new check-in window for a class. Issuing again for
// the same class produces an independent session; the old QR keeps working
// until its own expiry unless the instructor discards it.
func IssueSession(classID string, location models.LatLng, maxDistanceMeters float64) models.QRSession {
	if maxDistanceMeters <= 0 {
		maxDistanceMeters = DefaultMaxDistanceMeters
	}
	now := time.Now()
	return models.QRSession{
		ClassID:           classID,
		IssuedAt:          now,
		ExpiresAt:         now.Add(SessionWindow),
		ClassroomLocation: &location,
		MaxDistanceMeters: maxDistanceMeters,
	}
}

// qrPayload is the wire shape embedded in the QR URL. Timestamps are unix
// milliseconds to match what the scanning client already parses.
type qrPayload struct {
	ClassID     string         `json:"classId"`
	Timestamp   int64          `json:"timestamp"`
	Expiry      int64          `json:"expiry,omitempty"`
	Location    *models.LatLng `json:"location,omitempty"`
	MaxDistance float64        `json:"maxDistance,omitempty"`
}

// EncodePayloadURL renders the session into the scannable URL:
// <base>/mark-attendance?data=<percent-encoded JSON>.
func EncodePayloadURL(baseURL string, session models.QRSession) (string, error) {
	p := qrPayload{
		ClassID:     session.ClassID,
		Timestamp:   session.IssuedAt.UnixMilli(),
		Location:    session.ClassroomLocation,
		MaxDistance: session.MaxDistanceMeters,
	}
	if session.HasExpiry() {
		p.Expiry = session.ExpiresAt.UnixMilli()
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal QR payload: %w", err)
	}

	return baseURL + "/mark-attendance?data=" + url.QueryEscape(string(raw)), nil
}

// DecodePayload parses the JSON carried in the QR's data parameter back into
// a session. Payloads from older QR codes may omit expiry or location; those
// decode into a session that skips the corresponding gate, not an error.
func DecodePayload(raw string) (models.QRSession, error) {
	var p qrPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return models.QRSession{}, fmt.Errorf("invalid QR payload: %w", err)
	}

	session := models.QRSession{
		ClassID:           p.ClassID,
		ClassroomLocation: p.Location,
		MaxDistanceMeters: p.MaxDistance,
	}
	if p.Timestamp != 0 {
		session.IssuedAt = time.UnixMilli(p.Timestamp)
	}
	if p.Expiry != 0 {
		session.ExpiresAt = time.UnixMilli(p.Expiry)
	}
	return session, nil
}
