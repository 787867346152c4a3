package models

import (
	"time"
)

// Attendance status constants
const (
	StatusConfirmed = "CONFIRMED"
)

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AttendanceRecord is one confirmed check-in row (append-only)
type AttendanceRecord struct {
	ID            string    `json:"id" db:"id"`
	ClassID       string    `json:"class_id" db:"class_id"`
	WalletAddress string    `json:"wallet_address" db:"wallet_address"`
	StudentName   string    `json:"student_name" db:"student_name"`
	TxID          string    `json:"tx_id" db:"tx_id"`
	IPAddress     string    `json:"ip_address" db:"ip_address"`
	Status        string    `json:"status" db:"status"`
	RecordedAt    time.Time `json:"timestamp" db:"timestamp"`
}

// MarkAttendanceRequest is the student check-in payload. The location and
// QR fields are relayed from the scanned QR payload; older QR codes do not
// carry them, so none of them are required at binding time.
type MarkAttendanceRequest struct {
	ClassID         string  `json:"classId"`
	WalletAddress   string  `json:"walletAddress"`
	StudentName     string  `json:"studentName"`
	TxID            string  `json:"txId"`
	ParentPhone     string  `json:"parentPhone"`
	StudentLocation *LatLng `json:"studentLocation"`
	ClassLocation   *LatLng `json:"classLocation"`
	QRExpiry        int64   `json:"qrExpiry"`      // unix millis, 0 = legacy QR
	MaxDistance     float64 `json:"maxDistance"`   // meters, 0 = default
}
