package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"trustcampus-backend/models"
)

// minPhoneDigits is the minimal sanity check before attempting a parent SMS.
const minPhoneDigits = 10

// RecordStore is the durable attendance table. Insert must reject a second
// row for the same (classID, ip) pair with ErrDuplicateDevice so that two
// near-simultaneous check-ins from one device cannot both land.
type RecordStore interface {
	FindByClassAndIP(ctx context.Context, classID, ip string) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, record *models.AttendanceRecord) (string, error)
	ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error)
	ListByWallet(ctx context.Context, walletAddress string) ([]models.AttendanceRecord, error)
}

// TxConfirmer reports whether a ledger transaction has been finalized.
type TxConfirmer interface {
	Confirmed(ctx context.Context, txID string) (bool, error)
}

// Notifier dispatches the parent SMS after a successful check-in.
type Notifier interface {
	SendParentNotification(ctx context.Context, phone, studentName, classID string, at time.Time) error
}

// CheckInRequest is one student's attempt against a QR session.
type CheckInRequest struct {
	ClassID         string
	WalletAddress   string
	StudentName     string
	TxID            string
	ParentPhone     string
	StudentLocation *models.LatLng
	SourceIP        string
}

// CheckInResult is the outcome of an accepted check-in.
type CheckInResult struct {
	Record  *models.AttendanceRecord
	SMSSent bool
}

// Validator runs the anti-fraud gates for a check-in, in order, stopping at
// the first failure. Collaborators are injected so the gate sequence can be
// tested without a database or ledger node.
type Validator struct {
	store    RecordStore
	ledger   TxConfirmer
	notifier Notifier

	now func() time.Time
}

func NewValidator(store RecordStore, ledger TxConfirmer, notifier Notifier) *Validator {
	return &Validator{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		now:      time.Now,
	}
}

// ValidateAndRecord applies the gates and, on success, persists exactly one
// CONFIRMED attendance record. The parent SMS is best-effort: its failure is
// logged and never changes the already-decided outcome.
func (v *Validator) ValidateAndRecord(ctx context.Context, req CheckInRequest, session models.QRSession) (*CheckInResult, error) {
	// Gate 1: required identifiers.
	if req.ClassID == "" || req.WalletAddress == "" || req.TxID == "" {
		return nil, ErrMissingFields
	}

	// Gate 2: QR expiry. Legacy QR codes carry no expiry and always pass.
	if session.HasExpiry() && v.now().After(session.ExpiresAt) {
		return nil, ErrExpired
	}

	// Gate 3: geofence. Skipped when either side lacks a location; an
	// unverifiable position does not block the check-in.
	if req.StudentLocation != nil && session.ClassroomLocation != nil {
		d := DistanceMeters(
			req.StudentLocation.Lat, req.StudentLocation.Lng,
			session.ClassroomLocation.Lat, session.ClassroomLocation.Lng,
		)

		allowed := session.MaxDistanceMeters
		if allowed <= 0 {
			allowed = DefaultMaxDistanceMeters
		}

		if d > allowed {
			log.Printf("Location fraud detected for class %s: distance %.0fm, allowed %.0fm", req.ClassID, d, allowed)
			return nil, &OutOfRangeError{DistanceMeters: d, AllowedMeters: allowed}
		}
		log.Printf("Location verified for class %s: %.0fm from classroom", req.ClassID, d)
	}

	// Gate 4: one entry per (class, IP). This checks the device, not the
	// wallet; a different wallet from the same IP is still rejected.
	existing, err := v.store.FindByClassAndIP(ctx, req.ClassID, req.SourceIP)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		log.Printf("Proxy detected: duplicate IP %s for class %s", req.SourceIP, req.ClassID)
		return nil, ErrDuplicateDevice
	}

	// Gate 5: ledger confirmation. Lookup errors count as unconfirmed.
	confirmed, err := v.ledger.Confirmed(ctx, req.TxID)
	if err != nil {
		log.Printf("Transaction verification error for %s: %v", req.TxID, err)
		return nil, ErrTransactionUnconfirmed
	}
	if !confirmed {
		return nil, ErrTransactionUnconfirmed
	}

	studentName := req.StudentName
	if studentName == "" {
		studentName = "Anonymous"
	}

	record := &models.AttendanceRecord{
		ClassID:       req.ClassID,
		WalletAddress: req.WalletAddress,
		StudentName:   studentName,
		TxID:          req.TxID,
		IPAddress:     req.SourceIP,
		Status:        models.StatusConfirmed,
		RecordedAt:    v.now(),
	}

	// The unique (class_id, ip_address) index backstops gate 4: whichever of
	// two racing requests inserts second gets the same rejection.
	id, err := v.store.Insert(ctx, record)
	if errors.Is(err, ErrDuplicateDevice) {
		return nil, ErrDuplicateDevice
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store attendance: %w", err)
	}
	record.ID = id

	result := &CheckInResult{Record: record}
	if len(req.ParentPhone) >= minPhoneDigits {
		if err := v.notifier.SendParentNotification(ctx, req.ParentPhone, studentName, req.ClassID, record.RecordedAt); err != nil {
			log.Printf("Parent SMS failed for %s: %v", req.ParentPhone, err)
		} else {
			result.SMSSent = true
			log.Printf("Parent SMS sent to %s", req.ParentPhone)
		}
	}

	return result, nil
}
