package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trustcampus-backend/attendance"
	"trustcampus-backend/models"
)

// uniqueViolation is the SQLSTATE raised by the unique index on
// (class_id, ip_address).
const uniqueViolation = "23505"

// AttendanceStore is the pgx-backed attendance table. Rows are append-only;
// nothing in this store updates or deletes them.
type AttendanceStore struct {
	db *pgxpool.Pool
}

func NewAttendanceStore(db *pgxpool.Pool) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// FindByClassAndIP returns the existing record for a (class, IP) pair, or
// nil when the device has not checked in to this class yet.
func (s *AttendanceStore) FindByClassAndIP(ctx context.Context, classID, ip string) (*models.AttendanceRecord, error) {
	query := `
		SELECT id, class_id, wallet_address, student_name, tx_id, ip_address, status, timestamp
		FROM attendance
		WHERE class_id = $1 AND ip_address = $2
	`

	var record models.AttendanceRecord
	err := s.db.QueryRow(ctx, query, classID, ip).Scan(
		&record.ID,
		&record.ClassID,
		&record.WalletAddress,
		&record.StudentName,
		&record.TxID,
		&record.IPAddress,
		&record.Status,
		&record.RecordedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}

	return &record, nil
}

// Insert appends one attendance row. A unique violation on the
// (class_id, ip_address) index is reported as attendance.ErrDuplicateDevice
// so racing check-ins from one device resolve the same way as the read-side
// duplicate gate.
func (s *AttendanceStore) Insert(ctx context.Context, record *models.AttendanceRecord) (string, error) {
	query := `
		INSERT INTO attendance (id, class_id, wallet_address, student_name, tx_id, ip_address, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id string
	err := s.db.QueryRow(ctx, query,
		uuid.New(),
		record.ClassID,
		record.WalletAddress,
		record.StudentName,
		record.TxID,
		record.IPAddress,
		record.Status,
		record.RecordedAt,
	).Scan(&id)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return "", attendance.ErrDuplicateDevice
	}
	if err != nil {
		return "", fmt.Errorf("failed to insert attendance: %w", err)
	}

	return id, nil
}

// ListByClass returns every record for a class, newest first.
func (s *AttendanceStore) ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error) {
	query := `
		SELECT id, class_id, wallet_address, student_name, tx_id, ip_address, status, timestamp
		FROM attendance
		WHERE class_id = $1
		ORDER BY timestamp DESC
	`
	return s.list(ctx, query, classID)
}

// ListByWallet returns every record for a wallet, newest first.
func (s *AttendanceStore) ListByWallet(ctx context.Context, walletAddress string) ([]models.AttendanceRecord, error) {
	query := `
		SELECT id, class_id, wallet_address, student_name, tx_id, ip_address, status, timestamp
		FROM attendance
		WHERE wallet_address = $1
		ORDER BY timestamp DESC
	`
	return s.list(ctx, query, walletAddress)
}

// Report filters by wallet and/or class; both filters are optional.
func (s *AttendanceStore) Report(ctx context.Context, walletAddress, classID string) ([]models.AttendanceRecord, error) {
	query := `
		SELECT id, class_id, wallet_address, student_name, tx_id, ip_address, status, timestamp
		FROM attendance
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if walletAddress != "" {
		query += fmt.Sprintf(" AND wallet_address = $%d", argIndex)
		args = append(args, walletAddress)
		argIndex++
	}

	if classID != "" {
		query += fmt.Sprintf(" AND class_id = $%d", argIndex)
		args = append(args, classID)
		argIndex++
	}

	query += " ORDER BY timestamp DESC"

	return s.list(ctx, query, args...)
}

func (s *AttendanceStore) list(ctx context.Context, query string, args ...interface{}) ([]models.AttendanceRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		var record models.AttendanceRecord
		err := rows.Scan(
			&record.ID,
			&record.ClassID,
			&record.WalletAddress,
			&record.StudentName,
			&record.TxID,
			&record.IPAddress,
			&record.Status,
			&record.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
