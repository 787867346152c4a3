package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trustcampus-backend/attendance"
	"trustcampus-backend/models"
)

// RecordBrowser is the read side of the attendance table used by the
// listing endpoints.
type RecordBrowser interface {
	ListByClass(ctx context.Context, classID string) ([]models.AttendanceRecord, error)
	ListByWallet(ctx context.Context, walletAddress string) ([]models.AttendanceRecord, error)
	Report(ctx context.Context, walletAddress, classID string) ([]models.AttendanceRecord, error)
}

type AttendanceHandler struct {
	validator *attendance.Validator
	records   RecordBrowser
}

func NewAttendanceHandler(validator *attendance.Validator, records RecordBrowser) *AttendanceHandler {
	return &AttendanceHandler{
		validator: validator,
		records:   records,
	}
}

// MarkAttendance runs the check-in gates for a scanned QR. The client relays
// the QR payload's expiry, classroom location and radius in the request
// body; sessions are stateless so there is nothing to look up server-side.
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	session := models.QRSession{
		ClassID:           req.ClassID,
		ClassroomLocation: req.ClassLocation,
		MaxDistanceMeters: req.MaxDistance,
	}
	if req.QRExpiry != 0 {
		session.ExpiresAt = time.UnixMilli(req.QRExpiry)
	}

	checkIn := attendance.CheckInRequest{
		ClassID:         req.ClassID,
		WalletAddress:   req.WalletAddress,
		StudentName:     req.StudentName,
		TxID:            req.TxID,
		ParentPhone:     req.ParentPhone,
		StudentLocation: req.StudentLocation,
		SourceIP:        c.ClientIP(),
	}

	log.Printf("Check-in attempt: class=%s wallet=%s ip=%s", req.ClassID, req.WalletAddress, checkIn.SourceIP)

	result, err := h.validator.ValidateAndRecord(c.Request.Context(), checkIn, session)
	if err != nil {
		h.rejectCheckIn(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Attendance marked successfully",
		"recordId":        result.Record.ID,
		"smsSent":         result.SMSSent,
		"serverValidated": true,
		"ip":              checkIn.SourceIP,
	})
}

// rejectCheckIn maps each rejection reason onto its status code and
// user-facing message. Anything unrecognized is an internal error.
func (h *AttendanceHandler) rejectCheckIn(c *gin.Context, err error) {
	var outOfRange *attendance.OutOfRangeError

	switch {
	case errors.Is(err, attendance.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Missing required fields"})
	case errors.Is(err, attendance.ErrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.As(err, &outOfRange):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":       false,
			"error":         outOfRange.Error(),
			"fraudDetected": true,
		})
	case errors.Is(err, attendance.ErrDuplicateDevice):
		c.JSON(http.StatusForbidden, gin.H{
			"success":       false,
			"error":         err.Error(),
			"proxyDetected": true,
		})
	case errors.Is(err, attendance.ErrTransactionUnconfirmed):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		log.Printf("Mark attendance error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

// GetAttendanceByClass lists the attendance log for one class, newest first.
func (h *AttendanceHandler) GetAttendanceByClass(c *gin.Context) {
	classID := c.Query("classId")
	if classID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Class ID required"})
		return
	}

	records, err := h.records.ListByClass(c.Request.Context(), classID)
	if err != nil {
		log.Printf("Error listing attendance for class %s: %v", classID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "attendance": records})
}

// GetMyAttendance lists one wallet's attendance history, newest first.
func (h *AttendanceHandler) GetMyAttendance(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Address required"})
		return
	}

	records, err := h.records.ListByWallet(c.Request.Context(), address)
	if err != nil {
		log.Printf("Error listing attendance for wallet %s: %v", address, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "attendance": records})
}

// GetReport filters the attendance log by wallet and/or class.
func (h *AttendanceHandler) GetReport(c *gin.Context) {
	address := c.Query("address")
	classID := c.Query("classId")

	records, err := h.records.Report(c.Request.Context(), address, classID)
	if err != nil {
		log.Printf("Error building attendance report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "records": records})
}
