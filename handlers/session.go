package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"trustcampus-backend/attendance"
	"trustcampus-backend/models"
)

type SessionHandler struct {
	baseURL string
}

// NewSessionHandler takes the public base URL the QR links point at,
// normally the frontend origin.
func NewSessionHandler(baseURL string) *SessionHandler {
	return &SessionHandler{baseURL: baseURL}
}

// CreateSession issues a new QR check-in window for a class. Issuing again
// for the same class simply produces a fresh independent session; nothing is
// persisted, the returned URL is the session.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	session := attendance.IssueSession(req.ClassID, *req.Location, req.MaxDistance)

	qrURL, err := attendance.EncodePayloadURL(h.baseURL, session)
	if err != nil {
		log.Printf("Failed to encode QR payload for class %s: %v", req.ClassID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create session"})
		return
	}

	log.Printf("Issued QR session for class %s, expires %s", session.ClassID, session.ExpiresAt.Format("15:04:05"))

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"session": session,
		"qr_url":  qrURL,
	})
}
