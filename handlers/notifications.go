package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"trustcampus-backend/notify"
)

type NotificationHandler struct {
	sms *notify.SMSService
}

func NewNotificationHandler(sms *notify.SMSService) *NotificationHandler {
	return &NotificationHandler{sms: sms}
}

// SendTest fires a one-off SMS to verify the gateway configuration.
func (h *NotificationHandler) SendTest(c *gin.Context) {
	var req struct {
		Phone   string `json:"phone" binding:"required"`
		Message string `json:"message"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number required"})
		return
	}

	message := req.Message
	if message == "" {
		message = "Test from TrustCampus!"
	}

	if err := h.sms.SendSMS(c.Request.Context(), req.Phone, message); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendParent re-sends the parent notification outside the check-in flow.
func (h *NotificationHandler) SendParent(c *gin.Context) {
	var req struct {
		ParentPhone string `json:"parentPhone" binding:"required"`
		StudentName string `json:"studentName" binding:"required"`
		ClassID     string `json:"classId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	if err := h.sms.SendParentNotification(c.Request.Context(), req.ParentPhone, req.StudentName, req.ClassID, time.Now()); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Status reports whether real SMS delivery is configured.
func (h *NotificationHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enabled":  h.sms.Enabled(),
		"provider": "Twilio",
	})
}
