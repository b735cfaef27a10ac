package handler

import (
	"net/http"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

// GuestHandler serves the unauthenticated complaint and tracking endpoints.
type GuestHandler struct {
	svc   *service.GuestService
	types *service.ComplaintTypeService
	wards *service.WardService
}

func NewGuestHandler(svc *service.GuestService, types *service.ComplaintTypeService, wards *service.WardService) *GuestHandler {
	return &GuestHandler{svc: svc, types: types, wards: wards}
}

type guestCodeRequest struct {
	ComplaintID string `json:"complaint_id" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
}

type guestTrackVerifyRequest struct {
	ComplaintID string `json:"complaint_id" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
}

func (h *GuestHandler) Submit(c *gin.Context) {
	var req service.CreateComplaintInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := h.svc.Submit(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		respondError(c, err, "failed to submit complaint")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"complaint":      sub.Complaint,
		"otp_expires_at": sub.OTPExpiresAt,
		"message":        "a verification code has been sent to " + sub.Complaint.ContactEmail,
	})
}

func (h *GuestHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, err := h.svc.Verify(req.Email, req.Code)
	if err != nil {
		respondError(c, err, "verification failed")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *GuestHandler) ResendOTP(c *gin.Context) {
	var req guestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expires, err := h.svc.ResendVerification(c.Request.Context(), req.ComplaintID, req.Email, c.ClientIP())
	if err != nil {
		respondError(c, err, "failed to resend code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"otp_expires_at": expires})
}

func (h *GuestHandler) RequestTrackingOTP(c *gin.Context) {
	var req guestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	expires, err := h.svc.RequestTrackingOTP(c.Request.Context(), req.ComplaintID, req.Email, c.ClientIP())
	if err != nil {
		respondError(c, err, "failed to send code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"otp_expires_at": expires})
}

func (h *GuestHandler) VerifyTracking(c *gin.Context) {
	var req guestTrackVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tracked, err := h.svc.VerifyTracking(req.ComplaintID, req.Email, req.Code)
	if err != nil {
		respondError(c, err, "verification failed")
		return
	}
	c.JSON(http.StatusOK, tracked)
}

func (h *GuestHandler) Track(c *gin.Context) {
	pc, err := h.svc.PublicStatus(c.Param("code"))
	if err != nil {
		respondError(c, err, "failed to load complaint")
		return
	}
	c.JSON(http.StatusOK, pc)
}

func (h *GuestHandler) ComplaintTypes(c *gin.Context) {
	types, err := h.types.List(true)
	if err != nil {
		respondError(c, err, "failed to list complaint types")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": types})
}

func (h *GuestHandler) Wards(c *gin.Context) {
	wards, err := h.wards.List(true, true)
	if err != nil {
		respondError(c, err, "failed to list wards")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wards})
}
