package handler

import (
	"errors"
	"net/http"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/middleware"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc   *service.AuthService
	audit *service.AuditService
}

func NewAuthHandler(svc *service.AuthService, audit *service.AuditService) *AuthHandler {
	return &AuthHandler{svc: svc, audit: audit}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) auditLog(c *gin.Context, userID uint, action string, meta map[string]interface{}) {
	entry := service.AuditEntry{
		Action:    action,
		Resource:  "auth",
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Metadata:  meta,
	}
	if userID != 0 {
		entry.UserID = &userID
	}
	h.audit.Record(entry)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.Register(req)
	if err != nil {
		respondError(c, err, "registration failed")
		return
	}
	h.auditLog(c, sess.User.ID, service.AuditRegister, nil)
	c.JSON(http.StatusCreated, sess)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCreds) || errors.Is(err, service.ErrAccountInactive) {
			h.auditLog(c, 0, service.AuditLoginFailed, map[string]interface{}{"email": req.Email})
		}
		respondError(c, err, "login failed")
		return
	}
	h.auditLog(c, sess.User.ID, service.AuditLogin, map[string]interface{}{"method": "password"})
	c.JSON(http.StatusOK, sess)
}

// RequestLoginOTP always answers 200 for unknown emails.
func (h *AuthHandler) RequestLoginOTP(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.RequestLoginOTP(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		respondError(c, err, "failed to send code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a sign-in code has been sent"})
}

func (h *AuthHandler) VerifyLoginOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.VerifyLoginOTP(req.Email, req.Code)
	if err != nil {
		respondError(c, err, "verification failed")
		return
	}
	h.auditLog(c, sess.User.ID, service.AuditLogin, map[string]interface{}{"method": "otp"})
	c.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.RefreshToken(req.RefreshToken)
	if err != nil {
		respondError(c, err, "refresh failed")
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.svc.Me(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req service.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.UpdateProfile(middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uid := middleware.GetUserID(c)
	if err := h.svc.ChangePassword(uid, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err, "failed to change password")
		return
	}
	h.auditLog(c, uid, service.AuditPasswordChange, nil)
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// ForgotPassword always answers 200 for unknown emails.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		respondError(c, err, "failed to send reset code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset code has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.ResetPassword(req.Email, req.Code, req.NewPassword)
	if err != nil {
		respondError(c, err, "failed to reset password")
		return
	}
	h.auditLog(c, u.ID, service.AuditPasswordReset, nil)
	c.JSON(http.StatusOK, gin.H{"message": "password reset"})
}

// Logout is stateless; it only records the event.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auditLog(c, middleware.GetUserID(c), service.AuditLogout, nil)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) SetFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if err := h.svc.SetFCMToken(middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err, "failed to save token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token saved"})
}
