package handler

import (
	"net/http"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/middleware"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler serves staff management for administrators and the
// maintenance roster for ward officers.
type UserHandler struct {
	svc   *service.UserService
	audit *service.AuditService
}

func NewUserHandler(svc *service.UserService, audit *service.AuditService) *UserHandler {
	return &UserHandler{svc: svc, audit: audit}
}

func (h *UserHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	f := repository.UserFilter{
		Role:   strings.ToUpper(c.Query("role")),
		Search: c.Query("search"),
	}
	if w := queryUint(c, "ward_id"); w != 0 {
		f.WardID = &w
	}
	switch c.Query("active") {
	case "true":
		v := true
		f.Active = &v
	case "false":
		v := false
		f.Active = &v
	}
	users, total, err := h.svc.List(f, page, limit)
	if err != nil {
		respondError(c, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total, "page": page, "limit": limit})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.Create(req)
	if err != nil {
		respondError(c, err, "failed to create user")
		return
	}
	recordAudit(c, h.audit, service.AuditCreate, "user", u.ID, map[string]interface{}{"role": u.Role})
	c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.svc.Update(id, req)
	if err != nil {
		respondError(c, err, "failed to update user")
		return
	}
	recordAudit(c, h.audit, service.AuditUpdate, "user", id, nil)
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Deactivate(middleware.GetUserID(c), id); err != nil {
		respondError(c, err, "failed to deactivate user")
		return
	}
	recordAudit(c, h.audit, service.AuditDelete, "user", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
}

// Maintenance lists maintenance team members a complaint can be assigned to.
func (h *UserHandler) Maintenance(c *gin.Context) {
	wardID := middleware.GetWardID(c)
	if w := queryUint(c, "ward_id"); w != 0 && wardID == nil {
		wardID = &w
	}
	users, err := h.svc.MaintenanceStaff(middleware.GetRole(c), wardID)
	if err != nil {
		respondError(c, err, "failed to list maintenance team")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}
