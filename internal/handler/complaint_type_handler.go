package handler

import (
	"net/http"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/domain"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/middleware"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

type ComplaintTypeHandler struct {
	svc   *service.ComplaintTypeService
	audit *service.AuditService
}

func NewComplaintTypeHandler(svc *service.ComplaintTypeService, audit *service.AuditService) *ComplaintTypeHandler {
	return &ComplaintTypeHandler{svc: svc, audit: audit}
}

// List returns active types; administrators may pass ?all=true.
func (h *ComplaintTypeHandler) List(c *gin.Context) {
	activeOnly := !(c.Query("all") == "true" && middleware.GetRole(c) == domain.RoleAdministrator)
	types, err := h.svc.List(activeOnly)
	if err != nil {
		respondError(c, err, "failed to list complaint types")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": types})
}

func (h *ComplaintTypeHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ct, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err, "failed to load complaint type")
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h *ComplaintTypeHandler) Create(c *gin.Context) {
	var req service.ComplaintTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ct, err := h.svc.Create(req)
	if err != nil {
		respondError(c, err, "failed to create complaint type")
		return
	}
	recordAudit(c, h.audit, service.AuditCreate, "complaint_type", ct.ID, map[string]interface{}{"name": ct.Name})
	c.JSON(http.StatusCreated, ct)
}

func (h *ComplaintTypeHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.ComplaintTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ct, err := h.svc.Update(id, req)
	if err != nil {
		respondError(c, err, "failed to update complaint type")
		return
	}
	recordAudit(c, h.audit, service.AuditUpdate, "complaint_type", id, nil)
	c.JSON(http.StatusOK, ct)
}

func (h *ComplaintTypeHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(id); err != nil {
		respondError(c, err, "failed to delete complaint type")
		return
	}
	recordAudit(c, h.audit, service.AuditDelete, "complaint_type", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "complaint type deleted"})
}
