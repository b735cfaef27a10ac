package handler

import (
	"net/http"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

// ConfigHandler exposes system settings: a public whitelist and the full
// admin view.
type ConfigHandler struct {
	svc   *service.SettingsService
	audit *service.AuditService
}

func NewConfigHandler(svc *service.SettingsService, audit *service.AuditService) *ConfigHandler {
	return &ConfigHandler{svc: svc, audit: audit}
}

func (h *ConfigHandler) Public(c *gin.Context) {
	m, err := h.svc.Public()
	if err != nil {
		respondError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m})
}

func (h *ConfigHandler) List(c *gin.Context) {
	rows, err := h.svc.List()
	if err != nil {
		respondError(c, err, "failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *ConfigHandler) Get(c *gin.Context) {
	row, err := h.svc.Get(c.Param("key"))
	if err != nil {
		respondError(c, err, "failed to load setting")
		return
	}
	c.JSON(http.StatusOK, row)
}

// Upsert takes the key from the path when present.
func (h *ConfigHandler) Upsert(c *gin.Context) {
	var req service.SettingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if k := c.Param("key"); k != "" {
		req.Key = k
	}
	row, err := h.svc.Upsert(req)
	if err != nil {
		respondError(c, err, "failed to save setting")
		return
	}
	recordAudit(c, h.audit, service.AuditUpdate, "system_config", row.ID, map[string]interface{}{"key": row.Key, "value": row.Value})
	c.JSON(http.StatusOK, row)
}

func (h *ConfigHandler) Delete(c *gin.Context) {
	key := c.Param("key")
	if err := h.svc.Delete(key); err != nil {
		respondError(c, err, "failed to delete setting")
		return
	}
	recordAudit(c, h.audit, service.AuditDelete, "system_config", 0, map[string]interface{}{"key": key})
	c.JSON(http.StatusOK, gin.H{"message": "setting deleted"})
}
