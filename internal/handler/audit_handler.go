package handler

import (
	"net/http"
	"strings"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/service"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	svc *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List returns audit entries, newest first, filtered by ?action= and ?resource=.
func (h *AuditHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)
	logs, total, err := h.svc.List(strings.ToUpper(c.Query("action")), c.Query("resource"), page, limit)
	if err != nil {
		respondError(c, err, "failed to list audit logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs, "total": total, "page": page, "limit": limit})
}
